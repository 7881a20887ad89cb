// Package loopback implements the uart9ctl command that runs two simulated
// USARTs wired to each other through the driver.
package loopback

import (
	"context"
	"fmt"
	"time"

	"github.com/GoogleCloudPlatform/galog"
	"github.com/openseamap/tinygo-uart9/cmd/uart9ctl/commands"
	"github.com/openseamap/tinygo-uart9/uart9"
	"github.com/openseamap/tinygo-uart9/uart9/sim"
	"github.com/spf13/cobra"
)

// Options configures a loopback run.
type Options struct {
	Clock   uint32
	Rate    uint32
	Line    uart9.LineConfig
	Count   int
	Tick    time.Duration
	Timeout time.Duration
}

// Result summarises a loopback run.
type Result struct {
	Sent       int
	Received   int
	Mismatches int
	Overruns   int
	Overflow   bool
}

// New returns a new cobra command for the loopback test.
func New() *cobra.Command {
	loopback := &cobra.Command{
		Use:   "loopback",
		Short: "Run a simulated loopback",
		Long: "Connects two simulated USARTs, sends a word pattern from one to the other " +
			"through the interrupt driven driver and checks what arrives. In nine-bit mode " +
			"every fourth word carries the ninth bit.",
		Args: cobra.NoArgs,
		RunE: runLoopback,
	}
	loopback.Flags().Uint32("rate", 4800, "baud rate")
	loopback.Flags().String("line", "9N1", "line format")
	loopback.Flags().Int("count", 256, "number of words to send")
	loopback.Flags().Duration("tick", 50*time.Microsecond, "simulated character time")
	loopback.Flags().Duration("timeout", 10*time.Second, "give up after this long")
	return loopback
}

func runLoopback(cmd *cobra.Command, args []string) error {
	profile, err := commands.LoadProfile(cmd)
	if err != nil {
		return fmt.Errorf("unable to load board profile: %w", err)
	}
	opts := Options{Clock: profile.ClockHz}
	if opts.Rate, err = cmd.Flags().GetUint32("rate"); err != nil {
		return err
	}
	line, err := cmd.Flags().GetString("line")
	if err != nil {
		return err
	}
	if opts.Line, err = uart9.ParseLineConfig(line); err != nil {
		return err
	}
	if opts.Count, err = cmd.Flags().GetInt("count"); err != nil {
		return err
	}
	if opts.Tick, err = cmd.Flags().GetDuration("tick"); err != nil {
		return err
	}
	if opts.Timeout, err = cmd.Flags().GetDuration("timeout"); err != nil {
		return err
	}

	res, err := Run(cmd.Context(), opts)
	cmd.Printf("sent %d, received %d, mismatches %d, overruns %d, overflow %t\n",
		res.Sent, res.Received, res.Mismatches, res.Overruns, res.Overflow)
	if err != nil {
		return err
	}
	if res.Mismatches != 0 || res.Received != res.Sent {
		return fmt.Errorf("loopback failed: %d of %d words wrong", res.Mismatches+res.Sent-res.Received, res.Sent)
	}
	return nil
}

// Pattern returns word i of the test pattern.
func Pattern(i int, nineBit bool) uart9.Word {
	return uart9.MakeWord(byte(i*7+1), nineBit && i%4 == 0)
}

// Run sends opts.Count words from one simulated port to the other.
func Run(ctx context.Context, opts Options) (Result, error) {
	var res Result
	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	ua, ub := sim.New(), sim.New()
	sim.Connect(ua, ub)
	sim.Connect(ub, ua)

	tx := uart9.NewPort(ua.Registers(), opts.Clock)
	rx := uart9.NewPort(ub.Registers(), opts.Clock)
	ua.AttachPort(tx)
	ub.AttachPort(rx)
	if err := tx.Begin(opts.Rate, opts.Line); err != nil {
		return res, err
	}
	if err := rx.Begin(opts.Rate, opts.Line); err != nil {
		return res, err
	}

	runCtx, stop := context.WithCancel(ctx)
	defer stop()
	go ua.Run(runCtx, opts.Tick)
	go ub.Run(runCtx, opts.Tick)

	writeErr := make(chan error, 1)
	go func() {
		for i := 0; i < opts.Count; i++ {
			if err := tx.WriteWordContext(ctx, Pattern(i, opts.Line.NineBit())); err != nil {
				writeErr <- err
				return
			}
		}
		writeErr <- tx.FlushContext(ctx)
	}()

	got := make([]uart9.Word, opts.Count)
	n, readErr := rx.ReadFullContext(ctx, got)
	res.Received = n
	res.Overflow = rx.Overflow()
	res.Overruns = ub.Overruns()

	if err := <-writeErr; err != nil {
		res.Sent = len(ua.Sent())
		return res, fmt.Errorf("writing: %w", err)
	}
	res.Sent = opts.Count
	for i := 0; i < n; i++ {
		if want := Pattern(i, opts.Line.NineBit()); got[i] != want {
			galog.V(1).Debugf("word %d: got 0x%03x, want 0x%03x", i, uint16(got[i]), uint16(want))
			res.Mismatches++
		}
	}
	if readErr != nil {
		return res, fmt.Errorf("reading: %w", readErr)
	}

	if err := tx.EndContext(ctx); err != nil {
		return res, err
	}
	if err := rx.EndContext(ctx); err != nil {
		return res, err
	}
	return res, nil
}
