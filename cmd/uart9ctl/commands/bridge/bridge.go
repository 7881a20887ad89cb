// Package bridge implements the uart9ctl command that exchanges 9-bit words
// with a bus through a host serial adapter.
package bridge

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/openseamap/tinygo-uart9/cmd/uart9ctl/commands"
	"github.com/openseamap/tinygo-uart9/uart9"
	"github.com/openseamap/tinygo-uart9/uart9/hostserial"
	"github.com/spf13/cobra"
)

// pollInterval is how often the receive ring is drained while listening.
const pollInterval = 10 * time.Millisecond

// WordPort is the part of hostserial.Port the bridge uses.
type WordPort interface {
	WriteWord(w uart9.Word) (int, error)
	ReadWord() (uart9.Word, error)
	Flush() error
	Err() error
	Close() error
}

// open is replaced in tests.
var open = func(device string, rate uint32, line uart9.LineConfig) (WordPort, error) {
	return hostserial.Open(device, rate, line)
}

// New returns a new cobra command for the serial bridge.
func New() *cobra.Command {
	bridge := &cobra.Command{
		Use:   "bridge [word...]",
		Short: "Send and receive words on a serial adapter",
		Long: "Sends the given words (0x000 to 0x1ff; values above 0xff carry the ninth bit) " +
			"on a host serial adapter, then prints every word received until --listen expires. " +
			"Rate and line format default to port nmea_a of the logger configuration.",
		RunE: runBridge,
	}
	bridge.Flags().String("device", "", "serial device, e.g. /dev/ttyUSB0")
	bridge.Flags().Uint32("rate", 0, "baud rate; from the logger configuration when 0")
	bridge.Flags().String("line", "", "line format; from the logger configuration when empty")
	bridge.Flags().Duration("listen", time.Second, "how long to print received words")
	bridge.MarkFlagRequired("device")
	return bridge
}

// ParseWords parses the word arguments.
func ParseWords(args []string) ([]uart9.Word, error) {
	ws := make([]uart9.Word, 0, len(args))
	for _, a := range args {
		v, err := strconv.ParseUint(a, 0, 16)
		if err != nil || v > 0x1ff {
			return nil, fmt.Errorf("invalid word %q", a)
		}
		ws = append(ws, uart9.Word(v))
	}
	return ws, nil
}

func runBridge(cmd *cobra.Command, args []string) error {
	words, err := ParseWords(args)
	if err != nil {
		return err
	}
	device, err := cmd.Flags().GetString("device")
	if err != nil {
		return err
	}
	rate, err := cmd.Flags().GetUint32("rate")
	if err != nil {
		return err
	}
	lineFlag, err := cmd.Flags().GetString("line")
	if err != nil {
		return err
	}
	listen, err := cmd.Flags().GetDuration("listen")
	if err != nil {
		return err
	}

	settings, err := commands.LoadSettings(cmd)
	if err != nil {
		return fmt.Errorf("unable to load configuration: %w", err)
	}
	portA := settings.Ports()[0]
	line := portA.Line
	if lineFlag != "" {
		if line, err = uart9.ParseLineConfig(lineFlag); err != nil {
			return err
		}
	}
	if rate == 0 {
		rate = portA.Rate
	}
	if rate == 0 {
		return fmt.Errorf("port nmea_a is disabled in the configuration, set --rate")
	}

	p, err := open(device, rate, line)
	if err != nil {
		return err
	}
	defer p.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), listen)
	defer cancel()
	return Exchange(ctx, p, words, func(w uart9.Word) {
		cmd.Printf("0x%03x\n", uint16(w))
	})
}

// Exchange writes words to p, waits for them to drain and then hands every
// received word to fn until ctx is done.
func Exchange(ctx context.Context, p WordPort, words []uart9.Word, fn func(uart9.Word)) error {
	for _, w := range words {
		if _, err := p.WriteWord(w); err != nil {
			return err
		}
	}
	if len(words) > 0 {
		if err := p.Flush(); err != nil {
			return err
		}
	}

	t := time.NewTicker(pollInterval)
	defer t.Stop()
	for {
		for {
			w, err := p.ReadWord()
			if err != nil {
				break
			}
			fn(w)
		}
		if err := p.Err(); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
		}
	}
}
