// Package baud implements the uart9ctl command that prints baud divisors.
package baud

import (
	"fmt"
	"strconv"

	"github.com/openseamap/tinygo-uart9/cmd/uart9ctl/commands"
	"github.com/openseamap/tinygo-uart9/internal/config"
	"github.com/openseamap/tinygo-uart9/uart9"
	"github.com/spf13/cobra"
)

// extraRates are listed after the configurable table rates.
var extraRates = []uint32{57600, 115200}

// New returns a new cobra command for the divisor table.
func New() *cobra.Command {
	baud := &cobra.Command{
		Use:   "baud [rate...]",
		Short: "Print baud divisors",
		Long: "Prints the UBRR divisor, speed mode and achieved rate for each rate at the " +
			"board clock. Without arguments the logger rate table is used.",
		RunE: runBaud,
	}
	baud.Flags().Uint32("clock", 0, "peripheral clock in Hz; the board profile clock when 0")
	baud.Flags().Bool("normal-speed", false, "do not prefer double speed (U2X)")
	return baud
}

func runBaud(cmd *cobra.Command, args []string) error {
	clock, err := cmd.Flags().GetUint32("clock")
	if err != nil {
		return err
	}
	if clock == 0 {
		profile, err := commands.LoadProfile(cmd)
		if err != nil {
			return fmt.Errorf("unable to load board profile: %w", err)
		}
		clock = profile.ClockHz
	}
	normal, err := cmd.Flags().GetBool("normal-speed")
	if err != nil {
		return err
	}

	rates, err := parseRates(args)
	if err != nil {
		return err
	}

	cmd.Printf("clock %d Hz\n", clock)
	cmd.Printf("%8s %6s %4s %10s %7s\n", "rate", "ubrr", "u2x", "actual", "error")
	for _, rate := range rates {
		bs, err := uart9.CalcBaud(clock, rate, !normal)
		if err != nil {
			cmd.Printf("%8d %s\n", rate, err)
			continue
		}
		actual := bs.Rate(clock)
		cmd.Printf("%8d %6d %4t %10d %6.2f%%\n", rate, bs.Divisor, bs.DoubleSpeed, actual, errorPercent(rate, actual))
	}
	return nil
}

func parseRates(args []string) ([]uint32, error) {
	if len(args) == 0 {
		var rates []uint32
		for _, r := range config.BaudRates {
			if r != 0 {
				rates = append(rates, r)
			}
		}
		return append(rates, extraRates...), nil
	}
	rates := make([]uint32, 0, len(args))
	for _, a := range args {
		r, err := strconv.ParseUint(a, 10, 32)
		if err != nil || r == 0 {
			return nil, fmt.Errorf("invalid baud rate %q", a)
		}
		rates = append(rates, uint32(r))
	}
	return rates, nil
}

// errorPercent is the deviation of actual from want.
func errorPercent(want, actual uint32) float64 {
	return (float64(actual) - float64(want)) * 100 / float64(want)
}
