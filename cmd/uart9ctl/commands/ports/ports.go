// Package ports implements the uart9ctl command that resolves the logger
// configuration into per-port serial settings.
package ports

import (
	"fmt"
	"os"

	"github.com/openseamap/tinygo-uart9/cmd/uart9ctl/commands"
	"github.com/openseamap/tinygo-uart9/internal/board"
	"github.com/openseamap/tinygo-uart9/internal/config"
	"github.com/openseamap/tinygo-uart9/uart9"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Report is the resolved setup of one port.
type Report struct {
	Name        string `yaml:"name"`
	USART       int    `yaml:"usart"`
	Enabled     bool   `yaml:"enabled"`
	Rate        uint32 `yaml:"rate,omitempty"`
	Line        string `yaml:"line,omitempty"`
	Divisor     uint16 `yaml:"ubrr,omitempty"`
	DoubleSpeed bool   `yaml:"u2x,omitempty"`
}

// New returns a new cobra command for the port settings.
func New() *cobra.Command {
	ports := &cobra.Command{
		Use:   "ports",
		Short: "Show port settings",
		Long: "Resolves the logger configuration (config.dat or EEPROM image) against the " +
			"board profile and prints the rate, line format and divisor of every port as YAML.",
		Args: cobra.NoArgs,
		RunE: runPorts,
	}
	ports.Flags().String("write-eeprom", "", "also write the configuration as an EEPROM record image to this path")
	return ports
}

func runPorts(cmd *cobra.Command, args []string) error {
	profile, err := commands.LoadProfile(cmd)
	if err != nil {
		return fmt.Errorf("unable to load board profile: %w", err)
	}
	settings, err := commands.LoadSettings(cmd)
	if err != nil {
		return fmt.Errorf("unable to load configuration: %w", err)
	}

	reports, err := Resolve(profile, settings)
	if err != nil {
		return err
	}
	out, err := yaml.Marshal(reports)
	if err != nil {
		return fmt.Errorf("failed to encode port settings: %w", err)
	}
	cmd.Print(string(out))

	path, err := cmd.Flags().GetString("write-eeprom")
	if err != nil {
		return err
	}
	if path != "" {
		if err := os.WriteFile(path, settings.EEPROMRecord(), 0o644); err != nil {
			return fmt.Errorf("failed to write EEPROM image: %w", err)
		}
	}
	return nil
}

// Resolve pairs each configured port with its USART on the board and
// computes the divisor for the board clock.
func Resolve(profile *board.Profile, settings *config.Sections) ([]Report, error) {
	var reports []Report
	for _, ps := range settings.Ports() {
		bp, ok := profile.Port(ps.Name)
		if !ok {
			return nil, fmt.Errorf("board %q has no port %q", profile.Name, ps.Name)
		}
		r := Report{Name: ps.Name, USART: bp.USART, Enabled: ps.Enabled}
		if ps.Enabled {
			if err := bp.CheckRate(ps.Rate); err != nil {
				return nil, err
			}
			bs, err := uart9.CalcBaud(profile.ClockHz, ps.Rate, true)
			if err != nil {
				return nil, fmt.Errorf("port %q: %w", ps.Name, err)
			}
			r.Rate = ps.Rate
			r.Line = ps.Line.String()
			r.Divisor = bs.Divisor
			r.DoubleSpeed = bs.DoubleSpeed
		}
		reports = append(reports, r)
	}
	return reports, nil
}
