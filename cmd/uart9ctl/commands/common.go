// Package commands holds what the uart9ctl subcommands share: the global
// flags and the loading of the board profile and logger configuration.
package commands

import (
	"fmt"
	"os"

	"github.com/openseamap/tinygo-uart9/internal/board"
	"github.com/openseamap/tinygo-uart9/internal/config"
	"github.com/spf13/cobra"
)

// Global flag names, registered as persistent flags on the root command.
const (
	// BoardFlag is the path of a YAML board profile.
	BoardFlag = "board"
	// ConfigFlag is the path of a config.dat file.
	ConfigFlag = "config"
	// EEPROMFlag is the path of an EEPROM image file.
	EEPROMFlag = "eeprom"
)

// AddGlobalFlags registers the flags read by LoadProfile and LoadSettings.
func AddGlobalFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().String(BoardFlag, "", "board profile (YAML); the built-in logger profile when empty")
	cmd.PersistentFlags().String(ConfigFlag, "", "config.dat to read port settings from")
	cmd.PersistentFlags().String(EEPROMFlag, "", "EEPROM image to read port settings from, instead of config.dat")
}

// flagString looks up a flag on cmd or any of its parents. Missing flags read
// as empty, which lets subcommands run standalone in tests.
func flagString(cmd *cobra.Command, name string) string {
	f := cmd.Flag(name)
	if f == nil {
		return ""
	}
	return f.Value.String()
}

// LoadProfile returns the board profile selected by --board.
func LoadProfile(cmd *cobra.Command) (*board.Profile, error) {
	path := flagString(cmd, BoardFlag)
	if path == "" {
		return board.Default()
	}
	return board.Load(path)
}

// LoadSettings returns the logger configuration selected by --eeprom or
// --config, or the defaults when neither is set.
func LoadSettings(cmd *cobra.Command) (*config.Sections, error) {
	if path := flagString(cmd, EEPROMFlag); path != "" {
		image, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read EEPROM image: %w", err)
		}
		return config.FromEEPROM(image)
	}
	if path := flagString(cmd, ConfigFlag); path != "" {
		return config.Load(path)
	}
	return config.Load()
}
