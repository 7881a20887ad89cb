// Package main is the host-side tool for the 9-bit UART driver: divisor
// tables, resolved port settings, a simulated loopback and a bridge to a
// real bus through a serial adapter.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/GoogleCloudPlatform/galog"
	"github.com/openseamap/tinygo-uart9/cmd/uart9ctl/commands"
	"github.com/openseamap/tinygo-uart9/cmd/uart9ctl/commands/baud"
	"github.com/openseamap/tinygo-uart9/cmd/uart9ctl/commands/bridge"
	"github.com/openseamap/tinygo-uart9/cmd/uart9ctl/commands/loopback"
	"github.com/openseamap/tinygo-uart9/cmd/uart9ctl/commands/ports"
	"github.com/openseamap/tinygo-uart9/internal/logger"
	"github.com/spf13/cobra"
)

const (
	// galogShutdownTimeout is the period of time we should wait for galog to
	// shutdown.
	galogShutdownTimeout = time.Second
)

// newRootCommand generates the root command with all subcommands.
func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "uart9ctl",
		Short:         "9-bit UART driver tool.",
		Long:          "Host tool for the 9-bit UART driver of the OpenSeaMap data logger.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := cmd.Flags().GetInt("log-level")
			if err != nil {
				return err
			}
			verbosity, err := cmd.Flags().GetInt("verbosity")
			if err != nil {
				return err
			}
			logFile, err := cmd.Flags().GetString("log-file")
			if err != nil {
				return err
			}
			return logger.Init(cmd.Context(), logger.Options{
				Ident:       filepath.Base(os.Args[0]),
				LogFile:     logFile,
				LogToStderr: true,
				Level:       level,
				Verbosity:   verbosity,
			})
		},
	}
	root.PersistentFlags().Int("log-level", 3, "log level (1 error to 4 debug)")
	root.PersistentFlags().Int("verbosity", 0, "debug verbosity")
	root.PersistentFlags().String("log-file", "", "also log to this file")
	commands.AddGlobalFlags(root)

	root.AddCommand(baud.New())
	root.AddCommand(ports.New())
	root.AddCommand(loopback.New())
	root.AddCommand(bridge.New())

	return root
}

func main() {
	ctx := context.Background()
	defer galog.Shutdown(galogShutdownTimeout)

	rootCmd := newRootCommand()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "uart9ctl: %v\n", err)
		galog.Shutdown(galogShutdownTimeout)
		os.Exit(1)
	}
}
