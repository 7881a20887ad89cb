// Package testhelper provides helpers for the uart9ctl command tests.
package testhelper

import (
	"bytes"
	"context"

	"github.com/spf13/cobra"
)

// ExecuteCommand runs cmd with args and returns everything it printed to
// stdout and stderr.
func ExecuteCommand(ctx context.Context, cmd *cobra.Command, args []string) (string, error) {
	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}
