package loopback

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/openseamap/tinygo-uart9/cmd/uart9ctl/commands/testhelper"
	"github.com/openseamap/tinygo-uart9/uart9"
	"github.com/stretchr/testify/require"
)

func TestRun(t *testing.T) {
	for _, line := range []uart9.LineConfig{uart9.Config9N1, uart9.Config8N1} {
		t.Run(line.String(), func(t *testing.T) {
			res, err := Run(context.Background(), Options{
				Clock:   16000000,
				Rate:    4800,
				Line:    line,
				Count:   200,
				Tick:    20 * time.Microsecond,
				Timeout: 10 * time.Second,
			})
			require.NoError(t, err)
			require.Equal(t, Result{Sent: 200, Received: 200}, res)
		})
	}
}

func TestRun_BeginFails(t *testing.T) {
	_, err := Run(context.Background(), Options{
		Clock:   16000000,
		Rate:    50,
		Line:    uart9.Config8N1,
		Count:   1,
		Tick:    time.Millisecond,
		Timeout: time.Second,
	})
	require.ErrorIs(t, err, uart9.ErrBaudUnreachable)
}

func TestPattern(t *testing.T) {
	require.True(t, Pattern(0, true).Ninth())
	require.False(t, Pattern(1, true).Ninth())
	require.True(t, Pattern(4, true).Ninth())
	require.False(t, Pattern(4, false).Ninth())
}

func TestLoopbackCommand(t *testing.T) {
	out, err := testhelper.ExecuteCommand(context.Background(), New(), []string{"--count", "32", "--tick", "20us"})
	require.NoError(t, err, out)
	require.True(t, strings.HasPrefix(out, "sent 32, received 32, mismatches 0"), out)

	_, err = testhelper.ExecuteCommand(context.Background(), New(), []string{"--line", "8X1"})
	require.ErrorIs(t, err, uart9.ErrInvalidFormat)
}
