package baud

import (
	"context"
	"strings"
	"testing"

	"github.com/openseamap/tinygo-uart9/cmd/uart9ctl/commands/testhelper"
)

func TestBaud(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want []string
	}{
		{
			name: "explicit_rate",
			args: []string{"9600"},
			want: []string{"clock 16000000 Hz", "9600    207 true       9615   0.16%"},
		},
		{
			name: "normal_speed",
			args: []string{"--normal-speed", "9600"},
			want: []string{"9600    103 false       9615   0.16%"},
		},
		{
			name: "forced_normal_speed",
			args: []string{"57600"},
			want: []string{"57600     16 false      58823   2.12%"},
		},
		{
			name: "other_clock",
			args: []string{"--clock", "8000000", "4800"},
			want: []string{"clock 8000000 Hz", "4800    207 true       4807   0.15%"},
		},
		{
			name: "unreachable",
			args: []string{"50"},
			want: []string{"50 baud rate not reachable"},
		},
		{
			name: "default_table",
			want: []string{"1200", "2400", "4800", "19200", "38400", "115200"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out, err := testhelper.ExecuteCommand(context.Background(), New(), tc.args)
			if err != nil {
				t.Fatalf("ExecuteCommand(baud, %v) failed unexpectedly: %v", tc.args, err)
			}
			for _, w := range tc.want {
				if !strings.Contains(out, w) {
					t.Errorf("ExecuteCommand(baud, %v) = %q, want it to contain %q", tc.args, out, w)
				}
			}
		})
	}
}

func TestBaud_InvalidRate(t *testing.T) {
	for _, arg := range []string{"fast", "0", "-1"} {
		if _, err := testhelper.ExecuteCommand(context.Background(), New(), []string{"--", arg}); err == nil {
			t.Errorf("ExecuteCommand(baud, %q) succeeded, want error", arg)
		}
	}
}
