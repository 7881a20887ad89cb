package ports

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/openseamap/tinygo-uart9/cmd/uart9ctl/commands"
	"github.com/openseamap/tinygo-uart9/cmd/uart9ctl/commands/testhelper"
	"github.com/openseamap/tinygo-uart9/internal/board"
	"github.com/openseamap/tinygo-uart9/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// newRoot wraps the command under a root carrying the global flags.
func newRoot() *cobra.Command {
	root := &cobra.Command{Use: "uart9ctl"}
	commands.AddGlobalFlags(root)
	root.AddCommand(New())
	return root
}

func writeFile(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("failed to write %q: %v", path, err)
	}
	return path
}

func TestPorts(t *testing.T) {
	cfgPath := writeFile(t, "config.dat", "[nmea_a]\nbaud = 1\nseatalk = true\n[nmea_b]\nbaud = 0\n")
	eeprom := filepath.Join(t.TempDir(), "eeprom.bin")

	out, err := testhelper.ExecuteCommand(context.Background(), newRoot(),
		[]string{"ports", "--config", cfgPath, "--write-eeprom", eeprom})
	if err != nil {
		t.Fatalf("ExecuteCommand(ports) failed unexpectedly: %v\n%s", err, out)
	}

	var got []Report
	if err := yaml.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("output is not YAML: %v\n%s", err, out)
	}
	want := []Report{
		{Name: "nmea_a", USART: 0, Enabled: true, Rate: 4800, Line: "9N1", Divisor: 416, DoubleSpeed: true},
		{Name: "nmea_b", USART: 1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ports returned diff (-want +got):\n%s", diff)
	}

	// The EEPROM image written above must resolve to the same ports.
	out, err = testhelper.ExecuteCommand(context.Background(), newRoot(), []string{"ports", "--eeprom", eeprom})
	if err != nil {
		t.Fatalf("ExecuteCommand(ports --eeprom) failed unexpectedly: %v\n%s", err, out)
	}
	got = nil
	if err := yaml.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("output is not YAML: %v\n%s", err, out)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ports --eeprom returned diff (-want +got):\n%s", diff)
	}
}

func TestPorts_Errors(t *testing.T) {
	badCfg := writeFile(t, "config.dat", "[nmea_b]\nbaud = 6\n")
	badBoard := writeFile(t, "board.yaml", "clock_hz: 0\n")

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "invalid_config", args: []string{"ports", "--config", badCfg}, wantErr: "unable to load configuration"},
		{name: "missing_config", args: []string{"ports", "--config", badCfg + ".missing"}, wantErr: "unable to load configuration"},
		{name: "invalid_board", args: []string{"ports", "--board", badBoard}, wantErr: "unable to load board profile"},
		{name: "extra_args", args: []string{"ports", "extra"}, wantErr: "unknown command"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out, err := testhelper.ExecuteCommand(context.Background(), newRoot(), tc.args)
			if err == nil {
				t.Fatalf("ExecuteCommand(%v) succeeded unexpectedly, want error: %s", tc.args, tc.wantErr)
			}
			if !strings.Contains(out, tc.wantErr) {
				t.Errorf("ExecuteCommand(%v) = %q, want error containing %q", tc.args, out, tc.wantErr)
			}
		})
	}
}

func TestResolve_BoardLimit(t *testing.T) {
	profile := &board.Profile{
		Name:    "slow",
		ClockHz: 16000000,
		Ports: []board.Port{
			{Name: "nmea_a", USART: 0, MaxRate: 2400},
			{Name: "nmea_b", USART: 1},
		},
	}
	settings, err := config.Load([]byte("[nmea_a]\nbaud = 4\n"))
	if err != nil {
		t.Fatalf("config.Load() failed unexpectedly: %v", err)
	}
	if _, err := Resolve(profile, settings); err == nil {
		t.Error("Resolve() succeeded with 9600 baud on a 2400 baud port, want error")
	}

	profile.Ports = profile.Ports[:1]
	settings.NMEAA.Baud = 1
	if _, err := Resolve(profile, settings); err == nil {
		t.Error("Resolve() succeeded without a board port for nmea_b, want error")
	}
}
