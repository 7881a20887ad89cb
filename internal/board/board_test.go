package board

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDefault(t *testing.T) {
	p, err := Default()
	if err != nil {
		t.Fatalf("Default() failed unexpectedly with error: %v", err)
	}
	want := &Profile{
		Name:    "osm-logger",
		ClockHz: 16000000,
		Ports: []Port{
			{Name: "nmea_a", USART: 0},
			{Name: "nmea_b", USART: 1, MaxRate: 4800},
		},
	}
	if diff := cmp.Diff(want, p); diff != "" {
		t.Errorf("Default() returned diff (-want +got):\n%s", diff)
	}

	b, ok := p.Port("nmea_b")
	if !ok {
		t.Fatal("Port(nmea_b) not found")
	}
	if err := b.CheckRate(4800); err != nil {
		t.Errorf("CheckRate(4800) = %v, want nil", err)
	}
	if err := b.CheckRate(9600); !errors.Is(err, ErrInvalidProfile) {
		t.Errorf("CheckRate(9600) = %v, want ErrInvalidProfile", err)
	}
	if _, ok := p.Port("nmea_c"); ok {
		t.Error("Port(nmea_c) found, want missing")
	}
}

func TestLoad(t *testing.T) {
	data := `
name: bench
clock_hz: 8000000
ports:
  - name: bus
    usart: 3
`
	path := filepath.Join(t.TempDir(), "bench.yaml")
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("failed to write %q: %v", path, err)
	}
	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load(%q) failed unexpectedly with error: %v", path, err)
	}
	if p.ClockHz != 8000000 || len(p.Ports) != 1 || p.Ports[0].USART != 3 {
		t.Errorf("Load(%q) = %+v", path, p)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load() of a missing file succeeded, want error")
	}
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "no_clock", data: "ports:\n  - name: a\n    usart: 0\n"},
		{name: "no_ports", data: "clock_hz: 16000000\n"},
		{name: "unnamed_port", data: "clock_hz: 1\nports:\n  - usart: 0\n"},
		{name: "usart_out_of_range", data: "clock_hz: 1\nports:\n  - name: a\n    usart: 4\n"},
		{name: "duplicate_name", data: "clock_hz: 1\nports:\n  - name: a\n    usart: 0\n  - name: a\n    usart: 1\n"},
		{name: "duplicate_usart", data: "clock_hz: 1\nports:\n  - name: a\n    usart: 0\n  - name: b\n    usart: 0\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Parse([]byte(tc.data)); !errors.Is(err, ErrInvalidProfile) {
				t.Errorf("Parse() = %v, want ErrInvalidProfile", err)
			}
		})
	}

	if _, err := Parse([]byte("clock_hz: [")); err == nil {
		t.Error("Parse() of malformed YAML succeeded, want error")
	}
}
