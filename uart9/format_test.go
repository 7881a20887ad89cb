package uart9

import (
	"errors"
	"testing"
)

func TestNewLineConfig(t *testing.T) {
	tests := []struct {
		data, stop uint8
		parity     Parity
		want       LineConfig
		str        string
	}{
		{5, 1, ParityNone, Config5N1, "5N1"},
		{6, 1, ParityNone, Config6N1, "6N1"},
		{7, 1, ParityNone, Config7N1, "7N1"},
		{8, 1, ParityNone, Config8N1, "8N1"},
		{8, 2, ParityNone, Config8N2, "8N2"},
		{7, 1, ParityEven, Config7E1, "7E1"},
		{8, 1, ParityEven, Config8E1, "8E1"},
		{8, 1, ParityOdd, Config8O1, "8O1"},
		{9, 1, ParityNone, Config9N1, "9N1"},
		{9, 2, ParityNone, Config9N2, "9N2"},
		{9, 1, ParityEven, Config9E1, "9E1"},
		{9, 1, ParityOdd, Config9O1, "9O1"},
	}
	for _, tc := range tests {
		t.Run(tc.str, func(t *testing.T) {
			got, err := NewLineConfig(tc.data, tc.stop, tc.parity)
			if err != nil {
				t.Fatalf("NewLineConfig(%d, %d, %d) failed: %v", tc.data, tc.stop, tc.parity, err)
			}
			if got != tc.want {
				t.Fatalf("NewLineConfig(%d, %d, %d) = 0x%02x, want 0x%02x", tc.data, tc.stop, tc.parity, uint8(got), uint8(tc.want))
			}
			if got.DataBits() != tc.data || got.StopBits() != tc.stop || got.Parity() != tc.parity {
				t.Errorf("0x%02x decodes to %d/%d/%d, want %d/%d/%d", uint8(got),
					got.DataBits(), got.StopBits(), got.Parity(), tc.data, tc.stop, tc.parity)
			}
			if got.NineBit() != (tc.data == 9) {
				t.Errorf("NineBit() = %v for %s", got.NineBit(), tc.str)
			}
			if s := got.String(); s != tc.str {
				t.Errorf("String() = %q, want %q", s, tc.str)
			}
			if err := got.Validate(); err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
			parsed, err := ParseLineConfig(tc.str)
			if err != nil || parsed != got {
				t.Errorf("ParseLineConfig(%q) = 0x%02x, %v; want 0x%02x", tc.str, uint8(parsed), err, uint8(got))
			}
		})
	}
}

func TestNineBitUCSRC(t *testing.T) {
	// The ninth bit lives in UCSRB; UCSRC only carries the 8-bit size.
	if got := Config9N1.ucsrc(); got != UCSRC_UCSZ1|UCSRC_UCSZ0 {
		t.Fatalf("Config9N1.ucsrc() = 0x%02x, want 0x06", got)
	}
}

func TestLineConfig_Invalid(t *testing.T) {
	for _, c := range []LineConfig{
		0x16, // UPM0 without UPM1
		0x46, // synchronous mode
		0x05, // ninth bit on 7-bit characters
	} {
		if err := c.Validate(); !errors.Is(err, ErrInvalidFormat) {
			t.Errorf("LineConfig(0x%02x).Validate() = %v, want ErrInvalidFormat", uint8(c), err)
		}
	}

	bad := []struct {
		data, stop uint8
		parity     Parity
	}{
		{4, 1, ParityNone},
		{10, 1, ParityNone},
		{8, 0, ParityNone},
		{8, 3, ParityNone},
		{8, 1, Parity(7)},
	}
	for _, b := range bad {
		if _, err := NewLineConfig(b.data, b.stop, b.parity); !errors.Is(err, ErrInvalidFormat) {
			t.Errorf("NewLineConfig(%d, %d, %d) = %v, want ErrInvalidFormat", b.data, b.stop, b.parity, err)
		}
	}

	for _, s := range []string{"", "8N", "8X1", "4N1", "8N3", "8N1 "} {
		if _, err := ParseLineConfig(s); err == nil {
			t.Errorf("ParseLineConfig(%q) succeeded, want error", s)
		}
	}
}
