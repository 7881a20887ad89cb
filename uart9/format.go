// uart9/format.go

package uart9

import (
	"errors"
	"fmt"
)

// ErrInvalidFormat is returned for line configurations the USART cannot produce.
var ErrInvalidFormat = errors.New("invalid line format")

// Parity defines the parity setting used for UART communication.
type Parity uint8

const (
	// ParityNone disables parity generation and checking (the most common setting).
	ParityNone Parity = iota
	// ParityEven sets even parity (total number of 1 bits is even).
	ParityEven
	// ParityOdd sets odd parity (total number of 1 bits is odd).
	ParityOdd
)

// LineConfig is the line configuration byte passed to Begin. Bits 7..1 are
// the UCSRC image (parity, stop bits, character size); bit 0 selects the
// ninth transport bit, which also requires the 8-bit character size in UCSRC.
type LineConfig uint8

const lineNineBit LineConfig = 0x01

// Common line configurations.
const (
	Config5N1 LineConfig = 0x00
	Config6N1 LineConfig = 0x02
	Config7N1 LineConfig = 0x04
	Config8N1 LineConfig = 0x06
	Config8N2 LineConfig = 0x0E
	Config7E1 LineConfig = 0x24
	Config8E1 LineConfig = 0x26
	Config8O1 LineConfig = 0x36
	Config9N1 LineConfig = 0x07
	Config9N2 LineConfig = 0x0F
	Config9E1 LineConfig = 0x27
	Config9O1 LineConfig = 0x37
)

// NewLineConfig builds a line configuration from its parts. databits may be
// 5 to 9; 9 enables the ninth transport bit.
func NewLineConfig(databits, stopbits uint8, parity Parity) (LineConfig, error) {
	if databits < 5 || databits > 9 {
		return 0, fmt.Errorf("%w: %d data bits", ErrInvalidFormat, databits)
	}
	if stopbits != 1 && stopbits != 2 {
		return 0, fmt.Errorf("%w: %d stop bits", ErrInvalidFormat, stopbits)
	}

	var c LineConfig
	if databits == 9 {
		c = Config8N1 | lineNineBit
	} else {
		c = LineConfig(databits-5) << 1
	}
	if stopbits == 2 {
		c |= LineConfig(UCSRC_USBS)
	}
	switch parity {
	case ParityNone:
	case ParityEven:
		c |= LineConfig(UCSRC_UPM1)
	case ParityOdd:
		c |= LineConfig(UCSRC_UPM1 | UCSRC_UPM0)
	default:
		return 0, fmt.Errorf("%w: parity %d", ErrInvalidFormat, parity)
	}
	return c, nil
}

// NineBit reports whether the ninth transport bit is active.
func (c LineConfig) NineBit() bool { return c&lineNineBit != 0 }

// DataBits returns the character size, 5 to 9.
func (c LineConfig) DataBits() uint8 {
	n := 5 + uint8(c>>1)&0x03
	if c.NineBit() {
		n++
	}
	return n
}

// StopBits returns 1 or 2.
func (c LineConfig) StopBits() uint8 {
	if uint8(c)&UCSRC_USBS != 0 {
		return 2
	}
	return 1
}

// Parity returns the parity mode.
func (c LineConfig) Parity() Parity {
	switch uint8(c) & (UCSRC_UPM1 | UCSRC_UPM0) {
	case UCSRC_UPM1:
		return ParityEven
	case UCSRC_UPM1 | UCSRC_UPM0:
		return ParityOdd
	}
	return ParityNone
}

// Validate rejects the reserved encodings: the UPM0-only parity mode, mode
// select bits, and the ninth bit on anything but an 8-bit character size.
func (c LineConfig) Validate() error {
	if uint8(c)&(UCSRC_UPM1|UCSRC_UPM0) == UCSRC_UPM0 {
		return fmt.Errorf("%w: reserved parity mode in 0x%02x", ErrInvalidFormat, uint8(c))
	}
	if uint8(c)&(UCSRC_UMSEL1|UCSRC_UMSEL0) != 0 {
		return fmt.Errorf("%w: 0x%02x is not an asynchronous mode", ErrInvalidFormat, uint8(c))
	}
	if c.NineBit() && uint8(c)&(UCSRC_UCSZ1|UCSRC_UCSZ0) != UCSRC_UCSZ1|UCSRC_UCSZ0 {
		return fmt.Errorf("%w: ninth bit needs 8-bit characters in 0x%02x", ErrInvalidFormat, uint8(c))
	}
	return nil
}

// ucsrc returns the image written to UCSRC.
func (c LineConfig) ucsrc() uint8 { return uint8(c &^ lineNineBit) }

func (c LineConfig) String() string {
	p := "N"
	switch c.Parity() {
	case ParityEven:
		p = "E"
	case ParityOdd:
		p = "O"
	}
	return fmt.Sprintf("%d%s%d", c.DataBits(), p, c.StopBits())
}

// ParseLineConfig parses the String form, such as "8N1" or "9N1".
func ParseLineConfig(s string) (LineConfig, error) {
	if len(s) != 3 || s[0] < '5' || s[0] > '9' || (s[2] != '1' && s[2] != '2') {
		return 0, fmt.Errorf("%w: %q", ErrInvalidFormat, s)
	}
	var parity Parity
	switch s[1] {
	case 'N', 'n':
		parity = ParityNone
	case 'E', 'e':
		parity = ParityEven
	case 'O', 'o':
		parity = ParityOdd
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidFormat, s)
	}
	return NewLineConfig(s[0]-'0', s[2]-'0', parity)
}
