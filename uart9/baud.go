// uart9/baud.go

package uart9

import (
	"errors"
	"fmt"
)

// MaxDivisor is the largest value the 12-bit UBRR register pair can hold.
const MaxDivisor = 4095

// quirkRate is forced to normal speed. Bootloaders shipped with older boards
// (and the USB bridge firmware talking to them) were built for the normal-speed
// divisor at this rate.
const quirkRate = 57600

// ErrBaudUnreachable is returned when no representable divisor exists for a
// rate at either speed.
var ErrBaudUnreachable = errors.New("baud rate not reachable")

// BaudSetting is what gets programmed into the peripheral: the UBRR divisor
// and whether the U2X (double-speed) bit is set.
type BaudSetting struct {
	Divisor     uint16
	DoubleSpeed bool
}

// CalcBaud computes the divisor for rate with the peripheral clocked at clock Hz.
// doubleSpeed is a preference: if the double-speed divisor does not fit in
// MaxDivisor the calculation falls back to normal speed. The divisor is
// round(clock/(8*rate))-1 at double speed and round(clock/(16*rate))-1 at
// normal speed, computed as (clock/k/rate-1)/2 with k = 4 or 8.
func CalcBaud(clock, rate uint32, doubleSpeed bool) (BaudSetting, error) {
	if clock == 0 || rate == 0 {
		return BaudSetting{}, fmt.Errorf("%w: clock %d Hz, rate %d", ErrBaudUnreachable, clock, rate)
	}
	if rate == quirkRate {
		doubleSpeed = false
	}
	for {
		k := uint32(8)
		if doubleSpeed {
			k = 4
		}
		q := clock / k / rate
		if q == 0 {
			// Rate above what the clock can produce; normal speed only gets worse.
			return BaudSetting{}, fmt.Errorf("%w: %d baud exceeds clock %d Hz", ErrBaudUnreachable, rate, clock)
		}
		div := (q - 1) / 2
		if div <= MaxDivisor {
			return BaudSetting{Divisor: uint16(div), DoubleSpeed: doubleSpeed}, nil
		}
		if !doubleSpeed {
			return BaudSetting{}, fmt.Errorf("%w: %d baud needs divisor %d at clock %d Hz", ErrBaudUnreachable, rate, div, clock)
		}
		doubleSpeed = false
	}
}

// Rate returns the bit rate actually produced by s at clock Hz.
func (s BaudSetting) Rate(clock uint32) uint32 {
	k := uint32(16)
	if s.DoubleSpeed {
		k = 8
	}
	return clock / (k * (uint32(s.Divisor) + 1))
}
