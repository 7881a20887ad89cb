// uart9/avr.go

//go:build avr

package uart9

import "runtime/interrupt"

// irqLock masks all interrupts for a mainline critical section. UCSRnB lives
// outside the sbi/cbi range, so its read-modify-writes are not atomic.
type irqLock struct{ state interrupt.State }

func (l *irqLock) Lock()   { l.state = interrupt.Disable() }
func (l *irqLock) Unlock() { interrupt.Restore(l.state) }

// newAVRPort returns a port with its rings and notification channels, for
// the package-level instances.
func newAVRPort(bus Registers) Port {
	return Port{
		Bus: bus,
		// RX
		Buffer: NewRingBuffer(),
		notify: make(chan struct{}, 1),
		// TX
		TxBuffer: NewRingBuffer(),
		txNotify: make(chan struct{}, 1),

		Lock: &irqLock{},
	}
}
