// uart9/registry.go

package uart9

import (
	"errors"
	"fmt"
)

// MaxPorts is the number of USARTs the registration table can hold.
const MaxPorts = 4

var (
	// ErrPortIndex is returned for a port number outside the table.
	ErrPortIndex = errors.New("port index out of range")
	// ErrPortInUse is returned when a slot already holds a different port.
	ErrPortInUse = errors.New("port slot already registered")
)

// ports binds interrupt vectors to port instances. It is filled during
// start-up, before any vector that reads it is enabled.
var ports [MaxPorts]*Port

// Register binds p to slot n so the vector stubs for USART n reach it.
func Register(n int, p *Port) error {
	if n < 0 || n >= MaxPorts {
		return fmt.Errorf("uart9: register %d: %w", n, ErrPortIndex)
	}
	if cur := ports[n]; cur != nil && cur != p {
		return fmt.Errorf("uart9: register %d: %w", n, ErrPortInUse)
	}
	ports[n] = p
	return nil
}

// Unregister empties slot n.
func Unregister(n int) {
	if n >= 0 && n < MaxPorts {
		ports[n] = nil
	}
}

// Lookup returns the port in slot n, or nil.
func Lookup(n int) *Port {
	if n < 0 || n >= MaxPorts {
		return nil
	}
	return ports[n]
}

// HandleReceiveVector is the receive-complete vector body for USART n.
func HandleReceiveVector(n int) {
	if p := Lookup(n); p != nil {
		p.HandleReceive()
	}
}

// HandleTransmitVector is the data-register-empty vector body for USART n.
func HandleTransmitVector(n int) {
	if p := Lookup(n); p != nil {
		p.HandleTransmit()
	}
}

// RunEvents calls the receive handler of every registered port that has data
// waiting. Call it from the main loop; ports without a handler cost nothing.
func RunEvents() {
	for _, p := range ports {
		if p != nil && p.onReceive != nil && p.Available() > 0 {
			p.onReceive(p)
		}
	}
}
