package uart9

import (
	"errors"
	"testing"
)

func TestRegister(t *testing.T) {
	a, b := &Port{Buffer: NewRingBuffer()}, &Port{Buffer: NewRingBuffer()}
	t.Cleanup(func() { Unregister(3) })

	if err := Register(3, a); err != nil {
		t.Fatalf("Register(3, a) failed: %v", err)
	}
	if err := Register(3, a); err != nil {
		t.Fatalf("Register(3, a) again failed: %v", err)
	}
	if err := Register(3, b); !errors.Is(err, ErrPortInUse) {
		t.Fatalf("Register(3, b) = %v, want ErrPortInUse", err)
	}
	if Lookup(3) != a {
		t.Fatal("Lookup(3) did not return the registered port")
	}
	for _, n := range []int{-1, MaxPorts} {
		if err := Register(n, a); !errors.Is(err, ErrPortIndex) {
			t.Errorf("Register(%d) = %v, want ErrPortIndex", n, err)
		}
		if Lookup(n) != nil {
			t.Errorf("Lookup(%d) != nil", n)
		}
	}

	Unregister(3)
	if Lookup(3) != nil {
		t.Fatal("Lookup(3) after Unregister != nil")
	}
	// Vectors for an empty slot are no-ops.
	HandleReceiveVector(3)
	HandleTransmitVector(3)
}

func TestRunEvents(t *testing.T) {
	p := &Port{Buffer: NewRingBuffer()}
	idle := &Port{Buffer: NewRingBuffer()}
	t.Cleanup(func() {
		Unregister(1)
		Unregister(2)
	})
	if err := Register(1, p); err != nil {
		t.Fatal(err)
	}
	if err := Register(2, idle); err != nil {
		t.Fatal(err)
	}

	var calls []*Port
	handler := func(port *Port) {
		calls = append(calls, port)
		for port.Available() > 0 {
			port.ReadWord()
		}
	}
	p.SetReceiveHandler(handler)
	idle.SetReceiveHandler(handler)

	RunEvents()
	if len(calls) != 0 {
		t.Fatalf("RunEvents called %d handlers with no data buffered", len(calls))
	}

	p.Buffer.Put(MakeWord('x', false))
	RunEvents()
	if len(calls) != 1 || calls[0] != p {
		t.Fatalf("RunEvents calls = %v, want exactly the port with data", calls)
	}

	p.SetReceiveHandler(nil)
	p.Buffer.Put(MakeWord('y', false))
	RunEvents()
	if len(calls) != 1 {
		t.Fatalf("handler ran after being removed")
	}
}
