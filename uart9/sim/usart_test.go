package sim

import (
	"testing"

	"github.com/openseamap/tinygo-uart9/uart9"
)

func enabled() *USART {
	u := New()
	u.UCSRB.Set(uart9.UCSRB_RXEN | uart9.UCSRB_TXEN)
	return u
}

func TestTransmitDoubleBuffer(t *testing.T) {
	u := enabled()

	if !u.UCSRA.HasBits(uart9.UCSRA_UDRE) {
		t.Fatal("UDRE clear after reset")
	}
	u.UDR.Set('a') // straight into the shift register
	if !u.UCSRA.HasBits(uart9.UCSRA_UDRE) {
		t.Fatal("UDRE clear with only the shift register loaded")
	}
	u.UDR.Set('b')
	if u.UCSRA.HasBits(uart9.UCSRA_UDRE) {
		t.Fatal("UDRE set with the holding register full")
	}

	u.Tick()
	if u.UCSRA.HasBits(uart9.UCSRA_TXC) {
		t.Fatal("TXC set while 'b' is still shifting")
	}
	u.Tick()
	if !u.UCSRA.HasBits(uart9.UCSRA_TXC) {
		t.Fatal("TXC clear after the last character left")
	}
	if got := u.Sent(); len(got) != 2 || got[0] != 'a' || got[1] != 'b' {
		t.Fatalf("Sent() = %v, want [a b]", got)
	}

	// TXC is cleared by writing a one; writing a zero leaves it alone.
	u.UCSRA.Set(uart9.UCSRA_U2X)
	if !u.UCSRA.HasBits(uart9.UCSRA_TXC) {
		t.Fatal("writing zero to TXC cleared it")
	}
	u.UCSRA.SetBits(uart9.UCSRA_TXC)
	if u.UCSRA.HasBits(uart9.UCSRA_TXC) {
		t.Fatal("writing one to TXC did not clear it")
	}
	if !u.UCSRA.HasBits(uart9.UCSRA_U2X) {
		t.Fatal("U2X lost")
	}
	if !u.Idle() {
		t.Fatal("Idle() = false with nothing pending")
	}
}

func TestTransmitNinthBit(t *testing.T) {
	u := enabled()
	u.UDR.Set(0x10) // 8-bit mode: TXB8 ignored
	u.UCSRB.SetBits(uart9.UCSRB_UCSZ2 | uart9.UCSRB_TXB8)
	u.UDR.Set(0x11)
	u.UCSRB.ClearBits(uart9.UCSRB_TXB8)
	u.Tick()
	u.UDR.Set(0x12)
	u.Tick()
	u.Tick()

	want := []uart9.Word{0x10, 0x111, 0x12}
	got := u.Sent()
	if len(got) != len(want) {
		t.Fatalf("Sent() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Sent()[%d] = 0x%03x, want 0x%03x", i, uint16(got[i]), uint16(want[i]))
		}
	}
}

func TestTransmitterDisabled(t *testing.T) {
	u := New()
	u.UDR.Set('x')
	u.Tick()
	if len(u.Sent()) != 0 {
		t.Fatal("character sent with TXEN clear")
	}
}

func TestReceiveFIFO(t *testing.T) {
	u := enabled()
	u.UCSRB.SetBits(uart9.UCSRB_UCSZ2)
	u.Inject(0x101)
	u.InjectError(0x02, true, false)
	u.Inject(0x03)
	u.Tick()
	u.Tick()
	u.Tick() // FIFO holds two; the third is lost

	if u.Overruns() != 1 || !u.UCSRA.HasBits(uart9.UCSRA_DOR) {
		t.Fatalf("Overruns() = %d, DOR %v; want 1, set", u.Overruns(), u.UCSRA.HasBits(uart9.UCSRA_DOR))
	}
	if !u.UCSRA.HasBits(uart9.UCSRA_RXC) || !u.UCSRB.HasBits(uart9.UCSRB_RXB8) || u.UCSRA.HasBits(uart9.UCSRA_FE) {
		t.Fatal("head of FIFO: want RXC and RXB8, no FE")
	}
	if c := u.UDR.Get(); c != 0x01 {
		t.Fatalf("UDR = 0x%02x, want 0x01", c)
	}
	if !u.UCSRA.HasBits(uart9.UCSRA_FE) || u.UCSRB.HasBits(uart9.UCSRB_RXB8) {
		t.Fatal("second character: want FE, no RXB8")
	}
	if c := u.UDR.Get(); c != 0x02 {
		t.Fatalf("UDR = 0x%02x, want 0x02", c)
	}
	if u.UCSRA.HasBits(uart9.UCSRA_RXC) {
		t.Fatal("RXC set with an empty FIFO")
	}
}

func TestReceiveDisabledFlushes(t *testing.T) {
	u := enabled()
	u.Inject(0x155)
	u.Tick()
	if !u.UCSRA.HasBits(uart9.UCSRA_RXC) {
		t.Fatal("nothing received")
	}
	if u.UCSRB.HasBits(uart9.UCSRB_RXB8) {
		t.Fatal("RXB8 set in 8-bit mode")
	}
	u.UCSRB.ClearBits(uart9.UCSRB_RXEN)
	if u.UCSRA.HasBits(uart9.UCSRA_RXC) {
		t.Fatal("clearing RXEN did not flush the FIFO")
	}
	u.Inject('z')
	u.Tick()
	if u.UCSRA.HasBits(uart9.UCSRA_RXC) {
		t.Fatal("character received with RXEN clear")
	}
}

func TestInterruptDispatch(t *testing.T) {
	u := enabled()
	var rx, udre int
	u.Attach(func() {
		rx++
		u.UDR.Get()
	}, func() {
		udre++
		u.UCSRB.ClearBits(uart9.UCSRB_UDRIE)
	})

	u.Inject('a')
	u.Tick()
	if rx != 0 {
		t.Fatal("receive vector ran with RXCIE clear")
	}
	u.UCSRB.SetBits(uart9.UCSRB_RXCIE | uart9.UCSRB_UDRIE)
	u.Service()
	if rx != 1 || udre != 1 {
		t.Fatalf("rx %d, udre %d; want 1, 1", rx, udre)
	}

	// A handler that never clears its condition is cut off.
	u.Attach(nil, func() { udre++ })
	u.UCSRB.SetBits(uart9.UCSRB_UDRIE)
	udre = 0
	u.Service()
	if udre != maxDispatch {
		t.Fatalf("udre ran %d times, want %d", udre, maxDispatch)
	}
}
