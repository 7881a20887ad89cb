// Package sim models an AVR USART well enough to run a uart9.Port on the
// host. It keeps the register behaviour the driver depends on:
//
//   - TXC in UCSRA is cleared by writing a one to it.
//   - UDR is double buffered on the transmit side: a write goes straight to
//     the shift register when it is idle, otherwise into the holding
//     register, and UDRE reflects the holding register.
//   - The receive side is a two-level FIFO. FE, UPE and RXB8 describe the
//     character at its head and move on when UDR is read. A character that
//     finds the FIFO full is lost and raises DOR.
//   - Clearing RXEN flushes the receive FIFO.
//
// Time advances one character per Tick. Interrupts are delivered by Tick and
// Service while the interrupt lock is held, so handlers never nest and
// mainline code holding Locker() is never interrupted.
package sim

import (
	"context"
	"sync"
	"time"

	"github.com/openseamap/tinygo-uart9/uart9"
)

// fifoDepth is the receive FIFO depth of the AVR USART.
const fifoDepth = 2

// maxDispatch bounds the interrupts delivered by one Service call, so a
// handler that never clears its condition cannot hang the simulation.
const maxDispatch = 16

type frame struct {
	w      uart9.Word
	fe, pe bool
}

// USART is a simulated peripheral.
type USART struct {
	UBRRH, UBRRL, UCSRA, UCSRB, UCSRC, UDR *Register

	irq sync.Mutex // interrupt context

	mu       sync.Mutex // guards everything below
	ubrrh    uint8
	ubrrl    uint8
	ucsra    uint8 // U2X and MPCM only
	ucsrb    uint8 // without RXB8
	ucsrc    uint8
	txc      bool
	dor      bool
	line     []frame // on the wire, not yet received
	fifo     []frame
	shift    uart9.Word
	shifting bool
	hold     uart9.Word
	holding  bool
	sent     []uart9.Word
	overruns int
	onRX     func()
	onUDRE   func()
	onTx     func(uart9.Word)
}

// New returns a peripheral in its reset state.
func New() *USART {
	u := &USART{ucsrc: uart9.UCSRC_UCSZ1 | uart9.UCSRC_UCSZ0}
	u.UBRRH = u.plain(&u.ubrrh)
	u.UBRRL = u.plain(&u.ubrrl)
	u.UCSRC = u.plain(&u.ucsrc)
	u.UCSRA = &Register{u: u, read: (*USART).readA, write: (*USART).writeA}
	u.UCSRB = &Register{u: u, read: (*USART).readB, write: (*USART).writeB}
	u.UDR = &Register{u: u, read: (*USART).readUDR, write: (*USART).writeUDR}
	return u
}

func (u *USART) plain(v *uint8) *Register {
	return &Register{
		u:     u,
		read:  func(*USART) uint8 { return *v },
		write: func(_ *USART, x uint8) { *v = x },
	}
}

// Registers returns the register block for uart9.NewPort.
func (u *USART) Registers() uart9.Registers {
	return uart9.Registers{
		UBRRH: u.UBRRH,
		UBRRL: u.UBRRL,
		UCSRA: u.UCSRA,
		UCSRB: u.UCSRB,
		UCSRC: u.UCSRC,
		UDR:   u.UDR,
	}
}

// Locker returns the interrupt lock, for uart9.Port.Lock.
func (u *USART) Locker() sync.Locker { return &u.irq }

// Attach installs the receive-complete and data-register-empty vectors.
func (u *USART) Attach(rx, udre func()) {
	u.mu.Lock()
	u.onRX, u.onUDRE = rx, udre
	u.mu.Unlock()
}

// AttachPort wires the vectors straight to p's handlers and hands p the
// interrupt lock.
func (u *USART) AttachPort(p *uart9.Port) {
	p.Lock = u.Locker()
	u.Attach(p.HandleReceive, p.HandleTransmit)
}

// OnTransmit sets a callback run for every character that leaves the shift
// register. It runs in interrupt context of u.
func (u *USART) OnTransmit(fn func(uart9.Word)) {
	u.mu.Lock()
	u.onTx = fn
	u.mu.Unlock()
}

// Connect wires a's transmitter to b's receiver.
func Connect(a, b *USART) {
	a.OnTransmit(func(w uart9.Word) { b.Inject(w) })
}

// Inject puts characters on the receive line. They enter the FIFO one per Tick.
func (u *USART) Inject(ws ...uart9.Word) {
	u.mu.Lock()
	for _, w := range ws {
		u.line = append(u.line, frame{w: w})
	}
	u.mu.Unlock()
}

// InjectError puts a character with a frame and/or parity error on the line.
func (u *USART) InjectError(w uart9.Word, frameErr, parityErr bool) {
	u.mu.Lock()
	u.line = append(u.line, frame{w: w, fe: frameErr, pe: parityErr})
	u.mu.Unlock()
}

// Sent returns every character that has left the shift register so far.
func (u *USART) Sent() []uart9.Word {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]uart9.Word(nil), u.sent...)
}

// Overruns returns the number of characters lost to a full receive FIFO.
func (u *USART) Overruns() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.overruns
}

// Idle reports that nothing is waiting on the receive line and the
// transmitter is empty.
func (u *USART) Idle() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.line) == 0 && !u.shifting && !u.holding
}

// Tick advances time by one character: pending interrupts are serviced, the
// character in the shift register goes out, the next receive character
// lands in the FIFO, and interrupts are serviced again.
func (u *USART) Tick() {
	u.irq.Lock()
	defer u.irq.Unlock()

	u.service()
	u.mu.Lock()
	w, sent := u.shiftOut()
	u.shiftIn()
	onTx := u.onTx
	u.mu.Unlock()
	if sent && onTx != nil {
		onTx(w)
	}
	u.service()
}

// Service delivers pending interrupts without advancing time.
func (u *USART) Service() {
	u.irq.Lock()
	defer u.irq.Unlock()
	u.service()
}

// Run ticks every period until ctx is done.
func (u *USART) Run(ctx context.Context, period time.Duration) {
	t := time.NewTicker(period)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			u.Tick()
		}
	}
}

// service runs with irq held and mu released; handlers take mu through the
// registers. Receive complete has the higher vector priority.
func (u *USART) service() {
	for i := 0; i < maxDispatch; i++ {
		u.mu.Lock()
		rx := u.ucsrb&uart9.UCSRB_RXCIE != 0 && len(u.fifo) > 0 && u.onRX != nil
		udre := u.ucsrb&uart9.UCSRB_UDRIE != 0 && !u.holding && u.onUDRE != nil
		onRX, onUDRE := u.onRX, u.onUDRE
		u.mu.Unlock()

		switch {
		case rx:
			onRX()
		case udre:
			onUDRE()
		default:
			return
		}
	}
}

func (u *USART) nineBit() bool { return u.ucsrb&uart9.UCSRB_UCSZ2 != 0 }

func (u *USART) shiftOut() (uart9.Word, bool) {
	if !u.shifting {
		return 0, false
	}
	w := u.shift
	u.sent = append(u.sent, w)
	u.shift, u.shifting = u.hold, u.holding
	u.holding = false
	if !u.shifting {
		u.txc = true
	}
	return w, true
}

func (u *USART) shiftIn() {
	if len(u.line) == 0 {
		return
	}
	f := u.line[0]
	u.line = u.line[1:]
	if u.ucsrb&uart9.UCSRB_RXEN == 0 {
		return
	}
	if !u.nineBit() {
		f.w = uart9.MakeWord(f.w.Data(), false)
	}
	if len(u.fifo) >= fifoDepth {
		u.dor = true
		u.overruns++
		return
	}
	u.fifo = append(u.fifo, f)
}

func (u *USART) readA() uint8 {
	v := u.ucsra & (uart9.UCSRA_U2X | uart9.UCSRA_MPCM)
	if len(u.fifo) > 0 {
		v |= uart9.UCSRA_RXC
		if u.fifo[0].fe {
			v |= uart9.UCSRA_FE
		}
		if u.fifo[0].pe {
			v |= uart9.UCSRA_UPE
		}
	}
	if u.txc {
		v |= uart9.UCSRA_TXC
	}
	if !u.holding {
		v |= uart9.UCSRA_UDRE
	}
	if u.dor {
		v |= uart9.UCSRA_DOR
	}
	return v
}

func (u *USART) writeA(v uint8) {
	u.ucsra = v & (uart9.UCSRA_U2X | uart9.UCSRA_MPCM)
	if v&uart9.UCSRA_TXC != 0 {
		u.txc = false
	}
}

func (u *USART) readB() uint8 {
	v := u.ucsrb
	if len(u.fifo) > 0 && u.fifo[0].w.Ninth() {
		v |= uart9.UCSRB_RXB8
	}
	return v
}

func (u *USART) writeB(v uint8) {
	u.ucsrb = v &^ uart9.UCSRB_RXB8
	if v&uart9.UCSRB_RXEN == 0 {
		u.fifo = u.fifo[:0]
		u.dor = false
	}
}

func (u *USART) readUDR() uint8 {
	if len(u.fifo) == 0 {
		return 0
	}
	f := u.fifo[0]
	u.fifo = u.fifo[1:]
	u.dor = false
	return f.w.Data()
}

func (u *USART) writeUDR(v uint8) {
	if u.ucsrb&uart9.UCSRB_TXEN == 0 {
		return
	}
	w := uart9.MakeWord(v, u.nineBit() && u.ucsrb&uart9.UCSRB_TXB8 != 0)
	switch {
	case !u.shifting:
		u.shift, u.shifting = w, true
	case !u.holding:
		u.hold, u.holding = w, true
	default:
		// Writing UDR while UDRE is clear overwrites the holding register.
		u.hold = w
	}
}
