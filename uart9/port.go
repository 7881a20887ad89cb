// uart9/port.go

package uart9

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
)

// Port is one USART with its software receive and transmit rings.
//
// Invariants:
//   - HandleReceive is the only producer of Buffer; mainline Read*/Peek*/End
//     are its only consumers.
//   - Write* are the only producers of TxBuffer; HandleTransmit is its only
//     consumer.
//   - UDRIE is set lazily by Write* and cleared by HandleTransmit once the TX
//     ring runs dry.
type Port struct {
	Buffer   *RingBuffer // software RX ring, filled by HandleReceive
	TxBuffer *RingBuffer // software TX ring, drained by HandleTransmit
	Bus      Registers
	Clock    uint32 // peripheral clock in Hz

	// Lock masks this port's interrupts while mainline code does a
	// read-modify-write on UCSRA/UCSRB. Nil leaves them unmasked.
	Lock sync.Locker
	// Yield is called on every turn of a busy-wait (Write, Flush, End).
	// Nil yields to the Go scheduler.
	Yield func()

	txMu         sync.Mutex // serialises writers, the TX ring's producers
	nineBit      atomic.Bool
	transmitting atomic.Bool

	baud BaudSetting
	rate uint32

	onReceive func(*Port)

	notify   chan struct{} // coalesced RX readiness notifications
	txNotify chan struct{} // coalesced TX space/drain notifications

	stats Stats
}

// NewPort returns a port bound to the given register block. The peripheral
// stays untouched until Begin.
func NewPort(bus Registers, clock uint32) *Port {
	return &Port{
		Buffer:   NewRingBuffer(),
		TxBuffer: NewRingBuffer(),
		Bus:      bus,
		Clock:    clock,
		notify:   make(chan struct{}, 1),
		txNotify: make(chan struct{}, 1),
	}
}

// Begin (re)initialises the port: both rings are emptied and their overflow
// flags cleared, the divisor for rate is programmed (double speed preferred),
// the line format is applied and the receiver, transmitter and receive
// interrupt are enabled. The transmit interrupt stays off until the first write.
func (p *Port) Begin(rate uint32, cfg LineConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("uart9: begin: %w", err)
	}
	bs, err := CalcBaud(p.Clock, rate, true)
	if err != nil {
		return fmt.Errorf("uart9: begin at %d baud: %w", rate, err)
	}

	p.lock()
	defer p.unlock()

	// 1) Quiesce both interrupt sources before touching the rings.
	p.Bus.UCSRB.ClearBits(UCSRB_RXCIE | UCSRB_UDRIE)
	p.Buffer.Clear()
	p.TxBuffer.Clear()
	p.transmitting.Store(false)

	// 2) Baud and format.
	p.setBaud(rate, bs)
	p.setFormat(cfg)

	// 3) Enable RX, TX and the RX interrupt; UDRIE is armed by the first write.
	p.Bus.UCSRB.SetBits(UCSRB_RXEN | UCSRB_TXEN | UCSRB_RXCIE)
	p.Bus.UCSRB.ClearBits(UCSRB_UDRIE)

	// 4) Prime the initial "writable" notification (ring starts empty).
	p.signalTx()

	tracef("uart9: begin %d baud %s: divisor %d, double speed %t", rate, cfg, bs.Divisor, bs.DoubleSpeed)
	return nil
}

// SetBaudRate reprograms the divisor without touching the rings or the format.
func (p *Port) SetBaudRate(rate uint32) error {
	bs, err := CalcBaud(p.Clock, rate, true)
	if err != nil {
		return fmt.Errorf("uart9: set baud %d: %w", rate, err)
	}
	p.lock()
	p.setBaud(rate, bs)
	p.unlock()
	return nil
}

// SetFormat applies data bits (5..9), stop bits and parity. Nine data bits
// turn on the ninth transport bit.
func (p *Port) SetFormat(databits, stopbits uint8, parity Parity) error {
	cfg, err := NewLineConfig(databits, stopbits, parity)
	if err != nil {
		return err
	}
	p.lock()
	p.setFormat(cfg)
	p.unlock()
	return nil
}

func (p *Port) setBaud(rate uint32, bs BaudSetting) {
	if bs.DoubleSpeed {
		p.Bus.UCSRA.Set(UCSRA_U2X)
	} else {
		p.Bus.UCSRA.Set(0)
	}
	p.Bus.UBRRH.Set(uint8(bs.Divisor >> 8))
	p.Bus.UBRRL.Set(uint8(bs.Divisor))
	p.baud = bs
	p.rate = rate
}

func (p *Port) setFormat(cfg LineConfig) {
	p.Bus.UCSRC.Set(cfg.ucsrc())
	if cfg.NineBit() {
		p.Bus.UCSRB.SetBits(UCSRB_UCSZ2)
	} else {
		p.Bus.UCSRB.ClearBits(UCSRB_UCSZ2)
	}
	p.nineBit.Store(cfg.NineBit())
}

// End waits until the TX ring has been handed to the peripheral, disables the
// receiver, transmitter and both interrupts and throws away unread RX data.
// It spins forever if the transmit interrupt never runs; see EndContext.
func (p *Port) End() {
	_ = p.end(context.Background())
}

func (p *Port) end(ctx context.Context) error {
	if err := p.spinUntil(ctx, func() bool { return p.TxBuffer.Used() == 0 }); err != nil {
		return err
	}

	p.lock()
	p.Bus.UCSRB.ClearBits(UCSRB_RXEN | UCSRB_TXEN | UCSRB_RXCIE | UCSRB_UDRIE)
	p.unlock()

	// clear any received data
	p.Buffer.Discard()
	tracef("uart9: end (%d baud)", p.rate)
	return nil
}

// Baud returns the last programmed rate and divisor.
func (p *Port) Baud() (uint32, BaudSetting) { return p.rate, p.baud }

// NineBit reports whether the port runs with the ninth transport bit.
func (p *Port) NineBit() bool { return p.nineBit.Load() }

// SetReceiveHandler registers fn to be called by RunEvents whenever the port
// has buffered data. A nil fn removes the handler.
func (p *Port) SetReceiveHandler(fn func(*Port)) { p.onReceive = fn }

func (p *Port) lock() {
	if p.Lock != nil {
		p.Lock.Lock()
	}
}

func (p *Port) unlock() {
	if p.Lock != nil {
		p.Lock.Unlock()
	}
}

func (p *Port) yield() {
	if p.Yield != nil {
		p.Yield()
		return
	}
	runtime.Gosched()
}

// spinUntil busy-waits for cond, calling the yield hook between checks. It
// only gives up when ctx is done.
func (p *Port) spinUntil(ctx context.Context, cond func() bool) error {
	for !cond() {
		if err := ctx.Err(); err != nil {
			return err
		}
		p.yield()
	}
	return nil
}

func (p *Port) signalRx() {
	select {
	case p.notify <- struct{}{}:
	default:
	}
}

func (p *Port) signalTx() {
	select {
	case p.txNotify <- struct{}{}:
	default:
	}
}
