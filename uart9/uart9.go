// uart9/uart9.go

// Package uart9 is an interrupt-driven driver for AVR-style USARTs that
// carries a ninth signalling bit with every byte, as used by multi-drop marine
// buses to tell command bytes from data bytes.
//
// Each Port owns a receive and a transmit RingBuffer. The receive interrupt
// fills the RX ring and mainline code drains it with ReadWord/PeekWord;
// mainline code fills the TX ring with WriteWord and the data-register-empty
// interrupt drains it. ReadWord, PeekWord, TryRead and Available never block;
// Read waits for the first word so the port works as an io.Reader. WriteWord
// spins while the TX ring is full, Flush spins until the last character has
// left the shift register and End spins until the TX ring is empty. The plain
// calls spin without a bound; the *Context variants stop when the context is
// done.
package uart9

import (
	"context"
	"errors"
)

// ErrBufferEmpty is returned by the non-blocking reads when the RX ring is empty.
var ErrBufferEmpty = errors.New("UART buffer empty")

// Flusher is implemented by types that can flush buffered output to the underlying device.
type Flusher interface{ Flush() error }

// Readable returns a coalesced notification for RX readiness. The receive
// interrupt sends on it after storing a character; callers must re-check state
// after waking.
func (p *Port) Readable() <-chan struct{} { return p.notify }

// Writable returns a coalesced notification for TX progress. The transmit
// interrupt sends on it after moving a word to the peripheral and when the
// ring runs dry; callers must re-check state after waking.
func (p *Port) Writable() <-chan struct{} { return p.txNotify }

// ReadWord removes the oldest received word. It returns ErrBufferEmpty when
// nothing is buffered. Outside nine-bit mode the ninth bit is always clear.
func (p *Port) ReadWord() (Word, error) {
	w, ok := p.Buffer.Get()
	if !ok {
		return 0, ErrBufferEmpty
	}
	return w, nil
}

// PeekWord returns the oldest received word without removing it.
func (p *Port) PeekWord() (Word, error) {
	w, ok := p.Buffer.Peek()
	if !ok {
		return 0, ErrBufferEmpty
	}
	return w, nil
}

// ReadByte reads the data bits of the oldest received word.
func (p *Port) ReadByte() (byte, error) {
	w, err := p.ReadWord()
	return w.Data(), err
}

// TryRead copies the data bits of up to len(b) buffered words and returns
// immediately. It never blocks; 0 means nothing is waiting.
func (p *Port) TryRead(b []byte) int {
	n := 0
	for n < len(b) {
		w, ok := p.Buffer.Get()
		if !ok {
			break
		}
		b[n] = w.Data()
		n++
	}
	return n
}

// Read implements io.Reader. It blocks until at least one word is buffered,
// then returns the data bits of up to len(b) words. It does not return io.EOF
// for an idle line.
func (p *Port) Read(b []byte) (int, error) {
	if len(b) == 0 {
		return 0, nil
	}
	for {
		if n := p.TryRead(b); n > 0 {
			return n, nil
		}
		p.dbgReadWait()
		<-p.notify // coalesced wake-up; re-check
	}
}

// Available returns the number of words waiting in the RX ring.
func (p *Port) Available() int { return p.Buffer.Used() }

// Overflow reports whether a received word was dropped because the RX ring
// was full. The flag clears on the next successful read.
func (p *Port) Overflow() bool { return p.Buffer.Overflow() }

// TxFree returns the remaining space in the TX ring in words.
func (p *Port) TxFree() int { return p.TxBuffer.Free() }

// WriteWord queues w for transmission and returns the number of words
// written (always 1). It spins while the TX ring is full; with an
// unresponsive transmitter it never returns. Outside nine-bit mode the
// ninth bit is dropped. Writers on several goroutines are serialised per
// word, so no word is lost, but words of concurrent Write calls interleave.
func (p *Port) WriteWord(w Word) int {
	_ = p.writeWord(context.Background(), w)
	return 1
}

// WriteByte queues c with the ninth bit clear.
func (p *Port) WriteByte(c byte) error {
	p.WriteWord(Word(c))
	return nil
}

// Write implements io.Writer. It blocks until every byte of b is queued
// (ninth bit clear). It does not wait for the line to drain; use Flush.
func (p *Port) Write(b []byte) (int, error) {
	for _, c := range b {
		p.WriteWord(Word(c))
	}
	return len(b), nil
}

func (p *Port) writeWord(ctx context.Context, w Word) error {
	if !p.nineBit.Load() {
		w = MakeWord(w.Data(), false)
	}
	// The TX ring has a single producer.
	p.txMu.Lock()
	defer p.txMu.Unlock()

	// If the output buffer is full, there's nothing for it other than to
	// wait for the interrupt handler to empty it a bit.
	if err := p.spinUntil(ctx, func() bool { return p.TxBuffer.Free() > 0 }); err != nil {
		return err
	}

	// TXC must be cleared before the word becomes visible to the interrupt;
	// afterwards it could already have been sent and its completion lost.
	p.lock()
	p.transmitting.Store(true)
	p.clearTxComplete()
	p.unlock()

	// Only the interrupt consumes, so the slot found above is still free.
	p.TxBuffer.Put(w)

	p.lock()
	p.Bus.UCSRB.SetBits(UCSRB_UDRIE)
	p.unlock()
	return nil
}

// clearTxComplete clears TXC by writing a one to it. FE, DOR and UPE must be
// written as zero, so only U2X and MPCM are carried over.
func (p *Port) clearTxComplete() {
	p.Bus.UCSRA.Set(p.Bus.UCSRA.Get()&(UCSRA_U2X|UCSRA_MPCM) | UCSRA_TXC)
}

// Flush blocks until every queued word has left the peripheral: the
// transmit interrupt clears TXC whenever it loads UDR, so TXC with an empty
// TX ring means the last word is out of the shift register. It says nothing
// about whether the peer received the data. Flush always returns nil.
func (p *Port) Flush() error {
	return p.flush(context.Background())
}

func (p *Port) flush(ctx context.Context) error {
	err := p.spinUntil(ctx, func() bool {
		p.lock()
		defer p.unlock()
		return !p.transmitting.Load() ||
			(p.TxBuffer.Used() == 0 && p.Bus.UCSRA.HasBits(UCSRA_TXC))
	})
	if err != nil {
		return err
	}
	p.transmitting.Store(false)
	return nil
}
