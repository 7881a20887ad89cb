// Package hostserial carries 9-bit words over a host serial adapter, for
// talking to a logger or a bus segment from a PC.
//
// Standard adapters have no ninth data bit, so it is sent as the parity bit:
// mark parity for a set ninth bit and space parity for a clear one, switching
// the mode between words when it changes. The receive side cannot observe the
// parity bit through the serial API, so received words always have the ninth
// bit clear.
//
// Received bytes are queued by a reader goroutine into a uart9.RingBuffer,
// the same single-producer/single-consumer ring the on-chip driver uses.
// ReadWord, PeekWord and TryRead drain it without blocking; Read waits for
// the first byte.
package hostserial

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/GoogleCloudPlatform/galog"
	"github.com/openseamap/tinygo-uart9/uart9"
	"go.bug.st/serial"
)

// readTimeout bounds each Read of the reader goroutine so Close is noticed.
const readTimeout = 100 * time.Millisecond

// ErrClosed is returned by writes on a closed port and by Read once it is
// closed and drained.
var ErrClosed = errors.New("port closed")

// port is the part of serial.Port this package uses.
type port interface {
	io.ReadWriteCloser
	SetMode(mode *serial.Mode) error
	SetReadTimeout(t time.Duration) error
	Drain() error
}

// openPort is replaced in tests.
var openPort = func(name string, mode *serial.Mode) (port, error) {
	return serial.Open(name, mode)
}

// Port is an open host serial adapter.
type Port struct {
	name    string
	nineBit bool

	mu     sync.Mutex // serialises writers and mode switches
	port   port
	mode   serial.Mode
	closed bool

	rx     *uart9.RingBuffer
	notify chan struct{} // coalesced: data received or reader stopped
	done   chan struct{}
	wg   sync.WaitGroup

	errMu   sync.Mutex
	readErr error
}

var _ uart9.Flusher = (*Port)(nil)

// Mode translates a rate and line configuration to the serial mode used for
// words with a clear ninth bit.
func Mode(rate uint32, cfg uart9.LineConfig) (*serial.Mode, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	mode := &serial.Mode{
		BaudRate: int(rate),
		DataBits: int(cfg.DataBits()),
		StopBits: serial.OneStopBit,
	}
	if cfg.StopBits() == 2 {
		mode.StopBits = serial.TwoStopBits
	}
	if cfg.NineBit() {
		if cfg.Parity() != uart9.ParityNone {
			return nil, fmt.Errorf("%w: %s needs the parity bit for the ninth bit", uart9.ErrInvalidFormat, cfg)
		}
		mode.DataBits = 8
		mode.Parity = serial.SpaceParity
		return mode, nil
	}
	switch cfg.Parity() {
	case uart9.ParityEven:
		mode.Parity = serial.EvenParity
	case uart9.ParityOdd:
		mode.Parity = serial.OddParity
	default:
		mode.Parity = serial.NoParity
	}
	return mode, nil
}

// Open opens the adapter called name and starts the reader goroutine.
func Open(name string, rate uint32, cfg uart9.LineConfig) (*Port, error) {
	mode, err := Mode(rate, cfg)
	if err != nil {
		return nil, fmt.Errorf("hostserial: open %s: %w", name, err)
	}
	sp, err := openPort(name, mode)
	if err != nil {
		return nil, fmt.Errorf("hostserial: open %s: %w", name, err)
	}
	if err := sp.SetReadTimeout(readTimeout); err != nil {
		sp.Close()
		return nil, fmt.Errorf("hostserial: set read timeout on %s: %w", name, err)
	}

	p := &Port{
		name:    name,
		nineBit: cfg.NineBit(),
		port:    sp,
		mode:    *mode,
		rx:      uart9.NewRingBuffer(),
		notify:  make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	p.wg.Add(1)
	go p.readLoop()
	galog.Debugf("Opened %s at %d baud, %s", name, rate, cfg)
	return p, nil
}

func (p *Port) readLoop() {
	defer p.wg.Done()
	var buf [32]byte
	for {
		select {
		case <-p.done:
			return
		default:
		}
		n, err := p.port.Read(buf[:])
		for _, c := range buf[:n] {
			if !p.rx.Put(uart9.Word(c)) {
				galog.V(1).Debugf("%s: receive ring full, dropped 0x%02x", p.name, c)
			}
		}
		if n > 0 {
			p.signal()
		}
		if err != nil {
			select {
			case <-p.done:
			default:
				p.errMu.Lock()
				p.readErr = err
				p.errMu.Unlock()
				p.signal()
				galog.Errorf("Reading %s failed: %v", p.name, err)
			}
			return
		}
	}
}

// WriteWord sends one word. In nine-bit mode the parity mode is switched to
// mark or space first if the ninth bit differs from the previous word; the
// adapter is drained before the switch so queued bytes keep their parity.
func (p *Port) WriteWord(w uart9.Word) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return 0, ErrClosed
	}
	if p.nineBit {
		want := serial.SpaceParity
		if w.Ninth() {
			want = serial.MarkParity
		}
		if p.mode.Parity != want {
			if err := p.port.Drain(); err != nil {
				return 0, fmt.Errorf("hostserial: drain %s: %w", p.name, err)
			}
			mode := p.mode
			mode.Parity = want
			if err := p.port.SetMode(&mode); err != nil {
				return 0, fmt.Errorf("hostserial: switch %s parity: %w", p.name, err)
			}
			p.mode = mode
		}
	}
	if _, err := p.port.Write([]byte{w.Data()}); err != nil {
		return 0, fmt.Errorf("hostserial: write %s: %w", p.name, err)
	}
	return 1, nil
}

// Write implements io.Writer; every byte goes out with the ninth bit clear.
func (p *Port) Write(b []byte) (int, error) {
	for i, c := range b {
		if _, err := p.WriteWord(uart9.Word(c)); err != nil {
			return i, err
		}
	}
	return len(b), nil
}

// ReadWord removes the oldest received word without blocking.
func (p *Port) ReadWord() (uart9.Word, error) {
	w, ok := p.rx.Get()
	if !ok {
		return 0, uart9.ErrBufferEmpty
	}
	return w, nil
}

// PeekWord returns the oldest received word without removing it.
func (p *Port) PeekWord() (uart9.Word, error) {
	w, ok := p.rx.Peek()
	if !ok {
		return 0, uart9.ErrBufferEmpty
	}
	return w, nil
}

func (p *Port) signal() {
	select {
	case p.notify <- struct{}{}:
	default:
	}
}

// TryRead copies up to len(b) received bytes and returns immediately.
func (p *Port) TryRead(b []byte) int {
	n := 0
	for n < len(b) {
		w, ok := p.rx.Get()
		if !ok {
			break
		}
		b[n] = w.Data()
		n++
	}
	return n
}

// Read implements io.Reader. It blocks until at least one byte is received,
// the reader goroutine fails or the port is closed. Buffered bytes are
// returned before the reader's error.
func (p *Port) Read(b []byte) (int, error) {
	if len(b) == 0 {
		return 0, nil
	}
	for {
		if n := p.TryRead(b); n > 0 {
			return n, nil
		}
		if err := p.Err(); err != nil {
			return 0, err
		}
		select {
		case <-p.notify:
		case <-p.done:
			// Drain what arrived before Close.
			if n := p.TryRead(b); n > 0 {
				return n, nil
			}
			return 0, ErrClosed
		}
	}
}

// Available returns the number of buffered received words.
func (p *Port) Available() int { return p.rx.Used() }

// Overflow reports whether received bytes were dropped since the last read.
func (p *Port) Overflow() bool { return p.rx.Overflow() }

// Flush waits until the adapter has sent everything written so far.
func (p *Port) Flush() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	return p.port.Drain()
}

// Err returns the error that stopped the reader goroutine, if any.
func (p *Port) Err() error {
	p.errMu.Lock()
	defer p.errMu.Unlock()
	return p.readErr
}

// Close stops the reader and closes the adapter.
func (p *Port) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.done)
	err := p.port.Close()
	p.mu.Unlock()
	p.wg.Wait()
	galog.Debugf("Closed %s", p.name)
	return err
}
