// uart9/blocking.go

package uart9

import "context"

// WaitReadableContext blocks until data is available or ctx is done.
func (p *Port) WaitReadableContext(ctx context.Context) error {
	for {
		if p.Available() > 0 {
			return nil
		}
		p.dbgReadWait()
		select {
		case <-p.notify:
			// re-check; if empty, it was a spurious wake (coalesced notify)
			if p.Available() == 0 {
				p.dbgSpuriousWake()
			}
		case <-ctx.Done():
			p.dbgTimeout()
			return ctx.Err()
		}
	}
}

// ReadWordContext blocks for a single word or until ctx is done.
func (p *Port) ReadWordContext(ctx context.Context) (Word, error) {
	for {
		if w, err := p.ReadWord(); err == nil {
			return w, nil
		}
		if err := p.WaitReadableContext(ctx); err != nil {
			return 0, err
		}
	}
}

// ReadFullContext reads exactly len(ws) words or until ctx is done. It
// returns the number of words read.
func (p *Port) ReadFullContext(ctx context.Context, ws []Word) (int, error) {
	n := 0
	for n < len(ws) {
		if w, err := p.ReadWord(); err == nil {
			ws[n] = w
			n++
			continue
		}
		if err := p.WaitReadableContext(ctx); err != nil {
			return n, err
		}
	}
	return n, nil
}

// WriteWordContext is WriteWord with a way out: it gives up with ctx.Err()
// if the TX ring stays full until ctx is done. The word is not queued then.
func (p *Port) WriteWordContext(ctx context.Context, w Word) error {
	return p.writeWord(ctx, w)
}

// FlushContext is Flush bounded by ctx.
func (p *Port) FlushContext(ctx context.Context) error {
	return p.flush(ctx)
}

// EndContext is End bounded by ctx. If ctx ends first the port is left
// running and the TX ring keeps its contents.
func (p *Port) EndContext(ctx context.Context) error {
	return p.end(ctx)
}
