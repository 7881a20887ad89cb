//go:build uart9debug

package uart9

import "sync/atomic"

// Stats holds counters since the last reset.
type Stats struct {
	// ISR-level
	RxISR   uint32 // receive interrupts serviced
	TxBytes uint32 // words moved from the TX ring to UDR

	// Per-character receive outcome
	RxErrors uint32 // dropped for FE or UPE

	// Ring buffer
	RingPuts    uint32 // successful Put()s
	RingDrops   uint32 // failed Put()s (overflow)
	RingMaxUsed uint32 // high-water mark of ring occupancy

	// Blocking API behaviour
	ReadWaits     uint32 // times a *Context read had to wait
	SpuriousWakes uint32 // notify received but no data available
	Timeouts      uint32 // context ends in *Context reads
}

func (p *Port) DebugReset() {
	atomic.StoreUint32(&p.stats.RxISR, 0)
	atomic.StoreUint32(&p.stats.TxBytes, 0)
	atomic.StoreUint32(&p.stats.RxErrors, 0)
	atomic.StoreUint32(&p.stats.RingPuts, 0)
	atomic.StoreUint32(&p.stats.RingDrops, 0)
	atomic.StoreUint32(&p.stats.RingMaxUsed, 0)
	atomic.StoreUint32(&p.stats.ReadWaits, 0)
	atomic.StoreUint32(&p.stats.SpuriousWakes, 0)
	atomic.StoreUint32(&p.stats.Timeouts, 0)
}

func (p *Port) DebugStats() Stats {
	// Return a copy; the ISR keeps counting.
	return Stats{
		RxISR:   atomic.LoadUint32(&p.stats.RxISR),
		TxBytes: atomic.LoadUint32(&p.stats.TxBytes),

		RxErrors: atomic.LoadUint32(&p.stats.RxErrors),

		RingPuts:    atomic.LoadUint32(&p.stats.RingPuts),
		RingDrops:   atomic.LoadUint32(&p.stats.RingDrops),
		RingMaxUsed: atomic.LoadUint32(&p.stats.RingMaxUsed),

		ReadWaits:     atomic.LoadUint32(&p.stats.ReadWaits),
		SpuriousWakes: atomic.LoadUint32(&p.stats.SpuriousWakes),
		Timeouts:      atomic.LoadUint32(&p.stats.Timeouts),
	}
}

// Snapshot of the USART registers. Reading UDR would pop the receive FIFO,
// so it is left out.
type Regs struct {
	UCSRA uint8
	UCSRB uint8
	UCSRC uint8
	UBRRH uint8
	UBRRL uint8
}

func (p *Port) DebugRegs() Regs {
	return Regs{
		UCSRA: p.Bus.UCSRA.Get(),
		UCSRB: p.Bus.UCSRB.Get(),
		UCSRC: p.Bus.UCSRC.Get(),
		UBRRH: p.Bus.UBRRH.Get(),
		UBRRL: p.Bus.UBRRL.Get(),
	}
}
