//go:build uart9debug

package uart9

import "sync/atomic"

// Called per received character with the Put() outcome.
func (p *Port) dbgOnByte(putOK bool) {
	atomic.AddUint32(&p.stats.RxISR, 1)
	if !putOK {
		atomic.AddUint32(&p.stats.RingDrops, 1)
		return
	}
	atomic.AddUint32(&p.stats.RingPuts, 1)
	// track high-water mark
	used := uint32(p.Buffer.Used())
	for {
		max := atomic.LoadUint32(&p.stats.RingMaxUsed)
		if used <= max {
			break
		}
		if atomic.CompareAndSwapUint32(&p.stats.RingMaxUsed, max, used) {
			break
		}
	}
}

// Called for a character dropped because of a frame or parity error.
func (p *Port) dbgRxError() {
	atomic.AddUint32(&p.stats.RxISR, 1)
	atomic.AddUint32(&p.stats.RxErrors, 1)
}

func (p *Port) dbgTxByte() {
	atomic.AddUint32(&p.stats.TxBytes, 1)
}

func (p *Port) dbgReadWait() {
	atomic.AddUint32(&p.stats.ReadWaits, 1)
}
func (p *Port) dbgSpuriousWake() {
	atomic.AddUint32(&p.stats.SpuriousWakes, 1)
}
func (p *Port) dbgTimeout() {
	atomic.AddUint32(&p.stats.Timeouts, 1)
}
