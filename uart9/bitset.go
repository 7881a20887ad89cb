// uart9/bitset.go

package uart9

import "sync/atomic"

// bitset is the ninth-bit side channel of a RingBuffer, one bit per slot.
// Neighbouring slots share a word and are owned by opposite sides of the
// ring (producer at head, consumer at tail), so every word is updated with
// compare-and-swap instead of a plain read-modify-write.
type bitset struct {
	words [(bufferSize + 31) / 32]atomic.Uint32
}

func (b *bitset) get(i uint32) bool {
	return b.words[i/32].Load()&(1<<(i%32)) != 0
}

func (b *bitset) set(i uint32, v bool) {
	w := &b.words[i/32]
	mask := uint32(1) << (i % 32)
	for {
		old := w.Load()
		next := old &^ mask
		if v {
			next |= mask
		}
		if old == next || w.CompareAndSwap(old, next) {
			return
		}
	}
}

func (b *bitset) clear() {
	for i := range b.words {
		b.words[i].Store(0)
	}
}
