// uart9/ringbuffer.go

package uart9

import "sync/atomic"

// Choose a power-of-two size for efficient modulo. One slot always stays
// empty, so a ring holds bufferSize-1 words.
const bufferSize uint32 = 64

// RingBuffer is a fixed-capacity single-producer/single-consumer queue of
// 9-bit words. The payload bytes and the packed ninth bits are indexed by the
// same slot number.
//
// head is written only by the producer and tail only by the consumer; each
// side reads the other's index through an atomic load, which is what makes it
// safe for an interrupt handler to Put while mainline code Gets (RX) or the
// other way around (TX). The overflow flag is raised by the producer and
// cleared by the consumer; if both happen at once the flag may stay set.
type RingBuffer struct {
	data     [bufferSize]byte
	bits     bitset
	head     atomic.Uint32
	tail     atomic.Uint32
	overflow atomic.Bool
}

// NewRingBuffer returns a new, empty ring buffer.
func NewRingBuffer() *RingBuffer {
	return &RingBuffer{}
}

// Size returns the number of slots, including the one that is kept free.
func (rb *RingBuffer) Size() int {
	return int(bufferSize)
}

// Used returns how many words are waiting in the buffer.
func (rb *RingBuffer) Used() int {
	return int((bufferSize + rb.head.Load() - rb.tail.Load()) % bufferSize)
}

// Free returns how many more words can be stored before the buffer is full.
func (rb *RingBuffer) Free() int {
	return int(bufferSize) - 1 - rb.Used()
}

// Put stores a word. If the buffer is full the word is dropped, the overflow
// flag is raised and Put returns false. Producer side only.
func (rb *RingBuffer) Put(w Word) bool {
	h := rb.head.Load()
	next := (h + 1) % bufferSize
	if next == rb.tail.Load() {
		rb.overflow.Store(true)
		return false
	}
	rb.data[h] = w.Data()     // 1) write data
	rb.bits.set(h, w.Ninth()) // 2) and its ninth bit
	rb.head.Store(next)       // 3) publish
	return true
}

// Get removes and returns the oldest word. It returns (0, false) when the
// buffer is empty. A successful Get clears the overflow flag. Consumer side only.
func (rb *RingBuffer) Get() (Word, bool) {
	t := rb.tail.Load()
	if t == rb.head.Load() {
		return 0, false
	}
	w := MakeWord(rb.data[t], rb.bits.get(t)) // 1) read current element
	rb.tail.Store((t + 1) % bufferSize)       // 2) publish consumption
	rb.overflow.Store(false)
	return w, true
}

// Peek returns the oldest word without removing it.
func (rb *RingBuffer) Peek() (Word, bool) {
	t := rb.tail.Load()
	if t == rb.head.Load() {
		return 0, false
	}
	return MakeWord(rb.data[t], rb.bits.get(t)), true
}

// Overflow reports whether a Put was dropped since the last successful Get.
func (rb *RingBuffer) Overflow() bool {
	return rb.overflow.Load()
}

// Discard drops every buffered word by moving tail up to head. Consumer side only.
func (rb *RingBuffer) Discard() {
	rb.tail.Store(rb.head.Load())
}

// Clear resets the buffer to empty with no overflow. Neither side may be
// active while it runs.
func (rb *RingBuffer) Clear() {
	rb.head.Store(0)
	rb.tail.Store(0)
	rb.bits.clear()
	rb.overflow.Store(false)
}
