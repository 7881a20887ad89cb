// uart9/word.go

package uart9

// Word is one character on the line: the eight data bits in the low byte and
// the ninth (signalling) bit in bit 8. On a multi-drop bus the ninth bit marks
// command bytes; in plain 8-bit modes it is always clear.
type Word uint16

const ninthBit Word = 1 << 8

// MakeWord packs a data byte and its ninth bit.
func MakeWord(data byte, ninth bool) Word {
	w := Word(data)
	if ninth {
		w |= ninthBit
	}
	return w
}

// Data returns the eight payload bits.
func (w Word) Data() byte { return byte(w) }

// Ninth reports the signalling bit.
func (w Word) Ninth() bool { return w&ninthBit != 0 }
