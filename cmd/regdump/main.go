//go:build atmega328p

// regdump prints the USART0 registers before and after Begin for a few line
// formats, to check divisor and format programming on real hardware. The
// report goes out on USART0 itself at 9600 8N1.
package main

import (
	"time"

	"github.com/openseamap/tinygo-uart9/uart9"
)

var u = uart9.USART0

func main() {
	time.Sleep(2 * time.Second)

	before := snapshot()
	if err := u.Begin(9600, uart9.Config8N1); err != nil {
		for {
			time.Sleep(time.Second)
		}
	}

	report("reset", before)
	report("9600 8N1", snapshot())

	for _, c := range []struct {
		rate uint32
		cfg  uart9.LineConfig
	}{
		{4800, uart9.Config9N1},
		{57600, uart9.Config8E1},
		{300, uart9.Config7N1},
	} {
		u.Flush()
		u.Begin(c.rate, c.cfg)
		s := snapshot()
		u.Begin(9600, uart9.Config8N1)
		report(c.cfg.String(), s)
	}
	u.Flush()

	for {
		time.Sleep(time.Second)
	}
}

type regs struct{ a, b, c, h, l uint8 }

func snapshot() regs {
	return regs{
		a: u.Bus.UCSRA.Get(),
		b: u.Bus.UCSRB.Get(),
		c: u.Bus.UCSRC.Get(),
		h: u.Bus.UBRRH.Get(),
		l: u.Bus.UBRRL.Get(),
	}
}

func report(label string, r regs) {
	u.Write([]byte("-----------------------------\r\n"))
	u.Write([]byte(label))
	u.Write([]byte("\r\nUCSRA = 0x"))
	writeHex(r.a)
	u.Write([]byte("\r\nUCSRB = 0x"))
	writeHex(r.b)
	u.Write([]byte("\r\nUCSRC = 0x"))
	writeHex(r.c)
	u.Write([]byte("\r\nUBRR  = 0x"))
	writeHex(r.h)
	writeHex(r.l)
	u.Write([]byte("\r\n"))
}

func writeHex(v uint8) {
	const hexdigits = "0123456789abcdef"
	u.WriteByte(hexdigits[v>>4])
	u.WriteByte(hexdigits[v&0xF])
}
