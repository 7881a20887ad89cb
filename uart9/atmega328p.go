// uart9/atmega328p.go

//go:build atmega328p

package uart9

import (
	"device/avr"
	"machine"
	"runtime/interrupt"
)

// USART0 on the ATmega328P. Programs using it are built with -serial=none,
// otherwise the machine package claims the same vectors for its console.
var (
	USART0  = &_USART0
	_USART0 = newAVRPort(Registers{
		UBRRH: avr.UBRR0H,
		UBRRL: avr.UBRR0L,
		UCSRA: avr.UCSR0A,
		UCSRB: avr.UCSR0B,
		UCSRC: avr.UCSR0C,
		UDR:   avr.UDR0,
	})
)

func init() {
	_USART0.Clock = machine.CPUFrequency()
	_ = Register(0, USART0)
	interrupt.New(avr.IRQ_USART_RX, usart0RX)
	interrupt.New(avr.IRQ_USART_UDRE, usart0UDRE)
}

func usart0RX(interrupt.Interrupt)   { HandleReceiveVector(0) }
func usart0UDRE(interrupt.Interrupt) { HandleTransmitVector(0) }
