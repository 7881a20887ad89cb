// uart9/atmega1284p.go

//go:build atmega1284p

package uart9

import (
	"device/avr"
	"machine"
	"runtime/interrupt"
)

// USART0 and USART1 on the ATmega1284P, the two NMEA inputs of the logger
// board. Build with -serial=none.
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

	USART1  = &_USART1
	_USART1 = newAVRPort(Registers{
		UBRRH: avr.UBRR1H,
		UBRRL: avr.UBRR1L,
		UCSRA: avr.UCSR1A,
		UCSRB: avr.UCSR1B,
		UCSRC: avr.UCSR1C,
		UDR:   avr.UDR1,
	})
)

func init() {
	clock := machine.CPUFrequency()
	_USART0.Clock = clock
	_USART1.Clock = clock
	_ = Register(0, USART0)
	_ = Register(1, USART1)
	interrupt.New(avr.IRQ_USART0_RX, usart0RX)
	interrupt.New(avr.IRQ_USART0_UDRE, usart0UDRE)
	interrupt.New(avr.IRQ_USART1_RX, usart1RX)
	interrupt.New(avr.IRQ_USART1_UDRE, usart1UDRE)
}

func usart0RX(interrupt.Interrupt)   { HandleReceiveVector(0) }
func usart0UDRE(interrupt.Interrupt) { HandleTransmitVector(0) }
func usart1RX(interrupt.Interrupt)   { HandleReceiveVector(1) }
func usart1UDRE(interrupt.Interrupt) { HandleTransmitVector(1) }
