// uart9/registers.go

package uart9

// Register8 is an 8-bit memory-mapped register. TinyGo's *volatile.Register8
// satisfies it directly; uart9/sim provides a simulated implementation.
type Register8 interface {
	Get() uint8
	Set(value uint8)
	SetBits(value uint8)
	ClearBits(value uint8)
	HasBits(value uint8) bool
}

// Registers is the register block of one AVR USART.
type Registers struct {
	UBRRH Register8 // baud divisor, high nibble
	UBRRL Register8 // baud divisor, low byte
	UCSRA Register8 // status (and U2X)
	UCSRB Register8 // enables, interrupt enables, ninth bits
	UCSRC Register8 // frame format
	UDR   Register8 // data: read pops the receive FIFO, write loads the transmitter
}

// UCSRA bits.
const (
	UCSRA_RXC  = 1 << 7 // receive complete
	UCSRA_TXC  = 1 << 6 // transmit complete; cleared by writing a one
	UCSRA_UDRE = 1 << 5 // data register empty
	UCSRA_FE   = 1 << 4 // frame error (for the byte at the head of the receive FIFO)
	UCSRA_DOR  = 1 << 3 // data overrun
	UCSRA_UPE  = 1 << 2 // parity error (for the byte at the head of the receive FIFO)
	UCSRA_U2X  = 1 << 1 // double transmission speed
	UCSRA_MPCM = 1 << 0 // multi-processor communication mode
)

// UCSRB bits.
const (
	UCSRB_RXCIE = 1 << 7 // receive complete interrupt enable
	UCSRB_TXCIE = 1 << 6 // transmit complete interrupt enable
	UCSRB_UDRIE = 1 << 5 // data register empty interrupt enable
	UCSRB_RXEN  = 1 << 4 // receiver enable
	UCSRB_TXEN  = 1 << 3 // transmitter enable
	UCSRB_UCSZ2 = 1 << 2 // character size bit 2 (set for 9-bit characters)
	UCSRB_RXB8  = 1 << 1 // ninth bit of the received character; read before UDR
	UCSRB_TXB8  = 1 << 0 // ninth bit of the next transmitted character; write before UDR
)

// UCSRC bits.
const (
	UCSRC_UMSEL1 = 1 << 7
	UCSRC_UMSEL0 = 1 << 6
	UCSRC_UPM1   = 1 << 5
	UCSRC_UPM0   = 1 << 4
	UCSRC_USBS   = 1 << 3
	UCSRC_UCSZ1  = 1 << 2
	UCSRC_UCSZ0  = 1 << 1
	UCSRC_UCPOL  = 1 << 0
)
