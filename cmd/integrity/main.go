// cmd/integrity/main.go
// Cross-USART integrity test for the ATmega1284P logger board in 9-bit mode.
// Wiring:
//   USART0 TXD0 (PD1) -> USART1 RXD1 (PD2)
//   USART1 TXD1 (PD3) -> USART0 RXD0 (PD0)
// Both ports run the Seatalk format (4800 baud, 9N1). Build with -serial=none;
// the result is shown on an LED at PB0: three short blinks for a pass, a slow
// blink forever for a failure, with the failing direction as the blink count.

//go:build atmega1284p

package main

import (
	"context"
	"machine"
	"time"

	"github.com/openseamap/tinygo-uart9/uart9"
)

/*** Tunables ***/
const (
	baud           = 4800
	totalWords     = 2048 // words per direction
	timeoutPerTest = 15 * time.Second
	warmupDelay    = 2 * time.Second
	led            = machine.PB0
)

/*** Patterns (deterministic) ***/
// The ninth bit marks every eighth word, like a command byte heading a datagram.
func patternA(i int) uart9.Word { return uart9.MakeWord(byte(i*31+0x55), i%8 == 0) }
func patternB(i int) uart9.Word { return uart9.MakeWord(byte(i*17+0xA6), i%8 == 3) }

func main() {
	time.Sleep(warmupDelay)
	led.Configure(machine.PinConfig{Mode: machine.PinOutput})

	u0, u1 := uart9.USART0, uart9.USART1
	if err := u0.Begin(baud, uart9.Config9N1); err != nil {
		fail(1)
	}
	if err := u1.Begin(baud, uart9.Config9N1); err != nil {
		fail(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeoutPerTest)
	defer cancel()

	// Receivers first, then both senders: full duplex.
	errCh := make(chan int, 2)
	go func() { errCh <- check(ctx, u1, patternA, totalWords, 1) }()
	go func() { errCh <- check(ctx, u0, patternB, totalWords, 2) }()
	go func() { _ = send(ctx, u0, patternA, totalWords) }()
	go func() { _ = send(ctx, u1, patternB, totalWords) }()

	for i := 0; i < 2; i++ {
		if code := <-errCh; code != 0 {
			fail(code)
		}
	}
	_ = u0.FlushContext(ctx)
	_ = u1.FlushContext(ctx)
	blink(led, 3, 120*time.Millisecond)
	for {
		time.Sleep(time.Second)
	}
}

func send(ctx context.Context, u *uart9.Port, gen func(int) uart9.Word, n int) error {
	for i := 0; i < n; i++ {
		if err := u.WriteWordContext(ctx, gen(i)); err != nil {
			return err
		}
	}
	return nil
}

// check reads n words and compares each against gen(i). It returns 0 on
// success and code on a mismatch, a timeout or a receive ring overflow.
func check(ctx context.Context, u *uart9.Port, gen func(int) uart9.Word, n int, code int) int {
	var buf [32]uart9.Word
	received := 0
	for received < n {
		k := n - received
		if k > len(buf) {
			k = len(buf)
		}
		m, err := u.ReadFullContext(ctx, buf[:k])
		if err != nil || u.Overflow() {
			return code
		}
		for i := 0; i < m; i++ {
			if buf[i] != gen(received+i) {
				return code
			}
		}
		received += m
	}
	return 0
}

func fail(code int) {
	for {
		blink(led, code, 600*time.Millisecond)
		time.Sleep(2 * time.Second)
	}
}

func blink(pin machine.Pin, times int, on time.Duration) {
	for i := 0; i < times; i++ {
		pin.High()
		time.Sleep(on)
		pin.Low()
		time.Sleep(on)
	}
}
