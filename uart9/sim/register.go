package sim

// Register is a simulated 8-bit register. Every access takes the peripheral
// state lock, so SetBits and ClearBits are atomic read-modify-writes of the
// register image as the CPU would see it. As on the real part, that includes
// writing back a set TXC bit, which clears it.
type Register struct {
	u     *USART
	read  func(*USART) uint8
	write func(*USART, uint8)
}

func (r *Register) Get() uint8 {
	r.u.mu.Lock()
	defer r.u.mu.Unlock()
	return r.read(r.u)
}

func (r *Register) Set(v uint8) {
	r.u.mu.Lock()
	defer r.u.mu.Unlock()
	r.write(r.u, v)
}

func (r *Register) SetBits(v uint8) {
	r.u.mu.Lock()
	defer r.u.mu.Unlock()
	r.write(r.u, r.read(r.u)|v)
}

func (r *Register) ClearBits(v uint8) {
	r.u.mu.Lock()
	defer r.u.mu.Unlock()
	r.write(r.u, r.read(r.u)&^v)
}

func (r *Register) HasBits(v uint8) bool {
	return r.Get()&v != 0
}
