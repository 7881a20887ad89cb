// uart9/isr.go

package uart9

// HandleReceive services the receive-complete interrupt. It runs once per
// received character and must stay short: it samples the frame/parity error
// flags first (reading UDR clears them), then the ninth bit (RXB8 must also
// be read before UDR), then pops UDR. Errored characters are read and
// dropped. A full RX ring drops the character and raises its overflow flag.
func (p *Port) HandleReceive() {
	errored := p.Bus.UCSRA.HasBits(UCSRA_FE | UCSRA_UPE)
	ninth := p.Bus.UCSRB.HasBits(UCSRB_RXB8)
	c := p.Bus.UDR.Get()
	if errored {
		p.dbgRxError()
		return
	}
	ok := p.Buffer.Put(MakeWord(c, ninth && p.nineBit.Load()))
	p.dbgOnByte(ok)
	p.signalRx()
}

// HandleTransmit services the data-register-empty interrupt. With the TX ring
// empty it masks UDRIE, leaving the transmitting flag for Flush to settle;
// otherwise it loads TXB8 and then UDR with the next word and clears TXC, so
// TXC only rises once the last loaded word has been shifted out.
func (p *Port) HandleTransmit() {
	w, ok := p.TxBuffer.Get()
	if !ok {
		p.Bus.UCSRB.ClearBits(UCSRB_UDRIE)
		p.signalTx()
		return
	}
	if w.Ninth() {
		p.Bus.UCSRB.SetBits(UCSRB_TXB8)
	} else {
		p.Bus.UCSRB.ClearBits(UCSRB_TXB8)
	}
	p.Bus.UDR.Set(w.Data())
	p.clearTxComplete()
	p.dbgTxByte()
	p.signalTx()
}
