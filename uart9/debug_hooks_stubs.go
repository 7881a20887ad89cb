//go:build !uart9debug

package uart9

func (p *Port) dbgOnByte(bool)   {}
func (p *Port) dbgRxError()      {}
func (p *Port) dbgTxByte()       {}
func (p *Port) dbgReadWait()     {}
func (p *Port) dbgSpuriousWake() {}
func (p *Port) dbgTimeout()      {}
