//go:build !uart9debug

package uart9

type Stats struct{}

func (p *Port) DebugReset()       {}
func (p *Port) DebugStats() Stats { return Stats{} }

type Regs struct{}

func (p *Port) DebugRegs() Regs { return Regs{} }
