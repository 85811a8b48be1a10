package pipeline

import (
	"github.com/kestrelsim/y86pipe/emu"
	"github.com/kestrelsim/y86pipe/isa"
)

// FetchStage selects this cycle's PC, decodes the instruction there, and
// produces the Decode register's input plus next cycle's predPC (spec
// section 4.2).
type FetchStage struct {
	mem *emu.Memory
}

// NewFetchStage creates a Fetch stage reading from mem.
func NewFetchStage(mem *emu.Memory) *FetchStage {
	return &FetchStage{mem: mem}
}

// selectPC implements the three-way PC-source priority of spec section 4.2.
func selectPC(regs *Registers) uint64 {
	w := regs.W.Output()
	if w.ICode == isa.RET && w.Status == isa.AOK {
		return w.ValM
	}

	m := regs.M.Output()
	if m.ICode == isa.JXX && !m.TakeBranch {
		return m.ValA
	}

	return regs.F.Output().PredPC
}

// Fetch runs the Fetch stage for this cycle, returning the Decode-register
// payload to latch and the predPC to install into the Fetch register.
func (s *FetchStage) Fetch(regs *Registers) (next DPayload, nextPredPC uint64) {
	pc := selectPC(regs)
	inst := isa.Decode(s.mem, pc)

	status := isa.AOK
	switch {
	case inst.AddrFault:
		status = isa.ADR
	case inst.Invalid:
		status = isa.INS
	case inst.ICode == isa.HALT:
		status = isa.HLT
	}

	next = DPayload{
		ICode:   inst.ICode,
		IFun:    inst.IFun,
		RA:      inst.RA,
		RB:      inst.RB,
		ValC:    inst.ValC,
		ValP:    inst.ValP,
		Status:  status,
		StagePC: pc,
	}

	if inst.IsJumpOrCall() {
		nextPredPC = inst.ValC
	} else {
		nextPredPC = inst.ValP
	}

	return next, nextPredPC
}
