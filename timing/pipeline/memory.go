package pipeline

import (
	"github.com/kestrelsim/y86pipe/emu"
	"github.com/kestrelsim/y86pipe/isa"
)

// MemoryStage performs at most one 8-byte memory access per cycle: a store
// for RMMOVQ/PUSHQ/CALL, a load for MRMOVQ/POPQ/RET, or nothing for every
// other instruction class.
type MemoryStage struct {
	mem *emu.Memory
}

// NewMemoryStage creates a Memory stage accessing mem.
func NewMemoryStage(mem *emu.Memory) *MemoryStage {
	return &MemoryStage{mem: mem}
}

// MemWrite records the single store a cycle performed, if any, so the
// interactive front-end's undo stack can reverse it without keeping a full
// memory copy per step.
type MemWrite struct {
	Valid bool
	Addr  uint64
	Prior uint64
}

// Access runs the Memory stage for this cycle, producing the Writeback
// register's input and a record of any store it performed.
func (s *MemoryStage) Access(regs *Registers) (WPayload, MemWrite) {
	m := regs.M.Output()

	status := m.Status
	var valM uint64
	var write MemWrite

	if status == isa.AOK {
		switch m.ICode {
		case isa.RMMOVQ, isa.PUSHQ, isa.CALL:
			prior, _ := s.mem.ReadWord(m.ValE)
			if !s.mem.WriteWord(m.ValE, m.ValB) {
				status = isa.ADR
			} else {
				write = MemWrite{Valid: true, Addr: m.ValE, Prior: prior}
			}
		case isa.MRMOVQ:
			v, ok := s.mem.ReadWord(m.ValE)
			if !ok {
				status = isa.ADR
			} else {
				valM = v
			}
		case isa.POPQ, isa.RET:
			v, ok := s.mem.ReadWord(m.ValA)
			if !ok {
				status = isa.ADR
			} else {
				valM = v
			}
		}
	}

	return WPayload{
		ICode:   m.ICode,
		IFun:    m.IFun,
		ValE:    m.ValE,
		ValM:    valM,
		DstE:    m.DstE,
		DstM:    m.DstM,
		Status:  status,
		StagePC: m.StagePC,
	}, write
}
