package pipeline

import "github.com/kestrelsim/y86pipe/isa"

// ExecuteStage performs ALU/shift/vector arithmetic, effective-address
// computation, and branch-condition evaluation. It also owns the
// architectural condition-code register, which updates only when the
// updating instruction itself is AOK and no instruction currently in
// Writeback carries a terminal status (HLT, ADR, INS) — precise-exception
// semantics for condition codes.
type ExecuteStage struct {
	cc isa.CC
}

// NewExecuteStage creates an Execute stage with condition codes reset.
func NewExecuteStage() *ExecuteStage {
	return &ExecuteStage{cc: isa.InitialCC()}
}

// CC returns the current architectural condition codes.
func (s *ExecuteStage) CC() isa.CC {
	return s.cc
}

// Execute runs the Execute stage for this cycle, producing the Memory
// register's input.
func (s *ExecuteStage) Execute(regs *Registers) MPayload {
	e := regs.E.Output()

	out := MPayload{
		ICode:   e.ICode,
		IFun:    e.IFun,
		DstE:    e.DstE,
		DstM:    e.DstM,
		Status:  e.Status,
		StagePC: e.StagePC,
	}

	commitCC := e.Status == isa.AOK && !regs.W.Output().Status.Terminal()

	switch e.ICode {
	case isa.NOP, isa.HALT:
		// no arithmetic

	case isa.CMOVXX:
		out.ValE = e.ValA
		if !isa.CondHolds(s.cc, e.IFun) {
			out.DstE = isa.RNone
		}

	case isa.IRMOVQ:
		out.ValE = e.ValC

	case isa.RMMOVQ:
		out.ValE = e.ValB + e.ValC
		out.ValB = e.ValA

	case isa.MRMOVQ:
		out.ValE = e.ValB + e.ValC

	case isa.OPQ:
		result, cc := isa.ALUResult(e.IFun, e.ValA, e.ValB)
		out.ValE = result
		if commitCC {
			s.cc = cc
		}

	case isa.SHF:
		result, cc := isa.ShiftResult(e.IFun, e.ValA, e.ValB)
		out.ValE = result
		if commitCC {
			s.cc = cc
		}

	case isa.VECADD:
		result, cc := isa.VecAddResult(e.ValA, e.ValB)
		out.ValE = result
		if commitCC {
			s.cc = cc
		}

	case isa.JXX:
		out.TakeBranch = isa.CondHolds(s.cc, e.IFun)
		out.ValA = e.ValA // fall-through target, kept for mispredict recovery

	case isa.CALL:
		out.ValE = e.ValB - 8
		out.ValB = e.ValP // return address, stored to the new stack slot

	case isa.RET:
		out.ValE = e.ValB + 8
		out.ValA = e.ValB // old stack pointer doubles as the load address

	case isa.PUSHQ:
		out.ValE = e.ValB - 8
		out.ValB = e.ValA

	case isa.POPQ:
		out.ValE = e.ValB + 8
		out.ValA = e.ValB // old stack pointer: load address
	}

	return out
}
