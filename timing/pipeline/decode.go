package pipeline

import (
	"github.com/kestrelsim/y86pipe/emu"
	"github.com/kestrelsim/y86pipe/isa"
)

const rsp uint8 = 4

// DecodeStage reads the register file and resolves operands through the
// forwarding network (spec sections 4.3 and 4.7).
type DecodeStage struct {
	regs *emu.RegFile
}

// NewDecodeStage creates a Decode stage reading from regFile.
func NewDecodeStage(regFile *emu.RegFile) *DecodeStage {
	return &DecodeStage{regs: regFile}
}

// operandSpec returns the source/destination register fields an
// instruction's icode reads and writes, per the fixed per-opcode table of
// spec section 4.3.
func operandSpec(icode isa.ICode, ra, rb uint8) (srcA, srcB, dstE, dstM uint8) {
	srcA, srcB, dstE, dstM = isa.RNone, isa.RNone, isa.RNone, isa.RNone

	switch icode {
	case isa.CMOVXX:
		srcA, dstE = ra, rb
	case isa.IRMOVQ:
		dstE = rb
	case isa.RMMOVQ:
		srcA, srcB = ra, rb
	case isa.MRMOVQ:
		srcB, dstM = rb, ra
	case isa.OPQ, isa.VECADD, isa.SHF:
		srcA, srcB, dstE = ra, rb, rb
	case isa.CALL:
		srcB, dstE = rsp, rsp
	case isa.RET:
		srcA, srcB, dstE = rsp, rsp, rsp
	case isa.PUSHQ:
		srcA, srcB, dstE = ra, rsp, rsp
	case isa.POPQ:
		srcA, srcB, dstE, dstM = rsp, rsp, rsp, ra
	}

	return srcA, srcB, dstE, dstM
}

// forward resolves one source register through the seven-way priority mux
// of spec section 4.3 (priorities 2-7; priority 1, Decode.valP for
// CALL/JMP, is handled by the caller since it replaces valA outright rather
// than keying off a register number). execOut and memOut are this cycle's
// Execute and Memory stage results - the values about to be latched into M
// and W - and must be read current-cycle, not the prior cycle's Output, or
// the distance-1 forwards (priorities 2 and 3) never fire.
func forward(src uint8, regs *Registers, execOut MPayload, memOut WPayload, rf *emu.RegFile) uint64 {
	if src == isa.RNone {
		return 0
	}

	if dstE := execOut.DstE; src == dstE && dstE != isa.RNone {
		return execOut.ValE
	}
	if dstM := memOut.DstM; src == dstM && dstM != isa.RNone {
		return memOut.ValM
	}
	if dstE := regs.M.Output().DstE; src == dstE && dstE != isa.RNone {
		return regs.M.Output().ValE
	}
	if dstM := regs.W.Output().DstM; src == dstM && dstM != isa.RNone {
		return regs.W.Output().ValM
	}
	if dstE := regs.W.Output().DstE; src == dstE && dstE != isa.RNone {
		return regs.W.Output().ValE
	}
	return rf.Get(src)
}

// Decode resolves srcA/srcB/dstE/dstM and their forwarded values for the
// instruction currently in the Decode register's output. execOut and memOut
// are this cycle's Execute and Memory stage results, supplied by the caller
// so priorities 2 and 3 of the forwarding mux see current-cycle values.
func (s *DecodeStage) Decode(regs *Registers, execOut MPayload, memOut WPayload) EPayload {
	d := regs.D.Output()

	srcA, srcB, dstE, dstM := operandSpec(d.ICode, d.RA, d.RB)

	var valA uint64
	if d.ICode == isa.CALL || d.ICode == isa.JXX {
		valA = d.ValP
	} else {
		valA = forward(srcA, regs, execOut, memOut, s.regs)
	}
	valB := forward(srcB, regs, execOut, memOut, s.regs)

	return EPayload{
		DPayload: d,
		ValA:     valA,
		ValB:     valB,
		SrcA:     srcA,
		SrcB:     srcB,
		DstE:     dstE,
		DstM:     dstM,
	}
}
