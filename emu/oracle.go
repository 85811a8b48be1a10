package emu

import (
	"fmt"
	"io"
	"os"

	"github.com/kestrelsim/y86pipe/isa"
)

// StepResult is the outcome of executing a single instruction.
type StepResult struct {
	Status isa.Status
	Exited bool // true once Status is terminal
}

// Oracle is the sequential reference interpreter: it executes one
// instruction per Step as a single atomic fetch-decode-execute-memory-
// writeback action, with no hazards to resolve. The pipeline simulator is
// checked against it for oracle equivalence (spec section 8, property 1).
type Oracle struct {
	Regs   *RegFile
	Mem    *Memory
	CC     isa.CC
	PC     uint64
	nSteps uint64

	maxInstructions uint64 // 0 means unlimited

	stdout io.Writer
	stderr io.Writer
}

// OracleOption configures an Oracle at construction.
type OracleOption func(*Oracle)

// WithMaxInstructions bounds execution, mirroring the pipeline's -l budget.
func WithMaxInstructions(n uint64) OracleOption {
	return func(o *Oracle) { o.maxInstructions = n }
}

// WithStackPointer sets %rsp before execution begins.
func WithStackPointer(sp uint64) OracleOption {
	return func(o *Oracle) { o.Regs.Set(4, sp) }
}

// WithStdout overrides the oracle's trace/error writer.
func WithStdout(w io.Writer) OracleOption {
	return func(o *Oracle) { o.stdout = w }
}

// NewOracle creates an oracle sharing no state with any pipeline instance.
func NewOracle(mem *Memory, opts ...OracleOption) *Oracle {
	o := &Oracle{
		Regs:   &RegFile{},
		Mem:    mem,
		CC:     isa.InitialCC(),
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// InstructionCount returns the number of instructions retired so far.
func (o *Oracle) InstructionCount() uint64 {
	return o.nSteps
}

// Step executes exactly one instruction at the current PC.
func (o *Oracle) Step() StepResult {
	if o.maxInstructions > 0 && o.nSteps >= o.maxInstructions {
		return StepResult{Status: isa.AOK, Exited: true}
	}

	inst := isa.Decode(o.Mem, o.PC)
	if inst.AddrFault {
		return StepResult{Status: isa.ADR, Exited: true}
	}
	if inst.Invalid {
		return StepResult{Status: isa.INS, Exited: true}
	}

	status := o.execute(inst)
	o.nSteps++

	if status.Terminal() {
		return StepResult{Status: status, Exited: true}
	}
	return StepResult{Status: isa.AOK}
}

// Run executes instructions until a terminal status is reached, returning
// it.
func (o *Oracle) Run() isa.Status {
	for {
		result := o.Step()
		if result.Exited {
			return result.Status
		}
	}
}

// execute performs the instruction's full semantics — operand read, ALU/
// memory effect, and architectural commit — as one atomic step, and
// returns its retiring status. This mirrors the per-opcode behavior of the
// pipeline's Execute/Memory/Writeback stages, collapsed into one pass
// because there is nothing else in flight to hazard against.
func (o *Oracle) execute(inst isa.Instruction) isa.Status {
	valA := o.Regs.Get(inst.RA)
	valB := o.Regs.Get(inst.RB)

	switch inst.ICode {
	case isa.HALT:
		o.PC = inst.ValP
		return isa.HLT

	case isa.NOP:
		o.PC = inst.ValP

	case isa.CMOVXX:
		if isa.CondHolds(o.CC, inst.IFun) {
			o.Regs.Set(inst.RB, valA)
		}
		o.PC = inst.ValP

	case isa.IRMOVQ:
		o.Regs.Set(inst.RB, inst.ValC)
		o.PC = inst.ValP

	case isa.RMMOVQ:
		addr := valB + inst.ValC
		if !o.Mem.WriteWord(addr, valA) {
			return isa.ADR
		}
		o.PC = inst.ValP

	case isa.MRMOVQ:
		addr := valB + inst.ValC
		v, ok := o.Mem.ReadWord(addr)
		if !ok {
			return isa.ADR
		}
		o.Regs.Set(inst.RA, v)
		o.PC = inst.ValP

	case isa.OPQ:
		result, cc := isa.ALUResult(inst.IFun, valA, valB)
		o.Regs.Set(inst.RB, result)
		o.CC = cc
		o.PC = inst.ValP

	case isa.JXX:
		if isa.CondHolds(o.CC, inst.IFun) {
			o.PC = inst.ValC
		} else {
			o.PC = inst.ValP
		}

	case isa.CALL:
		sp := o.Regs.Get(4) - 8
		if !o.Mem.WriteWord(sp, inst.ValP) {
			return isa.ADR
		}
		o.Regs.Set(4, sp)
		o.PC = inst.ValC

	case isa.RET:
		sp := o.Regs.Get(4)
		retAddr, ok := o.Mem.ReadWord(sp)
		if !ok {
			return isa.ADR
		}
		o.Regs.Set(4, sp+8)
		o.PC = retAddr

	case isa.PUSHQ:
		sp := o.Regs.Get(4) - 8
		if !o.Mem.WriteWord(sp, valA) {
			return isa.ADR
		}
		o.Regs.Set(4, sp)
		o.PC = inst.ValP

	case isa.POPQ:
		sp := o.Regs.Get(4)
		v, ok := o.Mem.ReadWord(sp)
		if !ok {
			return isa.ADR
		}
		o.Regs.Set(4, sp+8)
		o.Regs.Set(inst.RA, v)
		o.PC = inst.ValP

	case isa.VECADD:
		result, cc := isa.VecAddResult(valA, valB)
		o.Regs.Set(inst.RB, result)
		o.CC = cc
		o.PC = inst.ValP

	case isa.SHF:
		result, cc := isa.ShiftResult(inst.IFun, valA, valB)
		o.Regs.Set(inst.RB, result)
		o.CC = cc
		o.PC = inst.ValP

	default:
		return isa.INS
	}

	return isa.AOK
}

// String renders the oracle's architectural state: PC, condition codes, and
// every register.
func (o *Oracle) String() string {
	return fmt.Sprintf("PC=%#x CC=%+v regs=%v", o.PC, o.CC, o.Regs.Snapshot())
}
