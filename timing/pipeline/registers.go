// Package pipeline implements the five-stage in-order Y86-64 pipeline:
// Fetch, Decode, Execute, Memory, Writeback, joined by five pipeline
// registers (F, D, E, M, W) and driven by a hazard-control unit and a
// per-cycle update pass.
package pipeline

import "github.com/kestrelsim/y86pipe/isa"

// ControlOp is the per-cycle action a pipeline register takes when Update
// runs, per spec section 4.1.
type ControlOp uint8

const (
	// Load copies Input into Output: the stage advances normally.
	Load ControlOp = iota
	// Stall leaves Output unchanged: the consuming stage re-executes the
	// same instruction next cycle.
	Stall
	// Bubble replaces Output with the register's bubble value: the
	// consuming stage sees a NOP.
	Bubble
	// Err replaces Output with the bubble value and latches until cleared:
	// used to freeze a register carrying a terminal status.
	Err
)

// Reg is the generic pipeline-register primitive: an input side written by
// the producing stage, an output side read by the consumer, and a per-cycle
// control op deciding how Update moves one into the other.
type Reg[T any] struct {
	output T
	input  T
	op     ControlOp
	bubble T
}

// NewReg creates a pipeline register initialized to its bubble value on
// both sides.
func NewReg[T any](bubbleValue T) *Reg[T] {
	return &Reg[T]{output: bubbleValue, input: bubbleValue, bubble: bubbleValue}
}

// Output returns the value the consuming stage should read this cycle.
func (r *Reg[T]) Output() T {
	return r.output
}

// SetInput stores the value the producing stage computed this cycle,
// to take effect at the next Update per the currently set ControlOp.
func (r *Reg[T]) SetInput(v T) {
	r.input = v
}

// SetOp selects this cycle's update action.
func (r *Reg[T]) SetOp(op ControlOp) {
	r.op = op
}

// Op returns the currently latched control op.
func (r *Reg[T]) Op() ControlOp {
	return r.op
}

// Update applies the latched control op, then resets to Load unless the op
// was Err (which stays latched until explicitly cleared), per spec 4.1.
func (r *Reg[T]) Update() {
	switch r.op {
	case Load:
		r.output = r.input
	case Bubble:
		r.output = r.bubble
	case Stall:
		// output unchanged
	case Err:
		r.output = r.bubble
	}
	if r.op != Err {
		r.op = Load
	}
}

// Clear resets both sides to the bubble value and the op to Load.
func (r *Reg[T]) Clear() {
	r.output = r.bubble
	r.input = r.bubble
	r.op = Load
}

// FPayload is the Fetch register: it feeds Fetch itself with the PC
// prediction computed during the previous cycle.
type FPayload struct {
	PredPC uint64
}

// DPayload is the Decode register: the result of Fetch, consumed by Decode.
type DPayload struct {
	ICode   isa.ICode
	IFun    isa.IFun
	RA, RB  uint8
	ValC    uint64
	ValP    uint64
	Status  isa.Status
	StagePC uint64
}

// EPayload is the Execute register: the result of Decode, consumed by
// Execute.
type EPayload struct {
	DPayload
	ValA, ValB uint64
	SrcA, SrcB uint8
	DstE, DstM uint8
}

// MPayload is the Memory register: the result of Execute, consumed by
// Memory. It carries ValE, ValA, and TakeBranch, plus ValB as the value a
// store writes.
type MPayload struct {
	ICode      isa.ICode
	IFun       isa.IFun
	ValE       uint64
	ValA       uint64 // fall-through address saved for mispredict recovery
	ValB       uint64 // value to store, for RMMOVQ/PUSHQ/CALL
	TakeBranch bool
	DstE, DstM uint8
	Status     isa.Status
	StagePC    uint64
}

// WPayload is the Writeback register: the result of Memory, consumed by
// Writeback.
type WPayload struct {
	ICode      isa.ICode
	IFun       isa.IFun
	ValE       uint64
	ValM       uint64
	DstE, DstM uint8
	Status     isa.Status
	StagePC    uint64
}

// bubbleD is the NOP value a Decode register takes when bubbled: a BUB
// status with no destinations.
var bubbleD = DPayload{ICode: isa.NOP, RA: isa.RNone, RB: isa.RNone, Status: isa.BUB}

var bubbleE = EPayload{DPayload: bubbleD, SrcA: isa.RNone, SrcB: isa.RNone, DstE: isa.RNone, DstM: isa.RNone}

var bubbleM = MPayload{ICode: isa.NOP, DstE: isa.RNone, DstM: isa.RNone, Status: isa.BUB}

var bubbleW = WPayload{ICode: isa.NOP, DstE: isa.RNone, DstM: isa.RNone, Status: isa.BUB}

// Registers bundles the five pipeline registers that join the stages.
type Registers struct {
	F *Reg[FPayload]
	D *Reg[DPayload]
	E *Reg[EPayload]
	M *Reg[MPayload]
	W *Reg[WPayload]
}

// NewRegisters creates the five pipeline registers, each seeded with its
// bubble value, and F seeded to start fetching at entry.
func NewRegisters(entry uint64) *Registers {
	return &Registers{
		F: NewReg(FPayload{PredPC: entry}),
		D: NewReg(bubbleD),
		E: NewReg(bubbleE),
		M: NewReg(bubbleM),
		W: NewReg(bubbleW),
	}
}

// Update advances all five registers atomically. Callers must have set
// every register's op and input for this cycle first.
func (r *Registers) Update() {
	r.F.Update()
	r.D.Update()
	r.E.Update()
	r.M.Update()
	r.W.Update()
}
