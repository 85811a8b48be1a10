package pipeline

import "github.com/kestrelsim/y86pipe/isa"

// HazardResult is the per-register control-op assignment the hazard unit
// produces for one cycle (spec section 4.7's control-signal matrix).
type HazardResult struct {
	Fetch, Decode, Execute, Memory, Writeback ControlOp

	LoadUse     bool
	Mispredict  bool
	RetInFlight bool
}

// DetectHazards inspects the freshly computed Decode/Execute/Memory outputs
// for this cycle (before they are latched into their downstream register's
// input) together with the Execute stage's current input operands, and
// derives this cycle's three primary hazard conditions plus the resulting
// control-op assignment for every pipeline register.
func DetectHazards(regs *Registers, decodeOut EPayload, executeOut MPayload, memoryOut WPayload) HazardResult {
	// The load-use check needs the source registers of the instruction being
	// latched into Execute this cycle (decodeOut, Execute.input in spec
	// terms), not the instruction already sitting in Execute (regs.E.Output).
	loadUse := (executeOut.ICode == isa.MRMOVQ || executeOut.ICode == isa.POPQ) &&
		executeOut.DstM != isa.RNone &&
		(executeOut.DstM == decodeOut.SrcA || executeOut.DstM == decodeOut.SrcB)

	mispredict := executeOut.ICode == isa.JXX && !executeOut.TakeBranch

	retInFlight := decodeOut.ICode == isa.RET || executeOut.ICode == isa.RET || memoryOut.ICode == isa.RET

	r := HazardResult{LoadUse: loadUse, Mispredict: mispredict, RetInFlight: retInFlight}

	switch {
	case loadUse:
		r.Fetch, r.Decode, r.Execute = Stall, Stall, Bubble
	case mispredict:
		r.Fetch, r.Decode, r.Execute = Load, Bubble, Bubble
		if retInFlight {
			r.Fetch = Stall
		}
	case retInFlight:
		r.Fetch, r.Decode, r.Execute = Stall, Bubble, Load
	default:
		r.Fetch, r.Decode, r.Execute = Load, Load, Load
	}

	// Memory bubbles whenever the instruction ahead of it in Writeback
	// already carries a terminal status, so a faulting instruction's
	// successors never commit (spec section 4.4/4.7, precise exceptions).
	if regs.W.Output().Status.Terminal() {
		r.Memory = Bubble
	} else {
		r.Memory = Load
	}

	r.Writeback = Load

	return r
}
