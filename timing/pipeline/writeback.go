package pipeline

import "github.com/kestrelsim/y86pipe/isa"

// WritebackStage commits the two register writes a cycle can produce: valE
// to dstE and valM to dstM, provided the instruction's status is AOK (a BUB
// or terminal status writes nothing).
type WritebackStage struct{}

// NewWritebackStage creates a Writeback stage.
func NewWritebackStage() *WritebackStage {
	return &WritebackStage{}
}

// Commit is one committed register write: Reg is isa.RNone when this slot
// writes nothing.
type Commit struct {
	Reg   uint8
	Value uint64
}

// Writeback runs the Writeback stage for this cycle, returning the
// instruction's architectural status and the (up to two) register writes to
// apply to the register file.
func (s *WritebackStage) Writeback(regs *Registers) (status isa.Status, destE, destM Commit) {
	w := regs.W.Output()

	destE = Commit{Reg: isa.RNone}
	destM = Commit{Reg: isa.RNone}

	if w.Status == isa.AOK {
		if w.DstE != isa.RNone {
			destE = Commit{Reg: w.DstE, Value: w.ValE}
		}
		if w.DstM != isa.RNone {
			destM = Commit{Reg: w.DstM, Value: w.ValM}
		}
	}

	status = w.Status
	if status == isa.BUB {
		status = isa.AOK
	}

	return status, destE, destM
}
