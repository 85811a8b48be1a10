package pipeline

import "github.com/kestrelsim/y86pipe/isa"

// Checkpoint is one undo step: a full snapshot of the five pipeline
// registers and condition codes, plus a delta of the register-file and
// memory changes the cycle performed. Undoing a checkpoint restores the
// pipeline to the state it had before that cycle ran, without keeping a
// full copy of the register file or memory per step (spec section 5).
type Checkpoint struct {
	F FPayload
	D DPayload
	E EPayload
	M MPayload
	W WPayload

	CC     isa.CC
	Status isa.Status
	Cycles uint64

	regWrites        []RegWrite
	memWrite         MemWrite
	instructionCount bool
}

// InstructionRetired reports whether the cycle this checkpoint was taken
// after retired a real instruction (as opposed to a bubble).
func (c Checkpoint) InstructionRetired() bool {
	return c.instructionCount
}

// MemWriteAddr reports the address a store touched during the checkpointed
// cycle, if any.
func (c Checkpoint) MemWriteAddr() (addr uint64, ok bool) {
	return c.memWrite.Addr, c.memWrite.Valid
}

// Checkpoint captures the pipeline's state as it stood just before the most
// recent Tick, together with that cycle's register-file and memory deltas.
// Call it immediately after Tick.
func (p *Pipeline) Checkpoint() Checkpoint {
	return Checkpoint{
		F: p.regs.F.Output(), D: p.regs.D.Output(), E: p.regs.E.Output(),
		M: p.regs.M.Output(), W: p.regs.W.Output(),
		CC:        p.execute.CC(),
		Status:    p.status,
		Cycles:    p.cycles,
		regWrites:        append([]RegWrite(nil), p.lastRegWrites...),
		memWrite:         p.lastMemWrite,
		instructionCount: p.lastInstructionCount,
	}
}

// Restore applies a checkpoint captured by Checkpoint, undoing the cycle it
// was taken after: it reverses the register-file and memory writes that
// cycle made, then resets the pipeline registers, condition codes, status,
// and cycle counter to their prior values.
func (p *Pipeline) Restore(c Checkpoint) {
	for i := len(c.regWrites) - 1; i >= 0; i-- {
		w := c.regWrites[i]
		p.rf.Set(w.Reg, w.Prior)
	}
	if c.memWrite.Valid {
		p.mem.WriteWord(c.memWrite.Addr, c.memWrite.Prior)
	}

	p.regs.F.Clear()
	p.regs.F.SetInput(c.F)
	p.regs.F.Update()
	p.regs.D.Clear()
	p.regs.D.SetInput(c.D)
	p.regs.D.Update()
	p.regs.E.Clear()
	p.regs.E.SetInput(c.E)
	p.regs.E.Update()
	p.regs.M.Clear()
	p.regs.M.SetInput(c.M)
	p.regs.M.Update()
	p.regs.W.Clear()
	p.regs.W.SetInput(c.W)
	p.regs.W.Update()

	p.execute.cc = c.CC
	p.status = c.Status
	p.cycles = c.Cycles
	if c.instructionCount && p.instructions > 0 {
		p.instructions--
	}
}
