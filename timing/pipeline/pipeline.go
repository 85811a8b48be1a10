package pipeline

import (
	"github.com/kestrelsim/y86pipe/emu"
	"github.com/kestrelsim/y86pipe/isa"
)

// Stats summarizes one run of the pipeline, for reporting and for the
// interactive front-end's status line.
type Stats struct {
	Cycles       uint64
	Instructions uint64
	Status       isa.Status
}

// Pipeline wires the five stages and the hazard unit around a shared set of
// pipeline registers, and drives them one cycle at a time.
type Pipeline struct {
	regs *Registers
	rf   *emu.RegFile
	mem  *emu.Memory

	fetch     *FetchStage
	decode    *DecodeStage
	execute   *ExecuteStage
	memory    *MemoryStage
	writeback *WritebackStage

	cycles       uint64
	instructions uint64
	status       isa.Status

	maxCycles       uint64 // 0 = unbounded
	maxInstructions uint64 // 0 = unbounded

	lastRegWrites        []RegWrite
	lastMemWrite         MemWrite
	lastInstructionCount bool
}

// RegWrite records one register-file write a cycle performed, so the
// interactive front-end's undo stack can restore the prior value.
type RegWrite struct {
	Reg   uint8
	Prior uint64
}

// Option configures a Pipeline at construction time.
type Option func(*Pipeline)

// WithMaxCycles bounds how many cycles Run will execute before stopping.
func WithMaxCycles(n uint64) Option {
	return func(p *Pipeline) { p.maxCycles = n }
}

// WithMaxInstructions bounds how many instructions Run will retire before
// stopping.
func WithMaxInstructions(n uint64) Option {
	return func(p *Pipeline) { p.maxInstructions = n }
}

// New creates a Pipeline fetching from mem and entry, with an empty
// register file, ready to Tick.
func New(mem *emu.Memory, entry uint64, opts ...Option) *Pipeline {
	p := &Pipeline{
		regs:      NewRegisters(entry),
		rf:        &emu.RegFile{},
		mem:       mem,
		fetch:     NewFetchStage(mem),
		decode:    nil,
		execute:   NewExecuteStage(),
		memory:    NewMemoryStage(mem),
		writeback: NewWritebackStage(),
		status:    isa.AOK,
	}
	p.decode = NewDecodeStage(p.rf)
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// RegFile exposes the architectural register file for inspection and for
// the interactive debugger's undo stack.
func (p *Pipeline) RegFile() *emu.RegFile { return p.rf }

// Memory exposes the backing memory for inspection and for the interactive
// debugger's undo stack.
func (p *Pipeline) Memory() *emu.Memory { return p.mem }

// Registers exposes the five pipeline registers for inspection.
func (p *Pipeline) Registers() *Registers { return p.regs }

// CC returns the current architectural condition codes.
func (p *Pipeline) CC() isa.CC { return p.execute.CC() }

// Status returns the most recent architectural status to retire from
// Writeback.
func (p *Pipeline) Status() isa.Status { return p.status }

// Stats reports this pipeline's cumulative counters.
func (p *Pipeline) Stats() Stats {
	return Stats{Cycles: p.cycles, Instructions: p.instructions, Status: p.status}
}

// Done reports whether the pipeline has stopped: the last retired status
// was terminal, or a configured budget has been exhausted.
func (p *Pipeline) Done() bool {
	if p.status.Terminal() {
		return true
	}
	if p.maxCycles != 0 && p.cycles >= p.maxCycles {
		return true
	}
	if p.maxInstructions != 0 && p.instructions >= p.maxInstructions {
		return true
	}
	return false
}

// Tick runs exactly one cycle, in Writeback, Memory, Execute, Decode, Fetch
// order (spec section 4.1): each stage reads the current register outputs
// and the already-updated commits of stages ahead of it in program order,
// before the hazard unit assigns this cycle's control ops and Update
// advances every register atomically.
func (p *Pipeline) Tick() {
	retiring := p.regs.W.Output()

	status, destE, destM := p.writeback.Writeback(p.regs)
	p.lastRegWrites = p.lastRegWrites[:0]
	if destE.Reg != isa.RNone {
		p.lastRegWrites = append(p.lastRegWrites, RegWrite{Reg: destE.Reg, Prior: p.rf.Get(destE.Reg)})
		p.rf.Set(destE.Reg, destE.Value)
	}
	if destM.Reg != isa.RNone {
		p.lastRegWrites = append(p.lastRegWrites, RegWrite{Reg: destM.Reg, Prior: p.rf.Get(destM.Reg)})
		p.rf.Set(destM.Reg, destM.Value)
	}
	p.lastInstructionCount = retiring.Status != isa.BUB
	if p.lastInstructionCount {
		p.instructions++
	}
	p.status = status

	memOut, memWrite := p.memory.Access(p.regs)
	p.lastMemWrite = memWrite
	execOut := p.execute.Execute(p.regs)
	// decOut reads execOut/memOut directly (not via regs.M/regs.W, which
	// still hold the prior cycle's values until Update below) so forwarding
	// priorities 2 and 3 - the instructions currently in Execute and Memory -
	// are visible this same cycle rather than one cycle late.
	decOut := p.decode.Decode(p.regs, execOut, memOut)
	fetchOut, nextPredPC := p.fetch.Fetch(p.regs)

	hz := DetectHazards(p.regs, decOut, execOut, memOut)

	p.regs.F.SetInput(FPayload{PredPC: nextPredPC})
	p.regs.F.SetOp(hz.Fetch)

	p.regs.D.SetInput(fetchOut)
	p.regs.D.SetOp(hz.Decode)

	p.regs.E.SetInput(decOut)
	p.regs.E.SetOp(hz.Execute)

	p.regs.M.SetInput(execOut)
	p.regs.M.SetOp(hz.Memory)

	p.regs.W.SetInput(memOut)
	p.regs.W.SetOp(hz.Writeback)

	p.regs.Update()
	p.cycles++
}

// Run ticks until Done reports true, and returns the final stats.
func (p *Pipeline) Run() Stats {
	for !p.Done() {
		p.Tick()
	}
	return p.Stats()
}

// RunCycles ticks at most n additional cycles, stopping early if Done
// becomes true, and returns the final stats. Used by the interactive
// front-end's single-step and continue commands.
func (p *Pipeline) RunCycles(n uint64) Stats {
	for i := uint64(0); i < n && !p.Done(); i++ {
		p.Tick()
	}
	return p.Stats()
}
