// Package shell implements the interactive front-end: a single-letter
// command loop driving a pipeline one cycle or one instruction at a time,
// with checkpoint-backed undo (spec section 6).
package shell

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kestrelsim/y86pipe/emu"
	"github.com/kestrelsim/y86pipe/isa"
	"github.com/kestrelsim/y86pipe/timing/pipeline"
)

// Shell wraps a running pipeline with an undo stack and a shadow sequential
// oracle, stepped in lockstep at instruction boundaries, so memory/register
// diffs can be reported against it.
type Shell struct {
	p      *pipeline.Pipeline
	oracle *emu.Oracle

	undo         []pipeline.Checkpoint
	touched      []uint64
	touchedSeen  map[uint64]bool
	instrRetired uint64
}

// New creates a Shell driving p, with oracle shadowing the same memory
// image from the same entry point.
func New(p *pipeline.Pipeline, oracle *emu.Oracle) *Shell {
	return &Shell{p: p, oracle: oracle, touchedSeen: make(map[uint64]bool)}
}

func (s *Shell) recordTick(cp pipeline.Checkpoint) {
	s.undo = append(s.undo, cp)
	if addr, ok := cp.MemWriteAddr(); ok && !s.touchedSeen[addr] {
		s.touchedSeen[addr] = true
		s.touched = append(s.touched, addr)
	}
	if cp.InstructionRetired() {
		s.instrRetired++
		s.oracle.Step()
	}
}

func (s *Shell) tick() {
	s.p.Tick()
	s.recordTick(s.p.Checkpoint())
}

// StepCycles runs up to n more cycles, stopping early if the pipeline is
// already done.
func (s *Shell) StepCycles(n int) {
	for i := 0; i < n && !s.p.Done(); i++ {
		s.tick()
	}
}

// StepInstructions runs cycles until n more instructions have retired, or
// the pipeline stops.
func (s *Shell) StepInstructions(n int) {
	target := s.instrRetired + uint64(n)
	for s.instrRetired < target && !s.p.Done() {
		s.tick()
	}
}

// UndoCycles pops and reverses up to n of the most recent cycles.
func (s *Shell) UndoCycles(n int) {
	for i := 0; i < n && len(s.undo) > 0; i++ {
		s.popAndRestore()
	}
}

// UndoInstructions pops and reverses cycles until n instruction retirements
// have been undone, or the undo stack is exhausted.
func (s *Shell) UndoInstructions(n int) {
	undone := 0
	for undone < n && len(s.undo) > 0 {
		retired := s.undo[len(s.undo)-1].InstructionRetired()
		s.popAndRestore()
		if retired {
			undone++
		}
	}
}

func (s *Shell) popAndRestore() {
	last := len(s.undo) - 1
	cp := s.undo[last]
	s.undo = s.undo[:last]
	s.p.Restore(cp)
	if cp.InstructionRetired() && s.instrRetired > 0 {
		s.instrRetired--
	}
}

// Run drives the pipeline to completion, recording each cycle onto the
// undo stack.
func (s *Shell) Run() {
	for !s.p.Done() {
		s.tick()
	}
}

// RegisterDiff reports every general-purpose register whose pipeline value
// disagrees with the shadow oracle's.
func (s *Shell) RegisterDiff() []string {
	var diffs []string
	for r := uint8(0); r < isa.NumRegs; r++ {
		got := s.p.RegFile().Get(r)
		want := s.oracle.Regs.Get(r)
		if got != want {
			diffs = append(diffs, fmt.Sprintf("%s: pipeline=%#x oracle=%#x", isa.RegNames[r], got, want))
		}
	}
	return diffs
}

// MemoryDiff reports every address touched by a store so far whose
// pipeline byte disagrees with the shadow oracle's.
func (s *Shell) MemoryDiff() []string {
	var diffs []string
	for _, start := range s.touched {
		for addr := start; addr < start+8; addr++ {
			got, gotOK := s.p.Memory().ReadByte(addr)
			want, wantOK := s.oracle.Mem.ReadByte(addr)
			if gotOK != wantOK || got != want {
				diffs = append(diffs, fmt.Sprintf("%#x: pipeline=%#x oracle=%#x", addr, got, want))
			}
		}
	}
	return diffs
}

// ArchitecturalState renders the pipeline's full architectural snapshot:
// condition codes, status, counters, and every register.
func (s *Shell) ArchitecturalState() string {
	var b strings.Builder
	stats := s.p.Stats()
	fmt.Fprintf(&b, "status=%s cycles=%d instructions=%d cc=%+v\n", stats.Status, stats.Cycles, stats.Instructions, s.p.CC())
	for r := uint8(0); r < isa.NumRegs; r++ {
		fmt.Fprintf(&b, "%s=%#x\n", isa.RegNames[r], s.p.RegFile().Get(r))
	}
	return b.String()
}

// Stage renders one pipeline register's current output, keyed by its
// single-letter name (f, d, e, m, or w).
func (s *Shell) Stage(name string) (string, error) {
	regs := s.p.Registers()
	switch strings.ToLower(name) {
	case "f":
		return fmt.Sprintf("%+v", regs.F.Output()), nil
	case "d":
		return fmt.Sprintf("%+v", regs.D.Output()), nil
	case "e":
		return fmt.Sprintf("%+v", regs.E.Output()), nil
	case "m":
		return fmt.Sprintf("%+v", regs.M.Output()), nil
	case "w":
		return fmt.Sprintf("%+v", regs.W.Output()), nil
	default:
		return "", fmt.Errorf("unknown stage %q, want one of f,d,e,m,w", name)
	}
}

const Help = `commands:
  g        run to completion
  n N      step N instructions
  c N      step N cycles
  u N      undo N instructions
  b N      undo N cycles
  m        print memory diffs against the oracle
  r        print register diffs against the oracle
  a        print architectural state
  p STAGE  print one pipeline stage (f, d, e, m, w)
  h        this help text
  q        quit
`

// Execute parses and runs a single command line, returning its textual
// result and whether the shell should quit.
func (s *Shell) Execute(line string) (output string, quit bool, err error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", false, nil
	}

	cmd, args := fields[0], fields[1:]

	intArg := func(def int) (int, error) {
		if len(args) == 0 {
			return def, nil
		}
		return strconv.Atoi(args[0])
	}

	switch cmd {
	case "g":
		s.Run()
		return s.ArchitecturalState(), false, nil

	case "n":
		n, err := intArg(1)
		if err != nil {
			return "", false, fmt.Errorf("n: %w", err)
		}
		s.StepInstructions(n)
		return s.ArchitecturalState(), false, nil

	case "c":
		n, err := intArg(1)
		if err != nil {
			return "", false, fmt.Errorf("c: %w", err)
		}
		s.StepCycles(n)
		return s.ArchitecturalState(), false, nil

	case "u":
		n, err := intArg(1)
		if err != nil {
			return "", false, fmt.Errorf("u: %w", err)
		}
		s.UndoInstructions(n)
		return s.ArchitecturalState(), false, nil

	case "b":
		n, err := intArg(1)
		if err != nil {
			return "", false, fmt.Errorf("b: %w", err)
		}
		s.UndoCycles(n)
		return s.ArchitecturalState(), false, nil

	case "m":
		return strings.Join(s.MemoryDiff(), "\n"), false, nil

	case "r":
		return strings.Join(s.RegisterDiff(), "\n"), false, nil

	case "a":
		return s.ArchitecturalState(), false, nil

	case "p":
		if len(args) != 1 {
			return "", false, fmt.Errorf("p: want one stage letter")
		}
		out, err := s.Stage(args[0])
		return out, false, err

	case "h":
		return Help, false, nil

	case "q":
		return "", true, nil

	default:
		return "", false, fmt.Errorf("unknown command %q (h for help)", cmd)
	}
}
