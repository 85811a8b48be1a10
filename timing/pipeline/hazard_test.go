package pipeline_test

import (
	"testing"

	"github.com/kestrelsim/y86pipe/isa"
	"github.com/kestrelsim/y86pipe/timing/pipeline"
)

// freshRegisters builds a Registers with every register at its bubble
// value, the wiring hazard_test.go needs to poke individual stage outputs
// without running a full Tick.
func freshRegisters() *pipeline.Registers {
	return pipeline.NewRegisters(0)
}

func TestDetectHazardsNone(t *testing.T) {
	regs := freshRegisters()
	r := pipeline.DetectHazards(regs, pipeline.EPayload{}, pipeline.MPayload{}, pipeline.WPayload{})

	if r.LoadUse || r.Mispredict || r.RetInFlight {
		t.Fatalf("unexpected hazard flags: %+v", r)
	}
	if r.Fetch != pipeline.Load || r.Decode != pipeline.Load || r.Execute != pipeline.Load {
		t.Errorf("expected LOAD across F/D/E on no-hazard cycle, got %+v", r)
	}
}

func TestDetectHazardsLoadUse(t *testing.T) {
	regs := freshRegisters()
	// decodeOut is the instruction being latched into Execute this cycle
	// (Execute.input in spec terms) - the load-use check must compare
	// against its source registers, not whatever already sits in regs.E.
	decodeOut := pipeline.EPayload{SrcA: rax, SrcB: isa.RNone}

	executeOut := pipeline.MPayload{ICode: isa.MRMOVQ, DstM: rax}
	r := pipeline.DetectHazards(regs, decodeOut, executeOut, pipeline.WPayload{})

	if !r.LoadUse {
		t.Fatal("expected load-use hazard")
	}
	if r.Fetch != pipeline.Stall || r.Decode != pipeline.Stall || r.Execute != pipeline.Bubble {
		t.Errorf("load-use control signals = %+v, want Fetch=Stall Decode=Stall Execute=Bubble", r)
	}
}

func TestDetectHazardsMispredict(t *testing.T) {
	regs := freshRegisters()
	executeOut := pipeline.MPayload{ICode: isa.JXX, TakeBranch: false}
	r := pipeline.DetectHazards(regs, pipeline.EPayload{}, executeOut, pipeline.WPayload{})

	if !r.Mispredict {
		t.Fatal("expected mispredict hazard")
	}
	if r.Fetch != pipeline.Load || r.Decode != pipeline.Bubble || r.Execute != pipeline.Bubble {
		t.Errorf("mispredict control signals = %+v, want Fetch=Load Decode=Bubble Execute=Bubble", r)
	}
}

func TestDetectHazardsRetInFlight(t *testing.T) {
	regs := freshRegisters()
	memoryOut := pipeline.WPayload{ICode: isa.RET}
	r := pipeline.DetectHazards(regs, pipeline.EPayload{}, pipeline.MPayload{}, memoryOut)

	if !r.RetInFlight {
		t.Fatal("expected RET-in-flight hazard")
	}
	if r.Fetch != pipeline.Stall || r.Decode != pipeline.Bubble || r.Execute != pipeline.Load {
		t.Errorf("ret control signals = %+v, want Fetch=Stall Decode=Bubble Execute=Load", r)
	}
}

func TestDetectHazardsMemoryBubblesOnTerminalWriteback(t *testing.T) {
	regs := freshRegisters()
	regs.W.SetInput(pipeline.WPayload{Status: isa.ADR})
	regs.W.SetOp(pipeline.Load)
	regs.W.Update()

	r := pipeline.DetectHazards(regs, pipeline.EPayload{}, pipeline.MPayload{}, pipeline.WPayload{})
	if r.Memory != pipeline.Bubble {
		t.Errorf("Memory op = %v, want Bubble when Writeback carries a terminal status", r.Memory)
	}
}
