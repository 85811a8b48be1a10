package emu

import (
	"testing"

	"github.com/kestrelsim/y86pipe/isa"
)

// reg ids, matching isa.RegNames order.
const (
	rax = 0
	rbx = 3
	rsp = 4
)

func irmovq(dst uint8, val uint64) []byte {
	out := []byte{0x30, 0xF0 | dst}
	for i := 0; i < 8; i++ {
		out = append(out, byte(val>>(8*i)))
	}
	return out
}

func opq(fun isa.IFun, ra, rb uint8) []byte {
	return []byte{0x60 | byte(fun), ra<<4 | rb}
}

func halt() []byte { return []byte{0x00} }

func assemble(chunks ...[]byte) []byte {
	var out []byte
	for _, c := range chunks {
		out = append(out, c...)
	}
	return out
}

// S1: irmovq $3,%rax; irmovq $4,%rbx; addq %rax,%rbx; halt
func TestOracleScenarioS1(t *testing.T) {
	prog := assemble(irmovq(rax, 3), irmovq(rbx, 4), opq(isa.ALUAdd, rax, rbx), halt())
	mem := NewMemory(1024)
	if err := mem.LoadImage(0, prog); err != nil {
		t.Fatal(err)
	}

	o := NewOracle(mem)
	status := o.Run()

	if status != isa.HLT {
		t.Fatalf("status = %v, want HLT", status)
	}
	if got := o.Regs.Get(rbx); got != 7 {
		t.Errorf("%%rbx = %d, want 7", got)
	}
	if o.CC.ZF || o.CC.SF || o.CC.OF {
		t.Errorf("unexpected flags after 3+4: %+v", o.CC)
	}
	if o.InstructionCount() != 4 {
		t.Errorf("instructions = %d, want 4", o.InstructionCount())
	}
}

// S3: mrmovq 0(%rsp),%rax; addq %rax,%rbx; halt
func TestOracleScenarioS3LoadUse(t *testing.T) {
	mem := NewMemory(1024)
	mem.WriteWord(0x100, 99)

	mrmovq := []byte{0x50, 0x4F} // ra=%rsp... actually encode "mrmovq D(rB),rA": rA=rax, rB=rsp
	mrmovq[1] = rax<<4 | rsp
	var valC [8]byte
	mrmovqFull := append(append([]byte{}, mrmovq...), valC[:]...)

	prog := assemble(mrmovqFull, opq(isa.ALUAdd, rax, rbx), halt())
	if err := mem.LoadImage(0, prog); err != nil {
		t.Fatal(err)
	}
	o := NewOracle(mem, WithStackPointer(0x100))

	status := o.Run()
	if status != isa.HLT {
		t.Fatalf("status = %v, want HLT", status)
	}
	if got := o.Regs.Get(rbx); got != 99 {
		t.Errorf("%%rbx = %d, want 99", got)
	}
}

// S4: call f; halt; f: irmovq $9,%rax; ret
func TestOracleScenarioS4Ret(t *testing.T) {
	// Layout: [0] call f (9 bytes) -> f at offset 10
	//         [9] halt (1 byte)
	//         [10] irmovq $9,%rax (10 bytes)
	//         [20] ret (1 byte)
	call := append([]byte{0x80}, make([]byte, 8)...)
	target := uint64(10)
	for i := 0; i < 8; i++ {
		call[1+i] = byte(target >> (8 * i))
	}
	prog := assemble(call, halt(), irmovq(rax, 9), []byte{0x90})

	mem := NewMemory(1024)
	if err := mem.LoadImage(0, prog); err != nil {
		t.Fatal(err)
	}
	o := NewOracle(mem, WithStackPointer(0x200))

	status := o.Run()
	if status != isa.HLT {
		t.Fatalf("status = %v, want HLT", status)
	}
	if got := o.Regs.Get(rax); got != 9 {
		t.Errorf("%%rax = %d, want 9", got)
	}
}

func TestOracleAddressError(t *testing.T) {
	mem := NewMemory(32)
	prog := irmovq(rax, 0)
	mem.LoadImage(0, prog)
	// Follow with an mrmovq that reads far out of bounds.
	oobRead := []byte{0x50, 0x0F}
	oobRead = append(oobRead, make([]byte, 8)...)
	big := uint64(1 << 40)
	for i := 0; i < 8; i++ {
		oobRead[2+i] = byte(big >> (8 * i))
	}
	mem.LoadImage(uint64(len(prog)), oobRead)

	o := NewOracle(mem)
	status := o.Run()
	if status != isa.ADR {
		t.Fatalf("status = %v, want ADR", status)
	}
}

func TestOracleInvalidOpcode(t *testing.T) {
	mem := NewMemory(16)
	mem.WriteByte(0, 0xE0)
	o := NewOracle(mem)
	status := o.Run()
	if status != isa.INS {
		t.Fatalf("status = %v, want INS", status)
	}
}
