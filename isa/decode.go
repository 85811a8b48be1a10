package isa

// ByteReader is the minimal read surface Decode needs from memory. It
// returns ok=false when addr is out of bounds, which Decode surfaces as an
// address error rather than a panic.
type ByteReader interface {
	ReadByte(addr uint64) (byte, bool)
}

// Instruction is the fully decoded form of one fetched instruction: the
// fields Decode can read purely from the opcode byte, the register byte,
// and the 8-byte immediate, before any register-file or forwarding logic
// runs.
type Instruction struct {
	ICode ICode
	IFun  IFun
	RA    uint8 // RNone when absent
	RB    uint8 // RNone when absent
	ValC  uint64
	ValP  uint64 // PC + instruction length
	Len   int

	Invalid    bool // icode not in the table: decodes to INS
	AddrFault  bool // a read needed by decoding fell outside memory
}

// Decode reads and decodes the instruction at pc. It never reads more bytes
// than the instruction's own length requires, and stops at the first
// out-of-bounds byte, reporting AddrFault.
func Decode(mem ByteReader, pc uint64) Instruction {
	opByte, ok := mem.ReadByte(pc)
	if !ok {
		return Instruction{ValP: pc, AddrFault: true}
	}

	icode := ICode(opByte >> 4)
	ifun := IFun(opByte & 0xF)

	length, known := Len(icode)
	if !known {
		return Instruction{ICode: icode, IFun: ifun, RA: RNone, RB: RNone, ValP: pc + 1, Len: 1, Invalid: true}
	}

	inst := Instruction{ICode: icode, IFun: ifun, RA: RNone, RB: RNone, Len: length}
	cursor := pc + 1

	if hasRegByte(icode) {
		regByte, ok := mem.ReadByte(cursor)
		if !ok {
			inst.AddrFault = true
			inst.ValP = cursor
			return inst
		}
		inst.RA = regByte >> 4
		inst.RB = regByte & 0xF
		cursor++
	}

	if hasValC(icode) {
		var v uint64
		for i := 0; i < 8; i++ {
			b, ok := mem.ReadByte(cursor + uint64(i))
			if !ok {
				inst.AddrFault = true
				inst.ValP = cursor + uint64(i)
				return inst
			}
			v |= uint64(b) << (8 * i)
		}
		inst.ValC = v
		cursor += 8
	}

	inst.ValP = pc + uint64(length)
	return inst
}

// IsJumpOrCall reports whether this instruction is CALL or any JXX variant:
// the class that predicts taken at Fetch and forwards Decode.valP as valA
// (spec section 4.2 and section 4.3 priority 1).
func (inst Instruction) IsJumpOrCall() bool {
	return isJumpOrCall(inst.ICode)
}
