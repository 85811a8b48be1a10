package pipeline_test

import "github.com/kestrelsim/y86pipe/isa"

// Register ids in isa.RegNames order.
const (
	rax uint8 = 0
	rbx uint8 = 3
	rsp uint8 = 4
)

func le64(v uint64) []byte {
	b := make([]byte, 8)
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
	return b
}

func halt() []byte { return []byte{0x00} }

func irmovq(dst uint8, val uint64) []byte {
	return append([]byte{byte(isa.IRMOVQ) << 4, isa.RNone<<4 | dst}, le64(val)...)
}

func opq(fun isa.IFun, ra, rb uint8) []byte {
	return []byte{byte(isa.OPQ)<<4 | byte(fun), ra<<4 | rb}
}

func jxx(fun isa.IFun, target uint64) []byte {
	return append([]byte{byte(isa.JXX)<<4 | byte(fun)}, le64(target)...)
}

func call(target uint64) []byte {
	return append([]byte{byte(isa.CALL) << 4}, le64(target)...)
}

func ret() []byte { return []byte{byte(isa.RET) << 4} }

func mrmovq(ra, rb uint8, disp uint64) []byte {
	return append([]byte{byte(isa.MRMOVQ) << 4, ra<<4 | rb}, le64(disp)...)
}

func assemble(chunks ...[]byte) []byte {
	var out []byte
	for _, c := range chunks {
		out = append(out, c...)
	}
	return out
}
