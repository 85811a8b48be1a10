package emu

import "github.com/kestrelsim/y86pipe/isa"

// RegFile is the architectural register file: 15 general-purpose slots
// addressed 0..14, plus the isa.RNone sentinel which always reads 0 and
// discards writes.
type RegFile struct {
	regs [isa.NumRegs]uint64
}

// Get reads register r. Reading isa.RNone (or any id outside the file)
// returns 0, matching "writes to NONE are no-ops" for the symmetric read
// case used by the forwarding network's priority-7 fallback.
func (f *RegFile) Get(r uint8) uint64 {
	if r >= isa.NumRegs {
		return 0
	}
	return f.regs[r]
}

// Set writes value to register r. Writing isa.RNone (or any id outside the
// file) is a no-op, per spec section 3's dstE/dstM invariant.
func (f *RegFile) Set(r uint8, value uint64) {
	if r >= isa.NumRegs {
		return
	}
	f.regs[r] = value
}

// Snapshot returns a copy of all 15 registers.
func (f *RegFile) Snapshot() [isa.NumRegs]uint64 {
	return f.regs
}

// Restore overwrites the register file from a prior snapshot.
func (f *RegFile) Restore(snap [isa.NumRegs]uint64) {
	f.regs = snap
}
