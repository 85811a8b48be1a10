// Package emu provides the architectural state shared by the pipeline and
// the sequential oracle: byte-addressable memory and the general-purpose
// register file, plus a non-pipelined reference interpreter.
package emu

import "fmt"

// Memory is a fixed-size, byte-addressable linear store. Word accesses are
// little-endian. Out-of-bounds accesses report an address error instead of
// panicking, so the pipeline can turn them into a Status.ADR instruction
// rather than crashing the simulator.
type Memory struct {
	bytes []byte
}

// NewMemory allocates a zero-filled memory of the given size in bytes.
func NewMemory(size uint64) *Memory {
	return &Memory{bytes: make([]byte, size)}
}

// Size returns the memory's capacity in bytes.
func (m *Memory) Size() uint64 {
	return uint64(len(m.bytes))
}

// ReadByte implements isa.ByteReader.
func (m *Memory) ReadByte(addr uint64) (byte, bool) {
	if addr >= uint64(len(m.bytes)) {
		return 0, false
	}
	return m.bytes[addr], true
}

// WriteByte stores a single byte. ok is false when addr is out of bounds.
func (m *Memory) WriteByte(addr uint64, v byte) bool {
	if addr >= uint64(len(m.bytes)) {
		return false
	}
	m.bytes[addr] = v
	return true
}

// ReadWord reads an 8-byte little-endian word starting at addr. ok is false
// when any of the eight bytes falls outside memory.
func (m *Memory) ReadWord(addr uint64) (uint64, bool) {
	if addr+8 > uint64(len(m.bytes)) {
		return 0, false
	}
	var v uint64
	for i := 0; i < 8; i++ {
		v |= uint64(m.bytes[addr+uint64(i)]) << (8 * i)
	}
	return v, true
}

// WriteWord stores an 8-byte little-endian word starting at addr.
func (m *Memory) WriteWord(addr uint64, v uint64) bool {
	if addr+8 > uint64(len(m.bytes)) {
		return false
	}
	for i := 0; i < 8; i++ {
		m.bytes[addr+uint64(i)] = byte(v >> (8 * i))
	}
	return true
}

// LoadImage copies data into memory starting at addr, returning an error if
// the image does not fit.
func (m *Memory) LoadImage(addr uint64, data []byte) error {
	if addr+uint64(len(data)) > uint64(len(m.bytes)) {
		return fmt.Errorf("image of %d bytes at %#x exceeds memory size %d", len(data), addr, len(m.bytes))
	}
	copy(m.bytes[addr:], data)
	return nil
}

// Snapshot returns a copy of the full memory contents.
func (m *Memory) Snapshot() []byte {
	out := make([]byte, len(m.bytes))
	copy(out, m.bytes)
	return out
}
