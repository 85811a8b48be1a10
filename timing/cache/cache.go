// Package cache implements a configurable set-associative, write-back,
// write-allocate cache simulator driven by a stream of address accesses.
package cache

// Line is one cache line: a tag, a validity and dirty bit, an LRU
// timestamp, and a fixed-size data block.
type Line struct {
	Valid bool
	Dirty bool
	Tag   uint64
	LRU   uint64
	Data  []byte
}

// Set is one associativity-way group of lines sharing a set index.
type Set struct {
	Lines []Line
}

// EvictedLine is the record surfaced when an access evicts a valid line:
// its reconstructed address (tag and set index, offset bits zeroed), its
// prior validity and dirty bit, and its full data block.
type EvictedLine struct {
	Addr     uint64
	WasValid bool
	WasDirty bool
	Data     []byte
}

// Stats accumulates the accounting counters spec section 4.8 and the CLI
// output require.
type Stats struct {
	Hits              uint64
	Misses            uint64
	DirtyEvictions    uint64
	CleanEvictions    uint64
	DirtyBytesEvicted uint64
}

// Cache is a configurable set-associative write-back cache: s set-index
// bits, E lines per set, b block-offset bits.
type Cache struct {
	s, e, b uint
	sets    []Set

	lruCounter uint64
	stats      Stats
}

// New creates an empty cache with 2^s sets, e lines per set, and 2^b-byte
// blocks.
func New(s, e, b uint) *Cache {
	numSets := uint64(1) << s
	blockSize := int(uint64(1) << b)

	sets := make([]Set, numSets)
	for i := range sets {
		lines := make([]Line, e)
		for j := range lines {
			lines[j].Data = make([]byte, blockSize)
		}
		sets[i] = Set{Lines: lines}
	}

	return &Cache{s: s, e: e, b: b, sets: sets}
}

// BlockSize returns the number of bytes per line, 2^b.
func (c *Cache) BlockSize() int {
	return int(uint64(1) << c.b)
}

// Stats returns a copy of the cache's current accounting counters.
func (c *Cache) Stats() Stats {
	return c.stats
}

// DirtyBytesInCache sums the block size of every currently valid, dirty
// line across every set: the live (non-cumulative) companion to
// DirtyBytesEvicted.
func (c *Cache) DirtyBytesInCache() uint64 {
	var total uint64
	blockSize := uint64(c.BlockSize())
	for _, set := range c.sets {
		for _, line := range set.Lines {
			if line.Valid && line.Dirty {
				total += blockSize
			}
		}
	}
	return total
}

// decompose splits addr into its offset, set index, and tag per spec
// section 4.8.
func (c *Cache) decompose(addr uint64) (offset int, setIndex uint64, tag uint64) {
	offset = int(addr & (uint64(1)<<c.b - 1))
	setIndex = (addr >> c.b) & (uint64(1)<<c.s - 1)
	tag = addr >> (c.s + c.b)
	return offset, setIndex, tag
}

// lookup performs a linear scan of the addressed set for a valid line
// whose tag matches. On hit it bumps the line's LRU timestamp and advances
// the monotonic counter.
func (c *Cache) lookup(setIndex, tag uint64) *Line {
	set := &c.sets[setIndex]
	for i := range set.Lines {
		line := &set.Lines[i]
		if line.Valid && line.Tag == tag {
			c.lruCounter++
			line.LRU = c.lruCounter
			return line
		}
	}
	return nil
}

// selectVictim picks the line a miss should evict: the lowest-index
// invalid line if one exists, else the valid line with the smallest LRU
// timestamp.
func selectVictim(set *Set) int {
	for i := range set.Lines {
		if !set.Lines[i].Valid {
			return i
		}
	}
	victim := 0
	best := set.Lines[0].LRU
	for i := 1; i < len(set.Lines); i++ {
		if set.Lines[i].LRU < best {
			best = set.Lines[i].LRU
			victim = i
		}
	}
	return victim
}

// reconstructAddr rebuilds a line's base address from its tag and the set
// index it lives in, with offset bits zeroed.
func (c *Cache) reconstructAddr(tag, setIndex uint64) uint64 {
	return (tag << (c.s + c.b)) | (setIndex << c.b)
}

// access performs one byte-granularity cache access at addr: isWrite marks
// a store. It returns the line now resident for addr (always non-nil) and,
// on a miss that evicted a valid line, the evicted line's record.
func (c *Cache) access(addr uint64, isWrite bool) (*Line, *EvictedLine) {
	_, setIndex, tag := c.decompose(addr)

	if line := c.lookup(setIndex, tag); line != nil {
		c.stats.Hits++
		if isWrite {
			line.Dirty = true
		}
		return line, nil
	}

	c.stats.Misses++

	set := &c.sets[setIndex]
	victimIdx := selectVictim(set)
	victim := &set.Lines[victimIdx]

	var evicted *EvictedLine
	if victim.Valid {
		if victim.Dirty {
			c.stats.DirtyEvictions++
			c.stats.DirtyBytesEvicted += uint64(c.BlockSize())
		} else {
			c.stats.CleanEvictions++
		}
		evicted = &EvictedLine{
			Addr:     c.reconstructAddr(victim.Tag, setIndex),
			WasValid: victim.Valid,
			WasDirty: victim.Dirty,
			Data:     append([]byte(nil), victim.Data...),
		}
	}

	c.lruCounter++
	*victim = Line{
		Valid: true,
		Dirty: isWrite,
		Tag:   tag,
		LRU:   c.lruCounter,
		Data:  make([]byte, c.BlockSize()),
	}

	return victim, evicted
}

// ReadByte reads one byte at addr, reporting any line the access evicted.
func (c *Cache) ReadByte(addr uint64) (value byte, evicted *EvictedLine) {
	offset, _, _ := c.decompose(addr)
	line, ev := c.access(addr, false)
	return line.Data[offset], ev
}

// WriteByte writes one byte at addr, marking the resident line dirty, and
// reports any line the access evicted.
func (c *Cache) WriteByte(addr uint64, v byte) (evicted *EvictedLine) {
	offset, _, _ := c.decompose(addr)
	line, ev := c.access(addr, true)
	line.Data[offset] = v
	return ev
}

// ReadWord reads an 8-byte little-endian word starting at addr as eight
// independent byte accesses, so a line-crossing word can trigger two
// separate lookups (spec section 4.8, "word accesses via eight byte
// accesses").
func (c *Cache) ReadWord(addr uint64) (value uint64, evicted []EvictedLine) {
	for i := 0; i < 8; i++ {
		b, ev := c.ReadByte(addr + uint64(i))
		value |= uint64(b) << (8 * i)
		if ev != nil {
			evicted = append(evicted, *ev)
		}
	}
	return value, evicted
}

// WriteWord writes an 8-byte little-endian word starting at addr as eight
// independent byte accesses.
func (c *Cache) WriteWord(addr uint64, value uint64) (evicted []EvictedLine) {
	for i := 0; i < 8; i++ {
		b := byte(value >> (8 * i))
		if ev := c.WriteByte(addr+uint64(i), b); ev != nil {
			evicted = append(evicted, *ev)
		}
	}
	return evicted
}

// Checkpoint produces a deep copy of the entire cache — sets, lines, and
// data blocks — for snapshot-style tests.
func (c *Cache) Checkpoint() *Cache {
	cp := &Cache{s: c.s, e: c.e, b: c.b, lruCounter: c.lruCounter, stats: c.stats}
	cp.sets = make([]Set, len(c.sets))
	for i, set := range c.sets {
		lines := make([]Line, len(set.Lines))
		for j, line := range set.Lines {
			lines[j] = line
			lines[j].Data = append([]byte(nil), line.Data...)
		}
		cp.sets[i] = Set{Lines: lines}
	}
	return cp
}
