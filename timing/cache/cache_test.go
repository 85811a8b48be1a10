package cache_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kestrelsim/y86pipe/timing/cache"
)

var _ = Describe("Cache", func() {
	var c *cache.Cache

	Describe("address decomposition and LRU eviction", func() {
		BeforeEach(func() {
			c = cache.New(1, 2, 2) // s=1, E=2, b=2
		})

		It("misses three times and clean-evicts the oldest line", func() {
			c.ReadByte(0)
			c.ReadByte(16)
			_, evicted := c.ReadByte(32)

			stats := c.Stats()
			Expect(stats.Hits).To(BeZero())
			Expect(stats.Misses).To(Equal(uint64(3)))
			Expect(stats.CleanEvictions).To(Equal(uint64(1)))
			Expect(stats.DirtyEvictions).To(BeZero())
			Expect(evicted).NotTo(BeNil())
			Expect(evicted.Addr).To(Equal(uint64(0)))
			Expect(evicted.WasDirty).To(BeFalse())
		})
	})

	Describe("direct-mapped write-back thrashing", func() {
		BeforeEach(func() {
			c = cache.New(1, 1, 2) // s=1, E=1, b=2
		})

		It("evicts one dirty and one clean line across three misses", func() {
			c.WriteByte(0, 0xFF)
			c.ReadByte(16)
			c.WriteByte(0, 0xAB)

			stats := c.Stats()
			Expect(stats.Hits).To(BeZero())
			Expect(stats.Misses).To(Equal(uint64(3)))
			Expect(stats.DirtyEvictions + stats.CleanEvictions).To(Equal(uint64(2)))
			Expect(stats.DirtyEvictions).To(Equal(uint64(1)))
			Expect(stats.CleanEvictions).To(Equal(uint64(1)))
		})
	})

	Describe("idempotent reads", func() {
		BeforeEach(func() {
			c = cache.New(2, 2, 3)
		})

		It("returns the same data and counts exactly one hit on the second read", func() {
			c.WriteByte(40, 0x7A)
			first, _ := c.ReadByte(40)
			statsBefore := c.Stats()

			second, evicted := c.ReadByte(40)
			statsAfter := c.Stats()

			Expect(second).To(Equal(first))
			Expect(evicted).To(BeNil())
			Expect(statsAfter.Hits).To(Equal(statsBefore.Hits + 1))
			Expect(statsAfter.Misses).To(Equal(statsBefore.Misses))
		})
	})

	Describe("word accesses crossing a line boundary", func() {
		BeforeEach(func() {
			c = cache.New(2, 2, 2) // 4-byte lines
		})

		It("performs eight independent byte accesses, some in a different line", func() {
			c.WriteWord(2, 0x0102030405060708)
			stats := c.Stats()
			// bytes at offsets 2,3 land in one line, 4..9 progress into
			// further lines: at least two distinct lines are touched.
			Expect(stats.Misses).To(BeNumerically(">=", 2))

			got, evicted := c.ReadWord(2)
			Expect(got).To(Equal(uint64(0x0102030405060708)))
			Expect(evicted).To(BeEmpty())
		})
	})

	Describe("Checkpoint", func() {
		It("produces an independent deep copy", func() {
			c = cache.New(1, 1, 2)
			c.WriteByte(0, 0x11)

			snap := c.Checkpoint()
			c.WriteByte(1, 0x22)

			snapVal, _ := snap.ReadByte(1)
			Expect(snapVal).To(Equal(byte(0)))
		})
	})
})
