// Command csim replays a memory-access trace against a configurable
// set-associative write-back cache and reports hit/miss/eviction counters.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/kestrelsim/y86pipe/timing/cache"
)

func main() {
	s := flag.Uint("s", 0, "number of set-index bits")
	e := flag.Uint("E", 0, "associativity (lines per set)")
	b := flag.Uint("b", 0, "number of block-offset bits")
	tracePath := flag.String("t", "", "trace file path")
	verbose := flag.Bool("v", false, "print per-access hit/miss/eviction detail")
	flag.Parse()

	if *tracePath == "" {
		fmt.Fprintln(os.Stderr, "usage: csim -s S -E E -b B -t TRACEFILE [-v]")
		os.Exit(2)
	}

	if err := run(*s, *e, *b, *tracePath, *verbose); err != nil {
		fmt.Fprintln(os.Stderr, "csim:", err)
		os.Exit(1)
	}
}

func run(s, e, b uint, tracePath string, verbose bool) error {
	if e == 0 || s+b >= 64 {
		return fmt.Errorf("cache geometry out of range: s=%d E=%d b=%d", s, e, b)
	}

	f, err := os.Open(tracePath)
	if err != nil {
		return fmt.Errorf("opening trace file: %w", err)
	}
	defer f.Close()

	accesses, err := cache.ScanTrace(f)
	if err != nil {
		return fmt.Errorf("reading trace: %w", err)
	}

	c := cache.New(s, e, b)

	if verbose {
		for _, a := range accesses {
			before := c.Stats()
			cache.Replay(c, []cache.Access{a})
			after := c.Stats()
			outcome := "miss"
			if after.Hits > before.Hits {
				outcome = "hit"
			}
			if after.CleanEvictions+after.DirtyEvictions > before.CleanEvictions+before.DirtyEvictions {
				outcome += " eviction"
			}
			fmt.Printf("%c %#x,%d %s\n", a.Op, a.Addr, a.Size, outcome)
		}
	} else {
		cache.Replay(c, accesses)
	}

	stats := c.Stats()
	evictions := stats.CleanEvictions + stats.DirtyEvictions
	fmt.Printf("hits:%d misses:%d evictions:%d dirty_bytes_in_cache:%d dirty_bytes_evicted:%d\n",
		stats.Hits, stats.Misses, evictions, c.DirtyBytesInCache(), stats.DirtyBytesEvicted)
	return nil
}
