// Command psim runs the five-stage pipeline simulator against a .yo object
// file, either to completion or as an interactive debugger.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"

	"github.com/kestrelsim/y86pipe/emu"
	"github.com/kestrelsim/y86pipe/loader"
	"github.com/kestrelsim/y86pipe/shell"
	"github.com/kestrelsim/y86pipe/timing/pipeline"
)

const memSize = 1 << 20 // 1 MiB of simulated address space

func main() {
	interactive := flag.Bool("i", false, "run the interactive debugger")
	budget := flag.Uint64("l", 0, "instruction budget (0 = unbounded)")
	verbosity := flag.Int("v", 0, "verbosity 0..2")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: psim [-i] [-l N] [-v V] file.yo")
		os.Exit(2)
	}

	if err := run(flag.Arg(0), *interactive, *budget, *verbosity); err != nil {
		fmt.Fprintln(os.Stderr, "psim:", err)
		os.Exit(1)
	}
}

func run(path string, interactive bool, budget uint64, verbosity int) error {
	prog, err := loader.Load(path)
	if err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}

	pipeMem := emu.NewMemory(memSize)
	if err := pipeMem.LoadImage(prog.BaseAddr, prog.Image); err != nil {
		return fmt.Errorf("installing program image: %w", err)
	}
	oracleMem := emu.NewMemory(memSize)
	if err := oracleMem.LoadImage(prog.BaseAddr, prog.Image); err != nil {
		return fmt.Errorf("installing program image: %w", err)
	}

	var opts []pipeline.Option
	if budget > 0 {
		opts = append(opts, pipeline.WithMaxInstructions(budget))
	}
	p := pipeline.New(pipeMem, prog.EntryPoint, opts...)

	var oracleOpts []emu.OracleOption
	if budget > 0 {
		oracleOpts = append(oracleOpts, emu.WithMaxInstructions(budget))
	}
	oracle := emu.NewOracle(oracleMem, oracleOpts...)
	oracle.PC = prog.EntryPoint

	sh := shell.New(p, oracle)

	if interactive {
		return runInteractive(sh)
	}

	sh.Run()
	stats := p.Stats()

	fmt.Printf("status=%s cycles=%d instructions=%d cc=%+v\n", stats.Status, stats.Cycles, stats.Instructions, p.CC())
	if verbosity > 0 {
		for _, d := range sh.RegisterDiff() {
			fmt.Println("register diff:", d)
		}
	}
	if verbosity > 1 {
		for _, d := range sh.MemoryDiff() {
			fmt.Println("memory diff:", d)
		}
	}
	return nil
}

func runInteractive(sh *shell.Shell) error {
	fmt.Print(shell.Help)
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("(psim) ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		out, quit, err := sh.Execute(scanner.Text())
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			continue
		}
		if out != "" {
			fmt.Println(out)
		}
		if quit {
			return nil
		}
	}
}
