// Command brainbug is the CLI entry point: "interp" runs a program
// through the profiling interpreter, "compile" runs the full pipeline
// (lex -> optional partial-eval -> loop rewriter -> code emitter ->
// linker).
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/Urethramancer/brainbug/codegen/asm"
	"github.com/Urethramancer/brainbug/codegen/ir"
	"github.com/Urethramancer/brainbug/interp"
	"github.com/Urethramancer/brainbug/jumptable"
	"github.com/Urethramancer/brainbug/lexer"
	"github.com/Urethramancer/brainbug/link"
	"github.com/Urethramancer/brainbug/partial"
	"github.com/Urethramancer/brainbug/rewrite"
)

func main() {
	log.SetFlags(0)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "interp":
		err = runInterp(os.Args[2:])
	case "compile":
		err = runCompile(os.Args[2:])
	default:
		usage()
		os.Exit(1)
	}

	if err != nil {
		log.Println(err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: brainbug interp <path> [-p] [-t]")
	fmt.Fprintln(os.Stderr, "       brainbug compile <path> [-r] [-S] [-no-loop-simplify] [-no-scan-vectorize] [-partial-eval] [-t]")
}

func runInterp(args []string) error {
	fs := flag.NewFlagSet("interp", flag.ExitOnError)
	profile := fs.Bool("p", false, "dump per-pc execution counts and classified loop tables")
	timing := fs.Bool("t", false, "print wall-clock execution time")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		usage()
		os.Exit(1)
	}

	src, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("read source: %w", err)
	}

	p := lexer.Lex(string(src))
	jt, err := jumptable.Build(p)
	if err != nil {
		return fmt.Errorf("build jump table: %w", err)
	}

	it := interp.New(p, jt, os.Stdin, os.Stdout)

	start := time.Now()
	runErr := it.Run()
	elapsed := time.Since(start)

	if *profile {
		interp.PrintProfile(os.Stderr, p, it.Counters)
	}
	if *timing {
		fmt.Fprintf(os.Stderr, "elapsed: %s\n", elapsed)
	}
	if runErr != nil {
		return fmt.Errorf("interp: %w", runErr)
	}
	return nil
}

func runCompile(args []string) error {
	fs := flag.NewFlagSet("compile", flag.ExitOnError)
	run := fs.Bool("r", false, "run the produced executable")
	stopAtAsm := fs.Bool("S", false, "stop after writing assembly")
	noLoopSimplify := fs.Bool("no-loop-simplify", false, "disable the counted-loop rewrite pass")
	noScanVectorize := fs.Bool("no-scan-vectorize", false, "disable the scan-vectorize rewrite pass")
	partialEval := fs.Bool("partial-eval", false, "run the partial evaluator before rewriting")
	timing := fs.Bool("t", false, "print wall-clock compile time")
	useIR := fs.Bool("ir", false, "emit the SSA-IR dialect instead of assembly (disables scan-vectorize)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		usage()
		os.Exit(1)
	}

	start := time.Now()

	src, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("read source: %w", err)
	}

	p := lexer.Lex(string(src))
	jt, err := jumptable.Build(p)
	if err != nil {
		return fmt.Errorf("build jump table: %w", err)
	}

	if *partialEval {
		p, err = partial.Evaluate(p, jt)
		if err != nil {
			return fmt.Errorf("partial eval: %w", err)
		}
	}

	if !*noLoopSimplify {
		p = rewrite.CountedLoops(p)
	}
	if !*noScanVectorize && !*useIR {
		p = rewrite.Scans(p)
	}

	var text string
	if *useIR {
		text, err = ir.NewGenerator(p).Generate()
		if err != nil {
			return fmt.Errorf("ir codegen: %w", err)
		}
		// The IR dialect has no lowering into the C toolchain's input:
		// -ir always stops after emission regardless of -S.
		*stopAtAsm = true
	} else {
		text = asm.NewGenerator(p).Generate()
	}

	if *stopAtAsm {
		if *timing {
			fmt.Fprintf(os.Stderr, "elapsed: %s\n", time.Since(start))
		}
		_, err := fmt.Println(text)
		return err
	}

	driver, err := link.NewDriver()
	if err != nil {
		return fmt.Errorf("compile: %w", err)
	}
	defer driver.Close()

	exePath, err := driver.Compile(text, "brainbug_out")
	if err != nil {
		return fmt.Errorf("compile: %w", err)
	}

	if *timing {
		fmt.Fprintf(os.Stderr, "elapsed: %s\n", time.Since(start))
	}

	if *run {
		if err := driver.Run(os.Stdin, os.Stdout); err != nil {
			return fmt.Errorf("run: %w", err)
		}
		return nil
	}

	outName := "a.out"
	if err := copyFile(exePath, outName); err != nil {
		return fmt.Errorf("copy executable: %w", err)
	}
	return nil
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o755)
}
