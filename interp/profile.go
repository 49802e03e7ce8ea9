package interp

import (
	"fmt"
	"io"
	"sort"

	"github.com/Urethramancer/brainbug/token"
)

// LoopExecution records one [ ... ] loop's starting pc, how many
// times its body executed (sampled from the first instruction inside
// the body; 0 if the loop never ran), and the instructions in the
// body (including the brackets), for dump purposes.
type LoopExecution struct {
	PC               int
	NumTimesExecuted int
	Insts            token.Program
}

// ClassifyLoops walks p once, accumulating headDelta, idxDelta (the
// net change to the loop-index cell, i.e. the cell under the head on
// loop entry, while headDelta is zero) and hasIO over the body of
// "the current loop" — a single slot, not a stack. A nested '[' resets
// that slot, so an outer loop's tracking object is silently discarded
// the moment an inner loop opens; only the innermost loop of any nest
// is ever classified. This single-slot behavior is kept as-is rather
// than generalized to track full nesting: it is load-bearing for the
// profiling dump format below.
func ClassifyLoops(p token.Program, counters []int) (simpleLoops, complexLoops []LoopExecution) {
	var curr *LoopExecution
	var hasIO bool
	var headDelta, idxDelta int32

	for pc, inst := range p {
		if curr != nil {
			curr.Insts = append(curr.Insts, inst)
		}

		switch inst.Kind {
		case token.MoveRight:
			headDelta++
		case token.MoveLeft:
			headDelta--
		case token.Write, token.Read:
			hasIO = true
		case token.Inc:
			if headDelta == 0 {
				idxDelta++
			}
		case token.Dec:
			if headDelta == 0 {
				idxDelta--
			}
		}

		switch inst.Kind {
		case token.JumpIfZero:
			curr = &LoopExecution{PC: pc, Insts: token.Program{inst}}
			hasIO = false
			headDelta = 0
			idxDelta = 0
		case token.JumpUnlessZero:
			closed := curr
			curr = nil
			if closed == nil {
				continue
			}
			indexChangedByOne := idxDelta == 1 || idxDelta == -1
			if !hasIO && headDelta == 0 && indexChangedByOne {
				simpleLoops = append(simpleLoops, *closed)
			} else {
				complexLoops = append(complexLoops, *closed)
			}
		default:
			if curr != nil && curr.NumTimesExecuted == 0 {
				curr.NumTimesExecuted = counters[pc]
			}
		}
	}

	sort.SliceStable(simpleLoops, func(i, j int) bool {
		return simpleLoops[i].NumTimesExecuted > simpleLoops[j].NumTimesExecuted
	})
	sort.SliceStable(complexLoops, func(i, j int) bool {
		return complexLoops[i].NumTimesExecuted > complexLoops[j].NumTimesExecuted
	})

	return simpleLoops, complexLoops
}

// PrintProfile writes the PC/op/execution-count table followed by the
// simple- and complex-loop tables produced by ClassifyLoops.
func PrintProfile(w io.Writer, p token.Program, counters []int) {
	fmt.Fprintln(w, "PC\tOP\t# EXECUTED")
	for pc, inst := range p {
		fmt.Fprintf(w, "%d\t%s\t%d\n", pc, inst, counters[pc])
	}

	simpleLoops, complexLoops := ClassifyLoops(p, counters)

	fmt.Fprintln(w, "\nSIMPLE LOOPS")
	fmt.Fprintln(w, "PC\t# EXECUTED\tINSTS")
	for _, l := range simpleLoops {
		fmt.Fprintf(w, "%d\t%d\t", l.PC, l.NumTimesExecuted)
		for _, i := range l.Insts {
			fmt.Fprint(w, i)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "\nCOMPLEX LOOPS")
	fmt.Fprintln(w, "PC\t# EXECUTED\tINSTS")
	for _, l := range complexLoops {
		fmt.Fprintf(w, "%d\t%d\t", l.PC, l.NumTimesExecuted)
		for _, i := range l.Insts {
			fmt.Fprint(w, i)
		}
		fmt.Fprintln(w)
	}
}
