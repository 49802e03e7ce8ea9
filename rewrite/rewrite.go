// Package rewrite implements the two loop-rewriter passes: counted
// copy/scale loops become straight-line Add/Sub/Zero, and pure
// head-motion loops become a single Scan opcode. Both passes preserve
// program length, replacing consumed slots with Nop.
package rewrite

import (
	"sort"

	"github.com/Urethramancer/brainbug/token"
)

// CountedLoops replaces every flat (non-nested) loop whose body has no
// I/O, returns the head to its starting offset, and changes the
// loop-index cell (offset 0) by exactly +1 or -1 per iteration, with
// per-offset Add/Sub instructions followed by a Zero. Nested loops are
// never rewritten: any jump opcode seen while already tracking a loop
// disqualifies it, mirroring the single-level in-loop flag this pass
// is defined over.
func CountedLoops(p token.Program) token.Program {
	out := p.Clone()

	var inLoop bool
	var start int
	var headDelta int32
	deltas := map[int32]int32{}

	for pc := 0; pc < len(out); pc++ {
		inst := out[pc]
		switch inst.Kind {
		case token.JumpIfZero:
			if inLoop {
				inLoop = false
			} else {
				inLoop = true
				start = pc
				headDelta = 0
				deltas = map[int32]int32{}
			}
		case token.JumpUnlessZero:
			if inLoop {
				if v0, ok := deltas[0]; ok && headDelta == 0 && (v0 == 1 || v0 == -1) {
					commitCountedLoop(out, start, pc, deltas)
				}
			}
			inLoop = false
		case token.Read, token.Write:
			inLoop = false
		case token.MoveRight:
			if inLoop {
				headDelta++
			}
		case token.MoveLeft:
			if inLoop {
				headDelta--
			}
		case token.Inc:
			if inLoop {
				deltas[headDelta]++
			}
		case token.Dec:
			if inLoop {
				deltas[headDelta]--
			}
		}
	}
	return out
}

// commitCountedLoop overwrites out[start..end] (inclusive) with the
// straight-line replacement. v0 := deltas[0] decides the sign
// convention: when the loop index decrements (v0 == -1), a positive
// body delta becomes Add and a negative one becomes Sub; when the
// index increments (v0 == +1), the signs invert.
func commitCountedLoop(out token.Program, start, end int, deltas map[int32]int32) {
	v0 := deltas[0]
	addForPositive := v0 == -1

	var offsets []int32
	for d, v := range deltas {
		if d != 0 && v != 0 {
			offsets = append(offsets, d)
		}
	}
	sort.Slice(offsets, func(i, j int) bool { return offsets[i] < offsets[j] })

	idx := start
	for _, d := range offsets {
		v := deltas[d]
		positive := v > 0
		kind := token.Sub
		if positive == addForPositive {
			kind = token.Add
		}
		n := int(v)
		if n < 0 {
			n = -n
		}
		for i := 0; i < n; i++ {
			out[idx] = token.Inst{Kind: kind, Arg: d}
			idx++
		}
	}
	out[idx] = token.Inst{Kind: token.Zero}
	idx++
	for ; idx <= end; idx++ {
		out[idx] = token.Inst{Kind: token.Nop}
	}
}

// Scans replaces every flat loop whose body contains nothing but
// MoveLeft/MoveRight (net displacement != 0) with a single Scan
// opcode carrying that net displacement as its step.
func Scans(p token.Program) token.Program {
	out := p.Clone()

	var inLoop bool
	var start int
	var headDelta int32
	var pureMotion bool

	for pc := 0; pc < len(out); pc++ {
		inst := out[pc]
		switch inst.Kind {
		case token.JumpIfZero:
			if inLoop {
				inLoop = false
			} else {
				inLoop = true
				start = pc
				headDelta = 0
				pureMotion = true
			}
		case token.JumpUnlessZero:
			if inLoop && pureMotion && headDelta != 0 {
				for i := start; i <= pc; i++ {
					out[i] = token.Inst{Kind: token.Nop}
				}
				out[start] = token.Inst{Kind: token.Scan, Arg: headDelta}
			}
			inLoop = false
		case token.MoveRight:
			if inLoop {
				headDelta++
			}
		case token.MoveLeft:
			if inLoop {
				headDelta--
			}
		default:
			if inLoop {
				pureMotion = false
			}
		}
	}
	return out
}
