// Package partial implements the partial-evaluation pass: a second
// interpreter that walks a lexed program over a symbolic tape of
// Unknown|Val(byte) cells, specializing every operation whose operand
// is concrete into symbolic tape updates (a Write of a concrete cell
// becomes a literal Output instruction), and falling back to
// emitting the primitive (after syncing the runtime head) the moment
// an operand is Unknown. It produces a residual token.Program, never
// bytes of output.
package partial

import (
	"github.com/Urethramancer/brainbug/jumptable"
	"github.com/Urethramancer/brainbug/token"
)

// snapshot captures evaluator state at the moment nesting depth goes
// 0->1 (entering an outermost loop), so an abort anywhere inside that
// loop — at any nesting depth — can restore to "as if the outermost
// loop had never been entered".
type snapshot struct {
	tape    *symTape
	pc      int
	outHead int32
	bufLen  int
}

// Evaluator runs the partial-evaluation pass over a single program.
type Evaluator struct {
	prog token.Program
	jt   jumptable.Table

	tape *symTape
	pc   int

	outHead int32
	buf     token.Program

	nestDepth  int
	enterStack []bool
	snap       *snapshot
}

// Evaluate specializes p into a residual program: known-value
// operations update the symbolic tape without emitting anything (a
// Write of a known cell emits a literal Output), encountering an
// Unknown operand emits a head sync followed by the primitive, and a
// branch on an Unknown cell aborts evaluation, rolling back to the
// outermost enclosing loop's entry when one is live, and appending
// the remainder of p verbatim from there.
func Evaluate(p token.Program, jt jumptable.Table) (token.Program, error) {
	e := &Evaluator{prog: p, jt: jt, tape: newSymTape()}
	return e.run(), nil
}

func (e *Evaluator) run() token.Program {
	for e.pc < len(e.prog) {
		if e.step() {
			e.restoreFromSnapshot()
			break
		}
	}
	e.finalize()
	return e.buf
}

// step executes one instruction and reports whether evaluation must
// abort (an Unknown cell reached a branch condition).
func (e *Evaluator) step() (abort bool) {
	inst := e.prog[e.pc]
	switch inst.Kind {
	case token.MoveRight:
		e.tape.moveRight()
		e.pc++
	case token.MoveLeft:
		e.tape.moveLeft()
		e.pc++
	case token.Inc:
		c := e.tape.cur()
		if c.known {
			e.tape.setKnown(c.val + 1)
		} else {
			e.syncHead()
			e.emit(token.Inst{Kind: token.Inc})
		}
		e.pc++
	case token.Dec:
		c := e.tape.cur()
		if c.known {
			e.tape.setKnown(c.val - 1)
		} else {
			e.syncHead()
			e.emit(token.Inst{Kind: token.Dec})
		}
		e.pc++
	case token.Write:
		c := e.tape.cur()
		if c.known {
			e.emit(token.Inst{Kind: token.Output, Val: c.val})
		} else {
			e.syncHead()
			e.emit(token.Inst{Kind: token.Write})
		}
		e.pc++
	case token.Read:
		e.syncHead()
		e.emit(token.Inst{Kind: token.Read})
		e.tape.setUnknown()
		e.pc++
	case token.JumpIfZero:
		c := e.tape.cur()
		if !c.known {
			return true
		}
		entering := c.val != 0
		e.enterStack = append(e.enterStack, entering)
		if entering {
			if e.nestDepth == 0 {
				e.takeSnapshot()
			}
			e.nestDepth++
			e.pc++
		} else {
			e.pc = e.jt[e.pc]
		}
	case token.JumpUnlessZero:
		c := e.tape.cur()
		if !c.known {
			return true
		}
		entering := false
		if n := len(e.enterStack); n > 0 {
			entering = e.enterStack[n-1]
			e.enterStack = e.enterStack[:n-1]
		}
		if entering {
			e.nestDepth--
			if e.nestDepth == 0 {
				e.snap = nil
			}
		}
		if c.val != 0 {
			e.pc = e.jt[e.pc]
		} else {
			e.pc++
		}
	}
	return false
}

func (e *Evaluator) syncHead() {
	if e.outHead != e.tape.logical() {
		e.emit(token.Inst{Kind: token.SetHead, Arg: e.tape.logical()})
		e.outHead = e.tape.logical()
	}
}

func (e *Evaluator) emit(i token.Inst) {
	e.buf = append(e.buf, i)
}

func (e *Evaluator) takeSnapshot() {
	e.snap = &snapshot{
		tape:    e.tape.clone(),
		pc:      e.pc,
		outHead: e.outHead,
		bufLen:  len(e.buf),
	}
}

// restoreFromSnapshot rolls back to the outermost loop's entry state.
// If no loop is currently entered (snap is nil), the abort happened at
// top level with no state to undo: pc and buf are left exactly where
// they are, and finalize appends from there.
func (e *Evaluator) restoreFromSnapshot() {
	if e.snap == nil {
		return
	}
	e.tape = e.snap.tape
	e.pc = e.snap.pc
	e.outHead = e.snap.outHead
	e.buf = e.buf[:e.snap.bufLen]
	e.snap = nil
	e.nestDepth = 0
	e.enterStack = nil
}

// finalize syncs the runtime head to the symbolic head, materializes
// every concrete cell as a SetCell, then appends whatever of the
// original program was never executed, verbatim, so it runs for real
// at the point partial evaluation gave up.
func (e *Evaluator) finalize() {
	e.syncHead()
	for i, c := range e.tape.cells {
		if c.known {
			logical := int32(i - e.tape.originShift)
			e.emit(token.Inst{Kind: token.SetCell, Arg: logical, Val: c.val})
		}
	}
	for ; e.pc < len(e.prog); e.pc++ {
		e.buf = append(e.buf, e.prog[e.pc])
	}
}
