// Package token defines the opcode union and instruction sequence shared
// by every stage of the brainbug pipeline: lexer, interpreter, partial
// evaluator, loop rewriter, and code generators.
package token

import "fmt"

// Kind tags the opcode of an Inst. The first eight values are the
// primitive Brainfuck tokens produced by the lexer; the rest are
// lowered opcodes introduced by later pipeline stages.
type Kind uint8

const (
	MoveRight Kind = iota
	MoveLeft
	Inc
	Dec
	Read
	Write
	JumpIfZero
	JumpUnlessZero

	// Zero sets the current cell to 0.
	Zero
	// Add(d) adds the current cell's value into cell[head+d].
	Add
	// Sub(d) subtracts the current cell's value from cell[head+d].
	Sub
	// Scan(s) advances the head by s until the cell under it is 0.
	Scan
	// SetHead(p) sets head to tape-origin + p.
	SetHead
	// SetCell(p, v) writes byte v to cell[origin+p].
	SetCell
	// Output(v) writes literal byte v to the output stream.
	Output
	// Nop marks a token position emptied out by a rewrite pass.
	Nop
)

func (k Kind) String() string {
	switch k {
	case MoveRight:
		return ">"
	case MoveLeft:
		return "<"
	case Inc:
		return "+"
	case Dec:
		return "-"
	case Read:
		return ","
	case Write:
		return "."
	case JumpIfZero:
		return "["
	case JumpUnlessZero:
		return "]"
	case Zero:
		return "ZERO"
	case Add:
		return "ADD"
	case Sub:
		return "SUB"
	case Scan:
		return "SCAN"
	case SetHead:
		return "SETHEAD"
	case SetCell:
		return "SETCELL"
	case Output:
		return "OUTPUT"
	case Nop:
		return "NOP"
	default:
		return fmt.Sprintf("KIND(%d)", uint8(k))
	}
}

// Inst is a single instruction. Arg carries the per-opcode payload:
// the offset for Add/Sub, the step for Scan, the tape-origin-relative
// position for SetHead/SetCell. Val carries the byte to store for
// SetCell and the literal byte to write for Output.
type Inst struct {
	Kind Kind
	Arg  int32
	Val  byte
}

// String renders an instruction the way a profiling dump or test
// failure message would want to see it.
func (i Inst) String() string {
	switch i.Kind {
	case Add, Sub, Scan, SetHead:
		return fmt.Sprintf("%s(%d)", i.Kind, i.Arg)
	case SetCell:
		return fmt.Sprintf("SETCELL(%d,%d)", i.Arg, i.Val)
	case Output:
		return fmt.Sprintf("OUTPUT(%d)", i.Val)
	default:
		return i.Kind.String()
	}
}

// Program is an ordered, mutable instruction sequence. Rewrite passes
// return a fresh Program rather than mutating in place, so callers
// that want to compare pre- and post-rewrite sequences can hold both.
type Program []Inst

// String renders the whole program, one instruction per line,
// prefixed with its pc — the shape used by the -p profiling dump.
func (p Program) String() string {
	var out string
	for pc, inst := range p {
		out += fmt.Sprintf("%d\t%s\n", pc, inst)
	}
	return out
}

// Clone returns an independent copy of the program.
func (p Program) Clone() Program {
	c := make(Program, len(p))
	copy(c, p)
	return c
}
