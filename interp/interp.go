// Package interp implements the profiling interpreter: a concrete
// execution engine over a Tape, parameterized over a byte reader and
// writer so it never binds to process stdio directly. It also
// understands the lowered opcodes (Zero, Add, Sub, Scan, SetHead,
// SetCell, Output, Nop) so it can serve as the reference executor that
// verifies the loop rewriter and partial evaluator preserve observable
// semantics.
package interp

import (
	"fmt"
	"io"

	"github.com/Urethramancer/brainbug/jumptable"
	"github.com/Urethramancer/brainbug/token"
)

// Interpreter executes a token.Program against a Tape. Counters[pc] is
// incremented once per dispatch, before the instruction executes.
type Interpreter struct {
	Program  token.Program
	Jump     jumptable.Table
	Tape     *Tape
	PC       int
	Counters []int

	In  io.Reader
	Out io.Writer
}

// New creates an Interpreter ready to run p. jt may be nil if p
// contains no jump opcodes (e.g. a fully-rewritten residual program);
// otherwise the caller supplies one built from p with jumptable.Build
// (New does not compute it).
func New(p token.Program, jt jumptable.Table, in io.Reader, out io.Writer) *Interpreter {
	return &Interpreter{
		Program:  p,
		Jump:     jt,
		Tape:     NewTape(),
		Counters: make([]int, len(p)),
		In:       in,
		Out:      out,
	}
}

// Run executes the program to completion (PC reaching len(Program)).
func (in *Interpreter) Run() error {
	for in.PC < len(in.Program) {
		in.Counters[in.PC]++
		if err := in.step(); err != nil {
			return fmt.Errorf("pc %d (%s): %w", in.PC, in.Program[in.PC], err)
		}
	}
	return nil
}

func (in *Interpreter) step() error {
	inst := in.Program[in.PC]
	switch inst.Kind {
	case token.MoveRight:
		in.Tape.MoveRight()
		in.PC++
	case token.MoveLeft:
		in.Tape.MoveLeft()
		in.PC++
	case token.Inc:
		in.Tape.Inc()
		in.PC++
	case token.Dec:
		in.Tape.Dec()
		in.PC++
	case token.Write:
		if _, err := in.Out.Write([]byte{in.Tape.Cur()}); err != nil {
			return err
		}
		in.PC++
	case token.Read:
		b, err := in.readByte()
		if err != nil {
			return err
		}
		in.Tape.Set(b)
		in.PC++
	case token.JumpIfZero:
		if in.Tape.Cur() == 0 {
			in.PC = in.Jump[in.PC]
		} else {
			in.PC++
		}
	case token.JumpUnlessZero:
		if in.Tape.Cur() != 0 {
			in.PC = in.Jump[in.PC]
		} else {
			in.PC++
		}
	case token.Zero:
		in.Tape.Set(0)
		in.PC++
	case token.Add:
		cur := in.Tape.Cur()
		back := in.Tape.Logical()
		in.Tape.GotoLogical(back + inst.Arg)
		in.Tape.Set(in.Tape.Cur() + cur)
		in.Tape.GotoLogical(back)
		in.PC++
	case token.Sub:
		cur := in.Tape.Cur()
		back := in.Tape.Logical()
		in.Tape.GotoLogical(back + inst.Arg)
		in.Tape.Set(in.Tape.Cur() - cur)
		in.Tape.GotoLogical(back)
		in.PC++
	case token.Scan:
		for in.Tape.Cur() != 0 {
			if inst.Arg > 0 {
				for i := int32(0); i < inst.Arg; i++ {
					in.Tape.MoveRight()
				}
			} else {
				for i := int32(0); i < -inst.Arg; i++ {
					in.Tape.MoveLeft()
				}
			}
		}
		in.PC++
	case token.SetHead:
		in.Tape.GotoLogical(inst.Arg)
		in.PC++
	case token.SetCell:
		in.Tape.SetLogical(inst.Arg, inst.Val)
		in.PC++
	case token.Output:
		if _, err := in.Out.Write([]byte{inst.Val}); err != nil {
			return err
		}
		in.PC++
	case token.Nop:
		in.PC++
	default:
		return fmt.Errorf("unknown opcode kind %v", inst.Kind)
	}
	return nil
}

// readByte reads one byte from In. End-of-input is not an error: it
// yields byte 255, a load-bearing quirk preserved as part of the
// external contract, not "fixed".
func (in *Interpreter) readByte() (byte, error) {
	var buf [1]byte
	n, err := in.In.Read(buf[:])
	if n == 1 {
		return buf[0], nil
	}
	if err == io.EOF || err == nil {
		return 255, nil
	}
	return 0, err
}
