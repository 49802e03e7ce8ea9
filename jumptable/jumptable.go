// Package jumptable builds the index-to-index mapping between
// matched JumpIfZero/JumpUnlessZero opcodes.
package jumptable

import (
	"errors"
	"fmt"

	"github.com/Urethramancer/brainbug/token"
)

// ErrUnbalancedBrackets is returned when a program's brackets don't
// nest to a balanced stack — either the stack underflows on a ']', or
// it is nonempty when the program runs out of instructions.
var ErrUnbalancedBrackets = errors.New("unbalanced brackets")

// Table maps a jump opcode's index to its matching partner's index.
// It is symmetric: for every index i holding a jump opcode,
// Table[Table[i]] == i.
type Table map[int]int

// Build performs a single linear pass with a stack of open-bracket
// positions. On JumpIfZero it pushes pc; on JumpUnlessZero it pops and
// records the symmetric pair. A pop against an empty stack, or a
// nonempty stack at the end of the scan, fails with
// ErrUnbalancedBrackets.
func Build(p token.Program) (Table, error) {
	t := make(Table)
	var stack []int

	for pc, inst := range p {
		switch inst.Kind {
		case token.JumpIfZero:
			stack = append(stack, pc)
		case token.JumpUnlessZero:
			if len(stack) == 0 {
				return nil, fmt.Errorf("%w: unmatched ']' at index %d", ErrUnbalancedBrackets, pc)
			}
			open := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			t[open] = pc
			t[pc] = open
		}
	}

	if len(stack) != 0 {
		return nil, fmt.Errorf("%w: unmatched '[' at index %d", ErrUnbalancedBrackets, stack[len(stack)-1])
	}

	return t, nil
}

// MustBuild panics if Build fails. Reserved for call sites that have
// already validated bracket balance upstream: a mismatched bracket
// reaching this point is a programmer error, not a recoverable one.
func MustBuild(p token.Program) Table {
	t, err := Build(p)
	if err != nil {
		panic(err)
	}
	return t
}
