// Package ir lowers a token.Program to a small SSA-ish text dialect:
// an alternative backend to codegen/asm where the head is a stack
// slot (a byte pointer) rather than a pinned register, and basic
// blocks are pre-allocated by scanning for conditional jumps before
// any code is emitted. Scan is not representable here; its kernel is
// assembly-specific.
package ir

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Urethramancer/brainbug/token"
)

// ErrScanUnsupportedByIR is returned by Generate when the program
// still contains a Scan opcode. Run the scan-vectorize pass only when
// targeting codegen/asm, or skip it (-no-scan-vectorize) when
// targeting this backend.
var ErrScanUnsupportedByIR = errors.New("ir: Scan opcode has no IR lowering, it is assembly-specific")

// block is one pre-allocated basic block: "body" holds the
// instructions guarded by a loop condition, "after" is the block
// following the loop's close.
type block struct {
	id   int
	kind string // "body" or "after"
}

// Generator produces the IR text for one program.
type Generator struct {
	prog   token.Program
	out    strings.Builder
	nextID int
	bodyOf map[int]int // '[' pc -> body block id
	afterOf map[int]int // '[' pc -> after block id
}

// NewGenerator pre-scans prog for every conditional jump and assigns
// it a body/after block pair using a two-stack pairing discipline (one
// stack tracks open bodies, the other the matching afters).
func NewGenerator(prog token.Program) *Generator {
	g := &Generator{
		prog:    prog,
		bodyOf:  make(map[int]int),
		afterOf: make(map[int]int),
	}
	g.preallocateBlocks()
	return g
}

func (g *Generator) preallocateBlocks() {
	var bodies, afters []int
	for pc, inst := range g.prog {
		switch inst.Kind {
		case token.JumpIfZero:
			body := g.nextID
			g.nextID++
			after := g.nextID
			g.nextID++
			g.bodyOf[pc] = body
			g.afterOf[pc] = after
			bodies = append(bodies, body)
			afters = append(afters, after)
		case token.JumpUnlessZero:
			if n := len(bodies); n > 0 {
				bodies = bodies[:n-1]
				afters = afters[:n-1]
			}
		}
	}
}

// Generate emits the IR module text, or ErrScanUnsupportedByIR if
// prog still contains a Scan opcode.
func (g *Generator) Generate() (string, error) {
	for _, inst := range g.prog {
		if inst.Kind == token.Scan {
			return "", ErrScanUnsupportedByIR
		}
	}

	fmt.Fprintf(&g.out, "func @brainbug() {\n")
	fmt.Fprintf(&g.out, "entry:\n")
	fmt.Fprintf(&g.out, "  %%head = alloca ptr\n")
	fmt.Fprintf(&g.out, "  %%origin = alloca ptr\n")
	fmt.Fprintf(&g.out, "  store ptr @tape, ptr %%origin\n")
	fmt.Fprintf(&g.out, "  store ptr @tape, ptr %%head\n")

	var openStack []int
	for pc, inst := range g.prog {
		g.emitOp(pc, inst, &openStack)
	}
	for len(openStack) > 0 {
		pc := openStack[len(openStack)-1]
		openStack = openStack[:len(openStack)-1]
		fmt.Fprintf(&g.out, "  br label %%after%d\n", g.afterOf[pc])
		fmt.Fprintf(&g.out, "after%d:\n", g.afterOf[pc])
	}

	fmt.Fprintf(&g.out, "  ret void\n")
	fmt.Fprintf(&g.out, "}\n")
	return g.out.String(), nil
}

func (g *Generator) emitOp(pc int, inst token.Inst, openStack *[]int) {
	switch inst.Kind {
	case token.MoveRight:
		fmt.Fprintf(&g.out, "  %%h%d = load ptr, ptr %%head\n", pc)
		fmt.Fprintf(&g.out, "  %%h%d.1 = getelementptr i8, ptr %%h%d, i64 1\n", pc, pc)
		fmt.Fprintf(&g.out, "  store ptr %%h%d.1, ptr %%head\n", pc)
	case token.MoveLeft:
		fmt.Fprintf(&g.out, "  %%h%d = load ptr, ptr %%head\n", pc)
		fmt.Fprintf(&g.out, "  %%h%d.1 = getelementptr i8, ptr %%h%d, i64 -1\n", pc, pc)
		fmt.Fprintf(&g.out, "  store ptr %%h%d.1, ptr %%head\n", pc)
	case token.Inc:
		g.emitLoadModifyStore(pc, "add", 1)
	case token.Dec:
		g.emitLoadModifyStore(pc, "add", -1)
	case token.Add:
		g.emitLoadAddStoreOffset(pc, inst.Arg, "add")
	case token.Sub:
		g.emitLoadAddStoreOffset(pc, inst.Arg, "sub")
	case token.Zero:
		fmt.Fprintf(&g.out, "  %%h%d = load ptr, ptr %%head\n", pc)
		fmt.Fprintf(&g.out, "  store i8 0, ptr %%h%d\n", pc)
	case token.Output:
		fmt.Fprintf(&g.out, "  call void @bb_putchar(i8 %d)\n", inst.Val)
	case token.Write:
		fmt.Fprintf(&g.out, "  %%h%d = load ptr, ptr %%head\n", pc)
		fmt.Fprintf(&g.out, "  %%v%d = load i8, ptr %%h%d\n", pc, pc)
		fmt.Fprintf(&g.out, "  call void @bb_putchar(i8 %%v%d)\n", pc)
	case token.Read:
		fmt.Fprintf(&g.out, "  %%h%d = load ptr, ptr %%head\n", pc)
		fmt.Fprintf(&g.out, "  %%v%d = call i8 @bb_getchar()\n", pc)
		fmt.Fprintf(&g.out, "  store i8 %%v%d, ptr %%h%d\n", pc, pc)
	case token.SetHead:
		fmt.Fprintf(&g.out, "  %%o%d = load ptr, ptr %%origin\n", pc)
		fmt.Fprintf(&g.out, "  %%h%d = getelementptr i8, ptr %%o%d, i64 %d\n", pc, pc, inst.Arg)
		fmt.Fprintf(&g.out, "  store ptr %%h%d, ptr %%head\n", pc)
	case token.SetCell:
		fmt.Fprintf(&g.out, "  %%o%d = load ptr, ptr %%origin\n", pc)
		fmt.Fprintf(&g.out, "  %%c%d = getelementptr i8, ptr %%o%d, i64 %d\n", pc, pc, inst.Arg)
		fmt.Fprintf(&g.out, "  store i8 %d, ptr %%c%d\n", inst.Val, pc)
	case token.JumpIfZero:
		body := g.bodyOf[pc]
		after := g.afterOf[pc]
		fmt.Fprintf(&g.out, "  %%h%d = load ptr, ptr %%head\n", pc)
		fmt.Fprintf(&g.out, "  %%v%d = load i8, ptr %%h%d\n", pc, pc)
		fmt.Fprintf(&g.out, "  %%z%d = icmp eq i8 %%v%d, 0\n", pc, pc)
		fmt.Fprintf(&g.out, "  br i1 %%z%d, label %%after%d, label %%body%d\n", pc, after, body)
		fmt.Fprintf(&g.out, "body%d:\n", body)
		*openStack = append(*openStack, pc)
	case token.JumpUnlessZero:
		var open int
		if n := len(*openStack); n > 0 {
			open = (*openStack)[n-1]
			*openStack = (*openStack)[:n-1]
		}
		body := g.bodyOf[open]
		after := g.afterOf[open]
		fmt.Fprintf(&g.out, "  %%h%d = load ptr, ptr %%head\n", pc)
		fmt.Fprintf(&g.out, "  %%v%d = load i8, ptr %%h%d\n", pc, pc)
		fmt.Fprintf(&g.out, "  %%z%d = icmp ne i8 %%v%d, 0\n", pc, pc)
		fmt.Fprintf(&g.out, "  br i1 %%z%d, label %%body%d, label %%after%d\n", pc, body, after)
		fmt.Fprintf(&g.out, "after%d:\n", after)
	case token.Nop:
		// no output
	}
}

func (g *Generator) emitLoadModifyStore(pc int, op string, delta int) {
	fmt.Fprintf(&g.out, "  %%h%d = load ptr, ptr %%head\n", pc)
	fmt.Fprintf(&g.out, "  %%v%d = load i8, ptr %%h%d\n", pc, pc)
	fmt.Fprintf(&g.out, "  %%v%d.1 = %s i8 %%v%d, %d\n", pc, op, pc, delta)
	fmt.Fprintf(&g.out, "  store i8 %%v%d.1, ptr %%h%d\n", pc, pc)
}

func (g *Generator) emitLoadAddStoreOffset(pc int, offset int32, op string) {
	fmt.Fprintf(&g.out, "  %%h%d = load ptr, ptr %%head\n", pc)
	fmt.Fprintf(&g.out, "  %%cur%d = load i8, ptr %%h%d\n", pc, pc)
	fmt.Fprintf(&g.out, "  %%t%d = getelementptr i8, ptr %%h%d, i64 %d\n", pc, pc, offset)
	fmt.Fprintf(&g.out, "  %%tv%d = load i8, ptr %%t%d\n", pc, pc)
	fmt.Fprintf(&g.out, "  %%r%d = %s i8 %%tv%d, %%cur%d\n", pc, op, pc, pc)
	fmt.Fprintf(&g.out, "  store i8 %%r%d, ptr %%t%d\n", pc, pc)
}
