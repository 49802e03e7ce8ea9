// Package asm lowers a token.Program to x86-64 AT&T assembly targeting
// the System V AMD64 ABI, the same register-holds-the-head-pointer
// style as bfcc's gas generator, extended with the scan-vectorize
// kernel and the lowered opcodes the rewriter introduces.
package asm

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Urethramancer/brainbug/token"
)

// Generator accumulates AT&T-syntax assembly for one program. Head is
// held in the callee-saved %r12 as an absolute pointer into the tape;
// %r13 holds the tape's origin (cell 0) so SetHead/SetCell can compute
// origin+p directly.
type Generator struct {
	prog      token.Program
	out       strings.Builder
	labels    map[int]bool
	scanSteps map[int32]bool
}

// NewGenerator prepares a Generator for prog. Jump targets are
// pre-scanned so forward references can be emitted as stable labels.
func NewGenerator(prog token.Program) *Generator {
	g := &Generator{prog: prog, labels: make(map[int]bool), scanSteps: make(map[int32]bool)}
	g.collectLabels()
	return g
}

func (g *Generator) collectLabels() {
	var stack []int
	for pc, inst := range g.prog {
		switch inst.Kind {
		case token.JumpIfZero:
			stack = append(stack, pc)
		case token.JumpUnlessZero:
			if n := len(stack); n > 0 {
				open := stack[n-1]
				stack = stack[:n-1]
				g.labels[open] = true
				g.labels[pc+1] = true
			}
		case token.Scan:
			g.scanSteps[inst.Arg] = true
		}
	}
}

// Generate produces the complete assembly text: entry point, per-opcode
// lowering, epilogue, and the AVX2 scan kernels for every distinct step
// the program uses.
func (g *Generator) Generate() string {
	g.emitHeader()
	g.emitPrologue()

	for pc, inst := range g.prog {
		if g.labels[pc] {
			g.emitLabel(pc)
		}
		g.emitOp(pc, inst)
	}
	if g.labels[len(g.prog)] {
		g.emitLabel(len(g.prog))
	}

	g.emitEpilogue()
	g.emitScanKernels()
	return g.out.String()
}

func (g *Generator) emitHeader() {
	fmt.Fprintf(&g.out, ".section .text\n")
	fmt.Fprintf(&g.out, ".globl bb_run\n")
}

// emitPrologue loads the tape pointer the caller passed in %rdi (the
// midpoint of its own allocation, per the System V AMD64 calling
// convention) into both %r12 (head) and %r13 (origin). bb_run owns no
// tape storage of its own: the runner's slab is sized to let the head
// drift arbitrarily far in either direction from that midpoint.
func (g *Generator) emitPrologue() {
	fmt.Fprintf(&g.out, "bb_run:\n")
	fmt.Fprintf(&g.out, "    pushq %%r12\n")
	fmt.Fprintf(&g.out, "    pushq %%r13\n")
	fmt.Fprintf(&g.out, "    subq $8, %%rsp\n") // 16-byte align shadow space
	fmt.Fprintf(&g.out, "    movq %%rdi, %%r13\n")
	fmt.Fprintf(&g.out, "    movq %%rdi, %%r12\n")
}

func (g *Generator) emitEpilogue() {
	fmt.Fprintf(&g.out, "    addq $8, %%rsp\n")
	fmt.Fprintf(&g.out, "    popq %%r13\n")
	fmt.Fprintf(&g.out, "    popq %%r12\n")
	fmt.Fprintf(&g.out, "    ret\n")
}

func (g *Generator) emitLabel(pc int) {
	fmt.Fprintf(&g.out, ".L%d:\n", pc)
}

func (g *Generator) emitOp(pc int, inst token.Inst) {
	switch inst.Kind {
	case token.MoveRight:
		fmt.Fprintf(&g.out, "    incq %%r12\n")
	case token.MoveLeft:
		fmt.Fprintf(&g.out, "    decq %%r12\n")
	case token.Inc:
		fmt.Fprintf(&g.out, "    incb (%%r12)\n")
	case token.Dec:
		fmt.Fprintf(&g.out, "    decb (%%r12)\n")
	case token.Write:
		fmt.Fprintf(&g.out, "    movzbl (%%r12), %%edi\n")
		fmt.Fprintf(&g.out, "    call putchar@PLT\n")
	case token.Read:
		fmt.Fprintf(&g.out, "    call getchar@PLT\n")
		fmt.Fprintf(&g.out, "    movb %%al, (%%r12)\n")
	case token.JumpIfZero:
		fmt.Fprintf(&g.out, "    cmpb $0, (%%r12)\n")
		fmt.Fprintf(&g.out, "    je .L%d\n", g.matchFwd(pc))
	case token.JumpUnlessZero:
		fmt.Fprintf(&g.out, "    cmpb $0, (%%r12)\n")
		fmt.Fprintf(&g.out, "    jne .L%d\n", g.matchBack(pc))
	case token.Zero:
		fmt.Fprintf(&g.out, "    movb $0, (%%r12)\n")
	case token.Add:
		fmt.Fprintf(&g.out, "    movzbl (%%r12), %%eax\n")
		fmt.Fprintf(&g.out, "    addb %%al, %d(%%r12)\n", inst.Arg)
	case token.Sub:
		fmt.Fprintf(&g.out, "    movzbl (%%r12), %%eax\n")
		fmt.Fprintf(&g.out, "    subb %%al, %d(%%r12)\n", inst.Arg)
	case token.Output:
		fmt.Fprintf(&g.out, "    movl $%d, %%edi\n", inst.Val)
		fmt.Fprintf(&g.out, "    call putchar@PLT\n")
	case token.SetHead:
		fmt.Fprintf(&g.out, "    leaq %d(%%r13), %%r12\n", inst.Arg)
	case token.SetCell:
		fmt.Fprintf(&g.out, "    movb $%d, %d(%%r13)\n", inst.Val, inst.Arg)
	case token.Scan:
		g.emitScanCall(inst.Arg)
	case token.Nop:
		// no output
	}
}

// matchFwd/matchBack resolve a jump's label target by re-walking the
// bracket structure; the generator doesn't carry the jump table
// itself (the caller already validated balance), it only needs the
// label identity pre-collected in collectLabels.
func (g *Generator) matchFwd(pc int) int {
	depth := 0
	for i := pc + 1; i < len(g.prog); i++ {
		switch g.prog[i].Kind {
		case token.JumpIfZero:
			depth++
		case token.JumpUnlessZero:
			if depth == 0 {
				return i + 1
			}
			depth--
		}
	}
	return len(g.prog)
}

func (g *Generator) matchBack(pc int) int {
	depth := 0
	for i := pc - 1; i >= 0; i-- {
		switch g.prog[i].Kind {
		case token.JumpUnlessZero:
			depth++
		case token.JumpIfZero:
			if depth == 0 {
				return i
			}
			depth--
		}
	}
	return 0
}

func (g *Generator) emitScanCall(step int32) {
	fmt.Fprintf(&g.out, "    call bb_scan_%s\n", scanLabel(step))
}

func scanLabel(step int32) string {
	if step < 0 {
		return fmt.Sprintf("neg%d", -step)
	}
	return fmt.Sprintf("pos%d", step)
}

// emitScanKernels emits, once per distinct step used by the program,
// the gather-based kernel described by the scan-vectorize pass: a
// constant offset block, a shared zero-extend mask, and a loop that
// gathers eight candidate cells per iteration and locates the first
// zero lane with a trailing-zero count.
func (g *Generator) emitScanKernels() {
	if len(g.scanSteps) == 0 {
		return
	}

	fmt.Fprintf(&g.out, "\n.section .rodata\n")
	fmt.Fprintf(&g.out, "    .align 32\n")
	fmt.Fprintf(&g.out, "bb_scan_mask:\n")
	fmt.Fprintf(&g.out, "    .long 0x00FFFFFF, 0x00FFFFFF, 0x00FFFFFF, 0x00FFFFFF\n")
	fmt.Fprintf(&g.out, "    .long 0x00FFFFFF, 0x00FFFFFF, 0x00FFFFFF, 0x00FFFFFF\n")

	var steps []int32
	for s := range g.scanSteps {
		steps = append(steps, s)
	}
	sort.Slice(steps, func(i, j int) bool { return steps[i] < steps[j] })

	for _, s := range steps {
		g.emitScanOffsets(s)
	}

	fmt.Fprintf(&g.out, "\n.section .text\n")
	for _, s := range steps {
		g.emitScanKernel(s)
	}
}

func (g *Generator) emitScanOffsets(step int32) {
	abs := step
	if abs < 0 {
		abs = -abs
	}
	offsets := make([]int32, 8)
	for i := range offsets {
		offsets[i] = int32(i) * step
	}
	if step < 0 {
		for i, j := 0, len(offsets)-1; i < j; i, j = i+1, j-1 {
			offsets[i], offsets[j] = offsets[j], offsets[i]
		}
	}
	fmt.Fprintf(&g.out, "bb_scan_off_%s:\n", scanLabel(step))
	fmt.Fprintf(&g.out, "    .align 32\n")
	fmt.Fprintf(&g.out, "    .long")
	for i, o := range offsets {
		if i > 0 {
			fmt.Fprintf(&g.out, ",")
		}
		fmt.Fprintf(&g.out, " %d", o)
	}
	fmt.Fprintf(&g.out, "\n")
}

// emitScanKernel writes the per-iteration gather/compare/tzcnt body
// for a single step value. The body window is pre-biased by 7*|s| for
// negative steps so that logically lower addresses scan first.
func (g *Generator) emitScanKernel(step int32) {
	abs := step
	if abs < 0 {
		abs = -abs
	}
	label := scanLabel(step)
	bias := int32(0)
	if step < 0 {
		bias = 7 * abs
	}

	fmt.Fprintf(&g.out, "bb_scan_%s:\n", label)
	fmt.Fprintf(&g.out, "    vmovdqa bb_scan_off_%s(%%rip), %%ymm1\n", label)
	fmt.Fprintf(&g.out, "    vmovdqa bb_scan_mask(%%rip), %%ymm2\n")
	fmt.Fprintf(&g.out, "    leaq %d(%%r12), %%r11\n", bias)
	fmt.Fprintf(&g.out, ".Lscan_%s_loop:\n", label)
	fmt.Fprintf(&g.out, "    vpcmpeqd %%ymm3, %%ymm3, %%ymm3\n") // all-ones gather predicate
	fmt.Fprintf(&g.out, "    vpgatherdd %%ymm3, (%%r11,%%ymm1,1), %%ymm0\n")
	fmt.Fprintf(&g.out, "    vpor %%ymm2, %%ymm0, %%ymm0\n")
	fmt.Fprintf(&g.out, "    vpxor %%ymm4, %%ymm4, %%ymm4\n")
	fmt.Fprintf(&g.out, "    vpcmpeqb %%ymm4, %%ymm0, %%ymm0\n")
	fmt.Fprintf(&g.out, "    vpmovmskb %%ymm0, %%eax\n")
	fmt.Fprintf(&g.out, "    testl %%eax, %%eax\n")
	fmt.Fprintf(&g.out, "    jz .Lscan_%s_advance\n", label)
	fmt.Fprintf(&g.out, "    tzcntl %%eax, %%eax\n")
	fmt.Fprintf(&g.out, "    shrl $2, %%eax\n")
	fmt.Fprintf(&g.out, "    imull $%d, %%eax, %%eax\n", abs)
	fmt.Fprintf(&g.out, "    cltq\n")
	fmt.Fprintf(&g.out, "    leaq (%%r11,%%rax), %%r12\n")
	fmt.Fprintf(&g.out, "    subq $%d, %%r12\n", bias)
	fmt.Fprintf(&g.out, "    ret\n")
	fmt.Fprintf(&g.out, ".Lscan_%s_advance:\n", label)
	fmt.Fprintf(&g.out, "    addq $%d, %%r11\n", 8*abs)
	fmt.Fprintf(&g.out, "    jmp .Lscan_%s_loop\n", label)
}

