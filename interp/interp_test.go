package interp_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/Urethramancer/brainbug/interp"
	"github.com/Urethramancer/brainbug/jumptable"
	"github.com/Urethramancer/brainbug/lexer"
)

func run(t *testing.T, src, in string) (*interp.Interpreter, string) {
	t.Helper()
	p := lexer.Lex(src)
	jt, err := jumptable.Build(p)
	if err != nil {
		t.Fatalf("jump table build: %v", err)
	}
	var out bytes.Buffer
	it := interp.New(p, jt, strings.NewReader(in), &out)
	if err := it.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}
	return it, out.String()
}

func TestMoveRight(t *testing.T) {
	it, _ := run(t, ">", "")
	if it.Tape.Head != 1 {
		t.Errorf("head = %d, want 1", it.Tape.Head)
	}
	if it.Tape.Len() != 2 {
		t.Errorf("len = %d, want 2", it.Tape.Len())
	}
}

func TestMoveLeftNegative(t *testing.T) {
	it, _ := run(t, "<+", "")
	if it.Tape.Head != 0 {
		t.Errorf("head = %d, want 0", it.Tape.Head)
	}
	if it.Tape.At(0) != 1 || it.Tape.At(1) != 0 {
		t.Errorf("tape = [%d %d], want [1 0]", it.Tape.At(0), it.Tape.At(1))
	}
}

func TestIncrementWraps(t *testing.T) {
	it, _ := run(t, strings.Repeat("+", 256), "")
	if it.Tape.At(0) != 0 {
		t.Errorf("cell = %d, want 0 (wrapped)", it.Tape.At(0))
	}
}

func TestDecrementWraps(t *testing.T) {
	it, _ := run(t, "-", "")
	if it.Tape.At(0) != 255 {
		t.Errorf("cell = %d, want 255", it.Tape.At(0))
	}
}

func TestReadEOFYields255(t *testing.T) {
	it, _ := run(t, ",", "")
	if it.Tape.At(0) != 255 {
		t.Errorf("cell = %d, want 255 on EOF read", it.Tape.At(0))
	}
}

func TestLoopCountsDown(t *testing.T) {
	it, _ := run(t, "+++++[>+<-]", "")
	if it.Tape.At(0) != 0 || it.Tape.At(1) != 5 {
		t.Errorf("tape = [%d %d], want [0 5]", it.Tape.At(0), it.Tape.At(1))
	}
}

func TestNestedLoops(t *testing.T) {
	it, _ := run(t, "+++++[>++++++++++[>+<-]<-]", "")
	if it.Tape.At(2) != 50 {
		t.Errorf("cell[2] = %d, want 50", it.Tape.At(2))
	}
}

func TestWriteOutput(t *testing.T) {
	_, out := run(t, ",+.", "0")
	if out != "1" {
		t.Errorf("out = %q, want %q", out, "1")
	}
}

func TestExecutionCounters(t *testing.T) {
	it, _ := run(t, "+++++[>+<-]", "")
	want := []int{1, 1, 1, 1, 1, 5, 5, 5, 5, 5}
	for i, w := range want {
		if it.Counters[i] != w {
			t.Errorf("counters[%d] = %d, want %d", i, it.Counters[i], w)
		}
	}
}

func TestClassifyLoopsNoLoops(t *testing.T) {
	it, _ := run(t, "+++++", "")
	simpleLoops, complexLoops := interp.ClassifyLoops(lexer.Lex("+++++"), it.Counters)
	if len(simpleLoops) != 0 || len(complexLoops) != 0 {
		t.Errorf("got %d simple, %d complex, want 0, 0", len(simpleLoops), len(complexLoops))
	}
}

func TestClassifyLoopsOneSimple(t *testing.T) {
	src := ">+++[>+++<-]"
	it, _ := run(t, src, "")
	simpleLoops, complexLoops := interp.ClassifyLoops(lexer.Lex(src), it.Counters)
	if len(simpleLoops) != 1 || simpleLoops[0].PC != 4 || simpleLoops[0].NumTimesExecuted != 3 {
		t.Errorf("simple = %+v", simpleLoops)
	}
	if len(complexLoops) != 0 {
		t.Errorf("complex = %+v, want none", complexLoops)
	}
}

func TestClassifyLoopsComplexIO(t *testing.T) {
	src := ">+++[>.+++<-]"
	it, _ := run(t, src, "")
	simpleLoops, complexLoops := interp.ClassifyLoops(lexer.Lex(src), it.Counters)
	if len(simpleLoops) != 0 {
		t.Errorf("simple = %+v, want none", simpleLoops)
	}
	if len(complexLoops) != 1 || complexLoops[0].PC != 4 || complexLoops[0].NumTimesExecuted != 3 {
		t.Errorf("complex = %+v", complexLoops)
	}
}

// The single-slot loop tracker is clobbered by the inner loop's '[',
// so only the innermost loop of a nest is ever classified.
func TestClassifyLoopsSimpleNestedOnlyInnerClassified(t *testing.T) {
	src := ">+++[>+++++[>++<-]<-]"
	it, _ := run(t, src, "")
	simpleLoops, complexLoops := interp.ClassifyLoops(lexer.Lex(src), it.Counters)
	if len(simpleLoops) != 1 || simpleLoops[0].PC != 11 || simpleLoops[0].NumTimesExecuted != 15 {
		t.Errorf("simple = %+v", simpleLoops)
	}
	if len(complexLoops) != 0 {
		t.Errorf("complex = %+v, want none", complexLoops)
	}
}

func TestClassifyLoopsSortedDescending(t *testing.T) {
	src := "+++[>--<-]++[>--<-]++++[>--<-]"
	it, _ := run(t, src, "")
	simpleLoops, _ := interp.ClassifyLoops(lexer.Lex(src), it.Counters)
	if len(simpleLoops) != 3 {
		t.Fatalf("len = %d, want 3", len(simpleLoops))
	}
	if simpleLoops[0].PC != 23 || simpleLoops[0].NumTimesExecuted != 4 {
		t.Errorf("simpleLoops[0] = %+v", simpleLoops[0])
	}
	if simpleLoops[1].PC != 3 || simpleLoops[1].NumTimesExecuted != 3 {
		t.Errorf("simpleLoops[1] = %+v", simpleLoops[1])
	}
	if simpleLoops[2].PC != 12 || simpleLoops[2].NumTimesExecuted != 2 {
		t.Errorf("simpleLoops[2] = %+v", simpleLoops[2])
	}
}
