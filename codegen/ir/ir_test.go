package ir_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/Urethramancer/brainbug/codegen/ir"
	"github.com/Urethramancer/brainbug/lexer"
	"github.com/Urethramancer/brainbug/rewrite"
	"github.com/Urethramancer/brainbug/token"
)

func TestGenerateEmitsFunctionShell(t *testing.T) {
	out, err := ir.NewGenerator(lexer.Lex("+.")).Generate()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.Contains(out, "func @brainbug()") || !strings.Contains(out, "ret void") {
		t.Errorf("missing function shell:\n%s", out)
	}
}

func TestGenerateRejectsScan(t *testing.T) {
	scanned := rewrite.Scans(lexer.Lex(">>>[>]"))
	_, err := ir.NewGenerator(scanned).Generate()
	if !errors.Is(err, ir.ErrScanUnsupportedByIR) {
		t.Errorf("err = %v, want ErrScanUnsupportedByIR", err)
	}
}

func TestGeneratePairsBracketsIntoBodyAfterBlocks(t *testing.T) {
	out, err := ir.NewGenerator(lexer.Lex("[-]")).Generate()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.Contains(out, "body0:") || !strings.Contains(out, "after1:") {
		t.Errorf("missing body/after blocks:\n%s", out)
	}
}

func TestGenerateLowersAddSubOffsets(t *testing.T) {
	p := token.Program{
		{Kind: token.Add, Arg: 2},
		{Kind: token.Sub, Arg: -1},
	}
	out, err := ir.NewGenerator(p).Generate()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.Contains(out, "i64 2") || !strings.Contains(out, "i64 -1") {
		t.Errorf("missing offset lowering:\n%s", out)
	}
	if !strings.Contains(out, "add i8") || !strings.Contains(out, "sub i8") {
		t.Errorf("missing add/sub ops:\n%s", out)
	}
}

func TestGenerateLowersSetHeadAndSetCell(t *testing.T) {
	p := token.Program{
		{Kind: token.SetHead, Arg: 4},
		{Kind: token.SetCell, Arg: -2, Val: 7},
	}
	out, err := ir.NewGenerator(p).Generate()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.Contains(out, "i64 4") || !strings.Contains(out, "i64 -2") {
		t.Errorf("missing SetHead/SetCell offsets:\n%s", out)
	}
	if !strings.Contains(out, "store i8 7") {
		t.Errorf("missing SetCell value:\n%s", out)
	}
}
