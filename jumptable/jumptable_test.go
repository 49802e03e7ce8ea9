package jumptable_test

import (
	"errors"
	"testing"

	"github.com/Urethramancer/brainbug/jumptable"
	"github.com/Urethramancer/brainbug/lexer"
)

func TestBuildSymmetric(t *testing.T) {
	tests := []string{
		"[]",
		"[+[-]+]",
		"+[>[>+]>>>]",
		"",
		"+-<>.,",
	}

	for _, src := range tests {
		p := lexer.Lex(src)
		tbl, err := jumptable.Build(p)
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", src, err)
		}
		for i, j := range tbl {
			if tbl[j] != i {
				t.Errorf("%q: table[%d]=%d but table[%d]=%d, want %d", src, i, j, j, tbl[j], i)
			}
		}
	}
}

func TestBuildUnbalanced(t *testing.T) {
	tests := []string{"[", "]", "[[]", "[]]", "+[-"}

	for _, src := range tests {
		p := lexer.Lex(src)
		_, err := jumptable.Build(p)
		if !errors.Is(err, jumptable.ErrUnbalancedBrackets) {
			t.Errorf("%q: got %v, want ErrUnbalancedBrackets", src, err)
		}
	}
}

func TestMustBuildPanicsOnUnbalanced(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	jumptable.MustBuild(lexer.Lex("["))
}
