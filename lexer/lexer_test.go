package lexer_test

import (
	"testing"

	"github.com/Urethramancer/brainbug/lexer"
	"github.com/Urethramancer/brainbug/token"
)

func TestLexMapsOpcodes(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []token.Kind
	}{
		{"empty", "", nil},
		{"move", "><", []token.Kind{token.MoveRight, token.MoveLeft}},
		{"arith", "+-", []token.Kind{token.Inc, token.Dec}},
		{"io", ".,", []token.Kind{token.Write, token.Read}},
		{"loop", "[]", []token.Kind{token.JumpIfZero, token.JumpUnlessZero}},
		{"discards comments", "+ hello -\n", []token.Kind{token.Inc, token.Dec}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := lexer.Lex(tc.src)
			if len(got) != len(tc.want) {
				t.Fatalf("len(got)=%d, want %d (%v)", len(got), len(tc.want), got)
			}
			for i, k := range tc.want {
				if got[i].Kind != k {
					t.Errorf("inst %d: got %s, want %s", i, got[i].Kind, k)
				}
			}
		})
	}
}

// Removing non-opcode characters from the source before lexing is the
// identity of lexing the source directly.
func TestLexIsInformationPreservingOnOpcodes(t *testing.T) {
	const opcodes = "><+-.,[]"
	src := "foo>bar<\tbaz+qux-\n.quux,[/*comment*/]"

	var stripped []rune
	for _, c := range src {
		for _, o := range opcodes {
			if c == o {
				stripped = append(stripped, c)
				break
			}
		}
	}

	got := lexer.Lex(src)
	want := lexer.Lex(string(stripped))
	if len(got) != len(want) {
		t.Fatalf("len mismatch: %d vs %d", len(got), len(want))
	}
	for i := range got {
		if got[i].Kind != want[i].Kind {
			t.Errorf("inst %d differs: %s vs %s", i, got[i].Kind, want[i].Kind)
		}
	}
}
