// Package lexer maps Brainfuck source text to a token.Program.
package lexer

import "github.com/Urethramancer/brainbug/token"

// Lex scans src character by character. The eight opcode characters
// map to their token.Kind; every other rune is discarded, so the
// resulting program may be shorter than the source (comments are
// implicit — there is no dedicated comment syntax).
func Lex(src string) token.Program {
	prog := make(token.Program, 0, len(src))
	for _, c := range src {
		switch c {
		case '>':
			prog = append(prog, token.Inst{Kind: token.MoveRight})
		case '<':
			prog = append(prog, token.Inst{Kind: token.MoveLeft})
		case '+':
			prog = append(prog, token.Inst{Kind: token.Inc})
		case '-':
			prog = append(prog, token.Inst{Kind: token.Dec})
		case '.':
			prog = append(prog, token.Inst{Kind: token.Write})
		case ',':
			prog = append(prog, token.Inst{Kind: token.Read})
		case '[':
			prog = append(prog, token.Inst{Kind: token.JumpIfZero})
		case ']':
			prog = append(prog, token.Inst{Kind: token.JumpUnlessZero})
		default:
			// Not an opcode; silently discarded.
		}
	}
	return prog
}
