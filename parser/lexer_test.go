package parser_test

import (
	"testing"

	"github.com/bthedestroyer/kip/parser"
)

func TestLexLineBasic(t *testing.T) {
	line := parser.LexLine("stb 10 5")
	if line.Mnemonic != "STB" {
		t.Errorf("Mnemonic = %q, want STB", line.Mnemonic)
	}
	if len(line.Tokens) != 2 || line.Tokens[0] != "10" || line.Tokens[1] != "5" {
		t.Errorf("Tokens = %v, want [10 5]", line.Tokens)
	}
}

func TestLexLineStripsComment(t *testing.T) {
	line := parser.LexLine("HLT ; all done")
	if line.Mnemonic != "HLT" {
		t.Errorf("Mnemonic = %q, want HLT", line.Mnemonic)
	}
	if len(line.Tokens) != 0 {
		t.Errorf("Tokens = %v, want none", line.Tokens)
	}
}

func TestLexLineBlankLine(t *testing.T) {
	line := parser.LexLine("    ")
	if line.Mnemonic != "" {
		t.Errorf("Mnemonic = %q, want empty", line.Mnemonic)
	}
}

func TestLexLineCommentOnlyLine(t *testing.T) {
	line := parser.LexLine("| just a remark")
	if line.Mnemonic != "" {
		t.Errorf("Mnemonic = %q, want empty", line.Mnemonic)
	}
}

func TestLexLinePreservesQuotedCase(t *testing.T) {
	line := parser.LexLine(`pus "Hello World"`)
	if line.Mnemonic != "PUS" {
		t.Errorf("Mnemonic = %q, want PUS", line.Mnemonic)
	}
	if len(line.Tokens) != 1 || line.Tokens[0] != `"Hello World"` {
		t.Errorf("Tokens = %v, want one quoted token preserving case", line.Tokens)
	}
}

func TestLexLineQuotedTokenWithInteriorSpaces(t *testing.T) {
	line := parser.LexLine(`sts dest "a b c" 3`)
	if len(line.Tokens) != 3 {
		t.Fatalf("Tokens = %v, want 3 tokens", line.Tokens)
	}
	if line.Tokens[1] != `"a b c"` {
		t.Errorf("Tokens[1] = %q, want quoted run with interior spaces preserved", line.Tokens[1])
	}
}

func TestLexLineUppercasesOutsideQuotes(t *testing.T) {
	line := parser.LexLine(`jmp dest`)
	if line.Mnemonic != "JMP" {
		t.Errorf("Mnemonic = %q, want JMP", line.Mnemonic)
	}
	if line.Tokens[0] != "DEST" {
		t.Errorf("Tokens[0] = %q, want DEST (uppercased)", line.Tokens[0])
	}
}

func TestLexLineCommentMarkerVariants(t *testing.T) {
	for _, marker := range []string{";", "|", "?", "}"} {
		line := parser.LexLine("HLT " + marker + "trailing")
		if line.Mnemonic != "HLT" {
			t.Errorf("marker %q: Mnemonic = %q, want HLT", marker, line.Mnemonic)
		}
	}
}
