package engine

import "github.com/bthedestroyer/kip/parser"

// Instruction is one immutable decoded line of KIP assembly.
// OpcodeID 0 is the no-op/unknown placeholder emitted for blank,
// comment-only, and blanked-out label definition lines.
type Instruction struct {
	SourceLine string
	OpcodeID   uint8
	Args       []parser.Argument
}

// Assemble lexes and parses every source line into an Instruction
// sequence against ctx. Label-definition lines have already been
// blanked by parser.BuildContext, so they decode to a no-op here.
func Assemble(lines []string, ctx *parser.Context) ([]Instruction, error) {
	out := make([]Instruction, len(lines))
	for i, raw := range lines {
		inst, err := assembleLine(raw, ctx)
		if err != nil {
			return nil, err
		}
		out[i] = inst
	}
	return out, nil
}

func assembleLine(raw string, ctx *parser.Context) (Instruction, error) {
	line := parser.LexLine(raw)
	if line.Mnemonic == "" {
		return Instruction{SourceLine: raw}, nil
	}

	op, ok := lookupOpcode(line.Mnemonic)
	if !ok {
		return Instruction{}, &AssembleError{Line: raw, Message: "unknown opcode: " + line.Mnemonic, Kind: parser.ErrorSyntax}
	}
	if len(line.Tokens) != op.ArgCount {
		return Instruction{}, &AssembleError{
			Line:    raw,
			Message: "wrong argument count for " + line.Mnemonic,
			Kind:    parser.ErrorSyntax,
		}
	}

	args := make([]parser.Argument, len(line.Tokens))
	for i, tok := range line.Tokens {
		arg, err := parser.ParseArgument(tok, ctx)
		if err != nil {
			return Instruction{}, &AssembleError{Line: raw, Message: err.Error(), Kind: parser.ErrorSyntax}
		}
		args[i] = arg
	}

	return Instruction{SourceLine: raw, OpcodeID: op.ID, Args: args}, nil
}

// AssembleError is a fatal lex/parse error for one source line: in
// batch mode it halts the whole run. Every construction site in
// assembleLine is an ErrorSyntax (unknown opcode, wrong argument
// count, or a malformed argument bubbled up from parser.ParseArgument).
type AssembleError struct {
	Line    string
	Message string
	Kind    parser.ErrorKind
}

func (e *AssembleError) Error() string {
	return e.Message + ": " + e.Line
}
