package engine

import (
	"fmt"

	"github.com/bthedestroyer/kip/parser"
)

// controlFlowMnemonics names every opcode whose handler mutates the
// program counter. None of them mean anything without a running
// instruction stream to retarget, so contextless evaluation rejects
// them outright instead of silently discarding the jump.
var controlFlowMnemonics = map[string]bool{
	"JMP": true, "JEQ": true, "JNE": true, "JGT": true, "JLT": true,
	"JGE": true, "JLE": true, "HLT": true, "CAL": true, "RET": true,
}

// InterpretLine evaluates a single source line against mem with no
// Context and no running instruction stream — the "contextless
// single-line evaluation" mode for REPL-style use. Label references do
// not resolve, since there is no Context to resolve them against;
// every argument must be a literal or a dereference chain over one.
// An opcode that requires the program counter (a jump, HLT, CAL, or
// RET) fails rather than running against a PC that doesn't exist.
func InterpretLine(mem *Memory, importFolder string, text string) parser.Result {
	e := &Engine{Memory: mem, ImportFolder: importFolder, Log: NewResultLog()}
	return interpretLine(e, text)
}

// InterpretLines runs InterpretLine over each line in order against a
// shared Memory and import folder, filtering and deduplicating into a
// Result log at the given verbosity the same way a running Engine
// would, and returns one Result per line.
func InterpretLines(mem *Memory, importFolder string, verbosity uint8, lines []string) []parser.Result {
	e := &Engine{Memory: mem, ImportFolder: importFolder, Log: NewResultLog()}
	e.Log.Verbosity = verbosity
	out := make([]parser.Result, len(lines))
	for i, line := range lines {
		out[i] = interpretLine(e, line)
	}
	return out
}

func interpretLine(e *Engine, text string) parser.Result {
	lexed := parser.LexLine(text)
	if lexed.Mnemonic == "" {
		return parser.Result{Success: true, Message: "no-op"}
	}

	if controlFlowMnemonics[lexed.Mnemonic] {
		res := parser.Result{
			Success: false,
			Message: fmt.Sprintf("%s requires a program counter and cannot be evaluated contextlessly at %q", lexed.Mnemonic, text),
		}
		e.Log.Add(res, VerbosityControlFlow)
		return res
	}

	op, found := lookupOpcode(lexed.Mnemonic)
	if !found {
		res := parser.Result{Success: false, Message: fmt.Sprintf("unknown mnemonic %q", lexed.Mnemonic)}
		e.Log.Add(res, VerbosityControlFlow)
		return res
	}
	if len(lexed.Tokens) != op.ArgCount {
		res := parser.Result{
			Success: false,
			Message: fmt.Sprintf("%s expects %d argument(s), got %d", op.Mnemonic, op.ArgCount, len(lexed.Tokens)),
		}
		e.Log.Add(res, VerbosityControlFlow)
		return res
	}

	args := make([]parser.Argument, len(lexed.Tokens))
	for i, tok := range lexed.Tokens {
		arg, err := parser.ParseArgument(tok, nil)
		if err != nil {
			res := parser.Result{Success: false, Message: err.Error()}
			e.Log.Add(res, VerbosityControlFlow)
			return res
		}
		args[i] = arg
	}

	res := op.Handler(e, text, args)
	e.Log.Add(res, op.Verbose)
	return res
}
