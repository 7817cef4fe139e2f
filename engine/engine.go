// Package engine implements the KIP runtime: the memory map, the
// table-driven instruction dispatcher, and the Result log. Grounded
// on a CPU/executor fetch-decode-execute loop,
// generalized from ARM's register file to KIP's register-less,
// stack-pointer-only execution model.
package engine

import (
	"fmt"

	"github.com/bthedestroyer/kip/parser"
)

// Engine owns everything a running program needs: the memory map, the
// assembled instruction stream, the program counter, and the halt
// flag. A dedicated bool is used in place of a sentinel PC value (the
// original used ^uint32(0)) because a reserved value silently claims
// address space that is otherwise legitimately mappable.
type Engine struct {
	Memory          *Memory
	Instructions    []Instruction
	PC              uint32
	Halted          bool
	ImportFolder    string
	MaxInstructions uint64
	Log             *ResultLog

	executed uint64
}

// NewEngine wires a fresh Engine around an already-mapped Memory and
// an already-assembled instruction stream.
func NewEngine(mem *Memory, instructions []Instruction, importFolder string, maxInstructions uint64) *Engine {
	return &Engine{
		Memory:          mem,
		Instructions:    instructions,
		ImportFolder:    importFolder,
		MaxInstructions: maxInstructions,
		Log:             NewResultLog(),
	}
}

// Run drives the fetch-decode-execute loop until HLT, a failed
// Result, end of program, or the instruction-count budget is spent
// — a runaway-loop safeguard. It returns the final
// Result — success unless the run was cut short by an error or the
// budget.
func (e *Engine) Run() parser.Result {
	for {
		if e.Halted {
			return parser.Result{Success: true, Message: "halted"}
		}
		if int(e.PC) >= len(e.Instructions) {
			return parser.Result{Success: true, Message: "end of program"}
		}
		if e.MaxInstructions > 0 && e.executed >= e.MaxInstructions {
			msg := fmt.Sprintf("instruction budget of %d exceeded", e.MaxInstructions)
			budgetResult := parser.Result{Success: false, Message: msg}
			e.Log.Add(budgetResult, VerbosityControlFlow)
			return budgetResult
		}

		res := e.Step()
		if !res.Success {
			return res
		}
	}
}

// Step executes exactly one instruction at the current PC, advancing
// PC by one unless the handler itself retargeted it (jumps, CAL, RET)
// or halted the engine. A panic inside a handler — e.g. an argument
// slice shorter than the opcode's argument count — is recovered and
// converted into a failed Result naming the offending source line.
func (e *Engine) Step() (result parser.Result) {
	inst := e.Instructions[e.PC]
	startPC := e.PC

	defer func() {
		if r := recover(); r != nil {
			result = parser.Result{
				Success: false,
				Message: fmt.Sprintf("fault at %q: %v", inst.SourceLine, r),
				Kind:    parser.ErrorDereference,
			}
			e.Log.Add(result, VerbosityControlFlow)
		}
	}()

	e.executed++

	if inst.OpcodeID == 0 {
		e.PC++
		return parser.Result{Success: true, Message: "no-op"}
	}

	op, ok := OpcodeByID(inst.OpcodeID)
	if !ok {
		result = parser.Result{Success: false, Message: "no handler for opcode id " + fmt.Sprint(inst.OpcodeID), Kind: parser.ErrorSyntax}
		e.Log.Add(result, VerbosityControlFlow)
		return result
	}

	result = op.Handler(e, inst.SourceLine, inst.Args)
	e.Log.Add(result, op.Verbose)
	if e.PC == startPC && !e.Halted {
		e.PC++
	}
	return result
}
