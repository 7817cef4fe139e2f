// Package debugger implements a textual, non-GUI front end over a
// running engine.Engine: a line command interpreter (the
// Debugger.ExecuteCommand method's dispatch) and
// a tcell/tview TUI (tui.go) that renders the same state. Breakpoints
// are PC-only (engine has no register file to watch), and expression
// evaluation is intentionally absent — print/x/set take a label name
// or a bare numeric address, resolved the same way the assembler
// resolves one.
package debugger

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bthedestroyer/kip/engine"
	"github.com/bthedestroyer/kip/parser"
)

// StepMode represents different stepping modes.
type StepMode int

const (
	StepNone   StepMode = iota // Not stepping
	StepSingle                 // Step one instruction
)

// Debugger wraps a running Engine with breakpoints, command history,
// and an output buffer collected between prompts.
type Debugger struct {
	Eng *engine.Engine

	Breakpoints *BreakpointManager
	History     *CommandHistory

	Running  bool
	StepMode StepMode

	// Labels resolves symbolic names to addresses for break/print/x/set.
	Labels map[string]parser.Argument

	// SourceMap maps instruction index (== PC) to its original source line.
	SourceMap map[uint32]string

	LastCommand string
	Output      strings.Builder
}

// NewDebugger wires a Debugger around an already-assembled Engine.
func NewDebugger(eng *engine.Engine, labels map[string]parser.Argument, sourceMap map[uint32]string) *Debugger {
	return &Debugger{
		Eng:         eng,
		Breakpoints: NewBreakpointManager(),
		History:     NewCommandHistory(),
		Labels:      labels,
		SourceMap:   sourceMap,
	}
}

// ResolveAddress resolves a label to an address, or parses a literal
// address using the same radix prefixes the assembler accepts ($ hex,
// : binary, # octal, otherwise decimal).
func (d *Debugger) ResolveAddress(tok string) (uint32, error) {
	if arg, ok := d.Labels[strings.ToUpper(tok)]; ok {
		if data, ok := parser.AsData(arg); ok {
			return data.Value, nil
		}
		return 0, fmt.Errorf("%s is not an address-valued label", tok)
	}

	arg, err := parser.ParseArgument(tok, nil)
	if err != nil {
		return 0, fmt.Errorf("invalid address: %s", tok)
	}
	data, ok := parser.AsData(arg)
	if !ok {
		return 0, fmt.Errorf("invalid address: %s", tok)
	}
	return data.Value, nil
}

// ExecuteCommand parses and dispatches a single line of debugger
// input. An empty line repeats the last command, a common REPL
// convention for step/next-style commands.
func (d *Debugger) ExecuteCommand(cmdLine string) error {
	cmdLine = strings.TrimSpace(cmdLine)
	if cmdLine == "" {
		cmdLine = d.LastCommand
	}
	if cmdLine != "" {
		d.History.Add(cmdLine)
		d.LastCommand = cmdLine
	}

	parts := strings.Fields(cmdLine)
	if len(parts) == 0 {
		return nil
	}

	cmd := strings.ToLower(parts[0])
	args := parts[1:]
	return d.handleCommand(cmd, args)
}

func (d *Debugger) handleCommand(cmd string, args []string) error {
	switch cmd {
	case "run", "r":
		return d.cmdRun(args)
	case "continue", "c":
		return d.cmdContinue(args)
	case "step", "s", "si":
		return d.cmdStep(args)

	case "break", "b":
		return d.cmdBreak(args)
	case "tbreak", "tb":
		return d.cmdTBreak(args)
	case "delete", "d":
		return d.cmdDelete(args)
	case "enable":
		return d.cmdEnable(args)
	case "disable":
		return d.cmdDisable(args)

	case "print", "p":
		return d.cmdPrint(args)
	case "x":
		return d.cmdExamine(args)
	case "info", "i":
		return d.cmdInfo(args)
	case "list", "l":
		return d.cmdList(args)

	case "set":
		return d.cmdSet(args)
	case "eval", "e":
		return d.cmdEval(args)
	case "reset":
		return d.cmdReset(args)

	case "help", "h", "?":
		return d.cmdHelp(args)

	default:
		return fmt.Errorf("unknown command: %s (type 'help' for available commands)", cmd)
	}
}

// ShouldBreak reports whether execution should pause before the
// instruction at the engine's current PC executes.
func (d *Debugger) ShouldBreak() (bool, string) {
	pc := d.Eng.PC

	if d.StepMode == StepSingle {
		d.StepMode = StepNone
		return true, "single step"
	}

	bp := d.Breakpoints.GetBreakpoint(pc)
	if bp == nil || !bp.Enabled {
		return false, ""
	}

	bp.HitCount++
	if bp.Temporary {
		_ = d.Breakpoints.DeleteBreakpoint(bp.ID)
	}
	return true, fmt.Sprintf("breakpoint %d", bp.ID)
}

// GetOutput returns and clears the output buffer.
func (d *Debugger) GetOutput() string {
	out := d.Output.String()
	d.Output.Reset()
	return out
}

func (d *Debugger) Printf(format string, args ...interface{}) {
	d.Output.WriteString(fmt.Sprintf(format, args...))
}

func (d *Debugger) Println(args ...interface{}) {
	d.Output.WriteString(fmt.Sprintln(args...))
}

// argAsData extracts the address value from a label's Argument, for
// callers (the TUI) that only care about the numeric value.
func argAsData(a parser.Argument) (uint32, bool) {
	d, ok := parser.AsData(a)
	return d.Value, ok
}

func atoiOrErr(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid breakpoint ID: %s", s)
	}
	return n, nil
}
