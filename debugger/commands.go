package debugger

import (
	"fmt"
	"strings"

	"github.com/bthedestroyer/kip/engine"
)

// cmdRun resets the engine's program counter and halt flag, then
// begins execution from the top.
func (d *Debugger) cmdRun(args []string) error {
	d.Eng.PC = 0
	d.Eng.Halted = false
	d.Running = true
	d.StepMode = StepNone
	d.Println("Starting program execution...")
	return nil
}

func (d *Debugger) cmdContinue(args []string) error {
	if d.Eng.Halted {
		return fmt.Errorf("program is not running")
	}
	d.Running = true
	d.StepMode = StepNone
	d.Println("Continuing...")
	return nil
}

func (d *Debugger) cmdStep(args []string) error {
	d.StepMode = StepSingle
	d.Running = true
	return nil
}

func (d *Debugger) cmdBreak(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: break <address|label>")
	}
	address, err := d.ResolveAddress(args[0])
	if err != nil {
		return err
	}
	bp := d.Breakpoints.AddBreakpoint(address, false, "")
	d.Printf("Breakpoint %d at instruction %d\n", bp.ID, address)
	return nil
}

func (d *Debugger) cmdTBreak(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: tbreak <address|label>")
	}
	address, err := d.ResolveAddress(args[0])
	if err != nil {
		return err
	}
	bp := d.Breakpoints.AddBreakpoint(address, true, "")
	d.Printf("Temporary breakpoint %d at instruction %d\n", bp.ID, address)
	return nil
}

func (d *Debugger) cmdDelete(args []string) error {
	if len(args) == 0 {
		d.Breakpoints.Clear()
		d.Println("All breakpoints deleted")
		return nil
	}
	id, err := atoiOrErr(args[0])
	if err != nil {
		return err
	}
	if err := d.Breakpoints.DeleteBreakpoint(id); err != nil {
		return err
	}
	d.Printf("Breakpoint %d deleted\n", id)
	return nil
}

func (d *Debugger) cmdEnable(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: enable <breakpoint-id>")
	}
	id, err := atoiOrErr(args[0])
	if err != nil {
		return err
	}
	if err := d.Breakpoints.EnableBreakpoint(id); err != nil {
		return err
	}
	d.Printf("Breakpoint %d enabled\n", id)
	return nil
}

func (d *Debugger) cmdDisable(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: disable <breakpoint-id>")
	}
	id, err := atoiOrErr(args[0])
	if err != nil {
		return err
	}
	if err := d.Breakpoints.DisableBreakpoint(id); err != nil {
		return err
	}
	d.Printf("Breakpoint %d disabled\n", id)
	return nil
}

// cmdPrint prints the current byte and word value at a label or
// address, without advancing the engine.
func (d *Debugger) cmdPrint(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: print <label|address>")
	}
	addr, err := d.ResolveAddress(args[0])
	if err != nil {
		return err
	}
	b, bOK := d.Eng.Memory.ReadByte(addr)
	w, wOK := d.Eng.Memory.ReadWord(addr)
	switch {
	case wOK:
		d.Printf("0x%X = 0x%X (word), 0x%02X (byte)\n", addr, w, b)
	case bOK:
		d.Printf("0x%X = 0x%02X (byte)\n", addr, b)
	default:
		return fmt.Errorf("0x%X is unmapped", addr)
	}
	return nil
}

// cmdExamine dumps count bytes of memory starting at an address, 16
// bytes per line, matching a familiar x/nfu layout minus the
// format/unit letters this ISA has no use for.
func (d *Debugger) cmdExamine(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: x <address> [count]")
	}
	addr, err := d.ResolveAddress(args[0])
	if err != nil {
		return err
	}
	count := 16
	if len(args) > 1 {
		n, err := atoiOrErr(args[1])
		if err != nil {
			return err
		}
		count = n
	}
	for i := 0; i < count; i += 16 {
		d.Printf("0x%08X:", addr+uint32(i))
		for j := 0; j < 16 && i+j < count; j++ {
			v, ok := d.Eng.Memory.ReadByte(addr + uint32(i+j))
			if !ok {
				d.Printf(" --")
				continue
			}
			d.Printf(" %02X", v)
		}
		d.Println()
	}
	return nil
}

func (d *Debugger) cmdInfo(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: info <breakpoints|log|labels|stack>")
	}
	switch strings.ToLower(args[0]) {
	case "breakpoints", "break", "b":
		return d.showBreakpoints()
	case "log":
		return d.showLog()
	case "labels":
		return d.showLabels()
	case "stack":
		return d.showStack()
	default:
		return fmt.Errorf("unknown info command: %s", args[0])
	}
}

func (d *Debugger) showBreakpoints() error {
	breakpoints := d.Breakpoints.GetAllBreakpoints()
	if len(breakpoints) == 0 {
		d.Println("No breakpoints")
		return nil
	}
	d.Println("Breakpoints:")
	for _, bp := range breakpoints {
		status := "enabled"
		if !bp.Enabled {
			status = "disabled"
		}
		temp := ""
		if bp.Temporary {
			temp = " (temporary)"
		}
		d.Printf("  %d: instruction %d %s%s (hit %d times)\n", bp.ID, bp.Address, status, temp, bp.HitCount)
	}
	return nil
}

func (d *Debugger) showLog() error {
	entries := d.Eng.Log.Entries()
	if len(entries) == 0 {
		d.Println("Result log is empty")
		return nil
	}
	for _, r := range entries {
		mark := "ok "
		if !r.Success {
			mark = "ERR"
		}
		d.Printf("[%s] %s\n", mark, r.Message)
	}
	return nil
}

func (d *Debugger) showLabels() error {
	if len(d.Labels) == 0 {
		d.Println("No labels")
		return nil
	}
	d.Println("Labels:")
	for name := range d.Labels {
		d.Printf("  %s\n", name)
	}
	return nil
}

func (d *Debugger) showStack() error {
	sp, set := d.Eng.Memory.StackPointer()
	if !set {
		d.Println("Stack pointer is not set")
		return nil
	}
	d.Printf("Stack (SP = 0x%X):\n", sp)
	for i := 0; i < 8; i++ {
		addr := sp + uint32(i*4)
		v, ok := d.Eng.Memory.ReadWord(addr)
		if !ok {
			break
		}
		d.Printf("  0x%X: 0x%X\n", addr, v)
	}
	return nil
}

// cmdList shows the source line at the current PC, plus a few lines
// of surrounding context.
func (d *Debugger) cmdList(args []string) error {
	pc := d.Eng.PC
	if source, ok := d.SourceMap[pc]; ok {
		d.Printf("=> %d: %s\n", pc, source)
	} else {
		d.Printf("=> %d: <no source>\n", pc)
	}
	for offset := uint32(1); offset <= 4; offset++ {
		addr := pc + offset
		if source, ok := d.SourceMap[addr]; ok {
			d.Printf("   %d: %s\n", addr, source)
		}
	}
	return nil
}

// cmdSet writes a word value to a label or address without executing
// an instruction — useful for poking state between breakpoint stops.
func (d *Debugger) cmdSet(args []string) error {
	if len(args) < 3 || args[1] != "=" {
		return fmt.Errorf("usage: set <label|address> = <value>")
	}
	addr, err := d.ResolveAddress(args[0])
	if err != nil {
		return err
	}
	valArg, err := d.ResolveAddress(args[2])
	if err != nil {
		return err
	}
	if !d.Eng.Memory.WriteWord(addr, valArg) {
		return fmt.Errorf("0x%X is unmapped", addr)
	}
	d.Printf("0x%X set to 0x%X\n", addr, valArg)
	return nil
}

// cmdEval evaluates a single line of source against the running
// engine's memory with no Context and no program counter — labels
// don't resolve and jumps/HLT/CAL/RET are rejected outright. Useful
// for poking a store or arithmetic opcode between breakpoint stops
// without assembling a whole program around it.
func (d *Debugger) cmdEval(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: eval <opcode> <args...>")
	}
	line := strings.Join(args, " ")
	res := engine.InterpretLine(d.Eng.Memory, d.Eng.ImportFolder, line)
	if !res.Success {
		return fmt.Errorf("%s", res.Message)
	}
	d.Println(res.Message)
	return nil
}

func (d *Debugger) cmdReset(args []string) error {
	d.Eng.PC = 0
	d.Eng.Halted = false
	d.Running = false
	d.Println("Engine reset")
	return nil
}

func (d *Debugger) cmdHelp(args []string) error {
	if len(args) > 0 {
		return d.showCommandHelp(args[0])
	}

	d.Println("KIP Debugger Commands:")
	d.Println()
	d.Println("Execution Control:")
	d.Println("  run (r)           - Start program execution")
	d.Println("  continue (c)      - Continue execution")
	d.Println("  step (s, si)      - Execute single instruction")
	d.Println()
	d.Println("Breakpoints:")
	d.Println("  break (b) <addr>  - Set breakpoint")
	d.Println("  tbreak (tb) <addr>- Set temporary breakpoint")
	d.Println("  delete (d) [id]   - Delete breakpoint(s)")
	d.Println("  enable <id>       - Enable breakpoint")
	d.Println("  disable <id>      - Disable breakpoint")
	d.Println()
	d.Println("Inspection:")
	d.Println("  print (p) <addr>  - Print memory value")
	d.Println("  x <addr> [count]  - Examine memory")
	d.Println("  info (i) <what>   - Show breakpoints/log/labels/stack")
	d.Println("  list (l)          - List source code")
	d.Println()
	d.Println("Modification:")
	d.Println("  set <addr> = <val> - Write memory")
	d.Println("  eval (e) <opcode args...> - Evaluate one instruction with no PC/labels")
	d.Println()
	d.Println("Control:")
	d.Println("  reset             - Reset engine")
	d.Println("  help (h, ?)       - Show this help")

	return nil
}

func (d *Debugger) showCommandHelp(cmd string) error {
	helpText := map[string]string{
		"break": "break <address|label>\n  Set a breakpoint before the instruction at the given PC.",
		"step":  "step\n  Execute a single instruction.",
		"print": "print <label|address>\n  Print the byte and word value stored at an address.",
		"x":     "x <address> [count]\n  Dump count bytes of memory (default 16) in hex.",
		"info":  "info <breakpoints|log|labels|stack>\n  Display information about engine state.",
		"eval":  "eval <opcode> <args...>\n  Evaluate one instruction against memory with no Context and no PC.\n  Labels don't resolve; jumps, HLT, CAL, and RET are rejected.",
	}
	if help, ok := helpText[cmd]; ok {
		d.Println(help)
		return nil
	}
	return fmt.Errorf("no help available for command: %s", cmd)
}
