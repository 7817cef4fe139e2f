package debugger

import (
	"testing"

	"github.com/bthedestroyer/kip/engine"
	"github.com/bthedestroyer/kip/parser"
)

func newTestDebugger(t *testing.T) *Debugger {
	t.Helper()
	mem := engine.NewMemory()
	if err := mem.Map(engine.Block{MappedStart: 0, Size: 256, Buffer: make([]byte, 256)}); err != nil {
		t.Fatalf("Map: %v", err)
	}
	if !mem.SetStackPointer(256) {
		t.Fatal("SetStackPointer failed")
	}

	instructions := []engine.Instruction{
		{SourceLine: "STB 10 5", OpcodeID: 1, Args: []parser.Argument{
			parser.DataArg{Value: 10}, parser.DataArg{Value: 5},
		}},
		{SourceLine: "HLT", OpcodeID: 18},
	}

	eng := engine.NewEngine(mem, instructions, ".", 0)
	labels := map[string]parser.Argument{"DEST": parser.DataArg{Value: 10}}
	sourceMap := map[uint32]string{0: "STB 10 5", 1: "HLT"}
	return NewDebugger(eng, labels, sourceMap)
}

func TestDebugger_ResolveAddressLabel(t *testing.T) {
	d := newTestDebugger(t)
	addr, err := d.ResolveAddress("DEST")
	if err != nil {
		t.Fatalf("ResolveAddress: %v", err)
	}
	if addr != 10 {
		t.Errorf("addr = %d, want 10", addr)
	}
}

func TestDebugger_ResolveAddressLiteral(t *testing.T) {
	d := newTestDebugger(t)
	addr, err := d.ResolveAddress("$0A")
	if err != nil {
		t.Fatalf("ResolveAddress: %v", err)
	}
	if addr != 10 {
		t.Errorf("addr = %d, want 10", addr)
	}
}

func TestDebugger_BreakAndStep(t *testing.T) {
	d := newTestDebugger(t)

	if err := d.ExecuteCommand("break 0"); err != nil {
		t.Fatalf("break: %v", err)
	}
	d.GetOutput()

	if should, reason := d.ShouldBreak(); !should || reason != "breakpoint 1" {
		t.Errorf("ShouldBreak = %v, %q; want true, \"breakpoint 1\"", should, reason)
	}

	if err := d.ExecuteCommand("step"); err != nil {
		t.Fatalf("step: %v", err)
	}
	if !d.Running {
		t.Error("Running should be true after step command")
	}

	res := d.Eng.Step()
	if !res.Success {
		t.Fatalf("Step failed: %s", res.Message)
	}
	if d.Eng.PC != 1 {
		t.Errorf("PC = %d, want 1", d.Eng.PC)
	}
}

func TestDebugger_PrintAndSet(t *testing.T) {
	d := newTestDebugger(t)

	if err := d.ExecuteCommand("set DEST = 42"); err != nil {
		t.Fatalf("set: %v", err)
	}
	d.GetOutput()

	if err := d.ExecuteCommand("print DEST"); err != nil {
		t.Fatalf("print: %v", err)
	}
	out := d.GetOutput()
	if out == "" {
		t.Error("print produced no output")
	}
}

func TestDebugger_EmptyCommandRepeatsLast(t *testing.T) {
	d := newTestDebugger(t)
	if err := d.ExecuteCommand("info labels"); err != nil {
		t.Fatalf("info labels: %v", err)
	}
	d.GetOutput()

	if err := d.ExecuteCommand(""); err != nil {
		t.Fatalf("repeat: %v", err)
	}
	if d.LastCommand != "info labels" {
		t.Errorf("LastCommand = %q, want %q", d.LastCommand, "info labels")
	}
}

func TestDebugger_UnknownCommand(t *testing.T) {
	d := newTestDebugger(t)
	if err := d.ExecuteCommand("bogus"); err == nil {
		t.Error("expected error for unknown command")
	}
}
