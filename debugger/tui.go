package debugger

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// TUI is the tcell/tview text user interface over a Debugger. Panel
// layout (source | status/memory/stack + breakpoints, output,
// command line) is grounded on a split-pane tview layout; the
// register panel has no KIP analogue (there is no register file) and
// is replaced by a status panel showing PC/halt state.
type TUI struct {
	Debugger *Debugger
	App      *tview.Application
	Pages    *tview.Pages

	MainLayout *tview.Flex
	LeftPanel  *tview.Flex
	RightPanel *tview.Flex

	SourceView      *tview.TextView
	StatusView      *tview.TextView
	MemoryView      *tview.TextView
	StackView       *tview.TextView
	BreakpointsView *tview.TextView
	OutputView      *tview.TextView
	CommandInput    *tview.InputField

	MemoryAddress uint32
}

// NewTUI builds the full panel layout around an existing Debugger.
func NewTUI(debugger *Debugger) *TUI {
	t := &TUI{Debugger: debugger, App: tview.NewApplication()}
	t.initializeViews()
	t.buildLayout()
	t.setupKeyBindings()
	return t
}

func (t *TUI) initializeViews() {
	t.SourceView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true).SetWrap(false)
	t.SourceView.SetBorder(true).SetTitle(" Source ")

	t.StatusView = tview.NewTextView().SetDynamicColors(true).SetScrollable(false)
	t.StatusView.SetBorder(true).SetTitle(" Status ")

	t.MemoryView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true).SetWrap(false)
	t.MemoryView.SetBorder(true).SetTitle(" Memory ")

	t.StackView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true).SetWrap(false)
	t.StackView.SetBorder(true).SetTitle(" Stack ")

	t.BreakpointsView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true).SetWrap(false)
	t.BreakpointsView.SetBorder(true).SetTitle(" Breakpoints ")

	t.OutputView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true).SetWrap(true)
	t.OutputView.SetBorder(true).SetTitle(" Result log ")

	t.CommandInput = tview.NewInputField().SetLabel("> ").SetFieldWidth(0)
	t.CommandInput.SetBorder(true).SetTitle(" Command ")
	t.CommandInput.SetDoneFunc(t.handleCommand)
}

func (t *TUI) buildLayout() {
	t.LeftPanel = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(t.SourceView, 0, 1, false)

	rightTop := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(t.StatusView, 4, 0, false).
		AddItem(t.MemoryView, 0, 1, false).
		AddItem(t.StackView, 0, 1, false)

	t.RightPanel = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(rightTop, 0, 3, false).
		AddItem(t.BreakpointsView, 8, 0, false)

	mainContent := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(t.LeftPanel, 0, 2, false).
		AddItem(t.RightPanel, 0, 1, false)

	t.MainLayout = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(mainContent, 0, 4, false).
		AddItem(t.OutputView, 8, 0, false).
		AddItem(t.CommandInput, 3, 0, true)

	t.Pages = tview.NewPages().AddPage("main", t.MainLayout, true, true)
}

func (t *TUI) setupKeyBindings() {
	t.App.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyF1:
			t.executeCommand("help")
			return nil
		case tcell.KeyF5:
			t.executeCommand("continue")
			return nil
		case tcell.KeyF11:
			t.executeCommand("step")
			return nil
		case tcell.KeyCtrlC:
			t.App.Stop()
			return nil
		case tcell.KeyCtrlL:
			t.RefreshAll()
			return nil
		}
		return event
	})
}

func (t *TUI) handleCommand(key tcell.Key) {
	if key == tcell.KeyEnter {
		cmd := t.CommandInput.GetText()
		if cmd != "" {
			t.executeCommand(cmd)
			t.CommandInput.SetText("")
		}
	}
}

func (t *TUI) executeCommand(cmd string) {
	t.Debugger.Output.Reset()
	err := t.Debugger.ExecuteCommand(cmd)
	output := t.Debugger.GetOutput()

	if err != nil {
		t.WriteOutput(fmt.Sprintf("[red]Error:[white] %v\n", err))
	}
	if output != "" {
		t.WriteOutput(output)
	}

	if t.Debugger.Running {
		for t.Debugger.Running {
			if shouldBreak, reason := t.Debugger.ShouldBreak(); shouldBreak {
				t.Debugger.Running = false
				t.WriteOutput(fmt.Sprintf("[yellow]Stopped:[white] %s at instruction %d\n", reason, t.Debugger.Eng.PC))
				break
			}
			res := t.Debugger.Eng.Step()
			if t.Debugger.Eng.Halted {
				t.Debugger.Running = false
				t.WriteOutput("[green]Program halted[white]\n")
				break
			}
			if !res.Success {
				t.Debugger.Running = false
				t.WriteOutput(fmt.Sprintf("[red]Runtime error:[white] %s\n", res.Message))
				break
			}
		}
	}

	t.RefreshAll()
}

func (t *TUI) WriteOutput(text string) {
	_, _ = t.OutputView.Write([]byte(text))
	t.OutputView.ScrollToEnd()
}

func (t *TUI) RefreshAll() {
	t.UpdateSourceView()
	t.UpdateStatusView()
	t.UpdateMemoryView()
	t.UpdateStackView()
	t.UpdateBreakpointsView()
	t.App.Draw()
}

func (t *TUI) UpdateSourceView() {
	t.SourceView.Clear()
	if len(t.Debugger.SourceMap) == 0 {
		t.SourceView.SetText("[yellow]No source code available[white]")
		return
	}

	pc := t.Debugger.Eng.PC
	var start uint32
	if pc > 10 {
		start = pc - 10
	}

	var lines []string
	for addr := start; addr < pc+30; addr++ {
		source, exists := t.Debugger.SourceMap[addr]
		if !exists {
			continue
		}
		marker, color := "  ", "white"
		if addr == pc {
			marker, color = "->", "yellow"
		}
		if t.Debugger.Breakpoints.GetBreakpoint(addr) != nil {
			marker = "* "
		}
		lines = append(lines, fmt.Sprintf("[%s]%s %4d: %s[white]", color, marker, addr, source))
	}
	t.SourceView.SetText(strings.Join(lines, "\n"))
}

func (t *TUI) UpdateStatusView() {
	t.StatusView.Clear()
	halted := "running"
	if t.Debugger.Eng.Halted {
		halted = "halted"
	}
	sp, spSet := t.Debugger.Eng.Memory.StackPointer()
	spText := "unset"
	if spSet {
		spText = fmt.Sprintf("0x%X", sp)
	}
	t.StatusView.SetText(fmt.Sprintf("PC: %d  [%s]\nSP: %s", t.Debugger.Eng.PC, halted, spText))
}

func (t *TUI) UpdateMemoryView() {
	t.MemoryView.Clear()
	addr := t.MemoryAddress

	var lines []string
	lines = append(lines, fmt.Sprintf("[yellow]Address: 0x%08X[white]", addr))

	for row := 0; row < 8; row++ {
		rowAddr := addr + uint32(row*16)
		line := fmt.Sprintf("0x%08X: ", rowAddr)
		var hexBytes []string
		var ascii []byte
		for col := 0; col < 16; col++ {
			b, ok := t.Debugger.Eng.Memory.ReadByte(rowAddr + uint32(col))
			if !ok {
				hexBytes = append(hexBytes, "??")
				ascii = append(ascii, '.')
				continue
			}
			hexBytes = append(hexBytes, fmt.Sprintf("%02X", b))
			if b >= 32 && b < 127 {
				ascii = append(ascii, b)
			} else {
				ascii = append(ascii, '.')
			}
		}
		line += strings.Join(hexBytes, " ") + "  " + string(ascii)
		lines = append(lines, line)
	}
	t.MemoryView.SetText(strings.Join(lines, "\n"))
}

func (t *TUI) UpdateStackView() {
	t.StackView.Clear()
	sp, set := t.Debugger.Eng.Memory.StackPointer()
	if !set {
		t.StackView.SetText("[yellow]Stack pointer is not set[white]")
		return
	}

	var lines []string
	lines = append(lines, fmt.Sprintf("[yellow]Stack Pointer: 0x%08X[white]", sp))
	for i := 0; i < 16; i++ {
		addr := sp + uint32(i*4)
		word, ok := t.Debugger.Eng.Memory.ReadWord(addr)
		if !ok {
			lines = append(lines, fmt.Sprintf("0x%08X: ????????", addr))
			continue
		}
		marker := "  "
		if addr == sp {
			marker = "->"
		}
		line := fmt.Sprintf("%s 0x%08X: 0x%08X", marker, addr, word)
		if sym := t.findLabelForAddress(word); sym != "" {
			line += fmt.Sprintf(" <%s>", sym)
		}
		lines = append(lines, line)
	}
	t.StackView.SetText(strings.Join(lines, "\n"))
}

func (t *TUI) UpdateBreakpointsView() {
	t.BreakpointsView.Clear()
	bps := t.Debugger.Breakpoints.GetAllBreakpoints()
	if len(bps) == 0 {
		t.BreakpointsView.SetText("[yellow]No breakpoints set[white]")
		return
	}

	var lines []string
	for _, bp := range bps {
		status, color := "enabled", "green"
		if !bp.Enabled {
			status, color = "disabled", "red"
		}
		line := fmt.Sprintf("  %d: [%s]%s[white] instruction %d", bp.ID, color, status, bp.Address)
		if sym := t.findLabelForAddress(bp.Address); sym != "" {
			line += fmt.Sprintf(" <%s>", sym)
		}
		line += fmt.Sprintf(" (hits: %d)", bp.HitCount)
		lines = append(lines, line)
	}
	t.BreakpointsView.SetText(strings.Join(lines, "\n"))
}

func (t *TUI) findLabelForAddress(addr uint32) string {
	for name, arg := range t.Debugger.Labels {
		if data, ok := argAsData(arg); ok && data == addr {
			return name
		}
	}
	return ""
}

// Run starts the TUI event loop.
func (t *TUI) Run() error {
	t.RefreshAll()
	t.WriteOutput("[green]KIP Debugger TUI[white]\n")
	t.WriteOutput("Press F1 for help, F5 to continue, F11 to step\n")
	t.WriteOutput("Type 'help' for command list\n\n")
	return t.App.SetRoot(t.Pages, true).SetFocus(t.CommandInput).Run()
}

// Stop ends the TUI event loop.
func (t *TUI) Stop() {
	t.App.Stop()
}

// LoadSource caches assembled source lines for display (currently the
// TUI reads directly from Debugger.SourceMap; retained so callers can
// swap in a freshly reloaded listing without rebuilding the Debugger).
func (t *TUI) LoadSource(sourceMap map[uint32]string) {
	t.Debugger.SourceMap = sourceMap
	t.UpdateSourceView()
}
