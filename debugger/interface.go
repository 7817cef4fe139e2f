package debugger

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// RunCLI runs the line-oriented debugger REPL over stdin/stdout.
func RunCLI(dbg *Debugger) error {
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("(kip-dbg) ")

		if !scanner.Scan() {
			break
		}

		cmdLine := strings.TrimSpace(scanner.Text())
		if cmdLine == "quit" || cmdLine == "q" || cmdLine == "exit" {
			fmt.Println("Exiting debugger...")
			break
		}

		if err := dbg.ExecuteCommand(cmdLine); err != nil {
			fmt.Printf("Error: %v\n", err)
		}

		if output := dbg.GetOutput(); output != "" {
			fmt.Print(output)
		}

		if dbg.Running {
			for dbg.Running {
				if shouldBreak, reason := dbg.ShouldBreak(); shouldBreak {
					dbg.Running = false
					fmt.Printf("Stopped: %s at instruction %d\n", reason, dbg.Eng.PC)
					break
				}

				res := dbg.Eng.Step()
				if dbg.Eng.Halted {
					dbg.Running = false
					fmt.Println("Program halted")
					break
				}
				if !res.Success {
					fmt.Printf("Runtime error: %s\n", res.Message)
					dbg.Running = false
					break
				}
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("input error: %w", err)
	}
	return nil
}

// RunTUI runs the tcell/tview text-UI debugger.
func RunTUI(dbg *Debugger) error {
	tui := NewTUI(dbg)
	return tui.Run()
}
