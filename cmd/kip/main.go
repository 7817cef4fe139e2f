package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/bthedestroyer/kip/config"
	"github.com/bthedestroyer/kip/debugger"
	"github.com/bthedestroyer/kip/loader"
	"github.com/bthedestroyer/kip/tools"
)

// Version information, overridden at build time with:
// go build -ldflags "-X main.Version=v1.2.3"
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

func main() {
	var (
		showVersion     = flag.Bool("version", false, "Show version information")
		showHelp        = flag.Bool("help", false, "Show help information")
		debugMode       = flag.Bool("debug", false, "Start in debugger mode")
		tuiMode         = flag.Bool("tui", false, "Use TUI (text user interface) debugger")
		maxInstructions = flag.Uint64("max-instructions", 0, "Maximum instructions before halt (default: from config)")
		verbosity       = flag.Uint("verbosity", 0, "Result log verbosity 0-3 (default: from config)")
		verboseMode     = flag.Bool("verbose", false, "Print a summary after execution")
		importRoot      = flag.String("import-root", "", "Base directory for < imports (default: the program's own directory)")
		lintMode        = flag.Bool("lint", false, "Lint the program and exit")
		xrefMode        = flag.Bool("xref", false, "Print a label cross-reference and exit")
		formatMode      = flag.Bool("format", false, "Print the program reformatted and exit")
	)

	flag.Parse()

	if *showVersion {
		fmt.Printf("kip %s (commit %s, built %s)\n", Version, Commit, Date)
		os.Exit(0)
	}
	if *showHelp || flag.NArg() == 0 {
		printHelp()
		if *showHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	path := flag.Arg(0)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Error: file not found: %s\n", path)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *maxInstructions > 0 {
		cfg.Execution.MaxInstructions = *maxInstructions
	}
	if *verbosity > 0 {
		cfg.Execution.Verbosity = uint8(*verbosity)
	}
	if *importRoot != "" {
		cfg.Memory.ImportRoot = *importRoot
	}

	if *lintMode || *xrefMode || *formatMode {
		runSourceTool(path, *lintMode, *xrefMode, *formatMode)
		return
	}

	prog, err := loader.LoadFile(path, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading %s: %v\n", path, err)
		os.Exit(1)
	}
	prog.Engine.Log.Verbosity = cfg.Execution.Verbosity

	if *debugMode || *tuiMode {
		dbg := debugger.NewDebugger(prog.Engine, prog.Labels, prog.SourceMap)

		if *tuiMode {
			if err := debugger.RunTUI(dbg); err != nil {
				fmt.Fprintf(os.Stderr, "TUI error: %v\n", err)
				os.Exit(1)
			}
			return
		}

		fmt.Println("kip debugger - type 'help' for commands")
		fmt.Printf("Program loaded: %s\n", path)
		fmt.Println()
		if err := debugger.RunCLI(dbg); err != nil {
			fmt.Fprintf(os.Stderr, "Debugger error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if *verboseMode {
		fmt.Printf("Running %s (max instructions: %d)\n", path, cfg.Execution.MaxInstructions)
	}

	res := prog.Engine.Run()

	for _, entry := range prog.Engine.Log.Entries() {
		fmt.Println(entry.Message)
	}

	if !res.Success {
		fmt.Fprintf(os.Stderr, "Halted: %s\n", res.Message)
		os.Exit(1)
	}

	if *verboseMode {
		fmt.Printf("Execution complete: %s\n", res.Message)
	}
}

func runSourceTool(path string, lintMode, xrefMode, formatMode bool) {
	raw, err := os.ReadFile(path) // #nosec G304 -- path is operator-supplied on the command line
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", path, err)
		os.Exit(1)
	}
	sourceLines := splitLines(string(raw))

	if lintMode {
		issues := tools.NewLinter(tools.DefaultLintOptions()).Lint(sourceLines)
		for _, issue := range issues {
			fmt.Println(issue.String())
		}
		for _, issue := range issues {
			if issue.Level == tools.LintError {
				os.Exit(1)
			}
		}
	}
	if xrefMode {
		fmt.Print(tools.GenerateXRef(sourceLines))
	}
	if formatMode {
		out, err := tools.FormatString(string(raw))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error formatting %s: %v\n", path, err)
			os.Exit(1)
		}
		fmt.Println(out)
	}
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	return append(lines, s[start:])
}

func printHelp() {
	fmt.Printf(`kip %s

Usage: kip [options] <program.kip>

Options:
  -help                Show this help message
  -version             Show version information
  -debug                Start in debugger mode (CLI)
  -tui                  Start in TUI debugger mode
  -max-instructions N   Maximum instructions before halt (default: from config)
  -verbosity N          Result log verbosity 0-3 (default: from config)
  -verbose              Print a summary after execution
  -import-root DIR      Base directory for < imports (default: the program's own directory)
  -lint                 Lint the program and exit
  -xref                 Print a label cross-reference and exit
  -format               Print the program reformatted and exit

Examples:
  kip run.kip
  kip -debug run.kip
  kip -tui run.kip
  kip -lint run.kip
`, Version)
}
