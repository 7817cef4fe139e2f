// Package loader turns a source file on disk into a running
// engine.Engine: read the file, splice imports and resolve labels via
// package parser, assemble every line, map the configured memory
// layout, and set the program counter to the entry label. Grounded on
// a read/build/map/encode
// ordering, generalized from ARM's segment-and-directive model to
// KIP's single flat memory block with no directives to process.
package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bthedestroyer/kip/config"
	"github.com/bthedestroyer/kip/engine"
	"github.com/bthedestroyer/kip/parser"
)

// Program is everything LoadFile produces: an assembled, ready-to-run
// Engine plus the label table and source map a debugger needs.
type Program struct {
	Engine    *engine.Engine
	Labels    map[string]parser.Argument
	SourceMap map[uint32]string
}

// LoadFile reads path, splices its imports relative to path's
// directory, builds the label context, assembles every instruction,
// and wires a fresh Engine backed by a single buffer-backed memory
// block sized per cfg.Memory.
func LoadFile(path string, cfg *config.Config) (*Program, error) {
	raw, err := os.ReadFile(path) // #nosec G304 -- path is operator-supplied on the command line
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	importRoot := filepath.Dir(path)
	if cfg.Memory.ImportRoot != "" && cfg.Memory.ImportRoot != "." {
		importRoot = cfg.Memory.ImportRoot
	}

	sourceLines := strings.Split(string(raw), "\n")
	lines, ctx, res := parser.BuildContext(sourceLines, importRoot)
	if !res.Success {
		return nil, fmt.Errorf("failed to build context for %s: %s", path, res.Message)
	}

	instructions, err := engine.Assemble(lines, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to assemble %s: %w", path, err)
	}

	mem := engine.NewMemory()
	if err := mem.Map(engine.Block{
		MappedStart: 0,
		Size:        cfg.Memory.Size,
		Buffer:      make([]byte, cfg.Memory.Size),
	}); err != nil {
		return nil, fmt.Errorf("failed to map default memory block: %w", err)
	}
	if !mem.SetStackPointer(cfg.Memory.StackTop) {
		return nil, fmt.Errorf("configured stack_top 0x%X is outside the mapped memory block", cfg.Memory.StackTop)
	}

	eng := engine.NewEngine(mem, instructions, importRoot, cfg.Execution.MaxInstructions)
	eng.PC = ctx.ProgramCounter

	sourceMap := make(map[uint32]string, len(instructions))
	for i, inst := range instructions {
		sourceMap[uint32(i)] = inst.SourceLine
	}

	return &Program{Engine: eng, Labels: ctx.Labels, SourceMap: sourceMap}, nil
}
