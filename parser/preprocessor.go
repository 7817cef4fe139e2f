package parser

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Preprocessor resolves `<path` import directives by textual
// inclusion, restarting the scan from the top of the line list after
// every splice. Grounded on
// parser.Preprocessor, generalized from `.include` to KIP's `<`
// import lines and switched from a slice-scan include stack to a set
// of canonical paths, and rejects cyclic includes outright rather than
// silently looping forever.
type Preprocessor struct {
	baseDir  string
	imported map[string]struct{}
}

// NewPreprocessor creates a preprocessor resolving imports relative
// to baseDir.
func NewPreprocessor(baseDir string) *Preprocessor {
	if baseDir == "" {
		baseDir = "."
	}
	return &Preprocessor{
		baseDir:  baseDir,
		imported: make(map[string]struct{}),
	}
}

// ProcessLines runs Phase 1 over a mutable line list: every line
// (after leading-space trim) starting with `<` is an import whose
// remainder is a filename relative to baseDir. The named file is
// loaded and spliced in place of the directive, and iteration
// restarts at the beginning of the list so nested imports are
// resolved. A missing filename, an unreadable file, or a cyclic
// include halts processing and returns a failed Result.
func (p *Preprocessor) ProcessLines(lines []string) ([]string, Result) {
	result := append([]string(nil), lines...)

	for {
		spliceIdx := -1
		var path string
		for i, line := range result {
			trimmed := strings.TrimLeft(line, " ")
			if strings.HasPrefix(trimmed, "<") {
				spliceIdx = i
				path = strings.TrimSpace(trimmed[1:])
				break
			}
		}
		if spliceIdx == -1 {
			break
		}
		if path == "" {
			return nil, Result{Success: false, Message: "import directive missing filename", Kind: ErrorResolution}
		}

		abs, err := filepath.Abs(filepath.Join(p.baseDir, path))
		if err != nil {
			return nil, Result{Success: false, Message: fmt.Sprintf("cannot resolve import path %q: %v", path, err), Kind: ErrorResolution}
		}
		if _, cyclic := p.imported[abs]; cyclic {
			return nil, Result{Success: false, Message: fmt.Sprintf("cyclic include detected: %s", path), Kind: ErrorResolution}
		}

		contents, err := os.ReadFile(abs) // #nosec G304 -- assembly source import, path is user-controlled by design
		if err != nil {
			return nil, Result{Success: false, Message: fmt.Sprintf("failed to read import %q: %v", path, err), Kind: ErrorResolution}
		}

		p.imported[abs] = struct{}{}
		imported := strings.Split(string(contents), "\n")

		spliced := make([]string, 0, len(result)-1+len(imported))
		spliced = append(spliced, result[:spliceIdx]...)
		spliced = append(spliced, imported...)
		spliced = append(spliced, result[spliceIdx+1:]...)
		result = spliced
		// Restart from the top: the splice may have introduced new
		// import directives earlier in file order than this one.
	}

	return result, Result{Success: true}
}
