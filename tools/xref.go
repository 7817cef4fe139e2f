package tools

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bthedestroyer/kip/parser"
)

// ReferenceType classifies how an instruction uses a label.
type ReferenceType int

const (
	RefDefinition ReferenceType = iota // label defined here (a `>` line)
	RefBranch                          // JMP/Jcc target
	RefCall                            // CAL target
	RefLoad                            // RDB/RDA/RDS source
	RefStore                           // STB/STA/STS/FIL/CPY destination
	RefData                            // any other operand reference
)

func (r ReferenceType) String() string {
	switch r {
	case RefDefinition:
		return "definition"
	case RefBranch:
		return "branch"
	case RefCall:
		return "call"
	case RefLoad:
		return "load"
	case RefStore:
		return "store"
	case RefData:
		return "data"
	default:
		return "unknown"
	}
}

// Reference is a single use (or definition) of a label.
type Reference struct {
	Type ReferenceType
	Line int
}

// Symbol collects every reference to one label across a source file.
type Symbol struct {
	Name       string
	Definition *Reference
	References []*Reference
	IsFunction bool // referenced by at least one CAL
}

var (
	branchMnemonics = map[string]bool{"JMP": true, "JEQ": true, "JNE": true, "JGT": true, "JLT": true, "JGE": true, "JLE": true}
	loadMnemonics   = map[string]bool{"RDB": true, "RDA": true, "RDS": true}
	storeMnemonics  = map[string]bool{"STB": true, "STA": true, "STS": true, "FIL": true, "CPY": true}
)

// XRefGenerator builds a label cross-reference from raw source lines.
// Grounded on a collect-definitions /
// collect-references / report pipeline, generalized from ARM's
// B/BL/LDR/STR mnemonic families to KIP's JMP/Jcc/CAL/RDx/STx ones.
type XRefGenerator struct {
	symbols map[string]*Symbol
}

// NewXRefGenerator creates an empty generator.
func NewXRefGenerator() *XRefGenerator {
	return &XRefGenerator{symbols: make(map[string]*Symbol)}
}

// Generate builds the cross-reference over sourceLines (already
// import-spliced).
func (x *XRefGenerator) Generate(sourceLines []string) map[string]*Symbol {
	x.collectDefinitions(sourceLines)
	x.collectReferences(sourceLines)
	x.analyzeCallGraph()
	return x.symbols
}

func (x *XRefGenerator) symbolFor(name string) *Symbol {
	if sym, ok := x.symbols[name]; ok {
		return sym
	}
	sym := &Symbol{Name: name}
	x.symbols[name] = sym
	return sym
}

func (x *XRefGenerator) collectDefinitions(sourceLines []string) {
	for i, raw := range sourceLines {
		trimmed := strings.TrimLeft(stripCommentForLint(raw), " ")
		if !strings.HasPrefix(trimmed, ">") {
			continue
		}
		name := labelNameFromDefinition(trimmed[1:])
		if name == "" {
			continue
		}
		x.symbolFor(name).Definition = &Reference{Type: RefDefinition, Line: i + 1}
	}
}

func (x *XRefGenerator) collectReferences(sourceLines []string) {
	for i, raw := range sourceLines {
		line := parser.LexLine(raw)
		if line.Mnemonic == "" || strings.HasPrefix(line.Mnemonic, ">") || strings.HasPrefix(line.Mnemonic, "<") {
			continue
		}

		refType := RefData
		switch {
		case branchMnemonics[line.Mnemonic]:
			refType = RefBranch
		case line.Mnemonic == "CAL":
			refType = RefCall
		case loadMnemonics[line.Mnemonic]:
			refType = RefLoad
		case storeMnemonics[line.Mnemonic]:
			refType = RefStore
		}

		for _, tok := range line.Tokens {
			bare := strings.TrimLeft(tok, "*")
			if bare == "" || strings.HasPrefix(bare, "\"") || isNumericToken(bare) {
				continue
			}
			name := strings.ToUpper(bare)
			sym := x.symbolFor(name)
			sym.References = append(sym.References, &Reference{Type: refType, Line: i + 1})
		}
	}
}

func (x *XRefGenerator) analyzeCallGraph() {
	for _, sym := range x.symbols {
		for _, ref := range sym.References {
			if ref.Type == RefCall {
				sym.IsFunction = true
				break
			}
		}
	}
}

// GetSymbols returns every symbol discovered.
func (x *XRefGenerator) GetSymbols() map[string]*Symbol { return x.symbols }

// GetSymbol looks up one symbol by name.
func (x *XRefGenerator) GetSymbol(name string) (*Symbol, bool) {
	sym, ok := x.symbols[strings.ToUpper(name)]
	return sym, ok
}

// GetFunctions returns every symbol called via CAL, sorted by name.
func (x *XRefGenerator) GetFunctions() []*Symbol {
	var out []*Symbol
	for _, sym := range x.symbols {
		if sym.IsFunction {
			out = append(out, sym)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// GetUndefinedSymbols returns every symbol referenced but never defined.
func (x *XRefGenerator) GetUndefinedSymbols() []*Symbol {
	var out []*Symbol
	for _, sym := range x.symbols {
		if sym.Definition == nil && len(sym.References) > 0 {
			out = append(out, sym)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// GetUnusedSymbols returns every symbol defined but never referenced,
// excluding START.
func (x *XRefGenerator) GetUnusedSymbols() []*Symbol {
	var out []*Symbol
	for _, sym := range x.symbols {
		if sym.Definition != nil && len(sym.References) == 0 && sym.Name != "START" {
			out = append(out, sym)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// XRefReport renders a sorted, human-readable cross-reference.
type XRefReport struct {
	symbols []*Symbol
}

// NewXRefReport sorts symbols by name for deterministic output.
func NewXRefReport(symbols map[string]*Symbol) *XRefReport {
	sorted := make([]*Symbol, 0, len(symbols))
	for _, sym := range symbols {
		sorted = append(sorted, sym)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	return &XRefReport{symbols: sorted}
}

// String renders the full text report.
func (r *XRefReport) String() string {
	var sb strings.Builder
	sb.WriteString("Label Cross-Reference\n")
	sb.WriteString("======================\n\n")

	for _, sym := range r.symbols {
		sb.WriteString(fmt.Sprintf("%-24s", sym.Name))
		if sym.IsFunction {
			sb.WriteString(" [function]")
		} else {
			sb.WriteString(" [label]")
		}
		sb.WriteString("\n")

		if sym.Definition != nil {
			sb.WriteString(fmt.Sprintf("  Defined:     line %d\n", sym.Definition.Line))
		} else {
			sb.WriteString("  Defined:     (undefined)\n")
		}

		if len(sym.References) == 0 {
			sb.WriteString("  Referenced:  (never)\n")
		} else {
			sb.WriteString(fmt.Sprintf("  Referenced:  %d time(s)\n", len(sym.References)))
			byType := make(map[ReferenceType][]int)
			for _, ref := range sym.References {
				byType[ref.Type] = append(byType[ref.Type], ref.Line)
			}
			for _, refType := range []ReferenceType{RefCall, RefBranch, RefLoad, RefStore, RefData} {
				lines := byType[refType]
				if len(lines) == 0 {
					continue
				}
				strs := make([]string, len(lines))
				for i, n := range lines {
					strs[i] = fmt.Sprintf("%d", n)
				}
				sb.WriteString(fmt.Sprintf("    %-10s: line(s) %s\n", refType.String(), strings.Join(strs, ", ")))
			}
		}
		sb.WriteString("\n")
	}

	defined, undefined, unused, functions := 0, 0, 0, 0
	for _, sym := range r.symbols {
		if sym.Definition != nil {
			defined++
		} else {
			undefined++
		}
		if len(sym.References) == 0 {
			unused++
		}
		if sym.IsFunction {
			functions++
		}
	}

	sb.WriteString("Summary\n")
	sb.WriteString("=======\n")
	sb.WriteString(fmt.Sprintf("Total labels: %d\n", len(r.symbols)))
	sb.WriteString(fmt.Sprintf("Defined:      %d\n", defined))
	sb.WriteString(fmt.Sprintf("Undefined:    %d\n", undefined))
	sb.WriteString(fmt.Sprintf("Unused:       %d\n", unused))
	sb.WriteString(fmt.Sprintf("Functions:    %d\n", functions))

	return sb.String()
}

// GenerateXRef is a convenience wrapper producing a rendered report
// directly from source lines.
func GenerateXRef(sourceLines []string) string {
	gen := NewXRefGenerator()
	symbols := gen.Generate(sourceLines)
	return NewXRefReport(symbols).String()
}
