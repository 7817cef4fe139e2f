package tools

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bthedestroyer/kip/parser"
)

// LintLevel is the severity of a single finding.
type LintLevel int

const (
	LintError   LintLevel = iota // would fail assembly or crash at runtime
	LintWarning                  // likely mistake, assembles fine
	LintInfo                     // style suggestion
)

func (l LintLevel) String() string {
	switch l {
	case LintError:
		return "error"
	case LintWarning:
		return "warning"
	case LintInfo:
		return "info"
	default:
		return "unknown"
	}
}

// LintIssue is a single finding, one-indexed by source line.
type LintIssue struct {
	Level   LintLevel
	Line    int
	Message string
	Code    string
}

func (i *LintIssue) String() string {
	return fmt.Sprintf("line %d: %s: %s [%s]", i.Line, i.Level, i.Message, i.Code)
}

// LintOptions controls which analysis passes Lint runs.
type LintOptions struct {
	CheckUnused  bool // flag labels defined but never referenced
	CheckReach   bool // flag code after an unconditional HLT/JMP
	SuggestFixes bool // append a "did you mean" to undefined-label errors
}

// DefaultLintOptions returns the options a plain `kip lint` invocation uses.
func DefaultLintOptions() *LintOptions {
	return &LintOptions{
		CheckUnused:  true,
		CheckReach:   true,
		SuggestFixes: true,
	}
}

// Linter statically analyzes KIP source for label and control-flow
// issues a successful assemble wouldn't itself catch (unused labels,
// unreachable code) plus bare-word operands that name no label, which
// Assemble would reject, surfaced here with a line number instead of
// aborting the whole program. Opcode names and argument counts are
// not checked.
// Grounded on a multi-pass lint structure, generalized
// from ARM's register/directive checks to KIP's label-table model.
type Linter struct {
	options *LintOptions
	issues  []*LintIssue

	definedLabels    map[string]int   // label -> defining line (1-indexed)
	referencedLabels map[string][]int // label -> referencing lines
}

// NewLinter creates a Linter; a nil options falls back to DefaultLintOptions.
func NewLinter(options *LintOptions) *Linter {
	if options == nil {
		options = DefaultLintOptions()
	}
	return &Linter{
		options:          options,
		definedLabels:    make(map[string]int),
		referencedLabels: make(map[string][]int),
	}
}

// Lint analyzes sourceLines (already import-spliced — the caller is
// expected to have run the preprocessor's import phase first, since a
// linter has no business following imports on its own) and returns
// every finding, sorted by line.
func (l *Linter) Lint(sourceLines []string) []*LintIssue {
	l.collectLabels(sourceLines)
	l.checkLabelReferences(sourceLines)

	if l.options.CheckUnused {
		l.checkUnusedLabels()
	}
	if l.options.CheckReach {
		l.checkUnreachableCode(sourceLines)
	}

	sort.SliceStable(l.issues, func(i, j int) bool {
		return l.issues[i].Line < l.issues[j].Line
	})
	return l.issues
}

func (l *Linter) addIssue(level LintLevel, line int, code, message string) {
	l.issues = append(l.issues, &LintIssue{Level: level, Line: line, Message: message, Code: code})
}

// collectLabels finds every `> NAME [value]` definition, recording
// its line and flagging redefinitions.
func (l *Linter) collectLabels(sourceLines []string) {
	for i, raw := range sourceLines {
		trimmed := strings.TrimLeft(stripCommentForLint(raw), " ")
		if !strings.HasPrefix(trimmed, ">") {
			continue
		}
		name := labelNameFromDefinition(trimmed[1:])
		if name == "" {
			continue
		}
		if first, exists := l.definedLabels[name]; exists {
			l.addIssue(LintError, i+1, "DUPLICATE_LABEL",
				fmt.Sprintf("label %q redefined (first defined on line %d)", name, first))
			continue
		}
		l.definedLabels[name] = i + 1
	}
}

func labelNameFromDefinition(rest string) string {
	rest = strings.TrimLeft(rest, " ")
	rest = strings.ToUpper(rest)
	if end := strings.IndexByte(rest, ' '); end >= 0 {
		return rest[:end]
	}
	return rest
}

// checkLabelReferences walks every non-label, non-import instruction
// line and flags any bare-word argument token that resolves to
// neither a numeric literal nor a known label — the same failure
// Assemble itself would hit, but reported with a suggestion instead
// of aborting the run.
func (l *Linter) checkLabelReferences(sourceLines []string) {
	for i, raw := range sourceLines {
		line := parser.LexLine(raw)
		if line.Mnemonic == "" || strings.HasPrefix(line.Mnemonic, ">") || strings.HasPrefix(line.Mnemonic, "<") {
			continue
		}
		for _, tok := range line.Tokens {
			l.checkToken(tok, i+1)
		}
	}
}

func (l *Linter) checkToken(tok string, lineNo int) {
	bare := strings.TrimLeft(tok, "*")
	if bare == "" || strings.HasPrefix(bare, "\"") {
		return
	}
	if isNumericToken(bare) {
		return
	}

	name := strings.ToUpper(bare)
	l.referencedLabels[name] = append(l.referencedLabels[name], lineNo)

	if _, defined := l.definedLabels[name]; defined {
		return
	}

	msg := fmt.Sprintf("undefined label %q", name)
	if l.options.SuggestFixes {
		if suggestion := l.findSimilarLabel(name); suggestion != "" {
			msg += fmt.Sprintf(" (did you mean %q?)", suggestion)
		}
	}
	l.addIssue(LintError, lineNo, "UNDEF_LABEL", msg)
}

// checkUnusedLabels warns about every label with zero references.
// START is exempt: it is referenced implicitly, by being the entry
// point, never by a JMP/CAL token.
func (l *Linter) checkUnusedLabels() {
	for name, line := range l.definedLabels {
		if name == "START" {
			continue
		}
		if _, used := l.referencedLabels[name]; !used {
			l.addIssue(LintWarning, line, "UNUSED_LABEL",
				fmt.Sprintf("label %q defined but never referenced", name))
		}
	}
}

// checkUnreachableCode flags the first non-blank, non-label,
// non-comment-only line following an unconditional HLT or JMP, since
// nothing can transfer control into it short of being itself a label
// target (which checkUnreachableCode cannot rule out, so it reports a
// warning rather than an error).
func (l *Linter) checkUnreachableCode(sourceLines []string) {
	afterTerminator := false
	for i, raw := range sourceLines {
		line := parser.LexLine(raw)
		trimmed := strings.TrimLeft(stripCommentForLint(raw), " ")

		if strings.HasPrefix(trimmed, ">") {
			afterTerminator = false
			continue
		}
		if line.Mnemonic == "" {
			continue
		}

		if afterTerminator {
			l.addIssue(LintWarning, i+1, "UNREACHABLE_CODE", "unreachable code after HLT/JMP with no intervening label")
			afterTerminator = false
		}

		if line.Mnemonic == "HLT" || line.Mnemonic == "JMP" {
			afterTerminator = true
		}
	}
}

func (l *Linter) findSimilarLabel(target string) string {
	bestMatch := ""
	bestDistance := 4 // anything farther than 3 edits isn't a useful suggestion
	for label := range l.definedLabels {
		if dist := levenshteinDistance(label, target); dist < bestDistance {
			bestMatch = label
			bestDistance = dist
		}
	}
	return bestMatch
}

func levenshteinDistance(s1, s2 string) int {
	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}

	matrix := make([][]int, len(s1)+1)
	for i := range matrix {
		matrix[i] = make([]int, len(s2)+1)
		matrix[i][0] = i
	}
	for j := range matrix[0] {
		matrix[0][j] = j
	}

	for i := 1; i <= len(s1); i++ {
		for j := 1; j <= len(s2); j++ {
			cost := 1
			if s1[i-1] == s2[j-1] {
				cost = 0
			}
			matrix[i][j] = minOf3(matrix[i-1][j]+1, matrix[i][j-1]+1, matrix[i-1][j-1]+cost)
		}
	}
	return matrix[len(s1)][len(s2)]
}

func minOf3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}

// isNumericToken reports whether tok parses as a KIP numeric literal
// (a radix-prefixed run, or a bare decimal run).
func isNumericToken(tok string) bool {
	if tok == "" {
		return false
	}
	digits, alphabet := tok, "0123456789"
	switch tok[0] {
	case '$':
		digits, alphabet = tok[1:], "0123456789abcdefABCDEF"
	case ':':
		digits, alphabet = tok[1:], "01"
	case '#':
		digits, alphabet = tok[1:], "01234567"
	}
	if digits == "" {
		return false
	}
	for _, c := range digits {
		if !strings.ContainsRune(alphabet, c) {
			return false
		}
	}
	return true
}

func stripCommentForLint(s string) string {
	if i := strings.IndexAny(s, ";|?}"); i >= 0 {
		return s[:i]
	}
	return s
}
