// Package tools implements source-level utilities that sit beside the
// assembler and engine: a column-aligning formatter, a static linter,
// and a label cross-referencer. None of the three touch execution —
// each works directly on raw source lines, the same way the lexer
// does, grounded on a column-padding formatter and linter
// column-alignment and diagnostic-collection idioms.
package tools

import (
	"strings"

	"github.com/bthedestroyer/kip/parser"
)

// FormatStyle selects how much whitespace the formatter produces.
type FormatStyle int

const (
	FormatDefault  FormatStyle = iota // Column-aligned, one instruction per line
	FormatCompact                     // Minimal whitespace, single space separators
	FormatExpanded                    // Extra whitespace for readability
)

// FormatOptions controls Formatter behavior.
type FormatOptions struct {
	Style             FormatStyle
	MnemonicColumn    int  // not applied by Format: every line starts at column 0
	OperandColumn     int  // column the first operand starts at
	CommentColumn     int  // column a trailing comment starts at
	AlignOperands     bool // pad to OperandColumn instead of a single space
	AlignComments     bool // pad to CommentColumn instead of a single tab
	PreserveBlankLines bool
}

// DefaultFormatOptions returns the standard column layout.
func DefaultFormatOptions() *FormatOptions {
	return &FormatOptions{
		Style:              FormatDefault,
		MnemonicColumn:     0,
		OperandColumn:      8,
		CommentColumn:      32,
		AlignOperands:      true,
		AlignComments:      true,
		PreserveBlankLines: true,
	}
}

// CompactFormatOptions returns options for single-space formatting.
func CompactFormatOptions() *FormatOptions {
	opts := DefaultFormatOptions()
	opts.Style = FormatCompact
	opts.OperandColumn = 0
	opts.CommentColumn = 0
	opts.AlignOperands = false
	opts.AlignComments = false
	return opts
}

// ExpandedFormatOptions returns options with wider columns.
func ExpandedFormatOptions() *FormatOptions {
	opts := DefaultFormatOptions()
	opts.Style = FormatExpanded
	opts.OperandColumn = 12
	opts.CommentColumn = 40
	return opts
}

// Formatter re-renders KIP source with consistent column alignment.
// It works line-by-line, not over a parsed tree — the grammar has no
// nesting beyond "one logical line, one statement", so a
// line-oriented pass is sufficient and avoids building a throwaway
// AST just to print it back out.
type Formatter struct {
	options *FormatOptions
}

// NewFormatter creates a Formatter; a nil options falls back to
// DefaultFormatOptions.
func NewFormatter(options *FormatOptions) *Formatter {
	if options == nil {
		options = DefaultFormatOptions()
	}
	return &Formatter{options: options}
}

// Format re-renders every line of input, preserving import and label
// lines verbatim in shape (just re-aligned) and reflowing instruction
// lines to the configured columns.
func (f *Formatter) Format(input string) (string, error) {
	lines := strings.Split(strings.TrimSuffix(input, "\n"), "\n")
	var out strings.Builder

	for _, raw := range lines {
		formatted := f.formatLine(raw)
		if formatted == "" && strings.TrimSpace(raw) == "" && !f.options.PreserveBlankLines {
			continue
		}
		out.WriteString(formatted)
		out.WriteString("\n")
	}

	result := out.String()
	return strings.TrimSuffix(result, "\n"), nil
}

func (f *Formatter) formatLine(raw string) string {
	body, comment := splitComment(raw)
	trimmed := strings.TrimSpace(body)

	if trimmed == "" {
		if comment == "" {
			return ""
		}
		return f.appendComment("", comment)
	}

	switch trimmed[0] {
	case '<':
		return f.appendComment(f.formatDirectiveLine("<", trimmed[1:]), comment)
	case '>':
		return f.appendComment(f.formatDirectiveLine(">", trimmed[1:]), comment)
	}

	line := parser.LexLine(raw)

	var sb strings.Builder
	sb.WriteString(line.Mnemonic)

	if len(line.Tokens) > 0 {
		switch f.options.Style {
		case FormatCompact:
			sb.WriteString(" ")
		default:
			if f.options.AlignOperands {
				padTo(&sb, f.options.OperandColumn)
			} else {
				sb.WriteString(" ")
			}
		}
		sb.WriteString(strings.Join(line.Tokens, " "))
	}

	return f.appendComment(sb.String(), comment)
}

// formatDirectiveLine renders a `< path` import or `> NAME value`
// label line with a single space after the marker — these never carry
// operand-column alignment. On label lines, runs of spaces between the
// name and the value are collapsed to one; quoted text is kept as is.
func (f *Formatter) formatDirectiveLine(marker, rest string) string {
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return marker
	}
	if marker == ">" {
		var sb strings.Builder
		inQuote := false
		for i := 0; i < len(rest); i++ {
			c := rest[i]
			if c == '"' {
				inQuote = !inQuote
			}
			if !inQuote && c == ' ' && rest[i-1] == ' ' {
				continue
			}
			sb.WriteByte(c)
		}
		rest = sb.String()
	}
	return marker + " " + rest
}

func (f *Formatter) appendComment(body, comment string) string {
	if comment == "" {
		return body
	}
	var sb strings.Builder
	sb.WriteString(body)

	switch {
	case f.options.Style == FormatCompact:
		if body != "" {
			sb.WriteString(" ")
		}
	case f.options.AlignComments:
		if body != "" {
			padTo(&sb, f.options.CommentColumn)
		}
	default:
		if body != "" {
			sb.WriteString("\t")
		}
	}
	sb.WriteString("; ")
	sb.WriteString(strings.TrimSpace(comment))
	return sb.String()
}

// splitComment divides raw at the first comment marker, returning the
// code body and the comment text (without its leading marker rune).
// Mirrors parser.stripComment's marker set but keeps the discarded
// text instead of throwing it away, since the formatter must
// re-render it.
func splitComment(raw string) (body, comment string) {
	if i := strings.IndexAny(raw, ";|?}"); i >= 0 {
		return raw[:i], raw[i+1:]
	}
	return raw, ""
}

func padTo(sb *strings.Builder, column int) {
	current := sb.Len()
	if current >= column {
		sb.WriteString(" ")
		return
	}
	sb.WriteString(strings.Repeat(" ", column-current))
}

// FormatString formats input with the default column options.
func FormatString(input string) (string, error) {
	return NewFormatter(DefaultFormatOptions()).Format(input)
}

// FormatStringWithStyle formats input with the named style's options.
func FormatStringWithStyle(input string, style FormatStyle) (string, error) {
	var options *FormatOptions
	switch style {
	case FormatCompact:
		options = CompactFormatOptions()
	case FormatExpanded:
		options = ExpandedFormatOptions()
	default:
		options = DefaultFormatOptions()
	}
	return NewFormatter(options).Format(input)
}
