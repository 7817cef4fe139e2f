package parser

import (
	"fmt"
	"strings"
)

// Context is the compile-time artifact of import and label resolution
// plus the dispatcher's starting program counter.
type Context struct {
	Labels           map[string]Argument
	ImportBaseFolder string
	ProgramCounter   uint32
}

// BuildContext runs the two strict phases of the KIP context builder
// over sourceLines: Phase 1 splices `<path` imports (with cycle
// rejection), Phase 2 extracts `> NAME [value]` label definitions and
// blanks their lines so they are no-ops at execution time. Grounded
// on the preprocessor's import-splicing pass (Phase 1) and a label table (Phase 2),
// adapted to KIP's line-level grammar instead of ARM directives.
//
// On success it returns the processed line list (imports spliced,
// label lines blanked) and the built Context. Label values are
// resolved in Context.Labels before any instruction argument is
// parsed, so a later label may be referenced from an earlier one and
// — because instruction parsing only begins once this function
// returns — from any instruction argument as well.
func BuildContext(sourceLines []string, importBaseFolder string) ([]string, *Context, Result) {
	pre := NewPreprocessor(importBaseFolder)
	lines, res := pre.ProcessLines(sourceLines)
	if !res.Success {
		return nil, nil, res
	}

	ctx := &Context{
		Labels:           make(map[string]Argument),
		ImportBaseFolder: importBaseFolder,
	}

	type pendingLabel struct {
		index   int
		name    string
		remark  string // remainder text, already case-normalized outside quotes
		hasBody bool
	}

	var pending []pendingLabel

	for i, line := range lines {
		noComment := stripComment(line)
		trimmed := strings.TrimLeft(noComment, " ")
		if !strings.HasPrefix(trimmed, ">") {
			continue
		}

		normalized := upperOutsideQuotes(trimmed[1:])
		normalized = strings.TrimLeft(normalized, " ")
		if normalized == "" {
			return nil, nil, Result{Success: false, Message: fmt.Sprintf("empty label name at line %d", i+1), Kind: ErrorResolution}
		}

		nameEnd := strings.IndexByte(normalized, ' ')
		var name, remainder string
		if nameEnd < 0 {
			name = normalized
		} else {
			name = normalized[:nameEnd]
			remainder = strings.TrimLeft(normalized[nameEnd+1:], " ")
		}
		if name == "" {
			return nil, nil, Result{Success: false, Message: fmt.Sprintf("empty label name at line %d", i+1), Kind: ErrorResolution}
		}

		pending = append(pending, pendingLabel{
			index:   i,
			name:    name,
			remark:  remainder,
			hasBody: remainder != "",
		})
		lines[i] = "" // label definition line is a no-op during execution
	}

	// First, bind every label with a concrete (non-alias) value:
	// quoted string literal, explicit numeric literal, or the default
	// one-based line index.
	var aliases []pendingLabel
	for _, pl := range pending {
		if !pl.hasBody {
			ctx.Labels[pl.name] = DataArg{Value: uint32(pl.index + 1)}
			continue
		}
		if strings.HasPrefix(pl.remark, "\"") {
			if !strings.HasSuffix(pl.remark, "\"") || len(pl.remark) < 2 {
				return nil, nil, Result{Success: false, Message: fmt.Sprintf("unterminated string literal in label %q", pl.name), Kind: ErrorSyntax}
			}
			ctx.Labels[pl.name] = StringArg{Text: []byte(pl.remark[1 : len(pl.remark)-1])}
			continue
		}
		if val, err := parseNumeric(pl.remark); err == nil {
			ctx.Labels[pl.name] = DataArg{Value: val}
			continue
		}
		aliases = append(aliases, pl)
	}

	// Resolve label-to-label aliases with a fixed-point pass so that
	// both forward and backward references between label declarations
	for progress := true; progress && len(aliases) > 0; {
		progress = false
		remaining := aliases[:0]
		for _, pl := range aliases {
			if target, ok := ctx.Labels[pl.remark]; ok {
				ctx.Labels[pl.name] = target
				progress = true
				continue
			}
			remaining = append(remaining, pl)
		}
		aliases = remaining
	}
	if len(aliases) > 0 {
		return nil, nil, Result{Success: false, Message: fmt.Sprintf("undefined label reference %q in label %q", aliases[0].remark, aliases[0].name), Kind: ErrorResolution}
	}

	if start, ok := ctx.Labels["START"]; ok {
		if d, ok := AsData(start); ok {
			ctx.ProgramCounter = d.Value
		}
	}

	return lines, ctx, Result{Success: true}
}

// upperOutsideQuotes uppercases every rune that falls outside a
// double-quoted region, leaving quoted string contents' case intact.
func upperOutsideQuotes(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	inQuotes := false
	for _, r := range s {
		if r == '"' {
			inQuotes = !inQuotes
			sb.WriteRune(r)
			continue
		}
		if inQuotes {
			sb.WriteRune(r)
		} else {
			sb.WriteString(strings.ToUpper(string(r)))
		}
	}
	return sb.String()
}
