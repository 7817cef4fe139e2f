// Package parser implements the KIP source-language front end: the
// line lexer, the argument parser, and the two-phase context builder
// (import splicing and label extraction).
package parser

import "strings"

// commentMarkers lists every rune that begins a trailing comment.
// The first occurrence of any of these ends the logical line.
const commentMarkers = ";|?}"

// Line is the result of lexing one logical source line: an opcode
// mnemonic (upper-cased) and its argument tokens. A blank or
// comment-only line produces an empty Mnemonic.
type Line struct {
	Mnemonic string
	Tokens   []string
	Source   string // original line, for diagnostics only
}

// LexLine tokenizes a single source line per spec: strip the trailing
// comment, trim leading space, then split on spaces with one
// exception — a token beginning with `"` runs to the next `"`
// (inclusive), preserving interior spaces. The mnemonic and every
// non-quoted token are upper-cased; quoted tokens keep their case.
func LexLine(raw string) Line {
	stripped := stripComment(raw)
	trimmed := strings.TrimLeft(stripped, " ")

	tokens := splitTokens(trimmed)
	if len(tokens) == 0 {
		return Line{Source: raw}
	}

	mnemonic := strings.ToUpper(tokens[0])
	args := tokens[1:]
	for i, tok := range args {
		args[i] = NormalizeToken(tok)
	}
	return Line{
		Mnemonic: mnemonic,
		Tokens:   args,
		Source:   raw,
	}
}

// stripComment removes everything from the first comment marker
// onward. Interior quoted strings are not comment-proof per spec —
// the comment scan runs over raw text, as the original does.
func stripComment(s string) string {
	if i := strings.IndexAny(s, commentMarkers); i >= 0 {
		return s[:i]
	}
	return s
}

// splitTokens splits on spaces, treating a leading `"` as opening a
// run that extends to the next `"` inclusive.
func splitTokens(s string) []string {
	var tokens []string
	i := 0
	n := len(s)
	for i < n {
		for i < n && s[i] == ' ' {
			i++
		}
		if i >= n {
			break
		}
		start := i
		if s[i] == '"' {
			i++
			for i < n && s[i] != '"' {
				i++
			}
			if i < n {
				i++ // include closing quote
			}
			tokens = append(tokens, s[start:i])
			continue
		}
		for i < n && s[i] != ' ' {
			i++
		}
		tokens = append(tokens, s[start:i])
	}
	return tokens
}

// NormalizeToken upper-cases a token unless it is a quoted string
// literal, matching the lexer's per-token casing rule.
func NormalizeToken(tok string) string {
	if isQuoted(tok) {
		return tok
	}
	return strings.ToUpper(tok)
}

func isQuoted(tok string) bool {
	return len(tok) >= 2 && tok[0] == '"' && tok[len(tok)-1] == '"'
}
