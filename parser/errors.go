package parser

// ErrorKind categorizes a failed Result into one of the five kinds
// named in KIP's error-handling design: lex/parse, resolution, memory,
// arithmetic, dereference. ErrorNone is the zero value, carried by
// every successful Result and by halts that aren't attributable to one
// of the five kinds (the instruction budget, for instance).
type ErrorKind int

const (
	ErrorNone        ErrorKind = iota // success, or an unclassified halt
	ErrorSyntax                       // unknown opcode, malformed literal, unterminated string, wrong arg count
	ErrorResolution                  // missing import, empty label name, empty import path, circular include, undefined label reference
	ErrorMemory                      // unmapped read/write, unmapped stack pointer, direction mismatch, host file I/O failure
	ErrorArithmetic                  // divide by zero
	ErrorDereference                 // multi-level indirection through unmapped memory
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorSyntax:
		return "syntax"
	case ErrorResolution:
		return "resolution"
	case ErrorMemory:
		return "memory"
	case ErrorArithmetic:
		return "arithmetic"
	case ErrorDereference:
		return "dereference"
	default:
		return "none"
	}
}
