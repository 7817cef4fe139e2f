package parser

// Result is the single observable unit KIP emits for every compile-time
// check and every executed instruction: a success flag plus a
// human-readable message. It is defined in parser
// because both context construction (imports, labels) and the engine's
// dispatcher (package engine) produce the same record shape.
type Result struct {
	Success bool
	Message string
	Kind    ErrorKind
}
