package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bthedestroyer/kip/parser"
)

func fail(line, msg string) parser.Result {
	return parser.Result{Success: false, Message: msg + " at " + line, Kind: classifyFailure(msg)}
}

// classifyFailure buckets a handler failure message into one of the
// five documented error kinds by the vocabulary each handler already
// uses, so fail()'s ~50 call sites stay one-line without each having to
// name its own kind.
func classifyFailure(msg string) parser.ErrorKind {
	switch {
	case strings.HasPrefix(msg, "Divide by zero"):
		return parser.ErrorArithmetic
	case strings.Contains(msg, "invalid"):
		return parser.ErrorDereference
	case strings.Contains(msg, "unmapped"), strings.Contains(msg, "stack"),
		strings.Contains(msg, "cannot read"), strings.Contains(msg, "cannot write"):
		return parser.ErrorMemory
	default:
		return parser.ErrorSyntax
	}
}

func ok(msg string) parser.Result {
	return parser.Result{Success: true, Message: msg}
}

// push writes data at SP-len(data), then sets SP to that address —
// a "write, then move" contract: moving SP before the write would leak
// one byte of the destination slot into the wrong frame on a
// zero-length stack.
func push(e *Engine, data []byte) bool {
	sp, set := e.Memory.StackPointer()
	if !set {
		return false
	}
	dst := sp - uint32(len(data))
	if !e.Memory.WriteBytes(dst, data, len(data)) {
		return false
	}
	return e.Memory.SetStackPointer(dst)
}

// pop reads n bytes at the current SP, then advances SP by n.
func pop(e *Engine, n int) ([]byte, bool) {
	sp, set := e.Memory.StackPointer()
	if !set {
		return nil, false
	}
	buf := make([]byte, n)
	if !e.Memory.ReadBytes(sp, buf, n) {
		return nil, false
	}
	if !e.Memory.SetStackPointer(sp + uint32(n)) {
		return nil, false
	}
	return buf, true
}

func le32(v uint32) []byte {
	return []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
}

func fromLE32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

// --- STB/STA/STS: store byte/word/string ---

func opSTB(e *Engine, line string, args []parser.Argument) parser.Result {
	addr, ok1 := evalAddr(e, args[0])
	val, ok2 := evalByte(e, args[1])
	if !ok1 || !ok2 || !e.Memory.WriteByte(addr, val) {
		return fail(line, "unmapped write")
	}
	return ok(fmt.Sprintf("STB 0x%X <- 0x%02X", addr, val))
}

func opSTA(e *Engine, line string, args []parser.Argument) parser.Result {
	addr, ok1 := evalAddr(e, args[0])
	val, ok2 := evalAddr(e, args[1])
	if !ok1 || !ok2 || !e.Memory.WriteWord(addr, val) {
		return fail(line, "unmapped write")
	}
	return ok(fmt.Sprintf("STA 0x%X <- 0x%X", addr, val))
}

func opSTS(e *Engine, line string, args []parser.Argument) parser.Result {
	addr, ok1 := evalAddr(e, args[0])
	str, ok2 := evalStr(e, args[1])
	if !ok1 || !ok2 || !e.Memory.WriteString(addr, str) {
		return fail(line, "unmapped write")
	}
	return ok(fmt.Sprintf("STS 0x%X <- %q", addr, str))
}

// --- FIL/CPY: bulk memory operations ---

func opFIL(e *Engine, line string, args []parser.Argument) parser.Result {
	addr, ok1 := evalAddr(e, args[0])
	val, ok2 := evalByte(e, args[1])
	count, ok3 := evalAddr(e, args[2])
	if !ok1 || !ok2 || !ok3 {
		return fail(line, "unmapped operand")
	}
	for i := uint32(0); i < count; i++ {
		if !e.Memory.WriteByte(addr+i, val) {
			return fail(line, "unmapped write")
		}
	}
	return ok(fmt.Sprintf("FIL 0x%X x%d <- 0x%02X", addr, count, val))
}

func opCPY(e *Engine, line string, args []parser.Argument) parser.Result {
	dst, ok1 := evalAddr(e, args[0])
	src, ok2 := evalAddr(e, args[1])
	count, ok3 := evalAddr(e, args[2])
	if !ok1 || !ok2 || !ok3 {
		return fail(line, "unmapped operand")
	}
	buf := make([]byte, count)
	if !e.Memory.ReadBytes(src, buf, int(count)) {
		return fail(line, fmt.Sprintf("unmapped read, range [%d, %d)", src, src+count))
	}
	if !e.Memory.WriteBytes(dst, buf, int(count)) {
		return fail(line, fmt.Sprintf("unmapped write, range [%d, %d)", dst, dst+count))
	}
	return ok(fmt.Sprintf("CPY 0x%X <- 0x%X x%d", dst, src, count))
}

// --- BIN/SAV: host file I/O, rooted under the program's import folder ---

func resolveHostPath(e *Engine, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(e.ImportFolder, path)
}

func opBIN(e *Engine, line string, args []parser.Argument) parser.Result {
	addr, ok1 := evalAddr(e, args[0])
	path, ok2 := evalStr(e, args[1])
	if !ok1 || !ok2 {
		return fail(line, "unmapped operand")
	}
	full := resolveHostPath(e, strings.TrimPrefix(strings.TrimPrefix(string(path), "./"), `.\`))
	data, err := os.ReadFile(full) // #nosec G304 -- BIN loads an assembler-directed file by design
	if err != nil {
		return fail(line, "cannot read "+full)
	}
	if !e.Memory.WriteBytes(addr, data, len(data)) {
		return fail(line, "unmapped write")
	}
	return ok(fmt.Sprintf("BIN 0x%X <- %s (%d bytes)", addr, full, len(data)))
}

func opSAV(e *Engine, line string, args []parser.Argument) parser.Result {
	addr, ok1 := evalAddr(e, args[0])
	count, ok2 := evalAddr(e, args[1])
	path, ok3 := evalStr(e, args[2])
	if !ok1 || !ok2 || !ok3 {
		return fail(line, "unmapped operand")
	}
	buf := make([]byte, count)
	if !e.Memory.ReadBytes(addr, buf, int(count)) {
		return fail(line, "unmapped read")
	}
	full := resolveHostPath(e, strings.TrimPrefix(strings.TrimPrefix(string(path), "./"), `.\`))
	if err := os.WriteFile(full, buf, 0o644); err != nil { // #nosec G306 -- SAV writes an assembler-directed file by design
		return fail(line, "cannot write "+full)
	}
	return ok(fmt.Sprintf("SAV 0x%X x%d -> %s", addr, count, full))
}

// --- RDB/RDA/RDS: debug reads, log-only; they fail only on an unmapped address ---

func opRDB(e *Engine, line string, args []parser.Argument) parser.Result {
	addr, ok1 := evalAddr(e, args[0])
	if !ok1 {
		return fail(line, "unmapped read")
	}
	v, ok2 := e.Memory.ReadByte(addr)
	if !ok2 {
		return fail(line, "unmapped read")
	}
	return ok(fmt.Sprintf("RDB 0x%X = 0x%02X", addr, v))
}

func opRDA(e *Engine, line string, args []parser.Argument) parser.Result {
	addr, ok1 := evalAddr(e, args[0])
	if !ok1 {
		return fail(line, "unmapped read")
	}
	v, ok2 := e.Memory.ReadWord(addr)
	if !ok2 {
		return fail(line, "unmapped read")
	}
	return ok(fmt.Sprintf("RDA 0x%X = 0x%X", addr, v))
}

func opRDS(e *Engine, line string, args []parser.Argument) parser.Result {
	addr, ok1 := evalAddr(e, args[0])
	if !ok1 {
		return fail(line, "unmapped read")
	}
	v, ok2 := e.Memory.ReadString(addr)
	if !ok2 {
		return fail(line, "unmapped read")
	}
	return ok(fmt.Sprintf("RDS 0x%X = %q", addr, v))
}

// --- control flow ---

func opJMP(e *Engine, line string, args []parser.Argument) parser.Result {
	target, ok1 := evalAddr(e, args[0])
	if !ok1 {
		return fail(line, "invalid jump target")
	}
	e.PC = target
	return ok(fmt.Sprintf("JMP -> 0x%X", target))
}

func jcc(name string, cmp func(a, b byte) bool) Handler {
	return func(e *Engine, line string, args []parser.Argument) parser.Result {
		a, ok1 := evalByte(e, args[0])
		b, ok2 := evalByte(e, args[1])
		target, ok3 := evalAddr(e, args[2])
		if !ok1 || !ok2 || !ok3 {
			return fail(line, "invalid "+name+" operand")
		}
		if cmp(a, b) {
			e.PC = target
			return ok(fmt.Sprintf("%s 0x%02X,0x%02X -> 0x%X (taken)", name, a, b, target))
		}
		return ok(fmt.Sprintf("%s 0x%02X,0x%02X (not taken)", name, a, b))
	}
}

var (
	opJEQ = jcc("JEQ", func(a, b byte) bool { return a == b })
	opJNE = jcc("JNE", func(a, b byte) bool { return a != b })
	opJGT = jcc("JGT", func(a, b byte) bool { return a > b })
	opJLT = jcc("JLT", func(a, b byte) bool { return a < b })
	opJGE = jcc("JGE", func(a, b byte) bool { return a >= b })
	opJLE = jcc("JLE", func(a, b byte) bool { return a <= b })
)

func opHLT(e *Engine, line string, args []parser.Argument) parser.Result {
	e.Halted = true
	return ok("HLT")
}

// opCAL pushes the return address (the instruction after the call)
// and jumps; opRET pops it back off and resumes there. Recursion
// depth is bounded only by how much stack space the program itself
// has mapped: there is no separate call stack register, so CAL/RET
// share the data stack.
func opCAL(e *Engine, line string, args []parser.Argument) parser.Result {
	target, ok1 := evalAddr(e, args[0])
	if !ok1 {
		return fail(line, "invalid call target")
	}
	if !push(e, le32(e.PC+1)) {
		return fail(line, "stack overflow")
	}
	e.PC = target
	return ok(fmt.Sprintf("CAL -> 0x%X", target))
}

func opRET(e *Engine, line string, args []parser.Argument) parser.Result {
	buf, ok1 := pop(e, 4)
	if !ok1 {
		return fail(line, "stack underflow")
	}
	e.PC = fromLE32(buf)
	return ok(fmt.Sprintf("RET -> 0x%X", e.PC))
}

// --- byte/word arithmetic: a, b, destination address ---

func byteArith(name string, op func(a, b byte) byte, divCheck bool) Handler {
	return func(e *Engine, line string, args []parser.Argument) parser.Result {
		a, ok1 := evalByte(e, args[0])
		b, ok2 := evalByte(e, args[1])
		dst, ok3 := evalAddr(e, args[2])
		if !ok1 || !ok2 || !ok3 {
			return fail(line, "unmapped operand")
		}
		if divCheck && b == 0 {
			return fail(line, "Divide by zero")
		}
		result := op(a, b)
		if !e.Memory.WriteByte(dst, result) {
			return fail(line, "unmapped write")
		}
		return ok(fmt.Sprintf("%s 0x%02X,0x%02X -> 0x%X = 0x%02X", name, a, b, dst, result))
	}
}

func wordArith(name string, op func(a, b uint32) uint32, divCheck bool) Handler {
	return func(e *Engine, line string, args []parser.Argument) parser.Result {
		a, ok1 := evalAddr(e, args[0])
		b, ok2 := evalAddr(e, args[1])
		dst, ok3 := evalAddr(e, args[2])
		if !ok1 || !ok2 || !ok3 {
			return fail(line, "unmapped operand")
		}
		if divCheck && b == 0 {
			return fail(line, "Divide by zero")
		}
		result := op(a, b)
		if !e.Memory.WriteWord(dst, result) {
			return fail(line, "unmapped write")
		}
		return ok(fmt.Sprintf("%s 0x%X,0x%X -> 0x%X = 0x%X", name, a, b, dst, result))
	}
}

var (
	opADB = byteArith("ADB", func(a, b byte) byte { return a + b }, false)
	opSBB = byteArith("SBB", func(a, b byte) byte { return a - b }, false)
	opMLB = byteArith("MLB", func(a, b byte) byte { return a * b }, false)
	opDVB = byteArith("DVB", func(a, b byte) byte { return a / b }, true)
	opMDB = byteArith("MDB", func(a, b byte) byte { return a % b }, true)

	opADA = wordArith("ADA", func(a, b uint32) uint32 { return a + b }, false)
	opSBA = wordArith("SBA", func(a, b uint32) uint32 { return a - b }, false)
	opMLA = wordArith("MLA", func(a, b uint32) uint32 { return a * b }, false)
	opDVA = wordArith("DVA", func(a, b uint32) uint32 { return a / b }, true)
	opMDA = wordArith("MDA", func(a, b uint32) uint32 { return a % b }, true)

	opAND = byteArith("AND", func(a, b byte) byte { return a & b }, false)
	opBOR = byteArith("BOR", func(a, b byte) byte { return a | b }, false)
	opXOR = byteArith("XOR", func(a, b byte) byte { return a ^ b }, false)
)

// --- INB/INA/DCB/DCA: in-place increment/decrement ---

func opINB(e *Engine, line string, args []parser.Argument) parser.Result {
	addr, ok1 := evalAddr(e, args[0])
	if !ok1 {
		return fail(line, "invalid operand")
	}
	v, ok2 := e.Memory.ReadByte(addr)
	if !ok2 || !e.Memory.WriteByte(addr, v+1) {
		return fail(line, "unmapped memory")
	}
	return ok(fmt.Sprintf("INB 0x%X", addr))
}

func opINA(e *Engine, line string, args []parser.Argument) parser.Result {
	addr, ok1 := evalAddr(e, args[0])
	if !ok1 {
		return fail(line, "invalid operand")
	}
	v, ok2 := e.Memory.ReadWord(addr)
	if !ok2 || !e.Memory.WriteWord(addr, v+1) {
		return fail(line, "unmapped memory")
	}
	return ok(fmt.Sprintf("INA 0x%X", addr))
}

func opDCB(e *Engine, line string, args []parser.Argument) parser.Result {
	addr, ok1 := evalAddr(e, args[0])
	if !ok1 {
		return fail(line, "invalid operand")
	}
	v, ok2 := e.Memory.ReadByte(addr)
	if !ok2 || !e.Memory.WriteByte(addr, v-1) {
		return fail(line, "unmapped memory")
	}
	return ok(fmt.Sprintf("DCB 0x%X", addr))
}

func opDCA(e *Engine, line string, args []parser.Argument) parser.Result {
	addr, ok1 := evalAddr(e, args[0])
	if !ok1 {
		return fail(line, "invalid operand")
	}
	v, ok2 := e.Memory.ReadWord(addr)
	if !ok2 || !e.Memory.WriteWord(addr, v-1) {
		return fail(line, "unmapped memory")
	}
	return ok(fmt.Sprintf("DCA 0x%X", addr))
}

// --- shift/rotate: value, amount, destination address ---

func byteShift(name string, op func(v byte, n uint) byte) Handler {
	return func(e *Engine, line string, args []parser.Argument) parser.Result {
		v, ok1 := evalByte(e, args[0])
		n, ok2 := evalByte(e, args[1])
		dst, ok3 := evalAddr(e, args[2])
		if !ok1 || !ok2 || !ok3 {
			return fail(line, "unmapped operand")
		}
		result := op(v, uint(n))
		if !e.Memory.WriteByte(dst, result) {
			return fail(line, "unmapped write")
		}
		return ok(fmt.Sprintf("%s 0x%02X,%d -> 0x%X = 0x%02X", name, v, n, dst, result))
	}
}

var (
	opBLS = byteShift("BLS", func(v byte, n uint) byte { return v << (n % 8) })
	opBRS = byteShift("BRS", func(v byte, n uint) byte { return v >> (n % 8) })
	opROL = byteShift("ROL", rotateLeft)
	opROR = byteShift("ROR", rotateRight)
)

// --- NOT: unary bitwise complement, value then destination address ---

func opNOT(e *Engine, line string, args []parser.Argument) parser.Result {
	v, ok1 := evalByte(e, args[0])
	dst, ok2 := evalAddr(e, args[1])
	if !ok1 || !ok2 {
		return fail(line, "unmapped operand")
	}
	result := ^v
	if !e.Memory.WriteByte(dst, result) {
		return fail(line, "unmapped write")
	}
	return ok(fmt.Sprintf("NOT 0x%02X -> 0x%X = 0x%02X", v, dst, result))
}

// --- PUB/PUA/PUS, POB/POA/POS: stack push/pop ---

func opPUB(e *Engine, line string, args []parser.Argument) parser.Result {
	v, ok1 := evalByte(e, args[0])
	if !ok1 || !push(e, []byte{v}) {
		return fail(line, "stack overflow")
	}
	return ok(fmt.Sprintf("PUB 0x%02X", v))
}

func opPUA(e *Engine, line string, args []parser.Argument) parser.Result {
	v, ok1 := evalAddr(e, args[0])
	if !ok1 || !push(e, le32(v)) {
		return fail(line, "stack overflow")
	}
	return ok(fmt.Sprintf("PUA 0x%X", v))
}

func opPUS(e *Engine, line string, args []parser.Argument) parser.Result {
	s, ok1 := evalStr(e, args[0])
	if !ok1 {
		return fail(line, "unmapped operand")
	}
	data := append(append([]byte(nil), s...), 0)
	if !push(e, data) {
		return fail(line, "stack overflow")
	}
	return ok(fmt.Sprintf("PUS %q", s))
}

func opPOB(e *Engine, line string, args []parser.Argument) parser.Result {
	dst, ok1 := evalAddr(e, args[0])
	buf, ok2 := pop(e, 1)
	if !ok1 || !ok2 || !e.Memory.WriteByte(dst, buf[0]) {
		return fail(line, "stack underflow")
	}
	return ok(fmt.Sprintf("POB -> 0x%X = 0x%02X", dst, buf[0]))
}

func opPOA(e *Engine, line string, args []parser.Argument) parser.Result {
	dst, ok1 := evalAddr(e, args[0])
	buf, ok2 := pop(e, 4)
	if !ok1 || !ok2 || !e.Memory.WriteWord(dst, fromLE32(buf)) {
		return fail(line, "stack underflow")
	}
	return ok(fmt.Sprintf("POA -> 0x%X = 0x%X", dst, fromLE32(buf)))
}

// opPOS pops a NUL-terminated string by walking forward from SP one
// byte at a time up to and including the NUL, moving SP past it, then
// writes the bytes (without the NUL) to dst — the mirror image of PUS.
func opPOS(e *Engine, line string, args []parser.Argument) parser.Result {
	dst, ok1 := evalAddr(e, args[0])
	if !ok1 {
		return fail(line, "unmapped operand")
	}
	sp, set := e.Memory.StackPointer()
	if !set {
		return fail(line, "stack underflow")
	}
	var raw []byte
	addr := sp
	for {
		b, ok := e.Memory.ReadByte(addr)
		if !ok {
			return fail(line, "stack underflow")
		}
		raw = append(raw, b)
		addr++
		if b == 0 {
			break
		}
	}
	if !e.Memory.SetStackPointer(addr) {
		return fail(line, "stack underflow")
	}
	str := raw[:len(raw)-1]
	if !e.Memory.WriteString(dst, str) {
		return fail(line, "unmapped write")
	}
	return ok(fmt.Sprintf("POS -> 0x%X = %q", dst, str))
}
