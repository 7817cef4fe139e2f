package engine

import "github.com/bthedestroyer/kip/parser"

// evalAddr implements Addr(x): performs exactly DereferenceCount
// 4-byte word reads, returning the literal value directly when
// DereferenceCount is 0. Only meaningful for DataArg; a StringArg or InvalidArg
// cannot be used as an address.
func evalAddr(e *Engine, arg parser.Argument) (uint32, bool) {
	d, ok := parser.AsData(arg)
	if !ok {
		return 0, false
	}
	val := d.Value
	for i := uint8(0); i < d.DereferenceCount; i++ {
		v, ok := e.Memory.ReadWord(val)
		if !ok {
			return 0, false
		}
		val = v
	}
	return val, true
}

// evalByte implements Byte(x): for DereferenceCount k >= 1, performs
// k-1 word reads to compute an address, then one final byte read
// there; for k == 0, the literal's low byte is used directly with no
// memory access at all.
func evalByte(e *Engine, arg parser.Argument) (byte, bool) {
	d, ok := parser.AsData(arg)
	if !ok {
		return 0, false
	}
	if d.DereferenceCount == 0 {
		return byte(d.Value), true
	}
	val := d.Value
	for i := uint8(0); i < d.DereferenceCount-1; i++ {
		v, ok := e.Memory.ReadWord(val)
		if !ok {
			return 0, false
		}
		val = v
	}
	return e.Memory.ReadByte(val)
}

// evalStr implements Str(x): a string literal is returned directly;
// a numeric argument is treated as an address (via evalAddr) and the
// NUL-terminated string there is fetched from memory.
func evalStr(e *Engine, arg parser.Argument) ([]byte, bool) {
	if s, ok := parser.AsString(arg); ok {
		return s.Text, true
	}
	addr, ok := evalAddr(e, arg)
	if !ok {
		return nil, false
	}
	return e.Memory.ReadString(addr)
}

func rotateLeft(v byte, n uint) byte {
	n %= 8
	return v<<n | v>>(8-n)
}

func rotateRight(v byte, n uint) byte {
	n %= 8
	return v>>n | v<<(8-n)
}
