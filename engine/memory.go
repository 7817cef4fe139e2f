// Package engine implements the KIP memory map and instruction
// dispatcher: the runtime half of the system, consumed by a Context
// built by package parser. Grounded on a segmented-memory idiom (vm.Memory /
// vm.MemorySegment (ordered segment list, linear scan, explicit
// little-endian word encode/decode), generalized from four fixed
// named segments to an arbitrary set of host-mapped/unmapped blocks
// backed by either a byte buffer or a read/write callback pair
// (callback idiom grounded on KTStephano-GVM's device model).
package engine

import "fmt"

// ReadFunc and WriteFunc are host-supplied memory-mapped callbacks.
// Either may be nil on a given Block, meaning that direction is
// unsupported for that range: a callback block may have either
// callback null, meaning the range is write-only or read-only
// respectively.
type ReadFunc func(addr uint32) (byte, bool)
type WriteFunc func(addr uint32, val byte) bool

// Block is one entry in the memory map: a mapped address range backed
// either by a caller-owned byte buffer or by a callback pair.
type Block struct {
	MappedStart uint32
	Size        uint32
	Buffer      []byte // non-nil for buffer-backed blocks
	Read        ReadFunc
	Write       WriteFunc
}

func (b *Block) isCallback() bool { return b.Buffer == nil }

// end returns the one-past-end address of the block.
func (b *Block) end() uint32 { return b.MappedStart + b.Size }

// contains reports whether addr falls within [start, end).
func (b *Block) contains(addr uint32) bool {
	return addr >= b.MappedStart && addr < b.end()
}

// Memory is the sparse, sorted, non-overlapping memory map plus the
// single stack-pointer register. Multi-byte values are always encoded
// little-endian.
type Memory struct {
	blocks []*Block
	sp     uint32
	spSet  bool
}

// NewMemory creates an empty memory map with no stack pointer set.
func NewMemory() *Memory {
	return &Memory{}
}

// Map inserts a new block, preserving sort order by MappedStart.
// Rejected if the range wraps past 2^32, has zero size, or intersects
// any existing block — including the case where the new range's start
// equals an existing block's end or vice versa.
func (m *Memory) Map(b Block) error {
	if b.Size == 0 {
		return fmt.Errorf("memory block size must be > 0")
	}
	end := uint64(b.MappedStart) + uint64(b.Size)
	if end > 1<<32 {
		return fmt.Errorf("memory block [0x%X, +0x%X) wraps past 2^32", b.MappedStart, b.Size)
	}

	for _, existing := range m.blocks {
		if overlaps(b.MappedStart, uint32(end), existing.MappedStart, existing.end()) {
			return fmt.Errorf("memory block [0x%X, 0x%X) overlaps existing block [0x%X, 0x%X)",
				b.MappedStart, uint32(end), existing.MappedStart, existing.end())
		}
	}

	idx := 0
	for ; idx < len(m.blocks); idx++ {
		if m.blocks[idx].MappedStart > b.MappedStart {
			break
		}
	}

	block := b
	m.blocks = append(m.blocks, nil)
	copy(m.blocks[idx+1:], m.blocks[idx:])
	m.blocks[idx] = &block
	return nil
}

// overlaps reports whether [s1,e1) and [s2,e2) share any address —
// or merely touch at a shared edge — two ranges must leave at least a
// one-address gap to both be mappable.
func overlaps(s1, e1, s2, e2 uint32) bool {
	return e1 >= s2 && e2 >= s1
}

// UnmapByStart removes the block whose MappedStart matches addr.
func (m *Memory) UnmapByStart(addr uint32) bool {
	for i, b := range m.blocks {
		if b.MappedStart == addr {
			m.blocks = append(m.blocks[:i], m.blocks[i+1:]...)
			return true
		}
	}
	return false
}

// UnmapByBuffer removes the block whose backing buffer is buf (by
// identity, not contents).
func (m *Memory) UnmapByBuffer(buf []byte) bool {
	if buf == nil {
		return false
	}
	for i, b := range m.blocks {
		if len(b.Buffer) > 0 && &b.Buffer[0] == &buf[0] {
			m.blocks = append(m.blocks[:i], m.blocks[i+1:]...)
			return true
		}
	}
	return false
}

// findBlock returns the block containing addr, via linear scan. The
// map is expected to be short in practice; a balanced tree is a
// drop-in replacement if it ever isn't.
func (m *Memory) findBlock(addr uint32) *Block {
	for _, b := range m.blocks {
		if b.contains(addr) {
			return b
		}
	}
	return nil
}

// ReadByte reads one byte at addr. Returns ok=false if addr is
// unmapped or the containing block has no read callback.
func (m *Memory) ReadByte(addr uint32) (byte, bool) {
	b := m.findBlock(addr)
	if b == nil {
		return 0, false
	}
	if b.isCallback() {
		if b.Read == nil {
			return 0, false
		}
		return b.Read(addr)
	}
	return b.Buffer[addr-b.MappedStart], true
}

// WriteByte writes one byte at addr. Returns false if addr is
// unmapped or the containing block has no write callback.
func (m *Memory) WriteByte(addr uint32, val byte) bool {
	b := m.findBlock(addr)
	if b == nil {
		return false
	}
	if b.isCallback() {
		if b.Write == nil {
			return false
		}
		return b.Write(addr, val)
	}
	b.Buffer[addr-b.MappedStart] = val
	return true
}

// ReadBytes reads n bytes starting at addr into buf, spanning
// consecutive blocks if they are perfectly contiguous. Returns false
// on any gap or unmapped byte.
func (m *Memory) ReadBytes(addr uint32, buf []byte, n int) bool {
	for i := 0; i < n; i++ {
		v, ok := m.ReadByte(addr + uint32(i))
		if !ok {
			return false
		}
		buf[i] = v
	}
	return true
}

// WriteBytes writes n bytes from buf starting at addr, spanning
// consecutive blocks if contiguous. Returns false on any gap.
func (m *Memory) WriteBytes(addr uint32, buf []byte, n int) bool {
	for i := 0; i < n; i++ {
		if !m.WriteByte(addr+uint32(i), buf[i]) {
			return false
		}
	}
	return true
}

// ReadWord reads a little-endian 4-byte word at addr.
func (m *Memory) ReadWord(addr uint32) (uint32, bool) {
	var buf [4]byte
	if !m.ReadBytes(addr, buf[:], 4) {
		return 0, false
	}
	return uint32(buf[0]) | uint32(buf[1])<<8 | uint32(buf[2])<<16 | uint32(buf[3])<<24, true
}

// WriteWord writes a little-endian 4-byte word at addr.
func (m *Memory) WriteWord(addr uint32, val uint32) bool {
	buf := [4]byte{byte(val), byte(val >> 8), byte(val >> 16), byte(val >> 24)}
	return m.WriteBytes(addr, buf[:], 4)
}

// ReadString reads a NUL-terminated byte string starting at addr.
func (m *Memory) ReadString(addr uint32) ([]byte, bool) {
	var out []byte
	for {
		b, ok := m.ReadByte(addr)
		if !ok {
			return nil, false
		}
		if b == 0 {
			return out, true
		}
		out = append(out, b)
		addr++
	}
}

// WriteString writes s followed by a trailing NUL byte at addr.
func (m *Memory) WriteString(addr uint32, s []byte) bool {
	if !m.WriteBytes(addr, s, len(s)) {
		return false
	}
	return m.WriteByte(addr+uint32(len(s)), 0)
}

// inMappedRange reports whether addr falls within some block,
// inclusive of a block's one-past-end boundary — the stack pointer
// may rest there even though no byte is mapped at that address.
func (m *Memory) inMappedRange(addr uint32) bool {
	for _, b := range m.blocks {
		if addr >= b.MappedStart && addr <= b.end() {
			return true
		}
	}
	return false
}

// SetStackPointer sets SP, failing if addr is not within a mapped
// block (inclusive of a block's end boundary).
func (m *Memory) SetStackPointer(addr uint32) bool {
	if !m.inMappedRange(addr) {
		return false
	}
	m.sp = addr
	m.spSet = true
	return true
}

// StackPointer returns the current SP and whether it has been set.
func (m *Memory) StackPointer() (uint32, bool) {
	return m.sp, m.spSet
}
