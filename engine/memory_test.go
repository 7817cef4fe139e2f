package engine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bthedestroyer/kip/engine"
)

func TestMemoryMapAndReadWriteByte(t *testing.T) {
	mem := engine.NewMemory()
	require.NoError(t, mem.Map(engine.Block{MappedStart: 0x100, Size: 16, Buffer: make([]byte, 16)}))

	require.True(t, mem.WriteByte(0x105, 0xAB))
	v, ok := mem.ReadByte(0x105)
	require.True(t, ok)
	assert.Equal(t, byte(0xAB), v)
}

func TestMemoryReadWriteUnmappedFails(t *testing.T) {
	mem := engine.NewMemory()
	require.NoError(t, mem.Map(engine.Block{MappedStart: 0, Size: 8, Buffer: make([]byte, 8)}))

	_, ok := mem.ReadByte(0x1000)
	assert.False(t, ok)
	assert.False(t, mem.WriteByte(0x1000, 1))
}

func TestMemoryMapRejectsZeroSize(t *testing.T) {
	mem := engine.NewMemory()
	err := mem.Map(engine.Block{MappedStart: 0, Size: 0, Buffer: []byte{}})
	assert.Error(t, err)
}

func TestMemoryMapRejectsWrapPast32Bits(t *testing.T) {
	mem := engine.NewMemory()
	err := mem.Map(engine.Block{MappedStart: 0xFFFFFFF0, Size: 0x20, Buffer: make([]byte, 0x20)})
	assert.Error(t, err)
}

func TestMemoryMapRejectsOverlap(t *testing.T) {
	mem := engine.NewMemory()
	require.NoError(t, mem.Map(engine.Block{MappedStart: 0, Size: 16, Buffer: make([]byte, 16)}))

	err := mem.Map(engine.Block{MappedStart: 8, Size: 16, Buffer: make([]byte, 16)})
	assert.Error(t, err)
}

func TestMemoryMapRejectsTouchingEdges(t *testing.T) {
	mem := engine.NewMemory()
	require.NoError(t, mem.Map(engine.Block{MappedStart: 0, Size: 16, Buffer: make([]byte, 16)}))

	// A block starting exactly where the first one ends must still be
	// rejected -- the disjointness check treats shared edges as overlap.
	err := mem.Map(engine.Block{MappedStart: 16, Size: 16, Buffer: make([]byte, 16)})
	assert.Error(t, err)
}

func TestMemoryMapAllowsGapBetweenBlocks(t *testing.T) {
	mem := engine.NewMemory()
	require.NoError(t, mem.Map(engine.Block{MappedStart: 0, Size: 16, Buffer: make([]byte, 16)}))
	err := mem.Map(engine.Block{MappedStart: 17, Size: 16, Buffer: make([]byte, 16)})
	assert.NoError(t, err)
}

func TestMemoryWordRoundTripLittleEndian(t *testing.T) {
	mem := engine.NewMemory()
	require.NoError(t, mem.Map(engine.Block{MappedStart: 0, Size: 16, Buffer: make([]byte, 16)}))

	require.True(t, mem.WriteWord(0, 0x01020304))
	b0, _ := mem.ReadByte(0)
	b1, _ := mem.ReadByte(1)
	b2, _ := mem.ReadByte(2)
	b3, _ := mem.ReadByte(3)
	assert.Equal(t, []byte{0x04, 0x03, 0x02, 0x01}, []byte{b0, b1, b2, b3})

	v, ok := mem.ReadWord(0)
	require.True(t, ok)
	assert.Equal(t, uint32(0x01020304), v)
}

func TestMemoryStringRoundTrip(t *testing.T) {
	mem := engine.NewMemory()
	require.NoError(t, mem.Map(engine.Block{MappedStart: 0, Size: 32, Buffer: make([]byte, 32)}))

	require.True(t, mem.WriteString(4, []byte("hi")))
	s, ok := mem.ReadString(4)
	require.True(t, ok)
	assert.Equal(t, "hi", string(s))
}

func TestMemoryStackPointerRequiresMappedAddress(t *testing.T) {
	mem := engine.NewMemory()
	require.NoError(t, mem.Map(engine.Block{MappedStart: 0, Size: 16, Buffer: make([]byte, 16)}))

	assert.False(t, mem.SetStackPointer(0x9999))
	_, set := mem.StackPointer()
	assert.False(t, set)

	assert.True(t, mem.SetStackPointer(16))
	sp, set := mem.StackPointer()
	assert.True(t, set)
	assert.Equal(t, uint32(16), sp)
}

func TestMemoryCallbackBlockReadOnly(t *testing.T) {
	mem := engine.NewMemory()
	backing := byte(0x42)
	require.NoError(t, mem.Map(engine.Block{
		MappedStart: 0x2000,
		Size:        1,
		Read: func(addr uint32) (byte, bool) {
			return backing, true
		},
	}))

	v, ok := mem.ReadByte(0x2000)
	require.True(t, ok)
	assert.Equal(t, backing, v)
	assert.False(t, mem.WriteByte(0x2000, 0x99))
}

func TestMemoryUnmapByStart(t *testing.T) {
	mem := engine.NewMemory()
	require.NoError(t, mem.Map(engine.Block{MappedStart: 0, Size: 16, Buffer: make([]byte, 16)}))
	assert.True(t, mem.UnmapByStart(0))
	_, ok := mem.ReadByte(0)
	assert.False(t, ok)
	assert.False(t, mem.UnmapByStart(0))
}
