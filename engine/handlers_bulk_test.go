package engine_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bthedestroyer/kip/engine"
	"github.com/bthedestroyer/kip/parser"
)

func TestHandlerFILFillsRange(t *testing.T) {
	e, res := runOne(t, 4, "FIL 10 0x7 5",
		parser.DataArg{Value: 10}, parser.DataArg{Value: 0x7}, parser.DataArg{Value: 5})
	require.True(t, res.Success)
	for addr := uint32(10); addr < 15; addr++ {
		v, ok := e.Memory.ReadByte(addr)
		require.True(t, ok)
		assert.Equal(t, byte(0x7), v)
	}
}

func TestHandlerFILUnmappedWriteFails(t *testing.T) {
	_, res := runOne(t, 4, "FIL 250 0x7 10",
		parser.DataArg{Value: 250}, parser.DataArg{Value: 0x7}, parser.DataArg{Value: 10})
	assert.False(t, res.Success)
}

func TestHandlerCPYCopiesRange(t *testing.T) {
	e := newTestEngine(t, []engine.Instruction{
		inst(1, "STB 10 0xAB", parser.DataArg{Value: 10}, parser.DataArg{Value: 0xAB}),
		inst(5, "CPY 20 10 1", parser.DataArg{Value: 20}, parser.DataArg{Value: 10}, parser.DataArg{Value: 1}),
	})
	require.True(t, e.Step().Success)
	require.True(t, e.Step().Success)
	v, ok := e.Memory.ReadByte(20)
	require.True(t, ok)
	assert.Equal(t, byte(0xAB), v)
}

// TestHandlerCPYIntoUnmappedRangeFails reproduces CPY against memory
// mapped only over [0,512): a destination/source starting at 1000
// leaves every byte of the [1000, 1016) range unmapped, so the failure
// result must name that exact range rather than a bare "unmapped
// write/read".
func TestHandlerCPYIntoUnmappedRangeFails(t *testing.T) {
	mem := engine.NewMemory()
	require.NoError(t, mem.Map(engine.Block{MappedStart: 0, Size: 512, Buffer: make([]byte, 512)}))
	require.True(t, mem.SetStackPointer(512))
	e := engine.NewEngine(mem, []engine.Instruction{
		inst(5, "CPY 0 1000 16",
			parser.DataArg{Value: 0}, parser.DataArg{Value: 1000}, parser.DataArg{Value: 16}),
	}, ".", 0)

	res := e.Step()
	require.False(t, res.Success)
	assert.Contains(t, res.Message, "[1000, 1016)")
}

func TestHandlerSAVThenBINRoundTrip(t *testing.T) {
	dir := t.TempDir()
	mem := engine.NewMemory()
	require.NoError(t, mem.Map(engine.Block{MappedStart: 0, Size: 256, Buffer: make([]byte, 256)}))
	require.True(t, mem.SetStackPointer(256))
	e := engine.NewEngine(mem, []engine.Instruction{
		inst(2, "STA 0 0xCAFEBABE", parser.DataArg{Value: 0}, parser.DataArg{Value: 0xCAFEBABE}),
		inst(7, `SAV 0 4 "dump.bin"`, parser.DataArg{Value: 0}, parser.DataArg{Value: 4}, parser.StringArg{Text: []byte("dump.bin")}),
		inst(6, `BIN 100 "dump.bin"`, parser.DataArg{Value: 100}, parser.StringArg{Text: []byte("dump.bin")}),
	}, dir, 0)

	require.True(t, e.Step().Success)
	require.True(t, e.Step().Success)
	require.True(t, e.Step().Success)

	if _, err := os.Stat(filepath.Join(dir, "dump.bin")); err != nil {
		t.Fatalf("expected dump.bin to exist: %v", err)
	}
	v, ok := e.Memory.ReadWord(100)
	require.True(t, ok)
	assert.Equal(t, uint32(0xCAFEBABE), v)
}

func TestHandlerBINMissingFileFails(t *testing.T) {
	dir := t.TempDir()
	mem := engine.NewMemory()
	require.NoError(t, mem.Map(engine.Block{MappedStart: 0, Size: 256, Buffer: make([]byte, 256)}))
	require.True(t, mem.SetStackPointer(256))
	e := engine.NewEngine(mem, []engine.Instruction{
		inst(6, `BIN 0 "missing.bin"`, parser.DataArg{Value: 0}, parser.StringArg{Text: []byte("missing.bin")}),
	}, dir, 0)

	res := e.Step()
	assert.False(t, res.Success)
}

func TestHandlerRDBSucceedsOnMappedAddress(t *testing.T) {
	e := newTestEngine(t, []engine.Instruction{
		inst(1, "STB 10 0x42", parser.DataArg{Value: 10}, parser.DataArg{Value: 0x42}),
		inst(8, "RDB 10", parser.DataArg{Value: 10}),
	})
	require.True(t, e.Step().Success)
	res := e.Step()
	require.True(t, res.Success)
	assert.Contains(t, res.Message, "0x42")
}

func TestHandlerRDBFailsOnUnmappedAddress(t *testing.T) {
	_, res := runOne(t, 8, "RDB 9999", parser.DataArg{Value: 9999})
	assert.False(t, res.Success)
}

func TestHandlerRDASucceedsOnMappedAddress(t *testing.T) {
	e := newTestEngine(t, []engine.Instruction{
		inst(2, "STA 10 0xDEAD", parser.DataArg{Value: 10}, parser.DataArg{Value: 0xDEAD}),
		inst(9, "RDA 10", parser.DataArg{Value: 10}),
	})
	require.True(t, e.Step().Success)
	require.True(t, e.Step().Success)
}

func TestHandlerRDSSucceedsOnMappedAddress(t *testing.T) {
	e := newTestEngine(t, []engine.Instruction{
		inst(3, `STS 10 "hi"`, parser.DataArg{Value: 10}, parser.StringArg{Text: []byte("hi")}),
		inst(10, "RDS 10", parser.DataArg{Value: 10}),
	})
	require.True(t, e.Step().Success)
	res := e.Step()
	require.True(t, res.Success)
	assert.Contains(t, res.Message, "hi")
}

func TestHandlerBitwiseShiftFamily(t *testing.T) {
	cases := []struct {
		name     string
		opcode   uint8
		a, b     uint32
		expected byte
	}{
		{"BLS", 35, 0x01, 3, 0x08},
		{"BRS", 36, 0x80, 3, 0x10},
		{"ROL", 37, 0x81, 1, 0x03},
		{"ROR", 38, 0x81, 1, 0xC0},
		{"AND", 39, 0xF0, 0x1C, 0x10},
		{"BOR", 40, 0x0F, 0x10, 0x1F},
		{"XOR", 41, 0xFF, 0x0F, 0xF0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e, res := runOne(t, tc.opcode, tc.name+" line",
				parser.DataArg{Value: tc.a}, parser.DataArg{Value: tc.b}, parser.DataArg{Value: 10})
			require.True(t, res.Success)
			v, ok := e.Memory.ReadByte(10)
			require.True(t, ok)
			assert.Equal(t, tc.expected, v)
		})
	}
}
