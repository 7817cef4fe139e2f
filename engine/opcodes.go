package engine

import "github.com/bthedestroyer/kip/parser"

// Handler evaluates one decoded instruction against a running Engine
// and reports the outcome. Handlers that redirect control (jumps, CAL,
// RET) set e.PC directly and HLT sets e.Halted; every other handler
// leaves PC advancement to the dispatcher loop.
type Handler func(e *Engine, line string, args []parser.Argument) parser.Result

// Opcode is one row of the table-driven dispatch catalogue: a stable
// ID, the canonical mnemonic, its argument count, a verbosity
// threshold for the result log, and its evaluator.
// Grounded on db47h-ngaro's vm/opcodes.go dispatch-table idiom.
type Opcode struct {
	ID       uint8
	Mnemonic string
	ArgCount int
	Verbose  uint8
	Handler  Handler
}

// Verbosity thresholds: lower means noisier (always-on) output;
// RDB/RDA/RDS debug reads are the quietest tier.
const (
	VerbosityControlFlow = 0
	VerbosityMemoryWrite = 1
	VerbosityArithmetic  = 2
	VerbosityDebugRead   = 3
)

var opcodeTable []Opcode
var opcodeByName map[string]*Opcode
var opcodeByID map[uint8]*Opcode

func init() {
	opcodeTable = []Opcode{
		{1, "STB", 2, VerbosityMemoryWrite, opSTB},
		{2, "STA", 2, VerbosityMemoryWrite, opSTA},
		{3, "STS", 2, VerbosityMemoryWrite, opSTS},
		{4, "FIL", 3, VerbosityMemoryWrite, opFIL},
		{5, "CPY", 3, VerbosityMemoryWrite, opCPY},
		{6, "BIN", 2, VerbosityMemoryWrite, opBIN},
		{7, "SAV", 3, VerbosityMemoryWrite, opSAV},
		{8, "RDB", 1, VerbosityDebugRead, opRDB},
		{9, "RDA", 1, VerbosityDebugRead, opRDA},
		{10, "RDS", 1, VerbosityDebugRead, opRDS},
		{11, "JMP", 1, VerbosityControlFlow, opJMP},
		{12, "JEQ", 3, VerbosityControlFlow, opJEQ},
		{13, "JNE", 3, VerbosityControlFlow, opJNE},
		{14, "JGT", 3, VerbosityControlFlow, opJGT},
		{15, "JLT", 3, VerbosityControlFlow, opJLT},
		{16, "JGE", 3, VerbosityControlFlow, opJGE},
		{17, "JLE", 3, VerbosityControlFlow, opJLE},
		{18, "HLT", 0, VerbosityControlFlow, opHLT},
		{19, "CAL", 1, VerbosityControlFlow, opCAL},
		{20, "RET", 0, VerbosityControlFlow, opRET},
		{21, "ADB", 3, VerbosityArithmetic, opADB},
		{22, "SBB", 3, VerbosityArithmetic, opSBB},
		{23, "MLB", 3, VerbosityArithmetic, opMLB},
		{24, "DVB", 3, VerbosityArithmetic, opDVB},
		{25, "MDB", 3, VerbosityArithmetic, opMDB},
		{26, "ADA", 3, VerbosityArithmetic, opADA},
		{27, "SBA", 3, VerbosityArithmetic, opSBA},
		{28, "MLA", 3, VerbosityArithmetic, opMLA},
		{29, "DVA", 3, VerbosityArithmetic, opDVA},
		{30, "MDA", 3, VerbosityArithmetic, opMDA},
		{31, "INB", 1, VerbosityArithmetic, opINB},
		{32, "INA", 1, VerbosityArithmetic, opINA},
		{33, "DCB", 1, VerbosityArithmetic, opDCB},
		{34, "DCA", 1, VerbosityArithmetic, opDCA},
		{35, "BLS", 3, VerbosityArithmetic, opBLS},
		{36, "BRS", 3, VerbosityArithmetic, opBRS},
		{37, "ROL", 3, VerbosityArithmetic, opROL},
		{38, "ROR", 3, VerbosityArithmetic, opROR},
		{39, "AND", 3, VerbosityArithmetic, opAND},
		{40, "BOR", 3, VerbosityArithmetic, opBOR},
		{41, "XOR", 3, VerbosityArithmetic, opXOR},
		{42, "NOT", 2, VerbosityArithmetic, opNOT},
		{43, "PUB", 1, VerbosityArithmetic, opPUB},
		{44, "PUA", 1, VerbosityArithmetic, opPUA},
		{45, "PUS", 1, VerbosityArithmetic, opPUS},
		{46, "POB", 1, VerbosityArithmetic, opPOB},
		{47, "POA", 1, VerbosityArithmetic, opPOA},
		{48, "POS", 1, VerbosityArithmetic, opPOS},
	}

	opcodeByName = make(map[string]*Opcode, len(opcodeTable)+1)
	opcodeByID = make(map[uint8]*Opcode, len(opcodeTable))
	for i := range opcodeTable {
		op := &opcodeTable[i]
		opcodeByName[op.Mnemonic] = op
		opcodeByID[op.ID] = op
	}
	// MDA/MDB share a mnemonic in one source revision. MDB is canonical
	// for byte-modulo and MDA for
	// word-modulo; "MOD" is accepted as a compatibility alias for the
	// word-modulo opcode for callers migrating from that revision.
	opcodeByName["MOD"] = opcodeByName["MDA"]
}

func lookupOpcode(mnemonic string) (*Opcode, bool) {
	op, ok := opcodeByName[mnemonic]
	return op, ok
}

// OpcodeByID returns the catalogue entry for a decoded OpcodeID (0 is
// the no-op placeholder and has no entry).
func OpcodeByID(id uint8) (*Opcode, bool) {
	op, ok := opcodeByID[id]
	return op, ok
}
