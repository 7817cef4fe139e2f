// Package bytecode implements the serialized form of an assembled KIP
// program: a fixed header, a label-record block, and an
// instruction-record block. This is a fresh self-describing format,
// deliberately not modeled on any half-finished compile/decode path
// rules it out as a guide — grounded instead on the header-then-flat-
// record-stream idiom from KTStephano-GVM's vm/bytecode.go.
package bytecode

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/bthedestroyer/kip/engine"
	"github.com/bthedestroyer/kip/parser"
)

const (
	magic        = "KIP\x00"
	MajorVersion = 1
	MinorVersion = 0

	tagNumericLabel = 0xFE
	tagStringLabel  = 0xFD

	kindData   = 0x00
	kindString = 0x01

	// InstructionsEnd bounds opcode bytes to the range reserved for
	// instruction records (0x01 through 0xEF inclusive).
	InstructionsEnd = 0xEF
)

// Image is the decoded form of a bytecode blob: every label the
// source defined plus the instruction stream, ready to hand to
// engine.NewEngine without re-running the parser.
type Image struct {
	Labels       map[string]parser.Argument
	Instructions []engine.Instruction
}

// Encode serializes ctx's label table and program into the KIP
// bytecode format.
func Encode(ctx *parser.Context, program []engine.Instruction) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(magic)
	buf.WriteByte(MajorVersion)
	buf.WriteByte(MinorVersion)
	buf.Write(make([]byte, 10)) // reserved

	if err := binary.Write(&buf, binary.LittleEndian, uint32(len(ctx.Labels))); err != nil {
		return nil, fmt.Errorf("failed to write label count: %w", err)
	}
	if err := binary.Write(&buf, binary.LittleEndian, uint32(len(program))); err != nil {
		return nil, fmt.Errorf("failed to write instruction count: %w", err)
	}

	for name, arg := range ctx.Labels {
		if err := encodeLabel(&buf, name, arg); err != nil {
			return nil, err
		}
	}

	for _, inst := range program {
		if inst.OpcodeID > InstructionsEnd {
			return nil, fmt.Errorf("opcode ID %d exceeds reserved instruction range (0x%02X)", inst.OpcodeID, InstructionsEnd)
		}
		if err := encodeInstruction(&buf, inst); err != nil {
			return nil, err
		}
	}

	return buf.Bytes(), nil
}

func encodeLabel(buf *bytes.Buffer, name string, arg parser.Argument) error {
	switch v := arg.(type) {
	case parser.DataArg:
		buf.WriteByte(tagNumericLabel)
		if err := writeName(buf, name); err != nil {
			return err
		}
		return binary.Write(buf, binary.LittleEndian, v.Value)

	case parser.StringArg:
		buf.WriteByte(tagStringLabel)
		if err := writeName(buf, name); err != nil {
			return err
		}
		return writeBytes32(buf, v.Text)

	default:
		return fmt.Errorf("label %q has no encodable value", name)
	}
}

func writeName(buf *bytes.Buffer, name string) error {
	if len(name) > 0xFFFF {
		return fmt.Errorf("label name %q exceeds 65535 bytes", name)
	}
	if err := binary.Write(buf, binary.LittleEndian, uint16(len(name))); err != nil {
		return err
	}
	buf.WriteString(name)
	return nil
}

func writeBytes32(buf *bytes.Buffer, b []byte) error {
	if err := binary.Write(buf, binary.LittleEndian, uint32(len(b))); err != nil {
		return err
	}
	buf.Write(b)
	return nil
}

func encodeInstruction(buf *bytes.Buffer, inst engine.Instruction) error {
	buf.WriteByte(inst.OpcodeID)
	if len(inst.Args) > 0xFF {
		return fmt.Errorf("instruction %q has more than 255 arguments", inst.SourceLine)
	}
	buf.WriteByte(byte(len(inst.Args)))

	for _, arg := range inst.Args {
		switch v := arg.(type) {
		case parser.DataArg:
			buf.WriteByte(v.DereferenceCount)
			buf.WriteByte(kindData)
			if err := binary.Write(buf, binary.LittleEndian, v.Value); err != nil {
				return err
			}
		case parser.StringArg:
			buf.WriteByte(0)
			buf.WriteByte(kindString)
			if err := writeBytes32(buf, v.Text); err != nil {
				return err
			}
		default:
			return fmt.Errorf("instruction %q has an unencodable argument", inst.SourceLine)
		}
	}
	return nil
}

// Decode parses a KIP bytecode blob back into an Image.
func Decode(data []byte) (*Image, error) {
	r := bytes.NewReader(data)

	hdr := make([]byte, 4)
	if _, err := r.Read(hdr); err != nil || string(hdr) != magic {
		return nil, fmt.Errorf("not a KIP bytecode file (bad magic)")
	}

	var major, minor byte
	if err := binary.Read(r, binary.LittleEndian, &major); err != nil {
		return nil, fmt.Errorf("failed to read major version: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &minor); err != nil {
		return nil, fmt.Errorf("failed to read minor version: %w", err)
	}
	if major != MajorVersion {
		return nil, fmt.Errorf("unsupported bytecode major version %d (expected %d)", major, MajorVersion)
	}

	reserved := make([]byte, 10)
	if _, err := r.Read(reserved); err != nil {
		return nil, fmt.Errorf("failed to read reserved header bytes: %w", err)
	}

	var labelCount, instCount uint32
	if err := binary.Read(r, binary.LittleEndian, &labelCount); err != nil {
		return nil, fmt.Errorf("failed to read label count: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &instCount); err != nil {
		return nil, fmt.Errorf("failed to read instruction count: %w", err)
	}

	img := &Image{
		Labels:       make(map[string]parser.Argument, labelCount),
		Instructions: make([]engine.Instruction, 0, instCount),
	}

	for i := uint32(0); i < labelCount; i++ {
		name, arg, err := decodeLabel(r)
		if err != nil {
			return nil, fmt.Errorf("label record %d: %w", i, err)
		}
		img.Labels[name] = arg
	}

	for i := uint32(0); i < instCount; i++ {
		inst, err := decodeInstruction(r)
		if err != nil {
			return nil, fmt.Errorf("instruction record %d: %w", i, err)
		}
		img.Instructions = append(img.Instructions, inst)
	}

	return img, nil
}

func decodeLabel(r *bytes.Reader) (string, parser.Argument, error) {
	tag, err := r.ReadByte()
	if err != nil {
		return "", nil, fmt.Errorf("failed to read tag: %w", err)
	}

	name, err := readName(r)
	if err != nil {
		return "", nil, err
	}

	switch tag {
	case tagNumericLabel:
		var val uint32
		if err := binary.Read(r, binary.LittleEndian, &val); err != nil {
			return "", nil, fmt.Errorf("failed to read label value: %w", err)
		}
		return name, parser.DataArg{Value: val}, nil

	case tagStringLabel:
		text, err := readBytes32(r)
		if err != nil {
			return "", nil, err
		}
		return name, parser.StringArg{Text: text}, nil

	default:
		return "", nil, fmt.Errorf("unrecognized label tag 0x%02X", tag)
	}
}

func readName(r *bytes.Reader) (string, error) {
	var n uint16
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", fmt.Errorf("failed to read name length: %w", err)
	}
	buf := make([]byte, n)
	if _, err := r.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read name: %w", err)
	}
	return string(buf), nil
}

func readBytes32(r *bytes.Reader) ([]byte, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, fmt.Errorf("failed to read byte-string length: %w", err)
	}
	buf := make([]byte, n)
	if _, err := r.Read(buf); err != nil {
		return nil, fmt.Errorf("failed to read byte string: %w", err)
	}
	return buf, nil
}

func decodeInstruction(r *bytes.Reader) (engine.Instruction, error) {
	opcodeID, err := r.ReadByte()
	if err != nil {
		return engine.Instruction{}, fmt.Errorf("failed to read opcode ID: %w", err)
	}
	if opcodeID > InstructionsEnd {
		return engine.Instruction{}, fmt.Errorf("opcode ID %d exceeds reserved instruction range", opcodeID)
	}

	argCount, err := r.ReadByte()
	if err != nil {
		return engine.Instruction{}, fmt.Errorf("failed to read argument count: %w", err)
	}

	args := make([]parser.Argument, 0, argCount)
	for i := byte(0); i < argCount; i++ {
		deref, err := r.ReadByte()
		if err != nil {
			return engine.Instruction{}, fmt.Errorf("argument %d: failed to read dereference count: %w", i, err)
		}
		kind, err := r.ReadByte()
		if err != nil {
			return engine.Instruction{}, fmt.Errorf("argument %d: failed to read kind: %w", i, err)
		}

		switch kind {
		case kindData:
			var val uint32
			if err := binary.Read(r, binary.LittleEndian, &val); err != nil {
				return engine.Instruction{}, fmt.Errorf("argument %d: failed to read value: %w", i, err)
			}
			args = append(args, parser.DataArg{Value: val, DereferenceCount: deref})

		case kindString:
			text, err := readBytes32(r)
			if err != nil {
				return engine.Instruction{}, fmt.Errorf("argument %d: %w", i, err)
			}
			args = append(args, parser.StringArg{Text: text})

		default:
			return engine.Instruction{}, fmt.Errorf("argument %d: unrecognized kind 0x%02X", i, kind)
		}
	}

	name := "?"
	if op, ok := engine.OpcodeByID(opcodeID); ok {
		name = op.Mnemonic
	}

	return engine.Instruction{SourceLine: name, OpcodeID: opcodeID, Args: args}, nil
}
