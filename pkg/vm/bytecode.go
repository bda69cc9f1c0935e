package vm

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
)

// Bytecode file format:
// - Magic: "VVBC" (4 bytes)
// - Version: uint16
// - BodyLength: uint32
// - Body: canonical CBOR encoding of Program

const (
	BytecodeMagic   = "VVBC"
	BytecodeVersion = 1
)

var (
	ErrInvalidMagic   = errors.New("invalid bytecode magic")
	ErrInvalidVersion = errors.New("unsupported bytecode version")
	ErrTruncatedBody  = errors.New("bytecode body shorter than header length")
)

// Program bundles an instruction stream with the constant table and register
// counts it was built for.
type Program struct {
	Code      []byte   `cbor:"1,keyasint"`
	Constants []Vector `cbor:"2,keyasint"`
	Inputs    int      `cbor:"3,keyasint"` // input registers read
	Outputs   int      `cbor:"4,keyasint"` // output registers written
}

// Exec runs the program with v over numLanes lanes.
func (p *Program) Exec(v *VM, inputs, outputs [][]Vector, numLanes int) error {
	return v.Exec(p.Code, inputs, outputs, p.Constants, numLanes)
}

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("vm: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// SerializeProgram serializes a Program to bytecode format.
func SerializeProgram(p *Program) ([]byte, error) {
	body, err := cborEncMode.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encoding program: %w", err)
	}

	buf := new(bytes.Buffer)
	buf.WriteString(BytecodeMagic)
	if err := binary.Write(buf, binary.LittleEndian, uint16(BytecodeVersion)); err != nil {
		return nil, fmt.Errorf("writing version: %w", err)
	}
	if err := binary.Write(buf, binary.LittleEndian, uint32(len(body))); err != nil {
		return nil, fmt.Errorf("writing body length: %w", err)
	}
	buf.Write(body)

	return buf.Bytes(), nil
}

// DeserializeProgram deserializes bytecode to a Program.
func DeserializeProgram(data []byte) (*Program, error) {
	buf := bytes.NewReader(data)

	magic := make([]byte, 4)
	if _, err := io.ReadFull(buf, magic); err != nil {
		return nil, fmt.Errorf("reading magic: %w", err)
	}
	if string(magic) != BytecodeMagic {
		return nil, ErrInvalidMagic
	}

	var version uint16
	if err := binary.Read(buf, binary.LittleEndian, &version); err != nil {
		return nil, fmt.Errorf("reading version: %w", err)
	}
	if version != BytecodeVersion {
		return nil, ErrInvalidVersion
	}

	var bodyLen uint32
	if err := binary.Read(buf, binary.LittleEndian, &bodyLen); err != nil {
		return nil, fmt.Errorf("reading body length: %w", err)
	}
	if int64(bodyLen) > int64(buf.Len()) {
		return nil, fmt.Errorf("%w: header claims %d bytes, %d remain", ErrTruncatedBody, bodyLen, buf.Len())
	}
	body := make([]byte, bodyLen)
	if _, err := io.ReadFull(buf, body); err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}

	var p Program
	if err := cbor.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("decoding program: %w", err)
	}
	return &p, nil
}

// Disassemble converts a Program back to assembler source that reassembles
// to the same bytes. Instruction offsets and names go in comments. Decoding
// stops at the first malformed instruction, which is reported in a trailing
// comment.
func Disassemble(p *Program) string {
	var buf bytes.Buffer

	buf.WriteString("; Disassembled from VVM bytecode\n")
	buf.WriteString(fmt.Sprintf("; %d bytes, %d constants, %d inputs, %d outputs\n\n",
		len(p.Code), len(p.Constants), p.Inputs, p.Outputs))

	for i, c := range p.Constants {
		buf.WriteString(fmt.Sprintf(".const %d %s\n", i, formatConstant(c)))
	}
	if len(p.Constants) > 0 {
		buf.WriteString("\n")
	}

	insts, err := Decode(p.Code)
	for _, inst := range insts {
		comment := fmt.Sprintf("%04x", inst.Offset)
		if info, ok := InfoFor(inst.Op); ok && inst.Op != OpDone {
			comment += " " + info.Name
		}
		buf.WriteString(fmt.Sprintf("%-32s ; %s\n", inst.String(), comment))
	}
	if err != nil {
		buf.WriteString(fmt.Sprintf("; error: %v\n", err))
	}

	return buf.String()
}

// formatConstant prints splatted vectors as a single scalar.
func formatConstant(v Vector) string {
	if v[0] == v[1] && v[1] == v[2] && v[2] == v[3] {
		return fmt.Sprintf("%g", v[0])
	}
	return fmt.Sprintf("%g, %g, %g, %g", v[0], v[1], v[2], v[3])
}
