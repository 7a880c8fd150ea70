// Package asm encodes ARM and THUMB instructions and lays them out as a
// program image, resolving labels once every instruction is known.
//
// Typical usage:
//
//	p := asm.NewProgram(0x8000)
//	a := p.ARM()
//	a.MOV(asm.R0, asm.Imm(10))
//	p.Label("loop")
//	a.SUBS(asm.R0, asm.R0, asm.Imm(1))
//	a.If(arm.CondNE).B("loop")
//	a.SWI(0)
//	image, err := p.Assemble()
package asm

import (
	"encoding/binary"
	"errors"
	"sort"

	"github.com/Manu343726/armv4t/pkg/utils"
)

var (
	ErrUndefinedLabel    = errors.New("undefined label")
	ErrDuplicatedLabel   = errors.New("duplicated label")
	ErrOutOfRange        = errors.New("value out of range")
	ErrInvalidOperand    = errors.New("invalid operand")
	ErrMisalignedAddress = errors.New("misaligned address")
)

// fixup patches an instruction once the address of a label is known
type fixup struct {
	offset uint32
	label  string
	width  int
	patch  func(site, target, encoded uint32) (uint32, error)
}

// Program is a sequence of encoded instructions and data starting at a
// base address. Encoding errors are sticky: the first one is reported by
// Assemble().
type Program struct {
	base   uint32
	code   []byte
	labels map[string]uint32
	fixups []fixup
	err    error
}

// NewProgram starts an empty program at base
func NewProgram(base uint32) *Program {
	return &Program{
		base:   base,
		labels: make(map[string]uint32),
	}
}

// Base returns the address of the first byte
func (p *Program) Base() uint32 {
	return p.base
}

// PC returns the address of the next emitted byte
func (p *Program) PC() uint32 {
	return p.base + uint32(len(p.code))
}

// Err returns the first encoding error, if any
func (p *Program) Err() error {
	return p.err
}

func (p *Program) fail(err error) {
	if p.err == nil {
		p.err = err
	}
}

// Label binds name to the current address
func (p *Program) Label(name string) {
	if _, exists := p.labels[name]; exists {
		p.fail(utils.MakeError(ErrDuplicatedLabel, "'%s'", name))
		return
	}
	p.labels[name] = p.PC()
}

// Address returns the address bound to a label
func (p *Program) Address(name string) (uint32, error) {
	address, ok := p.labels[name]
	if !ok {
		return 0, utils.MakeError(ErrUndefinedLabel, "'%s'", name)
	}
	return address, nil
}

// Labels returns the label names sorted by address
func (p *Program) Labels() []string {
	names := make([]string, 0, len(p.labels))
	for name := range p.labels {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if p.labels[names[i]] == p.labels[names[j]] {
			return names[i] < names[j]
		}
		return p.labels[names[i]] < p.labels[names[j]]
	})
	return names
}

// Word emits a 32 bit little endian value
func (p *Program) Word(values ...uint32) {
	for _, v := range values {
		p.code = binary.LittleEndian.AppendUint32(p.code, v)
	}
}

// Half emits a 16 bit little endian value
func (p *Program) Half(values ...uint16) {
	for _, v := range values {
		p.code = binary.LittleEndian.AppendUint16(p.code, v)
	}
}

// Bytes emits raw bytes
func (p *Program) Bytes(data ...byte) {
	p.code = append(p.code, data...)
}

// Align pads with zeros up to a multiple of n bytes
func (p *Program) Align(n uint32) {
	for p.PC()%n != 0 {
		p.code = append(p.code, 0)
	}
}

// Space emits n zero bytes
func (p *Program) Space(n uint32) {
	p.code = append(p.code, make([]byte, n)...)
}

func (p *Program) addFixup(label string, width int, patch func(site, target, encoded uint32) (uint32, error)) {
	p.fixups = append(p.fixups, fixup{
		offset: uint32(len(p.code)),
		label:  label,
		width:  width,
		patch:  patch,
	})
}

// Assemble resolves every label reference and returns the program image
func (p *Program) Assemble() ([]byte, error) {
	if p.err != nil {
		return nil, p.err
	}

	image := append([]byte(nil), p.code...)
	for _, f := range p.fixups {
		target, err := p.Address(f.label)
		if err != nil {
			return nil, err
		}

		site := p.base + f.offset
		if f.width == 2 {
			encoded := uint32(binary.LittleEndian.Uint16(image[f.offset:]))
			patched, err := f.patch(site, target, encoded)
			if err != nil {
				return nil, utils.MakeError(err, "reference to '%s' at 0x%08X", f.label, site)
			}
			binary.LittleEndian.PutUint16(image[f.offset:], uint16(patched))
		} else {
			encoded := binary.LittleEndian.Uint32(image[f.offset:])
			patched, err := f.patch(site, target, encoded)
			if err != nil {
				return nil, utils.MakeError(err, "reference to '%s' at 0x%08X", f.label, site)
			}
			binary.LittleEndian.PutUint32(image[f.offset:], patched)
		}
	}
	return image, nil
}
