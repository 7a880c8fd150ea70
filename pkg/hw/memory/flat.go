package memory

import (
	"encoding/binary"
	"errors"

	"github.com/Manu343726/armv4t/pkg/hw/cpu/arm"
	"github.com/Manu343726/armv4t/pkg/utils"
)

var (
	ErrOutOfRange  = errors.New("address out of range")
	ErrInvalidSize = errors.New("invalid memory size")
)

// Config describes a flat memory
type Config struct {
	// Base is the address of the first byte
	Base uint32 `mapstructure:"base" yaml:"base"`
	// Size in bytes
	Size   uint32 `mapstructure:"size" yaml:"size"`
	Timing Timing `mapstructure:"timing" yaml:"timing"`
}

// DefaultConfig is 1MB of zero wait state memory at address 0
func DefaultConfig() Config {
	return Config{
		Size: 1 << 20,
	}
}

// Flat is a fixed size memory mapped at a base address. Loads outside of
// it return zero and stores outside of it are ignored.
type Flat struct {
	Timing
	base uint32
	data []byte
}

var _ arm.Memory = (*Flat)(nil)

// NewFlat allocates a flat memory
func NewFlat(config Config) (*Flat, error) {
	if config.Size == 0 || config.Size%4 != 0 {
		return nil, utils.MakeError(ErrInvalidSize, "flat memory size must be a non zero multiple of 4, got %d", config.Size)
	}
	if uint64(config.Base)+uint64(config.Size) > 1<<32 {
		return nil, utils.MakeError(ErrInvalidSize, "0x%X bytes at 0x%08X exceed the address space", config.Size, config.Base)
	}
	return &Flat{
		Timing: config.Timing,
		base:   config.Base,
		data:   make([]byte, config.Size),
	}, nil
}

// Base returns the address of the first byte
func (f *Flat) Base() uint32 {
	return f.base
}

// Size returns the size in bytes
func (f *Flat) Size() uint32 {
	return uint32(len(f.data))
}

// slice returns the n bytes at address, or nil if they are not all mapped
func (f *Flat) slice(address uint32, n uint32) []byte {
	offset := uint64(address) - uint64(f.base)
	if address < f.base || offset+uint64(n) > uint64(len(f.data)) {
		return nil
	}
	return f.data[offset : offset+uint64(n)]
}

func (f *Flat) Load8(address uint32, access arm.AccessType, wait *arm.Cycles) uint8 {
	f.charge(wait, arm.Byte, access)
	if b := f.slice(address, 1); b != nil {
		return b[0]
	}
	return 0
}

func (f *Flat) Load16(address uint32, access arm.AccessType, wait *arm.Cycles) uint16 {
	f.charge(wait, arm.Half, access)
	if b := f.slice(address, 2); b != nil {
		return binary.LittleEndian.Uint16(b)
	}
	return 0
}

func (f *Flat) Load32(address uint32, access arm.AccessType, wait *arm.Cycles) uint32 {
	f.charge(wait, arm.Word, access)
	if b := f.slice(address, 4); b != nil {
		return binary.LittleEndian.Uint32(b)
	}
	return 0
}

func (f *Flat) Store8(address uint32, value uint8, access arm.AccessType, wait *arm.Cycles) {
	f.charge(wait, arm.Byte, access)
	if b := f.slice(address, 1); b != nil {
		b[0] = value
	}
}

func (f *Flat) Store16(address uint32, value uint16, access arm.AccessType, wait *arm.Cycles) {
	f.charge(wait, arm.Half, access)
	if b := f.slice(address, 2); b != nil {
		binary.LittleEndian.PutUint16(b, value)
	}
}

func (f *Flat) Store32(address uint32, value uint32, access arm.AccessType, wait *arm.Cycles) {
	f.charge(wait, arm.Word, access)
	if b := f.slice(address, 4); b != nil {
		binary.LittleEndian.PutUint32(b, value)
	}
}

// WriteBytes copies data into memory starting at address, without
// charging any cycles
func (f *Flat) WriteBytes(address uint32, data []byte) error {
	b := f.slice(address, uint32(len(data)))
	if b == nil {
		return utils.MakeError(ErrOutOfRange, "0x%X bytes at 0x%08X do not fit in [0x%08X, 0x%08X)", len(data), address, f.base, uint64(f.base)+uint64(len(f.data)))
	}
	copy(b, data)
	return nil
}

// ReadBytes returns a copy of n bytes starting at address, without
// charging any cycles
func (f *Flat) ReadBytes(address uint32, n uint32) ([]byte, error) {
	b := f.slice(address, n)
	if b == nil {
		return nil, utils.MakeError(ErrOutOfRange, "0x%X bytes at 0x%08X do not fit in [0x%08X, 0x%08X)", n, address, f.base, uint64(f.base)+uint64(len(f.data)))
	}
	return append([]byte(nil), b...), nil
}
