package memory

import (
	"encoding/binary"

	"github.com/Manu343726/armv4t/pkg/hw/cpu/arm"
	"github.com/Manu343726/armv4t/pkg/utils"
)

// DefaultLimit caps the growth of a Bytes memory at 16MB
const DefaultLimit uint32 = 16 << 20

// Bytes is a byte vector mapped at address 0 that grows when stored past
// its end. Loads past the end return zero. Stores at or beyond the limit
// are ignored.
type Bytes struct {
	Timing
	data  []byte
	limit uint32
}

var _ arm.Memory = (*Bytes)(nil)

// NewBytes returns a memory holding a copy of data, limited to limit bytes
// (DefaultLimit when zero)
func NewBytes(data []byte, limit uint32, timing Timing) *Bytes {
	if limit == 0 {
		limit = DefaultLimit
	}
	return &Bytes{
		Timing: timing,
		data:   append([]byte(nil), data...),
		limit:  limit,
	}
}

// Data returns the current contents
func (b *Bytes) Data() []byte {
	return b.data
}

func (b *Bytes) read(address uint32, n uint32) []byte {
	if uint64(address)+uint64(n) > uint64(len(b.data)) {
		return nil
	}
	return b.data[address : address+n]
}

// grow makes room for n bytes at address, returning nil past the limit
func (b *Bytes) grow(address uint32, n uint32) []byte {
	end := uint64(address) + uint64(n)
	if end > uint64(b.limit) {
		return nil
	}
	if end > uint64(len(b.data)) {
		b.data = append(b.data, make([]byte, end-uint64(len(b.data)))...)
	}
	return b.data[address:end]
}

func (b *Bytes) Load8(address uint32, access arm.AccessType, wait *arm.Cycles) uint8 {
	b.charge(wait, arm.Byte, access)
	if s := b.read(address, 1); s != nil {
		return s[0]
	}
	return 0
}

func (b *Bytes) Load16(address uint32, access arm.AccessType, wait *arm.Cycles) uint16 {
	b.charge(wait, arm.Half, access)
	if s := b.read(address, 2); s != nil {
		return binary.LittleEndian.Uint16(s)
	}
	return 0
}

func (b *Bytes) Load32(address uint32, access arm.AccessType, wait *arm.Cycles) uint32 {
	b.charge(wait, arm.Word, access)
	if s := b.read(address, 4); s != nil {
		return binary.LittleEndian.Uint32(s)
	}
	return 0
}

func (b *Bytes) Store8(address uint32, value uint8, access arm.AccessType, wait *arm.Cycles) {
	b.charge(wait, arm.Byte, access)
	if s := b.grow(address, 1); s != nil {
		s[0] = value
	}
}

func (b *Bytes) Store16(address uint32, value uint16, access arm.AccessType, wait *arm.Cycles) {
	b.charge(wait, arm.Half, access)
	if s := b.grow(address, 2); s != nil {
		binary.LittleEndian.PutUint16(s, value)
	}
}

func (b *Bytes) Store32(address uint32, value uint32, access arm.AccessType, wait *arm.Cycles) {
	b.charge(wait, arm.Word, access)
	if s := b.grow(address, 4); s != nil {
		binary.LittleEndian.PutUint32(s, value)
	}
}

// WriteBytes copies data at address, growing the vector as needed
func (b *Bytes) WriteBytes(address uint32, data []byte) error {
	s := b.grow(address, uint32(len(data)))
	if s == nil {
		return utils.MakeError(ErrOutOfRange, "0x%X bytes at 0x%08X exceed the 0x%X bytes limit", len(data), address, b.limit)
	}
	copy(s, data)
	return nil
}

// ReadBytes returns a copy of n bytes at address. Bytes past the end read
// as zero.
func (b *Bytes) ReadBytes(address uint32, n uint32) ([]byte, error) {
	if uint64(address)+uint64(n) > uint64(b.limit) {
		return nil, utils.MakeError(ErrOutOfRange, "0x%X bytes at 0x%08X exceed the 0x%X bytes limit", n, address, b.limit)
	}
	out := make([]byte, n)
	if uint64(address) < uint64(len(b.data)) {
		copy(out, b.data[address:])
	}
	return out, nil
}
