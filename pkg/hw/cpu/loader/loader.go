// Package loader loads program images into memory.
//
// Two formats are supported:
//
//   - Raw binaries, copied as is at a base address. The entry point is the
//     base address.
//   - 32 bit little endian ARM ELF executables. Every PT_LOAD segment is
//     copied at its physical address and zero filled up to its memory
//     size. The entry point comes from the ELF header, with bit 0 selecting
//     THUMB state.
//
// Typical usage:
//
//	mem, _ := memory.NewFlat(memory.DefaultConfig())
//	image, err := loader.LoadFile(mem, "program.elf", nil)
//	if err != nil { ... }
//	cpu.Registers.PutT(image.Thumb)
//	cpu.SetPC(image.Entry, mem)
package loader

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/Manu343726/armv4t/pkg/utils"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported image format")
	ErrNoLoadableSegment = errors.New("no loadable segment")
	ErrImageTooLarge     = errors.New("image does not fit in memory")
	ErrReadImage         = errors.New("cannot read image")
)

// Writer is the memory an image is copied into
type Writer interface {
	WriteBytes(address uint32, data []byte) error
}

// Format of a program image
type Format int

const (
	// FormatAuto detects the format from the file contents
	FormatAuto Format = iota
	// FormatRaw is a plain memory dump
	FormatRaw
	// FormatELF is an ARM ELF executable
	FormatELF
)

// String returns the string representation of a Format
func (f Format) String() string {
	switch f {
	case FormatAuto:
		return "auto"
	case FormatRaw:
		return "raw"
	case FormatELF:
		return "elf"
	default:
		return fmt.Sprintf("unknown(%d)", int(f))
	}
}

// ParseFormat parses the name of a format as returned by String()
func ParseFormat(name string) (Format, error) {
	for _, f := range []Format{FormatAuto, FormatRaw, FormatELF} {
		if f.String() == name {
			return f, nil
		}
	}
	return FormatAuto, utils.MakeError(ErrUnsupportedFormat, "'%s' (supported: auto, raw, elf)", name)
}

// Options configures the loading process
type Options struct {
	// Format of the image, detected from its contents when FormatAuto
	Format Format
	// Base is the load address of raw images
	Base uint32
	// Thumb starts raw images in THUMB state
	Thumb bool
	// Logger receives a debug record per loaded segment. Defaults to
	// slog.Default()
	Logger *slog.Logger
}

func (o *Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

// Segment is a contiguous range of loaded memory
type Segment struct {
	Address uint32
	// FileSize bytes were copied from the image, the rest up to Size were
	// zero filled
	FileSize uint32
	Size     uint32
}

// Image describes a loaded program
type Image struct {
	Format   Format
	Entry    uint32
	Thumb    bool
	Segments []Segment
}

// End returns the address past the highest loaded byte
func (i *Image) End() uint32 {
	var end uint32
	for _, s := range i.Segments {
		end = max(end, s.Address+s.Size)
	}
	return end
}

var elfMagic = []byte{0x7F, 'E', 'L', 'F'}

// DetectFormat guesses the format of an image from its contents
func DetectFormat(data []byte) Format {
	if bytes.HasPrefix(data, elfMagic) {
		return FormatELF
	}
	return FormatRaw
}

// Load copies an image held in memory
func Load(w Writer, data []byte, opts *Options) (*Image, error) {
	if opts == nil {
		opts = &Options{}
	}

	format := opts.Format
	if format == FormatAuto {
		format = DetectFormat(data)
	}

	switch format {
	case FormatRaw:
		return LoadRaw(w, data, opts)
	case FormatELF:
		return LoadELF(w, bytes.NewReader(data), opts)
	default:
		return nil, utils.MakeError(ErrUnsupportedFormat, "%v", format)
	}
}

// LoadFile reads and copies an image file
func LoadFile(w Writer, path string, opts *Options) (*Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, utils.MakeError(ErrReadImage, "'%s': %w", path, err)
	}
	return Load(w, data, opts)
}

// LoadRaw copies a raw binary at opts.Base
func LoadRaw(w Writer, data []byte, opts *Options) (*Image, error) {
	if opts == nil {
		opts = &Options{}
	}
	if err := w.WriteBytes(opts.Base, data); err != nil {
		return nil, utils.MakeError(ErrImageTooLarge, "%v", err)
	}

	opts.logger().Debug("loaded raw image", "address", fmt.Sprintf("%08X", opts.Base), "size", len(data))
	return &Image{
		Format: FormatRaw,
		Entry:  opts.Base,
		Thumb:  opts.Thumb,
		Segments: []Segment{{
			Address:  opts.Base,
			FileSize: uint32(len(data)),
			Size:     uint32(len(data)),
		}},
	}, nil
}
