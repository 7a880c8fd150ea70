package loader

import (
	"debug/elf"
	"fmt"
	"io"

	"github.com/Manu343726/armv4t/pkg/utils"
)

// LoadELF copies the PT_LOAD segments of an ARM ELF executable
func LoadELF(w Writer, r io.ReaderAt, opts *Options) (*Image, error) {
	if opts == nil {
		opts = &Options{}
	}

	f, err := elf.NewFile(r)
	if err != nil {
		return nil, utils.MakeError(ErrUnsupportedFormat, "failed to parse ELF file: %v", err)
	}
	defer f.Close()

	if f.Class != elf.ELFCLASS32 {
		return nil, utils.MakeError(ErrUnsupportedFormat, "expected 32-bit ELF file, got %v", f.Class)
	}
	if f.Data != elf.ELFDATA2LSB {
		return nil, utils.MakeError(ErrUnsupportedFormat, "expected little-endian ELF file, got %v", f.Data)
	}
	if f.Machine != elf.EM_ARM {
		return nil, utils.MakeError(ErrUnsupportedFormat, "expected ARM ELF file, got %v", f.Machine)
	}
	if f.Type != elf.ET_EXEC {
		return nil, utils.MakeError(ErrUnsupportedFormat, "expected executable ELF file, got %v", f.Type)
	}

	image := &Image{
		Format: FormatELF,
		Entry:  uint32(f.Entry) &^ 1,
		Thumb:  f.Entry&1 != 0,
	}

	for _, prog := range f.Progs {
		if prog.Type != elf.PT_LOAD || prog.Memsz == 0 {
			continue
		}
		if prog.Filesz > prog.Memsz {
			return nil, utils.MakeError(ErrUnsupportedFormat, "segment at 0x%08X has file size 0x%X larger than memory size 0x%X", prog.Paddr, prog.Filesz, prog.Memsz)
		}

		data := make([]byte, prog.Memsz)
		if _, err := prog.ReadAt(data[:prog.Filesz], 0); err != nil && err != io.EOF {
			return nil, fmt.Errorf("reading segment at 0x%08X: %w", prog.Paddr, err)
		}

		address := uint32(prog.Paddr)
		if err := w.WriteBytes(address, data); err != nil {
			return nil, utils.MakeError(ErrImageTooLarge, "%v", err)
		}

		opts.logger().Debug("loaded ELF segment",
			"address", fmt.Sprintf("%08X", address),
			"filesz", prog.Filesz,
			"memsz", prog.Memsz,
			"flags", prog.Flags.String())

		image.Segments = append(image.Segments, Segment{
			Address:  address,
			FileSize: uint32(prog.Filesz),
			Size:     uint32(prog.Memsz),
		})
	}

	if len(image.Segments) == 0 {
		return nil, ErrNoLoadableSegment
	}
	return image, nil
}
