// Completion: 100% - vDSO ELF inspection complete
//go:build linux

package vdsotime

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"fmt"
)

// All supported targets are little-endian.
var byteOrder = binary.LittleEndian

// DynSym is one exported dynamic symbol of the vDSO image. Offset is
// relative to the image base; Size is the natural ELF symbol size rounded
// up to the .text section alignment, i.e. the byte distance to the next
// symbol slot. A jump stub padded to Size fills the slot exactly, so a
// restore copies back precisely what was captured and a write never
// scribbles past the symbol.
type DynSym struct {
	Name   string
	Offset uint64
	Size   uint64
}

// ELF64 header layout, see elf(5).
const (
	ehdrSize     = 64
	offShoff     = 0x28 // e_shoff, uint64
	offShentsize = 0x3A // e_shentsize, uint16
	offShnum     = 0x3C // e_shnum, uint16
)

var elfMagic = []byte{0x7F, 'E', 'L', 'F'}

// imageSize computes the total vDSO image length from a copy of its ELF
// header: the section header table is the last thing in the image, so the
// image ends at e_shoff + e_shnum * e_shentsize.
func imageSize(ehdr []byte) (int, error) {
	if len(ehdr) < ehdrSize {
		return 0, fmt.Errorf("%w: header truncated at %d bytes", ErrBadElf, len(ehdr))
	}
	if !bytes.Equal(ehdr[:4], elfMagic) {
		return 0, fmt.Errorf("%w: bad magic % x", ErrBadElf, ehdr[:4])
	}
	if elf.Class(ehdr[elf.EI_CLASS]) != elf.ELFCLASS64 {
		return 0, fmt.Errorf("%w: only 64-bit images are supported", ErrBadElf)
	}
	if elf.Data(ehdr[elf.EI_DATA]) != elf.ELFDATA2LSB {
		return 0, fmt.Errorf("%w: not little-endian", ErrBadElf)
	}
	shoff := byteOrder.Uint64(ehdr[offShoff:])
	shentsize := uint64(byteOrder.Uint16(ehdr[offShentsize:]))
	shnum := uint64(byteOrder.Uint16(ehdr[offShnum:]))
	if shoff == 0 || shnum == 0 || shentsize == 0 {
		return 0, fmt.Errorf("%w: no section header table", ErrBadElf)
	}
	return int(shoff + shnum*shentsize), nil
}

// dynamicSymbols enumerates the exported dynamic symbols of image.
// Symbols with a zero value are discarded. The .text section supplies the
// alignment for size rounding and the load base: base = sh_addr - sh_offset,
// so offset = st_value - base is the symbol's position within the image.
func dynamicSymbols(image []byte) ([]DynSym, error) {
	f, err := elf.NewFile(bytes.NewReader(image))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadElf, err)
	}
	text := f.Section(".text")
	if text == nil || text.Addralign == 0 || text.Addr < text.Offset {
		return nil, ErrNoTextSection
	}
	base := text.Addr - text.Offset
	syms, err := f.DynamicSymbols()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadElf, err)
	}
	out := make([]DynSym, 0, len(syms))
	for _, s := range syms {
		if s.Value == 0 {
			continue
		}
		out = append(out, DynSym{
			Name:   s.Name,
			Offset: s.Value - base,
			Size:   align(s.Size, text.Addralign),
		})
	}
	return out, nil
}

// align returns n rounded up to the next multiple of alignment.
func align[I Integer](n, alignment I) I {
	return (n + alignment - 1) / alignment * alignment
}

// Integer represents all possible integer types.
type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 | ~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr
}
