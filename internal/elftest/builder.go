// Package elftest synthesizes minimal ELF byte images for tests. The images
// carry just enough structure for section header stripping: an identification
// block, the section-table header fields, one section header table, and a
// section-header string table.
package elftest

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

var le = binary.LittleEndian

// Params describes the geometry of a synthesized image. Zero values are
// written as-is, so malformed layouts can be expressed directly.
type Params struct {
	Class      int // 32 or 64
	FileSize   uint64
	Shoff      uint64 // e_shoff
	Shentsize  uint64 // e_shentsize
	Shnum      uint64 // e_shnum
	Shstrndx   uint64 // e_shstrndx
	StrtabOff  uint64 // sh_offset of the shstrndx entry
	StrtabSize uint64 // sh_size of the shstrndx entry
	Names      []string
}

// Build returns an image laid out per p. Bytes not covered by the header,
// the section header table, or the string table are filled with a
// position-dependent pattern so prefix comparisons are meaningful.
func Build(p Params) []byte {
	data := make([]byte, p.FileSize)
	for i := range data {
		data[i] = byte(i % 251)
	}

	// Identification block.
	copy(data, []byte{0x7f, 'E', 'L', 'F'})
	switch p.Class {
	case 32:
		data[4] = 1
	case 64:
		data[4] = 2
	}
	data[5] = 1 // little-endian
	data[6] = 1 // EV_CURRENT
	for i := 7; i < 16; i++ {
		data[i] = 0
	}

	// Section-table header fields.
	if p.Class == 32 {
		le.PutUint32(data[0x20:], uint32(p.Shoff))
		le.PutUint16(data[0x2e:], uint16(p.Shentsize))
		le.PutUint16(data[0x30:], uint16(p.Shnum))
		le.PutUint16(data[0x32:], uint16(p.Shstrndx))
	} else {
		le.PutUint64(data[0x28:], p.Shoff)
		le.PutUint16(data[0x3a:], uint16(p.Shentsize))
		le.PutUint16(data[0x3c:], uint16(p.Shnum))
		le.PutUint16(data[0x3e:], uint16(p.Shstrndx))
	}

	// Section header table: zero every entry, then fill in the string table
	// entry's sh_offset and sh_size if it fits in the file.
	tabEnd := p.Shoff + p.Shnum*p.Shentsize
	if p.Shoff > 0 && tabEnd <= p.FileSize {
		clearRange(data, p.Shoff, p.Shnum*p.Shentsize)
		entry := p.Shoff + p.Shstrndx*p.Shentsize
		if entry+p.Shentsize <= p.FileSize {
			if p.Class == 32 {
				le.PutUint32(data[entry+0x10:], uint32(p.StrtabOff))
				le.PutUint32(data[entry+0x14:], uint32(p.StrtabSize))
			} else {
				le.PutUint64(data[entry+0x18:], p.StrtabOff)
				le.PutUint64(data[entry+0x20:], p.StrtabSize)
			}
		}
	}

	// String table content: leading NUL, then null-terminated names.
	if p.StrtabOff > 0 && p.StrtabOff+p.StrtabSize <= p.FileSize {
		clearRange(data, p.StrtabOff, p.StrtabSize)
		pos := p.StrtabOff + 1
		for _, name := range p.Names {
			end := pos + uint64(len(name)) + 1
			if end > p.StrtabOff+p.StrtabSize {
				break
			}
			copy(data[pos:], name)
			pos = end
		}
	}

	return data
}

// Build64 returns a canonical well-formed 64-bit image: 5000 bytes, section
// header table at 4800, string table just before it.
func Build64() []byte {
	return Build(Params{
		Class:      64,
		FileSize:   5000,
		Shoff:      4800,
		Shentsize:  64,
		Shnum:      3,
		Shstrndx:   2,
		StrtabOff:  4600,
		StrtabSize: 40,
		Names:      []string{".text", ".data", ".shstrtab"},
	})
}

// Build32 returns a canonical well-formed 32-bit image.
func Build32() []byte {
	return Build(Params{
		Class:      32,
		FileSize:   2048,
		Shoff:      1800,
		Shentsize:  40,
		Shnum:      4,
		Shstrndx:   3,
		StrtabOff:  1700,
		StrtabSize: 48,
		Names:      []string{".text", ".data", ".bss", ".shstrtab"},
	})
}

// BuildStripped64 returns a 64-bit image whose section-table header fields
// are already zero, as a stripped file would carry.
func BuildStripped64() []byte {
	return Build(Params{Class: 64, FileSize: 3000})
}

// WriteTemp writes data to a fresh file under t.TempDir and returns its path.
func WriteTemp(t testing.TB, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "image.elf")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func clearRange(data []byte, off, n uint64) {
	for i := off; i < off+n && i < uint64(len(data)); i++ {
		data[i] = 0
	}
}
