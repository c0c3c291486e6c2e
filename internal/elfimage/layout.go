package elfimage

import "debug/elf"

// Class represents the ELF class (word size) of an image.
type Class int

const (
	Class32 Class = 32
	Class64 Class = 64
)

// String returns a human-readable class name
func (c Class) String() string {
	switch c {
	case Class32:
		return "ELF32"
	case Class64:
		return "ELF64"
	default:
		return "unknown"
	}
}

// HeaderField identifies one logical field of the ELF header. Callers address
// header fields by name; the image resolves the byte offset and width for the
// detected class, so nothing outside this package branches on 32- vs 64-bit.
type HeaderField int

const (
	// SectionTableOffset is e_shoff, the file offset of the section header table.
	SectionTableOffset HeaderField = iota
	// SectionEntrySize is e_shentsize, the size of one section header entry.
	SectionEntrySize
	// SectionCount is e_shnum, the number of section header entries.
	SectionCount
	// StringTableIndex is e_shstrndx, the section header table index of the
	// section-header string table.
	StringTableIndex
)

// SectionField identifies one logical field within a section header entry.
type SectionField int

const (
	// SectionOffset is sh_offset, the file offset of the section's content.
	SectionOffset SectionField = iota
	// SectionSize is sh_size, the byte size of the section's content.
	SectionSize
)

// fieldSpec locates one field: byte offset from the start of its structure
// plus the field's width in bytes.
type fieldSpec struct {
	off   int64
	width int
}

// Header field layouts per the standard Elf32_Ehdr / Elf64_Ehdr structures.
var headerLayout = map[Class]map[HeaderField]fieldSpec{
	Class32: {
		SectionTableOffset: {off: 0x20, width: 4},
		SectionEntrySize:   {off: 0x2e, width: 2},
		SectionCount:       {off: 0x30, width: 2},
		StringTableIndex:   {off: 0x32, width: 2},
	},
	Class64: {
		SectionTableOffset: {off: 0x28, width: 8},
		SectionEntrySize:   {off: 0x3a, width: 2},
		SectionCount:       {off: 0x3c, width: 2},
		StringTableIndex:   {off: 0x3e, width: 2},
	},
}

// Section header entry layouts per the standard Elf32_Shdr / Elf64_Shdr
// structures. Offsets are relative to the start of one entry.
var sectionLayout = map[Class]map[SectionField]fieldSpec{
	Class32: {
		SectionOffset: {off: 0x10, width: 4},
		SectionSize:   {off: 0x14, width: 4},
	},
	Class64: {
		SectionOffset: {off: 0x18, width: 8},
		SectionSize:   {off: 0x20, width: 8},
	},
}

// classFromIdent maps the EI_CLASS identification byte to a Class.
func classFromIdent(b byte) (Class, bool) {
	switch elf.Class(b) {
	case elf.ELFCLASS32:
		return Class32, true
	case elf.ELFCLASS64:
		return Class64, true
	default:
		return 0, false
	}
}
