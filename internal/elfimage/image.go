// Package elfimage provides a byte-addressable view of an ELF file with
// class-aware accessors for the header fields involved in section header
// stripping.
package elfimage

import (
	"debug/elf"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
)

// Sentinel errors reported by Open and the accessors.
var (
	// ErrNotELF indicates the file does not begin with the ELF magic signature.
	ErrNotELF = errors.New("not an ELF file")
	// ErrUnsupportedClass indicates a class byte that is neither 32- nor 64-bit.
	ErrUnsupportedClass = errors.New("unsupported ELF class")
	// ErrOutOfBounds indicates an access outside the image's logical size.
	ErrOutOfBounds = errors.New("offset out of image bounds")
	// ErrClosed indicates use of an image after Close.
	ErrClosed = errors.New("image is closed")
)

// bufAlign rounds the backing buffer's capacity, so raw length is always at
// least the logical size and the two never coincide by accident in tests.
const bufAlign = 4096

// All supported targets store header fields in their native little-endian
// order; the identification byte order field is deliberately not inspected.
var byteOrder = binary.LittleEndian

// Image owns one ELF file's bytes. The backing buffer is exclusively owned:
// it is never shared with another Image, and mutations stay in memory until
// Flush writes them back to the opened path.
type Image struct {
	path  string
	class Class
	raw   []byte
	size  int64
}

// Open reads the file at path and validates the 4-byte ELF magic signature
// and the class byte. No further ELF validation is performed.
func Open(path string) (*Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	if len(data) < elf.EI_NIDENT || string(data[:4]) != elf.ELFMAG {
		return nil, fmt.Errorf("%s: %w", path, ErrNotELF)
	}
	class, ok := classFromIdent(data[elf.EI_CLASS])
	if !ok {
		return nil, fmt.Errorf("%s: %w: class byte %#x", path, ErrUnsupportedClass, data[elf.EI_CLASS])
	}

	raw := make([]byte, alignUp(len(data)))
	copy(raw, data)

	return &Image{
		path:  path,
		class: class,
		raw:   raw,
		size:  int64(len(data)),
	}, nil
}

// Class reports the image's ELF class. Fixed for the lifetime of the image.
func (img *Image) Class() Class {
	return img.class
}

// Size reports the logical content length in bytes. The backing buffer may
// be longer; bytes past Size are never meaningful.
func (img *Image) Size() int64 {
	return img.size
}

// Path reports the filesystem path the image was opened from.
func (img *Image) Path() string {
	return img.path
}

// Bytes returns the logical content. The slice aliases the image's buffer;
// callers must not retain it past Close.
func (img *Image) Bytes() []byte {
	return img.raw[:img.size]
}

// ReadHeaderField reads one logical ELF header field, resolving the byte
// offset and width for the image's class.
func (img *Image) ReadHeaderField(field HeaderField) (uint64, error) {
	spec, ok := headerLayout[img.class][field]
	if !ok {
		return 0, fmt.Errorf("unknown header field %d", field)
	}
	return img.ReadWord(spec.off, spec.width)
}

// WriteHeaderField writes one logical ELF header field in the in-memory view.
// Durability requires a subsequent Flush.
func (img *Image) WriteHeaderField(field HeaderField, value uint64) error {
	spec, ok := headerLayout[img.class][field]
	if !ok {
		return fmt.Errorf("unknown header field %d", field)
	}
	return img.writeWord(spec.off, spec.width, value)
}

// ReadSectionField reads one logical field of the section header entry that
// starts at entryPos.
func (img *Image) ReadSectionField(entryPos uint64, field SectionField) (uint64, error) {
	spec, ok := sectionLayout[img.class][field]
	if !ok {
		return 0, fmt.Errorf("unknown section field %d", field)
	}
	return img.ReadWord(int64(entryPos)+spec.off, spec.width)
}

// ReadWord reads a little-endian unsigned integer of the given byte width
// (2, 4 or 8) at off, bounds-checked against the logical size.
func (img *Image) ReadWord(off int64, width int) (uint64, error) {
	if img.raw == nil {
		return 0, ErrClosed
	}
	if off < 0 || off+int64(width) > img.size {
		return 0, fmt.Errorf("read %d bytes at %#x: %w", width, off, ErrOutOfBounds)
	}
	b := img.raw[off : off+int64(width)]
	switch width {
	case 2:
		return uint64(byteOrder.Uint16(b)), nil
	case 4:
		return uint64(byteOrder.Uint32(b)), nil
	case 8:
		return byteOrder.Uint64(b), nil
	default:
		return 0, fmt.Errorf("unsupported word width %d", width)
	}
}

// writeWord stores a little-endian unsigned integer of the given byte width
// at off, bounds-checked against the logical size.
func (img *Image) writeWord(off int64, width int, value uint64) error {
	if img.raw == nil {
		return ErrClosed
	}
	if off < 0 || off+int64(width) > img.size {
		return fmt.Errorf("write %d bytes at %#x: %w", width, off, ErrOutOfBounds)
	}
	b := img.raw[off : off+int64(width)]
	switch width {
	case 2:
		byteOrder.PutUint16(b, uint16(value))
	case 4:
		byteOrder.PutUint32(b, uint32(value))
	case 8:
		byteOrder.PutUint64(b, value)
	default:
		return fmt.Errorf("unsupported word width %d", width)
	}
	return nil
}

// Zero overwrites n bytes starting at off with zero, bounds-checked against
// the logical size. The change stays in memory until Flush.
func (img *Image) Zero(off, n int64) error {
	if img.raw == nil {
		return ErrClosed
	}
	if off < 0 || n < 0 || off+n > img.size {
		return fmt.Errorf("zero %d bytes at %#x: %w", n, off, ErrOutOfBounds)
	}
	clear(img.raw[off : off+n])
	return nil
}

// Flush writes the logical content back to the opened path, making all
// in-memory mutations visible to readers who reopen it.
func (img *Image) Flush() error {
	if img.raw == nil {
		return ErrClosed
	}
	if err := os.WriteFile(img.path, img.raw[:img.size], 0o600); err != nil {
		return fmt.Errorf("flush image: %w", err)
	}
	return nil
}

// Close releases the backing buffer. The image is unusable afterwards.
// Pending unflushed mutations are discarded.
func (img *Image) Close() error {
	img.raw = nil
	return nil
}

func alignUp(n int) int {
	if r := n % bufAlign; r != 0 {
		return n + bufAlign - r
	}
	if n == 0 {
		return bufAlign
	}
	return n
}
