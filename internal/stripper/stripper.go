// Package stripper removes the section header table and the section-header
// string table from an ELF image and rewrites the header so the result
// declares it has no section headers. Program headers and segment contents
// are untouched; a loaded process never needs section metadata.
package stripper

import (
	"errors"
	"fmt"
	"os"

	"github.com/elf-tools/shstrip/internal/elfimage"
	"github.com/elf-tools/shstrip/internal/utils"
)

// ErrMalformedSectionTable indicates a section header table whose offset,
// entries, or string-table index resolve outside the file's logical size.
var ErrMalformedSectionTable = errors.New("malformed section header table")

// OutputFileMode is the creation mode of emitted files: owner
// read/write/execute, group read/write, no world access.
const OutputFileMode = os.FileMode(0o760)

// StringTableRegion is the byte range, within the source file, holding the
// null-separated section-name strings.
type StringTableRegion struct {
	Offset uint64
	Size   uint64
}

// Stripper implements the strip pipeline over elfimage views.
type Stripper struct {
	logger *utils.Logger
}

// New creates a Stripper logging through the given logger.
func New(logger *utils.Logger) *Stripper {
	if logger == nil {
		logger = utils.NewDefaultLogger()
	}
	return &Stripper{logger: logger}
}

// LocateStringTable resolves the section-header string table's content range
// from the entry at index e_shstrndx of the section header table.
func (s *Stripper) LocateStringTable(img *elfimage.Image) (StringTableRegion, error) {
	shoff, err := img.ReadHeaderField(elfimage.SectionTableOffset)
	if err != nil {
		return StringTableRegion{}, err
	}
	entsize, err := img.ReadHeaderField(elfimage.SectionEntrySize)
	if err != nil {
		return StringTableRegion{}, err
	}
	strndx, err := img.ReadHeaderField(elfimage.StringTableIndex)
	if err != nil {
		return StringTableRegion{}, err
	}

	size := uint64(img.Size())
	entryPos := shoff + strndx*entsize
	if shoff == 0 || entsize == 0 || entryPos+entsize > size || entryPos+entsize < entryPos {
		return StringTableRegion{}, fmt.Errorf("%w: string table entry %d at %#x exceeds file size %d",
			ErrMalformedSectionTable, strndx, entryPos, size)
	}

	off, err := img.ReadSectionField(entryPos, elfimage.SectionOffset)
	if err != nil {
		return StringTableRegion{}, fmt.Errorf("%w: %v", ErrMalformedSectionTable, err)
	}
	length, err := img.ReadSectionField(entryPos, elfimage.SectionSize)
	if err != nil {
		return StringTableRegion{}, fmt.Errorf("%w: %v", ErrMalformedSectionTable, err)
	}
	if off+length > size || off+length < off {
		return StringTableRegion{}, fmt.Errorf("%w: string table range [%#x,%#x) exceeds file size %d",
			ErrMalformedSectionTable, off, off+length, size)
	}

	return StringTableRegion{Offset: off, Size: length}, nil
}

// TruncationBoundary computes the byte offset at which the stripped output
// ends: the section header table's starting offset, or the full logical size
// when the image already has no section headers.
func (s *Stripper) TruncationBoundary(img *elfimage.Image) (uint64, error) {
	shoff, err := img.ReadHeaderField(elfimage.SectionTableOffset)
	if err != nil {
		return 0, err
	}
	if shoff == 0 {
		return uint64(img.Size()), nil
	}
	if shoff > uint64(img.Size()) {
		return 0, fmt.Errorf("%w: section table offset %#x exceeds file size %d",
			ErrMalformedSectionTable, shoff, img.Size())
	}
	return shoff, nil
}

// ScrubStringTable zeroes the region's bytes in the image's in-memory
// buffer. It must run against the source image before truncation: the region
// normally lies beyond the boundary and does not exist in the output.
func (s *Stripper) ScrubStringTable(img *elfimage.Image, region StringTableRegion) error {
	return img.Zero(int64(region.Offset), int64(region.Size))
}

// EmitStripped writes exactly the first boundary bytes of img to outPath.
// This is the sole place the file size changes.
func (s *Stripper) EmitStripped(img *elfimage.Image, boundary uint64, outPath string) error {
	if boundary > uint64(img.Size()) {
		return fmt.Errorf("%w: boundary %d exceeds file size %d",
			ErrMalformedSectionTable, boundary, img.Size())
	}
	f, err := os.OpenFile(outPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, OutputFileMode)
	if err != nil {
		return fmt.Errorf("emit stripped image: %w", err)
	}
	// The process umask may have masked bits off at creation.
	if err := f.Chmod(OutputFileMode); err != nil {
		f.Close()
		return fmt.Errorf("emit stripped image: %w", err)
	}
	if _, err := f.Write(img.Bytes()[:boundary]); err != nil {
		f.Close()
		return fmt.Errorf("emit stripped image: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("emit stripped image: %w", err)
	}
	return nil
}

// RewriteHeader zeroes the four section-table header fields on the output
// image, so consumers see a file that declares no section headers rather
// than a dangling offset.
func (s *Stripper) RewriteHeader(out *elfimage.Image) error {
	fields := []elfimage.HeaderField{
		elfimage.SectionTableOffset,
		elfimage.SectionEntrySize,
		elfimage.SectionCount,
		elfimage.StringTableIndex,
	}
	for _, field := range fields {
		if err := out.WriteHeaderField(field, 0); err != nil {
			return err
		}
	}
	return nil
}

// Strip reads the ELF image at inputPath and writes its stripped form to
// outputPath. The input file on disk is never modified; the string table
// scrub happens on the in-memory working copy only.
func (s *Stripper) Strip(inputPath, outputPath string) error {
	log := s.logger.WithComponent("stripper")

	in, err := elfimage.Open(inputPath)
	if err != nil {
		return err
	}
	defer in.Close()

	log.Debugf("opened %s: %s, %d bytes", inputPath, in.Class(), in.Size())

	boundary, err := s.TruncationBoundary(in)
	if err != nil {
		return err
	}

	// A file with no section headers strips to an unchanged copy; there is
	// no string table to locate or scrub.
	if boundary < uint64(in.Size()) {
		region, err := s.LocateStringTable(in)
		if err != nil {
			return err
		}
		log.Debugf("string table at %#x, %d bytes", region.Offset, region.Size)
		if err := s.ScrubStringTable(in, region); err != nil {
			return err
		}
	} else {
		log.Debugf("%s has no section headers, copying unchanged", inputPath)
	}

	if err := s.EmitStripped(in, boundary, outputPath); err != nil {
		return err
	}

	out, err := elfimage.Open(outputPath)
	if err != nil {
		return err
	}
	defer out.Close()

	if err := s.RewriteHeader(out); err != nil {
		return err
	}
	if err := out.Flush(); err != nil {
		return err
	}

	log.Infof("stripped %s -> %s (%d of %d bytes kept)", inputPath, outputPath, boundary, in.Size())
	return nil
}
