package ingest

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/JonMunkholm/SurveyIntake/internal/schema"
	"github.com/JonMunkholm/SurveyIntake/internal/tabular"
)

// MaxMemberSize bounds the uncompressed size of a single archive member.
const MaxMemberSize = 256 << 20

var (
	// ErrUnsupportedFile is returned when an upload cannot be opened as the
	// expected container or contains a data file in an unreadable format.
	ErrUnsupportedFile = errors.New("unsupported file")

	// ErrEmptyArchive is returned when an archive holds no recognized data files.
	ErrEmptyArchive = errors.New("archive contains no recognized data files")

	// ErrDuplicateClass is returned when two archive members map to the same
	// document class.
	ErrDuplicateClass = errors.New("archive contains more than one file for a document class")

	// ErrTooLarge is returned when an archive member exceeds MaxMemberSize.
	ErrTooLarge = errors.New("file too large")
)

// Archive is a parsed Darwin Core Archive. Each recognized data file becomes
// a worksheet named after its document class.
type Archive struct {
	Workbook *tabular.Workbook

	// Files maps each document class to the archive member it was read from.
	Files map[string]string

	// Meta holds the raw meta.xml descriptor, if present.
	Meta []byte

	// Unrecognized lists members that are not part of the archive vocabulary.
	Unrecognized []string
}

// Sheets returns the document classes found in the archive, including meta
// when a descriptor is present.
func (a *Archive) Sheets() []string {
	names := a.Workbook.Names()
	if a.Meta != nil {
		names = append(names, string(schema.ClassMeta))
		sort.Strings(names)
	}
	return names
}

// ReadDwCArchive parses a zipped Darwin Core Archive.
func ReadDwCArchive(r io.ReaderAt, size int64) (*Archive, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("%w: not a zip archive: %v", ErrUnsupportedFile, err)
	}

	archive := &Archive{Files: make(map[string]string)}
	grids := make(map[string]tabular.Grid)

	for _, f := range zr.File {
		if f.FileInfo().IsDir() || skipMember(f.Name) {
			continue
		}

		class, ok := schema.ClassifyDwCFile(f.Name)
		if !ok {
			archive.Unrecognized = append(archive.Unrecognized, f.Name)
			continue
		}
		if prev, exists := archive.Files[string(class)]; exists {
			return nil, fmt.Errorf("%w: %s and %s are both %s", ErrDuplicateClass, prev, f.Name, class)
		}

		data, err := readMember(f)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", f.Name, err)
		}
		archive.Files[string(class)] = f.Name

		if class == schema.ClassMeta {
			archive.Meta = data
			continue
		}

		comma, ok := delimiterFor(f.Name)
		if !ok {
			return nil, fmt.Errorf("%w: %s is not a delimited text file", ErrUnsupportedFile, f.Name)
		}
		rows, err := parseDelimited(data, comma)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", f.Name, err)
		}
		grids[string(class)] = tabular.StringGrid(rows)
	}

	if len(grids) == 0 {
		return nil, ErrEmptyArchive
	}

	sort.Strings(archive.Unrecognized)
	archive.Workbook = tabular.NewWorkbook(grids)
	return archive, nil
}

func readMember(f *zip.File) ([]byte, error) {
	if f.UncompressedSize64 > MaxMemberSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrTooLarge, f.UncompressedSize64)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return readLimited(rc, MaxMemberSize)
}

// skipMember reports whether a member is operating-system metadata.
func skipMember(name string) bool {
	for _, part := range strings.Split(strings.ReplaceAll(name, `\`, "/"), "/") {
		if part == "__MACOSX" || (strings.HasPrefix(part, ".") && part != "." && part != "..") {
			return true
		}
	}
	return false
}

func delimiterFor(name string) (rune, bool) {
	switch strings.ToLower(path.Ext(name)) {
	case ".txt", ".tab", ".tsv":
		return '\t', true
	case ".csv":
		return ',', true
	default:
		return 0, false
	}
}
