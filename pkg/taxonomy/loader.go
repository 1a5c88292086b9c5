package taxonomy

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Column positions of the tabular source, 0-indexed.
const (
	ColumnGrade       = 0
	ColumnCategory    = 5
	ColumnSubcategory = 6
)

// BlobScheme prefixes a source location that lives in blob storage.
const BlobScheme = "blob://"

// Format identifies a tabular source encoding.
type Format string

// Supported source formats.
const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// FormatOf derives the source format from a file name or storage key.
func FormatOf(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
	}
}

// Downloader streams a stored object by key. The caller closes the reader.
type Downloader interface {
	Download(ctx context.Context, key string) (io.ReadCloser, error)
}

// Open resolves source to a local path or, when prefixed with BlobScheme, a
// blob key read through d. Failures return an empty taxonomy alongside an
// error wrapping ErrSourceLoad so callers can decide whether to continue.
func Open(ctx context.Context, source, sheet string, d Downloader) (*Taxonomy, error) {
	key, ok := strings.CutPrefix(source, BlobScheme)
	if !ok {
		return Load(source, sheet)
	}

	if d == nil {
		return New(), fmt.Errorf("%w: %s: blob storage not configured", ErrSourceLoad, source)
	}
	return Fetch(ctx, d, key, sheet)
}

// Load reads a taxonomy from a csv or xlsx file on disk. sheet selects an
// xlsx worksheet; empty selects the active sheet.
func Load(path, sheet string) (*Taxonomy, error) {
	format, err := FormatOf(path)
	if err != nil {
		return New(), fmt.Errorf("%w: %w", ErrSourceLoad, err)
	}

	f, err := os.Open(path)
	if err != nil {
		return New(), fmt.Errorf("%w: %w", ErrSourceLoad, err)
	}
	defer f.Close()

	return Read(f, format, sheet)
}

// Fetch reads a taxonomy from blob storage.
func Fetch(ctx context.Context, d Downloader, key, sheet string) (*Taxonomy, error) {
	format, err := FormatOf(key)
	if err != nil {
		return New(), fmt.Errorf("%w: %w", ErrSourceLoad, err)
	}

	body, err := d.Download(ctx, key)
	if err != nil {
		return New(), fmt.Errorf("%w: download %s: %w", ErrSourceLoad, key, err)
	}
	defer body.Close()

	return Read(body, format, sheet)
}

// Read parses a tabular source in the given format.
func Read(r io.Reader, format Format, sheet string) (*Taxonomy, error) {
	var (
		rows [][]string
		err  error
	)

	switch format {
	case FormatCSV:
		rows, err = readCSV(r)
	case FormatXLSX:
		rows, err = readXLSX(r, sheet)
	default:
		err = fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}

	if err != nil {
		return New(), fmt.Errorf("%w: %w", ErrSourceLoad, err)
	}

	return FromRows(rows), nil
}

// FromRows builds a taxonomy from raw rows. The first row is a header and is
// skipped. Rows missing a grade, category, or subcategory contribute nothing.
func FromRows(rows [][]string) *Taxonomy {
	t := New()
	for i, row := range rows {
		if i == 0 {
			continue
		}
		t.Add(cell(row, ColumnCategory), cell(row, ColumnSubcategory), cell(row, ColumnGrade))
	}
	return t
}

func cell(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return row[idx]
}

func readCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return rows, nil
}

func readXLSX(r io.Reader, sheet string) ([][]string, error) {
	wb, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer wb.Close()

	if sheet == "" {
		sheet = wb.GetSheetName(wb.GetActiveSheetIndex())
	}

	rows, err := wb.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return rows, nil
}
