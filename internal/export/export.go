// Package export writes a filtered view of the reading log to a file. The
// format follows the file extension: .csv uses the backing file's row
// format, .xlsx writes a workbook, .parquet a columnar file.
package export

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/luki/smartsos/internal/sensor"
	"github.com/luki/smartsos/internal/store"
)

// Format is an export file format.
type Format int

const (
	CSV Format = iota
	XLSX
	Parquet
)

func (f Format) String() string {
	switch f {
	case XLSX:
		return "xlsx"
	case Parquet:
		return "parquet"
	default:
		return "csv"
	}
}

// FormatFor picks the format from a file extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", "":
		return CSV, nil
	case ".xlsx":
		return XLSX, nil
	case ".parquet":
		return Parquet, nil
	default:
		return CSV, fmt.Errorf("unsupported export format %q (use .csv, .xlsx or .parquet)", filepath.Ext(path))
	}
}

// Write encodes the view in the given format.
func Write(w io.Writer, f Format, view []sensor.Reading) error {
	switch f {
	case XLSX:
		return writeXLSX(w, view)
	case Parquet:
		return writeParquet(w, view)
	default:
		return store.WriteCSV(w, view)
	}
}

// WriteFile writes the view to path, replacing any existing file. It returns
// the format used.
func WriteFile(path string, view []sensor.Reading) (Format, error) {
	f, err := FormatFor(path)
	if err != nil {
		return f, err
	}

	var buf bytes.Buffer
	if err := Write(&buf, f, view); err != nil {
		return f, fmt.Errorf("encode %s: %w", f, err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return f, fmt.Errorf("create export dir: %w", err)
		}
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return f, fmt.Errorf("write export: %w", err)
	}
	return f, nil
}
