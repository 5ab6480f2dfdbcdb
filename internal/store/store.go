// Package store handles persistent CSV storage of sensor readings. The whole
// reading log lives in one backing file which is rewritten on every save.
//
// File format:
//
//	timestamp,temperature,humidity,airflow
//	2024-01-01 09:30:00.000000,29.57,81.20,1.43
package store

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/luki/smartsos/internal/sensor"
)

const timeLayout = "2006-01-02 15:04:05.000000"

// Header is the fixed column order of the backing file and of exports.
var Header = []string{"timestamp", "temperature", "humidity", "airflow"}

// Layouts accepted when parsing the timestamp column. Zone-less layouts are
// interpreted in the local zone.
var parseLayouts = []string{
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	time.RFC3339Nano,
}

// Store reads and writes the reading log at a single path. It assumes a
// single writer.
type Store struct {
	path string
}

// New creates a store for the given backing file. Nothing is touched on disk.
func New(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Exists reports whether the backing file is present.
func (s *Store) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Load reads the whole backing file. A missing file yields an empty log.
func (s *Store) Load() ([]sensor.Reading, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []sensor.Reading{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", s.path, err)
	}
	defer f.Close()

	return ReadCSV(f, s.path)
}

// Save overwrites the backing file with the full log. The rows are written to
// a temp file in the same directory which then replaces the backing file.
func (s *Store) Save(log []sensor.Reading) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return &PersistenceError{Path: s.path, Op: "mkdir", Err: err}
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*")
	if err != nil {
		return &PersistenceError{Path: s.path, Op: "create", Err: err}
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := WriteCSV(tmp, log); err != nil {
		tmp.Close()
		return &PersistenceError{Path: s.path, Op: "write", Err: err}
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return &PersistenceError{Path: s.path, Op: "sync", Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &PersistenceError{Path: s.path, Op: "write", Err: err}
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return &PersistenceError{Path: s.path, Op: "write", Err: err}
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return &PersistenceError{Path: s.path, Op: "rename", Err: err}
	}
	return nil
}

// WriteCSV writes the header and one row per reading.
func WriteCSV(w io.Writer, readings []sensor.Reading) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, r := range readings {
		if err := cw.Write(FormatRow(r)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// FormatRow renders a reading as CSV fields in Header order.
func FormatRow(r sensor.Reading) []string {
	return []string{
		r.Timestamp.Format(timeLayout),
		strconv.FormatFloat(r.Temperature, 'f', 2, 64),
		strconv.FormatFloat(r.Humidity, 'f', 2, 64),
		strconv.FormatFloat(r.Airflow, 'f', 2, 64),
	}
}

// ReadCSV parses a complete reading log. Any malformed row fails the whole
// read with a *CorruptDataError carrying the physical line the row starts
// on; rows are never skipped. name is used in error messages.
func ReadCSV(r io.Reader, name string) ([]sensor.Reading, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, &CorruptDataError{Path: name, Err: errors.New("missing header row")}
	}
	if err != nil {
		return nil, csvError(name, err)
	}
	if err := checkHeader(header); err != nil {
		return nil, &CorruptDataError{Path: name, Line: 1, Err: err}
	}

	readings := []sensor.Reading{}
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, csvError(name, err)
		}
		line, _ := reader.FieldPos(0)
		rd, err := parseRow(row)
		if err != nil {
			return nil, &CorruptDataError{Path: name, Line: line, Err: err}
		}
		readings = append(readings, rd)
	}
	return readings, nil
}

func csvError(name string, err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return &CorruptDataError{Path: name, Line: pe.Line, Err: pe.Err}
	}
	return fmt.Errorf("read %s: %w", name, err)
}

func checkHeader(row []string) error {
	if len(row) != len(Header) {
		return fmt.Errorf("header has %d columns, want %d (%s)", len(row), len(Header), strings.Join(Header, ","))
	}
	for i, col := range row {
		name := strings.TrimSpace(col)
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		if name != Header[i] {
			return fmt.Errorf("column %d is %q, want %q", i+1, col, Header[i])
		}
	}
	return nil
}

func parseRow(row []string) (sensor.Reading, error) {
	if len(row) != len(Header) {
		return sensor.Reading{}, fmt.Errorf("row has %d fields, want %d", len(row), len(Header))
	}

	ts, err := ParseTimestamp(row[0])
	if err != nil {
		return sensor.Reading{}, err
	}

	var vals [3]float64
	for i := range vals {
		raw := strings.TrimSpace(row[i+1])
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return sensor.Reading{}, fmt.Errorf("%s: %q is not a number", Header[i+1], raw)
		}
		vals[i] = v
	}

	return sensor.Reading{
		Timestamp:   ts,
		Temperature: vals[0],
		Humidity:    vals[1],
		Airflow:     vals[2],
	}, nil
}

// ParseTimestamp parses the timestamp column.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range parseLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("timestamp: cannot parse %q", s)
}
