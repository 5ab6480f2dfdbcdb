package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/luki/smartsos/internal/history"
	"github.com/luki/smartsos/internal/sensor"
	"github.com/luki/smartsos/internal/store"
)

const (
	readingsSheet = "Readings"
	summarySheet  = "Summary"
)

func writeXLSX(w io.Writer, view []sensor.Reading) error {
	f := excelize.NewFile()
	defer f.Close()

	f.SetDocProps(&excelize.DocProperties{
		Title:   "Smart-SOS readings",
		Subject: "Environment monitoring export",
		Creator: "smartsos",
		Created: time.Now().Format(time.RFC3339),
	})

	if err := readingsToSheet(f, view); err != nil {
		return fmt.Errorf("readings sheet: %w", err)
	}
	if err := summaryToSheet(f, view); err != nil {
		return fmt.Errorf("summary sheet: %w", err)
	}

	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("drop default sheet: %w", err)
	}
	if idx, err := f.GetSheetIndex(readingsSheet); err == nil {
		f.SetActiveSheet(idx)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	_, err = w.Write(buf.Bytes())
	return err
}

func readingsToSheet(f *excelize.File, view []sensor.Reading) error {
	if _, err := f.NewSheet(readingsSheet); err != nil {
		return err
	}

	for i, h := range store.Header {
		if err := f.SetCellValue(readingsSheet, cell(i+1, 1), h); err != nil {
			return err
		}
	}

	for i, r := range view {
		row := i + 2
		fields := store.FormatRow(r)
		if err := f.SetCellValue(readingsSheet, cell(1, row), fields[0]); err != nil {
			return err
		}
		for j, m := range sensor.Metrics {
			if err := f.SetCellValue(readingsSheet, cell(j+2, row), m.Value(r)); err != nil {
				return err
			}
		}
	}

	return f.SetColWidth(readingsSheet, "A", "A", 28)
}

func summaryToSheet(f *excelize.File, view []sensor.Reading) error {
	if _, err := f.NewSheet(summarySheet); err != nil {
		return err
	}

	headers := []string{"metric", "unit", "count", "min", "avg", "max", "p95"}
	for i, h := range headers {
		if err := f.SetCellValue(summarySheet, cell(i+1, 1), h); err != nil {
			return err
		}
	}

	stats := history.FromReadings(view, 1)
	for i, m := range sensor.Metrics {
		values := []any{m.Label, m.Unit, 0}
		if b := stats.Get(m.Key); b != nil && b.Count() > 0 {
			p95, _ := b.Quantile(0.95)
			values = []any{m.Label, m.Unit, b.Count(), b.Min, sensor.Round2(b.Avg()), b.Peak, sensor.Round2(p95)}
		}
		for j, v := range values {
			if err := f.SetCellValue(summarySheet, cell(j+1, i+2), v); err != nil {
				return fmt.Errorf("%s row: %w", m.Key, err)
			}
		}
	}
	return nil
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}
