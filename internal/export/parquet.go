package export

import (
	"fmt"
	"io"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/luki/smartsos/internal/sensor"
)

// ParquetRow is the Parquet schema of an exported reading.
type ParquetRow struct {
	TimestampUs int64   `parquet:"timestamp_us"`
	Temperature float64 `parquet:"temperature"`
	Humidity    float64 `parquet:"humidity"`
	Airflow     float64 `parquet:"airflow"`
}

// ToParquetRow converts a reading.
func ToParquetRow(r sensor.Reading) ParquetRow {
	return ParquetRow{
		TimestampUs: r.Timestamp.UnixMicro(),
		Temperature: r.Temperature,
		Humidity:    r.Humidity,
		Airflow:     r.Airflow,
	}
}

// Reading converts a row back into a reading in the local zone.
func (p ParquetRow) Reading() sensor.Reading {
	return sensor.Reading{
		Timestamp:   time.UnixMicro(p.TimestampUs),
		Temperature: p.Temperature,
		Humidity:    p.Humidity,
		Airflow:     p.Airflow,
	}
}

func writeParquet(w io.Writer, view []sensor.Reading) error {
	pw := parquet.NewGenericWriter[ParquetRow](w, parquet.Compression(&parquet.Zstd))

	rows := make([]ParquetRow, len(view))
	for i, r := range view {
		rows[i] = ToParquetRow(r)
	}

	if _, err := pw.Write(rows); err != nil {
		pw.Close()
		return fmt.Errorf("write rows: %w", err)
	}
	if err := pw.Close(); err != nil {
		return fmt.Errorf("close writer: %w", err)
	}
	return nil
}
