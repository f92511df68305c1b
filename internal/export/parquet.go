// Package export writes analytics series in columnar form.
package export

import (
	"fmt"
	"sort"
	"time"

	parquetbuffer "github.com/xitongsys/parquet-go-source/buffer"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/claude/trainload/internal/analytics"
	"github.com/claude/trainload/internal/models"
)

// LoadRow is one exported session with the workload windows as of its day.
type LoadRow struct {
	Date            string  `parquet:"name=date, type=BYTE_ARRAY, convertedtype=UTF8"`
	Load            float64 `parquet:"name=load, type=DOUBLE"`
	Acute7          float64 `parquet:"name=acute7, type=DOUBLE"`
	WeeklyChronic28 float64 `parquet:"name=weekly_chronic28, type=DOUBLE"`
}

// LoadRows replays the aggregator at every sample, oldest first. Each row
// only sees samples up to and including its own date.
func LoadRows(samples []models.TrainingLoadSample) []LoadRow {
	sorted := append([]models.TrainingLoadSample(nil), samples...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	rows := make([]LoadRow, 0, len(sorted))
	for i, s := range sorted {
		end := i + 1
		for end < len(sorted) && !sorted[end].Date.After(s.Date) {
			end++
		}
		summary, _ := analytics.Aggregate(sorted[:end])
		rows = append(rows, LoadRow{
			Date:            s.Date.UTC().Format(time.RFC3339),
			Load:            s.Load,
			Acute7:          summary.AcuteLoad,
			WeeklyChronic28: summary.ChronicLoad,
		})
	}
	return rows
}

// MarshalLoadSeries encodes the load series as a SNAPPY-compressed Parquet file.
func MarshalLoadSeries(samples []models.TrainingLoadSample) ([]byte, error) {
	fw := parquetbuffer.NewBufferFile()
	pw, err := writer.NewParquetWriter(fw, new(LoadRow), 4)
	if err != nil {
		return nil, fmt.Errorf("creating parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, row := range LoadRows(samples) {
		if err := pw.Write(row); err != nil {
			_ = pw.WriteStop()
			return nil, fmt.Errorf("writing row %s: %w", row.Date, err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		return nil, fmt.Errorf("finishing parquet file: %w", err)
	}
	if err := fw.Close(); err != nil {
		return nil, err
	}
	return append([]byte(nil), fw.Bytes()...), nil
}
