package metrics

// CSV output for per-request metrics

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"
)

// Writer appends request metrics to a CSV file.
type Writer struct {
	mu        sync.Mutex
	csvFile   *os.File
	csvWriter *csv.Writer
}

// NewWriter creates a CSV metrics writer and emits the header row.
func NewWriter(csvPath string) (*Writer, error) {
	file, err := os.Create(csvPath)
	if err != nil {
		return nil, fmt.Errorf("create CSV file: %w", err)
	}
	w := &Writer{
		csvFile:   file,
		csvWriter: csv.NewWriter(file),
	}

	header := []string{
		"timestamp",
		"remote",
		"function",
		"success",
		"exception",
		"rtt_ms",
	}
	if err := w.csvWriter.Write(header); err != nil {
		file.Close()
		return nil, fmt.Errorf("write CSV header: %w", err)
	}
	w.csvWriter.Flush()

	return w, nil
}

// WriteMetric appends one request row.
func (w *Writer) WriteMetric(m RequestMetric) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	record := []string{
		m.Timestamp.UTC().Format(time.RFC3339Nano),
		m.Remote,
		m.Function,
		strconv.FormatBool(m.Success),
		m.Exception,
		strconv.FormatFloat(m.RTTMs, 'f', 3, 64),
	}
	if err := w.csvWriter.Write(record); err != nil {
		return fmt.Errorf("write CSV record: %w", err)
	}
	w.csvWriter.Flush()
	return w.csvWriter.Error()
}

// Close flushes and closes the CSV file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.csvWriter.Flush()
	return w.csvFile.Close()
}
