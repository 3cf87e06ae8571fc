package views

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"sync"
)

// CSVWriter is a buffered, concurrency-safe CSV file writer. Rows are
// staged in memory and pushed to disk on Flush; the attendance pipeline
// flushes on a timer so a crash loses at most one flush interval.
type CSVWriter struct {
	mu   sync.Mutex
	file *os.File
	buf  *bufio.Writer
	csv  *csv.Writer
	rows uint64
}

// NewCSVWriter creates (truncating) the target file and optionally
// writes the header row. bufSize ≤ 0 selects bufio's default.
func NewCSVWriter(path string, bufSize int, writeHeader bool, header []string) (*CSVWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create csv %s: %w", path, err)
	}

	var bw *bufio.Writer
	if bufSize > 0 {
		bw = bufio.NewWriterSize(f, bufSize)
	} else {
		bw = bufio.NewWriter(f)
	}

	w := &CSVWriter{
		file: f,
		buf:  bw,
		csv:  csv.NewWriter(bw),
	}

	if writeHeader && len(header) > 0 {
		if err := w.csv.Write(header); err != nil {
			f.Close()
			return nil, fmt.Errorf("write csv header %s: %w", path, err)
		}
	}
	return w, nil
}

// WriteRow appends one record. Errors are deferred to Flush/Close,
// matching encoding/csv semantics.
func (w *CSVWriter) WriteRow(row []string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.csv.Write(row)
	w.rows++
}

// Rows returns the number of rows written (excluding the header).
func (w *CSVWriter) Rows() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.rows
}

// Flush pushes buffered rows to the OS.
func (w *CSVWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		return err
	}
	return w.buf.Flush()
}

// Close flushes and closes the underlying file.
func (w *CSVWriter) Close() error {
	if err := w.Flush(); err != nil {
		w.file.Close()
		return err
	}
	return w.file.Close()
}
