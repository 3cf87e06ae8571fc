package views

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCSVWriter_HeaderAndRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "attendance.csv")
	w, err := NewCSVWriter(path, 4096, true, []string{"record_id", "name"})
	if err != nil {
		t.Fatalf("NewCSVWriter: %v", err)
	}
	w.WriteRow([]string{"r1", "Ada"})
	w.WriteRow([]string{"r2", "Grace"})
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	want := []string{"record_id,name", "r1,Ada", "r2,Grace"}
	if len(lines) != len(want) {
		t.Fatalf("got %d lines, want %d: %q", len(lines), len(want), lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
	if w.Rows() != 2 {
		t.Errorf("Rows() = %d, want 2", w.Rows())
	}
}

func TestCSVWriter_NoHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scans.csv")
	w, err := NewCSVWriter(path, 0, false, []string{"a", "b"})
	if err != nil {
		t.Fatalf("NewCSVWriter: %v", err)
	}
	w.WriteRow([]string{"1", "2"})
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	w.Close()

	data, _ := os.ReadFile(path)
	if got := strings.TrimSpace(string(data)); got != "1,2" {
		t.Errorf("file = %q, want single data row without header", got)
	}
}

func TestCSVWriter_BadPath(t *testing.T) {
	if _, err := NewCSVWriter(filepath.Join(t.TempDir(), "missing", "x.csv"), 0, true, nil); err == nil {
		t.Error("expected error for unwritable path")
	}
}
