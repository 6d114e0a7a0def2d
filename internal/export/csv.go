package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
)

// CSVWriter writes a table as a CSV file with a header row.
type CSVWriter struct {
	path string
}

// NewCSVWriter creates a writer for path.
func NewCSVWriter(path string) *CSVWriter {
	return &CSVWriter{path: path}
}

// Write creates any missing parent directories and replaces the file.
func (w *CSVWriter) Write(ctx context.Context, t *Table) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if dir := filepath.Dir(w.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	f, err := os.Create(w.path)
	if err != nil {
		return fmt.Errorf("create %s: %w", w.path, err)
	}

	cw := csv.NewWriter(f)
	if err := cw.WriteAll(t.Records()); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", w.path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", w.path, err)
	}
	return nil
}

// Close is a no-op; Write closes the file it creates.
func (w *CSVWriter) Close() error { return nil }
