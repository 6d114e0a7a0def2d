package export

import (
	"context"
	"errors"
	"fmt"
)

// Output formats.
const (
	FormatCSV    = "csv"
	FormatSQLite = "sqlite"
)

// ErrUnknownFormat is returned by NewWriter for an unsupported format.
var ErrUnknownFormat = errors.New("unknown export format")

// Writer serializes a table.
type Writer interface {
	Write(ctx context.Context, t *Table) error
	Close() error
}

// NewWriter returns the writer for format targeting path.
func NewWriter(format, path string) (Writer, error) {
	switch format {
	case FormatCSV, "":
		return NewCSVWriter(path), nil
	case FormatSQLite:
		return NewSQLiteWriter(path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}
