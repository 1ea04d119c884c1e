package ingest

import (
	"fmt"
	"io"
	"os"

	"loadshape_toolkit/internal/timeseries"
)

// Parser reads an energy timeseries from a source and returns it as a table.
type Parser interface {
	Parse(r io.Reader) (*timeseries.Table, error)
}

// LoadFile opens path and parses it with p.
func LoadFile(p Parser, path string) (*timeseries.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	t, err := p.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return t, nil
}
