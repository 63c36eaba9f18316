package repository

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"StockCast/internal/domain/models"
	"StockCast/internal/domain/repository"
)

const (
	nameColumn   = "Name"
	symbolColumn = "Symbol"
)

// CSVCatalog reads the company catalog from a CSV file with Name and Symbol columns.
type CSVCatalog struct {
	path string
}

// NewCSVCatalog creates a catalog source for path.
func NewCSVCatalog(path string) repository.CatalogSource {
	return &CSVCatalog{path: path}
}

// Load parses the file, keeping the first row for every duplicated Name.
func (c *CSVCatalog) Load(ctx context.Context) ([]models.CatalogEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := os.Open(c.path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", models.ErrCatalog, c.path, err)
	}
	defer file.Close()

	entries, err := ParseCatalog(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c.path, err)
	}
	return entries, nil
}

// ParseCatalog reads catalog rows from r. Columns are located by header name,
// so their order and any extra columns do not matter.
func ParseCatalog(r io.Reader) ([]models.CatalogEntry, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty file", models.ErrCatalog)
		}
		return nil, fmt.Errorf("%w: read header: %v", models.ErrCatalog, err)
	}

	nameIdx, symbolIdx := -1, -1
	for i, col := range header {
		switch strings.TrimSpace(strings.TrimPrefix(col, "\ufeff")) {
		case nameColumn:
			nameIdx = i
		case symbolColumn:
			symbolIdx = i
		}
	}
	if nameIdx < 0 || symbolIdx < 0 {
		return nil, fmt.Errorf("%w: header must contain %s and %s columns", models.ErrCatalog, nameColumn, symbolColumn)
	}

	seen := make(map[string]struct{})
	var entries []models.CatalogEntry
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", models.ErrCatalog, err)
		}
		if nameIdx >= len(record) || symbolIdx >= len(record) {
			continue
		}

		name := strings.TrimSpace(record[nameIdx])
		symbol := strings.TrimSpace(record[symbolIdx])
		if name == "" || symbol == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		entries = append(entries, models.CatalogEntry{Name: name, Symbol: symbol})
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: no entries", models.ErrCatalog)
	}
	return entries, nil
}
