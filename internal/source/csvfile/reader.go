// Package csvfile reads raw listing rows from a delimited file.
// The reference dataset (apartments_for_rent.csv) is ;-separated and
// latin-1 encoded, so both are configurable.
package csvfile

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"

	"github.com/kailas-cloud/propmatch/internal/domain"
)

// Config holds dataset file settings.
type Config struct {
	Path      string
	Separator rune   // default ';'
	Encoding  string // "latin-1" (default) or "utf-8"
	MaxRows   int    // 0 = unlimited
}

// Reader reads listing rows from a CSV file.
type Reader struct {
	cfg    Config
	logger *zap.Logger
}

// New creates a CSV reader.
func New(cfg Config, logger *zap.Logger) *Reader {
	if cfg.Separator == 0 {
		cfg.Separator = ';'
	}
	return &Reader{cfg: cfg, logger: logger}
}

// Column names expected in the header, matching the reference dataset.
const (
	colPrice       = "price"
	colBedrooms    = "bedrooms"
	colBathrooms   = "bathrooms"
	colCity        = "cityname"
	colDescription = "body"
)

// Read loads all rows from the file. Column order is taken from the
// header; price and body columns are mandatory, the rest degrade to
// empty strings when absent.
func (r *Reader) Read(ctx context.Context) ([]domain.RawListing, error) {
	f, err := os.Open(r.cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer func() { _ = f.Close() }()

	var rd io.Reader = f
	if r.cfg.Encoding == "latin-1" {
		rd = charmap.ISO8859_1.NewDecoder().Reader(f)
	}

	cr := csv.NewReader(rd)
	cr.Comma = r.cfg.Separator
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols, err := mapColumns(header)
	if err != nil {
		return nil, err
	}

	var rows []domain.RawListing
	for {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("read dataset: %w", ctx.Err())
		default:
		}

		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Malformed line in a messy dataset: skip, keep going.
			r.logger.Warn("Skipping malformed CSV line", zap.Error(err))
			continue
		}

		rows = append(rows, domain.RawListing{
			Price:       cols.field(record, cols.price),
			Bedrooms:    cols.field(record, cols.bedrooms),
			Bathrooms:   cols.field(record, cols.bathrooms),
			City:        cols.field(record, cols.city),
			Description: cols.field(record, cols.description),
		})

		if r.cfg.MaxRows > 0 && len(rows) >= r.cfg.MaxRows {
			r.logger.Info("Row cap reached", zap.Int("max_rows", r.cfg.MaxRows))
			break
		}
	}

	return rows, nil
}

// columnMap holds header column indices; -1 means absent.
type columnMap struct {
	price       int
	bedrooms    int
	bathrooms   int
	city        int
	description int
}

func mapColumns(header []string) (columnMap, error) {
	idx := func(name string) int {
		for i, h := range header {
			if strings.EqualFold(strings.TrimSpace(h), name) {
				return i
			}
		}
		return -1
	}

	cols := columnMap{
		price:       idx(colPrice),
		bedrooms:    idx(colBedrooms),
		bathrooms:   idx(colBathrooms),
		city:        idx(colCity),
		description: idx(colDescription),
	}

	if cols.price == -1 {
		return columnMap{}, fmt.Errorf("dataset header is missing %q column", colPrice)
	}
	if cols.description == -1 {
		return columnMap{}, fmt.Errorf("dataset header is missing %q column", colDescription)
	}
	return cols, nil
}

func (columnMap) field(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return record[i]
}
