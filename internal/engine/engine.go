// Package engine orchestrates turning a directory of fixed-width extract
// pairs into a relational store, one _data and one _desc table per dataset.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ncdatalab/ncdac/internal/store"
	"github.com/ncdatalab/ncdac/pkg/fixedwidth"
)

// Table name suffixes for decoded records and their persisted schemas.
const (
	dataSuffix = "_data"
	descSuffix = "_desc"
)

// isoDate is how coerced dates are stored, so the downsize engine's
// lexicographic comparison orders them correctly.
const isoDate = "2006-01-02"

// Config holds engine configuration.
type Config struct {
	// SourceDir is the directory holding the .dat/.des pairs.
	SourceDir string
	// DatabasePath is the SQLite file to build.
	DatabasePath string
	// Encoding names the source text encoding (see fixedwidth.ReadLines).
	Encoding string
	// RowLimit caps rows decoded per dataset when greater than zero.
	RowLimit int
	// WithIndex creates a plain index on each _data table's first column.
	WithIndex bool
	// Logger is the structured logger (optional, uses discard if nil).
	Logger *slog.Logger
}

// Engine builds extract stores.
type Engine struct {
	cfg    Config
	logger *slog.Logger
}

// New creates an engine. The store file is only opened when Build runs.
func New(cfg Config) (*Engine, error) {
	if cfg.SourceDir == "" {
		return nil, fmt.Errorf("source directory not set")
	}
	if cfg.DatabasePath == "" {
		return nil, fmt.Errorf("database path not set")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{cfg: cfg, logger: logger}, nil
}

// Build decodes every pair in the source directory into the store,
// replacing any tables of the same name. Each dataset yields a
// <base>_data table (column order matching schema field order) and a
// <base>_desc table persisting the schema for provenance.
func (e *Engine) Build(ctx context.Context) error {
	runID := uuid.New().String()
	started := time.Now()

	pairs, err := ListPairs(e.cfg.SourceDir)
	if err != nil {
		return err
	}
	if len(pairs) == 0 {
		return fmt.Errorf("no data/description pairs in %s", e.cfg.SourceDir)
	}
	e.logger.Info("building store",
		"run_id", runID,
		"source", e.cfg.SourceDir,
		"database", e.cfg.DatabasePath,
		"datasets", len(pairs))

	st, err := store.Open(e.cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer st.Close()

	for _, pair := range pairs {
		if err := e.buildDataset(ctx, st, pair); err != nil {
			return fmt.Errorf("dataset %s: %w", pair.Base, err)
		}
	}

	e.logger.Info("build complete", "run_id", runID, "elapsed", time.Since(started).Round(time.Millisecond))
	return nil
}

func (e *Engine) buildDataset(ctx context.Context, st *store.Store, pair Pair) error {
	schema, err := fixedwidth.ParseSchemaFile(pair.Des, nil)
	if err != nil {
		return err
	}
	fields, err := schema.Fields()
	if err != nil {
		return err
	}
	dates, err := schema.DateFields(nil)
	if err != nil {
		return err
	}
	lines, err := fixedwidth.ReadLinesFile(pair.Dat, e.cfg.Encoding)
	if err != nil {
		return err
	}

	records := fixedwidth.Decode(lines, fields, dates, fixedwidth.DecodeOptions{
		CoerceDates: true,
		RowLimit:    e.cfg.RowLimit,
	})

	columns := make([]string, len(fields))
	for i, f := range fields {
		columns[i] = f.Name
	}
	rows := make([][]any, len(records))
	for i, rec := range records {
		row := make([]any, len(fields))
		for j, f := range fields {
			row[j] = storeValue(rec[f.Name])
		}
		rows[i] = row
	}
	if err := st.ReplaceTable(ctx, pair.Base+dataSuffix, columns, rows); err != nil {
		return err
	}

	descRows := make([][]any, schema.Len())
	for i, row := range schema.Rows() {
		descRow := make([]any, len(row))
		for j, v := range row {
			descRow[j] = v
		}
		descRows[i] = descRow
	}
	if err := st.ReplaceTable(ctx, pair.Base+descSuffix, schema.Columns, descRows); err != nil {
		return err
	}

	if e.cfg.WithIndex && len(fields) > 0 {
		if err := st.CreateColumnIndex(ctx, pair.Base+dataSuffix, fields[0].Name); err != nil {
			return err
		}
	}

	e.logger.Info("loaded dataset",
		"dataset", pair.Base,
		"rows", len(records),
		"fields", len(fields),
		"date_fields", len(dates))
	return nil
}

// storeValue maps a decoded record value onto a driver value: coerced dates
// become ISO strings, nil stays NULL, everything else is already a string.
func storeValue(v any) any {
	if t, ok := v.(time.Time); ok {
		return t.Format(isoDate)
	}
	return v
}
