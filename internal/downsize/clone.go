package downsize

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/ncdatalab/ncdac/internal/store"
)

// Default parent table and update column for the offender profile dataset.
const (
	DefaultParentTable  = "OFNT3AA1_data"
	DefaultUpdateColumn = "DTOFUPDT"
)

// idBatchSize keeps each IN (...) list under SQLite's bound-parameter limit.
const idBatchSize = 900

// Options configure a filtered clone.
type Options struct {
	// Source is the path of the store to clone. Opened read-only.
	Source string
	// Destination is the path of the store to create. Must not exist.
	Destination string
	// MinUpdateDate is the inclusive lower bound on the parent table's
	// update column, as an ISO YYYY-MM-DD string. The comparison is
	// lexicographic, matching how the extract stores its dates.
	MinUpdateDate string
	// ParentTable is the table whose update column drives the filter.
	// Defaults to DefaultParentTable.
	ParentTable string
	// UpdateColumn is the update-timestamp column of the parent table.
	// Defaults to DefaultUpdateColumn.
	UpdateColumn string
	// Logger defaults to a discard logger.
	Logger *slog.Logger
}

// Clone creates a new store at Destination containing every non-fact table
// of Source verbatim and every fact table filtered to rows whose identifier
// appears among the parent table rows updated on or after MinUpdateDate.
//
// The single identifier set harvested from the parent table drives every
// fact table; other tables' own freshness plays no part. The source is
// never mutated. No primary keys or indexes are created on the destination.
func Clone(ctx context.Context, opts Options) error {
	if opts.ParentTable == "" {
		opts.ParentTable = DefaultParentTable
	}
	if opts.UpdateColumn == "" {
		opts.UpdateColumn = DefaultUpdateColumn
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	// Checked before any other work so a failure never leaves a partial
	// destination artifact.
	if _, err := os.Stat(opts.Destination); err == nil {
		return &store.DestinationExistsError{Path: opts.Destination}
	}

	src, err := store.OpenReadOnly(opts.Source)
	if err != nil {
		return err
	}
	defer src.Close()

	ids, err := extractIDs(ctx, src, opts.ParentTable, opts.UpdateColumn, opts.MinUpdateDate)
	if err != nil {
		return err
	}
	logger.Info("harvested identifiers",
		"parent", opts.ParentTable,
		"since", opts.MinUpdateDate,
		"count", len(ids))

	index, err := BuildIndex(ctx, src, false)
	if err != nil {
		return err
	}

	dst, err := store.Create(opts.Destination)
	if err != nil {
		return err
	}
	defer dst.Close()

	if err := dst.Attach(ctx, opts.Source, "orig"); err != nil {
		return err
	}
	defer func() { _ = dst.Detach(context.WithoutCancel(ctx), "orig") }()

	tables := make([]string, 0, len(index))
	for table := range index {
		tables = append(tables, table)
	}
	sort.Strings(tables)

	for _, table := range tables {
		filtered := strings.HasSuffix(table, FactSuffix)
		if filtered {
			err = copyFiltered(ctx, dst, table, index[table], ids)
		} else {
			err = copyVerbatim(ctx, dst, table)
		}
		if err != nil {
			return err
		}
		logger.Debug("cloned table", "table", table, "filtered", filtered)
	}

	return nil
}

// extractIDs collects the first column of every parent row whose update
// column is lexicographically >= minDate, deduplicated in first-seen order.
func extractIDs(ctx context.Context, src *store.Store, table, column, minDate string) ([]string, error) {
	query := fmt.Sprintf(`SELECT * FROM %s WHERE %s >= ?`,
		store.QuoteIdent(table), store.QuoteIdent(column))
	rows, err := src.DB().QueryContext(ctx, query, minDate)
	if err != nil {
		return nil, &store.AccessError{Op: "extract identifiers", Table: table, Err: err}
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, &store.AccessError{Op: "extract identifiers", Table: table, Err: err}
	}

	var (
		ids  []string
		seen = make(map[string]struct{})
	)
	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, &store.AccessError{Op: "extract identifiers", Table: table, Err: err}
		}
		id := stringValue(values[0])
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, &store.AccessError{Op: "extract identifiers", Table: table, Err: err}
	}
	return ids, nil
}

// copyFiltered copies the table shape, then inserts only rows whose
// identifier column matches the harvested set. The membership test runs as
// bound parameters in batches, never by interpolating identifier values
// into the statement.
func copyFiltered(ctx context.Context, dst *store.Store, table, idColumn string, ids []string) error {
	qt := store.QuoteIdent(table)
	create := fmt.Sprintf(`CREATE TABLE %s AS SELECT * FROM orig.%s WHERE 0`, qt, qt)
	if _, err := dst.DB().ExecContext(ctx, create); err != nil {
		return &store.AccessError{Op: "create", Table: table, Err: err}
	}

	for lo := 0; lo < len(ids); lo += idBatchSize {
		hi := lo + idBatchSize
		if hi > len(ids) {
			hi = len(ids)
		}
		batch := ids[lo:hi]
		insert := fmt.Sprintf(`INSERT INTO %s SELECT * FROM orig.%s WHERE %s IN (%s)`,
			qt, qt, store.QuoteIdent(idColumn), store.Placeholders(len(batch)))
		args := make([]any, len(batch))
		for i, id := range batch {
			args[i] = id
		}
		if _, err := dst.DB().ExecContext(ctx, insert, args...); err != nil {
			return &store.AccessError{Op: "insert filtered", Table: table, Err: err}
		}
	}
	return nil
}

// copyVerbatim creates the table in the destination as a full copy.
func copyVerbatim(ctx context.Context, dst *store.Store, table string) error {
	qt := store.QuoteIdent(table)
	stmt := fmt.Sprintf(`CREATE TABLE %s AS SELECT * FROM orig.%s`, qt, qt)
	if _, err := dst.DB().ExecContext(ctx, stmt); err != nil {
		return &store.AccessError{Op: "copy", Table: table, Err: err}
	}
	return nil
}

func stringValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	default:
		return fmt.Sprintf("%v", x)
	}
}
