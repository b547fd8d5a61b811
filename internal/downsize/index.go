// Package downsize produces reduced copies of an extract store by filtering
// fact tables to the identifiers of recently updated parent records.
package downsize

import (
	"context"
	"strings"

	"github.com/ncdatalab/ncdac/internal/store"
)

// FactSuffix marks tables holding decoded per-record data, as opposed to
// the _desc tables that persist each dataset's schema.
const FactSuffix = "_data"

// BuildIndex maps every table in the store to the name of its
// first-declared column, which serves as the cross-table identifier column.
// With onlyFactTables set, description and metadata tables are skipped.
//
// The index is a snapshot: it is not invalidated if the store's schema
// changes afterwards.
func BuildIndex(ctx context.Context, s *store.Store, onlyFactTables bool) (map[string]string, error) {
	tables, err := s.Tables(ctx)
	if err != nil {
		return nil, err
	}

	out := make(map[string]string, len(tables))
	for _, table := range tables {
		if onlyFactTables && !strings.HasSuffix(table, FactSuffix) {
			continue
		}
		col, err := s.FirstColumn(ctx, table)
		if err != nil {
			return nil, err
		}
		out[table] = col
	}
	return out, nil
}
