package engine

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ncdatalab/ncdac/pkg/fixedwidth"
)

// Pair is a matched data/description file couple sharing a base name.
type Pair struct {
	Base string
	Dat  string
	Des  string
}

// ListPairs scans dir for .dat/.des files and returns the bases for which
// both halves exist, sorted by base name. Files without a counterpart are
// ignored; extension matching is case-insensitive.
func ListPairs(dir string) ([]Pair, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &fixedwidth.MissingSourceError{Path: dir, Err: err}
	}

	dats := make(map[string]string)
	deses := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		base := strings.TrimSuffix(name, filepath.Ext(name))
		switch strings.ToLower(filepath.Ext(name)) {
		case ".dat":
			dats[base] = filepath.Join(dir, name)
		case ".des":
			deses[base] = filepath.Join(dir, name)
		}
	}

	var pairs []Pair
	for base, dat := range dats {
		if des, ok := deses[base]; ok {
			pairs = append(pairs, Pair{Base: base, Dat: dat, Des: des})
		}
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Base < pairs[j].Base })
	return pairs, nil
}
