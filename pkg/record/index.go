package record

import (
	"strings"
)

// Index looks records up by address, case-insensitively. The first record
// with a given address wins.
type Index struct {
	records   []BindingRecord
	byAddress map[string]int
}

// NewIndex indexes records in order. Records without an address are skipped.
func NewIndex(records []BindingRecord) *Index {
	idx := &Index{byAddress: make(map[string]int, len(records))}
	for _, rec := range records {
		if !rec.Indexable() {
			continue
		}
		key := strings.ToLower(rec.Address)
		if _, ok := idx.byAddress[key]; ok {
			continue
		}
		idx.byAddress[key] = len(idx.records)
		idx.records = append(idx.records, rec)
	}
	return idx
}

// Lookup returns the record bound to marker. No match is not an error.
func (i *Index) Lookup(marker string) (BindingRecord, bool) {
	if i == nil || marker == "" {
		return BindingRecord{}, false
	}
	pos, ok := i.byAddress[strings.ToLower(marker)]
	if !ok {
		return BindingRecord{}, false
	}
	return i.records[pos], true
}

// Len returns the number of distinct addresses.
func (i *Index) Len() int {
	if i == nil {
		return 0
	}
	return len(i.records)
}
