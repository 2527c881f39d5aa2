// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package record turns data point exports (CSV) into binding records and
// indexes them by address.
package record

import (
	"strings"
)

// Source is one named input buffer. The name is only used in logs and errors.
type Source struct {
	Name string
	Data []byte
}

// BindingRecord is one data point row.
type BindingRecord struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Format  string `json:"format,omitempty"`
}

// Indexable reports whether the record can be looked up by address.
func (r BindingRecord) Indexable() bool {
	return r.Address != ""
}

// Row is a parsed CSV row keyed by trimmed, lowercased header. Header order is
// kept so that fallback columns resolve to the leftmost match.
type Row struct {
	headers []string
	values  map[string]string
}

// NewRow builds a row from a header row and its cells. Duplicate and empty
// headers keep their first occurrence; missing cells read as empty.
func NewRow(headers []string, cells []string) Row {
	row := Row{values: make(map[string]string, len(headers))}
	for i, h := range headers {
		h = normalizeHeader(h)
		if h == "" {
			continue
		}
		if _, dup := row.values[h]; dup {
			continue
		}
		val := ""
		if i < len(cells) {
			val = strings.TrimSpace(cells[i])
		}
		row.headers = append(row.headers, h)
		row.values[h] = val
	}
	return row
}

// Get returns the value of the column with the given header, case-insensitively.
func (r Row) Get(header string) string {
	return r.values[normalizeHeader(header)]
}

// Headers returns the normalized headers in column order.
func (r Row) Headers() []string {
	return r.headers
}

// Project converts a row to a BindingRecord. Rows with neither a name nor an
// address are rejected.
func Project(row Row) (BindingRecord, bool) {
	rec := BindingRecord{
		Name:    row.first(exact("name")),
		Address: row.first(exact("address"), contains("address"), exact("variable"), contains("variable")),
		Format:  row.first(exact("format"), contains("format")),
	}
	if rec.Name == "" && rec.Address == "" {
		return BindingRecord{}, false
	}
	return rec, true
}

type headerMatch func(header string) bool

func exact(want string) headerMatch {
	return func(header string) bool { return header == want }
}

func contains(want string) headerMatch {
	return func(header string) bool { return strings.Contains(header, want) }
}

// first returns the value of the leftmost column accepted by the earliest matcher.
func (r Row) first(matchers ...headerMatch) string {
	for _, m := range matchers {
		for _, h := range r.headers {
			if m(h) {
				return r.values[h]
			}
		}
	}
	return ""
}

func normalizeHeader(h string) string {
	return strings.ToLower(strings.TrimSpace(h))
}
