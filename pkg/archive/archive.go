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

// Package archive holds a zip archive in memory as an ordered table of
// entries and implements the whole-archive edits of a run: pruning,
// injection, prefix renames, text rewrites and serialization.
package archive

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/klauspost/compress/zip"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// ErrEmpty is returned by Open for a zero length payload.
var ErrEmpty = errors.New("empty archive payload")

// Entry is a named payload inside an archive. Directory entries carry no
// payload and their names end with a slash.
type Entry struct {
	Name     string
	Dir      bool
	Modified time.Time

	mu     sync.Mutex
	src    *zip.File
	data   []byte
	loaded bool
	dirty  bool
}

// Bytes returns the entry payload. Entries read from the source archive are
// decompressed on first use and cached.
func (e *Entry) Bytes() ([]byte, error) {
	if e.Dir {
		return nil, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.loaded || e.src == nil {
		return e.data, nil
	}

	rc, err := e.src.Open()
	if err != nil {
		return nil, &EntryError{Name: e.Name, Op: "read", Err: err}
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, &EntryError{Name: e.Name, Op: "read", Err: err}
	}

	e.data = data
	e.loaded = true
	return data, nil
}

// Touched reports whether the entry content was produced during this run
// rather than read from the source archive.
func (e *Entry) Touched() bool {
	return e.dirty
}

// Archive is an ordered, name unique table of entries. It is owned by a
// single run and is not safe for concurrent mutation.
type Archive struct {
	entries map[string]*Entry
	order   []string
	now     func() time.Time
}

// New returns an empty archive.
func New() *Archive {
	return &Archive{
		entries: make(map[string]*Entry),
		now:     time.Now,
	}
}

// Open reads a zip payload. The content is sniffed first so that a wrong
// upload fails with a clear message instead of a central directory error.
func Open(ctx context.Context, data []byte) (*Archive, error) {
	logger := zerolog.Ctx(ctx)

	if len(data) == 0 {
		return nil, &Error{Op: "open", Err: ErrEmpty}
	}

	if !isZip(data) {
		mt := mimetype.Detect(data)
		return nil, &Error{Op: "open", Err: errors.Errorf("unsupported container %s", mt.String())}
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil && !errors.Is(err, zip.ErrInsecurePath) {
		return nil, &Error{Op: "open", Err: err}
	}

	a := New()
	for _, f := range zr.File {
		if _, ok := a.entries[f.Name]; ok {
			logger.Warn().Str("entry", f.Name).Msg("duplicate entry name, keeping the first")
			continue
		}
		a.add(&Entry{
			Name:     f.Name,
			Dir:      f.FileInfo().IsDir(),
			Modified: f.Modified,
			src:      f,
		})
	}

	logger.Debug().Int("entries", a.Len()).Int("bytes", len(data)).Msg("opened archive")
	return a, nil
}

func isZip(data []byte) bool {
	// an archive with no entries is only an end of central directory record
	if bytes.HasPrefix(data, []byte("PK\x05\x06")) {
		return true
	}
	for mt := mimetype.Detect(data); mt != nil; mt = mt.Parent() {
		if mt.Is("application/zip") {
			return true
		}
	}
	return false
}

func (a *Archive) add(e *Entry) {
	a.entries[e.Name] = e
	a.order = append(a.order, e.Name)
}

// Len returns the number of entries.
func (a *Archive) Len() int {
	return len(a.order)
}

// Names returns the entry names in archive order.
func (a *Archive) Names() []string {
	out := make([]string, len(a.order))
	copy(out, a.order)
	return out
}

// Entry returns the named entry.
func (a *Archive) Entry(name string) (*Entry, bool) {
	e, ok := a.entries[name]
	return e, ok
}

// Put stores a file entry, replacing any entry with the same name in place.
// It reports whether an entry was replaced.
func (a *Archive) Put(name string, data []byte) bool {
	return a.put(name, data, a.now())
}

func (a *Archive) put(name string, data []byte, modified time.Time) bool {
	e := &Entry{Name: name, Modified: modified, data: data, loaded: true, dirty: true}
	if _, ok := a.entries[name]; ok {
		a.entries[name] = e
		return true
	}
	a.add(e)
	return false
}

// PutDir stores a directory entry. A trailing slash is added if missing.
func (a *Archive) PutDir(name string) bool {
	return a.putDir(name, a.now())
}

func (a *Archive) putDir(name string, modified time.Time) bool {
	if !strings.HasSuffix(name, "/") {
		name += "/"
	}
	e := &Entry{Name: name, Dir: true, Modified: modified, loaded: true, dirty: true}
	if _, ok := a.entries[name]; ok {
		a.entries[name] = e
		return true
	}
	a.add(e)
	return false
}

// Remove deletes the named entry and reports whether it existed.
func (a *Archive) Remove(name string) bool {
	if _, ok := a.entries[name]; !ok {
		return false
	}
	delete(a.entries, name)
	for i, n := range a.order {
		if n == name {
			a.order = append(a.order[:i], a.order[i+1:]...)
			break
		}
	}
	return true
}

// RemoveEntries deletes the given names and returns the ones that existed.
// Absent names are ignored.
func (a *Archive) RemoveEntries(names ...string) []string {
	var removed []string
	for _, name := range names {
		if a.Remove(name) {
			removed = append(removed, name)
		}
	}
	return removed
}

// Injection reports one injected entry.
type Injection struct {
	Name     string
	Replaced bool
}

// InjectEntries adds every payload under its name, overwriting existing
// entries. The report is sorted by name.
func (a *Archive) InjectEntries(payloads map[string][]byte) []Injection {
	names := make([]string, 0, len(payloads))
	for name := range payloads {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]Injection, 0, len(names))
	for _, name := range names {
		out = append(out, Injection{Name: name, Replaced: a.Put(name, payloads[name])})
	}
	return out
}
