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

package status

import (
	"context"
	"encoding/hex"
	"os"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog"
	"github.com/walteh/webbind/pkg/archive"
	"github.com/zeebo/blake3"
	"gitlab.com/tozd/go/errors"
)

// FileStatus is the state of an entry relative to the previous build.
type FileStatus int

const (
	StatusUnknown   FileStatus = iota
	StatusNew                  // Entry is not in the previous build
	StatusModified             // Entry exists but content differs
	StatusUnchanged            // Entry exists and content matches
	StatusDeleted              // Entry was only in the previous build
)

func (s FileStatus) String() string {
	switch s {
	case StatusNew:
		return "new"
	case StatusModified:
		return "modified"
	case StatusUnchanged:
		return "unchanged"
	case StatusDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// MarshalText lets reports serialize statuses by name.
func (s FileStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a status name. Unknown names map to StatusUnknown.
func (s *FileStatus) UnmarshalText(b []byte) error {
	*s = StatusUnknown
	for _, st := range []FileStatus{StatusNew, StatusModified, StatusUnchanged, StatusDeleted} {
		if st.String() == string(b) {
			*s = st
		}
	}
	return nil
}

// FileInfo describes one entry of a diff.
type FileInfo struct {
	Path     string     `json:"path"`
	Status   FileStatus `json:"status"`
	Size     int64      `json:"size"`
	IsDir    bool       `json:"isDir,omitempty"`
	Checksum string     `json:"checksum,omitempty"` // blake3 of the current content
	Error    string     `json:"error,omitempty"`
}

// Report is the result of comparing two builds, sorted by path.
type Report struct {
	Files []FileInfo `json:"files"`
}

// Counts tallies the report by status.
func (r *Report) Counts() map[FileStatus]int {
	out := make(map[FileStatus]int, 5)
	for _, f := range r.Files {
		out[f.Status]++
	}
	return out
}

// Changed returns the entries that are not unchanged. Unreadable entries
// (StatusUnknown) are included.
func (r *Report) Changed() []FileInfo {
	var out []FileInfo
	for _, f := range r.Files {
		if f.Status != StatusUnchanged {
			out = append(out, f)
		}
	}
	return out
}

type snapshot struct {
	size     int64
	dir      bool
	checksum string
	err      error
}

// 🔍 checksum generates a blake3 hash of the content
func checksum(content []byte) string {
	sum := blake3.Sum256(content)
	return hex.EncodeToString(sum[:])
}

func snapshotArchive(ctx context.Context, a *archive.Archive) (map[string]snapshot, error) {
	out := make(map[string]snapshot, a.Len())
	for _, name := range a.Names() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		e, ok := a.Entry(name)
		if !ok {
			continue
		}
		if e.Dir {
			out[name] = snapshot{dir: true}
			continue
		}
		b, err := e.Bytes()
		if err != nil {
			out[name] = snapshot{err: err}
			continue
		}
		out[name] = snapshot{size: int64(len(b)), checksum: checksum(b)}
	}
	return out, nil
}

// Diff compares the current build against the previous one. A nil or empty
// previous build reports every entry as new.
func Diff(ctx context.Context, previous, current []byte) (*Report, error) {
	cur, err := archive.Open(ctx, current)
	if err != nil {
		return nil, errors.Errorf("opening current build: %w", err)
	}
	curSnap, err := snapshotArchive(ctx, cur)
	if err != nil {
		return nil, err
	}

	prevSnap := map[string]snapshot{}
	if len(previous) > 0 {
		prev, err := archive.Open(ctx, previous)
		if err != nil {
			return nil, errors.Errorf("opening previous build: %w", err)
		}
		if prevSnap, err = snapshotArchive(ctx, prev); err != nil {
			return nil, err
		}
	}

	report := &Report{Files: make([]FileInfo, 0, len(curSnap))}
	for name, c := range curSnap {
		info := FileInfo{Path: name, Size: c.size, IsDir: c.dir, Checksum: c.checksum}
		p, existed := prevSnap[name]
		switch {
		case c.err != nil:
			info.Error = c.err.Error()
		case !existed:
			info.Status = StatusNew
		case p.err != nil || p.dir != c.dir || p.checksum != c.checksum:
			info.Status = StatusModified
		default:
			info.Status = StatusUnchanged
		}
		report.Files = append(report.Files, info)
	}
	for name, p := range prevSnap {
		if _, ok := curSnap[name]; ok {
			continue
		}
		report.Files = append(report.Files, FileInfo{Path: name, Status: StatusDeleted, Size: p.size, IsDir: p.dir})
	}

	sort.Slice(report.Files, func(i, j int) bool { return report.Files[i].Path < report.Files[j].Path })

	counts := report.Counts()
	zerolog.Ctx(ctx).Debug().
		Int("new", counts[StatusNew]).
		Int("modified", counts[StatusModified]).
		Int("deleted", counts[StatusDeleted]).
		Int("unchanged", counts[StatusUnchanged]).
		Msg("compared builds")

	return report, nil
}

// WriteFileAtomic writes content to a temp file next to path and renames it
// into place, creating parent directories as needed.
func WriteFileAtomic(path string, content []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Errorf("creating parent directories: %w", err)
	}

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, content, 0o644); err != nil {
		return errors.Errorf("writing temp file: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return errors.Errorf("renaming temp file: %w", err)
	}
	return nil
}
