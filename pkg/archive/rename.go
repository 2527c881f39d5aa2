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

package archive

import (
	"context"
	"runtime"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Rename reports one entry moved by RenamePrefix.
type Rename struct {
	From string
	To   string
	Dir  bool
}

// RenameReport is the outcome of RenamePrefix. Failed entries keep their
// original name and content.
type RenameReport struct {
	Renamed []Rename
	Failed  []*EntryError
}

type copyResult struct {
	to       string
	dir      bool
	data     []byte
	modified time.Time
	err      error
}

// RenamePrefix moves every entry whose name starts with oldPrefix below
// newPrefix. An entry named after the bare prefix ("public" for "public/") is
// treated as the directory itself. Payloads are read in parallel, bounded by
// limit; the entry table is only changed after every read has finished. A
// second call with the same arguments is a no-op.
func (a *Archive) RenamePrefix(ctx context.Context, oldPrefix, newPrefix string, limit int) (*RenameReport, error) {
	logger := zerolog.Ctx(ctx)
	report := &RenameReport{}

	bare := strings.TrimSuffix(oldPrefix, "/")
	var candidates []*Entry
	for _, name := range a.order {
		if strings.HasPrefix(name, oldPrefix) || (bare != "" && name == bare) {
			candidates = append(candidates, a.entries[name])
		}
	}
	if len(candidates) == 0 {
		logger.Debug().Str("prefix", oldPrefix).Msg("no entries to rename")
		return report, nil
	}

	results := make([]copyResult, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers(limit))
	for i, e := range candidates {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res := copyResult{modified: e.Modified}
			switch {
			case e.Name == bare:
				res.to, res.dir = strings.TrimSuffix(newPrefix, "/")+"/", true
			case e.Dir:
				res.to, res.dir = newPrefix+strings.TrimPrefix(e.Name, oldPrefix), true
			default:
				res.to = newPrefix + strings.TrimPrefix(e.Name, oldPrefix)
				res.data, res.err = e.Bytes()
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var done []string
	for i, e := range candidates {
		res := results[i]
		if res.err != nil {
			eerr := &EntryError{Name: e.Name, Op: "rename", Err: res.err}
			logger.Warn().Err(eerr).Str("entry", e.Name).Msg("keeping entry that could not be copied")
			report.Failed = append(report.Failed, eerr)
			continue
		}
		if res.dir {
			a.putDir(res.to, res.modified)
		} else {
			a.put(res.to, res.data, res.modified)
		}
		report.Renamed = append(report.Renamed, Rename{From: e.Name, To: res.to, Dir: res.dir})
		done = append(done, e.Name)
	}

	for _, name := range done {
		a.Remove(name)
	}

	logger.Debug().
		Str("from", oldPrefix).
		Str("to", newPrefix).
		Int("renamed", len(report.Renamed)).
		Int("failed", len(report.Failed)).
		Msg("renamed prefix")

	return report, nil
}

func workers(limit int) int {
	if limit <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return limit
}
