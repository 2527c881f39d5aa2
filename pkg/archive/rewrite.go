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
	"bytes"
	"context"

	"github.com/rs/zerolog"
	"github.com/walteh/webbind/pkg/text"
	"golang.org/x/sync/errgroup"
)

// TextFunc rewrites the text of one entry and returns a per entry value,
// typically statistics.
type TextFunc[T any] func(ctx context.Context, name, content string) (string, T, error)

// TextResult is the outcome of rewriting one entry.
type TextResult[T any] struct {
	Name    string
	Value   T
	Changed bool
	Err     error
}

// RewriteText runs fn over every file entry accepted by match. Entries are
// decoded as UTF-8 and processed in parallel, bounded by limit. Rewritten
// content replaces the entry once every task has finished; an entry whose
// task failed keeps its original bytes and reports an *EntryError. A leading
// byte order mark is hidden from fn and restored on write. The
// returned error is only ever the context error.
func RewriteText[T any](ctx context.Context, a *Archive, match func(name string) bool, limit int, fn TextFunc[T]) ([]TextResult[T], error) {
	logger := zerolog.Ctx(ctx)

	var targets []*Entry
	for _, name := range a.order {
		e := a.entries[name]
		if e.Dir || !match(name) {
			continue
		}
		targets = append(targets, e)
	}

	results := make([]TextResult[T], len(targets))
	outputs := make([]string, len(targets))
	boms := make([]bool, len(targets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers(limit))
	for i, e := range targets {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i].Name = e.Name

			raw, err := e.Bytes()
			if err != nil {
				results[i].Err = &EntryError{Name: e.Name, Op: "rewrite", Err: err}
				return nil
			}
			boms[i] = bytes.HasPrefix(raw, []byte(text.BOM))
			content, err := text.Decode(raw)
			if err != nil {
				results[i].Err = &EntryError{Name: e.Name, Op: "rewrite", Err: err}
				return nil
			}
			out, value, err := fn(gctx, e.Name, content)
			if err != nil {
				results[i].Err = &EntryError{Name: e.Name, Op: "rewrite", Err: err}
				return nil
			}
			results[i].Value = value
			results[i].Changed = out != content
			outputs[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i, e := range targets {
		res := results[i]
		if res.Err != nil {
			logger.Warn().Err(res.Err).Str("entry", e.Name).Msg("keeping original entry content")
			continue
		}
		if res.Changed {
			out := outputs[i]
			if boms[i] {
				out = text.BOM + out
			}
			a.put(e.Name, []byte(out), e.Modified)
		}
	}

	return results, nil
}
