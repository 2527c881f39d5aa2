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

package operation

import (
	"context"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/walteh/webbind/pkg/annotate"
	"github.com/walteh/webbind/pkg/archive"
	"github.com/walteh/webbind/pkg/record"
	"github.com/walteh/webbind/pkg/text"
	"github.com/zeebo/blake3"
	"gitlab.com/tozd/go/errors"
)

// 🏃 Process runs one transformation.
func (p *Processor) Process(ctx context.Context, req Request) (*Result, error) {
	runID := uuid.NewString()
	logger := zerolog.Ctx(ctx).With().Str("run_id", runID).Logger()
	ctx = logger.WithContext(ctx)

	if len(req.Archive.Data) == 0 {
		return nil, errors.Errorf("archive %q: %w", req.Archive.Name, ErrInput)
	}

	logger.Info().
		Str("archive", req.Archive.Name).
		Int("bytes", len(req.Archive.Data)).
		Int("sources", len(req.Records)).
		Msg("starting run")

	records, err := p.parser.Parse(ctx, req.Records...)
	if err != nil {
		return nil, errors.Errorf("parsing records: %w", err)
	}
	index := record.NewIndex(records)

	a, err := archive.Open(ctx, req.Archive.Data)
	if err != nil {
		return nil, errors.Errorf("opening %s: %w", req.Archive.Name, err)
	}

	r := &run{Processor: p, archive: a, index: index}

	r.prune()
	r.inject()

	if err := r.rename(ctx); err != nil {
		return nil, err
	}
	if err := r.rewriteCSS(ctx); err != nil {
		return nil, err
	}
	if err := r.annotatePages(ctx); err != nil {
		return nil, err
	}
	if err := r.replace(ctx); err != nil {
		return nil, err
	}

	out, err := a.Serialize(ctx, archive.SerializeOptions{Comment: p.opts.Comment})
	if err != nil {
		return nil, errors.Errorf("writing archive: %w", err)
	}

	sum := blake3.Sum256(out)
	res := &Result{
		Archive: out,
		Stats:   r.stats,
		Digest:  hex.EncodeToString(sum[:]),
		RunID:   runID,
		Changes: r.changes,
	}

	logger.Info().
		Int("records", len(records)).
		Int("indexed", index.Len()).
		Int("elements_processed", res.Stats.ElementsProcessed).
		Int("attributes_added", res.Stats.AttributesAdded).
		Int("entry_errors", res.Stats.EntryErrors).
		Str("digest", res.Digest).
		Msg("run complete")

	return res, nil
}

// run holds the state of one Process call.
type run struct {
	*Processor
	archive *archive.Archive
	index   *record.Index
	stats   Stats
	changes []Change
}

func (r *run) record(c Change) {
	if c.Kind == ChangeFailed {
		r.stats.EntryErrors++
	}
	r.changes = append(r.changes, c)
}

func (r *run) fail(name string, err error) {
	r.record(Change{Kind: ChangeFailed, Entry: name, Type: EntryType(name, false), Error: err.Error()})
}

func (r *run) prune() {
	for _, name := range r.archive.RemoveEntries(RemovedEntries...) {
		r.record(Change{Kind: ChangeRemoved, Entry: name, Type: EntryType(name, false)})
	}
}

func (r *run) inject() {
	for _, inj := range r.archive.InjectEntries(r.opts.Assets) {
		kind := ChangeInjected
		if inj.Replaced {
			kind = ChangeReplaced
		}
		r.record(Change{Kind: kind, Entry: inj.Name, Type: EntryType(inj.Name, false)})
	}
}

func (r *run) rename(ctx context.Context) error {
	oldPrefix := PathRule.FromText
	newPrefix := PathRule.ToText

	report, err := r.archive.RenamePrefix(ctx, oldPrefix, newPrefix, r.opts.Concurrency)
	if err != nil {
		return errors.Errorf("moving %s to %s: %w", oldPrefix, newPrefix, err)
	}
	for _, rn := range report.Renamed {
		r.record(Change{Kind: ChangeRenamed, Entry: rn.To, From: rn.From, Type: EntryType(rn.To, rn.Dir)})
	}
	for _, f := range report.Failed {
		r.fail(f.Name, f)
	}
	return nil
}

func (r *run) rewriteCSS(ctx context.Context) error {
	rules := []text.ReplacementRule{cssRule}
	results, err := archive.RewriteText(ctx, r.archive, cssRule.Matches, r.opts.Concurrency, r.replaceFunc(rules))
	if err != nil {
		return errors.Errorf("rewriting stylesheets: %w", err)
	}
	r.collectReplacements(results)
	return nil
}

func (r *run) annotatePages(ctx context.Context) error {
	ann := annotate.New(r.index)
	results, err := archive.RewriteText(ctx, r.archive, htmlRule.Matches, r.opts.Concurrency,
		func(ctx context.Context, name, content string) (string, annotate.Stats, error) {
			return ann.Annotate(ctx, content)
		})
	if err != nil {
		return errors.Errorf("annotating pages: %w", err)
	}

	for _, res := range results {
		if res.Err != nil {
			r.fail(res.Name, res.Err)
			continue
		}
		r.stats.Add(res.Value)
		if res.Changed {
			r.record(Change{
				Kind:  ChangeRewritten,
				Entry: res.Name,
				Type:  EntryType(res.Name, false),
				Count: res.Value.ElementsProcessed,
			})
		}
	}
	return nil
}

// replace applies the configured extra rules.
func (r *run) replace(ctx context.Context) error {
	if len(r.opts.Rules) == 0 {
		return nil
	}

	match := func(name string) bool {
		for _, rule := range r.opts.Rules {
			if rule.Matches(name) {
				return true
			}
		}
		return false
	}

	results, err := archive.RewriteText(ctx, r.archive, match, r.opts.Concurrency, r.replaceFunc(r.opts.Rules))
	if err != nil {
		return errors.Errorf("applying replacements: %w", err)
	}
	r.collectReplacements(results)
	return nil
}

func (r *run) replaceFunc(rules []text.ReplacementRule) archive.TextFunc[int] {
	return func(ctx context.Context, name, content string) (string, int, error) {
		var applicable []text.ReplacementRule
		for _, rule := range rules {
			if rule.Matches(name) {
				applicable = append(applicable, rule)
			}
		}
		res, err := r.replacer.ReplaceText(ctx, strings.NewReader(content), applicable)
		if err != nil {
			return "", 0, err
		}
		return string(res.ModifiedContent), res.ReplacementCount, nil
	}
}

func (r *run) collectReplacements(results []archive.TextResult[int]) {
	for _, res := range results {
		if res.Err != nil {
			r.fail(res.Name, res.Err)
			continue
		}
		if res.Changed {
			r.record(Change{
				Kind:  ChangeRewritten,
				Entry: res.Name,
				Type:  EntryType(res.Name, false),
				Count: res.Value,
			})
		}
	}
}
