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
	"sort"

	"github.com/walteh/webbind/pkg/annotate"
	"github.com/walteh/webbind/pkg/archive"
	"github.com/walteh/webbind/pkg/assets"
	"github.com/walteh/webbind/pkg/record"
	"github.com/walteh/webbind/pkg/text"
	"gitlab.com/tozd/go/errors"
)

// Fixed archive edits.
var (
	// RemovedEntries are dropped from the root of every archive.
	RemovedEntries = []string{"404.html", "404.css"}

	// PathRule moves the exported public/ folder to img/.
	PathRule = text.PublicToImg
)

var (
	cssRule  = PathRule.WithGlob("**/*.css")
	htmlRule = PathRule.WithGlob("**/*.html")
)

// ErrInput is returned when a request carries no archive.
var ErrInput = errors.New("no archive supplied")

// 🔧 Options configures a Processor
type Options struct {
	// Assets maps each injected script name to its content. Nil uses the
	// embedded placeholders.
	Assets map[string][]byte

	// Strict fails the run on the first unreadable csv source.
	Strict bool

	// Concurrency bounds per entry work. Zero uses GOMAXPROCS.
	Concurrency int

	// Comment is written as the archive comment.
	Comment string

	// Rules are extra literal replacements applied after annotation to the
	// entries their globs match.
	Rules []text.ReplacementRule
}

// 🏭 Processor runs transformations. It holds no per run state and may be
// shared between goroutines.
type Processor struct {
	opts     Options
	parser   *record.Parser
	replacer text.TextReplacer
}

// 🏗️ New creates a Processor
func New(opts Options) (*Processor, error) {
	if opts.Concurrency < 0 {
		return nil, errors.Errorf("concurrency must not be negative, got %d", opts.Concurrency)
	}

	if opts.Assets == nil {
		defaults, err := assets.Defaults()
		if err != nil {
			return nil, err
		}
		opts.Assets = defaults
	}
	for _, name := range assets.Names() {
		if _, ok := opts.Assets[name]; !ok {
			return nil, errors.Errorf("missing asset %s", name)
		}
	}
	for name := range opts.Assets {
		if !assets.IsKnown(name) {
			return nil, errors.Errorf("unknown asset %q", name)
		}
	}

	replacer := text.NewSimpleTextReplacer()
	if err := replacer.ValidateRules(opts.Rules); err != nil {
		return nil, errors.Errorf("validating replacement rules: %w", err)
	}

	if opts.Comment == "" {
		opts.Comment = archive.DefaultComment
	}

	return &Processor{
		opts:     opts,
		parser:   record.NewParser(record.Options{Strict: opts.Strict}),
		replacer: replacer,
	}, nil
}

// 📥 Request is one upload: an archive and the csv sources describing its
// data points.
type Request struct {
	Archive record.Source
	Records []record.Source
}

// 📊 Stats aggregates binding counts over every page of a run.
type Stats struct {
	annotate.Stats
	EntryErrors int `json:"entryErrors,omitempty"`
}

// 📤 Result is the outcome of a run.
type Result struct {
	Archive []byte
	Stats   Stats
	Digest  string
	RunID   string
	Changes []Change
}

// ChangeKind names what happened to an entry.
type ChangeKind string

const (
	ChangeRemoved   ChangeKind = "removed"
	ChangeInjected  ChangeKind = "injected"
	ChangeReplaced  ChangeKind = "replaced"
	ChangeRenamed   ChangeKind = "renamed"
	ChangeRewritten ChangeKind = "rewritten"
	ChangeFailed    ChangeKind = "failed"
)

// Change is one entry of the change feed.
type Change struct {
	Kind  ChangeKind `json:"kind"`
	Entry string     `json:"entry"`
	Type  string     `json:"type"`
	From  string     `json:"from,omitempty"`
	Count int        `json:"count,omitempty"`
	Error string     `json:"error,omitempty"`
}

// EntryType classifies an entry name for display.
func EntryType(name string, dir bool) string {
	switch {
	case dir:
		return "dir"
	case htmlRule.Matches(name):
		return "html"
	case cssRule.Matches(name):
		return "css"
	case assets.IsKnown(name):
		return "asset"
	default:
		return "file"
	}
}

// Failed returns the changes of kind ChangeFailed, sorted by entry.
func Failed(changes []Change) []Change {
	var out []Change
	for _, c := range changes {
		if c.Kind == ChangeFailed {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Entry < out[j].Entry })
	return out
}
