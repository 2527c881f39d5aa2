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

package text

import (
	"context"
	"io"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ReplacementRule defines a single literal text replacement
type ReplacementRule struct {
	// FromText is the text to replace
	FromText string

	// ToText is the replacement text
	ToText string

	// FileFilterGlob selects the archive entries the rule applies to.
	// Matching is done against the lowercased entry name.
	FileFilterGlob string
}

// PublicToImg moves references from the exported public/ folder to img/.
var PublicToImg = ReplacementRule{
	FromText:       "public/",
	ToText:         "img/",
	FileFilterGlob: "**/*.{css,html}",
}

// Apply replaces every occurrence of FromText in s.
func (r ReplacementRule) Apply(s string) string {
	if r.FromText == "" {
		return s
	}
	return strings.ReplaceAll(s, r.FromText, r.ToText)
}

// Count returns how many replacements Apply would make in s.
func (r ReplacementRule) Count(s string) int {
	if r.FromText == "" {
		return 0
	}
	return strings.Count(s, r.FromText)
}

// Matches reports whether the rule applies to the named entry.
// An empty glob matches everything.
func (r ReplacementRule) Matches(name string) bool {
	if r.FileFilterGlob == "" {
		return true
	}
	ok, err := doublestar.Match(r.FileFilterGlob, strings.ToLower(name))
	return err == nil && ok
}

// WithGlob returns a copy of the rule restricted to glob.
func (r ReplacementRule) WithGlob(glob string) ReplacementRule {
	r.FileFilterGlob = glob
	return r
}

// ReplacementResult contains the results of a text replacement operation
type ReplacementResult struct {
	// WasModified indicates if any replacements were made
	WasModified bool

	// ReplacementCount is the number of replacements made
	ReplacementCount int

	// OriginalContent is the content before replacements
	OriginalContent []byte

	// ModifiedContent is the content after replacements
	ModifiedContent []byte
}

// TextReplacer defines the interface for text replacement operations
type TextReplacer interface {
	// ReplaceText applies a set of replacement rules to the content
	ReplaceText(ctx context.Context, content io.Reader, rules []ReplacementRule) (*ReplacementResult, error)

	// ValidateRules checks that all rules are valid
	ValidateRules(rules []ReplacementRule) error
}
