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

// Package annotate rewrites a web page for the LLWeb refresh runtime: asset
// paths are moved, external links dropped, runtime scripts appended and
// marked elements bound to data point records.
package annotate

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/JohannesKaufmann/dom"
	"github.com/andybalholm/cascadia"
	"github.com/rs/zerolog"
	"github.com/walteh/webbind/pkg/record"
	"github.com/walteh/webbind/pkg/text"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var (
	selHead   = cascadia.MustCompile("head")
	selBody   = cascadia.MustCompile("body")
	selFrames = cascadia.MustCompile("frameset")
	selLinks  = cascadia.MustCompile("link[href]")
	selStyle  = cascadia.MustCompile("style")
	selMarked = cascadia.MustCompile("[" + MarkerAttr + "]")
)

// Stats counts bindings in one or more documents.
type Stats struct {
	ElementsProcessed int `json:"elementsProcessed"`
	AttributesAdded   int `json:"attributesAdded"`
}

// Add accumulates o into s.
func (s *Stats) Add(o Stats) {
	s.ElementsProcessed += o.ElementsProcessed
	s.AttributesAdded += o.AttributesAdded
}

// Annotator binds marked elements against an index. It holds no per document
// state and may be shared between goroutines.
type Annotator struct {
	index *record.Index
	rule  text.ReplacementRule
}

// New creates an Annotator. A nil index binds nothing.
func New(index *record.Index) *Annotator {
	return &Annotator{index: index, rule: text.PublicToImg}
}

type edit struct {
	node  *html.Node
	attrs []html.Attribute
}

// Annotate rewrites one document and returns the rendered result.
func (a *Annotator) Annotate(ctx context.Context, src string) (string, Stats, error) {
	logger := zerolog.Ctx(ctx)

	if !utf8.ValidString(src) {
		return "", Stats{}, text.ErrInvalidUTF8
	}

	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return "", Stats{}, errors.Errorf("parsing html: %w", err)
	}

	paths := a.rewritePaths(doc)
	links := removeBlockedLinks(doc)

	head := selHead.MatchFirst(doc)
	if head == nil {
		return "", Stats{}, errors.New("document has no head element")
	}
	if err := appendMarkup(head, head, HeadMarkup); err != nil {
		return "", Stats{}, err
	}
	if err := appendMarkup(bodyOf(doc), bodyContext, BodyMarkup); err != nil {
		return "", Stats{}, err
	}

	edits, stats := a.plan(ctx, doc)
	for _, e := range edits {
		for _, attr := range e.attrs {
			setAttr(e.node, attr.Key, attr.Val)
		}
	}

	out, err := render(doc)
	if err != nil {
		return "", Stats{}, err
	}

	logger.Debug().
		Int("paths_rewritten", paths).
		Int("links_removed", links).
		Int("elements_processed", stats.ElementsProcessed).
		Int("attributes_added", stats.AttributesAdded).
		Msg("annotated document")

	return out, stats, nil
}

// plan resolves every marked element before any of them is modified.
func (a *Annotator) plan(ctx context.Context, doc *html.Node) ([]edit, Stats) {
	logger := zerolog.Ctx(ctx)

	var (
		edits []edit
		stats Stats
	)
	for _, n := range selMarked.MatchAll(doc) {
		marker := dom.GetAttributeOr(n, MarkerAttr, "")
		rec, ok := a.index.Lookup(marker)
		if !ok {
			logger.Debug().Str("marker", marker).Msg("no record for marker")
			continue
		}

		kind := KindOf(n)
		stats.ElementsProcessed++
		stats.AttributesAdded += kind.Weight()

		if attrs := bindingAttrs(kind, n, rec); len(attrs) > 0 {
			edits = append(edits, edit{node: n, attrs: attrs})
		}
	}
	return edits, stats
}

func (a *Annotator) rewritePaths(doc *html.Node) int {
	count := 0
	elements := dom.FindAllNodes(doc, func(n *html.Node) bool {
		return n.Type == html.ElementNode
	})
	for _, n := range elements {
		for i := range n.Attr {
			attr := &n.Attr[i]
			if attr.Namespace != "" || !isPathAttr(attr.Key) {
				continue
			}
			if c := a.rule.Count(attr.Val); c > 0 {
				attr.Val = a.rule.Apply(attr.Val)
				count += c
			}
		}
	}

	for _, style := range selStyle.MatchAll(doc) {
		for c := style.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.TextNode {
				continue
			}
			if n := a.rule.Count(c.Data); n > 0 {
				c.Data = a.rule.Apply(c.Data)
				count += n
			}
		}
	}
	return count
}

func isPathAttr(key string) bool {
	for _, k := range pathAttrs {
		if k == key {
			return true
		}
	}
	return false
}

func removeBlockedLinks(doc *html.Node) int {
	removed := 0
	for _, link := range selLinks.MatchAll(doc) {
		href := dom.GetAttributeOr(link, "href", "")
		for _, host := range BlockedLinkHosts {
			if strings.Contains(href, host) {
				dom.RemoveNode(link)
				removed++
				break
			}
		}
	}
	return removed
}

// bodyContext parses body markup for parents that are not a body element.
var bodyContext = &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}

// bodyOf returns the body element, or the frameset of a frames page.
func bodyOf(doc *html.Node) *html.Node {
	if body := selBody.MatchFirst(doc); body != nil {
		return body
	}
	return selFrames.MatchFirst(doc)
}

func appendMarkup(parent, fragCtx *html.Node, markup string) error {
	if parent == nil {
		return errors.New("document has no body element")
	}
	nodes, err := html.ParseFragment(strings.NewReader(markup), fragCtx)
	if err != nil {
		return errors.Errorf("parsing %s markup: %w", fragCtx.Data, err)
	}
	for _, n := range nodes {
		parent.AppendChild(n)
	}
	return nil
}

func render(doc *html.Node) (string, error) {
	root := dom.FindFirstNode(doc, func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.DataAtom == atom.Html
	})
	if root == nil {
		return "", errors.New("document has no html element")
	}

	var b strings.Builder
	b.WriteString(Doctype)
	if err := html.Render(&b, root); err != nil {
		return "", errors.Errorf("rendering html: %w", err)
	}
	return b.String(), nil
}
