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

package annotate

import (
	"strings"

	"github.com/JohannesKaufmann/dom"
	"github.com/walteh/webbind/pkg/record"
	"golang.org/x/net/html"
)

// Kind is the binding kind of a marked element.
type Kind int

const (
	KindOther Kind = iota
	KindCheckbox
	KindRadio
	KindInput
	KindSelect
	KindButton
)

func (k Kind) String() string {
	switch k {
	case KindCheckbox:
		return "checkbox"
	case KindRadio:
		return "radio"
	case KindInput:
		return "input"
	case KindSelect:
		return "select"
	case KindButton:
		return "button"
	default:
		return "other"
	}
}

// Weight is the number of attributes a kind is counted as adding. It is a
// fixed figure per kind, not a tally of what was written.
func (k Kind) Weight() int {
	switch k {
	case KindRadio:
		return 4
	case KindCheckbox, KindInput, KindSelect, KindButton:
		return 3
	default:
		return 0
	}
}

// KindOf classifies an element node.
func KindOf(n *html.Node) Kind {
	switch dom.NodeName(n) {
	case "input":
		switch strings.ToLower(dom.GetAttributeOr(n, "type", "")) {
		case "checkbox":
			return KindCheckbox
		case "radio":
			return KindRadio
		default:
			return KindInput
		}
	case "select":
		return KindSelect
	case "button":
		return KindButton
	default:
		return KindOther
	}
}

var formats = map[string]string{
	"xxx.y": "%.1D",
	"xx.yy": "%.2D",
	"x.yyy": "%.3D",
	"%04x":  "%04x",
	"HH:MM": "HH:MM",
}

// DisplayFormat maps a format token to the display format understood by the
// refresh runtime. An empty token maps to an empty format; an unknown token
// has no format at all.
func DisplayFormat(token string) (string, bool) {
	if token == "" {
		return "", true
	}
	f, ok := formats[token]
	return f, ok
}

// bindingAttrs returns the attributes to set on a marked element of the given
// kind bound to rec.
func bindingAttrs(kind Kind, n *html.Node, rec record.BindingRecord) []html.Attribute {
	if kind == KindOther {
		return nil
	}

	addr := rec.Address
	attrs := []html.Attribute{
		{Key: attrPar, Val: addr},
		{Key: attrRefresh, Val: "true"},
	}

	switch kind {
	case KindCheckbox:
		attrs = append(attrs, html.Attribute{Key: "id", Val: "chk-ctrl-" + addr})
	case KindRadio:
		suffix := "2"
		switch strings.ToLower(dom.GetAttributeOr(n, "value", "")) {
		case "true", "1":
			suffix = "1"
		}
		attrs = append(attrs,
			html.Attribute{Key: "name", Val: "rad-" + addr},
			html.Attribute{Key: "id", Val: "rad-ctrl-" + addr + "-" + suffix},
		)
	case KindInput:
		attrs = append(attrs, html.Attribute{Key: "id", Val: "txt-ctrl-" + addr})
		if f, ok := DisplayFormat(rec.Format); ok {
			attrs = append(attrs, html.Attribute{Key: attrFormat, Val: f})
		}
	case KindSelect:
		attrs = append(attrs, html.Attribute{Key: "id", Val: "sel-ctrl-" + addr})
	case KindButton:
		switch strings.ToLower(dom.GetAttributeOr(n, "value", "")) {
		case "true":
			attrs = append(attrs, html.Attribute{Key: "id", Val: "btn-ctrl-" + addr + "-1"})
		case "false":
			attrs = append(attrs, html.Attribute{Key: "id", Val: "btn-ctrl-" + addr + "-2"})
		}
	}
	return attrs
}

// setAttr overwrites the first attribute named key, or appends it.
func setAttr(n *html.Node, key, val string) {
	for i := range n.Attr {
		if n.Attr[i].Namespace == "" && n.Attr[i].Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}
