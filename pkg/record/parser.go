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

package record

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// ParseError reports a CSV source that could not be read.
type ParseError struct {
	Source string
	Line   int
	Err    error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parsing %s: line %d: %v", e.Source, e.Line, e.Err)
	}
	return fmt.Sprintf("parsing %s: %v", e.Source, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Options configures a Parser.
type Options struct {
	// Strict makes Parse fail on the first unreadable source instead of
	// skipping it.
	Strict bool
}

// Parser reads comma separated exports with a single header row.
type Parser struct {
	strict bool
}

// NewParser creates a new Parser
func NewParser(opts Options) *Parser {
	return &Parser{strict: opts.Strict}
}

// Parse reads every source in order. Records keep file order, then row order.
func (p *Parser) Parse(ctx context.Context, sources ...Source) ([]BindingRecord, error) {
	logger := zerolog.Ctx(ctx)

	var all []BindingRecord
	for _, src := range sources {
		recs, err := p.ParseSource(ctx, src)
		if err != nil {
			if p.strict {
				return nil, err
			}
			logger.Warn().Err(err).Str("source", src.Name).Msg("skipping unreadable csv source")
			continue
		}
		all = append(all, recs...)
	}

	logger.Debug().Int("sources", len(sources)).Int("records", len(all)).Msg("parsed binding records")
	return all, nil
}

// ParseSource reads a single source.
func (p *Parser) ParseSource(ctx context.Context, src Source) ([]BindingRecord, error) {
	logger := zerolog.Ctx(ctx).With().Str("source", src.Name).Logger()

	content, err := decodeSource(src.Data)
	if err != nil {
		return nil, errors.Errorf("reading csv: %w", &ParseError{Source: src.Name, Err: err})
	}

	r := csv.NewReader(bytes.NewReader(content))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		logger.Debug().Msg("empty csv source")
		return nil, nil
	}
	if err != nil {
		return nil, errors.Errorf("reading csv header: %w", newParseError(src.Name, err))
	}

	var recs []BindingRecord
	for {
		cells, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Errorf("reading csv row: %w", newParseError(src.Name, err))
		}

		row := NewRow(header, cells)
		rec, ok := Project(row)
		if !ok {
			line, _ := r.FieldPos(0)
			logger.Debug().Int("line", line).Msg("skipping row without name or address")
			continue
		}
		recs = append(recs, rec)
	}

	logger.Debug().Strs("columns", NewRow(header, nil).Headers()).Int("records", len(recs)).Msg("parsed csv source")
	return recs, nil
}

func newParseError(source string, err error) *ParseError {
	pe := &ParseError{Source: source, Err: err}
	var csvErr *csv.ParseError
	if errors.As(err, &csvErr) {
		pe.Line = csvErr.Line
		pe.Err = csvErr.Err
	}
	return pe
}
