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

package commands

import (
	"context"
	"encoding/json"
	"io"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/walteh/webbind/cmd/webbind/opts"
	"github.com/walteh/webbind/pkg/annotate"
	"github.com/walteh/webbind/pkg/record"
	"gitlab.com/tozd/go/errors"
)

// Binding states reported by the records command.
const (
	StateIndexed   = "yes"
	StateNoAddress = "no address"
	StateShadowed  = "shadowed"
)

type recordsFlags struct {
	csv  []string
	json bool
}

// RecordView is one parsed record as the records command shows it.
type RecordView struct {
	Source  string `json:"source,omitempty"`
	Name    string `json:"name"`
	Address string `json:"address"`
	Format  string `json:"format,omitempty"`
	Display string `json:"display,omitempty"`
	Indexed string `json:"indexed"`
}

// NewRecordsCmd creates the records command
func NewRecordsCmd(o *opts.RootOpts) *cobra.Command {
	var f recordsFlags

	cmd := &cobra.Command{
		Use:   "records",
		Short: "Show how csv data point lists will bind",
		Long: `Records parses data point lists and prints every record with the
display format it maps to and whether a marker can reach it.`,
		Example: `  webbind records --csv points.csv
  webbind records --csv a.csv --csv b.csv --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecords(cmd.Context(), o, f, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringArrayVar(&f.csv, "csv", nil, "csv data point list (repeatable)")
	cmd.Flags().BoolVar(&f.json, "json", false, "print records as JSON")
	_ = cmd.MarkFlagRequired("csv")

	return cmd
}

func runRecords(ctx context.Context, o *opts.RootOpts, f recordsFlags, out io.Writer) error {
	sources, err := readSources(f.csv)
	if err != nil {
		return err
	}

	parser := record.NewParser(record.Options{Strict: o.Config.CSV.Strict})

	var all []record.BindingRecord
	views := []RecordView{}
	for _, src := range sources {
		recs, err := parser.Parse(ctx, src)
		if err != nil {
			return errors.Errorf("parsing %s: %w", src.Name, err)
		}
		for _, rec := range recs {
			all = append(all, rec)
			views = append(views, RecordView{Source: src.Name, Name: rec.Name, Address: rec.Address, Format: rec.Format})
		}
	}

	idx := record.NewIndex(all)
	for i := range views {
		views[i].Indexed = bindingState(idx, all[i])
		if d, ok := annotate.DisplayFormat(all[i].Format); ok {
			views[i].Display = d
		}
	}

	if f.json {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(views)
	}

	data := pterm.TableData{{"Source", "Name", "Address", "Format", "Display", "Indexed"}}
	for _, v := range views {
		data = append(data, []string{v.Source, v.Name, v.Address, v.Format, v.Display, v.Indexed})
	}
	if err := pterm.DefaultTable.WithHasHeader().WithWriter(out).WithData(data).Render(); err != nil {
		return errors.Errorf("rendering records: %w", err)
	}

	o.Logger.Successf("%d records, %d addresses", len(all), idx.Len())
	return nil
}

func bindingState(idx *record.Index, rec record.BindingRecord) string {
	if !rec.Indexable() {
		return StateNoAddress
	}
	if got, ok := idx.Lookup(rec.Address); ok && got == rec {
		return StateIndexed
	}
	return StateShadowed
}
