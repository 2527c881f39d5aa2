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
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/webbind/cmd/webbind/opts"
	"github.com/walteh/webbind/pkg/assets"
	"github.com/walteh/webbind/pkg/log"
	"github.com/walteh/webbind/pkg/operation"
	"github.com/walteh/webbind/pkg/record"
	"github.com/walteh/webbind/pkg/status"
	"gitlab.com/tozd/go/errors"
)

type processFlags struct {
	zip    string
	csv    []string
	output string
	json   bool
}

// processOutput is the --json form of a run
type processOutput struct {
	RunID   string             `json:"runId"`
	Output  string             `json:"output"`
	Digest  string             `json:"digest"`
	Stats   operation.Stats    `json:"stats"`
	Changes []operation.Change `json:"changes"`
	Diff    []status.FileInfo  `json:"diff"`
}

// NewProcessCmd creates the process command
func NewProcessCmd(o *opts.RootOpts) *cobra.Command {
	var f processFlags

	cmd := &cobra.Command{
		Use:   "process",
		Short: "Bind a zipped website to its data point lists",
		Long: `Process transforms a zipped website export.
It will:
1. Drop 404.html and 404.css
2. Inject the LLWeb runtime scripts
3. Move public/ to img/ and rewrite references to it
4. Bind every nv marked element found in the csv lists
5. Write the new archive`,
		Example: `  webbind process --zip site.zip --csv points.csv -o website.zip
  webbind process --zip site.zip --csv a.csv --csv b.csv --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProcess(cmd.Context(), o, f, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&f.zip, "zip", "", "zipped website export")
	cmd.Flags().StringArrayVar(&f.csv, "csv", nil, "csv data point list (repeatable)")
	cmd.Flags().StringVarP(&f.output, "output", "o", "website.zip", "output archive path")
	cmd.Flags().BoolVar(&f.json, "json", false, "print the result as JSON instead of the change feed")
	_ = cmd.MarkFlagRequired("zip")

	return cmd
}

func runProcess(ctx context.Context, o *opts.RootOpts, f processFlags, out io.Writer) error {
	data, err := os.ReadFile(f.zip)
	if err != nil {
		return errors.Errorf("reading archive: %w", err)
	}

	sources, err := readSources(f.csv)
	if err != nil {
		return err
	}

	assetData, err := assets.Load(ctx, o.Config.AssetOptions())
	if err != nil {
		return errors.Errorf("loading assets: %w", err)
	}

	p, err := operation.New(operation.Options{
		Assets:      assetData,
		Strict:      o.Config.CSV.Strict,
		Concurrency: o.Config.Concurrency,
		Comment:     o.Config.Comment,
		Rules:       o.Config.Rules(),
	})
	if err != nil {
		return errors.Errorf("creating processor: %w", err)
	}

	res, err := p.Process(ctx, operation.Request{
		Archive: record.Source{Name: filepath.Base(f.zip), Data: data},
		Records: sources,
	})
	if err != nil {
		return errors.Errorf("processing %s: %w", f.zip, err)
	}

	report, err := diffPrevious(ctx, f.output, res.Archive)
	if err != nil {
		return err
	}

	if err := status.WriteFileAtomic(f.output, res.Archive); err != nil {
		return errors.Errorf("writing output: %w", err)
	}

	if f.json {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(processOutput{
			RunID:   res.RunID,
			Output:  f.output,
			Digest:  res.Digest,
			Stats:   res.Stats,
			Changes: res.Changes,
			Diff:    report.Changed(),
		})
	}

	logger := o.Logger
	logger.Header("process")
	logger.StartRunOperation(ctx, log.RunOperation{RunID: res.RunID, Archive: filepath.Base(f.zip), Sources: len(sources)})
	for _, c := range res.Changes {
		logger.LogFileOperation(ctx, fileOperation(c))
	}
	logger.EndRunOperation(ctx)
	logger.LogNewline()

	if err := renderSummary(out, f.output, res); err != nil {
		return err
	}

	logger.Header("changes since last build")
	logger.Success(status.FormatSummary(report))

	if res.Stats.EntryErrors > 0 {
		logger.Warningf("%d entries kept their original content", res.Stats.EntryErrors)
	}
	logger.Successf("wrote %s (%d bytes)", f.output, len(res.Archive))
	return nil
}

// diffPrevious compares the new build with whatever is already at the output
// path. An unreadable previous build is treated as absent.
func diffPrevious(ctx context.Context, path string, current []byte) (*status.Report, error) {
	previous, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, errors.Errorf("reading previous build: %w", err)
	}

	report, err := status.Diff(ctx, previous, current)
	if err == nil {
		return report, nil
	}
	if len(previous) == 0 {
		return nil, errors.Errorf("comparing builds: %w", err)
	}

	zerolog.Ctx(ctx).Warn().Err(err).Str("path", path).Msg("previous build is not an archive, ignoring it")
	report, err = status.Diff(ctx, nil, current)
	if err != nil {
		return nil, errors.Errorf("comparing builds: %w", err)
	}
	return report, nil
}

func readSources(paths []string) ([]record.Source, error) {
	sources := make([]record.Source, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Errorf("reading csv: %w", err)
		}
		sources = append(sources, record.Source{Name: filepath.Base(path), Data: data})
	}
	return sources, nil
}

// fileOperation maps a change onto a feed line
func fileOperation(c operation.Change) log.FileOperation {
	op := log.FileOperation{Path: c.Entry, Type: c.Type, Status: string(c.Kind)}
	switch c.Kind {
	case operation.ChangeRemoved:
		op.IsRemoved = true
	case operation.ChangeInjected:
		op.IsNew = true
	case operation.ChangeReplaced:
		op.IsModified = true
	case operation.ChangeRenamed:
		op.IsRenamed = true
		op.Detail = "from " + c.From
	case operation.ChangeRewritten:
		op.IsModified = true
		switch {
		case c.Count == 0:
		case c.Type == "html":
			op.Detail = fmt.Sprintf("%d bindings", c.Count)
		default:
			op.Detail = fmt.Sprintf("%d replacements", c.Count)
		}
	case operation.ChangeFailed:
		op.IsFailed = true
		op.Detail = c.Error
	}
	return op
}

func renderSummary(out io.Writer, output string, res *operation.Result) error {
	data := pterm.TableData{
		{"elements processed", fmt.Sprint(res.Stats.ElementsProcessed)},
		{"attributes added", fmt.Sprint(res.Stats.AttributesAdded)},
		{"entry errors", fmt.Sprint(res.Stats.EntryErrors)},
		{"run", res.RunID},
		{"digest", res.Digest[:16]},
		{"output", output},
	}
	return pterm.DefaultTable.WithHasHeader(false).WithWriter(out).WithData(data).Render()
}
