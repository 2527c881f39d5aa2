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

// Package assets supplies the four runtime scripts injected at the root of
// every processed archive. Placeholders are embedded; real builds come from a
// directory or explicit files.
package assets

import (
	"context"
	"embed"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

const (
	ServerExtended    = "LLWebServerExtended.js"
	LogViewer         = "ew-log-viewer.js"
	EnvelopeCartesian = "envelope-cartesian.js"
	ScriptCustom      = "scriptcustom.js"
)

var names = []string{ServerExtended, LogViewer, EnvelopeCartesian, ScriptCustom}

//go:embed defaults/*.js
var defaults embed.FS

// Names returns the injected asset names.
func Names() []string {
	return slices.Clone(names)
}

// IsKnown reports whether name is one of the injected assets.
func IsKnown(name string) bool {
	return slices.Contains(names, name)
}

// Options selects where asset content comes from. Files wins over Dir, Dir
// wins over the embedded placeholders.
type Options struct {
	Dir   string
	Files map[string]string
}

// Defaults returns the embedded placeholder scripts.
func Defaults() (map[string][]byte, error) {
	out := make(map[string][]byte, len(names))
	for _, name := range names {
		data, err := defaults.ReadFile(path.Join("defaults", name))
		if err != nil {
			return nil, errors.Errorf("reading embedded asset %s: %w", name, err)
		}
		out[name] = data
	}
	return out, nil
}

// Load resolves the content of every asset.
func Load(ctx context.Context, opts Options) (map[string][]byte, error) {
	logger := zerolog.Ctx(ctx)

	out, err := Defaults()
	if err != nil {
		return nil, err
	}

	if opts.Dir != "" {
		if err := loadDir(ctx, opts.Dir, out); err != nil {
			return nil, err
		}
	}

	for name, file := range opts.Files {
		if !IsKnown(name) {
			return nil, errors.Errorf("unknown asset %q", name)
		}
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, errors.Errorf("reading asset %s: %w", name, err)
		}
		logger.Debug().Str("asset", name).Str("path", file).Msg("using asset file")
		out[name] = data
	}

	return out, nil
}

func loadDir(ctx context.Context, dir string, out map[string][]byte) error {
	logger := zerolog.Ctx(ctx)

	info, err := os.Stat(dir)
	if err != nil {
		return errors.Errorf("reading asset dir: %w", err)
	}
	if !info.IsDir() {
		return errors.Errorf("asset dir %s is not a directory", dir)
	}

	fsys := os.DirFS(dir)
	matches, err := doublestar.Glob(fsys, "*.js")
	if err != nil {
		return errors.Errorf("listing asset dir: %w", err)
	}

	for _, m := range matches {
		if !IsKnown(m) {
			logger.Debug().Str("file", m).Msg("ignoring unknown script in asset dir")
			continue
		}
		data, err := fs.ReadFile(fsys, m)
		if err != nil {
			return errors.Errorf("reading asset %s: %w", m, err)
		}
		logger.Debug().Str("asset", m).Str("path", filepath.Join(dir, m)).Msg("using asset from dir")
		out[m] = data
	}
	return nil
}
