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

package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog"
	"github.com/walteh/webbind/pkg/archive"
	"github.com/walteh/webbind/pkg/assets"
	"github.com/walteh/webbind/pkg/text"
	"gitlab.com/tozd/go/errors"
)

// 🔌 Parser is the interface for config parsers
type Parser interface {
	// 📝 Parse parses the config from bytes
	Parse(ctx context.Context, data []byte) (*Config, error)

	// 🔍 CanParse checks if this parser can handle the given file
	CanParse(filename string) bool
}

var (
	// 🗺️ parsers is a list of available parsers
	parsers []Parser
)

// 📝 Register registers a parser
func Register(p Parser) {
	parsers = append(parsers, p)
}

// 🎯 GetParser returns a parser that can handle the given file
func GetParser(filename string) Parser {
	for _, p := range parsers {
		if p.CanParse(filename) {
			return p
		}
	}
	return nil
}

// 📦 AssetsArgs selects the content of the injected runtime scripts
type AssetsArgs struct {
	Dir   string            `json:"dir,omitempty" yaml:"dir,omitempty"`     // Directory searched for scripts by name
	Files map[string]string `json:"files,omitempty" yaml:"files,omitempty"` // Asset name to file path
}

// 📄 CSVArgs controls data point list parsing
type CSVArgs struct {
	Strict bool `json:"strict,omitempty" yaml:"strict,omitempty"` // Fail the run on an unreadable list
}

// 🔄 Replacement is an extra literal replacement applied to text entries
type Replacement struct {
	FromText       string `json:"from_text" yaml:"from_text"`
	ToText         string `json:"to_text" yaml:"to_text"`
	FileFilterGlob string `json:"file_filter_glob" yaml:"file_filter_glob"`
}

// 📚 Config represents the complete configuration
type Config struct {
	Assets       AssetsArgs    `json:"assets,omitempty" yaml:"assets,omitempty"`
	CSV          CSVArgs       `json:"csv,omitempty" yaml:"csv,omitempty"`
	Concurrency  int           `json:"concurrency,omitempty" yaml:"concurrency,omitempty"`
	Comment      string        `json:"comment,omitempty" yaml:"comment,omitempty"`
	Replacements []Replacement `json:"replacements,omitempty" yaml:"replacements,omitempty"`

	location string
}

// 🏁 Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{Comment: archive.DefaultComment}
}

// 🎯 Load loads the configuration from a file
func Load(ctx context.Context, path string) (*Config, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("path", path).Msg("loading configuration")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading config file: %w", err)
	}

	p := GetParser(path)
	if p == nil {
		return nil, errors.Errorf("no parser found for file: %s", path)
	}

	cfg, err := p.Parse(ctx, data)
	if err != nil {
		return nil, errors.Errorf("parsing config: %w", err)
	}

	cfg.location = path
	if err := cfg.Validate(); err != nil {
		return nil, errors.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// 🔍 Validate checks the configuration and fills in defaults. Relative asset
// paths are resolved against the directory of the config file.
func (cfg *Config) Validate() error {
	if cfg.Concurrency < 0 {
		return errors.Errorf("concurrency must not be negative, got %d", cfg.Concurrency)
	}

	for name := range cfg.Assets.Files {
		if !assets.IsKnown(name) {
			return errors.Errorf("assets.files: unknown asset %q", name)
		}
	}

	if err := text.NewSimpleTextReplacer().ValidateRules(cfg.Rules()); err != nil {
		return errors.Errorf("replacements: %w", err)
	}

	if cfg.Comment == "" {
		cfg.Comment = archive.DefaultComment
	}

	if cfg.location != "" {
		base := filepath.Dir(cfg.location)
		cfg.Assets.Dir = resolve(base, cfg.Assets.Dir)
		for name, file := range cfg.Assets.Files {
			cfg.Assets.Files[name] = resolve(base, file)
		}
	}

	return nil
}

func resolve(base, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}

// 🧩 Rules returns the extra replacements as text rules
func (cfg *Config) Rules() []text.ReplacementRule {
	rules := make([]text.ReplacementRule, 0, len(cfg.Replacements))
	for _, r := range cfg.Replacements {
		rules = append(rules, text.ReplacementRule{
			FromText:       r.FromText,
			ToText:         r.ToText,
			FileFilterGlob: r.FileFilterGlob,
		})
	}
	return rules
}

// 📦 AssetOptions returns the asset sources for assets.Load
func (cfg *Config) AssetOptions() assets.Options {
	return assets.Options{Dir: cfg.Assets.Dir, Files: cfg.Assets.Files}
}

// 📝 String returns a string representation of the config
func (cfg *Config) String() string {
	files := make([]string, 0, len(cfg.Assets.Files))
	for name := range cfg.Assets.Files {
		files = append(files, name)
	}
	sort.Strings(files)
	return fmt.Sprintf("assets(dir=%q files=%v) strict=%t concurrency=%d replacements=%d",
		cfg.Assets.Dir, files, cfg.CSV.Strict, cfg.Concurrency, len(cfg.Replacements))
}
