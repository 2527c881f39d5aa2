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
	"os"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"gitlab.com/tozd/go/errors"
)

func init() {
	Register(&HCLParser{})
}

// 🔧 HCLParser implements the Parser interface for HCL files
type HCLParser struct{}

// 🔍 CanParse checks if this parser can handle the given file
func (p *HCLParser) CanParse(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".hcl")
}

// 📝 Parse parses the config from HCL. Environment variables are available
// to expressions as env.NAME.
func (p *HCLParser) Parse(ctx context.Context, data []byte) (*Config, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(data, "webbind.hcl")
	if diags.HasErrors() {
		return nil, errors.Errorf("parsing HCL: %s", diags.Error())
	}

	type hclConfig struct {
		Assets *struct {
			Dir   string            `hcl:"dir,optional"`
			Files map[string]string `hcl:"files,optional"`
		} `hcl:"assets,block"`
		CSV *struct {
			Strict bool `hcl:"strict,optional"`
		} `hcl:"csv,block"`
		Concurrency  int    `hcl:"concurrency,optional"`
		Comment      string `hcl:"comment,optional"`
		Replacements []struct {
			FromText       string `hcl:"from_text"`
			ToText         string `hcl:"to_text,optional"`
			FileFilterGlob string `hcl:"file_filter_glob"`
		} `hcl:"replacement,block"`
	}

	var hclCfg hclConfig
	diags = gohcl.DecodeBody(hclFile.Body, evalContext(), &hclCfg)
	if diags.HasErrors() {
		return nil, errors.Errorf("decoding HCL: %s", diags.Error())
	}

	cfg := &Config{
		Concurrency: hclCfg.Concurrency,
		Comment:     hclCfg.Comment,
	}
	if hclCfg.Assets != nil {
		cfg.Assets = AssetsArgs{Dir: hclCfg.Assets.Dir, Files: hclCfg.Assets.Files}
	}
	if hclCfg.CSV != nil {
		cfg.CSV.Strict = hclCfg.CSV.Strict
	}
	for _, r := range hclCfg.Replacements {
		cfg.Replacements = append(cfg.Replacements, Replacement{
			FromText:       r.FromText,
			ToText:         r.ToText,
			FileFilterGlob: r.FileFilterGlob,
		})
	}

	return cfg, nil
}

func evalContext() *hcl.EvalContext {
	env := map[string]cty.Value{}
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}
		env[k] = cty.StringVal(v)
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"env": cty.ObjectVal(env),
		},
	}
}
