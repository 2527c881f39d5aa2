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

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func executeRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	err := cmd.ExecuteContext(context.Background())
	t.Log(errOut.String())
	return out.String(), err
}

func TestVersionCmd(t *testing.T) {
	t.Run("text", func(t *testing.T) {
		out, err := executeRoot(t, "version")
		require.NoError(t, err)
		assert.Contains(t, out, "webbind version info")
		assert.Contains(t, out, "Platform:")
	})

	t.Run("json", func(t *testing.T) {
		out, err := executeRoot(t, "version", "--json")
		require.NoError(t, err)

		var info VersionInfo
		require.NoError(t, json.Unmarshal([]byte(out), &info))
		assert.NotEmpty(t, info.Version)
		assert.NotEmpty(t, info.GoVersion)
	})
}

func TestFormatVersion(t *testing.T) {
	got := FormatVersion(&VersionInfo{
		Version:   "v1.2.3",
		GoVersion: "go1.23.5",
		Platform:  "linux/amd64",
		Revision:  "abc123",
		Time:      "2025-01-01T00:00:00Z",
		Modified:  true,
	})
	assert.Contains(t, got, "Version:   v1.2.3")
	assert.Contains(t, got, "Revision:  abc123 (modified)")
	assert.Contains(t, got, "Platform:  linux/amd64")
}

func TestRootCmd_Config(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "points.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("Name,Address\nBad,\"B1\n"), 0o644))

	t.Run("strict_from_config", func(t *testing.T) {
		cfgPath := filepath.Join(dir, "webbind.yaml")
		require.NoError(t, os.WriteFile(cfgPath, []byte("csv:\n  strict: true\n"), 0o644))

		_, err := executeRoot(t, "--config", cfgPath, "records", "--csv", csvPath)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "points.csv")
	})

	t.Run("invalid_config", func(t *testing.T) {
		cfgPath := filepath.Join(dir, "broken.yaml")
		require.NoError(t, os.WriteFile(cfgPath, []byte("concurrency: -4\n"), 0o644))

		_, err := executeRoot(t, "-c", cfgPath, "records", "--csv", csvPath)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "loading config")
	})

	t.Run("default_config", func(t *testing.T) {
		out, err := executeRoot(t, "records", "--csv", csvPath, "--json")
		require.NoError(t, err)
		assert.Equal(t, "[]\n", out)
	})
}
