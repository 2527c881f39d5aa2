package assets

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContext(t *testing.T) context.Context {
	logger := zerolog.New(zerolog.NewTestWriter(t))
	return logger.WithContext(context.Background())
}

func TestDefaults(t *testing.T) {
	got, err := Defaults()
	require.NoError(t, err)
	require.Len(t, got, 4)

	for _, name := range Names() {
		assert.NotEmpty(t, got[name], name)
	}
	assert.Contains(t, string(got[ServerExtended]), "AutoRefreshStart")
	assert.Contains(t, string(got[EnvelopeCartesian]), "function init()")
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, LogViewer), []byte("viewer from dir"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ScriptCustom), []byte("custom from dir"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.js"), []byte("ignored"), 0o644))

	explicit := filepath.Join(t.TempDir(), "custom.js")
	require.NoError(t, os.WriteFile(explicit, []byte("custom from file"), 0o644))

	defaults, err := Defaults()
	require.NoError(t, err)

	tests := []struct {
		name    string
		opts    Options
		want    map[string]string
		wantErr string
	}{
		{
			name: "embedded_only",
			want: map[string]string{
				LogViewer:    string(defaults[LogViewer]),
				ScriptCustom: string(defaults[ScriptCustom]),
			},
		},
		{
			name: "dir_overrides_defaults",
			opts: Options{Dir: dir},
			want: map[string]string{
				LogViewer:         "viewer from dir",
				ScriptCustom:      "custom from dir",
				EnvelopeCartesian: string(defaults[EnvelopeCartesian]),
			},
		},
		{
			name: "files_override_dir",
			opts: Options{Dir: dir, Files: map[string]string{ScriptCustom: explicit}},
			want: map[string]string{
				LogViewer:    "viewer from dir",
				ScriptCustom: "custom from file",
			},
		},
		{
			name:    "unknown_name",
			opts:    Options{Files: map[string]string{"other.js": explicit}},
			wantErr: "unknown asset",
		},
		{
			name:    "missing_file",
			opts:    Options{Files: map[string]string{ScriptCustom: filepath.Join(dir, "nope.js")}},
			wantErr: "reading asset",
		},
		{
			name:    "missing_dir",
			opts:    Options{Dir: filepath.Join(dir, "nope")},
			wantErr: "reading asset dir",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load(testContext(t), tt.opts)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, got, 4)
			assert.NotContains(t, got, "other.js")
			for name, want := range tt.want {
				assert.Equal(t, want, string(got[name]), name)
			}
		})
	}
}

func TestIsKnown(t *testing.T) {
	assert.True(t, IsKnown("scriptcustom.js"))
	assert.False(t, IsKnown("ScriptCustom.js"))
	assert.False(t, IsKnown("404.html"))
}
