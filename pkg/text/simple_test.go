package text

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimpleTextReplacer_ReplaceText(t *testing.T) {
	tests := []struct {
		name         string
		content      string
		rules        []ReplacementRule
		want         string
		wantCount    int
		wantModified bool
	}{
		{
			name:         "css_background",
			content:      `body { background: url("public/bg.png"); }`,
			rules:        []ReplacementRule{PublicToImg},
			want:         `body { background: url("img/bg.png"); }`,
			wantCount:    1,
			wantModified: true,
		},
		{
			name:         "every_occurrence",
			content:      "public/a.png public/b.png ../public/c.png",
			rules:        []ReplacementRule{PublicToImg},
			want:         "img/a.png img/b.png ../img/c.png",
			wantCount:    3,
			wantModified: true,
		},
		{
			name:    "multiple_rules",
			content: "Hello World",
			rules: []ReplacementRule{
				{FromText: "Hello", ToText: "Hi"},
				{FromText: "World", ToText: "Universe"},
			},
			want:         "Hi Universe",
			wantCount:    2,
			wantModified: true,
		},
		{
			name:         "no_match",
			content:      "publicity/a.png",
			rules:        []ReplacementRule{PublicToImg},
			want:         "publicity/a.png",
			wantModified: false,
		},
		{
			name:    "empty_from_text_skipped",
			content: "public/a.png",
			rules:   []ReplacementRule{{ToText: "img/"}},
			want:    "public/a.png",
		},
		{
			name:  "empty_content",
			rules: []ReplacementRule{PublicToImg},
			want:  "",
		},
		{
			name:    "empty_rules",
			content: "public/a.png",
			rules:   []ReplacementRule{},
			want:    "public/a.png",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			replacer := NewSimpleTextReplacer()
			result, err := replacer.ReplaceText(
				context.Background(),
				strings.NewReader(tt.content),
				tt.rules,
			)
			require.NoError(t, err)
			require.NotNil(t, result)

			assert.Equal(t, tt.content, string(result.OriginalContent))
			assert.Equal(t, tt.want, string(result.ModifiedContent))
			assert.Equal(t, tt.wantCount, result.ReplacementCount)
			assert.Equal(t, tt.wantModified, result.WasModified)
		})
	}
}

func TestSimpleTextReplacer_ValidateRules(t *testing.T) {
	tests := []struct {
		name      string
		rules     []ReplacementRule
		wantError string
	}{
		{
			name:  "public_to_img",
			rules: []ReplacementRule{PublicToImg},
		},
		{
			name:      "missing_from_text",
			rules:     []ReplacementRule{{ToText: "img/", FileFilterGlob: "**/*.css"}},
			wantError: "from_text is required",
		},
		{
			name:      "missing_file_filter",
			rules:     []ReplacementRule{{FromText: "public/", ToText: "img/"}},
			wantError: "file_filter_glob is required",
		},
		{
			name:      "bad_glob",
			rules:     []ReplacementRule{{FromText: "public/", FileFilterGlob: "[*.css"}},
			wantError: "invalid file_filter_glob",
		},
		{
			name:  "empty_rules",
			rules: []ReplacementRule{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewSimpleTextReplacer().ValidateRules(tt.rules)
			if tt.wantError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantError)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestReplacementRule_Matches(t *testing.T) {
	tests := []struct {
		glob  string
		entry string
		want  bool
	}{
		{"**/*.css", "style.css", true},
		{"**/*.css", "assets/css/Site.CSS", true},
		{"**/*.css", "style.css.map", false},
		{"**/*.html", "index.html", true},
		{"**/*.html", "pages/about.HTML", true},
		{"**/*.html", "index.htm", false},
		{"", "anything.bin", true},
	}

	for _, tt := range tests {
		t.Run(tt.glob+"_"+tt.entry, func(t *testing.T) {
			assert.Equal(t, tt.want, PublicToImg.WithGlob(tt.glob).Matches(tt.entry))
		})
	}
}

func TestPublicToImg_CountsBalance(t *testing.T) {
	inputs := []string{
		"",
		"public/",
		"public/public/x.png",
		`<img src="public/a.png"><div style="background:url(public/b.png)">`,
		"no references here, only img/ already",
	}

	for _, in := range inputs {
		out := PublicToImg.Apply(in)
		assert.NotContains(t, out, "public/")
		assert.Equal(t,
			strings.Count(in, "img/")+strings.Count(in, "public/"),
			strings.Count(out, "img/"),
			"img/ count should grow by the number of public/ occurrences in %q", in)
	}
}

func TestDecode(t *testing.T) {
	t.Run("plain", func(t *testing.T) {
		got, err := Decode([]byte("a { color: red }"))
		require.NoError(t, err)
		assert.Equal(t, "a { color: red }", got)
	})

	t.Run("bom_dropped", func(t *testing.T) {
		got, err := Decode([]byte("\xef\xbb\xbf<html></html>"))
		require.NoError(t, err)
		assert.Equal(t, "<html></html>", got)
	})

	t.Run("invalid_utf8", func(t *testing.T) {
		_, err := Decode([]byte{0x3c, 0xff, 0xfe, 0x3e})
		require.ErrorIs(t, err, ErrInvalidUTF8)
	})
}
