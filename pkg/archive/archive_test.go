package archive

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"
)

type testFile struct {
	name   string
	body   string
	stored bool
}

func testContext(t *testing.T) context.Context {
	logger := zerolog.New(zerolog.NewTestWriter(t))
	return logger.WithContext(context.Background())
}

func buildZip(t *testing.T, files ...testFile) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, f := range files {
		method := zip.Deflate
		if f.stored || strings.HasSuffix(f.name, "/") {
			method = zip.Store
		}
		fw, err := w.CreateHeader(&zip.FileHeader{Name: f.name, Method: method})
		require.NoError(t, err)
		if !strings.HasSuffix(f.name, "/") {
			_, err = fw.Write([]byte(f.body))
			require.NoError(t, err)
		}
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

// corruptZip flips a byte of a stored payload so that reading it fails the
// checksum while the central directory stays intact.
func corruptZip(t *testing.T, data []byte, payload string) []byte {
	t.Helper()
	i := bytes.Index(data, []byte(payload))
	require.GreaterOrEqual(t, i, 0, "payload not found")
	out := bytes.Clone(data)
	out[i] ^= 0xff
	return out
}

func readAll(t *testing.T, data []byte) map[string]string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	out := make(map[string]string, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		b, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		out[f.Name] = string(b)
	}
	return out
}

func TestOpen(t *testing.T) {
	ctx := testContext(t)

	t.Run("entries_in_source_order", func(t *testing.T) {
		a, err := Open(ctx, buildZip(t,
			testFile{name: "index.html", body: "<html></html>"},
			testFile{name: "public/"},
			testFile{name: "public/logo.png", body: "\x89PNG\r\n"},
		))
		require.NoError(t, err)

		assert.Equal(t, []string{"index.html", "public/", "public/logo.png"}, a.Names())

		dir, ok := a.Entry("public/")
		require.True(t, ok)
		assert.True(t, dir.Dir)

		logo, ok := a.Entry("public/logo.png")
		require.True(t, ok)
		b, err := logo.Bytes()
		require.NoError(t, err)
		assert.Equal(t, "\x89PNG\r\n", string(b))
		assert.False(t, logo.Touched())
	})

	t.Run("empty_zip", func(t *testing.T) {
		a, err := Open(ctx, buildZip(t))
		require.NoError(t, err)
		assert.Zero(t, a.Len())
	})

	t.Run("not_a_zip", func(t *testing.T) {
		_, err := Open(ctx, []byte("Name,Address\nTemp,A1\n"))
		require.Error(t, err)

		var aerr *Error
		require.True(t, errors.As(err, &aerr))
		assert.Equal(t, "open", aerr.Op)
		assert.Contains(t, err.Error(), "unsupported container")
	})

	t.Run("empty_payload", func(t *testing.T) {
		_, err := Open(ctx, nil)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrEmpty))
	})

	t.Run("truncated", func(t *testing.T) {
		data := buildZip(t, testFile{name: "index.html", body: "<html></html>"})
		_, err := Open(ctx, data[:len(data)-10])
		var aerr *Error
		require.True(t, errors.As(err, &aerr))
		assert.Equal(t, "open", aerr.Op)
	})
}

func TestArchive_RemoveAndInject(t *testing.T) {
	ctx := testContext(t)

	a, err := Open(ctx, buildZip(t,
		testFile{name: "404.html", body: "gone"},
		testFile{name: "ew-log-viewer.js", body: "old viewer"},
		testFile{name: "index.html", body: "<html></html>"},
	))
	require.NoError(t, err)

	removed := a.RemoveEntries("404.html", "404.css")
	assert.Equal(t, []string{"404.html"}, removed)

	assets := map[string][]byte{
		"scriptcustom.js":        []byte("custom"),
		"LLWebServerExtended.js": []byte("server"),
		"ew-log-viewer.js":       []byte("viewer"),
		"envelope-cartesian.js":  []byte("cartesian"),
	}
	injected := a.InjectEntries(assets)
	assert.Equal(t, []Injection{
		{Name: "LLWebServerExtended.js"},
		{Name: "envelope-cartesian.js"},
		{Name: "ew-log-viewer.js", Replaced: true},
		{Name: "scriptcustom.js"},
	}, injected)

	for name, want := range assets {
		e, ok := a.Entry(name)
		require.True(t, ok, name)
		got, err := e.Bytes()
		require.NoError(t, err)
		assert.Equal(t, string(want), string(got), name)
		assert.True(t, e.Touched())
	}

	_, ok := a.Entry("404.html")
	assert.False(t, ok)
	assert.Equal(t, []string{"ew-log-viewer.js", "index.html", "LLWebServerExtended.js", "envelope-cartesian.js", "scriptcustom.js"}, a.Names())
}

func TestArchive_RenamePrefix(t *testing.T) {
	ctx := testContext(t)
	binary := "\x00\x01\xfe\xffGIF89a\x00"

	a, err := Open(ctx, buildZip(t,
		testFile{name: "index.html", body: "<html></html>"},
		testFile{name: "public/"},
		testFile{name: "public/img.gif", body: binary},
		testFile{name: "public/fonts/a.woff", body: "woff"},
		testFile{name: "publications.html", body: "not a match"},
	))
	require.NoError(t, err)

	report, err := a.RenamePrefix(ctx, "public/", "img/", 2)
	require.NoError(t, err)
	assert.Empty(t, report.Failed)
	assert.Equal(t, []Rename{
		{From: "public/", To: "img/", Dir: true},
		{From: "public/img.gif", To: "img/img.gif"},
		{From: "public/fonts/a.woff", To: "img/fonts/a.woff"},
	}, report.Renamed)

	assert.Equal(t, []string{"index.html", "publications.html", "img/", "img/img.gif", "img/fonts/a.woff"}, a.Names())

	e, ok := a.Entry("img/img.gif")
	require.True(t, ok)
	got, err := e.Bytes()
	require.NoError(t, err)
	assert.Equal(t, binary, string(got))

	t.Run("idempotent", func(t *testing.T) {
		before := a.Names()
		again, err := a.RenamePrefix(ctx, "public/", "img/", 2)
		require.NoError(t, err)
		assert.Empty(t, again.Renamed)
		assert.Empty(t, again.Failed)
		assert.Equal(t, before, a.Names())
	})
}

func TestArchive_RenamePrefix_BareDirectory(t *testing.T) {
	ctx := testContext(t)

	a := New()
	a.Put("public", nil)
	a.Put("public/a.css", []byte("body{}"))

	report, err := a.RenamePrefix(ctx, "public/", "img/", 0)
	require.NoError(t, err)
	require.Len(t, report.Renamed, 2)

	dir, ok := a.Entry("img/")
	require.True(t, ok)
	assert.True(t, dir.Dir)
	assert.Equal(t, []string{"img/", "img/a.css"}, a.Names())
}

func TestArchive_RenamePrefix_UnreadableEntry(t *testing.T) {
	ctx := testContext(t)

	data := buildZip(t,
		testFile{name: "public/good.png", body: "good payload"},
		testFile{name: "public/bad.png", body: "BROKEN-PAYLOAD-BYTES", stored: true},
	)
	a, err := Open(ctx, corruptZip(t, data, "BROKEN-PAYLOAD-BYTES"))
	require.NoError(t, err)

	report, err := a.RenamePrefix(ctx, "public/", "img/", 4)
	require.NoError(t, err)

	require.Len(t, report.Failed, 1)
	assert.Equal(t, "public/bad.png", report.Failed[0].Name)
	assert.True(t, errors.Is(report.Failed[0], zip.ErrChecksum))
	assert.Equal(t, []string{"public/bad.png", "img/good.png"}, a.Names())
}

func TestRewriteText(t *testing.T) {
	ctx := testContext(t)

	a, err := Open(ctx, buildZip(t,
		testFile{name: "a.css", body: "url(public/a.png)"},
		testFile{name: "b.css", body: "body{}"},
		testFile{name: "c.css", body: "\xff\xfe bad"},
		testFile{name: "d.html", body: "<p>public/</p>"},
		testFile{name: "e.css", body: "\xef\xbb\xbfurl(public/e.png)"},
	))
	require.NoError(t, err)

	isCSS := func(name string) bool { return strings.HasSuffix(name, ".css") }
	results, err := RewriteText(ctx, a, isCSS, 2, func(_ context.Context, _ string, content string) (string, int, error) {
		n := strings.Count(content, "public/")
		return strings.ReplaceAll(content, "public/", "img/"), n, nil
	})
	require.NoError(t, err)
	require.Len(t, results, 4)

	assert.Equal(t, "a.css", results[0].Name)
	assert.True(t, results[0].Changed)
	assert.Equal(t, 1, results[0].Value)

	assert.False(t, results[1].Changed)
	assert.NoError(t, results[1].Err)

	var eerr *EntryError
	require.True(t, errors.As(results[2].Err, &eerr))
	assert.Equal(t, "c.css", eerr.Name)

	got := func(name string) string {
		e, ok := a.Entry(name)
		require.True(t, ok)
		b, err := e.Bytes()
		require.NoError(t, err)
		return string(b)
	}
	assert.Equal(t, "url(img/a.png)", got("a.css"))
	assert.Equal(t, "\xff\xfe bad", got("c.css"))
	assert.Equal(t, "<p>public/</p>", got("d.html"))
	assert.Equal(t, "\xef\xbb\xbfurl(img/e.png)", got("e.css"), "byte order mark should survive a rewrite")
}

func TestRewriteText_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(testContext(t))
	cancel()

	a := New()
	a.Put("a.css", []byte("x"))

	_, err := RewriteText(ctx, a, func(string) bool { return true }, 1, func(_ context.Context, _ string, s string) (string, struct{}, error) {
		return s, struct{}{}, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestArchive_Serialize(t *testing.T) {
	ctx := testContext(t)

	data := buildZip(t,
		testFile{name: "index.html", body: "<html></html>"},
		testFile{name: "img/"},
		testFile{name: "untouched.bin", body: "CORRUPTED-BUT-UNTOUCHED", stored: true},
	)
	a, err := Open(ctx, corruptZip(t, data, "CORRUPTED-BUT-UNTOUCHED"))
	require.NoError(t, err)
	a.Put("scriptcustom.js", []byte("console.log('x');"))

	out, err := a.Serialize(ctx, SerializeOptions{Comment: DefaultComment})
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(out), int64(len(out)))
	require.NoError(t, err)
	assert.Equal(t, DefaultComment, zr.Comment)

	byName := map[string]*zip.File{}
	var names []string
	for _, f := range zr.File {
		byName[f.Name] = f
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"index.html", "img/", "untouched.bin", "scriptcustom.js"}, names)

	assert.Equal(t, zip.Deflate, byName["index.html"].Method)
	assert.Equal(t, zip.Deflate, byName["scriptcustom.js"].Method)
	assert.Equal(t, zip.Store, byName["img/"].Method)

	// the unreadable entry is carried over in its raw form
	raw := byName["untouched.bin"]
	assert.Equal(t, zip.Store, raw.Method)
	rr, err := raw.OpenRaw()
	require.NoError(t, err)
	rawBytes, err := io.ReadAll(rr)
	require.NoError(t, err)
	assert.Equal(t, string(corruptZip(t, []byte("CORRUPTED-BUT-UNTOUCHED"), "CORRUPTED-BUT-UNTOUCHED")), string(rawBytes))

	rc, err := byName["index.html"].Open()
	require.NoError(t, err)
	html, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "<html></html>", string(html))
}
