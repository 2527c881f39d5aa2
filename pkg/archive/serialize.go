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

package archive

import (
	"bytes"
	"context"
	"strings"

	"github.com/klauspost/compress/zip"
	"github.com/rs/zerolog"
)

// DefaultComment is the archive comment written when none is configured.
const DefaultComment = "Generated website package"

// SerializeOptions configures Serialize.
type SerializeOptions struct {
	// Comment is stored as the zip archive comment.
	Comment string
}

// Serialize writes the archive in entry order. Files are deflated and
// directories stored. An entry carried over from the source archive whose
// payload can no longer be decompressed is copied in its raw form.
func (a *Archive) Serialize(ctx context.Context, opts SerializeOptions) ([]byte, error) {
	logger := zerolog.Ctx(ctx)

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)

	if opts.Comment != "" {
		if err := w.SetComment(opts.Comment); err != nil {
			return nil, &Error{Op: "serialize", Err: err}
		}
	}

	for _, name := range a.order {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		e := a.entries[name]
		if e.Dir {
			hdr := &zip.FileHeader{Name: dirName(name), Method: zip.Store, Modified: e.Modified}
			if _, err := w.CreateHeader(hdr); err != nil {
				return nil, &Error{Op: "serialize", Err: err}
			}
			continue
		}

		data, err := e.Bytes()
		if err != nil {
			if e.src == nil || e.dirty {
				return nil, &Error{Op: "serialize", Err: err}
			}
			logger.Warn().Err(err).Str("entry", name).Msg("copying unreadable entry unchanged")
			if err := w.Copy(e.src); err != nil {
				return nil, &Error{Op: "serialize", Err: err}
			}
			continue
		}

		hdr := &zip.FileHeader{Name: name, Method: zip.Deflate, Modified: e.Modified}
		fw, err := w.CreateHeader(hdr)
		if err != nil {
			return nil, &Error{Op: "serialize", Err: err}
		}
		if _, err := fw.Write(data); err != nil {
			return nil, &Error{Op: "serialize", Err: err}
		}
	}

	if err := w.Close(); err != nil {
		return nil, &Error{Op: "serialize", Err: err}
	}

	logger.Debug().Int("entries", a.Len()).Int("bytes", buf.Len()).Msg("serialized archive")
	return buf.Bytes(), nil
}

func dirName(name string) string {
	if strings.HasSuffix(name, "/") {
		return name
	}
	return name + "/"
}
