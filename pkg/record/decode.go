package record

import (
	"bytes"
	"unicode/utf8"

	"github.com/gogs/chardet"
	"github.com/walteh/webbind/pkg/text"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// minConfidence is the chardet confidence below which a guess is not trusted.
const minConfidence = 30

// decodeSource returns the source as UTF-8. Spreadsheet tools often export in a
// legacy code page, so non UTF-8 input is sniffed and converted.
func decodeSource(b []byte) ([]byte, error) {
	if utf8.Valid(b) {
		s, err := text.Decode(b)
		if err != nil {
			return nil, err
		}
		return []byte(s), nil
	}

	guess, err := chardet.NewTextDetector().DetectBest(b)
	if err != nil {
		return nil, errors.Errorf("detecting charset: %w", err)
	}
	if guess.Confidence < minConfidence {
		return nil, errors.Errorf("unknown charset (best guess %s at %d%%)", guess.Charset, guess.Confidence)
	}

	enc, err := htmlindex.Get(guess.Charset)
	if err != nil {
		return nil, errors.Errorf("unsupported charset %s: %w", guess.Charset, err)
	}

	out, _, err := transform.Bytes(enc.NewDecoder(), b)
	if err != nil {
		return nil, errors.Errorf("decoding %s: %w", guess.Charset, err)
	}
	return bytes.TrimPrefix(out, []byte("\xef\xbb\xbf")), nil
}
