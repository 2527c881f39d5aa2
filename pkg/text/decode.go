package text

import (
	"unicode/utf8"

	"gitlab.com/tozd/go/errors"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// BOM is the UTF-8 byte order mark.
const BOM = "\xef\xbb\xbf"

// ErrInvalidUTF8 is returned by Decode for content that is not valid UTF-8.
var ErrInvalidUTF8 = errors.New("content is not valid utf-8")

// Decode converts raw entry bytes to text. A leading byte order mark is
// dropped. Invalid UTF-8 is rejected rather than replaced.
func Decode(b []byte) (string, error) {
	if !utf8.Valid(b) {
		return "", ErrInvalidUTF8
	}
	out, _, err := transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), b)
	if err != nil {
		return "", errors.Errorf("decoding text: %w", err)
	}
	return string(out), nil
}
