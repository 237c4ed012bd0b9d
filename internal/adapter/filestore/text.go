package filestore

import (
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
)

// encodeText decodes payload using its declared charset and encodes the
// text back in that charset. Invalid input sequences become replacement
// characters, the same way a text download is normalized on write.
func encodeText(payload []byte, charset string) ([]byte, error) {
	enc := lookupEncoding(charset)
	text, err := enc.NewDecoder().Bytes(payload)
	if err != nil {
		return nil, err
	}
	return encoding.ReplaceUnsupported(enc.NewEncoder()).Bytes(text)
}

// lookupEncoding resolves a charset label, falling back to UTF-8 for empty
// or unknown labels.
func lookupEncoding(charset string) encoding.Encoding {
	charset = strings.TrimSpace(charset)
	if charset == "" {
		return unicode.UTF8
	}
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return unicode.UTF8
	}
	return enc
}
