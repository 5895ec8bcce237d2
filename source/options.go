package source

import (
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/kbukum/crashstream/errors"
)

// Supported text encodings.
const (
	EncodingUTF8        = "utf-8"
	EncodingWindows1252 = "windows-1252"
	EncodingLatin1      = "iso-8859-1"
)

// Encodings lists the canonical Options.Encoding values.
var Encodings = []string{EncodingUTF8, EncodingWindows1252, EncodingLatin1}

var encodingAliases = map[string]string{
	"":                  EncodingUTF8,
	EncodingUTF8:        EncodingUTF8,
	"utf8":              EncodingUTF8,
	EncodingWindows1252: EncodingWindows1252,
	"cp1252":            EncodingWindows1252,
	EncodingLatin1:      EncodingLatin1,
	"latin1":            EncodingLatin1,
}

// CanonicalEncoding resolves enc, case-insensitively and including the
// aliases utf8, cp1252 and latin1, to one of Encodings. Empty means UTF-8.
func CanonicalEncoding(enc string) (string, bool) {
	name, ok := encodingAliases[strings.ToLower(strings.TrimSpace(enc))]
	return name, ok
}

// Options tunes how the source file is parsed.
type Options struct {
	// Comma is the field delimiter. Zero means ','.
	Comma rune
	// LazyQuotes allows quotes to appear in unquoted fields.
	LazyQuotes bool
	// Encoding of the file. Empty means UTF-8. A leading byte order mark is
	// stripped for UTF-8 and honoured for UTF-16.
	Encoding string
}

// decoder returns the transformer for enc and whether the transformed
// output still has to be checked for valid UTF-8.
func decoder(enc string) (transform.Transformer, bool, error) {
	name, ok := CanonicalEncoding(enc)
	if !ok {
		return nil, false, errors.InvalidInput("encoding", "must be one of: "+strings.Join(Encodings, ", "))
	}
	switch name {
	case EncodingWindows1252:
		return charmap.Windows1252.NewDecoder(), false, nil
	case EncodingLatin1:
		return charmap.ISO8859_1.NewDecoder(), false, nil
	default:
		return unicode.BOMOverride(transform.Nop), true, nil
	}
}
