package files

import (
	"bytes"
	"os"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"
)

// ReadTextFile reads a file as text. Report and source files arrive in a mix
// of encodings (UTF-8 with or without BOM, UTF-16/32, Windows code pages), so
// decoding walks a ladder instead of assuming UTF-8. It never fails on an
// encoding mismatch, only on I/O errors.
func ReadTextFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return DecodeText(data), nil
}

// DecodeText converts raw bytes into a UTF-8 string using a best-effort
// encoding ladder: BOM-marked encodings, plain UTF-8, Windows-1251, then
// Latin-1 as the total fallback that accepts any byte sequence.
func DecodeText(data []byte) string {
	switch {
	case bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}):
		if utf8.Valid(data[3:]) {
			return string(data[3:])
		}
	case bytes.HasPrefix(data, []byte{0xFF, 0xFE, 0x00, 0x00}), bytes.HasPrefix(data, []byte{0x00, 0x00, 0xFE, 0xFF}):
		if s, err := decodeWith(utf32.UTF32(utf32.LittleEndian, utf32.UseBOM), data); err == nil {
			return s
		}
	case bytes.HasPrefix(data, []byte{0xFF, 0xFE}), bytes.HasPrefix(data, []byte{0xFE, 0xFF}):
		if s, err := decodeWith(unicode.UTF16(unicode.LittleEndian, unicode.UseBOM), data); err == nil {
			return s
		}
	}

	if utf8.Valid(data) {
		return string(data)
	}

	// Windows-1251 leaves one code point unassigned; a replacement rune in
	// the output means the bytes were not really 1251-encoded.
	if s, err := decodeWith(charmap.Windows1251, data); err == nil && !bytes.ContainsRune([]byte(s), utf8.RuneError) {
		return s
	}

	s, err := decodeWith(charmap.ISO8859_1, data)
	if err == nil {
		return s
	}
	return string(bytes.ToValidUTF8(data, []byte(string(utf8.RuneError))))
}

func decodeWith(enc encoding.Encoding, data []byte) (string, error) {
	decoded, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}
