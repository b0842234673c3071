package helpers

import (
	"bytes"
	"fmt"
	"os"
	"unicode/utf8"

	"golang.org/x/net/html/charset"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DecodeToUTF8 returns data as UTF-8. Valid UTF-8 input is returned as is
// (minus a BOM); anything else is decoded with the encoding named by
// fallback, e.g. "shift_jis" for spreadsheets exported on Japanese Windows.
func DecodeToUTF8(data []byte, fallback string) ([]byte, error) {
	if utf8.Valid(data) {
		return bytes.TrimPrefix(data, utf8BOM), nil
	}

	encoding, name := charset.Lookup(fallback)
	if encoding == nil {
		return nil, fmt.Errorf("unknown encoding %q", fallback)
	}
	if name == "utf-8" {
		return nil, fmt.Errorf("data is not valid utf-8")
	}

	decoded, err := encoding.NewDecoder().Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", name, err)
	}
	return decoded, nil
}

// ReadFileUTF8 reads path and converts it with DecodeToUTF8
func ReadFileUTF8(path string, fallback string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return DecodeToUTF8(data, fallback)
}
