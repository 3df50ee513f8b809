package subtitle

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// lookupEncoding resolves an encoding label (utf-8, gbk, big5, ...) to its
// codec. An unknown label is a configuration error.
func lookupEncoding(name string) (encoding.Encoding, error) {
	if name == "" || strings.EqualFold(name, "utf-8") || strings.EqualFold(name, "utf8") {
		return unicode.UTF8, nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("unknown output encoding %q: %w", name, err)
	}
	return enc, nil
}

// EncodeText converts UTF-8 text into the named encoding. Runes the target
// charset cannot represent are replaced rather than failing the write.
func EncodeText(text, encodingName string) ([]byte, error) {
	enc, err := lookupEncoding(encodingName)
	if err != nil {
		return nil, err
	}
	if enc == unicode.UTF8 {
		return []byte(text), nil
	}
	out, _, err := transform.Bytes(encoding.ReplaceUnsupported(enc.NewEncoder()), []byte(text))
	if err != nil {
		return nil, fmt.Errorf("encode text as %s: %w", encodingName, err)
	}
	return out, nil
}

// DecodeText converts bytes in the named encoding back to UTF-8.
func DecodeText(data []byte, encodingName string) (string, error) {
	enc, err := lookupEncoding(encodingName)
	if err != nil {
		return "", err
	}
	if enc == unicode.UTF8 {
		return string(data), nil
	}
	out, _, err := transform.Bytes(enc.NewDecoder(), data)
	if err != nil {
		return "", fmt.Errorf("decode %s text: %w", encodingName, err)
	}
	return string(out), nil
}

// WriteFile composes entries and writes them to path in the named encoding.
func WriteFile(path string, entries []Entry, encodingName string) error {
	data, err := EncodeText(Compose(entries), encodingName)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write SRT file: %w", err)
	}
	return nil
}

// ReadFile parses a subtitle file written in the named encoding.
func ReadFile(path, encodingName string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read SRT file: %w", err)
	}
	text, err := DecodeText(data, encodingName)
	if err != nil {
		return nil, err
	}
	return Parse(bytes.NewReader([]byte(text)))
}
