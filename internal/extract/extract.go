// Package extract turns uploaded document bytes into plain text.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
)

// ErrUnsupportedType is returned when neither the content type nor the
// file extension names a known format.
var ErrUnsupportedType = errors.New("unsupported document type")

const (
	TypePDF  = "application/pdf"
	TypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	TypeDOC  = "application/msword"
	TypeText = "text/plain"
)

type extractor func(data []byte) (string, error)

var byType = map[string]extractor{
	TypePDF:  fromPDF,
	TypeDOCX: fromDOCX,
	TypeDOC:  fromDOC,
	TypeText: fromTXT,
}

var extTypes = map[string]string{
	".pdf":  TypePDF,
	".docx": TypeDOCX,
	".doc":  TypeDOC,
	".txt":  TypeText,
}

// Resolve returns the canonical content type for an upload. A known
// contentType wins; an empty or generic one falls back to the extension.
func Resolve(filename, contentType string) (string, error) {
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		if _, ok := byType[mt]; ok {
			return mt, nil
		}
		if mt != "application/octet-stream" {
			return "", fmt.Errorf("%w: %s", ErrUnsupportedType, mt)
		}
	}
	if mt, ok := extTypes[strings.ToLower(filepath.Ext(filename))]; ok {
		return mt, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedType, filename)
}

// Supported reports whether Text can handle the upload.
func Supported(filename, contentType string) bool {
	_, err := Resolve(filename, contentType)
	return err == nil
}

// Text extracts the plain text of data, trimmed of surrounding whitespace.
func Text(data []byte, filename, contentType string) (string, error) {
	mt, err := Resolve(filename, contentType)
	if err != nil {
		return "", err
	}
	text, err := byType[mt](data)
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", mt, err)
	}
	return strings.TrimSpace(text), nil
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func fromTXT(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	return strings.ToValidUTF8(string(data), "�"), nil
}
