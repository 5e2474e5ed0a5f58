package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strings"
	"unicode"
	"unicode/utf16"
)

const docxBody = "word/document.xml"

var errNoDocumentBody = errors.New("docx has no " + docxBody)

// fromDOCX reads the WordprocessingML body. Text runs (w:t) are concatenated,
// paragraphs (w:p) end with a newline, tabs and breaks become whitespace.
func fromDOCX(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	var body *zip.File
	for _, f := range zr.File {
		if f.Name == docxBody {
			body = f
			break
		}
	}
	if body == nil {
		return "", errNoDocumentBody
	}
	rc, err := body.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	var sb strings.Builder
	dec := xml.NewDecoder(rc)
	inText := false
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				sb.WriteByte('\t')
			case "br", "cr":
				sb.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				sb.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}
	return sb.String(), nil
}

// minRun is the shortest printable run kept from a binary .doc stream.
const minRun = 4

// fromDOC recovers text from legacy Word binaries without parsing the
// compound file format: it keeps printable runs of both 8-bit and UTF-16LE
// text, whichever yields more.
func fromDOC(data []byte) (string, error) {
	narrow := printableRuns(decodeNarrow(data))
	wide := printableRuns(decodeUTF16LE(data))
	if len(wide) > len(narrow) {
		return wide, nil
	}
	return narrow, nil
}

func decodeNarrow(data []byte) []rune {
	out := make([]rune, len(data))
	for i, b := range data {
		out[i] = rune(b)
	}
	return out
}

func decodeUTF16LE(data []byte) []rune {
	units := make([]uint16, len(data)/2)
	for i := range units {
		units[i] = uint16(data[2*i]) | uint16(data[2*i+1])<<8
	}
	return utf16.Decode(units)
}

func printableRuns(rs []rune) string {
	var (
		sb  strings.Builder
		run []rune
	)
	flush := func() {
		if len(strings.TrimSpace(string(run))) >= minRun {
			if sb.Len() > 0 {
				sb.WriteByte('\n')
			}
			sb.WriteString(strings.TrimSpace(string(run)))
		}
		run = run[:0]
	}
	for _, r := range rs {
		if r == '\r' || r == '\n' {
			flush()
			continue
		}
		if r == '\t' || (unicode.IsPrint(r) && r < 0xFFFD) {
			run = append(run, r)
			continue
		}
		flush()
	}
	flush()
	return sb.String()
}
