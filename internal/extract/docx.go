package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

const wordMLNS = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

// docxText reads word/document.xml and returns the non-empty body paragraphs and
// table rows (cells joined with " | ") in document order, plus the number of
// body-level paragraphs.
func docxText(data []byte) (string, int, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", 0, fmt.Errorf("open docx: %w", err)
	}
	var doc *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			doc = f
			break
		}
	}
	if doc == nil {
		return "", 0, errors.New("open docx: word/document.xml missing")
	}
	rc, err := doc.Open()
	if err != nil {
		return "", 0, fmt.Errorf("open docx: %w", err)
	}
	defer rc.Close()

	return walkDocument(xml.NewDecoder(rc))
}

func walkDocument(dec *xml.Decoder) (string, int, error) {
	var (
		lines      []string
		paragraphs int
		tblDepth   int
		inText     bool
		para       strings.Builder
		cell       strings.Builder
		row        []string
	)

	// buf is where run text currently goes: the open cell inside a table, else the
	// open body paragraph.
	buf := func() *strings.Builder {
		if tblDepth > 0 {
			return &cell
		}
		return &para
	}

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", 0, fmt.Errorf("parse docx: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Space != wordMLNS {
				continue
			}
			switch t.Name.Local {
			case "tbl":
				tblDepth++
			case "tr":
				if tblDepth == 1 {
					row = row[:0]
				}
			case "tc":
				if tblDepth == 1 {
					cell.Reset()
				}
			case "p":
				if tblDepth == 0 {
					para.Reset()
				} else if cell.Len() > 0 {
					cell.WriteByte('\n')
				}
			case "t":
				inText = true
			case "tab":
				buf().WriteByte('\t')
			case "br", "cr":
				buf().WriteByte('\n')
			}

		case xml.EndElement:
			if t.Name.Space != wordMLNS {
				continue
			}
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if tblDepth == 0 {
					paragraphs++
					if s := strings.TrimSpace(para.String()); s != "" {
						lines = append(lines, s)
					}
				}
			case "tc":
				if tblDepth == 1 {
					if s := strings.TrimSpace(cell.String()); s != "" {
						row = append(row, s)
					}
				}
			case "tr":
				if tblDepth == 1 && len(row) > 0 {
					lines = append(lines, strings.Join(row, " | "))
				}
			case "tbl":
				tblDepth--
			}

		case xml.CharData:
			if inText {
				buf().Write(t)
			}
		}
	}
	return strings.Join(lines, "\n"), paragraphs, nil
}
