package docpipe

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"strings"
)

// ExtractDocx parses a .docx file into a Document by walking paragraphs and
// tables of word/document.xml in source order. Blank paragraphs are skipped.
// Each paragraph carries its style name so callers can distinguish headings
// from body text.
func (p *Pipeline) ExtractDocx(path string) (*Document, error) {
	if err := p.checkSize(path); err != nil {
		return nil, &ExtractionError{File: path, Err: err}
	}

	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, &ExtractionError{File: path, Err: fmt.Errorf("open zip: %w", err)}
	}
	defer r.Close()

	var docFile *zip.File
	for _, f := range r.File {
		if f.Name == "word/document.xml" {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return nil, &ExtractionError{File: path, Err: fmt.Errorf("word/document.xml not found in archive")}
	}

	rc, err := docFile.Open()
	if err != nil {
		return nil, &ExtractionError{File: path, Err: fmt.Errorf("open document.xml: %w", err)}
	}
	defer rc.Close()

	blocks, err := walkDocumentXML(rc)
	if err != nil {
		return nil, &ExtractionError{File: path, Err: err}
	}
	return &Document{Path: path, Blocks: blocks}, nil
}

// walkDocumentXML streams document.xml tokens, emitting TextBlocks for body
// paragraphs and TableBlocks for tables, interleaved in source order.
// Paragraphs inside table cells contribute to the cell text, not to the
// top-level paragraph flow.
func walkDocumentXML(rc io.Reader) ([]Block, error) {
	decoder := xml.NewDecoder(rc)

	var blocks []Block
	var currentText strings.Builder
	var inParagraph bool
	var paragraphStyle string

	var tableDepth int
	var rows [][]string
	var row []string
	var cellText strings.Builder
	var inCell bool

	for {
		tok, err := decoder.Token()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("document.xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tbl":
				tableDepth++
				if tableDepth == 1 {
					rows = nil
				}
			case "tr":
				if tableDepth == 1 {
					row = nil
				}
			case "tc":
				if tableDepth == 1 {
					inCell = true
					cellText.Reset()
				}
			case "p":
				if tableDepth == 0 {
					inParagraph = true
					currentText.Reset()
					paragraphStyle = ""
				}
			case "pStyle":
				if inParagraph && tableDepth == 0 {
					for _, attr := range t.Attr {
						if attr.Name.Local == "val" {
							paragraphStyle = attr.Value
						}
					}
				}
			}

		case xml.CharData:
			if tableDepth > 0 {
				if inCell {
					cellText.Write(t)
				}
			} else if inParagraph {
				currentText.Write(t)
			}

		case xml.EndElement:
			switch t.Name.Local {
			case "p":
				if tableDepth > 0 {
					// Paragraph break inside a cell.
					if inCell {
						cellText.WriteByte('\n')
					}
					continue
				}
				if !inParagraph {
					continue
				}
				inParagraph = false
				text := strings.TrimSpace(currentText.String())
				if text == "" {
					continue
				}
				blocks = append(blocks, TextBlock{Text: text, Style: paragraphStyle})
			case "tc":
				if tableDepth == 1 && inCell {
					inCell = false
					row = append(row, strings.TrimSpace(cellText.String()))
				}
			case "tr":
				if tableDepth == 1 && row != nil {
					rows = append(rows, row)
				}
			case "tbl":
				tableDepth--
				if tableDepth == 0 && len(rows) > 0 {
					blocks = append(blocks, TableBlock{Rows: rows})
					rows = nil
				}
			}
		}
	}

	return blocks, nil
}

// HeadingLevel extracts the heading level from a paragraph style name.
// e.g. "Heading1" → 1, "Heading2" → 2, "Title" → 1. Returns 0 for body text.
func HeadingLevel(style string) int {
	lower := strings.ToLower(style)

	if lower == "title" {
		return 1
	}
	if lower == "subtitle" {
		return 2
	}

	// "Heading1", "heading1", "Titre1", etc.
	for _, prefix := range []string{"heading", "titre", "überschrift"} {
		if strings.HasPrefix(lower, prefix) {
			rest := lower[len(prefix):]
			if len(rest) == 1 && rest[0] >= '1' && rest[0] <= '6' {
				return int(rest[0] - '0')
			}
		}
	}
	return 0
}

// ExtractDocxImages returns every decodable raster image embedded under
// word/media, in archive order. Part names are unique within the archive, so
// no image is returned twice. Ordering relative to the text flow is not
// defined: the manual DOCX→PDF fallback emits text first, then images.
func (p *Pipeline) ExtractDocxImages(path string) ([]ImageBlock, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, &ExtractionError{File: path, Err: fmt.Errorf("open zip: %w", err)}
	}
	defer r.Close()

	var images []ImageBlock
	for _, f := range r.File {
		if !strings.HasPrefix(f.Name, "word/media/") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			continue
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			continue
		}
		cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			// Not a decodable raster format (EMF/WMF etc.), skip.
			p.logger.Debug("skipping undecodable media part", "part", f.Name)
			continue
		}
		images = append(images, ImageBlock{
			Data:   data,
			Name:   f.Name,
			Width:  cfg.Width,
			Height: cfg.Height,
		})
	}
	return images, nil
}
