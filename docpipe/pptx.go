package docpipe

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var slidePartRe = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// ExtractPptx parses a .pptx file into a Document with one SlideBlock per
// slide (1-indexed), collecting the text of every shape that exposes
// non-empty text, in shape order.
func (p *Pipeline) ExtractPptx(path string) (*Document, error) {
	if err := p.checkSize(path); err != nil {
		return nil, &ExtractionError{File: path, Err: err}
	}

	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, &ExtractionError{File: path, Err: fmt.Errorf("open zip: %w", err)}
	}
	defer r.Close()

	type slidePart struct {
		num  int
		file *zip.File
	}
	var parts []slidePart
	for _, f := range r.File {
		m := slidePartRe.FindStringSubmatch(f.Name)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		parts = append(parts, slidePart{num: n, file: f})
	}
	if len(parts) == 0 {
		return nil, &ExtractionError{File: path, Err: fmt.Errorf("no slides found in archive")}
	}
	sort.Slice(parts, func(i, j int) bool { return parts[i].num < parts[j].num })

	var blocks []Block
	for i, part := range parts {
		rc, err := part.file.Open()
		if err != nil {
			return nil, &ExtractionError{File: path, Err: fmt.Errorf("open %s: %w", part.file.Name, err)}
		}
		items, err := walkSlideXML(rc)
		rc.Close()
		if err != nil {
			return nil, &ExtractionError{File: path, Err: fmt.Errorf("%s: %w", part.file.Name, err)}
		}
		blocks = append(blocks, SlideBlock{Index: i + 1, Items: items})
	}

	return &Document{Path: path, Blocks: blocks}, nil
}

// walkSlideXML collects the text of each p:sp shape in a slide, one string
// per shape. Paragraphs within a shape are joined with newlines. Shapes with
// no text are omitted.
func walkSlideXML(rc io.Reader) ([]string, error) {
	decoder := xml.NewDecoder(rc)

	var items []string
	var shapeText strings.Builder
	var shapeDepth int
	var inT bool

	for {
		tok, err := decoder.Token()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "sp":
				shapeDepth++
				if shapeDepth == 1 {
					shapeText.Reset()
				}
			case "p":
				// DrawingML paragraph boundary within the shape.
				if shapeDepth > 0 && shapeText.Len() > 0 {
					shapeText.WriteByte('\n')
				}
			case "t":
				if shapeDepth > 0 {
					inT = true
				}
			}

		case xml.CharData:
			if inT {
				shapeText.Write(t)
			}

		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inT = false
			case "sp":
				if shapeDepth == 1 {
					text := strings.TrimSpace(shapeText.String())
					if text != "" {
						items = append(items, text)
					}
				}
				shapeDepth--
			}
		}
	}

	return items, nil
}
