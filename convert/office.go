package convert

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"

	"github.com/hazyhaar/docmerge/docpipe"
	"github.com/hazyhaar/docmerge/render"
)

// Embedded-image bounds for the manual DOCX fallback: 6in × 8in.
const (
	maxImageWidthPt  = 432.0
	maxImageHeightPt = 576.0
	maxImageWidthPx  = 576 // at 96 px/inch
	maxImageHeightPx = 768
)

// textToPDF flows a plain text file into a PDF, one paragraph per non-blank
// line. Long content paginates automatically.
func (c *Converter) textToPDF(srcPath, dstPath string) error {
	doc, err := c.pipe.ExtractText(srcPath)
	if err != nil {
		return &ConversionError{File: srcPath, Err: err}
	}
	d := render.NewDoc()
	for _, block := range doc.Blocks {
		tb, ok := block.(docpipe.TextBlock)
		if !ok {
			continue
		}
		for _, line := range docpipe.NonBlankLines(tb.Text) {
			d.Paragraph(line)
		}
	}
	if err := d.WriteFile(dstPath); err != nil {
		return &ConversionError{File: srcPath, Err: err}
	}
	return nil
}

// docxToPDF converts a Word document. Tier 1 delegates to the external
// render engine; tier 2 reconstructs the document manually from extracted
// blocks: heading-styled paragraphs in a larger bold face, tables through
// the grid primitive, then all embedded images thumbnailed into a bounded
// box after the text flow. Image placement relative to text is best-effort
// only: text first, then any remaining images.
func (c *Converter) docxToPDF(ctx context.Context, srcPath, dstPath string) error {
	if c.engineConvert(ctx, srcPath, dstPath) {
		return nil
	}

	doc, err := c.pipe.ExtractDocx(srcPath)
	if err != nil {
		return &ConversionError{File: srcPath, Err: err}
	}

	d := render.NewDoc()
	for _, block := range doc.Blocks {
		switch b := block.(type) {
		case docpipe.TextBlock:
			if docpipe.HeadingLevel(b.Style) > 0 {
				d.Heading(b.Text, docpipe.HeadingLevel(b.Style))
			} else {
				d.Paragraph(b.Text)
			}
		case docpipe.TableBlock:
			d.Table(b.Rows)
		}
	}

	images, err := c.pipe.ExtractDocxImages(srcPath)
	if err != nil {
		c.logger.Debug("embedded image extraction failed", "input", srcPath, "error", err)
	}
	for _, img := range images {
		if err := c.appendThumbnail(d, img); err != nil {
			c.logger.Debug("embedded image skipped", "part", img.Name, "error", err)
		}
	}

	if err := d.WriteFile(dstPath); err != nil {
		return &ConversionError{File: srcPath, Err: err}
	}
	return nil
}

func (c *Converter) appendThumbnail(d *render.Doc, img docpipe.ImageBlock) error {
	decoded, _, err := image.Decode(bytes.NewReader(img.Data))
	if err != nil {
		return fmt.Errorf("decode %s: %w", img.Name, err)
	}
	small := thumbnail(decoded, maxImageWidthPx, maxImageHeightPx)
	var buf bytes.Buffer
	if err := png.Encode(&buf, small); err != nil {
		return fmt.Errorf("encode %s: %w", img.Name, err)
	}
	return d.Image(buf.Bytes(), maxImageWidthPt, maxImageHeightPt)
}

// pptxToPDF converts a presentation. Tier 1 delegates to the external render
// engine; tier 2 renders one page per slide, titled "Slide N", followed by
// the text of every text-bearing shape.
func (c *Converter) pptxToPDF(ctx context.Context, srcPath, dstPath string) error {
	if c.engineConvert(ctx, srcPath, dstPath) {
		return nil
	}

	doc, err := c.pipe.ExtractPptx(srcPath)
	if err != nil {
		return &ConversionError{File: srcPath, Err: err}
	}

	d := render.NewDoc()
	first := true
	for _, block := range doc.Blocks {
		slide, ok := block.(docpipe.SlideBlock)
		if !ok {
			continue
		}
		if !first {
			d.PageBreak()
		}
		first = false
		d.Heading(fmt.Sprintf("Slide %d", slide.Index), 1)
		for _, item := range slide.Items {
			d.Paragraph(item)
		}
	}

	if err := d.WriteFile(dstPath); err != nil {
		return &ConversionError{File: srcPath, Err: err}
	}
	return nil
}
