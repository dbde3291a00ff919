package docpipe

// Block is one structural unit of an extracted document. Block order within
// a Document is significant: it mirrors source reading order (paragraph
// order, row order, slide order) and must be preserved end-to-end.
type Block interface {
	isBlock()
}

// TextBlock is a paragraph of text with the source style name attached
// (used later to decide heading vs. body rendering).
type TextBlock struct {
	Text  string
	Style string
}

// TableBlock is a table as rows of cell text, in source order.
type TableBlock struct {
	Rows [][]string
}

// ImageBlock is a raster image embedded in the source document.
type ImageBlock struct {
	Data   []byte
	Name   string // source part name, e.g. "word/media/image1.png"
	Width  int
	Height int
}

// SlideBlock is the text content of one presentation slide, 1-indexed.
type SlideBlock struct {
	Index int
	Items []string // one entry per text-bearing shape, in shape order
}

func (TextBlock) isBlock()  {}
func (TableBlock) isBlock() {}
func (ImageBlock) isBlock() {}
func (SlideBlock) isBlock() {}

// Document is the normalized in-memory form of a non-PDF source.
type Document struct {
	Path   string
	Blocks []Block
}

// PDFPage is the extracted text of one PDF page. PDF extraction is text-only;
// it is used when a PDF source must be folded into a docx or pptx target.
type PDFPage struct {
	Number int
	Text   string
}
