package docpipe

import (
	"fmt"
	"os"
	"strings"
)

// ExtractText reads a plain text file as one blob. Bytes that do not form
// valid UTF-8 are dropped rather than treated as fatal.
func (p *Pipeline) ExtractText(path string) (*Document, error) {
	if err := p.checkSize(path); err != nil {
		return nil, &ExtractionError{File: path, Err: err}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ExtractionError{File: path, Err: fmt.Errorf("read: %w", err)}
	}
	text := strings.ToValidUTF8(string(data), "")

	return &Document{
		Path:   path,
		Blocks: []Block{TextBlock{Text: text}},
	}, nil
}

// NonBlankLines splits text into its non-blank lines, trimming trailing
// carriage returns. Both combiners and converters emit one paragraph per
// non-blank line of plain text input.
func NonBlankLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}
