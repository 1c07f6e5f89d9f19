package editor

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// md renders CommonMark plus strikethrough. Raw HTML in the source is
// dropped by goldmark's default renderer.
var md = goldmark.New(goldmark.WithExtensions(extension.Strikethrough))

// FromMarkdown converts pasted markdown into a cell fragment restricted to
// what the editor model can represent.
func FromMarkdown(src string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("editor: markdown: %w", err)
	}
	return Parse(buf.String()).HTML(), nil
}
