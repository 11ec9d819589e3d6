package markdown

import (
	"bytes"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
)

// Raw HTML in content is escaped; goldmark's html renderer is unsafe-off by default.
var (
	renderer     goldmark.Markdown
	rendererOnce sync.Once
)

func getRenderer() goldmark.Markdown {
	rendererOnce.Do(func() {
		renderer = goldmark.New(
			goldmark.WithExtensions(
				extension.GFM,
				extension.Typographer,
			),
			goldmark.WithParserOptions(
				parser.WithAutoHeadingID(),
			),
		)
	})
	return renderer
}

// Render converts markdown content to HTML. Empty input yields an empty string.
func Render(src string) (string, error) {
	if src == "" {
		return "", nil
	}
	var buf bytes.Buffer
	if err := getRenderer().Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
