// Package markdown renders article bodies to HTML. The stored markdown is the
// source of truth; HTML is derived on every read.
package markdown

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/renderer/html"
)

// Renderer converts CommonMark to HTML, turning single newlines into <br>.
// Raw HTML in the source is omitted from the output.
type Renderer struct {
	md goldmark.Markdown
}

func New() *Renderer {
	return &Renderer{
		md: goldmark.New(
			goldmark.WithRendererOptions(html.WithHardWraps()),
		),
	}
}

func (r *Renderer) Render(src string) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
