package ui

import (
	"html/template"
	"io/fs"
	"os"

	"afpdash/internal/errors"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// loadIntro renders the dashboard header from markdown. path overrides the
// embedded intro.md. Raw HTML in the source is dropped.
func loadIntro(assets fs.FS, path string) (template.HTML, error) {
	var (
		source []byte
		err    error
	)
	if path != "" {
		source, err = os.ReadFile(path)
	} else {
		source, err = fs.ReadFile(assets, "intro.md")
	}
	if err != nil {
		return "", errors.WithCode(errors.CodeConfigInvalid, errors.Wrapf(err, "failed to read intro %q", path))
	}
	return renderMarkdown(source), nil
}

func renderMarkdown(source []byte) template.HTML {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.HrefTargetBlank | html.SkipHTML,
	})
	return template.HTML(markdown.ToHTML(source, p, renderer))
}
