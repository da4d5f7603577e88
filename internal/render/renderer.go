// Package render produces HTML previews of literate documents so users can
// proofread their configuration prose without opening the editor.
package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/iansherr/nvim-initmd/internal/runtimeconfig"
	"github.com/iansherr/nvim-initmd/pkg/interfaces"
)

// Renderer converts document Markdown into HTML. It is stateless, so a
// single instance can be shared across previews without locking.
type Renderer struct {
	cfg runtimeconfig.RenderConfig
}

func New(cfg runtimeconfig.RenderConfig) *Renderer {
	return &Renderer{cfg: cfg}
}

// Preview renders one document's body. The frontmatter title, when present,
// is emitted as a leading heading so the preview reads like the source file.
func (r *Renderer) Preview(doc *interfaces.Document) ([]byte, error) {
	engine := newEngine(r.cfg)

	var buf bytes.Buffer
	if title := strings.TrimSpace(doc.FrontMatter.Title); title != "" {
		buf.WriteString("<h1>" + title + "</h1>\n")
	}
	if err := engine.Convert(doc.Body, &buf); err != nil {
		return nil, fmt.Errorf("render preview %s: %w", doc.FilePath, err)
	}
	return buf.Bytes(), nil
}

// PreviewAll renders each document in order and concatenates the results,
// separated so file boundaries remain visible.
func (r *Renderer) PreviewAll(docs []*interfaces.Document) ([]byte, error) {
	var buf bytes.Buffer
	for i, doc := range docs {
		out, err := r.Preview(doc)
		if err != nil {
			return nil, err
		}
		if i > 0 {
			buf.WriteString("\n<hr/>\n")
		}
		buf.Write(out)
	}
	return buf.Bytes(), nil
}

func newEngine(cfg runtimeconfig.RenderConfig) goldmark.Markdown {
	exts := collectExtensions(cfg.Extensions)

	parserOptions := []parser.Option{
		parser.WithAutoHeadingID(),
	}

	rendererOptions := []renderer.Option{}
	if cfg.HardWraps {
		rendererOptions = append(rendererOptions, html.WithHardWraps())
	}
	if !cfg.SafeMode {
		rendererOptions = append(rendererOptions, html.WithUnsafe())
	}

	engineOptions := []goldmark.Option{
		goldmark.WithParserOptions(parserOptions...),
	}
	if len(rendererOptions) > 0 {
		engineOptions = append(engineOptions, goldmark.WithRendererOptions(rendererOptions...))
	}
	if len(exts) > 0 {
		engineOptions = append(engineOptions, goldmark.WithExtensions(exts...))
	}

	return goldmark.New(engineOptions...)
}

var extensionRegistry = map[string]goldmark.Extender{
	"gfm":           extension.GFM,
	"table":         extension.Table,
	"tables":        extension.Table,
	"strikethrough": extension.Strikethrough,
	"linkify":       extension.Linkify,
	"autolink":      extension.Linkify,
	"tasklist":      extension.TaskList,
	"definition":    extension.DefinitionList,
	"footnote":      extension.Footnote,
}

// collectExtensions maps configured names onto goldmark extenders; unknown
// names are ignored. With no names configured the GFM set is used, which
// matches how literate configs tend to be written.
func collectExtensions(names []string) []goldmark.Extender {
	if len(names) == 0 {
		return []goldmark.Extender{
			extension.GFM,
			extension.Linkify,
			extension.TaskList,
		}
	}

	var extenders []goldmark.Extender
	seen := map[string]struct{}{}
	for _, name := range names {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		if ext, ok := extensionRegistry[key]; ok {
			extenders = append(extenders, ext)
		}
	}
	return extenders
}
