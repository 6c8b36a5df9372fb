// MIT License

// Copyright (c) 2018 Akhil Indurti

// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:

// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.

// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// Package render produces a book's LaTeX, PDF and flattened markdown
// outputs from a book.RenderContext.
package render // import "akhil.cc/mdtex/render"

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"akhil.cc/mdtex/asset"
	"akhil.cc/mdtex/book"
	"akhil.cc/mdtex/gen"
	"akhil.cc/mdtex/rewrite"
	"akhil.cc/mdtex/tmpl"
	"go.uber.org/zap"
)

// ConfigError reports an unusable book configuration.
type ConfigError struct {
	Key string
	Err error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %v", e.Key, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// TemplateError reports a template that could not be read or parsed.
type TemplateError struct {
	Path string // empty for the built-in template
	Err  error
}

func (e *TemplateError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("template: %v", e.Err)
	}
	return fmt.Sprintf("template %s: %v", e.Path, e.Err)
}

func (e *TemplateError) Unwrap() error { return e.Err }

// Options control a Generate call.
type Options struct {
	Log *zap.Logger
	// Stderr, if set, receives the PDF engine's output as it runs.
	Stderr io.Writer
}

type output struct {
	ext  string
	data []byte
}

var fileNamer = strings.NewReplacer("/", "-", `\`, "-")

// FileName returns the name of the output file for a book title and
// extension.
func FileName(title, ext string) string {
	return fileNamer.Replace(title) + ext
}

// Generate renders the outputs selected by the book's output.latex table
// into rc.Destination. Images are copied while chapters are rendered; the
// output files are written only once every selected output was built.
func Generate(ctx context.Context, rc *book.RenderContext, opts Options) error {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	cfg := rc.Config.Renderer()
	meta := tmpl.Meta{
		Title:   rc.Config.Book.Title,
		Authors: rc.Config.Book.Authors,
		Date:    cfg.Date,
	}
	if strings.TrimSpace(meta.Title) == "" {
		return &ConfigError{"book.title", tmpl.ErrNoTitle}
	}
	if cfg.PDF && strings.TrimSpace(cfg.PDFEngine) == "" {
		return &ConfigError{"output.latex.pdf-engine", fmt.Errorf("empty command")}
	}
	if !cfg.Latex && !cfg.PDF && !cfg.Markdown {
		log.Warn("no output selected")
		return nil
	}
	var t *tmpl.Template
	if cfg.Latex || cfg.PDF {
		var err error
		if t, err = loadTemplate(rc.Root, cfg.CustomTemplate); err != nil {
			return err
		}
	}

	src := filepath.Join(rc.Root, rc.Config.Book.SourceDir())
	walker := func(convert bool) *Walker {
		r := &asset.Resolver{SourceRoot: src, DestRoot: rc.Destination, Convert: convert, Log: log}
		return &Walker{Ignores: cfg.Ignores, Resolver: r, Log: log}
	}

	var outputs []output
	if cfg.Markdown {
		body, err := walker(false).Body(rc.Book.Sections, rewrite.FormatMarkdown)
		if err != nil {
			return err
		}
		outputs = append(outputs, output{".md", []byte(body)})
	}
	if cfg.Latex || cfg.PDF {
		body, err := walker(cfg.ConvertImages).Body(rc.Book.Sections, rewrite.FormatLaTeX)
		if err != nil {
			return err
		}
		doc, err := t.Compose(meta, body)
		if err != nil {
			return &ConfigError{"book", err}
		}
		if cfg.Latex {
			outputs = append(outputs, output{".tex", []byte(doc)})
		}
		if cfg.PDF {
			if err := os.MkdirAll(rc.Destination, 0755); err != nil {
				return err
			}
			log.Info("running pdf engine", zap.String("command", cfg.PDFEngine))
			cmd := &gen.Command{Ctx: ctx, Dir: rc.Destination, Stderr: opts.Stderr}
			pdf, err := cmd.PDF(cfg.PDFEngine, doc)
			if err != nil {
				return err
			}
			outputs = append(outputs, output{".pdf", pdf})
		}
	}

	if err := os.MkdirAll(rc.Destination, 0755); err != nil {
		return err
	}
	for _, o := range outputs {
		name := filepath.Join(rc.Destination, FileName(meta.Title, o.ext))
		if err := os.WriteFile(name, o.data, 0644); err != nil {
			return err
		}
		log.Info("wrote output", zap.String("file", name), zap.Int("bytes", len(o.data)))
	}
	return nil
}

func loadTemplate(root, custom string) (*tmpl.Template, error) {
	text := tmpl.Default
	var name string
	if custom != "" {
		name = filepath.Join(root, custom)
		b, err := os.ReadFile(name)
		if err != nil {
			return nil, &TemplateError{name, err}
		}
		text = string(b)
	}
	t, err := tmpl.Parse(text)
	if err != nil {
		return nil, &TemplateError{name, err}
	}
	return t, nil
}
