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

// Package book holds the book model handed to a renderer: the chapter tree,
// the book's configuration and the renderer's own configuration.
//
// A RenderContext is either decoded from the JSON a host documentation tool
// writes to a renderer's standard input, or loaded from a book directory
// containing book.yaml and src/SUMMARY.md.
package book // import "akhil.cc/mdtex/book"

import (
	"encoding/json"
	"fmt"
	"io"

	"akhil.cc/mdtex/gen"
	"gopkg.in/yaml.v3"
)

// RenderContext is everything a renderer needs to produce its output.
type RenderContext struct {
	Version     string `json:"version"`
	Root        string `json:"root"`
	Book        Book   `json:"book"`
	Config      Config `json:"config"`
	Destination string `json:"destination"`
}

// Book is the ordered tree of a book's items.
type Book struct {
	Sections Items `json:"sections"`
}

// UnmarshalJSON accepts both the "sections" and the "items" spelling of the
// top-level list.
func (b *Book) UnmarshalJSON(data []byte) error {
	var v struct {
		Sections Items `json:"sections"`
		Items    Items `json:"items"`
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	b.Sections = v.Sections
	if b.Sections == nil {
		b.Sections = v.Items
	}
	return nil
}

// Item is one entry of the book's outline.
//
//go:generate sumgen Item = *Chapter | Separator | PartTitle
type Item interface {
	item()
}

// Chapter is a page of the book.
type Chapter struct {
	Name    string `json:"name"`
	Content string `json:"content"`
	// Number is the section number, such as [2 1] for 2.1; nil for prefix,
	// suffix and draft chapters.
	Number   []int `json:"number"`
	SubItems Items `json:"sub_items"`
	// Path is the chapter's file relative to the source directory; nil for
	// draft chapters.
	Path        *string  `json:"path"`
	SourcePath  *string  `json:"source_path"`
	ParentNames []string `json:"parent_names"`
}

// Separator is a horizontal divider in the outline.
type Separator struct{}

// PartTitle begins a new part of the book.
type PartTitle string

func (*Chapter) item()  {}
func (Separator) item() {}
func (PartTitle) item() {}

// Items is a list of outline items, encoded as in
// [{"Chapter": {...}}, "Separator", {"PartTitle": "..."}].
type Items []Item

func (items *Items) UnmarshalJSON(data []byte) error {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return err
	}
	out := make(Items, 0, len(raws))
	for i, raw := range raws {
		it, err := decodeItem(raw)
		if err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
		out = append(out, it)
	}
	*items = out
	return nil
}

func decodeItem(raw json.RawMessage) (Item, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if s == "Separator" {
			return Separator{}, nil
		}
		return nil, fmt.Errorf("unknown item %q", s)
	}
	var v struct {
		Chapter   *Chapter `json:"Chapter"`
		PartTitle *string  `json:"PartTitle"`
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	switch {
	case v.Chapter != nil:
		return v.Chapter, nil
	case v.PartTitle != nil:
		return PartTitle(*v.PartTitle), nil
	}
	return nil, fmt.Errorf("unknown item %s", raw)
}

func (items Items) MarshalJSON() ([]byte, error) {
	out := make([]any, len(items))
	for i, it := range items {
		switch it := it.(type) {
		case *Chapter:
			out[i] = map[string]*Chapter{"Chapter": it}
		case Separator:
			out[i] = "Separator"
		case PartTitle:
			out[i] = map[string]string{"PartTitle": string(it)}
		default:
			return nil, fmt.Errorf("unknown item %T", it)
		}
	}
	return json.Marshal(out)
}

// Config is the book's configuration.
type Config struct {
	Book   BookConfig   `json:"book" yaml:"book"`
	Output OutputConfig `json:"output" yaml:"output"`
}

// BookConfig is the metadata section of the configuration.
type BookConfig struct {
	Title       string   `json:"title" yaml:"title"`
	Authors     []string `json:"authors" yaml:"authors"`
	Description string   `json:"description" yaml:"description"`
	Src         string   `json:"src" yaml:"src"`
	Language    string   `json:"language" yaml:"language"`
}

// SourceDir returns the source directory relative to the book root.
func (c BookConfig) SourceDir() string {
	if c.Src == "" {
		return "src"
	}
	return c.Src
}

// OutputConfig holds per-renderer tables; only the latex table is read.
type OutputConfig struct {
	Latex *RendererConfig `json:"latex" yaml:"latex"`
}

// RendererConfig is the output.latex table. Keys that are absent keep their
// defaults.
type RendererConfig struct {
	// Ignores lists chapter names left out of the output.
	Ignores []string `json:"ignores" yaml:"ignores"`

	Latex    bool `json:"latex" yaml:"latex"`
	PDF      bool `json:"pdf" yaml:"pdf"`
	Markdown bool `json:"markdown" yaml:"markdown"`

	// CustomTemplate is a template path relative to the book root.
	CustomTemplate string `json:"custom-template" yaml:"custom-template"`
	// Date is written verbatim into \date{}.
	Date string `json:"date" yaml:"date"`
	// PDFEngine is the command line that turns LaTeX on standard input
	// into a PDF in $outdir.
	PDFEngine     string `json:"pdf-engine" yaml:"pdf-engine"`
	ConvertImages bool   `json:"convert-images" yaml:"convert-images"`
}

// DefaultRendererConfig returns the configuration used when the book has
// no output.latex table.
func DefaultRendererConfig() RendererConfig {
	return RendererConfig{
		Latex:         true,
		Date:          `\today`,
		PDFEngine:     gen.DefaultEngine,
		ConvertImages: true,
	}
}

func (c *RendererConfig) UnmarshalJSON(data []byte) error {
	type plain RendererConfig
	p := plain(DefaultRendererConfig())
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*c = RendererConfig(p)
	return nil
}

func (c *RendererConfig) UnmarshalYAML(n *yaml.Node) error {
	type plain RendererConfig
	p := plain(DefaultRendererConfig())
	if err := n.Decode(&p); err != nil {
		return err
	}
	*c = RendererConfig(p)
	return nil
}

// Renderer returns the output.latex table, or the defaults when it is
// missing.
func (c Config) Renderer() RendererConfig {
	if c.Output.Latex == nil {
		return DefaultRendererConfig()
	}
	return *c.Output.Latex
}

// Decode reads a RenderContext encoded as JSON.
func Decode(r io.Reader) (*RenderContext, error) {
	var rc RenderContext
	if err := json.NewDecoder(r).Decode(&rc); err != nil {
		return nil, fmt.Errorf("decode render context: %w", err)
	}
	return &rc, nil
}
