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

// Package markdown rewrites markdown source and prints it back in canonical
// CommonMark form, with the GitHub table, strikethrough and task list
// extensions.
//
// Before printing, heading levels can be shifted and image destinations
// (including the src of <img> tags in raw HTML) can be mapped. Headings
// shifted past level 6 are written as level 6 headings.
package markdown // import "akhil.cc/mdtex/gen/markdown"

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	md "rsc.io/markdown"
)

// Generator represents a non-reusable markdown output generator for a
// markdown source.
type Generator struct {
	// Stdout specifies the generator's standard output. If nil, output is
	// discarded.
	Stdout io.Writer
	// Level is added to the level of every heading.
	Level int
	// Image, if set, maps the destination of every image.
	Image func(dest string) (string, error)
	// HTML, if set, maps every raw HTML block and inline tag.
	HTML func(raw string) (string, error)
	src  string
}

// Gen returns the Generator struct to print the given markdown source.
func Gen(src string) *Generator {
	return &Generator{src: src}
}

var parser = md.Parser{
	Table:         true,
	Strikethrough: true,
	TaskListItems: true,
}

// Run parses the source, applies the mappings and writes the result to
// Stdout.
func (g *Generator) Run() error {
	w := g.Stdout
	if w == nil {
		w = io.Discard
	}
	doc := parser.Parse(g.src)
	if err := g.blocks(doc.Blocks); err != nil {
		return err
	}
	_, err := io.WriteString(w, md.ToMarkdown(doc))
	return err
}

// Output runs the generator and returns its standard output.
func (g *Generator) Output() ([]byte, error) {
	if g.Stdout != nil {
		return nil, fmt.Errorf("Stdout already set")
	}
	var stdout bytes.Buffer
	g.Stdout = &stdout
	err := g.Run()
	return stdout.Bytes(), err
}

func (g *Generator) blocks(bs []md.Block) error {
	for _, b := range bs {
		if err := g.block(b); err != nil {
			return err
		}
	}
	return nil
}

func (g *Generator) block(b md.Block) error {
	switch b := b.(type) {
	case *md.Heading:
		b.Level = min(max(b.Level+g.Level, 1), 6)
		return g.text(b.Text)
	case *md.Paragraph:
		return g.text(b.Text)
	case *md.Quote:
		return g.blocks(b.Blocks)
	case *md.List:
		return g.blocks(b.Items)
	case *md.Item:
		return g.blocks(b.Blocks)
	case *md.Table:
		for _, t := range b.Header {
			if err := g.text(t); err != nil {
				return err
			}
		}
		for _, row := range b.Rows {
			for _, t := range row {
				if err := g.text(t); err != nil {
					return err
				}
			}
		}
	case *md.HTMLBlock:
		if g.HTML == nil {
			return nil
		}
		s, err := g.HTML(strings.Join(b.Text, "\n"))
		if err != nil {
			return err
		}
		b.Text = strings.Split(s, "\n")
	}
	return nil
}

func (g *Generator) text(t *md.Text) error {
	if t == nil {
		return nil
	}
	return g.inlines(t.Inline)
}

func (g *Generator) inlines(in []md.Inline) error {
	for _, x := range in {
		var err error
		switch x := x.(type) {
		case *md.Image:
			if g.Image != nil {
				if x.URL, err = g.Image(x.URL); err != nil {
					return err
				}
			}
			err = g.inlines(x.Inner)
		case *md.Link:
			err = g.inlines(x.Inner)
		case *md.Strong:
			err = g.inlines(x.Inner)
		case *md.Emph:
			err = g.inlines(x.Inner)
		case *md.Del:
			err = g.inlines(x.Inner)
		case *md.HTMLTag:
			if g.HTML != nil {
				x.Text, err = g.HTML(x.Text)
			}
		}
		if err != nil {
			return err
		}
	}
	return nil
}
