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

package book

import (
	"fmt"
	"iter"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	gast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"
)

// ConfigFile and SummaryFile name the files Load reads.
const (
	ConfigFile  = "book.yaml"
	SummaryFile = "SUMMARY.md"
)

// Load reads the book stored under root: its configuration from book.yaml
// and its outline from SUMMARY.md in the source directory. Chapter contents
// are read from the files the outline links to. The destination is
// book/latex under root.
func Load(root string) (*RenderContext, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	rc := &RenderContext{
		Version:     "standalone",
		Root:        root,
		Destination: filepath.Join(root, "book", "latex"),
	}
	b, err := os.ReadFile(filepath.Join(root, ConfigFile))
	if err != nil {
		return nil, fmt.Errorf("load book: %w", err)
	}
	if err := yaml.Unmarshal(b, &rc.Config); err != nil {
		return nil, fmt.Errorf("load book: %s: %w", ConfigFile, err)
	}
	src := filepath.Join(root, rc.Config.Book.SourceDir())
	summary, err := os.ReadFile(filepath.Join(src, SummaryFile))
	if err != nil {
		return nil, fmt.Errorf("load book: %w", err)
	}
	items, err := ParseSummary(summary)
	if err != nil {
		return nil, fmt.Errorf("load book: %s: %w", SummaryFile, err)
	}
	if err := readContent(src, items); err != nil {
		return nil, fmt.Errorf("load book: %w", err)
	}
	rc.Book.Sections = items
	return rc, nil
}

func readContent(src string, items Items) error {
	for _, it := range items {
		ch, ok := it.(*Chapter)
		if !ok {
			continue
		}
		if ch.Path != nil {
			b, err := os.ReadFile(filepath.Join(src, filepath.FromSlash(*ch.Path)))
			if err != nil {
				return fmt.Errorf("chapter %q: %w", ch.Name, err)
			}
			ch.Content = string(b)
		}
		if err := readContent(src, ch.SubItems); err != nil {
			return err
		}
	}
	return nil
}

// ParseSummary builds the outline described by a SUMMARY.md file. Links
// outside lists are unnumbered prefix or suffix chapters, list items are
// numbered chapters nested as their lists are, thematic breaks are
// separators and headings after the first start new parts. A link with an
// empty target is a draft chapter with no path. Chapter contents are left
// empty.
func ParseSummary(src []byte) (Items, error) {
	doc := goldmark.New().Parser().Parse(text.NewReader(src))
	p := &summary{src: src}
	var items Items
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		switch n := n.(type) {
		case *gast.Heading:
			if !p.titled {
				p.titled = true
				continue
			}
			items = append(items, PartTitle(p.text(n)))
		case *gast.ThematicBreak:
			items = append(items, Separator{})
		case *gast.Paragraph:
			for l := range links(n) {
				ch, err := p.chapter(l, nil, nil)
				if err != nil {
					return nil, err
				}
				items = append(items, ch)
			}
		case *gast.List:
			sub, err := p.list(n, nil, nil)
			if err != nil {
				return nil, err
			}
			items = append(items, sub...)
		}
		// Anything before the first heading is part of the outline too.
		p.titled = true
	}
	return items, nil
}

type summary struct {
	src    []byte
	titled bool
	// top counts numbered top-level chapters across lists and parts.
	top int
}

func (p *summary) list(l *gast.List, number []int, parents []string) (Items, error) {
	var items Items
	i := 0
	for n := l.FirstChild(); n != nil; n = n.NextSibling() {
		li, ok := n.(*gast.ListItem)
		if !ok {
			continue
		}
		var link *gast.Link
		var nested *gast.List
		for c := li.FirstChild(); c != nil; c = c.NextSibling() {
			switch c := c.(type) {
			case *gast.List:
				if nested == nil {
					nested = c
				}
			default:
				if link == nil {
					for l := range links(c) {
						link = l
						break
					}
				}
			}
		}
		if link == nil {
			return nil, fmt.Errorf("list item %q is not a link", p.text(li))
		}
		var num []int
		if number == nil {
			p.top++
			num = []int{p.top}
		} else {
			i++
			num = append(append([]int(nil), number...), i)
		}
		ch, err := p.chapter(link, num, parents)
		if err != nil {
			return nil, err
		}
		if nested != nil {
			sub, err := p.list(nested, num, append(append([]string(nil), parents...), ch.Name))
			if err != nil {
				return nil, err
			}
			ch.SubItems = sub
		}
		items = append(items, ch)
	}
	return items, nil
}

func (p *summary) chapter(l *gast.Link, number []int, parents []string) (*Chapter, error) {
	ch := &Chapter{
		Name:        p.text(l),
		Number:      number,
		ParentNames: parents,
	}
	dest := string(l.Destination)
	if dest == "" {
		return ch, nil
	}
	if i := strings.IndexAny(dest, "?#"); i >= 0 {
		dest = dest[:i]
	}
	dest, err := url.PathUnescape(dest)
	if err != nil {
		return nil, fmt.Errorf("chapter %q: %w", ch.Name, err)
	}
	dest = path.Clean(strings.TrimPrefix(dest, "./"))
	if path.IsAbs(dest) || dest == ".." || strings.HasPrefix(dest, "../") {
		return nil, fmt.Errorf("chapter %q: path %q is outside the source directory", ch.Name, dest)
	}
	ch.Path = &dest
	source := dest
	ch.SourcePath = &source
	return ch, nil
}

// links yields the links found under n, in document order, without
// descending into them.
func links(n gast.Node) iter.Seq[*gast.Link] {
	return func(yield func(*gast.Link) bool) {
		gast.Walk(n, func(n gast.Node, entering bool) (gast.WalkStatus, error) {
			if !entering {
				return gast.WalkContinue, nil
			}
			if l, ok := n.(*gast.Link); ok {
				if !yield(l) {
					return gast.WalkStop, nil
				}
				return gast.WalkSkipChildren, nil
			}
			return gast.WalkContinue, nil
		})
	}
}

// text returns the plain text under n.
func (p *summary) text(n gast.Node) string {
	var b strings.Builder
	gast.Walk(n, func(n gast.Node, entering bool) (gast.WalkStatus, error) {
		if !entering {
			return gast.WalkContinue, nil
		}
		switch n := n.(type) {
		case *gast.Text:
			b.Write(n.Segment.Value(p.src))
			if n.SoftLineBreak() || n.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *gast.String:
			b.Write(n.Value)
		}
		return gast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}
