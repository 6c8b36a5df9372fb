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

// Package rewrite turns the markdown content of one chapter into body text
// for the book's output. Local image references are copied into the output
// tree and pointed at their copies, and headings are pushed down by the
// chapter's nesting depth.
package rewrite // import "akhil.cc/mdtex/rewrite"

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"akhil.cc/mdtex/ast"
	"akhil.cc/mdtex/asset"
	"akhil.cc/mdtex/gen/latex"
	"akhil.cc/mdtex/gen/markdown"
	"akhil.cc/mdtex/parser"
	"golang.org/x/net/html"
)

// Format selects the serialization of the rewritten chapter.
type Format int

const (
	FormatLaTeX Format = iota
	FormatMarkdown
)

func (f Format) String() string {
	switch f {
	case FormatLaTeX:
		return "latex"
	case FormatMarkdown:
		return "markdown"
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// Resolver maps an image reference found in a chapter stored in dir to the
// path written into the output. *asset.Resolver implements it.
type Resolver interface {
	Resolve(raw, dir string) (string, error)
}

// Options describe the chapter being rewritten.
type Options struct {
	Chapter  string // chapter name, used in errors
	Dir      string // slash-separated directory of the chapter's source file
	HasPath  bool   // false for chapters without a source file
	Level    int    // added to every heading level
	Format   Format
	Resolver Resolver
}

// ParseError reports chapter content that could not be parsed.
type ParseError struct {
	Chapter string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("chapter %q: parse: %v", e.Chapter, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ErrNoPath is wrapped in the asset error returned when a chapter without a
// source file references a local image.
var ErrNoPath = errors.New("chapter has no source file")

// Rewrite parses content and serializes it in opts.Format after resolving
// images and offsetting headings.
func Rewrite(content string, opts Options) (string, error) {
	doc, err := parser.Parse(strings.NewReader(content))
	if err != nil {
		return "", &ParseError{opts.Chapter, err}
	}
	m := &mapper{opts: opts, seen: make(map[string]string)}
	var out []byte
	switch opts.Format {
	case FormatLaTeX:
		var events []ast.Event
		if events, err = ast.Map(doc.Events(), m.event); err == nil {
			out, err = latex.Gen(ast.Values(events)).Output()
		}
	case FormatMarkdown:
		g := markdown.Gen(content)
		g.Level = opts.Level
		g.Image = m.resolve
		g.HTML = m.html
		out, err = g.Output()
	default:
		err = fmt.Errorf("unknown format %v", opts.Format)
	}
	if err != nil {
		return "", fmt.Errorf("chapter %q: %w", opts.Chapter, err)
	}
	return string(out), nil
}

type mapper struct {
	opts Options
	// Start and End of an image carry the same destination; resolve it once.
	seen map[string]string
}

func (m *mapper) event(e ast.Event) (ast.Event, error) {
	switch e := e.(type) {
	case ast.Start:
		tag, err := m.tag(e.Tag)
		return ast.Start{Tag: tag}, err
	case ast.End:
		tag, err := m.tag(e.Tag)
		return ast.End{Tag: tag}, err
	case ast.HTML:
		s, err := m.html(string(e))
		return ast.HTML(s), err
	case ast.InlineHTML:
		s, err := m.html(string(e))
		return ast.InlineHTML(s), err
	}
	return e, nil
}

func (m *mapper) tag(t ast.Tag) (ast.Tag, error) {
	switch t := t.(type) {
	case ast.Heading:
		t.Level += m.opts.Level
		return t, nil
	case ast.Image:
		dest, err := m.resolve(t.Dest)
		if err != nil {
			return t, err
		}
		t.Dest = dest
		return t, nil
	}
	return t, nil
}

func (m *mapper) resolve(raw string) (string, error) {
	if raw == "" || asset.IsRemote(raw) {
		return raw, nil
	}
	if dest, ok := m.seen[raw]; ok {
		return dest, nil
	}
	if !m.opts.HasPath {
		return "", &asset.Error{Source: raw, Err: ErrNoPath}
	}
	if m.opts.Resolver == nil {
		return "", &asset.Error{Source: raw, Err: errors.New("no image resolver")}
	}
	dest, err := m.opts.Resolver.Resolve(raw, m.opts.Dir)
	if err != nil {
		return "", err
	}
	m.seen[raw] = dest
	return dest, nil
}

// html rewrites the src attribute of every <img> tag in raw. All other
// tokens are kept byte for byte.
func (m *mapper) html(raw string) (string, error) {
	if !strings.Contains(strings.ToLower(raw), "<img") {
		return raw, nil
	}
	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(raw))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if err := z.Err(); err != io.EOF {
				return "", err
			}
			// The tokenizer holds back an unterminated tag.
			b.Write(z.Raw())
			return b.String(), nil
		}
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			b.Write(z.Raw())
			continue
		}
		rawTok := string(z.Raw())
		tok := z.Token()
		if tok.Data != "img" {
			b.WriteString(rawTok)
			continue
		}
		changed := false
		for i, a := range tok.Attr {
			if a.Namespace != "" || a.Key != "src" {
				continue
			}
			dest, err := m.resolve(a.Val)
			if err != nil {
				return "", err
			}
			if dest != a.Val {
				tok.Attr[i].Val = dest
				changed = true
			}
		}
		if changed {
			b.WriteString(tok.String())
		} else {
			b.WriteString(rawTok)
		}
	}
}
