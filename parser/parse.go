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

// Package parser parses CommonMark source, with the GitHub table,
// strikethrough and task list extensions, into a sequence of ast.Event
// values. It takes in an io.Reader as input and outputs a *Document.
//
// Events are produced lazily from the parsed tree, so a Document can be
// walked any number of times. Adjacent text runs are merged into a single
// ast.Text, and backslash escapes and entity references are resolved.
//
// Block nodes correspond to the following event tags:
//
//      Paragraph                   ast.Paragraph
//      ATX and setext heading      ast.Heading
//      Fenced and indented code    ast.CodeBlock
//      Block quote                 ast.BlockQuote
//      Bullet and ordered list     ast.List, ast.Item
//      Table                       ast.Table, ast.TableHead, ast.TableRow, ast.TableCell
//      Thematic break              ast.Rule (leaf)
//      HTML block                  ast.HTML (leaf)
//
// Inline nodes correspond to:
//
//      Emphasis                    ast.Emphasis, ast.Strong
//      Strikethrough               ast.Strikethrough
//      Link and autolink           ast.Link
//      Image                       ast.Image
//      Code span                   ast.Code (leaf)
//      Raw HTML                    ast.InlineHTML (leaf)
//      Task list checkbox          ast.TaskMarker (leaf)
//
// Text inside a tight list item is not wrapped in a paragraph.
package parser // import "akhil.cc/mdtex/parser"

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"iter"
	"regexp"
	"strings"
	"unicode/utf8"

	"akhil.cc/mdtex/ast"
	"github.com/yuin/goldmark"
	gast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// ErrInvalidUTF8 is returned when the source is not valid UTF-8.
var ErrInvalidUTF8 = errors.New("invalid UTF-8")

var md = goldmark.New(
	goldmark.WithExtensions(
		extension.Table,
		extension.Strikethrough,
		extension.TaskList,
	),
)

// Document is a parsed markdown source.
type Document struct {
	root gast.Node
	src  []byte
}

// MustParse is like Parse but panics if the source cannot be parsed.
func MustParse(src io.Reader) *Document {
	d, err := Parse(src)
	if err != nil {
		panic("Parse error: " + err.Error())
	}
	return d
}

// Parse parses the source and if successful, returns its corresponding document.
// A generator can be used to transform the document's events into another format.
func Parse(src io.Reader) (*Document, error) {
	b, err := io.ReadAll(src)
	if err != nil {
		return nil, err
	}
	return ParseBytes(b)
}

// ParseBytes is like Parse but reads the source from b.
func ParseBytes(b []byte) (*Document, error) {
	if !utf8.Valid(b) {
		off := 0
		for off < len(b) {
			r, n := utf8.DecodeRune(b[off:])
			if r == utf8.RuneError && n <= 1 {
				break
			}
			off += n
		}
		line := bytes.Count(b[:off], []byte{'\n'}) + 1
		return nil, fmt.Errorf("line %d, byte offset %d: %w", line, off, ErrInvalidUTF8)
	}
	root := md.Parser().Parse(text.NewReader(b))
	return &Document{root: root, src: b}, nil
}

// Events returns the document's events in document order.
func (d *Document) Events() iter.Seq[ast.Event] {
	return func(yield func(ast.Event) bool) {
		w := &walker{src: d.src, yield: yield}
		gast.Walk(d.root, w.visit)
		w.flush()
	}
}

type walker struct {
	src     []byte
	yield   func(ast.Event) bool
	text    strings.Builder
	pending bool
	stopped bool
}

func (w *walker) flush() {
	if !w.pending || w.stopped {
		return
	}
	w.pending = false
	s := w.text.String()
	w.text.Reset()
	if !w.yield(ast.Text(s)) {
		w.stopped = true
	}
}

func (w *walker) emit(e ast.Event) {
	w.flush()
	if w.stopped {
		return
	}
	if !w.yield(e) {
		w.stopped = true
	}
}

func (w *walker) status(s gast.WalkStatus) (gast.WalkStatus, error) {
	if w.stopped {
		return gast.WalkStop, nil
	}
	return s, nil
}

func (w *walker) tag(t ast.Tag, entering bool) (gast.WalkStatus, error) {
	if entering {
		w.emit(ast.Start{Tag: t})
	} else {
		w.emit(ast.End{Tag: t})
	}
	return w.status(gast.WalkContinue)
}

// leaf emits a container whose whole content is a single text run.
func (w *walker) leaf(t ast.Tag, body string) (gast.WalkStatus, error) {
	w.emit(ast.Start{Tag: t})
	if body != "" {
		w.emit(ast.Text(body))
	}
	w.emit(ast.End{Tag: t})
	return w.status(gast.WalkSkipChildren)
}

func (w *walker) visit(n gast.Node, entering bool) (gast.WalkStatus, error) {
	switch n := n.(type) {
	case *gast.Document, *gast.TextBlock:
		return w.status(gast.WalkContinue)
	case *gast.Paragraph:
		return w.tag(ast.Paragraph{}, entering)
	case *gast.Heading:
		return w.tag(ast.Heading{Level: n.Level}, entering)
	case *gast.Blockquote:
		return w.tag(ast.BlockQuote{}, entering)
	case *gast.List:
		start := n.Start
		if !n.IsOrdered() {
			start = 0
		}
		return w.tag(ast.List{Ordered: n.IsOrdered(), Start: start, Marker: n.Marker, Tight: n.IsTight}, entering)
	case *gast.ListItem:
		return w.tag(ast.Item{}, entering)
	case *gast.ThematicBreak:
		if entering {
			w.emit(ast.Rule{})
		}
		return w.status(gast.WalkSkipChildren)
	case *gast.CodeBlock:
		if !entering {
			return w.status(gast.WalkContinue)
		}
		return w.leaf(ast.CodeBlock{}, w.lines(n.Lines()))
	case *gast.FencedCodeBlock:
		if !entering {
			return w.status(gast.WalkContinue)
		}
		var info string
		if n.Info != nil {
			info = string(n.Info.Segment.Value(w.src))
		}
		return w.leaf(ast.CodeBlock{Fenced: true, Info: info}, w.lines(n.Lines()))
	case *gast.HTMLBlock:
		if entering {
			raw := w.lines(n.Lines())
			if n.HasClosure() {
				raw += string(n.ClosureLine.Value(w.src))
			}
			w.emit(ast.HTML(raw))
		}
		return w.status(gast.WalkSkipChildren)
	case *gast.Text:
		if entering {
			w.text.Write(unescape(n.Segment.Value(w.src)))
			w.pending = true
			if n.HardLineBreak() {
				w.emit(ast.HardBreak{})
			} else if n.SoftLineBreak() {
				w.emit(ast.SoftBreak{})
			}
		}
		return w.status(gast.WalkContinue)
	case *gast.String:
		if entering {
			w.text.Write(n.Value)
			w.pending = true
		}
		return w.status(gast.WalkContinue)
	case *gast.Emphasis:
		if n.Level >= 2 {
			return w.tag(ast.Strong{}, entering)
		}
		return w.tag(ast.Emphasis{}, entering)
	case *gast.CodeSpan:
		if entering {
			w.emit(ast.Code(w.codeSpan(n)))
		}
		return w.status(gast.WalkSkipChildren)
	case *gast.Link:
		return w.tag(ast.Link{
			Kind:  ast.Inline,
			Dest:  string(unescape(n.Destination)),
			Title: string(unescape(n.Title)),
		}, entering)
	case *gast.Image:
		return w.tag(ast.Image{
			Dest:  string(unescape(n.Destination)),
			Title: string(unescape(n.Title)),
		}, entering)
	case *gast.AutoLink:
		if !entering {
			return w.status(gast.WalkContinue)
		}
		kind := ast.Auto
		if n.AutoLinkType == gast.AutoLinkEmail {
			kind = ast.Email
		}
		return w.leaf(ast.Link{Kind: kind, Dest: string(n.URL(w.src))}, string(n.Label(w.src)))
	case *gast.RawHTML:
		if entering {
			var b strings.Builder
			for i := 0; i < n.Segments.Len(); i++ {
				seg := n.Segments.At(i)
				b.Write(seg.Value(w.src))
			}
			w.emit(ast.InlineHTML(b.String()))
		}
		return w.status(gast.WalkSkipChildren)
	case *east.Strikethrough:
		return w.tag(ast.Strikethrough{}, entering)
	case *east.Table:
		align := make([]ast.Alignment, len(n.Alignments))
		for i, a := range n.Alignments {
			align[i] = alignment(a)
		}
		return w.tag(ast.Table{Align: align}, entering)
	case *east.TableHeader:
		return w.tag(ast.TableHead{}, entering)
	case *east.TableRow:
		return w.tag(ast.TableRow{}, entering)
	case *east.TableCell:
		return w.tag(ast.TableCell{Align: alignment(n.Alignment)}, entering)
	case *east.TaskCheckBox:
		if entering {
			w.emit(ast.TaskMarker(n.IsChecked))
		}
		return w.status(gast.WalkSkipChildren)
	}
	// Unknown nodes contribute their children only.
	return w.status(gast.WalkContinue)
}

func (w *walker) lines(l *text.Segments) string {
	var b strings.Builder
	for i := 0; i < l.Len(); i++ {
		seg := l.At(i)
		b.Write(seg.Value(w.src))
	}
	return b.String()
}

func (w *walker) codeSpan(n *gast.CodeSpan) string {
	var b strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		var v []byte
		switch t := c.(type) {
		case *gast.Text:
			v = t.Segment.Value(w.src)
		case *gast.String:
			v = t.Value
		default:
			continue
		}
		if bytes.HasSuffix(v, []byte{'\n'}) {
			b.Write(v[:len(v)-1])
			b.WriteByte(' ')
		} else {
			b.Write(v)
		}
	}
	return b.String()
}

var reference = regexp.MustCompile(`^&(?:#[0-9]{1,7}|#[xX][0-9a-fA-F]{1,6}|[A-Za-z][A-Za-z0-9]{1,31});`)

// unescape drops backslashes before punctuation and resolves entity and
// numeric references in one pass, so an escaped & starts no reference.
func unescape(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, 0, len(b))
	for i := 0; i < len(b); {
		switch c := b[i]; {
		case c == '\\' && i+1 < len(b) && util.IsPunct(b[i+1]):
			out = append(out, b[i+1])
			i += 2
		case c == '&':
			if ref := reference.Find(b[i:]); ref != nil {
				out = append(out, util.ResolveEntityNames(util.ResolveNumericReferences(ref))...)
				i += len(ref)
				continue
			}
			fallthrough
		default:
			out = append(out, c)
			i++
		}
	}
	return out
}

func alignment(a east.Alignment) ast.Alignment {
	switch a {
	case east.AlignLeft:
		return ast.AlignLeft
	case east.AlignCenter:
		return ast.AlignCenter
	case east.AlignRight:
		return ast.AlignRight
	}
	return ast.AlignNone
}
