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

package render

import (
	"path"
	"slices"
	"strings"

	"akhil.cc/mdtex/book"
	"akhil.cc/mdtex/gen/latex"
	"akhil.cc/mdtex/rewrite"
	"go.uber.org/zap"
)

// Walker renders the chapters of a book, in order, into one body.
type Walker struct {
	// Ignores names chapters to leave out. Their sub-chapters are still
	// rendered unless they are ignored too.
	Ignores  []string
	Resolver rewrite.Resolver
	Log      *zap.Logger
}

// Body rewrites every chapter of items depth first. Headings of a chapter
// nested n levels deep are pushed down by n.
func (w *Walker) Body(items book.Items, format rewrite.Format) (string, error) {
	var b strings.Builder
	if err := w.walk(&b, items, 0, format); err != nil {
		return "", err
	}
	return b.String(), nil
}

func (w *Walker) walk(b *strings.Builder, items book.Items, level int, format rewrite.Format) error {
	for _, it := range items {
		switch it := it.(type) {
		case *book.Chapter:
			if slices.Contains(w.Ignores, it.Name) {
				w.logger().Info("skipping ignored chapter", zap.String("chapter", it.Name))
			} else {
				out, err := rewrite.Rewrite(it.Content, w.options(it, level, format))
				if err != nil {
					return err
				}
				b.WriteString(out)
				b.WriteByte('\n')
			}
			if err := w.walk(b, it.SubItems, level+1, format); err != nil {
				return err
			}
		case book.PartTitle:
			if format == rewrite.FormatLaTeX {
				b.WriteString(`\part{` + latex.Escape(string(it)) + "}\n\n")
			}
		}
	}
	return nil
}

func (w *Walker) options(ch *book.Chapter, level int, format rewrite.Format) rewrite.Options {
	opts := rewrite.Options{
		Chapter:  ch.Name,
		Level:    level,
		Format:   format,
		Resolver: w.Resolver,
	}
	if ch.Path != nil {
		opts.HasPath = true
		if dir := path.Dir(*ch.Path); dir != "." {
			opts.Dir = dir
		}
	}
	return opts
}

func (w *Walker) logger() *zap.Logger {
	if w.Log == nil {
		return zap.NewNop()
	}
	return w.Log
}
