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

// Package tmpl splices a rendered book body and its metadata into a LaTeX
// document template.
//
// A template is ordinary LaTeX. Every empty \title{}, \author{} and
// \date{} command is filled with the book's metadata, and the body is
// inserted right after the single occurrence of Marker.
package tmpl // import "akhil.cc/mdtex/tmpl"

import (
	_ "embed"
	"errors"
	"regexp"
	"strings"

	"akhil.cc/mdtex/gen/latex"
)

// Marker is the comment after which the body is inserted.
const Marker = "%% mdtex begin"

// Default is the template used when the book does not name its own.
//
//go:embed template.tex
var Default string

var (
	ErrNoMarker        = errors.New("template has no " + Marker + " marker")
	ErrMultipleMarkers = errors.New("template has more than one " + Marker + " marker")
	ErrNoTitle         = errors.New("book has no title")
)

// Meta is the document metadata substituted into a template.
type Meta struct {
	Title   string
	Authors []string
	Date    string // LaTeX, written as is; empty means \today
}

type kind int

const (
	literal kind = iota
	title
	author
	date
	body
)

type segment struct {
	kind kind
	text string
}

// Template is a parsed template.
type Template struct {
	segs []segment
}

var command = regexp.MustCompile(`\\(title|author|date)\s*\{\s*\}`)

// Parse splits text into literal runs, metadata slots and the body
// insertion point. Only empty \title{}, \author{} and \date{} commands
// become slots; commands with an argument are kept as written.
func Parse(text string) (*Template, error) {
	switch strings.Count(text, Marker) {
	case 0:
		return nil, ErrNoMarker
	case 1:
	default:
		return nil, ErrMultipleMarkers
	}
	t := new(Template)
	last := 0
	for _, loc := range command.FindAllStringSubmatchIndex(text, -1) {
		t.literal(text[last:loc[0]])
		switch text[loc[2]:loc[3]] {
		case "title":
			t.segs = append(t.segs, segment{kind: title})
		case "author":
			t.segs = append(t.segs, segment{kind: author})
		case "date":
			t.segs = append(t.segs, segment{kind: date})
		}
		last = loc[1]
	}
	t.literal(text[last:])
	return t, nil
}

// literal appends s, splitting it around the marker.
func (t *Template) literal(s string) {
	if i := strings.Index(s, Marker); i >= 0 {
		j := i + len(Marker)
		t.segs = append(t.segs, segment{literal, s[:j]}, segment{kind: body}, segment{literal, s[j:]})
		return
	}
	if s != "" {
		t.segs = append(t.segs, segment{literal, s})
	}
}

// Compose fills the template. Title and authors are escaped for LaTeX;
// authors are joined with \and.
func (t *Template) Compose(m Meta, content string) (string, error) {
	if strings.TrimSpace(m.Title) == "" {
		return "", ErrNoTitle
	}
	authors := make([]string, len(m.Authors))
	for i, a := range m.Authors {
		authors[i] = latex.Escape(a)
	}
	d := m.Date
	if d == "" {
		d = `\today`
	}
	var b strings.Builder
	for _, s := range t.segs {
		switch s.kind {
		case literal:
			b.WriteString(s.text)
		case title:
			b.WriteString(`\title{` + latex.Escape(m.Title) + `}`)
		case author:
			b.WriteString(`\author{` + strings.Join(authors, ` \and `) + `}`)
		case date:
			b.WriteString(`\date{` + d + `}`)
		case body:
			b.WriteString("\n" + content)
		}
	}
	return b.String(), nil
}

// Compose parses text and fills it in one step.
func Compose(text, title string, authors []string, date, content string) (string, error) {
	t, err := Parse(text)
	if err != nil {
		return "", err
	}
	return t.Compose(Meta{Title: title, Authors: authors, Date: date}, content)
}
