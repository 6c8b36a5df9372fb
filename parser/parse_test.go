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

// Tests for parse.go
package parser_test

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"akhil.cc/mdtex/ast"
	"akhil.cc/mdtex/parser"
	"github.com/sanity-io/litter"
)

type smallcase struct {
	in   string
	want []ast.Event
}

var litCfg = litter.Options{
	Compact:           true,
	StripPackageNames: false,
	HidePrivateFields: false,
	Separator:         " ",
}

func collect(t *testing.T, in string) []ast.Event {
	t.Helper()
	doc, err := parser.Parse(strings.NewReader(in))
	if err != nil {
		t.Fatalf("in %q: unexpected error %v", in, err)
	}
	var got []ast.Event
	for e := range doc.Events() {
		got = append(got, e)
	}
	return got
}

func runCases(t *testing.T, cases []smallcase) {
	t.Helper()
	for i, test := range cases {
		got := collect(t, test.in)
		if !reflect.DeepEqual(test.want, got) {
			t.Errorf("case %d, in %q,\nwant %s,\ngot %s", i, test.in, litCfg.Sdump(test.want), litCfg.Sdump(got))
		}
	}
}

var blockSmall = []smallcase{
	{"# Title\n\nSome *emph* and **strong**.\n", []ast.Event{
		ast.Start{Tag: ast.Heading{Level: 1}},
		ast.Text("Title"),
		ast.End{Tag: ast.Heading{Level: 1}},
		ast.Start{Tag: ast.Paragraph{}},
		ast.Text("Some "),
		ast.Start{Tag: ast.Emphasis{}},
		ast.Text("emph"),
		ast.End{Tag: ast.Emphasis{}},
		ast.Text(" and "),
		ast.Start{Tag: ast.Strong{}},
		ast.Text("strong"),
		ast.End{Tag: ast.Strong{}},
		ast.Text("."),
		ast.End{Tag: ast.Paragraph{}},
	}},
	{"- a\n- b\n", []ast.Event{
		ast.Start{Tag: ast.List{Marker: '-', Tight: true}},
		ast.Start{Tag: ast.Item{}},
		ast.Text("a"),
		ast.End{Tag: ast.Item{}},
		ast.Start{Tag: ast.Item{}},
		ast.Text("b"),
		ast.End{Tag: ast.Item{}},
		ast.End{Tag: ast.List{Marker: '-', Tight: true}},
	}},
	{"```go\nx := 1\n```\n", []ast.Event{
		ast.Start{Tag: ast.CodeBlock{Fenced: true, Info: "go"}},
		ast.Text("x := 1\n"),
		ast.End{Tag: ast.CodeBlock{Fenced: true, Info: "go"}},
	}},
	{"> quoted\n", []ast.Event{
		ast.Start{Tag: ast.BlockQuote{}},
		ast.Start{Tag: ast.Paragraph{}},
		ast.Text("quoted"),
		ast.End{Tag: ast.Paragraph{}},
		ast.End{Tag: ast.BlockQuote{}},
	}},
	{"a\n\n***\n\nb\n", []ast.Event{
		ast.Start{Tag: ast.Paragraph{}},
		ast.Text("a"),
		ast.End{Tag: ast.Paragraph{}},
		ast.Rule{},
		ast.Start{Tag: ast.Paragraph{}},
		ast.Text("b"),
		ast.End{Tag: ast.Paragraph{}},
	}},
}

func TestBlocks(t *testing.T) {
	runCases(t, blockSmall)
}

var inlineSmall = []smallcase{
	{"![alt text](./img.png \"T\")", []ast.Event{
		ast.Start{Tag: ast.Paragraph{}},
		ast.Start{Tag: ast.Image{Dest: "./img.png", Title: "T"}},
		ast.Text("alt text"),
		ast.End{Tag: ast.Image{Dest: "./img.png", Title: "T"}},
		ast.End{Tag: ast.Paragraph{}},
	}},
	{"[go](https://go.dev)", []ast.Event{
		ast.Start{Tag: ast.Paragraph{}},
		ast.Start{Tag: ast.Link{Dest: "https://go.dev"}},
		ast.Text("go"),
		ast.End{Tag: ast.Link{Dest: "https://go.dev"}},
		ast.End{Tag: ast.Paragraph{}},
	}},
	{"<https://go.dev>", []ast.Event{
		ast.Start{Tag: ast.Paragraph{}},
		ast.Start{Tag: ast.Link{Kind: ast.Auto, Dest: "https://go.dev"}},
		ast.Text("https://go.dev"),
		ast.End{Tag: ast.Link{Kind: ast.Auto, Dest: "https://go.dev"}},
		ast.End{Tag: ast.Paragraph{}},
	}},
	{"a\\*b &amp; c", []ast.Event{
		ast.Start{Tag: ast.Paragraph{}},
		ast.Text("a*b & c"),
		ast.End{Tag: ast.Paragraph{}},
	}},
	{"\\&copy; x &copy; y", []ast.Event{
		ast.Start{Tag: ast.Paragraph{}},
		ast.Text("&copy; x © y"),
		ast.End{Tag: ast.Paragraph{}},
	}},
	{"\\&#42; y &#42;", []ast.Event{
		ast.Start{Tag: ast.Paragraph{}},
		ast.Text("&#42; y *"),
		ast.End{Tag: ast.Paragraph{}},
	}},
	{"a \\\\&amp; b", []ast.Event{
		ast.Start{Tag: ast.Paragraph{}},
		ast.Text("a \\& b"),
		ast.End{Tag: ast.Paragraph{}},
	}},
	{"[l](a\\&amp;b.md \"x &amp; \\&amp;\")", []ast.Event{
		ast.Start{Tag: ast.Paragraph{}},
		ast.Start{Tag: ast.Link{Dest: "a&amp;b.md", Title: "x & &amp;"}},
		ast.Text("l"),
		ast.End{Tag: ast.Link{Dest: "a&amp;b.md", Title: "x & &amp;"}},
		ast.End{Tag: ast.Paragraph{}},
	}},
	{"![i](a&amp;b.png)", []ast.Event{
		ast.Start{Tag: ast.Paragraph{}},
		ast.Start{Tag: ast.Image{Dest: "a&b.png"}},
		ast.Text("i"),
		ast.End{Tag: ast.Image{Dest: "a&b.png"}},
		ast.End{Tag: ast.Paragraph{}},
	}},
	{"line one\nline two", []ast.Event{
		ast.Start{Tag: ast.Paragraph{}},
		ast.Text("line one"),
		ast.SoftBreak{},
		ast.Text("line two"),
		ast.End{Tag: ast.Paragraph{}},
	}},
	{"run `n >= 3` now", []ast.Event{
		ast.Start{Tag: ast.Paragraph{}},
		ast.Text("run "),
		ast.Code("n >= 3"),
		ast.Text(" now"),
		ast.End{Tag: ast.Paragraph{}},
	}},
	{"~~gone~~", []ast.Event{
		ast.Start{Tag: ast.Paragraph{}},
		ast.Start{Tag: ast.Strikethrough{}},
		ast.Text("gone"),
		ast.End{Tag: ast.Strikethrough{}},
		ast.End{Tag: ast.Paragraph{}},
	}},
}

func TestInline(t *testing.T) {
	runCases(t, inlineSmall)
}

func TestInvalidUTF8(t *testing.T) {
	_, err := parser.Parse(strings.NewReader("ok\n\xffbad"))
	if !errors.Is(err, parser.ErrInvalidUTF8) {
		t.Fatalf("want ErrInvalidUTF8, got %v", err)
	}
	if !strings.Contains(err.Error(), "line 2") {
		t.Errorf("error %q does not name the line", err)
	}
}

func TestRestartable(t *testing.T) {
	doc := parser.MustParse(strings.NewReader("# A\n\nb *c* d\n"))
	var first, second []ast.Event
	for e := range doc.Events() {
		first = append(first, e)
	}
	for e := range doc.Events() {
		second = append(second, e)
	}
	if len(first) == 0 || !reflect.DeepEqual(first, second) {
		t.Errorf("walks differ,\nfirst %s,\nsecond %s", litCfg.Sdump(first), litCfg.Sdump(second))
	}
	n := 0
	for range doc.Events() {
		n++
		if n == 2 {
			break
		}
	}
	if n != 2 {
		t.Errorf("early break: got %d events", n)
	}
}
