package rewrite

import (
	"bytes"
	"errors"
	"os"
	"path"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"akhil.cc/mdtex/ast"
	"akhil.cc/mdtex/asset"
	"akhil.cc/mdtex/parser"
	"github.com/sanity-io/litter"
)

type smallcase struct {
	in   string
	want string
}

// fakeResolver places images under images/<dir> without touching the disk.
type fakeResolver struct {
	calls []string
}

func (f *fakeResolver) Resolve(raw, dir string) (string, error) {
	f.calls = append(f.calls, raw)
	if strings.Contains(raw, "missing") {
		return "", &asset.Error{Source: raw, Err: os.ErrNotExist}
	}
	return path.Join("images", dir, strings.TrimPrefix(raw, "./")), nil
}

const graphics = `\includegraphics[width=\linewidth,height=0.8\textheight,keepaspectratio]`

var latexSmall = []smallcase{
	{"# Intro\n", "\\section{Intro}\n\n"},
	{"### Deep\n", "\\subsubsection{Deep}\n\n"},
	{"![a](./rel/path.png)\n",
		"\\begin{center}\n" + graphics + "{images/chapter/sub/rel/path.png}\n\\end{center}\n\n"},
	{"![a](https://example.com/a.png)\n", "\\href{https://example.com/a.png}{a}\n\n"},
	{"<img src=\"pic.png\" alt=\"p\">\n",
		"\\begin{center}\n" + graphics + "{images/chapter/sub/pic.png}\n\\end{center}\n\n"},
}

func TestRewriteLaTeX(t *testing.T) {
	for i, test := range latexSmall {
		got, err := Rewrite(test.in, Options{
			Chapter:  "Intro",
			Dir:      "chapter/sub",
			HasPath:  true,
			Level:    1,
			Format:   FormatLaTeX,
			Resolver: &fakeResolver{},
		})
		if err != nil {
			t.Fatalf("case %d: %v", i, err)
		}
		if got != test.want {
			t.Errorf("case %d, in %q,\nwant %q,\ngot  %q", i, test.in, test.want, got)
		}
	}
}

var markdownSmall = []smallcase{
	{"# Title\n\nSome *text* and `code`.\n", "## Title\n\nSome *text* and `code`.\n"},
	{"![alt](./img.png \"t\")\n", "![alt](images/ch/img.png \"t\")\n"},
	{"text <img src=\"img.png\"> more\n", "text <img src=\"images/ch/img.png\"> more\n"},
	{"<div>\n<img src='https://x.org/a.png'>\n</div>\n", "<div>\n<img src='https://x.org/a.png'>\n</div>\n"},
}

func TestRewriteMarkdown(t *testing.T) {
	for i, test := range markdownSmall {
		got, err := Rewrite(test.in, Options{
			Chapter:  "Title",
			Dir:      "ch",
			HasPath:  true,
			Level:    1,
			Format:   FormatMarkdown,
			Resolver: &fakeResolver{},
		})
		if err != nil {
			t.Fatalf("case %d: %v", i, err)
		}
		if want, have := collect(t, test.want), collect(t, got); !reflect.DeepEqual(want, have) {
			t.Errorf("case %d, in %q, out %q,\nwant %s\ngot  %s", i, test.in, got, litter.Sdump(want), litter.Sdump(have))
		}
	}
}

func TestRewriteNonImageRoundTrip(t *testing.T) {
	in := "# A\n\nParagraph with **bold** and a [link](other.md).\n\n- one\n- two\n\n```go\nx := 1\n```\n"
	got, err := Rewrite(in, Options{Chapter: "A", HasPath: true, Format: FormatMarkdown})
	if err != nil {
		t.Fatal(err)
	}
	if want, have := collect(t, in), collect(t, got); !reflect.DeepEqual(want, have) {
		t.Errorf("events changed:\nwant %s\ngot  %s", litter.Sdump(want), litter.Sdump(have))
	}
}

func collect(t *testing.T, src string) []ast.Event {
	t.Helper()
	doc, err := parser.Parse(strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	var evs []ast.Event
	for e := range doc.Events() {
		evs = append(evs, e)
	}
	return evs
}

func TestResolvedOnce(t *testing.T) {
	r := &fakeResolver{}
	_, err := Rewrite("![a](x.png) ![b](x.png)\n", Options{HasPath: true, Resolver: r})
	if err != nil {
		t.Fatal(err)
	}
	if len(r.calls) != 1 {
		t.Errorf("want one resolution, got %s", litter.Sdump(r.calls))
	}
}

func TestNoPath(t *testing.T) {
	opts := Options{Chapter: "Draft", Format: FormatLaTeX, Resolver: &fakeResolver{}}
	if _, err := Rewrite("# Draft\n\nno images here\n", opts); err != nil {
		t.Errorf("chapter without images: %v", err)
	}
	if _, err := Rewrite("![r](https://x.org/r.png)\n", opts); err != nil {
		t.Errorf("chapter with a remote image: %v", err)
	}
	_, err := Rewrite("![l](local.png)\n", opts)
	var ae *asset.Error
	if !errors.As(err, &ae) || !errors.Is(err, ErrNoPath) {
		t.Fatalf("want asset error wrapping ErrNoPath, got %v", err)
	}
	if !strings.Contains(err.Error(), `"Draft"`) {
		t.Errorf("error does not name the chapter: %v", err)
	}
}

func TestResolverError(t *testing.T) {
	_, err := Rewrite("![m](missing.png)\n", Options{Chapter: "C", HasPath: true, Resolver: &fakeResolver{}})
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("want not-exist error, got %v", err)
	}
}

func TestParseError(t *testing.T) {
	_, err := Rewrite("ok\n\xff\xfe\n", Options{Chapter: "Bad"})
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("want *ParseError, got %v", err)
	}
	if pe.Chapter != "Bad" {
		t.Errorf("want chapter Bad, got %q", pe.Chapter)
	}
}

func TestRewriteCopiesImage(t *testing.T) {
	src, dst := t.TempDir(), t.TempDir()
	dir := filepath.Join(src, "chapter", "sub", "rel")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	png := []byte("\x89PNG\r\n\x1a\nfake")
	if err := os.WriteFile(filepath.Join(dir, "path.png"), png, 0644); err != nil {
		t.Fatal(err)
	}
	r := &asset.Resolver{SourceRoot: src, DestRoot: dst}
	got, err := Rewrite("![x](./rel/path.png)\n", Options{
		Chapter: "Sub", Dir: "chapter/sub", HasPath: true, Format: FormatMarkdown, Resolver: r,
	})
	if err != nil {
		t.Fatal(err)
	}
	if want := "![x](images/chapter/sub/rel/path.png)\n"; got != want {
		t.Errorf("want %q, got %q", want, got)
	}
	copied, err := os.ReadFile(filepath.Join(dst, "images", "chapter", "sub", "rel", "path.png"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(copied, png) {
		t.Error("copy differs from source")
	}
}
