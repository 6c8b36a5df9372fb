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

// Package latex converts a sequence of ast.Event values into LaTeX body text.
// Text is normalized to NFC and escaped. Raw HTML is reduced to its text,
// with <img> tags turned into graphics.
//
// Event tags correspond to the following LaTeX constructs:
// 	Paragraph                   blank-line separated text
// 	Heading 1..6                \chapter, \section, \subsection, \subsubsection, \paragraph, \subparagraph
// 	BlockQuote                  quote environment
// 	CodeBlock                   verbatim environment
// 	List (bullet)               itemize environment
// 	List (ordered)              enumerate environment
// 	Item                        \item
// 	Emphasis                    \emph{}
// 	Strong                      \textbf{}
// 	Strikethrough               \sout{} (ulem package)
// 	Link (with URL scheme)      \href{}{}
// 	Link (relative)             its text only
// 	Link (autolink)             \url{}
// 	Image (local)               \includegraphics (graphicx package)
// 	Image (remote)              \href{}{} around its alt text
// 	Table                       tabular environment
// 	Code                        \texttt{}
// 	Rule                        \rule
// 	TaskMarker                  $\square$, $\boxtimes$ (amssymb package)
//
// Headings deeper than 6 levels use \subparagraph.
package latex // import "akhil.cc/mdtex/gen/latex"

import (
	"bytes"
	"fmt"
	"io"
	"iter"
	"net/url"
	"strings"

	"akhil.cc/mdtex/ast"
	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"
)

var sections = [...]string{
	"chapter",
	"section",
	"subsection",
	"subsubsection",
	"paragraph",
	"subparagraph",
}

// Section returns the sectioning command name used for a heading level.
func Section(level int) string {
	return sections[min(max(level, 1), len(sections))-1]
}

var enumCounters = [...]string{"enumi", "enumii", "enumiii", "enumiv"}

var escaper = strings.NewReplacer(
	`\`, `\textbackslash{}`,
	`{`, `\{`,
	`}`, `\}`,
	`#`, `\#`,
	`$`, `\$`,
	`%`, `\%`,
	`&`, `\&`,
	`_`, `\_`,
	`^`, `\textasciicircum{}`,
	`~`, `\textasciitilde{}`,
	`<`, `\textless{}`,
	`>`, `\textgreater{}`,
	`|`, `\textbar{}`,
)

// Escape returns s in NFC form with LaTeX special characters escaped.
func Escape(s string) string {
	return escaper.Replace(norm.NFC.String(s))
}

var urlEscaper = strings.NewReplacer(`\`, `\\`, `#`, `\#`, `%`, `\%`, `{`, `\{`, `}`, `\}`)

// EscapeURL escapes u for use as the URL argument of \href or \url.
func EscapeURL(u string) string {
	return urlEscaper.Replace(u)
}

var pathEscaper = strings.NewReplacer(`#`, `\#`, `%`, `\%`, `{`, ``, `}`, ``)

// Graphics returns the directive that includes the image at path.
func Graphics(path string) string {
	return `\includegraphics[width=\linewidth,height=0.8\textheight,keepaspectratio]{` + pathEscaper.Replace(path) + `}`
}

// IsURL reports whether dest carries a URL scheme, as opposed to pointing
// at another chapter or an anchor of this one.
func IsURL(dest string) bool {
	u, err := url.Parse(dest)
	return err == nil && len(u.Scheme) > 1
}

// Generator represents a non-reusable LaTeX output generator for a
// sequence of events.
type Generator struct {
	// Stdout specifies the generator's standard output. If nil, output is
	// discarded.
	Stdout io.Writer
	events iter.Seq[ast.Event]
}

// Gen returns the Generator struct to convert the given events into LaTeX.
func Gen(events iter.Seq[ast.Event]) *Generator {
	return &Generator{events: events}
}

// Run converts the events and writes the result to Stdout.
func (g *Generator) Run() error {
	w := g.Stdout
	if w == nil {
		w = io.Discard
	}
	st := &state{}
	for e := range g.events {
		st.event(e)
	}
	_, err := st.out.WriteTo(w)
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

type state struct {
	out bytes.Buffer

	verbatim bool
	heading  bool
	autolink bool
	alt      *strings.Builder
	images   int
	links    []bool // whether each open link wrote \href
	enums    int
	table    bool
	cell     int
	head     bool
}

func (s *state) write(str string) {
	if s.alt != nil {
		return
	}
	s.out.WriteString(str)
}

// block ends the current line and separates what follows by a blank line,
// unless it directly follows the opening of an environment or item.
func (s *state) block() {
	b := s.out.Bytes()
	if len(b) == 0 || bytes.HasSuffix(b, []byte(`\item `)) || bytes.HasSuffix(b, []byte("\n\n")) {
		return
	}
	if b[len(b)-1] != '\n' {
		s.out.WriteString("\n\n")
		return
	}
	line := b[bytes.LastIndexByte(b[:len(b)-1], '\n')+1:]
	if bytes.HasPrefix(line, []byte(`\begin{`)) || bytes.HasPrefix(line, []byte(`\setcounter{`)) || bytes.Equal(line, []byte("\\hline\n")) {
		return
	}
	s.out.WriteByte('\n')
}

func (s *state) newline() {
	if b := s.out.Bytes(); len(b) > 0 && b[len(b)-1] != '\n' {
		s.out.WriteByte('\n')
	}
}

func (s *state) event(e ast.Event) {
	switch t := e.(type) {
	case ast.Start:
		s.start(t.Tag)
	case ast.End:
		s.end(t.Tag)
	case ast.Text:
		switch {
		case s.verbatim:
			s.out.WriteString(strings.ReplaceAll(string(t), `\end{verbatim}`, `\end {verbatim}`))
		case s.alt != nil:
			s.alt.WriteString(string(t))
		case s.autolink:
		default:
			s.write(Escape(string(t)))
		}
	case ast.Code:
		if s.alt != nil {
			s.alt.WriteString(string(t))
			return
		}
		s.write(`\texttt{` + Escape(string(t)) + `}`)
	case ast.SoftBreak:
		if s.alt != nil {
			s.alt.WriteByte(' ')
			return
		}
		s.write("\n")
	case ast.HardBreak:
		if s.alt != nil {
			s.alt.WriteByte(' ')
			return
		}
		if s.heading {
			s.write(" ")
		} else {
			s.write("\\\\\n")
		}
	case ast.Rule:
		s.block()
		s.write("\\noindent\\rule{\\linewidth}{0.4pt}\n\n")
	case ast.TaskMarker:
		if t {
			s.write(`$\boxtimes$ `)
		} else {
			s.write(`$\square$ `)
		}
	case ast.HTML:
		s.block()
		s.html(string(t))
		s.block()
	case ast.InlineHTML:
		s.html(string(t))
	}
}

func (s *state) start(tag ast.Tag) {
	switch t := tag.(type) {
	case ast.Paragraph:
		s.block()
	case ast.Heading:
		s.block()
		s.heading = true
		s.write(`\` + Section(t.Level) + `{`)
	case ast.BlockQuote:
		s.block()
		s.write("\\begin{quote}\n")
	case ast.CodeBlock:
		s.block()
		s.write("\\begin{verbatim}\n")
		s.verbatim = true
	case ast.List:
		s.block()
		if !t.Ordered {
			s.write("\\begin{itemize}\n")
			return
		}
		s.write("\\begin{enumerate}\n")
		if t.Start != 1 && s.enums < len(enumCounters) {
			fmt.Fprintf(&s.out, "\\setcounter{%s}{%d}\n", enumCounters[s.enums], t.Start-1)
		}
		s.enums++
	case ast.Item:
		s.newline()
		s.write(`\item `)
	case ast.Emphasis:
		s.write(`\emph{`)
	case ast.Strong:
		s.write(`\textbf{`)
	case ast.Strikethrough:
		s.write(`\sout{`)
	case ast.Link:
		switch {
		case t.Kind == ast.Auto:
			s.write(`\url{` + EscapeURL(t.Dest) + `}`)
			s.autolink = true
			s.links = append(s.links, false)
		case t.Kind == ast.Email || IsURL(t.Dest):
			s.write(`\href{` + EscapeURL(t.Dest) + `}{`)
			s.links = append(s.links, true)
		default:
			s.links = append(s.links, false)
		}
	case ast.Image:
		s.images++
		if s.images == 1 {
			s.alt = &strings.Builder{}
		}
	case ast.Table:
		s.block()
		s.table = true
		var cols strings.Builder
		cols.WriteByte('|')
		for _, a := range t.Align {
			switch a {
			case ast.AlignCenter:
				cols.WriteString("c|")
			case ast.AlignRight:
				cols.WriteString("r|")
			default:
				cols.WriteString("l|")
			}
		}
		s.write("\\begin{center}\n\\begin{tabular}{" + cols.String() + "}\n\\hline\n")
	case ast.TableHead:
		s.head = true
		s.cell = 0
	case ast.TableRow:
		s.cell = 0
	case ast.TableCell:
		if s.cell > 0 {
			s.write(" & ")
		}
		if s.head {
			s.write(`\textbf{`)
		}
	}
}

func (s *state) end(tag ast.Tag) {
	switch t := tag.(type) {
	case ast.Paragraph:
		s.block()
	case ast.Heading:
		s.heading = false
		s.write("}\n\n")
	case ast.BlockQuote:
		s.newline()
		s.write("\\end{quote}\n\n")
	case ast.CodeBlock:
		s.verbatim = false
		s.newline()
		s.write("\\end{verbatim}\n\n")
	case ast.List:
		s.newline()
		if t.Ordered {
			s.enums--
			s.write("\\end{enumerate}\n\n")
		} else {
			s.write("\\end{itemize}\n\n")
		}
	case ast.Item:
		s.newline()
	case ast.Emphasis, ast.Strong, ast.Strikethrough:
		s.write(`}`)
	case ast.Link:
		s.autolink = false
		if n := len(s.links); n > 0 {
			if s.links[n-1] {
				s.write(`}`)
			}
			s.links = s.links[:n-1]
		}
	case ast.Image:
		s.images--
		if s.images > 0 {
			return
		}
		alt := s.alt.String()
		s.alt = nil
		s.image(t.Dest, alt)
	case ast.Table:
		s.table = false
		s.write("\\end{tabular}\n\\end{center}\n\n")
	case ast.TableHead:
		s.head = false
		s.write(" \\\\\n\\hline\n")
	case ast.TableRow:
		s.write(" \\\\\n\\hline\n")
	case ast.TableCell:
		if s.head {
			s.write(`}`)
		}
		s.cell++
	}
}

func (s *state) image(dest, alt string) {
	if IsURL(dest) || strings.HasPrefix(dest, "//") {
		s.write(`\href{` + EscapeURL(dest) + `}{` + Escape(alt) + `}`)
		return
	}
	if s.table || s.heading || len(s.links) > 0 {
		s.write(Graphics(dest))
		return
	}
	s.newline()
	s.write("\\begin{center}\n" + Graphics(dest) + "\n\\end{center}\n")
}

// html writes the text content of a raw HTML fragment. Images become
// graphics, line breaks become newlines; all other markup is dropped.
func (s *state) html(raw string) {
	z := html.NewTokenizer(strings.NewReader(raw))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return
		case html.TextToken:
			txt := string(z.Text())
			if s.alt != nil {
				s.alt.WriteString(txt)
			} else {
				s.write(Escape(txt))
			}
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			switch tok.Data {
			case "img":
				for _, a := range tok.Attr {
					if a.Key == "src" {
						var alt string
						for _, b := range tok.Attr {
							if b.Key == "alt" {
								alt = b.Val
							}
						}
						s.image(a.Val, alt)
					}
				}
			case "br":
				s.write("\n")
			}
		}
	}
}
