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

// Examples for latex.go
package latex_test

import (
	"bytes"
	"fmt"
	"log"
	"strings"

	"akhil.cc/mdtex/gen/latex"
	"akhil.cc/mdtex/parser"
)

func ExampleGen() {
	src := `# Heading 1
This is a paragraph.
*something something Gopher...*
`
	doc := parser.MustParse(strings.NewReader(src))
	g := latex.Gen(doc.Events())
	var out bytes.Buffer
	g.Stdout = &out

	if err := g.Run(); err != nil {
		log.Fatal(err)
	}
	fmt.Print(out.String())
	// Output:
	// \chapter{Heading 1}
	//
	// This is a paragraph.
	// \emph{something something Gopher...}
}

func ExampleSection() {
	for level := 1; level <= 7; level++ {
		fmt.Println(level, latex.Section(level))
	}
	// Output:
	// 1 chapter
	// 2 section
	// 3 subsection
	// 4 subsubsection
	// 5 paragraph
	// 6 subparagraph
	// 7 subparagraph
}
