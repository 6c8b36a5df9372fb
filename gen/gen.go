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

// Package gen runs the external LaTeX engine that turns a generated
// document into a PDF. The engine command line is split according to the
// Bourne shell's word-splitting rules.
package gen // import "akhil.cc/mdtex/gen"

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	sq "github.com/kballard/go-shellquote"
)

// DefaultEngine reads the document on standard input and writes the PDF
// into $outdir.
const DefaultEngine = "tectonic --outdir $outdir -"

// EngineError reports a failed engine run along with everything the engine
// printed.
type EngineError struct {
	Command string
	Output  []byte
	Err     error
}

func (e *EngineError) Error() string {
	msg := fmt.Sprintf("pdf engine %q: %v", e.Command, e.Err)
	if out := strings.TrimSpace(string(e.Output)); out != "" {
		msg += "\n" + out
	}
	return msg
}

func (e *EngineError) Unwrap() error { return e.Err }

// Command holds the cancellation context, working directory and Stderr
// stream for an engine process.
type Command struct {
	Ctx context.Context
	// Dir is the engine's working directory; relative image paths in the
	// document are resolved against it.
	Dir string
	// Stderr, if set, receives a copy of the engine's output as it runs.
	Stderr io.Writer
}

// PDF runs the engine command line on the LaTeX document and returns the
// bytes of the PDF it produced. Occurrences of $outdir (or ${outdir}) in
// the command are replaced by a temporary directory where the engine must
// write exactly one .pdf file.
func (c *Command) PDF(command, latex string) ([]byte, error) {
	words, err := sq.Split(command)
	if err != nil {
		return nil, &EngineError{Command: command, Err: err}
	}
	if len(words) == 0 {
		return nil, &EngineError{Command: command, Err: fmt.Errorf("no valid commands: %q", command)}
	}
	outdir, err := os.MkdirTemp("", "mdtex-")
	if err != nil {
		return nil, &EngineError{Command: command, Err: err}
	}
	defer os.RemoveAll(outdir)
	for i, w := range words {
		words[i] = os.Expand(w, func(key string) string {
			if key == "outdir" {
				return outdir
			}
			return "$" + key
		})
	}
	var cmd *exec.Cmd
	if c.Ctx == nil {
		cmd = exec.Command(words[0], words[1:]...)
	} else {
		cmd = exec.CommandContext(c.Ctx, words[0], words[1:]...)
	}
	cmd.Dir = c.Dir
	cmd.Stdin = strings.NewReader(latex)
	var out bytes.Buffer
	var w io.Writer = &out
	if c.Stderr != nil {
		w = io.MultiWriter(&out, c.Stderr)
	}
	cmd.Stdout = w
	cmd.Stderr = w
	if err := cmd.Run(); err != nil {
		return nil, &EngineError{Command: command, Output: out.Bytes(), Err: err}
	}
	matches, err := filepath.Glob(filepath.Join(outdir, "*.pdf"))
	if err != nil {
		return nil, &EngineError{Command: command, Output: out.Bytes(), Err: err}
	}
	if len(matches) != 1 {
		return nil, &EngineError{Command: command, Output: out.Bytes(), Err: fmt.Errorf("want 1 pdf in output directory, found %d", len(matches))}
	}
	pdf, err := os.ReadFile(matches[0])
	if err != nil {
		return nil, &EngineError{Command: command, Output: out.Bytes(), Err: err}
	}
	return pdf, nil
}
