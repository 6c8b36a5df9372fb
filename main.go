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

// This CLI utility renders a book into LaTeX, PDF and flattened markdown.
//
// Run by a documentation tool, it reads the tool's render context as JSON
// from standard input. With --standalone it instead loads the book from
// book.yaml and src/SUMMARY.md under --root.
//
// Usage:
//   mdtex [flags]
//
// Flags:
//   -d, --dest         output directory, overriding the render context
//   -h, --help         help for mdtex
//   -r, --root         book root used with --standalone (default ".")
//   -s, --standalone   load the book from its root instead of standard input
//   -t, --timeout      timeout used to halt the PDF engine
//   -v, --verbose      log at debug level in a human readable format
package main

import (
	"context"
	"errors"
	"os"
	"time"

	"akhil.cc/mdtex/book"
	"akhil.cc/mdtex/render"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func prefix(msg string, err error) error {
	return errors.New(msg + err.Error())
}

type flags struct {
	standalone bool
	root       string
	dest       string
	timeout    time.Duration
	verbose    bool
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}

func run(cmd *cobra.Command, f *flags) error {
	log, err := newLogger(f.verbose)
	if err != nil {
		return prefix("(log) ", err)
	}
	defer log.Sync()

	var rc *book.RenderContext
	if f.standalone {
		rc, err = book.Load(f.root)
	} else {
		rc, err = book.Decode(cmd.InOrStdin())
	}
	if err != nil {
		return prefix("(book) ", err)
	}
	if f.dest != "" {
		rc.Destination = f.dest
	}
	ctx := context.Background()
	if f.timeout > -1 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}
	log.Debug("rendering book",
		zap.String("title", rc.Config.Book.Title),
		zap.String("root", rc.Root),
		zap.String("destination", rc.Destination))
	if err := render.Generate(ctx, rc, render.Options{Log: log, Stderr: cmd.ErrOrStderr()}); err != nil {
		return prefix("(render) ", err)
	}
	return nil
}

func newRootCmd() *cobra.Command {
	f := &flags{}
	rootCmd := &cobra.Command{
		Use:   "mdtex",
		Short: "LaTeX, PDF and markdown output for books",
		Long: `This command renders a book into a LaTeX document, and optionally
a PDF and a single markdown file, in its destination directory. Images
referenced by chapters are copied into images/ under the destination.

Unless --standalone is given, the book's render context is read as JSON
from standard input.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, f)
		},
	}
	// pflag includes the argument type when it unquotes its usage.
	// To prevent this behavior we prefix the usage with backquotes ``.
	fl := rootCmd.Flags()
	fl.BoolVarP(&f.standalone, "standalone", "s", false, "load the book from its root instead of standard input")
	fl.StringVarP(&f.root, "root", "r", ".", "``book root used with --standalone")
	fl.StringVarP(&f.dest, "dest", "d", "", "``output directory, overriding the render context")
	fl.DurationVarP(&f.timeout, "timeout", "t", -1, "``timeout used to halt the PDF engine")
	fl.BoolVarP(&f.verbose, "verbose", "v", false, "log at debug level in a human readable format")
	// Set string version of default value to be zero-value to prevent it from being printed by FlagUsages.
	fl.Lookup("timeout").DefValue = "0"
	return rootCmd
}

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		rootCmd.PrintErrln(err)
		os.Exit(1)
	}
}
