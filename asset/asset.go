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

// Package asset maps image references found in a chapter onto the output
// tree and copies the referenced files there.
//
// An image written as ./rel/path.png in a chapter stored under chapter/sub
// is copied from <source root>/chapter/sub/rel/path.png to
// <destination>/images/chapter/sub/rel/path.png, and the rewritten document
// refers to it as images/chapter/sub/rel/path.png. Namespacing by chapter
// directory keeps same-named images of different chapters apart.
package asset // import "akhil.cc/mdtex/asset"

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Dir is the directory, relative to the destination, that holds copied images.
const Dir = "images"

// Formats LaTeX engines cannot include directly. With Resolver.Convert set
// these are re-encoded as PNG.
var convertible = map[string]bool{
	".webp": true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
	".gif":  true,
}

// Asset is a resolved image reference.
type Asset struct {
	Raw    string // as written in the chapter
	Source string // file to copy
	Embed  string // slash-separated path written into the document
	Target string // file written under the destination
}

// Error reports a failure to copy an image into the output tree.
type Error struct {
	Source string
	Target string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("copy image %s to %s: %v", e.Source, e.Target, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Resolver resolves and copies images. The zero value is not usable;
// SourceRoot and DestRoot must be set.
type Resolver struct {
	SourceRoot string // book source directory
	DestRoot   string // output directory
	Convert    bool   // re-encode formats LaTeX cannot include
	Log        *zap.Logger
}

// IsRemote reports whether raw refers to something that is not a file under
// the book's source directory, such as an http URL or a data URI.
func IsRemote(raw string) bool {
	if strings.HasPrefix(raw, "//") {
		return true
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	// A single letter scheme is a Windows drive, not a URL.
	return len(u.Scheme) > 1
}

// Lookup computes the paths of raw, referenced from a chapter stored in
// chapterDir (slash separated, relative to the source root). A leading ./ is
// dropped and a leading / makes raw relative to the source root itself.
func (r *Resolver) Lookup(raw, chapterDir string) Asset {
	rel := strings.TrimPrefix(raw, "./")
	if strings.HasPrefix(rel, "/") {
		chapterDir = ""
		rel = strings.TrimLeft(rel, "/")
	}
	if i := strings.IndexAny(rel, "?#"); i >= 0 {
		rel = rel[:i]
	}
	if u, err := url.PathUnescape(rel); err == nil {
		rel = u
	}
	src := filepath.Join(r.SourceRoot, filepath.FromSlash(chapterDir), filepath.FromSlash(rel))
	embed := path.Join(Dir, chapterDir, rel)
	if r.Convert && convertible[strings.ToLower(path.Ext(embed))] {
		embed = strings.TrimSuffix(embed, path.Ext(embed)) + ".png"
	}
	return Asset{
		Raw:    raw,
		Source: src,
		Embed:  embed,
		Target: filepath.Join(r.DestRoot, filepath.FromSlash(embed)),
	}
}

// Resolve looks up raw, copies it into the output tree and returns the path
// to write into the rewritten document.
func (r *Resolver) Resolve(raw, chapterDir string) (string, error) {
	a := r.Lookup(raw, chapterDir)
	if err := r.Copy(a); err != nil {
		return "", err
	}
	return a.Embed, nil
}

// Copy writes a's source to its target, creating parent directories and
// replacing any existing file. Copying the same asset twice leaves the same
// content in place.
func (r *Resolver) Copy(a Asset) error {
	if a.Embed != Dir && !strings.HasPrefix(a.Embed, Dir+"/") {
		return &Error{a.Source, a.Target, fmt.Errorf("path %q leaves the %s directory", a.Raw, Dir)}
	}
	if err := r.copy(a); err != nil {
		return &Error{a.Source, a.Target, err}
	}
	r.logger().Debug("copied image",
		zap.String("source", a.Source),
		zap.String("target", a.Target))
	return nil
}

func (r *Resolver) copy(a Asset) error {
	src, err := os.Open(a.Source)
	if err != nil {
		return err
	}
	defer src.Close()
	dir := filepath.Dir(a.Target)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".image-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if filepath.Ext(a.Source) != filepath.Ext(a.Target) {
		err = convert(tmp, src)
	} else {
		_, err = io.Copy(tmp, src)
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), a.Target)
}

func convert(w io.Writer, r io.Reader) error {
	img, _, err := image.Decode(r)
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return png.Encode(w, img)
}

func (r *Resolver) logger() *zap.Logger {
	if r.Log == nil {
		return zap.NewNop()
	}
	return r.Log
}
