package source

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

// File reads one document per line. Zero-length lines are not documents;
// a line holding only whitespace or punctuation is, and ingests as empty.
type File struct {
	path string
	open func(path string) (io.ReadCloser, error)
}

func NewFile(path string) *File {
	return &File{
		path: path,
		open: func(path string) (io.ReadCloser, error) { return os.Open(path) },
	}
}

func (f *File) Name() string {
	return "file:" + f.path
}

func (f *File) Each(ctx context.Context, fn func(text string) error) error {
	r, err := f.open(f.path)
	if err != nil {
		return fmt.Errorf("opening corpus %s: %w", f.path, err)
	}
	defer r.Close()
	return EachLine(ctx, r, fn)
}

// EachLine calls fn for every non-empty line of r. Lines have no length
// limit; a trailing "\r\n" or "\n" is not part of the text.
func EachLine(ctx context.Context, r io.Reader, fn func(text string) error) error {
	reader := bufio.NewReaderSize(r, 64*1024)
	line := 0
	for {
		text, readErr := reader.ReadString('\n')
		if readErr != nil && readErr != io.EOF {
			return fmt.Errorf("reading corpus after line %d: %w", line, readErr)
		}
		if readErr == io.EOF && text == "" {
			return nil
		}
		line++
		if err := ctx.Err(); err != nil {
			return err
		}
		text = strings.TrimSuffix(strings.TrimSuffix(text, "\n"), "\r")
		if text != "" {
			if err := fn(text); err != nil {
				return fmt.Errorf("line %d: %w", line, err)
			}
		}
		if readErr == io.EOF {
			return nil
		}
	}
}
