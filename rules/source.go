package rules

import (
	"context"
	"io"
	"os"
)

// RawTextSource gives the raw command output that a run parses.
//
// Fetching text from devices is somebody else's job.  A
// RawTextSource just hands over what was fetched.
type RawTextSource interface {
	Text(ctx context.Context) (string, error)
}

// StaticText is a RawTextSource for text that's already at hand.
type StaticText string

func (s StaticText) Text(ctx context.Context) (string, error) {
	return string(s), nil
}

// FileText reads the text from a file.  The Filename "-" means
// standard input.
type FileText struct {
	Filename string
}

func (s *FileText) Text(ctx context.Context) (string, error) {
	if s.Filename == "-" {
		return ReaderText{os.Stdin}.Text(ctx)
	}
	bs, err := os.ReadFile(s.Filename)
	if err != nil {
		return "", err
	}
	return string(bs), nil
}

// ReaderText reads all of the text from a Reader.
type ReaderText struct {
	io.Reader
}

func (s ReaderText) Text(ctx context.Context) (string, error) {
	bs, err := io.ReadAll(s.Reader)
	if err != nil {
		return "", err
	}
	return string(bs), nil
}
