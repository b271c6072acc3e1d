package rules

import (
	"context"
	"errors"
	"fmt"

	"github.com/Comcast/netparse/core"
	"github.com/Comcast/netparse/util"
)

var (
	// MissingSource occurs when a Task has neither a Dir nor a
	// File.
	MissingSource = errors.New("one of dir or file is required")

	// AmbiguousSource occurs when a Task has both a Dir and a
	// File.
	AmbiguousSource = errors.New("dir and file are mutually exclusive")

	// MissingContents occurs when a Task has no Contents.
	MissingContents = errors.New("missing required argument: contents")
)

// Task parses raw text with the rule documents from a file or from
// every rule document in a directory.
type Task struct {
	// Dir is a directory of rule documents.
	Dir string `json:"dir,omitempty"`

	// File is a single rule document.
	File string `json:"file,omitempty"`

	// Contents gives the text to parse, which the documents see as
	// "contents".
	Contents RawTextSource `json:"-"`

	// Vars are additional initial bindings.
	Vars map[string]interface{} `json:"vars,omitempty"`
}

// Result is what a Task produces.
type Result struct {
	// Facts are merged across all documents.  When two documents
	// export the same name, the later one wins.
	Facts core.Facts `json:"facts"`

	// Documents are the names of the documents that ran, in
	// order.
	Documents []string `json:"documents"`

	*core.Events `json:"events,omitempty"`
}

// Validate checks the Task's arguments.
func (t *Task) Validate() error {
	switch {
	case t.Dir == "" && t.File == "":
		return MissingSource
	case t.Dir != "" && t.File != "":
		return AmbiguousSource
	case t.Contents == nil:
		return MissingContents
	}
	return nil
}

// Files lists the rule document files the Task will use.
func (t *Task) Files() ([]string, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if t.File != "" {
		return []string{t.File}, nil
	}
	return Files(t.Dir)
}

// Documents reads and compiles the Task's documents.
func (t *Task) Documents(ctx context.Context, ev core.Evaluator) ([]*core.Document, error) {
	files, err := t.Files()
	if err != nil {
		return nil, err
	}
	docs := make([]*core.Document, 0, len(files))
	for _, filename := range files {
		doc, err := ReadDocument(ctx, ev, filename)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Run reads the documents and then runs them in order.
//
// Every document is compiled before any document runs.
func (t *Task) Run(ctx context.Context, ev core.Evaluator) (*Result, error) {
	docs, err := t.Documents(ctx, ev)
	if err != nil {
		return nil, err
	}
	return t.RunDocuments(ctx, ev, docs)
}

// RunDocuments runs the given documents sequentially against the
// Task's Contents and Vars.
func (t *Task) RunDocuments(ctx context.Context, ev core.Evaluator, docs []*core.Document) (*Result, error) {
	if t.Contents == nil {
		return nil, MissingContents
	}
	text, err := t.Contents.Text(ctx)
	if err != nil {
		return nil, err
	}

	bs := core.NewBindings()
	for k, v := range t.Vars {
		bs[k] = v
	}
	bs.Extend("contents", text)

	r := &Result{
		Facts:     core.NewFacts(),
		Documents: make([]string, 0, len(docs)),
		Events:    &core.Events{Traces: core.NewTraces()},
	}

	for _, doc := range docs {
		util.Logf("running %s", doc.Name)
		x, err := doc.Run(ctx, ev, bs)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", doc.Name, err)
		}
		r.Facts.Merge(x.Facts)
		r.AddEvents(x.Events)
		r.Documents = append(r.Documents, doc.Name)
	}

	return r, nil
}
