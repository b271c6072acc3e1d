package core

import (
	"context"
	"fmt"

	"github.com/Comcast/netparse/util"
)

var (
	// TracesInitialCap is the initial capacity for Traces buffers.
	TracesInitialCap = 16

	// WarningsInitialCap is the initial capacity for slices of
	// warnings.
	WarningsInitialCap = 4
)

// Traces holds trace messages.
type Traces struct {
	Messages []interface{} `json:"messages,omitempty" yaml:",omitempty"`
}

// NewTraces creates an initialized Traces.
//
// The Messages array has TracesInitialCap initial capacity.
func NewTraces() *Traces {
	return &Traces{
		Messages: make([]interface{}, 0, TracesInitialCap),
	}
}

func (ts *Traces) Add(xs ...interface{}) {
	ts.Messages = append(ts.Messages, xs...)
}

// Events contains warnings and Traces.
type Events struct {
	Warnings []string `json:"warnings,omitempty" yaml:",omitempty"`
	Traces   *Traces  `json:"traces,omitempty" yaml:",omitempty"`
}

func newEvents() *Events {
	return &Events{
		Warnings: make([]string, 0, WarningsInitialCap),
		Traces:   NewTraces(),
	}
}

// AddWarning adds the given warning.
func (es *Events) AddWarning(msg string) {
	es.Warnings = append(es.Warnings, msg)
}

// AddTrace adds the given thing to the list of traces.
func (es *Events) AddTrace(x interface{}) {
	es.Traces.Add(x)
}

// AddEvents adds the given Event's warnings and traces to the
// receiving Events.
func (es *Events) AddEvents(more *Events) {
	if more == nil {
		return
	}
	es.Warnings = append(es.Warnings, more.Warnings...)
	for _, x := range more.Traces.Messages {
		es.AddTrace(x)
	}
}

// Execution is the result of running a Document.
type Execution struct {
	// Bs are the final top-level Bindings, which include all
	// registered results.
	Bs Bindings

	// Facts are what the Document exported.
	Facts Facts

	*Events
}

func NewExecution(bs Bindings) *Execution {
	return &Execution{
		Bs:     bs,
		Facts:  NewFacts(),
		Events: newEvents(),
	}
}

// DirectiveTrace records what happened with one directive.
type DirectiveTrace struct {
	Directive string `json:"directive"`
	Kind      string `json:"kind"`
	Depth     int    `json:"depth,omitempty"`
	Skipped   bool   `json:"skipped,omitempty"`
	Iters     int    `json:"iterations,omitempty"`
}

// run is the state for one Document.Run.
type run struct {
	ev     Evaluator
	facts  Facts
	events *Events
	depth  int
}

func (r *run) warn(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	warnf("%s", msg)
	r.events.AddWarning(msg)
}

// Run executes the Document's directives in order.
//
// The given Bindings typically include "contents", the raw text to
// parse.  The Bindings are not modified.
//
// Any error aborts the run, and then no Execution is returned.  A
// pattern that doesn't match is not an error.
func (doc *Document) Run(ctx context.Context, ev Evaluator, bs Bindings) (*Execution, error) {
	if ev == nil {
		return nil, NoEvaluator
	}
	if bs == nil {
		bs = NewBindings()
	}

	x := NewExecution(bs)
	r := &run{
		ev:     ev,
		facts:  x.Facts,
		events: x.Events,
	}

	final, _, err := r.walk(ctx, doc.Directives, bs)
	if err != nil {
		return nil, err
	}
	x.Bs = final

	return x, nil
}

// walk executes the directives against the Bindings.  Returns the
// resulting Bindings along with the results of registered
// directives.
func (r *run) walk(ctx context.Context, ds []*Directive, bs Bindings) (Bindings, map[string]interface{}, error) {
	registers := make(map[string]interface{}, len(ds))

	r.depth++
	defer func() { r.depth-- }()

	for _, d := range ds {
		select {
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		default:
		}

		var err error
		if bs, err = r.step(ctx, d, bs, registers); err != nil {
			return nil, nil, &DirectiveError{d.Label(), err}
		}
	}

	return bs, registers, nil
}

// step executes a single directive.
func (r *run) step(ctx context.Context, d *Directive, bs Bindings, registers map[string]interface{}) (Bindings, error) {
	tr := &DirectiveTrace{
		Directive: d.Label(),
		Kind:      d.Kind,
		Depth:     r.depth - 1,
	}
	r.events.AddTrace(tr)
	util.Logf("processing directive: %s", d.Label())

	if d.When != "" {
		ok, err := Conditional(ctx, r.ev, d.When, bs)
		if err != nil {
			return nil, err
		}
		if !ok {
			tr.Skipped = true
			r.warn("skipping directive %s due to conditional check failure", d.Label())
			return bs, nil
		}
	}

	var result interface{}
	if d.Loop == nil {
		x, err := d.action.exec(ctx, r, bs)
		if err != nil {
			return nil, err
		}
		result = x
	} else {
		x, err := loopValue(ctx, r.ev, d.Loop, bs)
		if err != nil {
			return nil, err
		}
		// A falsy loop value means nothing to do.
		var items []interface{}
		if Truthy(x) {
			if items, err = Items(x); err != nil {
				return nil, err
			}
		}
		acc := make([]interface{}, 0, len(items))
		for _, item := range items {
			y, err := d.action.exec(ctx, r, bs.With(d.RepeatVar, item))
			if err != nil {
				return nil, err
			}
			acc = append(acc, y)
		}
		tr.Iters = len(items)
		result = acc
	}

	if d.Kind == ExportFacts {
		// The action already merged its results into the Facts.
		return bs, nil
	}

	if d.Register != "" {
		bs = bs.With(d.Register, result)
		registers[d.Register] = result
	}

	if d.Export {
		if err := r.export(d, result); err != nil {
			return nil, err
		}
	}

	return bs, nil
}

// export copies a result into the Facts.
//
// Without a register, a map (or each map in a list) is merged into
// the Facts at the top level.
func (r *run) export(d *Directive, x interface{}) error {
	x = exportShape(d.ExportAs, x)

	if d.Register != "" {
		r.facts[d.Register] = x
		return nil
	}

	if _, is := keysOf(x); is {
		r.exportMap(x)
		return nil
	}

	switch vv := x.(type) {
	case nil:
	case []interface{}:
		for _, y := range vv {
			if _, is := keysOf(y); !is {
				if y != nil {
					r.warn("%s: not exporting %T without a register", d.Label(), y)
				}
				continue
			}
			r.exportMap(y)
		}
	default:
		r.warn("%s: not exporting %T without a register", d.Label(), x)
	}
	return nil
}

func (r *run) exportMap(x interface{}) {
	ks, _ := keysOf(x)
	for _, k := range ks {
		v, _ := lookupIn(x, k)
		r.facts[k] = v
	}
}

// exportShape applies an export_as mode.
func exportShape(mode string, x interface{}) interface{} {
	switch mode {
	case ExportAsList, ExportAsElements:
		switch x.(type) {
		case nil:
			return []interface{}{}
		case []interface{}:
			return x
		default:
			return []interface{}{x}
		}
	case ExportAsDict, ExportAsHash, ExportAsObject:
		xs, is := x.([]interface{})
		if !is {
			return x
		}
		var acc interface{} = map[string]interface{}{}
		for _, y := range xs {
			if _, is := keysOf(y); is {
				acc = DeepMerge(acc, y)
			}
		}
		return acc
	default:
		return x
	}
}
