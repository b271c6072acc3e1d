// Package goja provides an ECMAScript expression evaluator based on
// Goja, which is a Go implementation of ECMAScript 5.1+.
//
// See https://github.com/dop251/goja.
package goja

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Comcast/netparse/core"
	"github.com/Comcast/netparse/interpreters/filters"
	"github.com/Comcast/netparse/util"

	"github.com/dop251/goja"
)

var (
	// InterruptedMessage is the string value of Interrupted.
	InterruptedMessage = "RuntimeError: timeout"

	// Interrupted is returned by Exec if the execution is
	// interrupted.
	Interrupted = errors.New(InterruptedMessage)

	// RuntimePoolSize is the number of idle runtimes an Evaluator
	// keeps around.
	RuntimePoolSize = 8
)

// init adds an Evaluator as one of the DefaultEvaluators.
func init() {
	e := NewEvaluator()
	core.DefaultEvaluators["goja"] = e
	core.DefaultEvaluators["ecmascript"] = e
}

// Evaluator implements core.Evaluator using Goja.
//
// An expression sees each binding as a global variable.  Runtimes
// are pooled, so the bindings are installed immediately before each
// evaluation and the previous globals are restored immediately
// afterwards.
//
// The following functions are also available:
//
//    interface_split(name[, key]): {"name":..., "index":...} or one of those.
//    interface_range(spec): list of interface names.
//    vlan_expand(spec): list of VLAN ids (as strings).
//    cronNext(expr): next time (RFC3339Nano) for the crontab expression.
//
// For testing only:
//
//    sleep(ms): sleep for the given number of milliseconds.
//
// The Testing flag must be set to see sleep().
type Evaluator struct {
	// Testing is used to expose or hide some runtime
	// capabilities.
	Testing bool

	// Timeout, if not zero, limits the time for each
	// evaluation.
	Timeout time.Duration

	programs sync.Map
	runtimes chan *goja.Runtime
}

// NewEvaluator makes a new Evaluator.
func NewEvaluator() *Evaluator {
	return &Evaluator{
		runtimes: make(chan *goja.Runtime, RuntimePoolSize),
	}
}

// Compile calls goja.Compile on the parenthesized expression.
//
// Programs are cached by source.
func (e *Evaluator) Compile(ctx context.Context, src string) (interface{}, error) {
	if p, have := e.programs.Load(src); have {
		return p, nil
	}
	p, err := goja.Compile("", "("+src+"\n)", true)
	if err != nil {
		return nil, fmt.Errorf("bad expression %q: %w", src, err)
	}
	e.programs.Store(src, p)
	return p, nil
}

// Exec implements the core.Evaluator method of the same name.
//
// A ReferenceError (or a TypeError from reading a property of
// undefined or null) is reported as an undefined result rather than
// as an error.  So is an expression whose value is undefined.
func (e *Evaluator) Exec(ctx context.Context, bs core.Bindings, src string, compiled interface{}) (*core.Evaluation, error) {
	p, is := compiled.(*goja.Program)
	if !is {
		x, err := e.Compile(ctx, src)
		if err != nil {
			return nil, err
		}
		p = x.(*goja.Program)
	}

	if 0 < e.Timeout {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	o := e.runtime()
	defer e.release(o)

	restore := use(o, bs)
	v, err := run(ctx, o, p)
	restore()

	if err != nil {
		var ie *goja.InterruptedError
		if errors.As(err, &ie) {
			return nil, Interrupted
		}
		var ex *goja.Exception
		if errors.As(err, &ex) && undefinedReference(ex) {
			return &core.Evaluation{Undefined: true}, nil
		}
		return nil, err
	}

	if v == nil || goja.IsUndefined(v) {
		return &core.Evaluation{Undefined: true}, nil
	}

	return &core.Evaluation{
		Value: v.Export(),
	}, nil
}

func undefinedReference(ex *goja.Exception) bool {
	msg := ex.Error()
	switch {
	case strings.HasPrefix(msg, "ReferenceError"):
		return true
	case strings.HasPrefix(msg, "TypeError"):
		return strings.Contains(msg, "of undefined") || strings.Contains(msg, "of null")
	}
	return false
}

// run executes the program.  The runtime is interrupted if the ctx
// is done first.
func run(ctx context.Context, o *goja.Runtime, p *goja.Program) (goja.Value, error) {
	ictx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ictx.Done()
		if ctx.Err() != nil {
			o.Interrupt(InterruptedMessage)
		}
	}()

	v, err := o.RunProgram(p)
	cancel()
	<-done

	// In case the ctx was done after RunProgram returned.
	o.ClearInterrupt()

	return v, err
}

// use installs the bindings as globals.  The returned function
// restores the previous globals.
func use(o *goja.Runtime, bs core.Bindings) func() {
	saved := make(map[string]goja.Value, len(bs))
	for name, v := range bs {
		saved[name] = o.Get(name)
		if err := o.Set(name, core.Plain(v)); err != nil {
			util.Logf("goja: can't bind %s: %v", name, err)
		}
	}
	return func() {
		g := o.GlobalObject()
		for name, old := range saved {
			var err error
			if old == nil {
				err = g.Delete(name)
			} else {
				err = o.Set(name, old)
			}
			if err != nil {
				util.Logf("goja: can't restore %s: %v", name, err)
			}
		}
	}
}

func (e *Evaluator) runtime() *goja.Runtime {
	select {
	case o := <-e.runtimes:
		return o
	default:
		return e.newRuntime()
	}
}

func (e *Evaluator) release(o *goja.Runtime) {
	select {
	case e.runtimes <- o:
	default:
	}
}

func protest(o *goja.Runtime, x interface{}) {
	panic(o.ToValue(x))
}

func str(o *goja.Runtime, x interface{}, what string) string {
	switch vv := x.(type) {
	case goja.Value:
		x = vv.Export()
	}
	s, is := x.(string)
	if !is {
		protest(o, fmt.Sprintf("%s: %#v is not a string", what, x))
	}
	return s
}

func strings2list(ss []string) []interface{} {
	acc := make([]interface{}, len(ss))
	for i, s := range ss {
		acc[i] = s
	}
	return acc
}

func (e *Evaluator) newRuntime() *goja.Runtime {
	o := goja.New()

	o.Set("interface_split", func(x, key interface{}) interface{} {
		var k string
		if key != nil {
			k = str(o, key, "interface_split")
		}
		y, err := filters.InterfaceSplit(str(o, x, "interface_split"), k)
		if err != nil {
			protest(o, err.Error())
		}
		return y
	})

	o.Set("interface_range", func(x interface{}) interface{} {
		ss, err := filters.InterfaceRange(str(o, x, "interface_range"))
		if err != nil {
			protest(o, err.Error())
		}
		return strings2list(ss)
	})

	o.Set("vlan_expand", func(x interface{}) interface{} {
		ss, err := filters.VlanExpand(str(o, x, "vlan_expand"))
		if err != nil {
			protest(o, err.Error())
		}
		return strings2list(ss)
	})

	o.Set("cronNext", func(x interface{}) interface{} {
		s, err := filters.CronNext(str(o, x, "cronNext"))
		if err != nil {
			protest(o, err.Error())
		}
		return s
	})

	if e.Testing {
		o.Set("sleep", func(ms int) {
			time.Sleep(time.Duration(ms) * time.Millisecond)
		})
	}

	return o
}
