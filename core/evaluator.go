/* Copyright 2019 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package core

import (
	"context"
	"errors"
)

var (
	// EvaluatorNotFound occurs when an EvaluatorsMap has nothing
	// for the requested name.
	EvaluatorNotFound = errors.New("evaluator not found")

	// DefaultEvaluators is a place for evaluator packages to
	// register themselves (see interpreters/goja).
	DefaultEvaluators = NewEvaluatorsMap()
)

// Evaluation is the result of evaluating an expression.
type Evaluation struct {
	// Value is the value of the expression.
	Value interface{}

	// Undefined reports that the expression referred to a name
	// that isn't bound.  In that case Value is nil.
	//
	// An undefined reference is not an error.  Templates
	// containing such a reference render as nil.
	Undefined bool
}

// Evaluator evaluates expressions against Bindings.
//
// The core only calls an Evaluator.  It never depends on any
// particular expression language.
//
// An Evaluator must not retain or modify the given Bindings.  If an
// implementation uses shared state (say, a runtime with global
// variables), it must install the Bindings immediately before
// evaluation and restore its previous state immediately afterwards.
type Evaluator interface {
	// Compile checks (and perhaps prepares) the given expression
	// source.  Compile should report syntax errors.
	Compile(ctx context.Context, src string) (interface{}, error)

	// Exec evaluates the given source.  If compiled is nil, Exec
	// should compile the source itself.
	Exec(ctx context.Context, bs Bindings, src string, compiled interface{}) (*Evaluation, error)
}

// EvaluatorsMap maps names to Evaluators.
type EvaluatorsMap map[string]Evaluator

func NewEvaluatorsMap() EvaluatorsMap {
	return make(EvaluatorsMap, 4)
}

// Find returns the Evaluator with the given name or nil.
func (m EvaluatorsMap) Find(name string) Evaluator {
	return m[name]
}

// Get is like Find but returns EvaluatorNotFound when there's nothing
// by that name.
func (m EvaluatorsMap) Get(name string) (Evaluator, error) {
	ev, have := m[name]
	if !have {
		return nil, EvaluatorNotFound
	}
	return ev, nil
}
