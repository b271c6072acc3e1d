// Package interpreters collects the standard Evaluators.
//
// Importing this package registers every standard Evaluator in
// core.DefaultEvaluators.
package interpreters

import (
	"github.com/Comcast/netparse/core"

	_ "github.com/Comcast/netparse/interpreters/expr"
	_ "github.com/Comcast/netparse/interpreters/goja"
	_ "github.com/Comcast/netparse/interpreters/lookup"
)

// DefaultName is the name of the Evaluator that tools use when none
// is requested.
var DefaultName = "goja"

// Standard returns a copy of core.DefaultEvaluators, which the
// evaluator packages populate when they are imported.
func Standard() core.EvaluatorsMap {
	es := core.NewEvaluatorsMap()
	for name, ev := range core.DefaultEvaluators {
		es[name] = ev
	}
	return es
}

// Find returns the registered Evaluator with the given name.  An
// empty name gives the default.
func Find(name string) (core.Evaluator, error) {
	if name == "" {
		name = DefaultName
	}
	return core.DefaultEvaluators.Get(name)
}
