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

// Bindings is a map from variable names to their values.  Bindings
// are the scope that expressions see.
//
// The interpreter does not modify Bindings that it has been given.
// Registration and loop variables produce new Bindings via With.
type Bindings map[string]interface{}

func NewBindings() Bindings {
	return make(Bindings, 8)
}

// Extend adds the property; modifies and returns the Bindings.
//
// The Bindings are modified, so only use this method while building
// the initial Bindings for a run.
func (bs Bindings) Extend(p string, v interface{}) Bindings {
	bs[p] = v
	return bs
}

// With returns a copy of the Bindings that also binds p to v.
//
// The receiver is not modified.
func (bs Bindings) With(p string, v interface{}) Bindings {
	acc := make(Bindings, len(bs)+1)
	for k, x := range bs {
		acc[k] = x
	}
	acc[p] = v
	return acc
}

// Copy makes a shallow copy of the Bindings.
func (bs Bindings) Copy() Bindings {
	acc := make(Bindings, len(bs))
	for k, v := range bs {
		acc[k] = v
	}
	return acc
}

// Facts is what a run exports.
type Facts map[string]interface{}

func NewFacts() Facts {
	return make(Facts, 8)
}

// Update copies the given properties into the Facts.  Existing
// properties are overwritten.
func (fs Facts) Update(m map[string]interface{}) Facts {
	for k, v := range m {
		fs[k] = v
	}
	return fs
}

// Merge copies the other Facts into these Facts (last write wins).
func (fs Facts) Merge(other Facts) Facts {
	return fs.Update(other)
}
