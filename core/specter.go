/* Copyright 2018 Comcast Cable Communications Management, LLC
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
	"sync/atomic"
)

// Documenter enables other things to manifest themselves as
// Documents.
//
// A Document is itself a Documenter.  An UpdatableDocument is also a
// Documenter, but it's not itself a Document.
type Documenter interface {
	Document() *Document
}

// Document makes any Document a Documenter.
func (doc *Document) Document() *Document {
	return doc
}

// UpdatableDocument is a Documenter with an underlying Document that
// can be changed at any time.  A service can reload rule files
// without disturbing runs in progress.
type UpdatableDocument struct {
	doc atomic.Pointer[Document]
}

// NewUpdatableDocument makes one with the given initial Document,
// which can be changed later via SetDocument.
func NewUpdatableDocument(doc *Document) *UpdatableDocument {
	u := &UpdatableDocument{}
	u.doc.Store(doc)
	return u
}

// SetDocument atomically changes the underlying Document.
func (u *UpdatableDocument) SetDocument(doc *Document) {
	u.doc.Store(doc)
}

// Document implements the Documenter interface.
func (u *UpdatableDocument) Document() *Document {
	return u.doc.Load()
}
