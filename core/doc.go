/* Copyright 2018-2019 Comcast Cable Communications Management, LLC
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

// Package core provides the core gear for directive-driven parsing
// of unstructured text (typically the output of commands run on
// network devices).
//
// The primary type is Document, and the primary method is Run.  A
// Document is an ordered list of Directives.  Each Directive either
// does something (pattern_match, json_template, export_facts,
// parser_metadata) or groups nested Directives (block).  Directives
// can be conditional ("when"), can loop ("loop"), can bind their
// results to variables ("register"), and can copy their results into
// the output Facts ("export").
//
// Expressions (in conditionals, loops, and "{{ }}" templates) are
// evaluated by an Evaluator.  This package doesn't implement any
// expression language.  See the interpreters packages.
//
// To use this package, Compile a raw rule document (typically read
// from YAML) into a Document.  Then Run that Document with Bindings
// that include "contents", which is the text to parse.  The result
// includes the Facts.
//
// Pattern matching uses Go regular expressions in multiline mode.
// A pattern that doesn't match is never an error.  A pattern that
// doesn't compile is always an error, which Compile reports.
package core
