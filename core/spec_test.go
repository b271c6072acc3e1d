/* Copyright 2021 Comcast Cable Communications Management, LLC
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
	"strings"
	"testing"

	. "github.com/Comcast/netparse/util/testutil"
)

func compileErr(t *testing.T, src string) error {
	t.Helper()
	_, err := Compile(context.Background(), testEv, Dwimjs(src).([]interface{}))
	if err == nil {
		t.Fatalf("expected an error for %s", src)
	}
	return err
}

func TestCompileInvalidDirective(t *testing.T) {
	tests := []struct {
		name string
		src  string
		msg  string
	}{
		{
			name: "unknown",
			src:  `[{"name":"x","pattern_matcher":{"regex":"x"}}]`,
			msg:  `invalid directive in parser: "pattern_matcher"`,
		},
		{
			name: "none",
			src:  `[{"name":"x","register":"y"}]`,
			msg:  "no directive given",
		},
		{
			name: "two",
			src:  `[{"pattern_match":{"regex":"x"},"json_template":{"template":[]}}]`,
			msg:  "json_template, pattern_match",
		},
		{
			name: "nested",
			src:  `[{"block":[{"pattern_match":{"regex":"x"}},{"lines_template":{}}]}]`,
			msg:  `"lines_template"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := compileErr(t, tt.src)
			var invalid *InvalidDirective
			if !errors.As(err, &invalid) {
				t.Fatalf("got %T: %v", err, err)
			}
			if !strings.Contains(err.Error(), tt.msg) {
				t.Fatal(err)
			}
		})
	}
}

func TestCompileBadArguments(t *testing.T) {
	for _, src := range []string{
		`[{"pattern_match":{}}]`,
		`[{"pattern_match":{"regex":"x","colour":"red"}}]`,
		`[{"pattern_match":{"regex":"x","match_all":"maybe"}}]`,
		`[{"pattern_match":{"regex":"{{ WORDS }}"}}]`,
		`[{"pattern_match":"x"}]`,
		`[{"json_template":{}}]`,
		`[{"block":{"pattern_match":{"regex":"x"}}}]`,
		`[{"pattern_match":{"regex":"x"},"register":["r"]}]`,
		`[{"pattern_match":{"regex":"x"},"loop":"xs","repeat_for":"ys"}]`,
	} {
		err := compileErr(t, src)
		var bad *BadArgument
		if !errors.As(err, &bad) {
			t.Errorf("%s: got %T: %v", src, err, err)
		}
	}
}

func TestCompileBadPattern(t *testing.T) {
	for _, src := range []string{
		`[{"pattern_match":{"regex":"(x"}}]`,
		`[{"pattern_match":{"regex":"x","match_until":"[","match_greedy":true}}]`,
	} {
		err := compileErr(t, src)
		var bad *BadPattern
		if !errors.As(err, &bad) {
			t.Errorf("%s: got %T: %v", src, err, err)
		}
	}
}

func TestCompileBadExportAs(t *testing.T) {
	err := compileErr(t, `[{"pattern_match":{"regex":"x"},"register":"r","export":true,"export_as":"set"}]`)
	var bad *BadExportAs
	if !errors.As(err, &bad) {
		t.Fatalf("got %T: %v", err, err)
	}
}

func TestCompileBadExpressions(t *testing.T) {
	for _, src := range []string{
		`[{"pattern_match":{"regex":"x"},"when":"f(x)"}]`,
		`[{"pattern_match":{"regex":"x","contents":"{{ f(x) }}"}}]`,
		`[{"export_facts":{"a":"{{ f(x) }}"}}]`,
		`[{"json_template":{"template":[{"key":"a","value":1,"when":"g()"}]}}]`,
		`[{"pattern_match":{"regex":"x"},"loop":"{{ unterminated"}]`,
	} {
		compileErr(t, src)
	}
}

func TestCompileMetadata(t *testing.T) {
	doc, err := Compile(context.Background(), nil, Dwimjs(`[
  {"parser_metadata":{"name":"show_version","version":"1.0"}},
  {"pattern_match":{"regex":"Version"}}
]`).([]interface{}))
	if err != nil {
		t.Fatal(err)
	}
	if doc.Name != "show_version" {
		t.Fatal(doc.Name)
	}
	if doc.Metadata["version"] != "1.0" {
		t.Fatal(JS(doc.Metadata))
	}
	if n := len(doc.Directives); n != 2 {
		t.Fatal(n)
	}
}

func TestCompileYAMLMaps(t *testing.T) {
	src := []interface{}{
		map[interface{}]interface{}{
			"pattern_match": map[interface{}]interface{}{
				"regex": "Version",
			},
			"register": "v",
		},
	}
	doc, err := Compile(context.Background(), testEv, src)
	if err != nil {
		t.Fatal(err)
	}
	if d := doc.Directives[0]; d.Kind != PatternMatch || d.Register != "v" {
		t.Fatal(JS(d))
	}
}

func TestDirectives(t *testing.T) {
	want := "block export_facts json_template parser_metadata pattern_match"
	if got := strings.Join(Directives(), " "); got != want {
		t.Fatal(got)
	}
}
