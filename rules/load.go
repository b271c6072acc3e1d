// Package rules loads rule documents from files and runs them
// against raw command output.
package rules

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Comcast/netparse/core"
	"github.com/Comcast/netparse/util"

	"github.com/jsccast/yaml"
)

// Extensions are the file extensions of rule documents.  In
// directory mode, when more than one file has the same base name,
// the first one in directory listing order wins.
var Extensions = []string{".yaml", ".yml", ".json"}

// Parse parses the YAML (or JSON) source of a rule document.
func Parse(data []byte) ([]interface{}, error) {
	var x interface{}
	if err := yaml.Unmarshal(data, &x); err != nil {
		return nil, err
	}
	if x == nil {
		return []interface{}{}, nil
	}
	y, err := core.StringMaps(x)
	if err != nil {
		return nil, err
	}
	src, is := y.([]interface{})
	if !is {
		return nil, fmt.Errorf("a rule document is a list of directives, not a %T", y)
	}
	return src, nil
}

// Hash computes the Base64-encoded SHA256 hash of the given data.
func Hash(data []byte) string {
	h := sha256.New()
	h.Write(data)
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

// SetDocId generates and sets the Id of the Document based on the
// JSON representation of its source.
func SetDocId(doc *core.Document, src []interface{}) (string, error) {
	js, err := json.Marshal(src)
	if err != nil {
		return "", err
	}
	id := Hash(js)
	doc.Id = id
	return id, nil
}

// BaseName is the file name without its directory or extension.
func BaseName(filename string) string {
	name := filepath.Base(filename)
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// HasExtension reports whether the file has one of the Extensions.
func HasExtension(filename string) bool {
	ext := filepath.Ext(filename)
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Compile parses and compiles the rule document source.  The name is
// used when the document's parser_metadata doesn't give one.
func Compile(ctx context.Context, ev core.Evaluator, name string, data []byte) (*core.Document, error) {
	src, err := Parse(data)
	if err != nil {
		return nil, err
	}
	doc, err := core.Compile(ctx, ev, src)
	if err != nil {
		return nil, err
	}
	if doc.Name == "" {
		doc.Name = name
	}
	if _, err = SetDocId(doc, src); err != nil {
		return nil, err
	}
	return doc, nil
}

// ReadDocument reads and compiles the rule document in the given
// file.
func ReadDocument(ctx context.Context, ev core.Evaluator, filename string) (*core.Document, error) {
	if !HasExtension(filename) {
		return nil, fmt.Errorf("%s: unsupported extension (want one of %s)",
			filename, strings.Join(Extensions, ", "))
	}
	data, err := ReadFileWithInlines(filename)
	if err != nil {
		return nil, err
	}
	doc, err := Compile(ctx, ev, BaseName(filename), data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	util.Logf("read %s [%s]", doc.Name, doc.Id)
	return doc, nil
}

// Files lists the rule documents in the given directory in listing
// order (which is by file name).  Files without one of the
// Extensions are ignored, and only the first file with a given base
// name is used.
func Files(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(entries))
	acc := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !HasExtension(name) {
			continue
		}
		base := BaseName(name)
		if seen[base] {
			util.Logf("ignoring %s (already have %s)", name, base)
			continue
		}
		seen[base] = true
		acc = append(acc, filepath.Join(dir, name))
	}
	return acc, nil
}
