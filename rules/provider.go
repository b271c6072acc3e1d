package rules

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"

	"github.com/Comcast/netparse/core"
	"github.com/Comcast/netparse/util"
)

// Provider serves the compiled rule documents found in a directory.
//
// ReadDocuments can be called at any time to reload the directory.
// Documents that survive a reload keep their UpdatableDocument, so
// holders of a Documenter see the new version.
type Provider struct {
	sync.RWMutex

	Dir       string
	Evaluator core.Evaluator

	docs map[string]*core.UpdatableDocument

	// order is the directory listing order of the documents.
	order []string
}

func NewProvider(dir string, ev core.Evaluator) *Provider {
	return &Provider{
		Dir:       dir,
		Evaluator: ev,
		docs:      make(map[string]*core.UpdatableDocument, 32),
	}
}

// Find returns the document with the given name.
func (p *Provider) Find(ctx context.Context, name string) (core.Documenter, error) {
	p.RLock()
	defer p.RUnlock()

	doc, have := p.docs[name]
	if !have {
		return nil, fmt.Errorf(`couldn't find document named "%s" (have %v)`, name, sortedNames(p.docs))
	}
	return doc, nil
}

// Names returns the names of the current documents in directory
// listing order.
func (p *Provider) Names() []string {
	p.RLock()
	defer p.RUnlock()
	acc := make([]string, len(p.order))
	copy(acc, p.order)
	return acc
}

// Documents returns the current documents in directory listing
// order.
func (p *Provider) Documents() []*core.Document {
	p.RLock()
	defer p.RUnlock()
	acc := make([]*core.Document, 0, len(p.order))
	for _, name := range p.order {
		acc = append(acc, p.docs[name].Document())
	}
	return acc
}

// ReadDocuments (re)loads the rule documents in the directory.
//
// Nothing changes if any document fails to compile.
func (p *Provider) ReadDocuments(ctx context.Context) error {
	log.Printf("ReadDocuments %s", p.Dir)

	files, err := Files(p.Dir)
	if err != nil {
		return err
	}

	docs := make(map[string]*core.Document, len(files))
	order := make([]string, 0, len(files))
	for _, filename := range files {
		doc, err := ReadDocument(ctx, p.Evaluator, filename)
		if err != nil {
			return err
		}
		if _, have := docs[doc.Name]; have {
			return fmt.Errorf("%s: duplicate document name %q", filename, doc.Name)
		}
		docs[doc.Name] = doc
		order = append(order, doc.Name)
	}

	p.Lock()
	defer p.Unlock()

	updatables := make(map[string]*core.UpdatableDocument, len(docs))
	for name, doc := range docs {
		if u, have := p.docs[name]; have {
			util.Logf("updating document %s", name)
			u.SetDocument(doc)
			updatables[name] = u
		} else {
			util.Logf("adding document %s", name)
			updatables[name] = core.NewUpdatableDocument(doc)
		}
	}

	p.docs = updatables
	p.order = order

	log.Printf("Loaded %d documents", len(docs))

	return nil
}

// sortedNames is for error messages.
func sortedNames(m map[string]*core.UpdatableDocument) []string {
	acc := make([]string, 0, len(m))
	for name := range m {
		acc = append(acc, name)
	}
	sort.Strings(acc)
	return acc
}
