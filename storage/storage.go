// Package storage defines persistence for the facts that runs
// produce, keyed by host.
package storage

import (
	"context"

	"github.com/Comcast/netparse/core"
)

// Fact is a presentation of one named fact as stored in a Storage
// system.
type Fact struct {
	Name  string      `json:"name"`
	Value interface{} `json:"value"`

	// Deleted indicates that this fact should be removed.
	Deleted bool `json:"-" yaml:"-"`
}

// Storage is a persistence interface for facts per host.
type Storage interface {
	MakeHost(ctx context.Context, host string) error

	RemHost(ctx context.Context, host string) error

	// GetFacts returns nil (and no error) for an unknown host.
	GetFacts(ctx context.Context, host string) (core.Facts, error)

	WriteFacts(ctx context.Context, host string, fs []*Fact) error

	Hosts(ctx context.Context) ([]string, error)
}

// AsFacts turns core.Facts into Facts for writing.  When replace is
// true, previously stored facts not given here are deleted.
func AsFacts(fs core.Facts, previous core.Facts, replace bool) []*Fact {
	acc := make([]*Fact, 0, len(fs))
	for name, v := range fs {
		acc = append(acc, &Fact{
			Name:  name,
			Value: v,
		})
	}
	if replace {
		for name := range previous {
			if _, have := fs[name]; !have {
				acc = append(acc, &Fact{
					Name:    name,
					Deleted: true,
				})
			}
		}
	}
	return acc
}

// AsCoreFacts is the inverse of AsFacts, ignoring deleted facts.
func AsCoreFacts(fs []*Fact) core.Facts {
	acc := core.NewFacts()
	for _, f := range fs {
		if f.Deleted {
			continue
		}
		acc[f.Name] = f.Value
	}
	return acc
}
