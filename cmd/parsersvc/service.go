package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/Comcast/netparse/core"
	"github.com/Comcast/netparse/rules"
	"github.com/Comcast/netparse/storage"
	"github.com/Comcast/netparse/storage/bolt"
	"github.com/Comcast/netparse/util"
)

// Opener is a Storage that needs opening and closing.
type Opener interface {
	Open(ctx context.Context) error
	Close(ctx context.Context) error
}

// Service parses raw text with the rule documents from a Provider
// and stores the resulting facts by host.
type Service struct {
	Provider  *rules.Provider
	Evaluator core.Evaluator
	Storage   storage.Storage

	// Timeout bounds each parse.  Zero means no limit.
	Timeout time.Duration

	// Subs see every ParseOp that succeeds.
	Subs *Subs

	firehose chan interface{}
}

// NewService builds a Service from a Config.  The rule documents are
// loaded and the storage (if any) is opened.
func NewService(ctx context.Context, cfg *Config) (*Service, error) {
	ev, err := evaluator(cfg.Evaluator)
	if err != nil {
		return nil, err
	}

	s := &Service{
		Provider:  rules.NewProvider(cfg.Rules, ev),
		Evaluator: ev,
		Storage:   &storage.NoopStorage{},
		Timeout:   cfg.Timeout.Duration,
		Subs:      NewSubs(),
	}

	if cfg.DB != "" {
		db, err := bolt.NewStorage(cfg.DB)
		if err != nil {
			return nil, err
		}
		s.Storage = db
	}

	if o, is := s.Storage.(Opener); is {
		if err = o.Open(ctx); err != nil {
			return nil, err
		}
	}

	if err = s.Provider.ReadDocuments(ctx); err != nil {
		return nil, NewWrappedError(s.Close(ctx), err)
	}

	return s, nil
}

// Close closes the Storage if it needs closing.
func (s *Service) Close(ctx context.Context) error {
	if o, is := s.Storage.(Opener); is {
		return o.Close(ctx)
	}
	return nil
}

// Documents resolves document names.  No names means every document.
func (s *Service) Documents(ctx context.Context, names []string) ([]*core.Document, error) {
	if len(names) == 0 {
		return s.Provider.Documents(), nil
	}
	acc := make([]*core.Document, 0, len(names))
	for _, name := range names {
		d, err := s.Provider.Find(ctx, name)
		if err != nil {
			return nil, err
		}
		acc = append(acc, d.Document())
	}
	return acc, nil
}

// Parse runs the documents against the contents.  When host isn't
// empty, the facts are also stored for that host.
func (s *Service) Parse(ctx context.Context, op *ParseOp) error {
	if 0 < s.Timeout {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	docs, err := s.Documents(ctx, op.Documents)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		return fmt.Errorf("no documents")
	}

	task := &rules.Task{
		Contents: rules.StaticText(op.Contents),
		Vars:     op.Vars,
	}
	r, err := task.RunDocuments(ctx, s.Evaluator, docs)
	if err != nil {
		return err
	}
	op.Result = r
	op.At = core.Timestamp()

	if op.Host != "" {
		if err = s.store(ctx, op.Host, r.Facts, op.Replace); err != nil {
			return err
		}
		util.Logf("stored %d facts for %s", len(r.Facts), op.Host)
	}

	s.Subs.Do(op.Host, op)

	return nil
}

func (s *Service) store(ctx context.Context, host string, fs core.Facts, replace bool) error {
	var (
		previous core.Facts
		err      error
	)
	if replace {
		if previous, err = s.Storage.GetFacts(ctx, host); err != nil {
			return err
		}
	}
	return s.Storage.WriteFacts(ctx, host, storage.AsFacts(fs, previous, replace))
}

// Reload rereads the rule documents.  On failure, the previous
// documents remain.
func (s *Service) Reload(ctx context.Context) ([]string, error) {
	if err := s.Provider.ReadDocuments(ctx); err != nil {
		log.Printf("Service.Reload error: %v", err)
		return nil, err
	}
	return s.Provider.Names(), nil
}
