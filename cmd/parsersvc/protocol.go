package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/Comcast/netparse/core"
	"github.com/Comcast/netparse/rules"

	"github.com/google/uuid"
)

// SOp is a Service Operation.
//
// Only one of Parse, Documents, Reload, GetFacts, Hosts, or RemHost
// should have value.
type SOp struct {
	// Id identifies the operation in logs and on the firehose.
	// Do assigns one when it's empty.
	Id string `json:"id,omitempty"`

	Parse *ParseOp `json:"parse,omitempty"`

	Documents *DocumentsOp `json:"documents,omitempty"`

	Reload *ReloadOp `json:"reload,omitempty"`

	GetFacts *GetFactsOp `json:"getFacts,omitempty"`

	Hosts *HostsOp `json:"hosts,omitempty"`

	// RemHost gives a host whose facts should be removed.
	RemHost string `json:"remHost,omitempty"`

	// Error will hold an error (if any) that results from
	// processing this operation.
	Error error `json:"-"`

	// Err will hold a string representation of an error (if any)
	// that results from processing this operation.
	Err string `json:"err,omitempty"`
}

// erred is a utility function to return values to assign to operation
// Error and Err fields.
func erred(err error) (error, string) {
	if err == nil {
		return nil, ""
	}
	return err, err.Error()
}

func (o *SOp) wrapForFirehose(tag string) map[string]*SOp {
	return map[string]*SOp{
		tag: o,
	}
}

func (o *SOp) Do(ctx context.Context, s *Service) error {
	if o.Id == "" {
		o.Id = uuid.New().String()
	}

	var err error
	switch {
	case o.Parse != nil:
		err = s.Parse(ctx, o.Parse)
	case o.Documents != nil:
		err = o.Documents.Do(ctx, s)
	case o.Reload != nil:
		o.Reload.Documents, err = s.Reload(ctx)
	case o.GetFacts != nil:
		err = o.GetFacts.Do(ctx, s)
	case o.Hosts != nil:
		o.Hosts.Hosts, err = s.Storage.Hosts(ctx)
	case o.RemHost != "":
		err = s.Storage.RemHost(ctx, o.RemHost)
	default:
		err = fmt.Errorf("not implemented: %s", JS(o))
	}

	if err != nil && o.Error == nil {
		o.Error, o.Err = erred(err)
		log.Printf("op %s error: %v", o.Id, err)
	}

	if s.firehose != nil {
		select {
		case s.firehose <- o.wrapForFirehose("op"):
		default:
			log.Printf("s.firehose blocked")
		}
	}

	return o.Error
}

// ParseOp runs documents against raw text.
type ParseOp struct {
	// Documents names the documents to run in order.  No names
	// means every document in directory order.
	Documents []string `json:"documents,omitempty"`

	Contents string `json:"contents"`

	Vars map[string]interface{} `json:"vars,omitempty"`

	// Host, when given, is the key for storing the facts.
	Host string `json:"host,omitempty"`

	// Replace removes the host's stored facts that this parse
	// didn't produce.
	Replace bool `json:"replace,omitempty"`

	// At is when the parse finished.
	At string `json:"at,omitempty"`

	Result *rules.Result `json:"result,omitempty"`
}

// DocumentsOp lists the loaded documents.  With Describe, the
// Documents themselves are returned.
type DocumentsOp struct {
	Describe bool `json:"describe,omitempty"`

	Names []string `json:"names,omitempty"`

	Documents []*core.Document `json:"docs,omitempty"`
}

func (o *DocumentsOp) Do(ctx context.Context, s *Service) error {
	o.Names = s.Provider.Names()
	if o.Describe {
		o.Documents = s.Provider.Documents()
	}
	return nil
}

type ReloadOp struct {
	Documents []string `json:"documents,omitempty"`
}

type GetFactsOp struct {
	Host  string     `json:"host"`
	Facts core.Facts `json:"facts,omitempty"`
}

func (o *GetFactsOp) Do(ctx context.Context, s *Service) error {
	fs, err := s.Storage.GetFacts(ctx, o.Host)
	if err != nil {
		return err
	}
	if fs == nil {
		return fmt.Errorf("unknown host %q", o.Host)
	}
	o.Facts = fs
	return nil
}

type HostsOp struct {
	Hosts []string `json:"hosts"`
}

// JS renders its argument as JSON or as a string indicating an error.
func JS(x interface{}) string {
	js, err := json.Marshal(&x)
	if err != nil {
		return fmt.Sprintf("%#v", x)
	}
	return string(js)
}
