package storage

import (
	"context"

	"github.com/Comcast/netparse/core"
)

// NoopStorage remembers nothing.
type NoopStorage struct {
}

func (s *NoopStorage) MakeHost(ctx context.Context, host string) error {
	return nil
}

func (s *NoopStorage) RemHost(ctx context.Context, host string) error {
	return nil
}

func (s *NoopStorage) GetFacts(ctx context.Context, host string) (core.Facts, error) {
	return nil, nil
}

func (s *NoopStorage) WriteFacts(ctx context.Context, host string, fs []*Fact) error {
	return nil
}

func (s *NoopStorage) Hosts(ctx context.Context) ([]string, error) {
	return nil, nil
}

func (s *NoopStorage) Open(ctx context.Context) error {
	return nil
}

func (s *NoopStorage) Close(ctx context.Context) error {
	return nil
}
