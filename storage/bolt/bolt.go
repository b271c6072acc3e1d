// Package bolt implements storage.Storage with bbolt.
//
// Each host gets a bucket, and each fact is a key in that bucket
// with a JSON value.
package bolt

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/Comcast/netparse/core"
	"github.com/Comcast/netparse/storage"

	bolt "go.etcd.io/bbolt"
)

// OpenTimeout is how long Open waits for the file lock.
var OpenTimeout = time.Second

func JS(x interface{}) string {
	js, err := json.Marshal(&x)
	if err != nil {
		panic(err)
	}
	return string(js)
}

type Storage struct {
	Debug    bool
	filename string
	db       *bolt.DB
}

func NewStorage(filename string) (*Storage, error) {
	return &Storage{
		filename: filename,
	}, nil
}

func (s *Storage) Open(ctx context.Context) error {
	opts := &bolt.Options{
		Timeout: OpenTimeout,
	}

	db, err := bolt.Open(s.filename, 0644, opts)
	if err != nil {
		return err
	}
	s.db = db
	return nil
}

func (s *Storage) Close(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Storage) logf(format string, args ...interface{}) {
	if s.Debug {
		log.Printf("BoltDB Storage."+format, args...)
	}
}

func (s *Storage) MakeHost(ctx context.Context, host string) error {
	s.logf("MakeHost %s", host)
	return s.db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(host))
		return err
	})
}

// RemHost removes the host and all of its facts.  Removing an
// unknown host is not an error.
func (s *Storage) RemHost(ctx context.Context, host string) error {
	s.logf("RemHost %s", host)
	return s.db.Update(func(tx *bolt.Tx) error {
		err := tx.DeleteBucket([]byte(host))
		if errors.Is(err, bolt.ErrBucketNotFound) {
			return nil
		}
		return err
	})
}

func (s *Storage) GetFacts(ctx context.Context, host string) (core.Facts, error) {
	s.logf("GetFacts %s", host)
	var fs core.Facts
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(host))
		if b == nil {
			return nil
		}
		fs = core.NewFacts()
		c := b.Cursor()
		for name, js := c.First(); name != nil; name, js = c.Next() {
			var v interface{}
			if err := json.Unmarshal(js, &v); err != nil {
				return err
			}
			fs[string(name)] = v
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logf("GetFacts %s found %d facts", host, len(fs))

	return fs, nil
}

func (s *Storage) WriteFacts(ctx context.Context, host string, fs []*storage.Fact) error {
	s.logf("WriteFacts %s %s", host, JS(fs))

	vals := make(map[string][]byte, len(fs))

	for _, f := range fs {
		if f.Deleted {
			vals[f.Name] = nil
		} else {
			js, err := json.Marshal(f.Value)
			if err != nil {
				return err
			}
			vals[f.Name] = js
		}
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(host))
		if err != nil {
			return err
		}
		for name, js := range vals {
			var (
				key = []byte(name)
				err error
			)
			if js == nil {
				err = b.Delete(key)
			} else {
				err = b.Put(key, js)
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// Hosts lists the hosts in byte order.
func (s *Storage) Hosts(ctx context.Context) ([]string, error) {
	acc := make([]string, 0, 32)
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.ForEach(func(name []byte, _ *bolt.Bucket) error {
			acc = append(acc, string(name))
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return acc, nil
}
