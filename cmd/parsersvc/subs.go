package main

import (
	"sync"
)

// AllHosts is the Subs key that sees results for every host.
const AllHosts = "*"

// Hook receives a completed ParseOp.
type Hook func(op *ParseOp)

// Subs holds Hooks keyed by host.  Each Hook is registered under an
// id so that it can be removed later.
type Subs struct {
	sync.Mutex
	hooks map[string]map[string]Hook
}

func NewSubs() *Subs {
	return &Subs{
		hooks: make(map[string]map[string]Hook, 32),
	}
}

func (s *Subs) Add(host, id string, h Hook) {
	s.Lock()
	hooks, have := s.hooks[host]
	if !have {
		hooks = make(map[string]Hook, 4)
		s.hooks[host] = hooks
	}
	hooks[id] = h
	s.Unlock()
}

func (s *Subs) Rem(host, id string) {
	s.Lock()
	s.rem(host, id)
	s.Unlock()
}

func (s *Subs) rem(host, id string) {
	if hooks, have := s.hooks[host]; have {
		delete(hooks, id)
		if len(hooks) == 0 {
			delete(s.hooks, host)
		}
	}
}

// RemAll removes every Hook registered with the given id.
func (s *Subs) RemAll(id string) {
	s.Lock()
	for host := range s.hooks {
		s.rem(host, id)
	}
	s.Unlock()
}

// Do calls the Hooks for the host and then those for AllHosts.
//
// Hooks run outside the lock, so a Hook may call Add or Rem.
func (s *Subs) Do(host string, op *ParseOp) {
	var acc []Hook
	s.Lock()
	for _, key := range []string{host, AllHosts} {
		for _, h := range s.hooks[key] {
			acc = append(acc, h)
		}
	}
	s.Unlock()
	for _, h := range acc {
		h(op)
	}
}
