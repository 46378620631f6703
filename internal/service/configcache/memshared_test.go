package configcache

import (
	"context"
	"sync"
	"time"
)

// memShared is an in-memory CacheRepository shared by every cache instance in
// a test, standing in for Redis across processes. TTLs are ignored.
type memShared struct {
	mu          sync.Mutex
	m           map[string][]byte
	onSubscribe func(handler func(string))
}

func newMemShared() *memShared { return &memShared{m: make(map[string][]byte)} }

func (s *memShared) put(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = []byte(value)
}

func (s *memShared) get(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return string(s.m[key])
}

func (s *memShared) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = append([]byte(nil), value...)
	return nil
}

func (s *memShared) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m[key], nil
}

func (s *memShared) Delete(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.m[key]
	delete(s.m, key)
	return ok, nil
}

func (s *memShared) Publish(context.Context, string, string) (int64, error) { return 0, nil }

func (s *memShared) Subscribe(_ context.Context, _ string, handler func(string)) error {
	if s.onSubscribe != nil {
		s.onSubscribe(handler)
	}
	return nil
}

func (s *memShared) Health(context.Context) error { return nil }
