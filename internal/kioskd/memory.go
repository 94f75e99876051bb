package kioskd

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps job records in process memory. It is the default store
// for tests and single-node development.
type MemoryStore struct {
	mu        sync.Mutex
	jobs      map[string]map[string]string
	deadlines map[string]time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		jobs:      make(map[string]map[string]string),
		deadlines: make(map[string]time.Time),
	}
}

func (s *MemoryStore) SaveJob(ctx context.Context, rec *JobRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[rec.Hash] = rec.fields()
	return nil
}

func (s *MemoryStore) SetField(ctx context.Context, hash, field, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.aliveLocked(hash)
	if !ok {
		job = make(map[string]string)
		s.jobs[hash] = job
	}
	job[field] = value
	return nil
}

func (s *MemoryStore) GetField(ctx context.Context, hash, field string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.aliveLocked(hash)
	if !ok {
		return "", nil
	}
	return job[field], nil
}

func (s *MemoryStore) Expire(ctx context.Context, hash string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.aliveLocked(hash); !ok {
		return false, nil
	}
	s.deadlines[hash] = time.Now().Add(ttl)
	return true, nil
}

// aliveLocked returns the record for hash, dropping it first if its TTL has
// passed. Callers must hold s.mu.
func (s *MemoryStore) aliveLocked(hash string) (map[string]string, bool) {
	if deadline, ok := s.deadlines[hash]; ok && time.Now().After(deadline) {
		delete(s.jobs, hash)
		delete(s.deadlines, hash)
		return nil, false
	}
	job, ok := s.jobs[hash]
	return job, ok
}
