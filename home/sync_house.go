package home

import (
	"sync"
)

// SyncHouse serializes access to a house shared between goroutines.
// Mutations take the write lock, reports and lookups the read lock.
type SyncHouse struct {
	lock  sync.RWMutex
	house *House
}

func NewSyncHouse(house *House) *SyncHouse {
	return &SyncHouse{house: house}
}

// View borrows the house for read-only access while fn runs.
// Neither the house nor anything found through it may escape fn.
func (s *SyncHouse) View(fn func(h *House) error) error {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return fn(s.house)
}

// Update borrows the house exclusively while fn runs.
func (s *SyncHouse) Update(fn func(h *House) error) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	return fn(s.house)
}

func (s *SyncHouse) Name() string {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.house.Name()
}

func (s *SyncHouse) Info() string {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.house.Info()
}

func (s *SyncHouse) Refresh() {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.house.Refresh()
}

// Swap replaces the house, typically after a configuration reload, and
// returns the previous one.
func (s *SyncHouse) Swap(house *House) *House {
	s.lock.Lock()
	defer s.lock.Unlock()
	prev := s.house
	s.house = house
	return prev
}
