package memory

import (
	"context"
	"sync"
	"time"

	"github.com/code-payments/pda-provisioner/pkg/ledger/account"
)

type store struct {
	mu      sync.Mutex
	records map[string]*account.Record
	last    uint64
}

// New returns a new in memory account.Store
func New() account.Store {
	return &store{
		records: make(map[string]*account.Record),
	}
}

// Get implements account.Store.Get
func (s *store) Get(_ context.Context, address string) (*account.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.records[address]
	if !ok {
		return nil, account.ErrAccountNotFound
	}

	cloned := item.Clone()
	return &cloned, nil
}

// Create implements account.Store.Create
func (s *store) Create(_ context.Context, record *account.Record) error {
	if err := record.ValidateNew(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.check(record); err != nil {
		return err
	}
	s.apply(record)
	return nil
}

// Update implements account.Store.Update
func (s *store) Update(_ context.Context, record *account.Record) error {
	if err := record.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if record.IsNew() {
		if _, ok := s.records[record.Address]; !ok {
			return account.ErrAccountNotFound
		}
		return account.ErrStaleVersion
	}

	if err := s.check(record); err != nil {
		return err
	}
	s.apply(record)
	return nil
}

// Commit implements account.Store.Commit
func (s *store) Commit(_ context.Context, records ...*account.Record) error {
	for _, record := range records {
		if err := record.Validate(); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]struct{})
	for _, record := range records {
		if _, ok := seen[record.Address]; ok {
			return account.ErrStaleVersion
		}
		seen[record.Address] = struct{}{}

		if err := s.check(record); err != nil {
			return err
		}
	}

	for _, record := range records {
		s.apply(record)
	}
	return nil
}

// Count implements account.Store.Count
func (s *store) Count(_ context.Context) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return uint64(len(s.records)), nil
}

func (s *store) check(record *account.Record) error {
	existing, ok := s.records[record.Address]
	if record.IsNew() {
		if ok {
			return account.ErrAccountExists
		}
		return nil
	}

	if !ok {
		return account.ErrAccountNotFound
	}
	if existing.Version != record.Version {
		return account.ErrStaleVersion
	}
	return nil
}

func (s *store) apply(record *account.Record) {
	if record.IsNew() {
		s.last++
		record.Id = s.last
		record.CreatedAt = time.Now()
	} else {
		existing := s.records[record.Address]
		record.Id = existing.Id
		record.CreatedAt = existing.CreatedAt
	}
	record.Version++

	cloned := record.Clone()
	s.records[record.Address] = &cloned
}

func (s *store) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = make(map[string]*account.Record)
	s.last = 0
}
