package store

import (
	"context"
	"sync"

	"vouch/internal/experience/models"
	id "vouch/pkg/domain"
)

// InMemoryStore is an arena-style store: a dense table of records keyed by a
// monotonically increasing id, plus ordered index slices per key. It is the
// default backend for local runs and unit tests.
type InMemoryStore struct {
	mu      sync.RWMutex
	nextID  id.ClaimID
	records map[id.ClaimID]models.Experience

	byOwner    map[id.Address][]id.ClaimID
	byEmployer map[id.Address][]id.ClaimID
	byEmail    map[id.Email][]id.ClaimID

	emailBindings map[id.Email]models.EmailBinding
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		nextID:        1,
		records:       make(map[id.ClaimID]models.Experience),
		byOwner:       make(map[id.Address][]id.ClaimID),
		byEmployer:    make(map[id.Address][]id.ClaimID),
		byEmail:       make(map[id.Email][]id.ClaimID),
		emailBindings: make(map[id.Email]models.EmailBinding),
	}
}

func (s *InMemoryStore) Create(_ context.Context, rec *models.Experience) (id.ClaimID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	claimID := s.nextID
	s.nextID++

	rec.ID = claimID
	s.records[claimID] = *rec
	s.byOwner[rec.Owner] = append(s.byOwner[rec.Owner], claimID)
	if rec.EmployerStatus == models.EmployerUnregistered {
		s.byEmail[rec.EmployerEmail] = append(s.byEmail[rec.EmployerEmail], claimID)
	}
	return claimID, nil
}

func (s *InMemoryStore) Get(_ context.Context, claimID id.ClaimID) (*models.Experience, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[claimID]
	if !ok {
		return nil, ErrNotFound
	}
	// Return a copy so callers cannot mutate the arena without Update.
	return &rec, nil
}

func (s *InMemoryStore) Update(_ context.Context, rec *models.Experience, moves IndexMoves) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.records[rec.ID]
	if !ok {
		return ErrNotFound
	}
	if moves.BindEmail != nil {
		if _, bound := s.emailBindings[moves.BindEmail.Email]; bound {
			return ErrConflict
		}
	}

	s.records[rec.ID] = *rec
	if moves.BindEmail != nil {
		s.emailBindings[moves.BindEmail.Email] = *moves.BindEmail
	}
	if moves.AppendEmployerIndex {
		s.byEmployer[rec.EmployerAddress] = append(s.byEmployer[rec.EmployerAddress], rec.ID)
	}
	if moves.RemoveEmailIndex {
		s.removeFromEmailIndex(prev.EmployerEmail, rec.ID)
	}
	return nil
}

// removeFromEmailIndex drops one claim id via swap-with-last-and-shrink.
// The email index only promises insertion order for what remains relevant,
// so O(1) removal is acceptable.
func (s *InMemoryStore) removeFromEmailIndex(email id.Email, claimID id.ClaimID) {
	ids := s.byEmail[email]
	for i, existing := range ids {
		if existing == claimID {
			last := len(ids) - 1
			ids[i] = ids[last]
			ids = ids[:last]
			break
		}
	}
	if len(ids) == 0 {
		delete(s.byEmail, email)
		return
	}
	s.byEmail[email] = ids
}

func (s *InMemoryStore) ListByOwner(_ context.Context, owner id.Address) ([]*models.Experience, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(s.byOwner[owner]), nil
}

func (s *InMemoryStore) ListByEmployer(_ context.Context, employer id.Address) ([]*models.Experience, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(s.byEmployer[employer]), nil
}

func (s *InMemoryStore) ListByEmployerEmail(_ context.Context, email id.Email) ([]*models.Experience, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(s.byEmail[email]), nil
}

func (s *InMemoryStore) EmailBinding(_ context.Context, email id.Email) (*models.EmailBinding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	binding, ok := s.emailBindings[email]
	if !ok {
		return nil, ErrNotFound
	}
	return &binding, nil
}

func (s *InMemoryStore) collect(ids []id.ClaimID) []*models.Experience {
	out := make([]*models.Experience, 0, len(ids))
	for _, claimID := range ids {
		rec := s.records[claimID]
		out = append(out, &rec)
	}
	return out
}
