package client

import (
	"context"
	"strings"
	"sync"

	"anime-character-catalog/backend/internal/models"

	"github.com/google/uuid"
)

// API is the part of Client that State drives.
type API interface {
	List(ctx context.Context, query models.ListQuery) ([]models.Character, error)
	Get(ctx context.Context, id string) (*models.Character, error)
	Create(ctx context.Context, req *models.CreateCharacterRequest) (*models.Character, error)
	Update(ctx context.Context, id string, req *models.UpdateCharacterRequest) (*models.Character, error)
	Delete(ctx context.Context, id string) error
}

// Snapshot is a consistent copy of State.
type Snapshot struct {
	Records []models.Character
	Current *models.Character
	// Filtered is nil when no text filter is applied.
	Filtered []models.Character
	Error    error
	Loading  bool
}

// State mirrors the remote collection. Every transition holds the lock only
// while mutating, so overlapping calls complete independently and the last
// one to resolve wins.
type State struct {
	api API

	mu       sync.RWMutex
	records  []models.Character
	current  *models.Character
	filtered []models.Character
	err      error
	loading  bool
}

// NewState returns an empty State that is loading until the first FetchAll.
func NewState(api API) *State {
	return &State{
		api:     api,
		records: []models.Character{},
		loading: true,
	}
}

// Snapshot returns a copy of the current state.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Records: append([]models.Character{}, s.records...),
		Error:   s.err,
		Loading: s.loading,
	}
	if s.filtered != nil {
		snap.Filtered = append([]models.Character{}, s.filtered...)
	}
	if s.current != nil {
		current := *s.current
		snap.Current = &current
	}
	return snap
}

func (s *State) Records() []models.Character {
	return s.Snapshot().Records
}

func (s *State) Current() *models.Character {
	return s.Snapshot().Current
}

func (s *State) Filtered() []models.Character {
	return s.Snapshot().Filtered
}

func (s *State) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

func (s *State) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

func (s *State) fail(err error) error {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
	return err
}

// FetchAll replaces the records with the full remote list.
func (s *State) FetchAll(ctx context.Context) error {
	characters, err := s.api.List(ctx, models.ListQuery{})

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.err = err
		return err
	}
	s.records = characters
	s.err = nil
	return nil
}

// FetchOne loads a single record into Current.
func (s *State) FetchOne(ctx context.Context, id string) (*models.Character, error) {
	character, err := s.api.Get(ctx, id)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.err = err
		return nil, err
	}
	s.current = character
	s.err = nil
	return character, nil
}

// Create stores a new record and prepends it to Records.
func (s *State) Create(ctx context.Context, req *models.CreateCharacterRequest) (*models.Character, error) {
	character, err := s.api.Create(ctx, req)
	if err != nil {
		return nil, s.fail(err)
	}

	s.mu.Lock()
	s.records = append([]models.Character{*character}, s.records...)
	s.err = nil
	s.mu.Unlock()
	return character, nil
}

// Update replaces the matching record in place.
func (s *State) Update(ctx context.Context, id string, req *models.UpdateCharacterRequest) (*models.Character, error) {
	character, err := s.api.Update(ctx, id, req)
	if err != nil {
		return nil, s.fail(err)
	}

	s.mu.Lock()
	for i := range s.records {
		if s.records[i].ID == character.ID {
			s.records[i] = *character
			break
		}
	}
	if s.current != nil && s.current.ID == character.ID {
		current := *character
		s.current = &current
	}
	s.err = nil
	s.mu.Unlock()
	return character, nil
}

// Remove deletes the record remotely and drops it from Records.
func (s *State) Remove(ctx context.Context, id string) error {
	if err := s.api.Delete(ctx, id); err != nil {
		return s.fail(err)
	}

	parsed, parseErr := uuid.Parse(id)

	s.mu.Lock()
	defer s.mu.Unlock()
	if parseErr == nil {
		kept := s.records[:0:0]
		for _, c := range s.records {
			if c.ID != parsed {
				kept = append(kept, c)
			}
		}
		s.records = kept
		if s.current != nil && s.current.ID == parsed {
			s.current = nil
		}
	}
	s.err = nil
	return nil
}

// ApplyTextFilter narrows Records to those whose name, anime or any ability
// contains text, ignoring case. An empty text clears the filter.
func (s *State) ApplyTextFilter(text string) []models.Character {
	text = strings.ToLower(strings.TrimSpace(text))

	s.mu.Lock()
	defer s.mu.Unlock()
	if text == "" {
		s.filtered = nil
		return nil
	}

	filtered := []models.Character{}
	for _, c := range s.records {
		if matchesText(c, text) {
			filtered = append(filtered, c)
		}
	}
	s.filtered = filtered
	return append([]models.Character{}, filtered...)
}

func matchesText(c models.Character, lowered string) bool {
	if strings.Contains(strings.ToLower(c.Name), lowered) || strings.Contains(strings.ToLower(c.Anime), lowered) {
		return true
	}
	for _, ability := range c.Abilities {
		if strings.Contains(strings.ToLower(ability), lowered) {
			return true
		}
	}
	return false
}

func (s *State) ClearFilter() {
	s.mu.Lock()
	s.filtered = nil
	s.mu.Unlock()
}

func (s *State) SetCurrent(character *models.Character) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if character == nil {
		s.current = nil
		return
	}
	current := *character
	s.current = &current
}

func (s *State) ClearCurrent() {
	s.SetCurrent(nil)
}

// Clear resets records, filter, error and current. Loading is left as is.
func (s *State) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = []models.Character{}
	s.filtered = nil
	s.err = nil
	s.current = nil
}
