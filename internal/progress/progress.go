package progress

import (
	"sort"
	"sync"
)

// Progress is a player's position in the stage sequence.
type Progress struct {
	PlayerID     string
	StageID      string
	BlocksBroken int
}

// Store holds the in-memory progress of every known player. It is only
// mutated through Engine.
type Store struct {
	players map[string]Progress
	mu      sync.RWMutex
}

func NewStore() *Store {
	return &Store{players: map[string]Progress{}}
}

func (s *Store) Get(playerID string) (Progress, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.players[playerID]
	return p, ok
}

func (s *Store) put(p Progress) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.players[p.PlayerID] = p
}

func (s *Store) remove(playerID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.players[playerID]
	delete(s.players, playerID)
	return ok
}

func (s *Store) replace(all []Progress) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.players = make(map[string]Progress, len(all))
	for _, p := range all {
		s.players[p.PlayerID] = p
	}
}

// Len returns the number of players with progress.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.players)
}

// All returns a snapshot of every player's progress ordered by player id.
func (s *Store) All() []Progress {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]Progress, 0, len(s.players))
	for _, p := range s.players {
		all = append(all, p)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].PlayerID < all[j].PlayerID })
	return all
}
