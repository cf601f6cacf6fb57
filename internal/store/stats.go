package store

import "github.com/companionlabs/keepsake/internal/model"

// OwnerStats holds per-partition counts.
type OwnerStats struct {
	Owner   string                   `json:"owner"`
	Records int                      `json:"records"`
	ByType  map[model.MemoryType]int `json:"by_type"`
	Tokens  int                      `json:"tokens"`
}

// Stats returns counts for one owner partition.
func (s *Store) Stats(owner string) (OwnerStats, error) {
	st := OwnerStats{Owner: owner, ByType: make(map[model.MemoryType]int)}
	if !validOwner(owner) {
		return st, ErrInvalidOwner
	}

	p := s.partition(owner)
	p.mu.Lock()
	defer p.mu.Unlock()

	st.Records = len(p.records)
	st.Tokens = len(p.index)
	for _, m := range p.records {
		st.ByType[m.Type]++
	}
	return st, nil
}
