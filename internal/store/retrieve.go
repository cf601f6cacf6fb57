package store

import (
	"math"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/companionlabs/keepsake/internal/model"
	"github.com/companionlabs/keepsake/internal/token"
)

// recencyBoostAt is a monotonically decreasing function of a record's
// age: a half-life exponential scaled by RecencyWeight.
func (s *Store) recencyBoostAt(m *model.Memory) float64 {
	ageDays := s.now().Sub(m.CreatedAt).Hours() / 24
	if ageDays < 0 {
		ageDays = 0
	}
	return s.opts.RecencyWeight * math.Exp(-math.Ln2*ageDays/s.opts.RecencyHalfLifeDays)
}

func (s *Store) limitOrDefault(limit int) int {
	if limit <= 0 {
		return s.opts.DefaultLimit
	}
	return limit
}

// RetrieveByAssociation returns the memories carrying the given token,
// ranked by importance plus a recency boost (newer wins ties) and
// truncated to limit. Returned records get their access metadata
// updated. An unknown token yields an empty result, not an error.
func (s *Store) RetrieveByAssociation(owner, tok string, limit int) ([]model.Memory, error) {
	if !validOwner(owner) {
		return nil, ErrInvalidOwner
	}
	p := s.partition(owner)
	p.mu.Lock()
	defer p.mu.Unlock()

	live, stale := p.resolveBucketLocked(tok)
	s.reportStale(owner, tok, stale)
	if len(live) == 0 {
		return nil, nil
	}

	scores := make(map[string]float64, len(live))
	for _, m := range live {
		scores[m.ID] = m.Importance + s.recencyBoostAt(m)
	}
	sort.SliceStable(live, func(i, j int) bool {
		si, sj := scores[live[i].ID], scores[live[j].ID]
		if si != sj {
			return si > sj
		}
		return live[i].CreatedAt.After(live[j].CreatedAt)
	})

	if len(live) > s.limitOrDefault(limit) {
		live = live[:s.limitOrDefault(limit)]
	}
	return s.markAccessedLocked(live), nil
}

// RetrieveByContext extracts terms from free text, counts how many
// terms each candidate's index entries match, and ranks by match
// count, then importance, then newest creation time. Only the records
// ultimately returned get access metadata updates.
func (s *Store) RetrieveByContext(owner, text string, limit int) ([]model.Memory, error) {
	if !validOwner(owner) {
		return nil, ErrInvalidOwner
	}
	terms := token.Extract(text)
	if len(terms) == 0 {
		return nil, nil
	}

	p := s.partition(owner)
	p.mu.Lock()
	defer p.mu.Unlock()

	matches := make(map[string]int)
	for _, term := range terms {
		live, stale := p.resolveBucketLocked(term)
		s.reportStale(owner, term, stale)
		for _, m := range live {
			matches[m.ID]++
		}
	}
	if len(matches) == 0 {
		return nil, nil
	}

	candidates := make([]*model.Memory, 0, len(matches))
	for id := range matches {
		candidates = append(candidates, p.records[id])
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		mi, mj := matches[candidates[i].ID], matches[candidates[j].ID]
		if mi != mj {
			return mi > mj
		}
		if candidates[i].Importance != candidates[j].Importance {
			return candidates[i].Importance > candidates[j].Importance
		}
		return candidates[i].CreatedAt.After(candidates[j].CreatedAt)
	})

	if len(candidates) > s.limitOrDefault(limit) {
		candidates = candidates[:s.limitOrDefault(limit)]
	}
	return s.markAccessedLocked(candidates), nil
}

// GetEpisodicTimeline returns episodic memories newest-first. It is a
// pure read: access metadata is left alone so UI-style polling has no
// side effects.
func (s *Store) GetEpisodicTimeline(owner string, limit int) ([]model.Memory, error) {
	if !validOwner(owner) {
		return nil, ErrInvalidOwner
	}
	p := s.partition(owner)
	p.mu.Lock()
	defer p.mu.Unlock()

	var episodic []*model.Memory
	for _, m := range p.records {
		if m.Type == model.TypeEpisodic {
			episodic = append(episodic, m)
		}
	}
	sort.SliceStable(episodic, func(i, j int) bool {
		if !episodic[i].CreatedAt.Equal(episodic[j].CreatedAt) {
			return episodic[i].CreatedAt.After(episodic[j].CreatedAt)
		}
		return episodic[i].ID > episodic[j].ID
	})

	if len(episodic) > s.limitOrDefault(limit) {
		episodic = episodic[:s.limitOrDefault(limit)]
	}
	out := make([]model.Memory, len(episodic))
	for i, m := range episodic {
		out[i] = m.Clone()
	}
	return out, nil
}

// markAccessedLocked stamps access metadata on the records being
// returned and hands back detached copies. Caller holds the partition
// lock.
func (s *Store) markAccessedLocked(records []*model.Memory) []model.Memory {
	now := s.now()
	out := make([]model.Memory, len(records))
	for i, m := range records {
		t := now
		m.LastAccessedAt = &t
		m.AccessCount++
		out[i] = m.Clone()
	}
	return out
}

// reportStale logs healed index entries. A stale entry means an index
// bucket referenced a dead or re-tagged record, which the mutation
// paths should make impossible; it is a defect signal, not a caller
// error.
func (s *Store) reportStale(owner, tok string, stale []string) {
	for _, id := range stale {
		s.log.WithFields(logrus.Fields{
			"owner": owner,
			"token": tok,
			"id":    id,
		}).Warn("healed stale association index entry")
	}
}
