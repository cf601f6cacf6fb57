package store

import (
	"sync"

	"github.com/companionlabs/keepsake/internal/model"
)

// partition is one owner's records plus the association index that
// mirrors them. Both mutate only under mu, so no caller can observe a
// record without its index entries or an index entry without its
// record. consolidateMu is a separate guard: Consolidate try-locks it
// so an overlapping request fails fast instead of queueing.
type partition struct {
	mu            sync.Mutex
	consolidateMu sync.Mutex

	records map[string]*model.Memory
	index   map[string][]string // token -> record ids, insertion order
	stores  int                 // Store calls since creation, drives cadence
}

func newPartition() *partition {
	return &partition{
		records: make(map[string]*model.Memory),
		index:   make(map[string][]string),
	}
}

// insertLocked registers a record and indexes every association token.
// Caller holds mu.
func (p *partition) insertLocked(m *model.Memory) {
	p.records[m.ID] = m
	for _, tok := range m.Associations {
		p.index[tok] = append(p.index[tok], m.ID)
	}
}

// removeLocked deletes a record and strips its id from every one of
// its token buckets. Buckets belonging to other records are never
// touched. Caller holds mu.
func (p *partition) removeLocked(m *model.Memory) {
	delete(p.records, m.ID)
	for _, tok := range m.Associations {
		p.indexRemoveLocked(tok, m.ID)
	}
}

func (p *partition) indexRemoveLocked(token, id string) {
	bucket := p.index[token]
	for i, v := range bucket {
		if v == id {
			bucket = append(bucket[:i], bucket[i+1:]...)
			break
		}
	}
	if len(bucket) == 0 {
		delete(p.index, token)
	} else {
		p.index[token] = bucket
	}
}

// resolveBucketLocked maps a token bucket to live records. A bucket
// entry that does not resolve, or resolves to a record that no longer
// carries the token, is an invariant violation: it is reported through
// the returned stale list and healed by dropping the entry.
func (p *partition) resolveBucketLocked(token string) (live []*model.Memory, stale []string) {
	for _, id := range p.index[token] {
		m, ok := p.records[id]
		if !ok || !hasToken(m, token) {
			stale = append(stale, id)
			continue
		}
		live = append(live, m)
	}
	for _, id := range stale {
		p.indexRemoveLocked(token, id)
	}
	return live, stale
}

func hasToken(m *model.Memory, token string) bool {
	for _, t := range m.Associations {
		if t == token {
			return true
		}
	}
	return false
}
