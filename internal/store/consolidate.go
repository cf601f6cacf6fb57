package store

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/companionlabs/keepsake/internal/model"
	"github.com/companionlabs/keepsake/internal/token"
)

// ConsolidationReport summarizes one consolidation pass.
type ConsolidationReport struct {
	GroupsMerged     int `json:"groups_merged"`
	RecordsRemoved   int `json:"records_removed"`
	SummariesCreated int `json:"summaries_created"`
}

// summaryContent is the payload of a consolidation summary record. It
// references the source records rather than interpreting their opaque
// contents.
type summaryContent struct {
	Summary  string    `json:"summary"`
	Sources  []string  `json:"sources"`
	Earliest time.Time `json:"earliest"`
	Latest   time.Time `json:"latest"`
}

// Consolidate merges aged short-term memories that share an identical
// association set into one long-term summary per group, removing the
// originals. The whole scan-group-merge-delete sequence runs under the
// partition lock, so no reader observes a half-merged state. A call
// that overlaps another consolidation of the same owner returns
// ErrConsolidationBusy instead of queueing.
func (s *Store) Consolidate(owner string) (ConsolidationReport, error) {
	var report ConsolidationReport
	if !validOwner(owner) {
		return report, ErrInvalidOwner
	}

	p := s.partition(owner)
	if !p.consolidateMu.TryLock() {
		return report, ErrConsolidationBusy
	}
	defer p.consolidateMu.Unlock()

	p.mu.Lock()
	defer p.mu.Unlock()

	cutoff := s.now().Add(-s.opts.ConsolidationAge)
	groups := make(map[string][]*model.Memory)
	for _, m := range p.records {
		if m.Type == model.TypeShortTerm && m.CreatedAt.Before(cutoff) {
			sig := token.Signature(m.Associations)
			groups[sig] = append(groups[sig], m)
		}
	}

	// Deterministic merge order regardless of map iteration.
	sigs := make([]string, 0, len(groups))
	for sig, group := range groups {
		if len(group) >= 2 {
			sigs = append(sigs, sig)
		}
	}
	sort.Strings(sigs)

	for _, sig := range sigs {
		group := groups[sig]
		sort.Slice(group, func(i, j int) bool {
			if !group[i].CreatedAt.Equal(group[j].CreatedAt) {
				return group[i].CreatedAt.Before(group[j].CreatedAt)
			}
			return group[i].ID < group[j].ID
		})

		summary := s.summarizeGroupLocked(p, owner, sig, group)

		for _, m := range group {
			p.removeLocked(m)
		}
		report.GroupsMerged++
		report.RecordsRemoved += len(group)
		report.SummariesCreated++

		s.log.WithFields(logrus.Fields{
			"owner":   owner,
			"merged":  len(group),
			"summary": summary,
		}).Debug("consolidated memory group")
	}

	return report, nil
}

// summarizeGroupLocked inserts the long-term summary for a group and
// returns its id. The summary carries the group's shared association
// signature and the maximum importance among the sources. Caller holds
// the partition lock; the insert bypasses the public Store path so it
// never counts toward the consolidation cadence.
func (s *Store) summarizeGroupLocked(p *partition, owner, sig string, group []*model.Memory) string {
	maxImportance := group[0].Importance
	sources := make([]string, len(group))
	for i, m := range group {
		sources[i] = m.ID
		if m.Importance > maxImportance {
			maxImportance = m.Importance
		}
	}

	content, _ := json.Marshal(summaryContent{
		Summary:  fmt.Sprintf("consolidated from %d short-term memories", len(group)),
		Sources:  sources,
		Earliest: group[0].CreatedAt,
		Latest:   group[len(group)-1].CreatedAt,
	})

	m := &model.Memory{
		ID:           s.newID(),
		Owner:        owner,
		Content:      content,
		Type:         model.TypeLongTerm,
		Associations: token.SplitSignature(sig),
		Importance:   maxImportance,
		CreatedAt:    s.now(),
	}
	p.insertLocked(m)
	return m.ID
}
