// Package store implements the per-owner associative memory core:
// record lifecycle, the association index, ranked retrieval, and
// consolidation of aged short-term records.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"

	"github.com/companionlabs/keepsake/internal/model"
)

var (
	// ErrInvalidOwner is returned when the owner identifier is blank.
	ErrInvalidOwner = errors.New("invalid owner identifier")

	// ErrInvalidType is returned for an unknown memory type.
	ErrInvalidType = errors.New("invalid memory type")

	// ErrConsolidationBusy is returned when a consolidation request
	// arrives while one is already in flight for the same owner.
	// Callers may retry later.
	ErrConsolidationBusy = errors.New("consolidation already in progress")

	// ErrDuplicateID is returned by Load when a record's id collides
	// with one already live in the partition (or within the batch).
	ErrDuplicateID = errors.New("duplicate memory id")
)

// Options tune store behavior. The zero value picks defaults.
type Options struct {
	// ConsolidationAge is how old a short-term memory must be before
	// it becomes a merge candidate. Negative removes the age
	// threshold; 0 picks the default of 7 days.
	ConsolidationAge time.Duration

	// CadenceInterval triggers a consolidation pass after every Nth
	// Store call on a partition. Negative disables the cadence;
	// 0 picks the default of 10.
	CadenceInterval int

	// RecencyHalfLifeDays controls how fast the recency boost decays.
	// Default 7.
	RecencyHalfLifeDays float64

	// RecencyWeight is the boost for a brand-new memory. Kept at or
	// below 1 so recency never outranks a full importance point.
	// Default 1.
	RecencyWeight float64

	// DefaultLimit applies when a retrieval call passes limit <= 0.
	// Default 20.
	DefaultLimit int

	// Logger receives index self-healing warnings and consolidation
	// summaries. Defaults to logrus.New().
	Logger *logrus.Logger

	// Now is the clock; injectable for deterministic tests.
	Now func() time.Time
}

func (o Options) withDefaults() Options {
	if o.ConsolidationAge == 0 {
		o.ConsolidationAge = 7 * 24 * time.Hour
	}
	if o.CadenceInterval == 0 {
		o.CadenceInterval = 10
	}
	if o.RecencyHalfLifeDays == 0 {
		o.RecencyHalfLifeDays = 7
	}
	if o.RecencyWeight == 0 {
		o.RecencyWeight = 1
	}
	if o.DefaultLimit == 0 {
		o.DefaultLimit = 20
	}
	if o.Logger == nil {
		o.Logger = logrus.New()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Store holds independent per-owner partitions. Partitions never share
// state, so operations on different owners run concurrently; every
// operation on one partition executes as a single critical section.
type Store struct {
	opts Options
	log  *logrus.Logger
	now  func() time.Time

	mu         sync.Mutex
	partitions map[string]*partition

	idMu    sync.Mutex
	entropy *rand.Rand
}

// New creates an empty store.
func New(opts Options) *Store {
	opts = opts.withDefaults()
	return &Store{
		opts:       opts,
		log:        opts.Logger,
		now:        opts.Now,
		partitions: make(map[string]*partition),
		entropy:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (s *Store) newID() string {
	s.idMu.Lock()
	defer s.idMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(s.now()), s.entropy).String()
}

// partition returns the owner's partition, creating it on first use.
func (s *Store) partition(owner string) *partition {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.partitions[owner]
	if !ok {
		p = newPartition()
		s.partitions[owner] = p
	}
	return p
}

func validOwner(owner string) bool {
	return strings.TrimSpace(owner) != ""
}

// StoreParams holds parameters for storing a memory.
type StoreParams struct {
	Owner        string
	Content      json.RawMessage
	Type         model.MemoryType
	Associations []string
	Importance   float64
}

// Store creates a new memory record and indexes its associations.
// Returns the assigned id. Every Nth call per owner also runs a
// consolidation pass (a busy result from that pass is ignored).
func (s *Store) Store(p StoreParams) (string, error) {
	if !validOwner(p.Owner) {
		return "", ErrInvalidOwner
	}
	typ := p.Type
	if typ == "" {
		typ = model.TypeShortTerm
	}
	if !model.ValidTypes[typ] {
		return "", fmt.Errorf("%w: %q", ErrInvalidType, p.Type)
	}

	m := &model.Memory{
		ID:           s.newID(),
		Owner:        p.Owner,
		Content:      append(json.RawMessage(nil), p.Content...),
		Type:         typ,
		Associations: model.NormalizeAssociations(p.Associations),
		Importance:   model.ClampImportance(p.Importance),
		CreatedAt:    s.now(),
	}

	part := s.partition(p.Owner)
	part.mu.Lock()
	part.insertLocked(m)
	part.stores++
	due := s.opts.CadenceInterval > 0 && part.stores%s.opts.CadenceInterval == 0
	part.mu.Unlock()

	if due {
		if _, err := s.Consolidate(p.Owner); err != nil && !errors.Is(err, ErrConsolidationBusy) {
			s.log.WithError(err).WithField("owner", p.Owner).Debug("cadence consolidation failed")
		}
	}

	return m.ID, nil
}

// Get returns a copy of the record, or nil if it does not exist.
// Plain lookups do not touch access metadata; only the ranked
// retrieval paths do.
func (s *Store) Get(owner, id string) (*model.Memory, error) {
	if !validOwner(owner) {
		return nil, ErrInvalidOwner
	}
	p := s.partition(owner)
	p.mu.Lock()
	defer p.mu.Unlock()

	m, ok := p.records[id]
	if !ok {
		return nil, nil
	}
	c := m.Clone()
	return &c, nil
}

// Forget removes a record and every one of its index entries in one
// critical section. Returns false if no such record exists, so a
// second call on the same id reports false.
func (s *Store) Forget(owner, id string) (bool, error) {
	if !validOwner(owner) {
		return false, ErrInvalidOwner
	}
	p := s.partition(owner)
	p.mu.Lock()
	defer p.mu.Unlock()

	m, ok := p.records[id]
	if !ok {
		return false, nil
	}
	p.removeLocked(m)
	return true, nil
}

// Load bulk-loads records with their original identity preserved, for
// snapshot restore. It validates the whole batch before touching the
// partition, never counts toward the consolidation cadence, and
// returns the number of records loaded.
func (s *Store) Load(owner string, records []model.Memory) (int, error) {
	if !validOwner(owner) {
		return 0, ErrInvalidOwner
	}

	p := s.partition(owner)
	p.mu.Lock()
	defer p.mu.Unlock()

	seen := make(map[string]bool, len(records))
	for _, m := range records {
		if m.ID == "" {
			return 0, fmt.Errorf("load: record without id")
		}
		if !model.ValidTypes[m.Type] {
			return 0, fmt.Errorf("load %s: %w: %q", m.ID, ErrInvalidType, m.Type)
		}
		if seen[m.ID] || p.records[m.ID] != nil {
			return 0, fmt.Errorf("load %s: %w", m.ID, ErrDuplicateID)
		}
		seen[m.ID] = true
	}

	for _, m := range records {
		c := m.Clone()
		c.Owner = owner
		c.Associations = model.NormalizeAssociations(c.Associations)
		c.Importance = model.ClampImportance(c.Importance)
		p.insertLocked(&c)
	}
	return len(records), nil
}

// Export returns a copy of every record in the partition, ordered by
// creation time then id, for the snapshot collaborator to serialize.
func (s *Store) Export(owner string) ([]model.Memory, error) {
	if !validOwner(owner) {
		return nil, ErrInvalidOwner
	}
	p := s.partition(owner)
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]model.Memory, 0, len(p.records))
	for _, m := range p.records {
		out = append(out, m.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}
