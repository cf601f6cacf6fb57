// Package model defines the core memory data types.
package model

import (
	"encoding/json"
	"strings"
	"time"
)

// MemoryType classifies a memory and determines which lifecycle paths
// apply to it: only short-term memories are consolidation candidates,
// and timeline reads select only episodic ones.
type MemoryType string

const (
	TypeShortTerm MemoryType = "short-term"
	TypeLongTerm  MemoryType = "long-term"
	TypeEpisodic  MemoryType = "episodic"
	TypeSemantic  MemoryType = "semantic"
)

// ValidTypes are the allowed memory types.
var ValidTypes = map[MemoryType]bool{
	TypeShortTerm: true,
	TypeLongTerm:  true,
	TypeEpisodic:  true,
	TypeSemantic:  true,
}

// Memory represents a stored memory record. Content is an opaque
// payload; the store never interprets it. After creation only the
// access-tracking fields change.
type Memory struct {
	ID             string          `json:"id"`
	Owner          string          `json:"owner"`
	Content        json.RawMessage `json:"content"`
	Type           MemoryType      `json:"type"`
	Associations   []string        `json:"associations,omitempty"`
	Importance     float64         `json:"importance"`
	CreatedAt      time.Time       `json:"created_at"`
	LastAccessedAt *time.Time      `json:"last_accessed_at,omitempty"`
	AccessCount    int             `json:"access_count"`
}

// Clone returns a deep copy, so callers can hold results without
// observing later mutation of access metadata.
func (m Memory) Clone() Memory {
	c := m
	if m.Content != nil {
		c.Content = append(json.RawMessage(nil), m.Content...)
	}
	if m.Associations != nil {
		c.Associations = append([]string(nil), m.Associations...)
	}
	if m.LastAccessedAt != nil {
		t := *m.LastAccessedAt
		c.LastAccessedAt = &t
	}
	return c
}

// ClampImportance bounds an importance score to [0, 10].
func ClampImportance(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 10 {
		return 10
	}
	return v
}

// NormalizeAssociations trims tokens, drops empties, and removes
// duplicates while preserving first-appearance order.
func NormalizeAssociations(tokens []string) []string {
	if len(tokens) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(tokens))
	var out []string
	for _, t := range tokens {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
