package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/companionlabs/keepsake/internal/model"
)

func TestRetrieveByAssociation_RoundTrip(t *testing.T) {
	s := newTestStore(newFakeClock())
	id := mustStore(t, s, StoreParams{
		Owner:        "ava",
		Content:      textContent("remember this"),
		Associations: []string{"anniversary"},
	})

	results, err := s.RetrieveByAssociation("ava", "anniversary", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, id, results[0].ID)
}

func TestRetrieveByAssociation_EmptyBucket(t *testing.T) {
	s := newTestStore(newFakeClock())
	results, err := s.RetrieveByAssociation("ava", "nothing", 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRetrieveByAssociation_RanksByImportanceThenRecency(t *testing.T) {
	// Scenario: three records all tagged {work, deadline} with
	// importances 5, 7, 3 at increasing timestamps. "work" with
	// limit 2 returns the 7 first, then the 5.
	clock := newFakeClock()
	s := newTestStore(clock)

	tags := []string{"work", "deadline"}
	id5 := mustStore(t, s, StoreParams{Owner: "ava", Content: textContent("a"), Associations: tags, Importance: 5})
	clock.Advance(time.Hour)
	id7 := mustStore(t, s, StoreParams{Owner: "ava", Content: textContent("b"), Associations: tags, Importance: 7})
	clock.Advance(time.Hour)
	mustStore(t, s, StoreParams{Owner: "ava", Content: textContent("c"), Associations: tags, Importance: 3})

	results, err := s.RetrieveByAssociation("ava", "work", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, id7, results[0].ID)
	assert.Equal(t, id5, results[1].ID)
}

func TestRetrieveByAssociation_EqualImportanceNewerFirst(t *testing.T) {
	clock := newFakeClock()
	s := newTestStore(clock)

	mustStore(t, s, StoreParams{Owner: "ava", Content: textContent("old"), Associations: []string{"tag"}, Importance: 5})
	clock.Advance(24 * time.Hour)
	newer := mustStore(t, s, StoreParams{Owner: "ava", Content: textContent("new"), Associations: []string{"tag"}, Importance: 5})

	results, err := s.RetrieveByAssociation("ava", "tag", 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, newer, results[0].ID)
}

func TestRetrieveByAssociation_RecencyNeverOutranksImportance(t *testing.T) {
	clock := newFakeClock()
	s := newTestStore(clock)

	high := mustStore(t, s, StoreParams{Owner: "ava", Content: textContent("old but vital"), Associations: []string{"tag"}, Importance: 8})
	clock.Advance(60 * 24 * time.Hour)
	mustStore(t, s, StoreParams{Owner: "ava", Content: textContent("fresh but minor"), Associations: []string{"tag"}, Importance: 2})

	results, err := s.RetrieveByAssociation("ava", "tag", 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, high, results[0].ID)
}

func TestRetrieveByAssociation_ScoresReadClockOncePerCandidate(t *testing.T) {
	clock := newFakeClock()
	reads := 0
	s := New(Options{
		CadenceInterval: -1,
		Logger:          quietLogger(),
		Now: func() time.Time {
			reads++
			return clock.Now()
		},
	})

	for i := 0; i < 8; i++ {
		mustStore(t, s, StoreParams{Owner: "ava", Content: textContent("note"), Associations: []string{"work"}, Importance: float64(i)})
	}

	reads = 0
	results, err := s.RetrieveByAssociation("ava", "work", 10)
	require.NoError(t, err)
	require.Len(t, results, 8)

	// Scores are fixed before sorting: one clock read per candidate
	// plus one for the access stamp. A comparator that consulted the
	// clock per comparison would read it far more often and could
	// rank the same record differently mid-sort.
	assert.LessOrEqual(t, reads, len(results)+1)
}

func TestRetrieveByAssociation_MarksAccess(t *testing.T) {
	clock := newFakeClock()
	s := newTestStore(clock)
	id := mustStore(t, s, StoreParams{Owner: "ava", Content: textContent("x"), Associations: []string{"tag"}})

	results, err := s.RetrieveByAssociation("ava", "tag", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 1, results[0].AccessCount)
	require.NotNil(t, results[0].LastAccessedAt)
	assert.True(t, results[0].LastAccessedAt.Equal(clock.Now()))

	// The update sticks on the stored record.
	m, err := s.Get("ava", id)
	require.NoError(t, err)
	assert.Equal(t, 1, m.AccessCount)
}

func TestRetrieveByAssociation_TruncatesToLimit(t *testing.T) {
	s := newTestStore(newFakeClock())
	for i := 0; i < 5; i++ {
		mustStore(t, s, StoreParams{Owner: "ava", Content: textContent("x"), Associations: []string{"tag"}, Importance: float64(i)})
	}

	results, err := s.RetrieveByAssociation("ava", "tag", 3)
	require.NoError(t, err)
	assert.Len(t, results, 3)

	// Records beyond the limit keep their access metadata untouched.
	total := 0
	exported, err := s.Export("ava")
	require.NoError(t, err)
	for _, m := range exported {
		total += m.AccessCount
	}
	assert.Equal(t, 3, total)
}

func TestRetrieveByContext_MatchCountPrimary(t *testing.T) {
	clock := newFakeClock()
	s := newTestStore(clock)

	both := mustStore(t, s, StoreParams{
		Owner: "ava", Content: textContent("a"),
		Associations: []string{"garden", "tomato"}, Importance: 1,
	})
	one := mustStore(t, s, StoreParams{
		Owner: "ava", Content: textContent("b"),
		Associations: []string{"garden"}, Importance: 9,
	})

	results, err := s.RetrieveByContext("ava", "the garden tomato plants", 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, both, results[0].ID, "two matched terms beat one despite lower importance")
	assert.Equal(t, one, results[1].ID)
}

func TestRetrieveByContext_ImportanceThenRecencyTieBreaks(t *testing.T) {
	clock := newFakeClock()
	s := newTestStore(clock)

	mustStore(t, s, StoreParams{Owner: "ava", Content: textContent("low"), Associations: []string{"garden"}, Importance: 2})
	high := mustStore(t, s, StoreParams{Owner: "ava", Content: textContent("high"), Associations: []string{"garden"}, Importance: 8})
	clock.Advance(time.Hour)
	newest := mustStore(t, s, StoreParams{Owner: "ava", Content: textContent("tie"), Associations: []string{"garden"}, Importance: 8})

	results, err := s.RetrieveByContext("ava", "garden", 10)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, newest, results[0].ID)
	assert.Equal(t, high, results[1].ID)
}

func TestRetrieveByContext_IgnoresShortTerms(t *testing.T) {
	s := newTestStore(newFakeClock())
	mustStore(t, s, StoreParams{Owner: "ava", Content: textContent("x"), Associations: []string{"sun"}})

	// "sun" is under the minimum term length, so it never matches.
	results, err := s.RetrieveByContext("ava", "sun out today", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRetrieveByContext_NoMatches(t *testing.T) {
	s := newTestStore(newFakeClock())
	mustStore(t, s, StoreParams{Owner: "ava", Content: textContent("x"), Associations: []string{"garden"}})

	results, err := s.RetrieveByContext("ava", "completely unrelated topics", 10)
	require.NoError(t, err)
	assert.Empty(t, results)

	results, err = s.RetrieveByContext("ava", "", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestGetEpisodicTimeline_FiltersAndSorts(t *testing.T) {
	// Scenario: one episodic and one semantic record; the timeline
	// returns only the episodic one.
	clock := newFakeClock()
	s := newTestStore(clock)

	first := mustStore(t, s, StoreParams{Owner: "ava", Content: textContent("walk"), Type: model.TypeEpisodic})
	mustStore(t, s, StoreParams{Owner: "ava", Content: textContent("fact"), Type: model.TypeSemantic})
	clock.Advance(time.Hour)
	second := mustStore(t, s, StoreParams{Owner: "ava", Content: textContent("dinner"), Type: model.TypeEpisodic})

	results, err := s.GetEpisodicTimeline("ava", 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, second, results[0].ID)
	assert.Equal(t, first, results[1].ID)
}

func TestGetEpisodicTimeline_PureRead(t *testing.T) {
	s := newTestStore(newFakeClock())
	id := mustStore(t, s, StoreParams{Owner: "ava", Content: textContent("walk"), Type: model.TypeEpisodic})

	_, err := s.GetEpisodicTimeline("ava", 10)
	require.NoError(t, err)

	m, err := s.Get("ava", id)
	require.NoError(t, err)
	assert.Equal(t, 0, m.AccessCount)
	assert.Nil(t, m.LastAccessedAt)
}

func TestGetEpisodicTimeline_Limit(t *testing.T) {
	clock := newFakeClock()
	s := newTestStore(clock)
	for i := 0; i < 4; i++ {
		mustStore(t, s, StoreParams{Owner: "ava", Content: textContent("e"), Type: model.TypeEpisodic})
		clock.Advance(time.Minute)
	}

	results, err := s.GetEpisodicTimeline("ava", 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestRetrieve_SelfHealsStaleIndexEntry(t *testing.T) {
	s := newTestStore(newFakeClock())
	id := mustStore(t, s, StoreParams{Owner: "ava", Content: textContent("x"), Associations: []string{"tag"}})
	keep := mustStore(t, s, StoreParams{Owner: "ava", Content: textContent("y"), Associations: []string{"tag"}})

	// Corrupt the partition by removing the record without index
	// cleanup, the defect the resolve step must heal.
	p := s.partition("ava")
	p.mu.Lock()
	delete(p.records, id)
	p.mu.Unlock()

	results, err := s.RetrieveByAssociation("ava", "tag", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, keep, results[0].ID)

	// The stale entry is gone, not just skipped.
	p.mu.Lock()
	assert.Equal(t, []string{keep}, p.index["tag"])
	p.mu.Unlock()
}
