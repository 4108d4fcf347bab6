// Package registry maintains the in-memory skill index and the mutation
// service behind the dashboard API. Reads are served from an immutable
// snapshot that is replaced wholesale by scans; a single mutation lock in
// the service serializes everything that changes disk or index state.
package registry

import (
	"sync/atomic"
	"time"

	"github.com/jingkaihe/skilldeck/pkg/skills"
)

// Snapshot is an immutable view of the skill index. Read operations work
// against one snapshot and never observe a partial update.
type Snapshot struct {
	skills    []*skills.Skill
	byID      map[string]*skills.Skill
	scannedAt time.Time
}

// NewSnapshot builds a snapshot from scanner output. The slice is expected
// to be sorted by name with duplicate ids already dropped.
func NewSnapshot(list []*skills.Skill) *Snapshot {
	byID := make(map[string]*skills.Skill, len(list))
	for _, s := range list {
		byID[s.ID] = s
	}
	return &Snapshot{
		skills:    list,
		byID:      byID,
		scannedAt: time.Now(),
	}
}

// Skills returns all records ordered by name. Callers must not modify the
// returned slice.
func (s *Snapshot) Skills() []*skills.Skill {
	return s.skills
}

// Len returns the number of records in the snapshot
func (s *Snapshot) Len() int {
	return len(s.skills)
}

// ScannedAt returns when the snapshot's scan completed
func (s *Snapshot) ScannedAt() time.Time {
	return s.scannedAt
}

// Get returns the record with the given id
func (s *Snapshot) Get(id string) (*skills.Skill, bool) {
	skill, ok := s.byID[id]
	return skill, ok
}

// Filter returns records matching the query and category, preserving name
// order. An empty query matches every record; an empty category disables
// the category filter.
func (s *Snapshot) Filter(query string, category skills.Category) []*skills.Skill {
	matched := []*skills.Skill{}
	for _, skill := range s.skills {
		if category != "" && skill.Category != category {
			continue
		}
		if !skill.MatchesQuery(query) {
			continue
		}
		matched = append(matched, skill)
	}
	return matched
}

// CategoryCounts returns the number of records per category
func (s *Snapshot) CategoryCounts() map[skills.Category]int {
	counts := make(map[skills.Category]int)
	for _, skill := range s.skills {
		counts[skill.Category]++
	}
	return counts
}

// Remove returns a snapshot without the given id, preserving order. The
// receiver is unchanged; removing an absent id returns the receiver.
func (s *Snapshot) Remove(id string) *Snapshot {
	if _, ok := s.byID[id]; !ok {
		return s
	}

	remaining := make([]*skills.Skill, 0, len(s.skills)-1)
	byID := make(map[string]*skills.Skill, len(s.skills)-1)
	for _, skill := range s.skills {
		if skill.ID == id {
			continue
		}
		remaining = append(remaining, skill)
		byID[skill.ID] = skill
	}

	return &Snapshot{
		skills:    remaining,
		byID:      byID,
		scannedAt: s.scannedAt,
	}
}

// Index holds the current snapshot behind an atomic pointer so readers
// never block behind scans or deletes.
type Index struct {
	current atomic.Pointer[Snapshot]
}

// NewIndex creates an index primed with an empty snapshot
func NewIndex() *Index {
	idx := &Index{}
	idx.current.Store(NewSnapshot(nil))
	return idx
}

// Current returns the live snapshot
func (i *Index) Current() *Snapshot {
	return i.current.Load()
}

// Replace swaps in a new snapshot
func (i *Index) Replace(snap *Snapshot) {
	i.current.Store(snap)
}
