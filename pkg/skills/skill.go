// Package skills models locally installed agent skills. A skill is a
// directory containing a SKILL.md file whose YAML frontmatter describes the
// skill; everything else in the directory travels with it. The package
// provides the frontmatter parser, the category classifier, and the
// filesystem scanner that turns skill roots into records.
package skills

import (
	"strings"
	"time"
)

// Skill is a discovered skill folder with its parsed metadata
type Skill struct {
	ID          string    // Folder name, unique within a snapshot
	Name        string    // Display name from frontmatter, folder name when absent
	Description string    // From frontmatter, first body line when absent
	Category    Category  // Never empty, defaults to CategoryOther
	Tags        []string  // Optional frontmatter tags
	Path        string    // Absolute path to the skill directory
	Source      string    // Name of the root the skill was found under
	Content     string    // SKILL.md body with frontmatter stripped
	Modified    time.Time // SKILL.md modification time
	Size        int64     // Total byte size of the directory
	Symlink     bool      // Whether the skill directory is a symlink
}

// Root is a configured scan root. Name identifies the root in skill records
// and anchors the containment check on delete.
type Root struct {
	Name string
	Path string
}

// MatchesQuery reports whether query is a case-insensitive substring of the
// skill's name or description. An empty query matches everything.
func (s *Skill) MatchesQuery(query string) bool {
	if query == "" {
		return true
	}
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(s.Name), q) ||
		strings.Contains(strings.ToLower(s.Description), q)
}
