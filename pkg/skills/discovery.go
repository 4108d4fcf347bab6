package skills

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/jingkaihe/skilldeck/pkg/logger"
)

const skillFileName = "SKILL.md"

// Scanner discovers skills from configured root directories
type Scanner struct {
	roots      []Root
	excludes   []string
	classifier *Classifier
}

// ScannerOption is a function that configures a Scanner
type ScannerOption func(*Scanner) error

// WithRoots sets the scan roots in precedence order
func WithRoots(roots ...Root) ScannerOption {
	return func(s *Scanner) error {
		s.roots = roots
		return nil
	}
}

// WithDefaultRoots initializes the standard agent skill roots
func WithDefaultRoots() ScannerOption {
	return func(s *Scanner) error {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return errors.Wrap(err, "failed to get user home directory")
		}
		s.roots = []Root{
			{Name: "skills", Path: filepath.Join(homeDir, ".claude", "skills")},
			{Name: "commands", Path: filepath.Join(homeDir, ".claude", "commands")},
		}
		return nil
	}
}

// WithExcludes sets folder name patterns skipped during scans
func WithExcludes(patterns ...string) ScannerOption {
	return func(s *Scanner) error {
		for _, pattern := range patterns {
			if !doublestar.ValidatePattern(pattern) {
				return errors.Errorf("invalid exclude pattern %q", pattern)
			}
		}
		s.excludes = patterns
		return nil
	}
}

// WithClassifier sets the category classifier applied to skills whose
// frontmatter declares no category
func WithClassifier(c *Classifier) ScannerOption {
	return func(s *Scanner) error {
		s.classifier = c
		return nil
	}
}

// NewScanner creates a new skill scanner. Root paths are made absolute so
// containment checks downstream have a stable base.
func NewScanner(opts ...ScannerOption) (*Scanner, error) {
	s := &Scanner{}

	if len(opts) == 0 {
		if err := WithDefaultRoots()(s); err != nil {
			return nil, err
		}
	} else {
		for _, opt := range opts {
			if err := opt(s); err != nil {
				return nil, err
			}
		}
	}

	for i, root := range s.roots {
		abs, err := filepath.Abs(root.Path)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to resolve root %q", root.Path)
		}
		s.roots[i].Path = abs
		if s.roots[i].Name == "" {
			s.roots[i].Name = filepath.Base(abs)
		}
	}

	return s, nil
}

// Roots returns the configured scan roots
func (s *Scanner) Roots() []Root {
	return s.roots
}

// ScanReport records non-fatal problems from a scan pass
type ScanReport struct {
	Skipped  int   // folders with a SKILL.md that produced no record
	Failures error // aggregated read and parse failures
}

// Scan walks every root and returns all discovered skills sorted by name.
// Folders whose SKILL.md cannot be read or parsed are skipped and recorded
// in the report; they never abort the scan. When the same folder name
// appears under multiple roots the first root in configuration order wins.
func (s *Scanner) Scan(ctx context.Context) ([]*Skill, *ScanReport, error) {
	log := logger.G(ctx)
	report := &ScanReport{}
	found := []*Skill{}
	seen := make(map[string]string)

	for _, root := range s.roots {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		entries, err := os.ReadDir(root.Path)
		if err != nil {
			log.WithField("root", root.Path).WithError(err).Debug("skipping unreadable root")
			continue
		}

		for _, entry := range entries {
			skill, err := s.scanEntry(root, entry)
			if err != nil {
				report.Skipped++
				report.Failures = multierror.Append(report.Failures, err)
				log.WithFields(logrus.Fields{
					"root":   root.Name,
					"folder": entry.Name(),
				}).WithError(err).Warn("skipping unparseable skill")
				continue
			}
			if skill == nil {
				continue
			}

			if kept, dup := seen[skill.ID]; dup {
				report.Skipped++
				log.WithFields(logrus.Fields{
					"id":      skill.ID,
					"kept":    kept,
					"dropped": root.Name,
				}).Debug("duplicate skill id, keeping first")
				continue
			}
			seen[skill.ID] = root.Name
			found = append(found, skill)
		}
	}

	sort.Slice(found, func(i, j int) bool {
		a := strings.ToLower(found[i].Name)
		b := strings.ToLower(found[j].Name)
		if a == b {
			return found[i].ID < found[j].ID
		}
		return a < b
	})

	return found, report, nil
}

// scanEntry loads a single root entry. A nil skill with nil error means the
// entry is not a skill folder.
func (s *Scanner) scanEntry(root Root, entry os.DirEntry) (*Skill, error) {
	path := filepath.Join(root.Path, entry.Name())

	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return nil, nil
	}
	if s.excluded(entry.Name()) {
		return nil, nil
	}

	skillPath := filepath.Join(path, skillFileName)
	content, err := os.ReadFile(skillPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to read skill file")
	}

	metadata, body, err := ParseSkillFile(content)
	if err != nil {
		return nil, err
	}

	id := entry.Name()

	name := metadata.Name
	if name == "" {
		name = id
	}
	description := metadata.Description
	if description == "" {
		description = fallbackDescription(body)
	}
	category := ParseCategory(metadata.Category)
	if metadata.Category == "" && s.classifier != nil {
		category = s.classifier.Classify(id)
	}

	skill := &Skill{
		ID:          id,
		Name:        name,
		Description: description,
		Category:    category,
		Tags:        metadata.Tags,
		Path:        path,
		Source:      root.Name,
		Content:     body,
		Size:        dirSize(path),
		Symlink:     entry.Type()&os.ModeSymlink != 0,
	}
	if fi, err := os.Stat(skillPath); err == nil {
		skill.Modified = fi.ModTime()
	}

	return skill, nil
}

func (s *Scanner) excluded(name string) bool {
	for _, pattern := range s.excludes {
		if ok, _ := doublestar.Match(pattern, name); ok {
			return true
		}
	}
	return false
}

// dirSize sums regular file sizes under path. Stat failures are ignored.
func dirSize(path string) int64 {
	var total int64
	_ = filepath.WalkDir(path, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if info, err := d.Info(); err == nil && info.Mode().IsRegular() {
			total += info.Size()
		}
		return nil
	})
	return total
}
