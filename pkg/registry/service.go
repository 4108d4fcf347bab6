package registry

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/jingkaihe/skilldeck/pkg/logger"
	"github.com/jingkaihe/skilldeck/pkg/reveal"
	"github.com/jingkaihe/skilldeck/pkg/skills"
	"github.com/jingkaihe/skilldeck/pkg/telemetry"
	"github.com/jingkaihe/skilldeck/pkg/utils"
)

// Sentinel errors the API layer maps to HTTP statuses
var (
	ErrNotFound        = errors.New("skill not found")
	ErrPathTraversal   = errors.New("path outside configured skill roots")
	ErrInvalidCategory = errors.New("unknown category")
)

const modifiedTimeFormat = "2006-01-02 15:04"

// ServiceInterface defines the skill operations the dashboard API consumes
type ServiceInterface interface {
	List(ctx context.Context, req *ListRequest) (*ListResponse, error)
	Get(ctx context.Context, id string) (*SkillDetail, error)
	Delete(ctx context.Context, id string) error
	Reveal(ctx context.Context, id string) error
	Refresh(ctx context.Context) (*RefreshResult, error)
	Stats(ctx context.Context) (*StatsResult, error)
}

// ListRequest filters the skill listing
type ListRequest struct {
	Query    string `json:"query,omitempty"`
	Category string `json:"category,omitempty"`
}

// SkillSummary is the list item shape served to the dashboard
type SkillSummary struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Tags        []string `json:"tags,omitempty"`
	Path        string   `json:"path"`
	ShortPath   string   `json:"shortPath"`
	Source      string   `json:"source"`
	Modified    string   `json:"modified"`
	Size        int64    `json:"size"`
	SizeLabel   string   `json:"sizeLabel"`
	Symlink     bool     `json:"symlink,omitempty"`
}

// SkillDetail is a summary plus the rendered SKILL.md body
type SkillDetail struct {
	SkillSummary
	Content     string `json:"content"`
	ContentHTML string `json:"contentHtml"`
}

// ListResponse is the response from listing skills
type ListResponse struct {
	Skills []SkillSummary `json:"skills"`
	Total  int            `json:"total"`
}

// RefreshResult reports the outcome of a rescan
type RefreshResult struct {
	Count   int `json:"count"`
	Skipped int `json:"skipped"`
}

// RootInfo describes a configured scan root
type RootInfo struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// StatsResult summarizes the current snapshot
type StatsResult struct {
	Total      int            `json:"total"`
	Categories map[string]int `json:"categories"`
	ScannedAt  time.Time      `json:"scannedAt"`
	Roots      []RootInfo     `json:"roots"`
}

// Service owns the scanner, the index, and the revealer. One mutex
// serializes every operation that mutates disk or index state; reads go
// straight to the current snapshot and never block behind a scan.
type Service struct {
	scanner   *skills.Scanner
	index     *Index
	revealer  reveal.Revealer
	mu        sync.Mutex
	removeAll func(string) error
}

// NewService creates a skill service around a scanner and a revealer
func NewService(scanner *skills.Scanner, revealer reveal.Revealer) *Service {
	return &Service{
		scanner:   scanner,
		index:     NewIndex(),
		revealer:  revealer,
		removeAll: os.RemoveAll,
	}
}

// List filters the current snapshot by query and category
func (s *Service) List(ctx context.Context, req *ListRequest) (*ListResponse, error) {
	logger.G(ctx).WithFields(logrus.Fields{
		"query":    req.Query,
		"category": req.Category,
	}).Debug("Listing skills")

	var category skills.Category
	if req.Category != "" {
		category = skills.Category(strings.ToLower(strings.TrimSpace(req.Category)))
		if !category.Valid() {
			return nil, errors.Wrapf(ErrInvalidCategory, "%q", req.Category)
		}
	}

	matched := s.index.Current().Filter(req.Query, category)
	summaries := make([]SkillSummary, 0, len(matched))
	for _, skill := range matched {
		summaries = append(summaries, summarize(skill))
	}

	return &ListResponse{Skills: summaries, Total: len(summaries)}, nil
}

// Get returns one skill with its rendered content
func (s *Service) Get(ctx context.Context, id string) (*SkillDetail, error) {
	skill, ok := s.index.Current().Get(id)
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "skill %q", id)
	}

	html, err := skills.RenderHTML(skill.Content)
	if err != nil {
		logger.G(ctx).WithField("id", id).WithError(err).Warn("Failed to render skill content")
	}

	return &SkillDetail{
		SkillSummary: summarize(skill),
		Content:      skill.Content,
		ContentHTML:  html,
	}, nil
}

// Delete removes the skill folder from disk and drops the record from the
// index. Validation runs in order: id syntax, index membership, root
// containment. Nothing on disk is touched unless all three pass, and the
// index is only updated after the disk removal succeeds.
func (s *Service) Delete(ctx context.Context, id string) error {
	return telemetry.WithSpan(ctx, "registry.delete", func(ctx context.Context) error {
		if err := validateID(id); err != nil {
			return err
		}

		s.mu.Lock()
		defer s.mu.Unlock()

		skill, ok := s.index.Current().Get(id)
		if !ok {
			return errors.Wrapf(ErrNotFound, "skill %q", id)
		}

		if !s.contained(skill.Path) {
			return errors.Wrapf(ErrPathTraversal, "skill %q resolves to %q", id, skill.Path)
		}

		if err := s.removeSkillDir(skill); err != nil {
			return errors.Wrapf(err, "failed to delete skill %q", id)
		}

		s.index.Replace(s.index.Current().Remove(id))
		logger.G(ctx).WithFields(logrus.Fields{
			"id":   id,
			"path": skill.Path,
		}).Info("Deleted skill")
		return nil
	}, attribute.String("skill.id", id))
}

// Reveal opens the skill folder in the platform file manager
func (s *Service) Reveal(ctx context.Context, id string) error {
	skill, ok := s.index.Current().Get(id)
	if !ok {
		return errors.Wrapf(ErrNotFound, "skill %q", id)
	}

	logger.G(ctx).WithFields(logrus.Fields{
		"id":   id,
		"path": skill.Path,
	}).Debug("Revealing skill folder")

	if err := s.revealer.Reveal(ctx, skill.Path); err != nil {
		return errors.Wrapf(err, "failed to reveal skill %q", id)
	}
	return nil
}

// Refresh rescans the roots and swaps in the fresh snapshot
func (s *Service) Refresh(ctx context.Context) (*RefreshResult, error) {
	var result *RefreshResult
	err := telemetry.WithSpan(ctx, "registry.refresh", func(ctx context.Context) error {
		s.mu.Lock()
		defer s.mu.Unlock()

		found, report, err := s.scanner.Scan(ctx)
		if err != nil {
			return errors.Wrap(err, "failed to scan skill roots")
		}

		s.index.Replace(NewSnapshot(found))
		logger.G(ctx).WithFields(logrus.Fields{
			"count":   len(found),
			"skipped": report.Skipped,
		}).Info("Refreshed skill index")

		result = &RefreshResult{Count: len(found), Skipped: report.Skipped}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Stats summarizes the current snapshot
func (s *Service) Stats(_ context.Context) (*StatsResult, error) {
	snap := s.index.Current()

	categories := make(map[string]int)
	for category, count := range snap.CategoryCounts() {
		categories[category.String()] = count
	}

	roots := []RootInfo{}
	for _, root := range s.scanner.Roots() {
		roots = append(roots, RootInfo{Name: root.Name, Path: root.Path})
	}

	return &StatsResult{
		Total:      snap.Len(),
		Categories: categories,
		ScannedAt:  snap.ScannedAt(),
		Roots:      roots,
	}, nil
}

// Snapshot exposes the current index snapshot for in-process consumers
// such as the CLI list command
func (s *Service) Snapshot() *Snapshot {
	return s.index.Current()
}

// Roots returns the scan roots backing this service
func (s *Service) Roots() []skills.Root {
	return s.scanner.Roots()
}

// validateID rejects ids that could escape the skill roots when joined
// into a path. Traversal-shaped ids fail before any index lookup.
func validateID(id string) error {
	if id == "" || id == "." || id == ".." {
		return errors.Wrapf(ErrPathTraversal, "invalid skill id %q", id)
	}
	if strings.ContainsAny(id, `/\`) {
		return errors.Wrapf(ErrPathTraversal, "invalid skill id %q", id)
	}
	return nil
}

// contained verifies the skill path sits directly inside one configured
// root. Parent and root are resolved so symlinked roots compare equal.
func (s *Service) contained(path string) bool {
	parent := resolvePath(filepath.Dir(path))
	for _, root := range s.scanner.Roots() {
		if parent == resolvePath(root.Path) {
			return true
		}
	}
	return false
}

func resolvePath(path string) string {
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		return resolved
	}
	return filepath.Clean(path)
}

// removeSkillDir deletes the skill folder. A symlinked folder only has its
// link removed so the target stays intact. A folder that is already gone
// counts as deleted; dropping the stale record restores consistency.
func (s *Service) removeSkillDir(skill *skills.Skill) error {
	info, err := os.Lstat(skill.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return os.Remove(skill.Path)
	}
	return s.removeAll(skill.Path)
}

func summarize(skill *skills.Skill) SkillSummary {
	modified := "unknown"
	if !skill.Modified.IsZero() {
		modified = skill.Modified.Format(modifiedTimeFormat)
	}

	return SkillSummary{
		ID:          skill.ID,
		Name:        skill.Name,
		Description: skill.Description,
		Category:    skill.Category.String(),
		Tags:        skill.Tags,
		Path:        skill.Path,
		ShortPath:   utils.ShortenHome(skill.Path),
		Source:      skill.Source,
		Modified:    modified,
		Size:        skill.Size,
		SizeLabel:   humanize.IBytes(uint64(skill.Size)),
		Symlink:     skill.Symlink,
	}
}
