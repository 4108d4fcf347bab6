package skills

import (
	"os"
	"strings"

	"github.com/gobwas/glob"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Category groups skills in the dashboard sidebar and list filters
type Category string

const (
	CategoryDev      Category = "dev"
	CategoryProduct  Category = "product"
	CategoryBusiness Category = "business"
	CategoryTeam     Category = "team"
	CategoryCareer   Category = "career"
	CategoryTools    Category = "tools"
	CategoryThinking Category = "thinking"
	CategoryOther    Category = "other"
)

// Categories returns all categories in display order
func Categories() []Category {
	return []Category{
		CategoryDev,
		CategoryProduct,
		CategoryBusiness,
		CategoryTeam,
		CategoryCareer,
		CategoryTools,
		CategoryThinking,
		CategoryOther,
	}
}

// ParseCategory normalizes s to a known category. Unknown or empty values
// map to CategoryOther so records never carry an undefined category.
func ParseCategory(s string) Category {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if c.Valid() {
		return c
	}
	return CategoryOther
}

// Valid reports whether c is one of the defined categories
func (c Category) Valid() bool {
	switch c {
	case CategoryDev, CategoryProduct, CategoryBusiness, CategoryTeam,
		CategoryCareer, CategoryTools, CategoryThinking, CategoryOther:
		return true
	}
	return false
}

func (c Category) String() string {
	return string(c)
}

// ClassifierRule maps a folder name pattern to a category
type ClassifierRule struct {
	Pattern  string `yaml:"pattern"`
	Category string `yaml:"category"`
}

type classifierFile struct {
	Rules []ClassifierRule `yaml:"rules"`
}

type compiledRule struct {
	pattern  glob.Glob
	category Category
}

// Classifier assigns categories to skills whose frontmatter declares none.
// Rules are evaluated in order against the skill's folder name; the first
// match wins.
type Classifier struct {
	rules []compiledRule
}

// NewClassifier compiles ordered pattern/category rules
func NewClassifier(rules []ClassifierRule) (*Classifier, error) {
	c := &Classifier{}
	for _, r := range rules {
		g, err := glob.Compile(r.Pattern)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid category rule pattern %q", r.Pattern)
		}
		c.rules = append(c.rules, compiledRule{
			pattern:  g,
			category: ParseCategory(r.Category),
		})
	}
	return c, nil
}

// LoadClassifier reads classifier rules from a YAML file. A missing file
// yields an empty classifier.
func LoadClassifier(path string) (*Classifier, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Classifier{}, nil
		}
		return nil, errors.Wrap(err, "failed to read category rules")
	}

	var f classifierFile
	if err := yaml.Unmarshal(content, &f); err != nil {
		return nil, errors.Wrap(err, "failed to parse category rules")
	}

	return NewClassifier(f.Rules)
}

// Classify returns the category for a skill folder name
func (c *Classifier) Classify(id string) Category {
	for _, r := range c.rules {
		if r.pattern.Match(id) {
			return r.category
		}
	}
	return CategoryOther
}
