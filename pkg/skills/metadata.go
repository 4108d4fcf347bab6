package skills

import (
	"bytes"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	meta "github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/parser"
)

const (
	descriptionLimit = 300
	noDescription    = "No description available"
)

// Metadata is the YAML frontmatter of a SKILL.md file. Every field is
// optional; defaults are applied when the scanner builds the record.
type Metadata struct {
	Name        string   `mapstructure:"name"`
	Description string   `mapstructure:"description"`
	Category    string   `mapstructure:"category"`
	Tags        []string `mapstructure:"tags"`
}

// ParseSkillFile extracts frontmatter metadata and the markdown body from a
// SKILL.md document. A document without frontmatter yields empty Metadata;
// a frontmatter block that is not valid YAML is an error.
func ParseSkillFile(content []byte) (*Metadata, string, error) {
	md := goldmark.New(
		goldmark.WithExtensions(meta.Meta),
	)

	var buf bytes.Buffer
	pctx := parser.NewContext()

	if err := md.Convert(content, &buf, parser.WithContext(pctx)); err != nil {
		return nil, "", errors.Wrap(err, "failed to parse markdown")
	}

	raw, err := meta.TryGet(pctx)
	if err != nil {
		return nil, "", errors.Wrap(err, "invalid frontmatter")
	}

	metadata, err := decodeMetadata(raw)
	if err != nil {
		return nil, "", err
	}

	return metadata, extractBodyContent(string(content)), nil
}

// decodeMetadata converts the raw frontmatter map into typed Metadata.
// Weak typing keeps scalar mismatches tolerable and a comma-joined tag
// string decodes the same as a YAML list.
func decodeMetadata(raw map[string]interface{}) (*Metadata, error) {
	metadata := &Metadata{}
	if raw == nil {
		return metadata, nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           metadata,
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToSliceHookFunc(","),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to build frontmatter decoder")
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, errors.Wrap(err, "failed to decode frontmatter")
	}

	for i, tag := range metadata.Tags {
		metadata.Tags[i] = strings.TrimSpace(tag)
	}

	return metadata, nil
}

// RenderHTML converts skill body markdown to HTML for the dashboard detail
// view.
func RenderHTML(body string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(body), &buf); err != nil {
		return "", errors.Wrap(err, "failed to render markdown")
	}
	return buf.String(), nil
}

// extractBodyContent removes YAML frontmatter and returns the body
func extractBodyContent(content string) string {
	if !strings.HasPrefix(content, "---") {
		return content
	}

	lines := strings.Split(content, "\n")
	frontmatterEnd := -1

	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			frontmatterEnd = i
			break
		}
	}

	if frontmatterEnd == -1 {
		return content
	}

	return strings.TrimLeft(strings.Join(lines[frontmatterEnd+1:], "\n"), "\n")
}

// fallbackDescription returns the first non-heading body line, truncated to
// a display-friendly length.
func fallbackDescription(body string) string {
	for _, line := range strings.Split(body, "\n") {
		stripped := strings.TrimSpace(line)
		if stripped == "" || strings.HasPrefix(stripped, "#") {
			continue
		}
		if runes := []rune(stripped); len(runes) > descriptionLimit {
			return string(runes[:descriptionLimit])
		}
		return stripped
	}
	return noDescription
}
