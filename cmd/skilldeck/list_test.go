package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/jingkaihe/skilldeck/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSummaries() []registry.SkillSummary {
	return []registry.SkillSummary{
		{
			ID:          "code-review",
			Name:        "Code Review",
			Description: "Review pull requests for style and correctness",
			Category:    "dev",
			Source:      "skills",
			SizeLabel:   "4.2 kB",
			Modified:    "2026-08-01 10:30",
		},
		{
			ID:          "sprint-planner",
			Name:        "Sprint Planner",
			Description: strings.Repeat("plan the next sprint with the team ", 4),
			Category:    "team",
			Source:      "skills",
			SizeLabel:   "1.1 kB",
			Modified:    "2026-07-12 08:15",
		},
	}
}

func TestSkillListOutput_RenderTable(t *testing.T) {
	output := NewSkillListOutput(sampleSummaries(), TableFormat)

	var buf bytes.Buffer
	err := output.Render(&buf)
	require.NoError(t, err)

	rendered := buf.String()
	assert.Contains(t, rendered, "NAME")
	assert.Contains(t, rendered, "CATEGORY")
	assert.Contains(t, rendered, "Code Review")
	assert.Contains(t, rendered, "Sprint Planner")
	assert.Contains(t, rendered, "dev")
	assert.Contains(t, rendered, "4.2 kB")

	// Long descriptions are truncated
	assert.Contains(t, rendered, "...")
	assert.NotContains(t, rendered, strings.Repeat("plan the next sprint with the team ", 4))
}

func TestSkillListOutput_RenderJSON(t *testing.T) {
	output := NewSkillListOutput(sampleSummaries(), JSONFormat)

	var buf bytes.Buffer
	err := output.Render(&buf)
	require.NoError(t, err)

	var decoded struct {
		Skills []registry.SkillSummary `json:"skills"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))

	require.Len(t, decoded.Skills, 2)
	assert.Equal(t, "code-review", decoded.Skills[0].ID)
	assert.Equal(t, "Code Review", decoded.Skills[0].Name)

	// JSON output keeps the full description
	assert.Contains(t, decoded.Skills[1].Description, "plan the next sprint")
	assert.Greater(t, len(decoded.Skills[1].Description), 60)
}

func TestSkillListOutput_RenderTableEmpty(t *testing.T) {
	output := NewSkillListOutput(nil, TableFormat)

	var buf bytes.Buffer
	err := output.Render(&buf)
	require.NoError(t, err)

	// Header still renders with no rows
	assert.Contains(t, buf.String(), "NAME")
}
