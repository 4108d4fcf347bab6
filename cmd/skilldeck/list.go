package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/jingkaihe/skilldeck/pkg/presenter"
	"github.com/jingkaihe/skilldeck/pkg/registry"
	"github.com/spf13/cobra"
)

// ListConfig holds configuration for the list command
type ListConfig struct {
	Query      string
	Category   string
	JSONOutput bool
}

// NewListConfig creates a new ListConfig with default values
func NewListConfig() *ListConfig {
	return &ListConfig{
		Query:      "",
		Category:   "",
		JSONOutput: false,
	}
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List discovered skills",
	Long:  `Scan the configured skill roots and list the discovered skills with filtering options.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		config := getListConfigFromFlags(cmd)
		runListCommand(ctx, config)
	},
}

func init() {
	// Add list command flags
	defaults := NewListConfig()
	listCmd.Flags().String("query", defaults.Query, "Filter skills by name or description substring")
	listCmd.Flags().String("category", defaults.Category, "Filter skills by category")
	listCmd.Flags().Bool("json", defaults.JSONOutput, "Output in JSON format")
}

// getListConfigFromFlags extracts list configuration from command flags
func getListConfigFromFlags(cmd *cobra.Command) *ListConfig {
	config := NewListConfig()

	if query, err := cmd.Flags().GetString("query"); err == nil {
		config.Query = query
	}
	if category, err := cmd.Flags().GetString("category"); err == nil {
		config.Category = category
	}
	if jsonOutput, err := cmd.Flags().GetBool("json"); err == nil {
		config.JSONOutput = jsonOutput
	}

	return config
}

// OutputFormat defines the format of the output
type OutputFormat int

const (
	TableFormat OutputFormat = iota
	JSONFormat
)

// SkillListOutput represents the output for the skill list
type SkillListOutput struct {
	Skills []registry.SkillSummary
	Format OutputFormat
}

// NewSkillListOutput creates a new SkillListOutput
func NewSkillListOutput(summaries []registry.SkillSummary, format OutputFormat) *SkillListOutput {
	return &SkillListOutput{
		Skills: summaries,
		Format: format,
	}
}

// Render formats and renders the skill list to the specified writer
func (o *SkillListOutput) Render(w io.Writer) error {
	if o.Format == JSONFormat {
		return o.renderJSON(w)
	}
	return o.renderTable(w)
}

// renderJSON renders the output in JSON format
func (o *SkillListOutput) renderJSON(w io.Writer) error {
	type jsonOutput struct {
		Skills []registry.SkillSummary `json:"skills"`
	}

	output := jsonOutput{
		Skills: o.Skills,
	}

	jsonData, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return fmt.Errorf("error generating JSON output: %v", err)
	}

	_, err = fmt.Fprintln(w, string(jsonData))
	return err
}

// renderTable renders the output in table format
func (o *SkillListOutput) renderTable(w io.Writer) error {
	// Create a tabwriter with padding for better readability
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	// Print table header
	fmt.Fprintln(tw, "NAME\tCATEGORY\tSOURCE\tSIZE\tMODIFIED\tDESCRIPTION")
	fmt.Fprintln(tw, "----\t--------\t------\t----\t--------\t-----------")

	for _, skill := range o.Skills {
		// Truncate long descriptions
		description := skill.Description
		if len(description) > 60 {
			description = strings.TrimSpace(description[:57]) + "..."
		}

		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			skill.Name,
			skill.Category,
			skill.Source,
			skill.SizeLabel,
			skill.Modified,
			description,
		)
	}

	return tw.Flush()
}

// runListCommand scans the skill roots and renders the skill list
func runListCommand(ctx context.Context, config *ListConfig) {
	service, err := buildService()
	if err != nil {
		presenter.Error(err, "failed to initialize skill service")
		os.Exit(1)
	}

	if _, err := service.Refresh(ctx); err != nil {
		presenter.Error(err, "failed to scan skill folders")
		os.Exit(1)
	}

	result, err := service.List(ctx, &registry.ListRequest{
		Query:    config.Query,
		Category: config.Category,
	})
	if err != nil {
		presenter.Error(err, "failed to list skills")
		os.Exit(1)
	}

	if len(result.Skills) == 0 {
		presenter.Info("No skills found matching your criteria.")
		return
	}

	// Determine output format
	format := TableFormat
	if config.JSONOutput {
		format = JSONFormat
	}

	// Create and render the output
	output := NewSkillListOutput(result.Skills, format)
	if err := output.Render(os.Stdout); err != nil {
		presenter.Error(err, "failed to render skill list")
		os.Exit(1)
	}
}
