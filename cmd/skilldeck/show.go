package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/jingkaihe/skilldeck/pkg/presenter"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// ShowConfig holds configuration for the show command
type ShowConfig struct {
	Format string
}

// NewShowConfig creates a new ShowConfig with default values
func NewShowConfig() *ShowConfig {
	return &ShowConfig{
		Format: "text",
	}
}

var showCmd = &cobra.Command{
	Use:   "show [skillID]",
	Short: "Show a skill's SKILL.md content",
	Long:  `Show a skill's metadata and its SKILL.md body rendered for the terminal.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		config := getShowConfigFromFlags(cmd)
		runShowCommand(ctx, args[0], config)
	},
}

func init() {
	// Add show command flags
	defaults := NewShowConfig()
	showCmd.Flags().String("format", defaults.Format, "Output format: raw, json, or text")
}

// getShowConfigFromFlags extracts show configuration from command flags
func getShowConfigFromFlags(cmd *cobra.Command) *ShowConfig {
	config := NewShowConfig()

	if format, err := cmd.Flags().GetString("format"); err == nil {
		config.Format = format
	}

	return config
}

// runShowCommand displays a single skill
func runShowCommand(ctx context.Context, id string, config *ShowConfig) {
	service, err := buildService()
	if err != nil {
		presenter.Error(err, "failed to initialize skill service")
		os.Exit(1)
	}

	if _, err := service.Refresh(ctx); err != nil {
		presenter.Error(err, "failed to scan skill folders")
		os.Exit(1)
	}

	detail, err := service.Get(ctx, id)
	if err != nil {
		presenter.Error(err, "failed to load skill")
		os.Exit(1)
	}

	switch config.Format {
	case "raw":
		// Output the SKILL.md body as stored
		fmt.Println(detail.Content)
	case "json":
		outputJSON, err := json.MarshalIndent(detail, "", "  ")
		if err != nil {
			presenter.Error(err, "Failed to generate JSON output")
			os.Exit(1)
		}
		fmt.Println(string(outputJSON))
	case "text":
		presenter.Section(detail.Name)
		fmt.Printf("Category: %s\n", detail.Category)
		fmt.Printf("Source:   %s\n", detail.Source)
		fmt.Printf("Path:     %s\n", detail.ShortPath)
		fmt.Printf("Modified: %s\n", detail.Modified)
		if len(detail.Tags) > 0 {
			fmt.Printf("Tags:     %s\n", strings.Join(detail.Tags, ", "))
		}
		fmt.Println()
		fmt.Println(renderMarkdown(detail.Content))
	default:
		presenter.Error(fmt.Errorf("unsupported format: %s", config.Format), "Unknown format. Supported formats are raw, json, and text")
		os.Exit(1)
	}
}

// renderMarkdown renders markdown for the terminal, falling back to the
// plain text when rendering fails.
func renderMarkdown(content string) string {
	width := 0
	if w, _, err := term.GetSize(0); err == nil && w > 0 {
		width = w
	}
	if width < 40 {
		width = 80
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width-4),
	)
	if err != nil {
		return content
	}

	out, err := renderer.Render(content)
	if err != nil {
		return content
	}
	// glamour adds trailing newlines; trim for tighter display
	return strings.TrimRight(out, "\n")
}
