package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jingkaihe/skilldeck/pkg/presenter"
	"github.com/spf13/cobra"
)

// RemoveConfig holds configuration for the remove command
type RemoveConfig struct {
	NoConfirm bool
}

// NewRemoveConfig creates a new RemoveConfig with default values
func NewRemoveConfig() *RemoveConfig {
	return &RemoveConfig{
		NoConfirm: false,
	}
}

var removeCmd = &cobra.Command{
	Use:     "remove [skillID]",
	Aliases: []string{"rm", "delete"},
	Short:   "Delete a skill folder",
	Long:    `Delete a skill folder from disk. The folder and everything in it is removed.`,
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		config := getRemoveConfigFromFlags(cmd)
		runRemoveCommand(ctx, args[0], config)
	},
}

func init() {
	// Add remove command flags
	defaults := NewRemoveConfig()
	removeCmd.Flags().Bool("no-confirm", defaults.NoConfirm, "Skip confirmation prompt")
}

// getRemoveConfigFromFlags extracts remove configuration from command flags
func getRemoveConfigFromFlags(cmd *cobra.Command) *RemoveConfig {
	config := NewRemoveConfig()

	if noConfirm, err := cmd.Flags().GetBool("no-confirm"); err == nil {
		config.NoConfirm = noConfirm
	}

	return config
}

// runRemoveCommand deletes a specific skill folder
func runRemoveCommand(ctx context.Context, id string, config *RemoveConfig) {
	service, err := buildService()
	if err != nil {
		presenter.Error(err, "failed to initialize skill service")
		os.Exit(1)
	}

	if _, err := service.Refresh(ctx); err != nil {
		presenter.Error(err, "failed to scan skill folders")
		os.Exit(1)
	}

	// If no-confirm flag is not set, prompt for confirmation
	if !config.NoConfirm {
		response := presenter.Prompt(fmt.Sprintf("Are you sure you want to delete skill %s?", id), "y", "N")

		if response != "y" && response != "Y" {
			presenter.Info("Deletion cancelled.")
			return
		}
	}

	// Delete the skill folder
	if err := service.Delete(ctx, id); err != nil {
		presenter.Error(err, "Failed to delete skill")
		os.Exit(1)
	}

	presenter.Success(fmt.Sprintf("Skill %s deleted successfully", id))
}
