package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jingkaihe/skilldeck/pkg/presenter"
	"github.com/spf13/cobra"
)

var revealCmd = &cobra.Command{
	Use:   "reveal [skillID]",
	Short: "Open a skill folder in the file manager",
	Long:  `Open a skill folder in the platform file manager (Finder, Explorer, or the xdg default).`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		runRevealCommand(ctx, args[0])
	},
}

// runRevealCommand opens a skill folder in the file manager
func runRevealCommand(ctx context.Context, id string) {
	service, err := buildService()
	if err != nil {
		presenter.Error(err, "failed to initialize skill service")
		os.Exit(1)
	}

	if _, err := service.Refresh(ctx); err != nil {
		presenter.Error(err, "failed to scan skill folders")
		os.Exit(1)
	}

	if err := service.Reveal(ctx, id); err != nil {
		presenter.Error(err, "Failed to open skill folder")
		os.Exit(1)
	}

	presenter.Success(fmt.Sprintf("Opened skill %s in the file manager", id))
}
