package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/jingkaihe/skilldeck/pkg/logger"
	"github.com/jingkaihe/skilldeck/pkg/registry"
	"github.com/jingkaihe/skilldeck/pkg/reveal"
	"github.com/jingkaihe/skilldeck/pkg/skills"
	"github.com/jingkaihe/skilldeck/pkg/utils"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Environment variables
	viper.SetEnvPrefix("SKILLDECK")
	viper.AutomaticEnv()

	// Config file support
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME/.skilldeck")
	viper.AddConfigPath(".")

	// Load config file if it exists (ignore errors if it doesn't)
	_ = viper.ReadInConfig()
}

var rootCmd = &cobra.Command{
	Use:   "skilldeck",
	Short: "Skilldeck manages your local agent skill library",
	Long: `Skilldeck discovers SKILL.md skill folders under your configured roots and
serves a local dashboard for browsing, searching, revealing, and deleting
them.

Running skilldeck without a subcommand starts the dashboard server.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if err := logger.SetLogLevel(viper.GetString("log_level")); err != nil {
			logger.L.WithError(err).Warn("invalid log level, keeping default")
		}
		logger.SetLogFormat(viper.GetString("log_format"))
	},
	// Default behavior is to start the dashboard server
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			serveCmd.Run(cmd, args)
		} else {
			cmd.Help()
			os.Exit(1)
		}
	},
}

// buildService assembles the scanner, revealer, and skill service from the
// current configuration.
func buildService() (*registry.Service, error) {
	var opts []skills.ScannerOption
	if dirs := viper.GetStringSlice("skills_dirs"); len(dirs) > 0 {
		roots := make([]skills.Root, 0, len(dirs))
		for _, dir := range dirs {
			dir = utils.ExpandHome(dir)
			roots = append(roots, skills.Root{Name: filepath.Base(dir), Path: dir})
		}
		opts = append(opts, skills.WithRoots(roots...))
	} else {
		opts = append(opts, skills.WithDefaultRoots())
	}
	if excludes := viper.GetStringSlice("excludes"); len(excludes) > 0 {
		opts = append(opts, skills.WithExcludes(excludes...))
	}

	classifier, err := skills.LoadClassifier(categoryRulesPath())
	if err != nil {
		return nil, err
	}
	opts = append(opts, skills.WithClassifier(classifier))

	scanner, err := skills.NewScanner(opts...)
	if err != nil {
		return nil, err
	}

	revealer, err := reveal.ForOS(runtime.GOOS)
	if err != nil {
		return nil, err
	}

	return registry.NewService(scanner, revealer), nil
}

// categoryRulesPath returns the category rules file location. Skills whose
// frontmatter declares no category are classified by the rules in this file.
func categoryRulesPath() string {
	if path := viper.GetString("skills.categories"); path != "" {
		return utils.ExpandHome(path)
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".skilldeck", "categories.yaml")
}

func main() {
	// Add global flags
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "fmt", "Log format (fmt, json)")
	rootCmd.PersistentFlags().StringSlice("skills-dir", nil, "Skill root directory to scan (repeatable, overrides defaults)")

	// Bind flags to viper
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log_format", rootCmd.PersistentFlags().Lookup("log-format"))
	viper.BindPFlag("skills_dirs", rootCmd.PersistentFlags().Lookup("skills-dir"))

	// Add subcommands
	rootCmd.AddCommand(withTracing(serveCmd))
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(withTracing(removeCmd))
	rootCmd.AddCommand(revealCmd)
	rootCmd.AddCommand(versionCmd)

	// Execute
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
