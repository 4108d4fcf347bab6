package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	retry "github.com/avast/retry-go/v4"
	"github.com/jingkaihe/skilldeck/pkg/logger"
	"github.com/jingkaihe/skilldeck/pkg/presenter"
	"github.com/jingkaihe/skilldeck/pkg/registry"
	"github.com/jingkaihe/skilldeck/pkg/telemetry"
	"github.com/jingkaihe/skilldeck/pkg/utils"
	"github.com/jingkaihe/skilldeck/pkg/webui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	// Port probing starts here when no port is configured
	defaultPortStart = 8765
	portProbeTries   = 10
)

// ServeConfig holds configuration for the serve command
type ServeConfig struct {
	Host     string
	Port     int
	Language string
	NoOpen   bool
	NoWatch  bool
}

// NewServeConfig creates a new ServeConfig with default values. Port 0 means
// pick the first free port from defaultPortStart.
func NewServeConfig() *ServeConfig {
	return &ServeConfig{
		Host:     "localhost",
		Port:     0,
		Language: "auto",
		NoOpen:   false,
		NoWatch:  false,
	}
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the skill dashboard server",
	Long: `Scan the configured skill roots and start a local web server with a
dashboard for browsing, searching, revealing, and deleting skills. The
dashboard opens in your default browser unless --no-open is given, and
skill folders are rescanned automatically on changes unless --no-watch
is given.

The server picks the first free port from 8765 unless --port is given.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		config := getServeConfigFromFlags(cmd)
		runServeCommand(ctx, config)
	},
}

func init() {
	// Add serve command flags
	defaults := NewServeConfig()
	serveCmd.Flags().String("host", defaults.Host, "Host to bind the dashboard server to")
	serveCmd.Flags().Int("port", defaults.Port, "Port to bind the dashboard server to (0 = automatic)")
	serveCmd.Flags().String("lang", defaults.Language, "Dashboard language (auto, en, zh)")
	serveCmd.Flags().Bool("no-open", defaults.NoOpen, "Do not open the dashboard in a browser")
	serveCmd.Flags().Bool("no-watch", defaults.NoWatch, "Do not rescan skill folders on changes")
}

// getServeConfigFromFlags extracts serve configuration from the config file
// and command flags. Flags win over config file values.
func getServeConfigFromFlags(cmd *cobra.Command) *ServeConfig {
	config := NewServeConfig()

	if viper.IsSet("host") {
		config.Host = viper.GetString("host")
	}
	if viper.IsSet("port") {
		config.Port = viper.GetInt("port")
	}
	if viper.IsSet("lang") {
		config.Language = viper.GetString("lang")
	}
	if viper.IsSet("watch") {
		config.NoWatch = !viper.GetBool("watch")
	}
	if viper.IsSet("open") {
		config.NoOpen = !viper.GetBool("open")
	}

	if cmd.Flags().Changed("host") {
		if host, err := cmd.Flags().GetString("host"); err == nil {
			config.Host = host
		}
	}
	if cmd.Flags().Changed("port") {
		if port, err := cmd.Flags().GetInt("port"); err == nil {
			config.Port = port
		}
	}
	if cmd.Flags().Changed("lang") {
		if lang, err := cmd.Flags().GetString("lang"); err == nil {
			config.Language = lang
		}
	}
	if noOpen, err := cmd.Flags().GetBool("no-open"); err == nil && noOpen {
		config.NoOpen = true
	}
	if noWatch, err := cmd.Flags().GetBool("no-watch"); err == nil && noWatch {
		config.NoWatch = true
	}

	return config
}

// validateServeConfig validates the serve configuration
func validateServeConfig(config *ServeConfig) error {
	// Validate host
	if config.Host == "" {
		return fmt.Errorf("host cannot be empty")
	}

	// Check if host is a valid hostname or IP address
	if config.Host != "localhost" && config.Host != "0.0.0.0" {
		if ip := net.ParseIP(config.Host); ip == nil {
			// Not an IP, check if it's a valid hostname
			if strings.Contains(config.Host, " ") || strings.Contains(config.Host, ":") {
				return fmt.Errorf("invalid host: %s", config.Host)
			}
		}
	}

	// Validate port, 0 means pick automatically
	if config.Port < 0 || config.Port > 65535 {
		return fmt.Errorf("port must be between 0 and 65535, got %d", config.Port)
	}

	// Check for privileged ports
	if config.Port > 0 && config.Port < 1024 {
		logger.G(context.Background()).WithField("port", config.Port).Warn("using privileged port (< 1024) may require elevated permissions")
	}

	return nil
}

// runServeCommand starts the skill dashboard server
func runServeCommand(ctx context.Context, config *ServeConfig) {
	// Validate configuration
	if err := validateServeConfig(config); err != nil {
		presenter.Error(err, "invalid server configuration")
		os.Exit(1)
	}

	shutdownTracing, err := initTracing(ctx)
	if err != nil {
		logger.G(ctx).WithError(err).Warn("failed to initialize tracing")
	} else {
		defer func() {
			if err := shutdownTracing(context.Background()); err != nil {
				logger.G(ctx).WithError(err).Debug("failed to shut down tracing")
			}
		}()
	}

	lang, err := webui.ParseLanguage(config.Language)
	if err != nil {
		presenter.Error(err, "invalid dashboard language")
		os.Exit(1)
	}

	service, err := buildService()
	if err != nil {
		presenter.Error(err, "failed to initialize skill service")
		os.Exit(1)
	}

	// Initial scan before the server accepts requests
	result, err := service.Refresh(ctx)
	if err != nil {
		presenter.Error(err, "failed to scan skill folders")
		os.Exit(1)
	}
	presenter.Stats(&presenter.ScanStats{
		Found:   result.Count,
		Skipped: result.Skipped,
		Roots:   len(service.Roots()),
	})

	port := config.Port
	if port == 0 {
		port, err = utils.FindAvailablePort(defaultPortStart, portProbeTries)
		if err != nil {
			presenter.Error(err, "no free port for the dashboard server")
			os.Exit(1)
		}
	}

	logger.G(ctx).WithFields(map[string]interface{}{
		"host": config.Host,
		"port": port,
		"lang": string(lang),
	}).Info("Starting skill dashboard server")

	// Create server configuration
	serverConfig := &webui.ServerConfig{
		Host:     config.Host,
		Port:     port,
		Language: lang,
	}

	// Create the dashboard server
	server, err := webui.NewServer(serverConfig, service)
	if err != nil {
		presenter.Error(err, "failed to create dashboard server")
		os.Exit(1)
	}

	// Create a context that cancels on interrupt signals
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Rescan on skill folder changes
	if !config.NoWatch {
		watcher := registry.NewWatcher(service, service.Roots(), registry.DefaultDebounce)
		go func() {
			if err := watcher.Start(ctx); err != nil {
				logger.G(ctx).WithError(err).Error("skill folder watcher stopped")
			}
		}()
	}

	url := serverConfig.BaseURL()
	if !config.NoOpen {
		go openWhenReady(ctx, url)
	}

	// Start the server
	presenter.Success(fmt.Sprintf("Skill dashboard starting on %s", url))
	presenter.Info("Press Ctrl+C to stop the server")

	// Start server and wait for shutdown
	if err := server.Start(ctx); err != nil {
		logger.G(ctx).WithError(err).Error("dashboard server error")
		presenter.Error(err, "dashboard server failed")
		os.Exit(1)
	}

	presenter.Info("Skill dashboard stopped")
}

// openWhenReady opens the dashboard in the default browser once the server
// answers its status endpoint.
func openWhenReady(ctx context.Context, url string) {
	err := retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, url+"/api/status", nil)
			if err != nil {
				return err
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				return err
			}
			resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("status endpoint returned %d", resp.StatusCode)
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(20),
		retry.Delay(100*time.Millisecond),
		retry.DelayType(retry.FixedDelay),
	)
	if err != nil {
		logger.G(ctx).WithError(err).Debug("dashboard not ready, skipping browser open")
		return
	}

	telemetry.AddEvent(ctx, "browser.open")
	if err := utils.OpenBrowser(url); err != nil {
		logger.G(ctx).WithError(err).Debug("failed to open browser")
		presenter.Info(fmt.Sprintf("Open %s in your browser to view the dashboard", url))
	}
}
