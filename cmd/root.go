package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"orgreg/internal/app"
	"orgreg/internal/catalog"
	"orgreg/internal/config"
	"orgreg/internal/infrastructure/sqlite"
	"orgreg/internal/log"
	"orgreg/internal/mode"
	"orgreg/internal/mode/shared"
	"orgreg/internal/platform"
	"orgreg/internal/session"
	"orgreg/internal/tracing"
	"orgreg/internal/ui/styles"
)

func init() {
	// Force lipgloss/termenv to query terminal background color BEFORE
	// any Bubble Tea program starts. This prevents the terminal's OSC 11
	// response from racing with Bubble Tea's input loop and appearing as
	// garbage text in input fields.
	//
	// See: https://github.com/charmbracelet/bubbletea/issues/1036
	_ = lipgloss.HasDarkBackground()
}

var (
	version   = "dev"
	cfgFile   string
	debugMode bool
	cfg       config.Config
)

var rootCmd = &cobra.Command{
	Use:     "orgreg",
	Short:   "A terminal client for registering organization accounts",
	Long:    `A terminal user interface for creating an organization account on the platform, with catalog-backed selection fields and local form drafts.`,
	Version: version,
	RunE:    runApp,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ~/.config/orgreg/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false,
		"write debug logs to ~/.config/orgreg/debug.log")
	rootCmd.Flags().String("api-url", "",
		"platform API base URL (skips discovery)")
	rootCmd.Flags().String("discovery-url", "",
		"discovery endpoint queried for the API base URL")

	// Bind flags to viper
	_ = viper.BindPFlag("api.base_url", rootCmd.Flags().Lookup("api-url"))
	_ = viper.BindPFlag("api.discovery_url", rootCmd.Flags().Lookup("discovery-url"))
}

func initConfig() {
	defaults := config.Defaults()
	viper.SetDefault("api.timeout", defaults.API.Timeout)
	viper.SetDefault("session.credentials_path", defaults.Session.CredentialsPath)
	viper.SetDefault("session.watch", defaults.Session.Watch)
	viper.SetDefault("ui.markdown_style", defaults.UI.MarkdownStyle)
	viper.SetDefault("ui.show_status_bar", defaults.UI.ShowStatusBar)
	viper.SetDefault("drafts.db_path", defaults.Drafts.DBPath)
	viper.SetDefault("catalog.ttl", defaults.Catalog.TTL)
	viper.SetDefault("tracing.exporter", defaults.Tracing.Exporter)
	viper.SetDefault("tracing.otlp_endpoint", defaults.Tracing.OTLPEndpoint)
	viper.SetDefault("tracing.sample_rate", defaults.Tracing.SampleRate)

	// Environment overrides, e.g. ORGREG_API_BASE_URL
	viper.SetEnvPrefix("ORGREG")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. .orgreg/config.yaml (current directory)
		// 2. ~/.config/orgreg/config.yaml (user config)
		if _, err := os.Stat(".orgreg/config.yaml"); err == nil {
			viper.SetConfigFile(".orgreg/config.yaml")
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(filepath.Join(home, ".config", "orgreg"))
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		// No config file found anywhere - create a commented default
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			if home, homeErr := os.UserHomeDir(); homeErr == nil {
				defaultPath := filepath.Join(home, ".config", "orgreg", "config.yaml")
				if writeErr := config.WriteDefaultConfig(defaultPath); writeErr == nil {
					viper.SetConfigFile(defaultPath)
					_ = viper.ReadInConfig()
				}
			}
			// If write fails, just continue with defaults (no config file)
		}
	}

	_ = viper.Unmarshal(&cfg)

	// ORGREG_DEBUG=true works without the flag
	if !debugMode {
		debugMode = viper.GetBool("debug")
	}
}

// configDir returns ~/.config/orgreg, or "." when the home dir is
// unavailable.
func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "orgreg")
}

func runApp(cmd *cobra.Command, args []string) error {
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w\nSet api.discovery_url or api.base_url in %s", err, filepath.Join(configDir(), "config.yaml"))
	}

	if debugMode {
		cleanup, err := log.Init(filepath.Join(configDir(), "debug.log"))
		if err != nil {
			return fmt.Errorf("opening debug log: %w", err)
		}
		defer cleanup()
	}

	styles.ApplyTheme(cfg.Theme.Accent, cfg.Theme.Muted, cfg.Theme.Error, cfg.Theme.Success)

	traceProvider, err := tracing.NewProvider(cfg.Tracing)
	if err != nil {
		return fmt.Errorf("initializing tracing: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = traceProvider.Shutdown(ctx)
	}()

	credentialsPath := cfg.Session.CredentialsPath
	if credentialsPath == "" {
		credentialsPath = config.DefaultCredentialsPath()
	}
	sessionProvider, err := session.Load(credentialsPath)
	if err != nil {
		return fmt.Errorf("loading credentials from %s: %w\nSign in on the platform first to create the credentials file", credentialsPath, err)
	}

	client := platform.NewClient(sessionProvider, cfg.API.Timeout)
	if cfg.API.BaseURL != "" {
		client.SetBaseURL(cfg.API.BaseURL)
	}

	services := mode.Services{
		Client:    client,
		Session:   sessionProvider,
		Catalogs:  catalog.NewService(client, cfg.Catalog.TTL),
		Config:    &cfg,
		Clipboard: shared.SystemClipboard{},
		Clock:     shared.RealClock{},
	}

	if cfg.Drafts.IsEnabled() {
		dbPath := cfg.Drafts.DBPath
		if dbPath == "" {
			dbPath = config.DefaultDraftsDBPath()
		}
		db, err := sqlite.NewDB(dbPath)
		if err != nil {
			// Drafts are a convenience, not a requirement
			log.Warn(log.CatDraft, "Draft store unavailable", "path", dbPath, "error", err)
		} else {
			defer func() { _ = db.Close() }()
			services.Drafts = db.Drafts()
		}
	}

	var watcher *session.Watcher
	if cfg.Session.Watch {
		watcher, err = session.NewWatcher(sessionProvider, time.Second)
		if err != nil {
			log.Warn(log.CatSession, "Credentials watcher unavailable", "error", err)
			watcher = nil
		}
	}

	zone.NewGlobal()

	model := app.New(services, watcher)
	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	_, err = p.Run()

	// Clean up watcher resources
	if closeErr := model.Close(); closeErr != nil && err == nil {
		err = closeErr
	}

	if err != nil {
		return fmt.Errorf("running program: %w", err)
	}
	return nil
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
