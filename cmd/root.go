package cmd

import (
	"fmt"
	"os"

	cfgpkg "github.com/KaramelBytes/datasage-cli/internal/config"
	"github.com/KaramelBytes/datasage-cli/internal/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Global flags (override config if set)
	cfgFile            string
	debug              bool
	flagAPIURL         string
	flagHTTPTimeoutSec int
	flagLogFormat      string

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "datasage",
	Short: "DataSage CLI: upload a dataset and get a data-quality profile",
	Long: `DataSage uploads a CSV or Excel file to the DataSage analysis service and renders
the returned profile: per-column types, missing values, a quality score and
AI-generated recommendations.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	// Initialize configuration before executing commands
	cobra.OnInitialize(loadConfig)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	// Assigned here rather than in the literal to avoid an initialization cycle
	// (setupLogging -> loadConfig -> rootCmd).
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return setupLogging()
	}

	// Persistent global flags available to all subcommands
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.datasage/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&flagAPIURL, "api-url", "", "analysis service base URL (overrides DATASAGE_API_URL and config)")
	rootCmd.PersistentFlags().IntVar(&flagHTTPTimeoutSec, "http-timeout", 0, "HTTP client timeout in seconds, 0 = none (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "", "log output format: console|json (overrides config)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: fall back to defaults so health/version still work
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		c = &cfgpkg.Global{APIURL: cfgpkg.DefaultAPIURL, LogLevel: "warn", LogFormat: "console"}
	}
	cfg = c

	// Apply CLI overrides if provided
	f := rootCmd.PersistentFlags()
	if f.Changed("api-url") && flagAPIURL != "" {
		cfg.APIURL = flagAPIURL
	}
	if f.Changed("http-timeout") && flagHTTPTimeoutSec >= 0 {
		cfg.HTTPTimeoutSec = flagHTTPTimeoutSec
	}
	if f.Changed("log-format") && flagLogFormat != "" {
		cfg.LogFormat = flagLogFormat
	}
	if debug {
		cfg.LogLevel = "debug"
	}
}

// currentConfig returns the loaded configuration, loading it on demand for callers
// that run outside Execute (tests).
func currentConfig() *cfgpkg.Global {
	if cfg == nil {
		loadConfig()
	}
	return cfg
}

func setupLogging() error {
	c := currentConfig()
	level := c.LogLevel
	if level == "" {
		level = "warn"
	}
	if _, err := logging.Init(level, c.LogFormat, os.Stderr); err != nil {
		return err
	}
	zap.L().Debug("configuration loaded",
		zap.String("api_url", c.APIURL),
		zap.Int("http_timeout_sec", c.HTTPTimeoutSec),
	)
	return nil
}
