// Package cli provides the docsight command-line interface.
package cli

import (
	"context"
	"errors"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/docsight/internal/core/ports/driving"
	"github.com/custodia-labs/docsight/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	verbose   bool
	configDir string
)

// Services used by the commands. Bootstrap fills them unless already set.
var (
	analysisService driving.AnalysisService
	settingsService driving.SettingsService
	metricsGatherer prometheus.Gatherer
)

// App holds the services built for one CLI invocation.
type App struct {
	Analysis driving.AnalysisService
	Settings driving.SettingsService
	Metrics  prometheus.Gatherer

	// Close releases stores and clients. May be nil.
	Close func()
}

// BootstrapFunc builds the App from the configuration directory.
// An empty configDir means the default location.
type BootstrapFunc func(ctx context.Context, configDir string) (*App, error)

var (
	bootstrap BootstrapFunc
	closeApp  func()
)

// skipBootstrap marks commands that need no services.
const skipBootstrap = "skip-bootstrap"

var rootCmd = &cobra.Command{
	Use:   "docsight",
	Short: "Analyse documents and discover how they relate",
	Long: `docsight turns PDFs, scanned images and plain text into structured,
classified and embedded analyses, then links each document to similar
documents already in the corpus.

Analyses are stored locally and can be resumed if a run is interrupted.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		if closeApp != nil {
			closeApp()
			closeApp = nil
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "configuration directory (default ~/.docsight)")
}

// SetBootstrap sets the function that wires the services.
func SetBootstrap(fn BootstrapFunc) {
	bootstrap = fn
}

// Execute runs the root command with output on stdout.
func Execute(ctx context.Context) error {
	rootCmd.SetOut(os.Stdout)
	return rootCmd.ExecuteContext(ctx)
}

func setup(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	if cmd.Annotations[skipBootstrap] == "true" || bootstrap == nil {
		return nil
	}
	if analysisService != nil || settingsService != nil {
		return nil
	}

	app, err := bootstrap(cmd.Context(), configDir)
	if err != nil {
		return err
	}
	if app == nil {
		return errors.New("bootstrap returned no services")
	}
	analysisService = app.Analysis
	settingsService = app.Settings
	metricsGatherer = app.Metrics
	closeApp = app.Close
	return nil
}
