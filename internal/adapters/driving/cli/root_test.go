package cli

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd_Commands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"analyze", "show", "list", "resume", "watch", "settings", "mcp", "version"} {
		assert.True(t, names[want], "missing command %s", want)
	}
}

func TestRootCmd_GlobalFlags(t *testing.T) {
	v := rootCmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, v)
	assert.Equal(t, "v", v.Shorthand)
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("config-dir"))
}

// resetServices clears the package services for bootstrap tests.
func resetServices(t *testing.T) {
	t.Helper()
	prevA, prevS, prevM, prevB := analysisService, settingsService, metricsGatherer, bootstrap
	analysisService, settingsService, metricsGatherer = nil, nil, nil
	t.Cleanup(func() {
		analysisService, settingsService, metricsGatherer, bootstrap = prevA, prevS, prevM, prevB
		configDir = ""
		rootCmd.SetArgs(nil)
	})
}

func TestSetup_Bootstrap(t *testing.T) {
	resetServices(t)

	analysis := newMockAnalysisService()
	analysis.analyses["doc-1"] = completedAnalysis("doc-1", "a.pdf")
	reg := prometheus.NewRegistry()
	closed := false

	var gotDir string
	SetBootstrap(func(_ context.Context, dir string) (*App, error) {
		gotDir = dir
		return &App{
			Analysis: analysis,
			Settings: newMockSettingsService(),
			Metrics:  reg,
			Close:    func() { closed = true },
		}, nil
	})

	out, err := execute("--config-dir", "/tmp/docsight-test", "show", "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/docsight-test", gotDir)
	assert.Contains(t, out, "Deep Residual Learning")
	assert.Equal(t, prometheus.Gatherer(reg), metricsGatherer)
	assert.True(t, closed, "app is closed after the command")
}

func TestSetup_BootstrapError(t *testing.T) {
	resetServices(t)
	SetBootstrap(func(context.Context, string) (*App, error) {
		return nil, errors.New("opening database: locked")
	})

	_, err := execute("list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "opening database")
}

func TestSetup_VersionSkipsBootstrap(t *testing.T) {
	resetServices(t)
	called := false
	SetBootstrap(func(context.Context, string) (*App, error) {
		called = true
		return &App{}, nil
	})

	_, err := execute("version")
	require.NoError(t, err)
	assert.False(t, called)
}
