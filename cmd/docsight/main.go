// Command docsight analyses documents and discovers how they relate.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/custodia-labs/docsight/internal/adapters/driven/ai"
	"github.com/custodia-labs/docsight/internal/adapters/driven/config/file"
	"github.com/custodia-labs/docsight/internal/adapters/driven/ocr/tesseract"
	"github.com/custodia-labs/docsight/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/docsight/internal/adapters/driving/cli"
	"github.com/custodia-labs/docsight/internal/core/services"
	"github.com/custodia-labs/docsight/internal/extractors"
	"github.com/custodia-labs/docsight/internal/extractors/html"
	"github.com/custodia-labs/docsight/internal/extractors/image"
	"github.com/custodia-labs/docsight/internal/extractors/pdf"
	"github.com/custodia-labs/docsight/internal/extractors/plaintext"
	"github.com/custodia-labs/docsight/internal/logger"
	"github.com/custodia-labs/docsight/internal/metrics"
)

func main() {
	cli.SetBootstrap(bootstrap)
	if err := cli.Execute(context.Background()); err != nil {
		os.Exit(1)
	}
}

// bootstrap wires the stores, AI services and pipeline for one invocation.
func bootstrap(ctx context.Context, configDir string) (*cli.App, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		configDir = filepath.Join(home, ".docsight")
	}

	configStore, err := file.NewConfigStore(configDir)
	if err != nil {
		return nil, fmt.Errorf("opening config: %w", err)
	}
	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator())
	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}

	store, err := sqlite.NewStore(filepath.Join(configDir, "data"))
	if err != nil {
		return nil, err
	}

	promptStore, err := file.NewPromptStore(filepath.Join(configDir, "prompts"))
	if err != nil {
		store.Close()
		return nil, err
	}

	aiServices := ai.Initialise(ctx, *settings, store.VectorRecordStore())

	if err := tesseract.CheckAvailable(); err != nil {
		logger.Debug("OCR unavailable, image extraction will fail: %v", err)
	}
	registry := extractors.NewRegistry(
		pdf.New(),
		plaintext.New(),
		html.New(),
		image.New(tesseract.New(), image.WithMaxWidth(settings.Pipeline.OCRMaxWidth)),
	)

	reg := prometheus.NewRegistry()
	pipelineMetrics, err := metrics.NewPipeline(reg)
	if err != nil {
		aiServices.Close()
		store.Close()
		return nil, fmt.Errorf("registering metrics: %w", err)
	}

	orchestrator := services.NewOrchestrator(
		registry,
		aiServices.LLMService,
		aiServices.EmbeddingService,
		aiServices.VectorStore,
		store.AnalysisStore(),
		promptStore,
		*settings,
		pipelineMetrics,
	)

	return &cli.App{
		Analysis: orchestrator,
		Settings: settingsService,
		Metrics:  reg,
		Close: func() {
			aiServices.Close()
			if err := store.Close(); err != nil {
				logger.Warn("Closing database: %v", err)
			}
		},
	}, nil
}
