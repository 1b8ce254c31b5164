package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/docsight/internal/connectors/filesystem"
	"github.com/custodia-labs/docsight/internal/core/domain"
	"github.com/custodia-labs/docsight/internal/core/services"
	"github.com/custodia-labs/docsight/internal/logger"
)

var (
	watchMetricsAddr string
	watchWorkers     int
	watchExisting    bool
	watchDebounce    time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Analyse documents as they appear in a folder",
	Long: `Watches a folder (and its subfolders) and analyses every file that is
created or modified. Hidden files are ignored.

Use --metrics-addr to expose Prometheus metrics while watching:
  docsight watch ~/papers --metrics-addr :9090`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchMetricsAddr, "metrics-addr", "", "address to serve /metrics on (disabled when empty)")
	watchCmd.Flags().IntVarP(&watchWorkers, "workers", "w", services.DefaultIngestWorkers, "documents analysed concurrently")
	watchCmd.Flags().BoolVar(&watchExisting, "existing", false, "analyse files already in the folder first")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 500*time.Millisecond, "quiet period before a changed file is analysed")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if analysisService == nil {
		return errors.New("analysis service not configured")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if watchMetricsAddr != "" {
		if metricsGatherer == nil {
			return errors.New("metrics not configured")
		}
		srv := serveMetrics(watchMetricsAddr)
		defer srv.Shutdown(context.Background()) //nolint:errcheck
		cmd.Printf("Metrics on http://%s/metrics\n", watchMetricsAddr)
	}

	connector := filesystem.New(args[0], filesystem.WithDebounce(watchDebounce))
	defer connector.Close()

	changes, err := connector.Watch(ctx)
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", args[0], err)
	}

	var outMu sync.Mutex
	queue := services.NewIngestQueue(analysisService, watchWorkers, func(r services.IngestResult) {
		outMu.Lock()
		defer outMu.Unlock()
		printIngestResult(cmd, r)
	})
	queue.Start(ctx)
	defer queue.Stop()

	if watchExisting {
		paths, err := connector.Scan(ctx)
		if err != nil {
			return fmt.Errorf("failed to scan %s: %w", args[0], err)
		}
		for _, path := range paths {
			submitFile(ctx, queue, path)
		}
	}

	cmd.Printf("Watching %s (Ctrl+C to stop)\n", connector.Root())
	for change := range changes {
		if change.Type == filesystem.ChangeDeleted {
			logger.Debug("Ignoring deleted file %s", change.Path)
			continue
		}
		submitFile(ctx, queue, change.Path)
	}
	return nil
}

func submitFile(ctx context.Context, queue *services.IngestQueue, path string) {
	raw, err := filesystem.Load(path, "")
	if err != nil {
		logger.Warn("Skipping %s: %v", path, err)
		return
	}
	if len(raw.Content) == 0 {
		logger.Debug("Skipping empty file %s", path)
		return
	}
	if err := queue.Submit(ctx, raw); err != nil && !errors.Is(err, context.Canceled) {
		logger.Warn("Cannot queue %s: %v", path, err)
	}
}

func printIngestResult(cmd *cobra.Command, r services.IngestResult) {
	switch {
	case r.Err != nil:
		cmd.Printf("✗ %s: %v\n", r.Filename, r.Err)
	case r.Analysis == nil:
		cmd.Printf("✗ %s: no result\n", r.Filename)
	case r.Analysis.Status == domain.StatusFailed:
		cmd.Printf("✗ %s: %s\n", r.Filename, r.Analysis.Error)
	default:
		a := r.Analysis
		note := ""
		if a.IsDegraded() {
			note = fmt.Sprintf(", %d degraded", len(a.Degraded))
		}
		cmd.Printf("✓ %s → %s (%s, %d related%s)\n", r.Filename, a.ID, a.Classification, len(a.Relationships), note)
	}
}

// serveMetrics exposes the pipeline metrics in the background.
func serveMetrics(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(metricsGatherer, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server: %v", err)
		}
	}()
	return srv
}
