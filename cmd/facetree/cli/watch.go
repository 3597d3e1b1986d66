package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/hupe1980/facetree"
	"github.com/hupe1980/facetree/dataset"
	"github.com/hupe1980/facetree/facet"
	"github.com/hupe1980/facetree/prommetrics"
)

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-run a search whenever the fixture file changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			cfg, repo, err := loadInputs(cmd)
			if err != nil {
				return err
			}
			req, err := requestFromFlags(cmd)
			if err != nil {
				return err
			}
			debounce, _ := cmd.Flags().GetDuration("debounce")
			dataPath, _ := cmd.Flags().GetString("data")

			logger := cfg.Log.Logger()
			collector := prommetrics.New("facetree")
			reg := prometheus.NewRegistry()
			reg.MustRegister(collector)

			eng, err := openEngine(ctx, cfg, repo, logger, collector)
			if err != nil {
				return err
			}
			defer func() { _ = eng.Close() }()
			collector.WatchUsage(eng.Usage)

			if cfg.Metrics.Addr != "" {
				srv := &http.Server{
					Addr:              cfg.Metrics.Addr,
					Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
					ReadHeaderTimeout: 5 * time.Second,
				}
				go func() {
					logger.Info("metrics server listening", "addr", cfg.Metrics.Addr)
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						logger.Error("metrics server error", "error", err)
					}
				}()
				defer func() { _ = srv.Close() }()
			}

			w := &watcher{
				path:     dataPath,
				repo:     repo,
				eng:      eng,
				req:      req,
				debounce: debounce,
				logger:   logger,
				out:      newPrinter(outputFormat(cmd), cmd.OutOrStdout()),
			}
			return w.run(ctx)
		},
	}
	cmd.Flags().String("request", "", "request file (JSON)")
	cmd.Flags().String("query", "", "general search text, overrides the request file")
	cmd.Flags().Bool("complete", false, "also print the descendants of every match")
	cmd.Flags().Duration("debounce", 200*time.Millisecond, "wait this long after the last change before reloading")
	_ = cmd.MarkFlagRequired("request")
	return cmd
}

// watcher reloads a fixture into a live repository and re-runs one search.
type watcher struct {
	path     string
	repo     *dataset.Repository
	eng      *facetree.Engine
	req      facetree.Request
	debounce time.Duration
	logger   *facetree.Logger
	out      *printer

	// ready is closed once the file watch is registered.
	ready chan struct{}
}

func (w *watcher) run(ctx context.Context) error {
	if err := w.search(ctx); err != nil {
		return err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = fw.Close() }()

	// Editors often replace the file by rename, so watch the directory.
	path := filepath.Clean(w.path)
	if err := fw.Add(filepath.Dir(path)); err != nil {
		return err
	}
	if w.ready != nil {
		close(w.ready)
	}

	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				fire = time.After(w.debounce)
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("fsnotify error", "error", err)

		case <-fire:
			fire = nil
			if err := w.reload(ctx); err != nil {
				w.logger.WarnContext(ctx, "reload failed", "path", path, "error", err)
			}
		}
	}
}

// reload replaces the repository contents with the fixture on disk,
// invalidates cached results of every changed datatype and searches again.
// A fixture that fails validation leaves the repository untouched.
func (w *watcher) reload(ctx context.Context) error {
	f, err := dataset.ReadFixture(w.path)
	if err != nil {
		return err
	}
	changed, err := w.repo.Replace(f)
	if err != nil {
		return err
	}
	if len(changed) == 0 {
		w.logger.DebugContext(ctx, "fixture unchanged", "path", w.path)
		return nil
	}

	for _, dt := range changed {
		// A removed datatype still drops its entries before the lookup fails.
		if _, err := w.eng.Invalidate(ctx, dt, facet.AnyField); err != nil && !errors.Is(err, facetree.ErrNotFound) {
			return err
		}
	}
	w.logger.InfoContext(ctx, "fixture reloaded", "path", w.path, "changed", len(changed))
	return w.search(ctx)
}

func (w *watcher) search(ctx context.Context) error {
	res, err := w.eng.Search(ctx, w.req)
	if err != nil {
		return err
	}
	return printResult(w.out, res)
}
