package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/internal/contract"
	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/internal/manifest"
	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/internal/observability"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// watchCmd re-runs the workflow whenever the manifest or one of its inputs changes.
var watchCmd = &cobra.Command{
	Use:   "watch [manifest]",
	Short: "Re-run the workflow when the manifest or its inputs change",
	Long: `Run the workflow once, then watch the manifest and every input it names.
Each change triggers a new run after the --debounce quiet period.
Stop with Ctrl-C.

Examples:
  wim watch
  wim watch basins/upper-james.toml --debounce 5s`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		ctx, stop := signal.NotifyContext(rootCtx, os.Interrupt, syscall.SIGTERM)
		defer stop()
		if err := watchManifest(ctx, cfg, viper.GetDuration("debounce")); err != nil {
			contract.LogFatal("Watch failed", err)
		}
	},
}

// watchManifest runs until ctx is cancelled. Run failures are logged and the
// watch continues.
func watchManifest(ctx context.Context, cfg *contract.Config, debounce time.Duration) error {
	logger := newCLILogger()
	metrics := observability.NewMetrics()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	watched := watchSet(cfg.ManifestPath, logger)
	if err := addWatchDirs(watcher, watched); err != nil {
		return err
	}

	rerun := func() {
		if err := executeRun(ctx, cfg, logger, metrics); err != nil {
			logger.Error("run failed", "error", err)
		}
	}
	rerun()

	timer := time.NewTimer(debounce)
	timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if _, hit := watched[filepath.Clean(ev.Name)]; !hit || ev.Op == fsnotify.Chmod {
				continue
			}
			logger.Debug("input changed", "path", ev.Name, "op", ev.Op.String())
			timer.Reset(debounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "error", err)
		case <-timer.C:
			// The manifest may now name different inputs.
			next := watchSet(cfg.ManifestPath, logger)
			if err := addWatchDirs(watcher, next); err != nil {
				logger.Warn("watch error", "error", err)
			}
			watched = next
			logger.Info("change detected, re-running", "manifest", cfg.ManifestPath)
			rerun()
		}
	}
}

// watchSet is the manifest plus every input it names. A manifest that fails
// to parse is still watched so that fixing it triggers a run.
func watchSet(manifestPath string, logger *slog.Logger) map[string]struct{} {
	set := map[string]struct{}{filepath.Clean(manifestPath): {}}
	m, err := manifest.Load(manifestPath)
	if err != nil {
		logger.Warn("cannot read manifest inputs", "error", err)
		return set
	}
	for _, p := range m.Inputs() {
		set[filepath.Clean(p)] = struct{}{}
	}
	return set
}

// addWatchDirs watches the parent directories of the given files so that
// replaced files are still seen. Missing directories are skipped.
func addWatchDirs(w *fsnotify.Watcher, files map[string]struct{}) error {
	dirs := make(map[string]struct{})
	for f := range files {
		dirs[filepath.Dir(f)] = struct{}{}
	}
	for dir := range dirs {
		if _, err := os.Stat(dir); err != nil {
			continue
		}
		if err := w.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}
	return nil
}
