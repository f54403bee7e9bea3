package commands

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/dittofs-core/smbcore/internal/logger"
	"github.com/dittofs-core/smbcore/pkg/config"
	"github.com/dittofs-core/smbcore/pkg/smbfs/handle"
	"github.com/dittofs-core/smbcore/pkg/smbfs/loader"
	"github.com/dittofs-core/smbcore/pkg/smbfs/metrics"
	"github.com/dittofs-core/smbcore/pkg/smbfs/reaper"
	"github.com/dittofs-core/smbcore/pkg/smbfs/search"
)

var startShare string

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Run the filesystem core standalone",
	Long: `Run the smbcore filesystem core as a standalone harness: a demo
share is registered with an open-file table, a search slot table, a
background file loader, and reaper-managed file state, all wired to the
configured metrics registry. No network listener is started; there is no
SMB or NFS wire protocol in this core.

Examples:
  # Run in the foreground with the default config
  smbcoresrv start

  # Run with a custom config file
  smbcoresrv start --config /etc/smbcore/config.yaml

  # Run with environment variable overrides
  SMBCORE_FILESYSTEM_WORKER_THREAD_COUNT=16 smbcoresrv start`,
	RunE: runStart,
}

func init() {
	startCmd.Flags().StringVar(&startShare, "share", "demo", "Name of the demo share to register")
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}

	if err := InitLogger(cfg); err != nil {
		return err
	}

	logger.Info("smbcore harness starting",
		"config_source", getConfigSource(GetConfigFile()),
		"log_level", cfg.Logging.Level)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var met *metrics.Metrics
	if cfg.Metrics.Enabled {
		met = metrics.New(prometheus.DefaultRegisterer)
		logger.Info("metrics enabled", "port", cfg.Metrics.Port)
	} else {
		logger.Info("metrics disabled")
	}

	fs := reaper.New(cfg.Reaper.ScanInterval, cfg.Reaper.ExpiryAge)
	fs.SetMetrics(met)

	cache := fs.RegisterShare(startShare)
	if cfg.Reaper.WarmStore.Enabled {
		if err := cache.EnableWarmStore(cfg.Reaper.WarmStore.Dir); err != nil {
			return fmt.Errorf("failed to enable warm store for share %q: %w", startShare, err)
		}
		logger.Info("warm store enabled", "share", startShare, "dir", cfg.Reaper.WarmStore.Dir)
	}
	defer fs.UnregisterShare(startShare)

	var openFiles handle.Map
	if cfg.Filesystem.HashedOpenFileMap {
		openFiles = handle.NewHashedMap(0)
	} else {
		openFiles = handle.NewArrayMap()
	}
	if met != nil {
		openFiles.AddListener(met.ForShare(startShare))
	}

	var searches search.Map
	if cfg.Filesystem.HashedOpenFileMap {
		hashedSearches := search.NewHashed(cfg.Filesystem.MaxSearchesPerFile)
		hashedSearches.SetMetrics(met)
		searches = hashedSearches
	} else {
		sequentialSearches := search.NewSequential(cfg.Filesystem.DefaultSearchesPerFile, cfg.Filesystem.MaxSearchesPerFile)
		sequentialSearches.SetMetrics(met)
		searches = sequentialSearches
	}

	fileLoader := loader.New(cfg.Filesystem.WorkerThreadCount, cfg.Filesystem.ShutdownWait(), newDemoProcessor())
	fileLoader.SetMetrics(met)
	fileLoader.Start(ctx)

	logger.Info("share registered",
		"share", startShare,
		"hashed_open_file_map", cfg.Filesystem.HashedOpenFileMap,
		"worker_thread_count", cfg.Filesystem.WorkerThreadCount)

	stop := startDemoTraffic(ctx, openFiles, searches, fileLoader)
	defer stop()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	logger.Info("smbcore harness running, press Ctrl+C to stop")
	<-sigChan
	signal.Stop(sigChan)

	logger.Info("shutdown signal received, draining loader")
	fileLoader.Shutdown(false)
	cancel()
	logger.Info("smbcore harness stopped")

	return nil
}

// startDemoTraffic submits a trickle of synthetic load/save requests and
// open/close handle and search-slot churn, so the harness has something
// moving through the loader, open-file table, and search table while it
// runs. Returns a stop func that halts the generator.
func startDemoTraffic(ctx context.Context, openFiles handle.Map, searches search.Map, l *loader.BackgroundFileLoader) func() {
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(250 * time.Millisecond)
		defer ticker.Stop()
		var fid uint64
		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case <-ticker.C:
				fid++
				kind := loader.Load
				if rand.Intn(2) == 0 {
					kind = loader.Save
				}
				l.Submit(&loader.Request{
					Kind: kind,
					Single: &loader.SingleFileRequest{
						FID:      uint32(fid),
						UniqueID: fid,
					},
				})

				nf := &handle.NetworkFile{UniqueID: fid, Path: fmt.Sprintf("/demo/file-%d", fid)}
				id, err := openFiles.Add(nf)
				if err == nil {
					openFiles.Remove(id)
				}

				if searchID, err := searches.AllocateSlot(); err == nil {
					searches.Remove(searchID)
				} else if err := searches.AllocateSlotWithID(int(fid)); err == nil {
					searches.Remove(int(fid))
				}
			}
		}
	}()
	return func() { close(done) }
}
