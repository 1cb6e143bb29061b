// Forager builds a live world model of a survival game from the
// detector service's frame stream and serves it on a dashboard.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/teslashibe/go-forager/internal/config"
	"github.com/teslashibe/go-forager/internal/log"
	"github.com/teslashibe/go-forager/pkg/camera"
	"github.com/teslashibe/go-forager/pkg/catalog"
	"github.com/teslashibe/go-forager/pkg/perception"
	"github.com/teslashibe/go-forager/pkg/perception/detection"
	"github.com/teslashibe/go-forager/pkg/segmentation"
	"github.com/teslashibe/go-forager/pkg/tracking"
	"github.com/teslashibe/go-forager/pkg/web"
	"golang.org/x/sync/errgroup"
)

// options are the resolved command line settings
type options struct {
	logLevel    string
	feedURL     string
	port        string
	catalogPath string
	tuningPath  string
	modelPath   string
	preset      string
	noTerrain   bool
	streamEvery int
}

func main() {
	opts := parseFlags()
	log.Init(opts.logLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, opts); err != nil {
		log.Error("forager stopped", "error", err)
		os.Exit(1)
	}
}

// parseFlags reads flags, falling back to the environment
func parseFlags() options {
	var o options
	flag.StringVar(&o.logLevel, "log-level", config.LogLevel(), "Log level: debug, info, warn, error")
	flag.StringVar(&o.feedURL, "feed", config.FeedURL(), "Detector service websocket URL (FEED_URL)")
	flag.StringVar(&o.port, "port", config.DashboardPort(), "Dashboard port, empty to disable (DASHBOARD_PORT)")
	flag.StringVar(&o.catalogPath, "catalog", config.CatalogPath(), "Catalog YAML, empty for the built-in one (CATALOG_PATH)")
	flag.StringVar(&o.tuningPath, "tuning", config.TuningPath(), "Tuning YAML, empty for defaults (TUNING_PATH)")
	flag.StringVar(&o.modelPath, "model", config.ModelPath(), "YOLO ONNX model for JPEG frames (MODEL_PATH)")
	flag.StringVar(&o.preset, "camera", "", fmt.Sprintf("Camera preset %v, overrides the tuning file", camera.PresetNames()))
	flag.BoolVar(&o.noTerrain, "no-terrain", config.EnvBool("NO_TERRAIN", false), "Disable terrain mapping")
	flag.IntVar(&o.streamEvery, "stream-every", 2, "Stream every n-th snapshot to the dashboard")
	flag.Parse()
	return o
}

func run(ctx context.Context, o options) error {
	logger := log.L()

	cat, err := loadCatalog(o.catalogPath)
	if err != nil {
		return err
	}

	cfg := tracking.DefaultConfig()
	if o.tuningPath != "" {
		if cfg, err = tracking.LoadConfig(o.tuningPath); err != nil {
			return err
		}
	}
	if o.preset != "" {
		preset := camera.GetPreset(o.preset)
		if preset == nil {
			return fmt.Errorf("unknown camera preset %q", o.preset)
		}
		cfg.Camera = *preset
	}
	if o.noTerrain {
		cfg.TerrainEnabled = false
	}

	feed := perception.NewFeed()
	defer feed.Close()

	clientOpts := []perception.ClientOption{perception.WithClientLogger(logger)}
	if o.modelPath != "" {
		detCfg := detection.DefaultConfig()
		detCfg.ModelPath = o.modelPath
		yolo, err := detection.NewYOLO(detCfg, detection.WithKnownClasses(cat.Has))
		if err != nil {
			return fmt.Errorf("detector: %w", err)
		}
		defer yolo.Close()
		clientOpts = append(clientOpts, perception.WithDetector(yolo))
		logger.Info("local detection enabled", "model", o.modelPath)
	}
	client := perception.NewClient(o.feedURL, feed, clientOpts...)

	cameras := camera.NewManager()
	tracker, err := tracking.New(cfg, cat, feed,
		tracking.WithCameraManager(cameras),
		tracking.WithRectifier(segmentation.New(segmentation.DefaultConfig())),
		tracking.WithLogger(logger))
	if err != nil {
		return err
	}

	logger.Info("forager starting",
		"feed", o.feedURL,
		"catalog_items", cat.Len(),
		"camera", fmt.Sprintf("%dx%d", cfg.Camera.Width, cfg.Camera.Height),
		"terrain", cfg.TerrainEnabled)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return tracker.Run(ctx) })
	g.Go(func() error { return ignoreCanceled(client.Run(ctx)) })

	if o.port != "" {
		server := web.NewServer(o.port, tracker, cameras,
			web.WithLogger(logger),
			web.WithStreamEvery(o.streamEvery))
		tracker.SetOnCycle(server.PublishSnapshot)
		g.Go(func() error { return server.Run(ctx) })
	}

	return g.Wait()
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default(), nil
	}
	return catalog.Load(path)
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
