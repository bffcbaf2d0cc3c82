package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/spf13/cobra"

	"github.com/noventa-dev/noventa/internal/config"
	"github.com/noventa-dev/noventa/internal/dev"
	ierrors "github.com/noventa-dev/noventa/internal/errors"
	"github.com/noventa-dev/noventa/pkg/admission"
	"github.com/noventa-dev/noventa/pkg/catalog"
	"github.com/noventa-dev/noventa/pkg/diag"
	"github.com/noventa-dev/noventa/pkg/health"
	"github.com/noventa-dev/noventa/pkg/middleware"
	"github.com/noventa-dev/noventa/pkg/render"
	"github.com/noventa-dev/noventa/pkg/routing"
	"github.com/noventa-dev/noventa/pkg/script"
	"github.com/noventa-dev/noventa/pkg/upload"
	"github.com/noventa-dev/noventa/pkg/web"
)

func serveCmd() *cobra.Command {
	var (
		port        int
		host        string
		interpreter string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the production server",
		Long: `Start the server in production mode: no file watching, no hot
reload, generic error pages.

Examples:
  noventa serve
  noventa serve --port=8080`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFromWorkingDir()
			if err != nil {
				return err
			}
			if port > 0 {
				cfg.Server.Port = port
			}
			if host != "" {
				cfg.Server.Host = host
			}
			return runServer(cfg, interpreter, false)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (default from noventa.json)")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind to (default from noventa.json)")
	cmd.Flags().StringVar(&interpreter, "interpreter", "python3", "Script runtime interpreter binary")

	return cmd
}

// stack is everything runServer builds and has to tear down.
type stack struct {
	catalog   *catalog.Catalog
	pool      *script.Pool
	server    *web.Server
	admission *admission.Controller
	reload    *dev.ReloadServer
	reloader  *dev.Reloader
}

func buildStack(cfg *config.Config, interpreter string, devMode bool, logger *slog.Logger) (*stack, error) {
	components, err := catalog.Scan(cfg.ComponentsPath(), logger)
	if err != nil {
		return nil, err
	}
	pages, err := catalog.ScanPages(cfg.PagesPath(), logger)
	if err != nil {
		return nil, err
	}
	cat := catalog.New(append(components, pages...))
	logger.Info("catalog loaded", "components", len(components), "pages", len(pages))

	routes, err := routing.Compile(cfg.PagesPath(), logger)
	if err != nil {
		return nil, err
	}

	pool, err := script.NewPool(script.NewSubprocessFactory(interpreter), cfg.Pool.Workers, cat.All(), logger)
	if err != nil {
		return nil, err
	}

	sampler := health.NewSampler()

	broadcaster := diag.NewBroadcaster(logger)
	broadcaster.Classify(diagKind)

	pipeline := render.NewPipeline(render.PipelineConfig{
		Catalog:     cat,
		Invoker:     pool,
		Engine:      render.NewTextEngine(cat),
		Sampler:     sampler,
		Diagnostics: broadcaster,
		Logger:      logger,
	})

	var controller *admission.Controller
	if cfg.Admission.Enabled {
		controller = admission.New(admission.Config{
			Window:     cfg.AdmissionWindow(),
			Tick:       cfg.AdmissionTick(),
			Multiplier: cfg.Admission.Multiplier,
		}, sampler, logger)
		controller.Start()
	}

	store, err := buildUploadStore(cfg)
	if err != nil {
		pool.Close()
		return nil, err
	}

	metrics := middleware.NewMetrics()
	metrics.RegisterPoolDepth(func() float64 {
		return float64(pool.Pending())
	})

	var reload *dev.ReloadServer
	if devMode {
		reload = dev.NewReloadServer()
	}

	server := web.New(web.Options{
		Config:      cfg,
		Pipeline:    pipeline,
		Routes:      routes,
		Sampler:     sampler,
		Admission:   controller,
		Metrics:     metrics,
		Diag:        broadcaster,
		Reload:      reload,
		UploadStore: store,
		DevMode:     devMode,
		Logger:      logger,
	})

	s := &stack{
		catalog:   cat,
		pool:      pool,
		server:    server,
		admission: controller,
		reload:    reload,
	}

	if devMode {
		s.reloader = dev.NewReloader(dev.ReloaderConfig{
			PagesDir:      cfg.PagesPath(),
			ComponentsDir: cfg.ComponentsPath(),
			ExtraPaths:    cfg.Dev.Watch,
			PollInterval:  cfg.WatchPollInterval(),
			Catalog:       cat,
			Pool:          pool,
			SetRoutes:     server.SetRoutes,
			Reload:        reload,
			Logger:        logger,
		})
	}
	return s, nil
}

func buildUploadStore(cfg *config.Config) (upload.Store, error) {
	switch cfg.Uploads.Store {
	case "s3":
		awsCfg, err := awsconfig.LoadDefaultConfig(context.Background())
		if err != nil {
			return nil, fmt.Errorf("loading AWS config: %w", err)
		}
		return upload.NewS3Store(s3.NewFromConfig(awsCfg), cfg.Uploads.S3Bucket, cfg.Uploads.S3Prefix, 0), nil
	default:
		return upload.NewDiskStore(cfg.UploadsPath(), 0)
	}
}

// diagKind maps a classified render error to its diagnostics kind.
func diagKind(err error) string {
	switch ierrors.Classify(err).Code {
	case "E020", "E021":
		return diag.KindComponentNotFound
	case "E010":
		return diag.KindInvalidRequest
	case "E001", "E002":
		return diag.KindScript
	case "E030":
		return diag.KindTemplate
	default:
		return diag.KindInternal
	}
}

func runServer(cfg *config.Config, interpreter string, devMode bool) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	s, err := buildStack(cfg, interpreter, devMode, logger)
	if err != nil {
		return err
	}
	defer s.pool.Close()
	if s.admission != nil {
		defer s.admission.Stop()
	}
	if s.reload != nil {
		defer s.reload.Close()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if s.reloader != nil {
		go s.reloader.Run(ctx)
	}

	printBanner()
	mode := "serve"
	if devMode {
		mode = "dev"
	}
	info("%s mode, listening on http://%s", mode, cfg.Address())
	fmt.Println()

	return s.server.ListenAndServe(ctx)
}
