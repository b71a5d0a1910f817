package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	appFormula "github.com/eli5y/eli5y/internal/application/formula"
	"github.com/eli5y/eli5y/internal/application/tutor"
	"github.com/eli5y/eli5y/internal/config"
	"github.com/eli5y/eli5y/internal/infrastructure/database/postgres"
	"github.com/eli5y/eli5y/internal/infrastructure/database/postgres/repositories"
	"github.com/eli5y/eli5y/internal/infrastructure/database/redis"
	"github.com/eli5y/eli5y/internal/infrastructure/monitoring/logging"
	"github.com/eli5y/eli5y/internal/infrastructure/monitoring/prometheus"
	"github.com/eli5y/eli5y/internal/intelligence/formula_gpt"
	"github.com/eli5y/eli5y/internal/intelligence/mathpix"
	httpserver "github.com/eli5y/eli5y/internal/interfaces/http"
	"github.com/eli5y/eli5y/internal/interfaces/http/handlers"
	"github.com/eli5y/eli5y/internal/interfaces/http/middleware"
)

func newServeCmd(opts *RootOptions) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			if port > 0 {
				cfg.Server.Port = port
			}
			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}
			if opts.ConfigPath != "" {
				config.Watch(opts.ConfigPath, func(next *config.Config) {
					logger.Info("configuration file changed on disk, restart to apply",
						logging.String("path", opts.ConfigPath),
						logging.String("log_level", next.Log.Level),
					)
				})
			}
			return RunServer(cmd.Context(), cfg, logger)
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "HTTP port (overrides config)")
	return cmd
}

// RunServer wires the full service stack and serves until the context is
// cancelled or a termination signal arrives.
func RunServer(ctx context.Context, cfg *config.Config, logger logging.Logger) error {
	logger.Info("starting eli5y API server",
		logging.String("version", Version),
		logging.Int("port", cfg.Server.Port),
	)
	gin.SetMode(cfg.Server.Mode)

	metrics := prometheus.NewMetrics()

	// Storage.
	if err := postgres.RunMigrations(cfg.Database, logger); err != nil {
		return err
	}
	conn, err := postgres.NewConnection(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer conn.Close()
	repo := repositories.NewFormulaRepository(conn.Pool(), logger)

	checks := map[string]handlers.CheckFunc{
		"postgres": conn.HealthCheck,
	}

	// Parse cache, optional.
	var cache appFormula.ParseCache
	if cfg.Cache.Enabled {
		redisClient, err := redis.NewClient(ctx, cfg.Redis, logger)
		if err != nil {
			return err
		}
		defer redisClient.Close()
		cache = redis.NewParseCache(redisClient, cfg.Redis.KeyPrefix, cfg.Cache.ParseTTL, logger)
		checks["redis"] = redisClient.HealthCheck
	}

	// Model collaborators.
	llm, err := formula_gpt.NewClient(formula_gpt.FromAppConfig(cfg.LLM), metrics, logger)
	if err != nil {
		return err
	}
	ocr := mathpix.NewClient(cfg.OCR, logger)

	// Application services.
	formulaService := appFormula.NewService(llm, ocr, cache, repo, metrics, logger)
	tutorService := tutor.NewService(llm, repo, logger)

	// HTTP stack.
	routerCfg := httpserver.RouterConfig{
		FormulaHandler: handlers.NewFormulaHandler(formulaService, cfg.OCR.MaxImageBytes, logger),
		ChatHandler:    handlers.NewChatHandler(tutorService, logger),
		HealthHandler:  handlers.NewHealthHandler(checks, logger),
		Metrics:        metrics,
		CORS:           &cfg.CORS,
		Logger:         logger,
	}
	if cfg.RateLimit.Enabled {
		limiter := middleware.NewTokenBucketLimiter(
			cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst, 5*time.Minute)
		defer limiter.Stop()
		routerCfg.RateLimiter = limiter
	}

	srv := httpserver.NewServer(cfg.Server, httpserver.NewRouter(routerCfg), logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	case sig := <-quit:
		logger.Info("received signal", logging.String("signal", sig.String()))
	}

	return srv.Stop(context.Background())
}
