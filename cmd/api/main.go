package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"lifecode-recipe/internal/api"
	"lifecode-recipe/internal/app"
	"lifecode-recipe/internal/infrastructure/config"
	"lifecode-recipe/internal/pkg/common"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig(os.Getenv("APP_CONFIG_FILE"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// logger 需在載入 config 後初始化
	if err := common.InitLogger(cfg.LogLevel); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer common.Sync()

	common.LogInfo("載入設定",
		zap.String("llm_provider", cfg.LLM.Provider),
		zap.String("llm_model", cfg.LLM.Model),
		zap.String("llm_key", common.MaskAPIKey(cfg.LLM.Key())),
		zap.String("store", cfg.Store.Driver),
		zap.String("store_path", cfg.Store.Path),
	)

	a, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			common.LogError("Failed to release resources", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go a.SweepSessions(ctx, sweepInterval(cfg.Session.TTL))

	router, err := api.SetupRouter(api.Dependencies{
		Config:    cfg,
		Service:   a.Recipes,
		Store:     a.Store,
		Catalog:   a.Catalog,
		Estimator: a.Estimator,
		Sessions:  a.Sessions,
		Metrics:   a.Metrics,
		Provider:  a.ProviderName(),
	})
	if err != nil {
		return fmt.Errorf("failed to setup router: %w", err)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		common.LogInfo("啟動應用",
			zap.String("version", cfg.App.Version),
			zap.String("env", cfg.App.Env),
			zap.Bool("debug", cfg.App.Debug),
			zap.Int("port", cfg.Server.Port),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	}

	common.LogInfo("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	common.LogInfo("Server exited")
	return nil
}

// sweepInterval session 清理間隔，取 TTL 的四分之一並至少一分鐘
func sweepInterval(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return 0
	}
	if d := ttl / 4; d > time.Minute {
		return d
	}
	return time.Minute
}
