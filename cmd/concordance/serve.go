package main

import (
	"context"
	stderrors "errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gcbaptista/go-concordance-engine/api"
	"github.com/gcbaptista/go-concordance-engine/internal/analytics"
	"github.com/gcbaptista/go-concordance-engine/internal/engine"
)

const (
	shutdownTimeout   = 15 * time.Second
	analyticsFileName = "analytics.json"
)

var port string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("port") {
			serverConfig.Port = port
		}
		return runServer(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().StringVarP(&port, "port", "p", "", "Port to run the server on (default 8080)")
}

func runServer(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting concordance server",
		zap.String("data_dir", serverConfig.DataDir),
		zap.Int("job_workers", serverConfig.JobWorkers))

	eng := engine.NewEngine(serverConfig.DataDir, serverConfig.JobWorkers, logger)
	defer eng.Close()

	analyticsService := analytics.NewService(eng, filepath.Join(serverConfig.DataDir, analyticsFileName), logger)
	defer func() {
		if err := analyticsService.Save(); err != nil {
			logger.Warn("failed to save analytics", zap.Error(err))
		}
	}()

	if !serverConfig.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(
		gin.Recovery(),
		api.RequestIDMiddleware(),
		api.LoggerMiddleware(logger.Named("http")),
		api.CORSMiddleware(),
		api.RequestSizeLimitMiddleware(serverConfig.MaxRequestBytes),
	)
	api.SetupRoutes(router, eng, analyticsService, logger)

	srv := &http.Server{
		Addr:              ":" + serverConfig.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server failed", zap.Error(err))
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
		return err
	}
	return nil
}
