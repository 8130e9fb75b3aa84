// Package main is the entry point for relayd, the realtime messaging relay.
// One binary runs the WebSocket gateway, the chat handler and the
// diagnostics HTTP surface.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/relayd/relayd/internal/chat"
	"github.com/relayd/relayd/internal/common/config"
	"github.com/relayd/relayd/internal/common/httpmw"
	"github.com/relayd/relayd/internal/common/logger"
	"github.com/relayd/relayd/internal/events"
	gateways "github.com/relayd/relayd/internal/gateway/websocket"
	"github.com/relayd/relayd/internal/history"
	"github.com/relayd/relayd/internal/presence"
	"github.com/relayd/relayd/internal/tracing"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(logger.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		OutputPath: cfg.Logging.OutputPath,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()
	logger.SetDefault(log)

	log.Info("Starting relayd...")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	defer func() {
		flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer flushCancel()
		if err := tracing.Shutdown(flushCtx); err != nil {
			log.WithError(err).Warn("Tracing shutdown error")
		}
	}()

	providedBus, busCleanup, err := events.Provide(cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize event bus", zap.Error(err))
	}
	defer func() { _ = busCleanup() }()

	store, storeCleanup, err := history.Provide(cfg.Database, log)
	if err != nil {
		log.Fatal("Failed to initialize history store", zap.Error(err))
	}
	defer func() { _ = storeCleanup() }()

	tracker, err := presence.NewTracker(providedBus.Bus, log)
	if err != nil {
		log.Fatal("Failed to start presence tracker", zap.Error(err))
	}
	defer func() { _ = tracker.Close() }()

	app := chat.NewHandler(store, cfg.Database.HistoryLimit, log)
	gateway := gateways.NewGateway(app, providedBus.Bus, cfg.Gateway, log)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      buildRouter(cfg, gateway, tracker, store, app, log),
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		gateway.Dispatcher.Run(gctx)
		return nil
	})

	g.Go(func() error {
		log.Info("Relay server listening",
			zap.String("addr", server.Addr),
			zap.String("websocket", "/ws"),
			zap.String("health", "/health"),
			zap.String("stats", "/stats"),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			log.Info("Shutting down relayd...", zap.String("signal", sig.String()))
		case <-gctx.Done():
			// Another lifecycle goroutine failed; tear down what started.
		}

		// Terminate client connections first so in-flight /ws handlers
		// return, then stop the HTTP listener.
		gateway.Close()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeoutDuration())
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Fatal("relayd terminated", zap.Error(err))
	}
	log.Info("relayd stopped")
}

// buildRouter assembles the HTTP surface: the WebSocket endpoint plus
// health and stats diagnostics.
func buildRouter(cfg *config.Config, gateway *gateways.Gateway, tracker *presence.Tracker, store history.Store, app *chat.Handler, log *logger.Logger) *gin.Engine {
	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())
	router.Use(httpmw.RequestLogger(log, "relayd"))
	router.Use(httpmw.OtelTracing("relayd"))

	gateway.SetupRoutes(router)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "relayd",
		})
	})

	router.GET("/stats", func(c *gin.Context) {
		stored, err := store.Count(c.Request.Context())
		if err != nil {
			log.WithError(err).Error("Failed to count stored messages")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "history unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"clients":         gateway.GetClientCount(),
			"presence":        tracker.Snapshot(),
			"messagesStored":  stored,
			"messagesRelayed": app.Relayed(),
		})
	})

	return router
}
