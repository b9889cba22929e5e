package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/AnTengye/formrelay/config"
	"github.com/AnTengye/formrelay/crm"
	"github.com/AnTengye/formrelay/handler"
	"github.com/AnTengye/formrelay/middleware"
	"github.com/AnTengye/formrelay/service"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

const (
	shutdownTimeout = 5 * time.Second
	// detachedDrainTimeout bounds how long shutdown waits for webhook and CRM tasks
	detachedDrainTimeout = 30 * time.Second
)

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP form submission server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, closer, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			defer closer.Close()

			return serve(cmd.Context(), cfg)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	storage, err := newFileStorage(ctx, cfg)
	if err != nil {
		return err
	}

	leads, closeLeads, err := newLeadStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeLeads()

	store := service.NewConfigStoreFromConfig(cfg)
	tasks := service.NewDetached()

	opts := []service.FanoutOption{service.WithWebhooks(service.NewWebhookDispatcher(tasks))}
	if cfg.SMTP.Host != "" {
		opts = append(opts, service.WithMailer(service.NewSMTPMailer(&cfg.SMTP)))
	} else {
		slog.Warn("smtp host not configured, notification email disabled")
	}
	if leads != nil {
		opts = append(opts, service.WithLeadStore(leads))
	}
	if cfg.CRM.APIKey != "" {
		contacts := crm.NewContactSyncService(newCRMClients(cfg))
		opts = append(opts, service.WithLeadSyncer(
			service.NewCRMLeadSyncer(contacts, cfg.CRM.PipelineID, cfg.CRM.StageID), tasks))
	} else {
		slog.Info("crm api key not configured, lead sync disabled")
	}
	fanout := service.NewNotificationFanout(store, opts...)

	uploads := service.NewUploadGate(storage)
	csrf := service.NewJWTCsrfService(cfg.CSRF.Secret, time.Duration(cfg.CSRF.TTLMinutes)*time.Minute)
	formHandler := handler.NewFormHandler(
		store,
		service.NewSubmissionValidator(uploads),
		uploads,
		fanout,
		csrf,
		handler.NewRedirectPolicy(cfg.Server.AllowedRedirectHosts),
		int64(cfg.Server.MaxUploadMB)<<20,
	)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestLogger("/health"))
	router.Use(corsMiddleware())
	router.Use(cacheMiddleware(cfg.Storage.Local.PublicURL))

	if local, ok := storage.(*service.LocalStorage); ok && strings.HasPrefix(cfg.Storage.Local.PublicURL, "/") {
		router.Static(cfg.Storage.Local.PublicURL, local.Dir())
		slog.Info("serving uploads", "directory", local.Dir(), "path", cfg.Storage.Local.PublicURL)
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})

	limiter := middleware.NewRateLimiter(cfg.Server.RateLimit, time.Duration(cfg.Server.RateLimitWindowSecs)*time.Second)
	router.POST("/forms/:form/submit", middleware.RateLimit(limiter), middleware.FormScope(), formHandler.Submit)

	api := router.Group("/api")
	{
		api.GET("/forms/:form", middleware.FormScope(), formHandler.Schema)
		api.GET("/csrf", formHandler.Token)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
	}
	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	drainCtx, cancelDrain := context.WithTimeout(context.Background(), detachedDrainTimeout)
	defer cancelDrain()
	if err := tasks.Wait(drainCtx); err != nil {
		slog.Warn("detached tasks still running at exit", "error", err)
	}

	slog.Info("server exited gracefully")
	return nil
}

func newFileStorage(ctx context.Context, cfg *config.Config) (service.FileStorage, error) {
	if cfg.Storage.Driver == "minio" {
		minioStorage, err := service.NewMinioStorage(&cfg.Storage.Minio)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize MINIO storage: %w", err)
		}
		if err := minioStorage.EnsureBucket(ctx); err != nil {
			return nil, fmt.Errorf("failed to ensure MINIO bucket: %w", err)
		}
		slog.Info("upload storage initialized", "driver", "minio", "bucket", cfg.Storage.Minio.Bucket, "public", cfg.Storage.Minio.PublicBucket)
		return minioStorage, nil
	}

	local, err := service.NewLocalStorage(&cfg.Storage.Local)
	if err != nil {
		return nil, err
	}
	slog.Info("upload storage initialized", "driver", "local", "directory", local.Dir())
	return local, nil
}

// newLeadStore returns a nil store when the lead log is switched off.
func newLeadStore(ctx context.Context, cfg *config.Config) (service.LeadStore, func(), error) {
	switch cfg.Leads.Driver {
	case "mongo":
		mongoStore, err := service.NewMongoLeadStore(ctx, &cfg.Leads.Mongo)
		if err != nil {
			return nil, nil, err
		}
		if err := mongoStore.EnsureIndexes(ctx); err != nil {
			mongoStore.Close(context.Background())
			return nil, nil, err
		}
		closeStore := func() {
			if err := mongoStore.Close(context.Background()); err != nil {
				slog.Warn("failed to close lead store", "error", err)
			}
		}
		return mongoStore, closeStore, nil
	case "none":
		slog.Info("lead log disabled")
		return nil, func() {}, nil
	default:
		return service.NewMemoryLeadStore(cfg.Leads.MaxLeads), func() {}, nil
	}
}

// corsMiddleware lets an external page fetch schemas and tokens
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, X-CSRF-Token, X-Request-ID, accept, origin, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Request-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// cacheMiddleware keeps API answers and redirects out of caches; stored
// uploads may be cached privately
func cacheMiddleware(uploadsPath string) gin.HandlerFunc {
	uploadsPath = strings.TrimRight(uploadsPath, "/") + "/"
	return func(c *gin.Context) {
		path := c.Request.URL.Path

		if strings.HasPrefix(path, "/api") || strings.HasPrefix(path, "/forms") {
			c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
			c.Header("Pragma", "no-cache")
			c.Header("Expires", "0")
		} else if strings.HasPrefix(path, uploadsPath) {
			c.Header("Cache-Control", "private, max-age=3600")
		}

		c.Next()
	}
}
