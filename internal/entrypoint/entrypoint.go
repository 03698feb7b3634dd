package entrypoint

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"librarium/internal/audit"
	"librarium/internal/auth"
	"librarium/internal/circulation"
	"librarium/internal/config"
	"librarium/internal/database"
	auditRepo "librarium/internal/database/audit"
	"librarium/internal/database/books"
	"librarium/internal/database/borrowers"
	"librarium/internal/database/borrowings"
	http_controllers "librarium/internal/http"
	"librarium/internal/scheduler"
	"librarium/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// Serve runs the HTTP server until SIGINT/SIGTERM, then drains it within
// the configured shutdown timeout.
func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting server at %s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Stop background work first so in-flight sweeps finish cleanly
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}

	log.Println("Server exiting")
}

// Run wires all dependencies and starts the service.
func Run(cfg *config.Config, version string) {
	log.Printf("Starting Librarium v%s", version)

	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	bookRepo := books.NewRepository(db.DB)
	borrowerRepo := borrowers.NewRepository(db.DB)
	loanRepo := borrowings.NewRepository(db.DB)
	circulationService := circulation.NewService(db)
	auditService := audit.NewService(auditRepo.NewRepository(db.DB))

	sqlDB, err := db.DB.DB()
	if err != nil {
		log.Fatalf("Failed to get SQL DB for sessions: %v", err)
	}
	sessionManager, err := auth.NewSessionManager(sqlDB, cfg.Auth)
	if err != nil {
		log.Fatalf("Failed to initialize session manager: %v", err)
	}

	// Overdue sweep: cron schedule enqueues notice tasks, backlite workers
	// process them.
	var taskClient *tasks.Client
	var sweep *scheduler.OverdueSweepScheduler
	var taskCtxCancel context.CancelFunc
	if cfg.Sweep.Enabled {
		taskCfg := tasks.DefaultConfig()
		taskCfg.Workers = cfg.Sweep.Workers
		taskCfg.Timeout = cfg.Sweep.Timeout
		taskClient, err = tasks.NewClient(cfg.Database.Path, taskCfg)
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		taskClient.Register(tasks.NewOverdueNoticeQueue(loanRepo))

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)

		sweep = scheduler.NewOverdueSweepScheduler(loanRepo, taskClient, cfg.Sweep.Schedule)
		if err := sweep.Start(taskCtx); err != nil {
			log.Fatalf("Failed to start overdue sweep: %v", err)
		}
	}

	router := http_controllers.NewRouter(http_controllers.RouterConfig{
		Database:    db,
		Circulation: circulationService,
		Books:       bookRepo,
		Borrowers:   borrowerRepo,
		Audit:       auditService,
		Sessions:    sessionManager,
		BcryptCost:  cfg.Auth.BcryptCost,
		Version:     version,
	})

	onShutdown := func(ctx context.Context) {
		if sweep != nil {
			sweep.Stop()
		}
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
	}

	Serve(router, cfg, onShutdown)
}
