package entrypoint

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/heartcheck/internal/audit"
	"github.com/mrlokans/heartcheck/internal/auth"
	"github.com/mrlokans/heartcheck/internal/config"
	"github.com/mrlokans/heartcheck/internal/database"
	auditRepo "github.com/mrlokans/heartcheck/internal/database/audit"
	"github.com/mrlokans/heartcheck/internal/database/users"
	http_controllers "github.com/mrlokans/heartcheck/internal/http"
	"github.com/mrlokans/heartcheck/internal/predict"
	"github.com/mrlokans/heartcheck/internal/scheduler"
	"github.com/mrlokans/heartcheck/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// App holds the wired application. Build it with NewApp and release it
// with Shutdown.
type App struct {
	Router *gin.Engine

	db             *database.Database
	auditService   *audit.Service
	authController *auth.AuthController
	taskClient     *tasks.Client
	taskCancel     context.CancelFunc
	cleanup        *scheduler.AuditCleanupScheduler
}

// NewApp validates the configuration and wires every component. Invalid
// auth settings return an error wrapping config.ErrConfiguration.
func NewApp(cfg *config.Config, version string) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	app := &App{db: db}

	// The API still serves auth without a model; /predict answers 503.
	model, err := predict.Load(cfg.Model.Path)
	if err != nil {
		log.Printf("WARNING: prediction model not loaded: %v", err)
		model = nil
	}

	app.auditService = audit.NewService(auditRepo.NewRepository(db.DB))

	tokens, err := auth.NewTokenService(cfg.Auth, nil)
	if err != nil {
		app.Shutdown(context.Background())
		return nil, err
	}
	hasher := auth.NewHasher(cfg.Auth.BcryptCost, cfg.Auth.HashWorkers)
	authService := auth.NewService(users.NewRepository(db.DB), hasher, tokens)
	authMiddleware := auth.NewMiddleware(authService, app.auditService)
	app.authController = auth.NewAuthController(authService, authMiddleware, app.auditService, cfg.Auth)

	log.Printf("Authentication: %s tokens, %v lifetime, bcrypt cost %d",
		cfg.Auth.Algorithm, cfg.Auth.TokenTTL, hasher.Cost())

	if cfg.Tasks.Enabled {
		if err := app.startTasks(cfg); err != nil {
			app.Shutdown(context.Background())
			return nil, err
		}
	}

	app.Router = http_controllers.NewRouter(http_controllers.RouterConfig{
		Database:       db,
		AuditService:   app.auditService,
		AuthService:    authService,
		AuthMiddleware: authMiddleware,
		AuthController: app.authController,
		Model:          model,
		Version:        version,
	})

	return app, nil
}

func (a *App) startTasks(cfg *config.Config) error {
	taskClient, err := tasks.NewClient(cfg.Database.Path, tasks.ConfigFromSettings(cfg.Tasks))
	if err != nil {
		return fmt.Errorf("failed to initialize task queue: %w", err)
	}
	a.taskClient = taskClient

	taskClient.Register(tasks.NewCleanupAuditEventsQueue(a.auditService))

	var taskCtx context.Context
	taskCtx, a.taskCancel = context.WithCancel(context.Background())
	go taskClient.Start(taskCtx)

	a.cleanup = scheduler.NewAuditCleanupScheduler(taskClient, cfg.Audit.CleanupSchedule, cfg.Audit.RetentionDays)
	if err := a.cleanup.Start(taskCtx); err != nil {
		return fmt.Errorf("failed to start audit cleanup scheduler: %w", err)
	}
	return nil
}

// Shutdown stops background work in dependency order: scheduler, task
// queue, pending audit writes, then the database.
func (a *App) Shutdown(ctx context.Context) {
	if a.cleanup != nil {
		a.cleanup.Stop()
	}
	if a.taskClient != nil {
		a.taskClient.Stop(ctx)
		if a.taskCancel != nil {
			a.taskCancel()
		}
		if err := a.taskClient.Close(); err != nil {
			log.Printf("Error closing task client: %v", err)
		}
	}
	if a.authController != nil {
		a.authController.Stop()
	}
	if a.auditService != nil {
		a.auditService.Wait()
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}
}

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Starting server at %s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
		// service connections
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server.
	// kill (no param) default send syscall.SIGTERM
	// kill -2 is syscall.SIGINT
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Stop accepting requests before tearing down what they depend on.
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server Shutdown: %v", err)
	}

	if onShutdown != nil {
		onShutdown(ctx)
	}

	log.Println("Server exiting")
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting HeartCheck v%s", version)

	app, err := NewApp(cfg, version)
	if err != nil {
		if errors.Is(err, config.ErrConfiguration) {
			log.Fatalf("Invalid configuration: %v", err)
		}
		log.Fatalf("Failed to start: %v", err)
	}

	Serve(app.Router, cfg, app.Shutdown)
}
