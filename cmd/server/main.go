package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/qa-tracker-api/internal/cache"
	"github.com/yukikurage/qa-tracker-api/internal/config"
	"github.com/yukikurage/qa-tracker-api/internal/constants"
	"github.com/yukikurage/qa-tracker-api/internal/database"
	apierrors "github.com/yukikurage/qa-tracker-api/internal/errors"
	"github.com/yukikurage/qa-tracker-api/internal/handlers"
	"github.com/yukikurage/qa-tracker-api/internal/logger"
	"github.com/yukikurage/qa-tracker-api/internal/middleware"
	"github.com/yukikurage/qa-tracker-api/internal/repository"
	"github.com/yukikurage/qa-tracker-api/internal/router"
	"github.com/yukikurage/qa-tracker-api/internal/services"
	"github.com/yukikurage/qa-tracker-api/internal/sheets"
	"github.com/yukikurage/qa-tracker-api/internal/storage"
	"golang.org/x/time/rate"
)

func main() {
	// Load configuration
	cfg, err := config.Load("config")
	if err != nil {
		logger.Error("Failed to load config: %v", err)
		os.Exit(1)
	}

	// Set Gin mode
	gin.SetMode(cfg.Server.Mode)
	apierrors.UseJSONFieldNames()

	// Connect to database
	if err := database.Connect(cfg); err != nil {
		logger.Error("Failed to connect to database: %v", err)
		os.Exit(1)
	}

	// Run migrations
	if err := database.Migrate(); err != nil {
		logger.Error("Failed to run migrations: %v", err)
		os.Exit(1)
	}
	db := database.GetDB()

	redisClient := cache.Connect(cfg.Redis)
	appCache := cache.New(redisClient, cfg.Redis.Prefix, constants.CacheTTL)
	defer appCache.Close()

	files, err := storage.New(cfg.Upload)
	if err != nil {
		logger.Error("Failed to init screenshot storage: %v", err)
		os.Exit(1)
	}

	// Repositories
	testerRepo := repository.NewTesterRepository(db)
	bugRepo := repository.NewBugRepository(db)

	// Services
	effects := services.NewAsyncEffects(10 * time.Second)
	rating := services.NewRatingService(testerRepo, bugRepo, appCache)
	activity := services.NewActivityService(repository.NewActivityRepository(db), testerRepo)
	notifications := services.NewNotificationService(repository.NewNotificationRepository(db), appCache)
	auth := services.NewAuthService(repository.NewAdminRepository(db))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Spreadsheet mirror is optional; a nil mirror disables it
	var mirror services.TesterMirror
	var syncer *sheets.Syncer
	if cfg.Sheets.Enabled {
		store, err := sheets.NewGoogleStore(ctx, cfg.Sheets)
		if err != nil {
			logger.Warning("Spreadsheet sync disabled: %v", err)
		} else {
			syncer = sheets.NewSyncer(store, sheets.OnExhausted(func(ctx context.Context, job sheets.Job, err error) {
				if _, nerr := notifications.NotifyServerDown(ctx, "Google Sheets", err.Error()); nerr != nil {
					logger.Error("failed to report sheet sync failure: %v", nerr)
				}
			}))
			syncer.Start(ctx)
			mirror = syncer
			logger.Success("Spreadsheet sync enabled")
		}
	}

	testers := services.NewTesterService(testerRepo, bugRepo, activity, notifications, rating, files, mirror, effects)
	bugs := services.NewBugService(bugRepo, testerRepo, rating, activity, notifications, files, effects)
	comments := services.NewCommentService(repository.NewCommentRepository(db), bugRepo)
	screenshots := services.NewScreenshotService(repository.NewScreenshotRepository(db), bugRepo, files)
	export := services.NewExportService(testerRepo, bugRepo)
	triage := services.NewTriageService(cfg.OpenAI.APIKey)

	created, err := auth.EnsureBootstrapAdmin(services.CreateAdminInput{
		Username: cfg.Admin.Username,
		Password: cfg.Admin.Password,
		Email:    cfg.Admin.Email,
	})
	if err != nil {
		logger.Error("Failed to create bootstrap admin: %v", err)
		os.Exit(1)
	}
	if created {
		logger.Success("Bootstrap admin %q created", cfg.Admin.Username)
	}

	// Session store: Redis when available, signed cookies otherwise
	var store sessions.Store
	if redisClient != nil {
		store, err = redisStore.NewStore(
			10,    // Redis pool size
			"tcp", // network type
			cfg.Redis.Addr,
			"", // username (empty for default user)
			cfg.Redis.Password,
			[]byte(cfg.Session.Secret),
		)
		if err != nil {
			logger.Error("Failed to create Redis session store: %v", err)
			os.Exit(1)
		}
	} else {
		store = cookie.NewStore([]byte(cfg.Session.Secret))
	}
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   cfg.Session.MaxAge,
		HttpOnly: true,
		Secure:   cfg.IsRelease(),
		SameSite: http.SameSiteLaxMode,
	})

	uploadsDir := ""
	if local, ok := files.(*storage.LocalStorage); ok {
		uploadsDir = local.Root()
	}

	rt := router.NewRouter(router.Handlers{
		Auth:          handlers.NewAuthHandler(auth),
		Testers:       handlers.NewTesterHandler(testers, rating, activity),
		Bugs:          handlers.NewBugHandler(bugs, triage),
		Comments:      handlers.NewCommentHandler(comments),
		Screenshots:   handlers.NewScreenshotHandler(screenshots),
		Notifications: handlers.NewNotificationHandler(notifications),
		Export:        handlers.NewExportHandler(export),
		System:        handlers.NewSystemHandler(db, appCache, testers),
	}, store, middleware.NewIPRateLimiter(rate.Limit(constants.LoginRateLimitRPS), constants.LoginRateLimitBurst), uploadsDir)

	r := gin.New()
	r.Use(gin.Recovery())
	r.MaxMultipartMemory = constants.MaxScreenshotSize + 1<<20
	rt.Init(r)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	go func() {
		logger.Info("Server starting on :%s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Failed to start server: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown: %v", err)
	}
	if syncer != nil {
		syncer.Stop()
	}
	if err := effects.Wait(shutdownCtx); err != nil {
		logger.Warning("Pending side effects abandoned: %v", err)
	}
	logger.Success("Server stopped")
}
