package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/echo88/core/internal/config"
	"github.com/echo88/core/internal/database"
	"github.com/echo88/core/internal/middleware"
	"github.com/echo88/core/internal/modules/gateway"
	pkgcron "github.com/echo88/core/internal/pkg/cron"
	jwtpkg "github.com/echo88/core/internal/pkg/jwt"
	"github.com/echo88/core/internal/pkg/mail"
	pkgredis "github.com/echo88/core/internal/pkg/redis"
	sessionpkg "github.com/echo88/core/internal/pkg/session"
	"github.com/echo88/core/internal/pkg/taskqueue"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// App holds all application dependencies.
type App struct {
	cfg    *config.AppConfig
	router *gin.Engine
	db     *gorm.DB
	hub    *gateway.Hub
	logger *zap.Logger
	cancel context.CancelFunc
	sched  *pkgcron.Scheduler
}

// New initializes the application: config → DB → Redis → codec → services → routes.
func New(logger *zap.Logger, cfg *config.AppConfig) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	db, err := database.Connect(cfg, true)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	rc, err := pkgredis.Connect(cfg.Redis.URLValue())
	if err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}

	codec, err := jwtpkg.NewCodec(cfg.JWTSecret)
	if err != nil {
		return nil, fmt.Errorf("jwt: %w", err)
	}
	sessions := sessionpkg.NewStore(db, codec, !cfg.IsDev())
	authn := middleware.NewAuthenticator(codec, sessions)

	if cfg.IsDev() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(logger))
	router.Use(middleware.SecurityHeaders(!cfg.IsDev()))
	router.Use(cors.New(buildCORSConfig(cfg)))

	hub := gateway.NewHub(rc, logger, func(token string) (string, error) {
		claims, err := authn.Validate(token)
		if err != nil {
			return "", err
		}
		return claims.UserID, nil
	})
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	mailer := mail.New(mail.Config{
		Enable:    cfg.Mail.Enable,
		Host:      cfg.Mail.Host,
		Port:      cfg.Mail.Port,
		User:      cfg.Mail.User,
		Pass:      cfg.Mail.Pass,
		From:      cfg.Mail.From,
		ReplyTo:   cfg.Mail.ReplyTo,
		UseResend: cfg.Mail.ResendKey != "",
		ResendKey: cfg.Mail.ResendKey,
	})

	tasks := taskqueue.NewService(rc)

	app := &App{cfg: cfg, router: router, db: db, hub: hub, logger: logger, cancel: cancel}
	deps := app.registerRoutes(rc, authn, sessions, mailer, tasks)

	worker := taskqueue.NewWorker(tasks, logger.Named("worker"))
	registerWorkerHandlers(worker, deps, mailer, cfg)
	worker.Start(ctx)

	app.sched = pkgcron.New()
	registerCronJobs(app.sched, deps, sessions, tasks, logger.Named("cron"))
	go app.sched.Start(ctx)

	return app, nil
}

// Addr returns the listen address.
func (a *App) Addr() string { return fmt.Sprintf(":%d", a.cfg.Port) }

// Router returns the HTTP handler.
func (a *App) Router() http.Handler { return a.router }

// Shutdown cleans up background goroutines.
func (a *App) Shutdown() { a.cancel() }

func buildCORSConfig(cfg *config.AppConfig) cors.Config {
	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "x-idempotence"},
		ExposeHeaders:    []string{"Content-Length", "Retry-After"},
		AllowCredentials: true,
	}
	if len(cfg.AllowedOrigins) > 0 && !cfg.IsDev() {
		patterns := cfg.AllowedOrigins
		corsConfig.AllowOriginFunc = func(origin string) bool {
			host := extractOriginHost(origin)
			for _, pattern := range patterns {
				if matchOriginPattern(pattern, host) {
					return true
				}
			}
			return false
		}
	} else {
		corsConfig.AllowOriginFunc = func(origin string) bool { return true }
	}
	return corsConfig
}
