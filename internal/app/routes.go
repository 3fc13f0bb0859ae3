package app

import (
	"net/http"
	"time"

	"github.com/echo88/core/internal/middleware"
	"github.com/echo88/core/internal/modules/auth"
	"github.com/echo88/core/internal/modules/comment"
	"github.com/echo88/core/internal/modules/gateway"
	"github.com/echo88/core/internal/modules/media"
	"github.com/echo88/core/internal/modules/message"
	"github.com/echo88/core/internal/modules/notification"
	"github.com/echo88/core/internal/modules/post"
	"github.com/echo88/core/internal/modules/story"
	"github.com/echo88/core/internal/modules/user"
	"github.com/echo88/core/internal/pkg/mail"
	pkgredis "github.com/echo88/core/internal/pkg/redis"
	"github.com/echo88/core/internal/pkg/response"
	sessionpkg "github.com/echo88/core/internal/pkg/session"
	"github.com/echo88/core/internal/pkg/taskqueue"
	"github.com/gin-gonic/gin"
)

const apiPrefix = "/api/v1"

// services bundles the module services shared between HTTP routes, worker
// handlers and cron jobs.
type services struct {
	auth          *auth.Service
	users         *user.Service
	posts         *post.Service
	comments      *comment.Service
	stories       *story.Service
	messages      *message.Service
	notifications *notification.Service
	media         *media.Service
}

func (a *App) registerRoutes(rc *pkgredis.Client, authn *middleware.Authenticator, sessions *sessionpkg.Store, mailer *mail.Sender, tasks *taskqueue.Service) *services {
	r := a.router
	db := a.db
	cfg := a.cfg
	authMW := authn.Require()
	optionalMW := authn.Optional()

	r.NoRoute(func(c *gin.Context) { response.NotFound(c) })
	r.NoMethod(func(c *gin.Context) { response.MethodNotAllowed(c) })

	r.Use(middleware.RateLimit(rc.Raw()))
	r.Use(middleware.Idempotence(rc.Raw()))

	svcs := &services{
		auth:          auth.NewService(db, sessions, mailer, tasks, a.logger, cfg.WebURL),
		users:         user.NewService(db, tasks, a.logger),
		posts:         post.NewService(db, tasks, a.logger),
		comments:      comment.NewService(db, tasks, a.logger),
		stories:       story.NewService(db, cfg.StoryTTL()),
		messages:      message.NewService(db, tasks, a.hub, a.logger),
		notifications: notification.NewService(db, a.hub, a.logger),
		media:         media.NewService(cfg.S3, a.logger),
	}

	api := r.Group(apiPrefix)

	api.GET("/ping", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"data": "pong"}) })
	api.GET("/uptime", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"timestamp": time.Since(processStart).Milliseconds()})
	})

	auth.NewHandler(svcs.auth).RegisterRoutes(api, authMW, optionalMW)
	user.NewHandler(svcs.users).RegisterRoutes(api, authMW, optionalMW)
	post.NewHandler(svcs.posts).RegisterRoutes(api, authMW, optionalMW)
	comment.NewHandler(svcs.comments).RegisterRoutes(api, authMW, optionalMW)
	story.NewHandler(svcs.stories).RegisterRoutes(api, authMW)
	message.NewHandler(svcs.messages).RegisterRoutes(api, authMW)
	notification.NewHandler(svcs.notifications).RegisterRoutes(api, authMW)
	media.NewHandler(svcs.media).RegisterRoutes(api, authMW)

	// socket.io clients expect the default /socket.io path at the root.
	gateway.RegisterRoutes(r.Group(""), a.hub)

	return svcs
}

var processStart = time.Now()
