package http

import (
	"context"
	"net/http"
	"time"

	"coffeeshop/internal/config"
	"coffeeshop/internal/domain"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/xid"
	"github.com/rs/zerolog"
)

// DrinkStore is the persistence surface the handlers need. Satisfied by
// db.DrinkRepository; tests substitute an in-memory fake.
type DrinkStore interface {
	List(ctx context.Context) ([]domain.Drink, error)
	Get(ctx context.Context, id int64) (domain.Drink, error)
	Create(ctx context.Context, drink domain.Drink) (domain.Drink, error)
	Update(ctx context.Context, id int64, patch domain.DrinkPatch) (domain.Drink, error)
	Delete(ctx context.Context, id int64) error
}

// Authenticator verifies a raw bearer token and returns its claim set.
type Authenticator interface {
	Authenticate(ctx context.Context, rawToken string) (domain.Principal, error)
}

// Authorizer decides whether a verified principal may perform an action.
type Authorizer interface {
	Require(principal domain.Principal, permission string) error
}

type ServerDeps struct {
	Drinks        DrinkStore
	Authenticator Authenticator
	Authorizer    Authorizer
	RateLimiter   domain.RateLimiter
	Logger        zerolog.Logger
}

type Server struct {
	engine *gin.Engine

	drinks        DrinkStore
	authenticator Authenticator
	authorizer    Authorizer

	rateLimiter       domain.RateLimiter
	rateLimitRequests int
	rateLimitWindow   time.Duration

	logger zerolog.Logger
}

func NewServerWithDeps(cfg config.Config, deps ServerDeps) *Server {
	s := &Server{
		drinks:            deps.Drinks,
		authenticator:     deps.Authenticator,
		authorizer:        deps.Authorizer,
		rateLimiter:       deps.RateLimiter,
		rateLimitRequests: cfg.RateLimitRequests,
		rateLimitWindow:   time.Duration(cfg.RateLimitWindowSecs) * time.Second,
		logger:            deps.Logger,
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(s.requestID())
	engine.Use(s.requestLog())
	engine.Use(cors.New(corsConfig(cfg)))

	engine.GET("/healthz", s.handleHealth)
	engine.GET("/drinks", s.public(s.handleListDrinks))
	engine.GET("/drinks-detail", s.requirePermission("get:drinks-detail", s.handleListDrinksDetail))
	engine.POST("/drinks", s.requirePermission("post:drinks", s.handleCreateDrink))
	engine.PATCH("/drinks/:id", s.requirePermission("patch:drinks", s.handleUpdateDrink))
	engine.DELETE("/drinks/:id", s.requirePermission("delete:drinks", s.handleDeleteDrink))

	engine.NoRoute(func(c *gin.Context) {
		writeError(c, http.StatusNotFound, "resource not found")
	})

	s.engine = engine
	return s
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.engine.ServeHTTP(w, r)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func corsConfig(cfg config.Config) cors.Config {
	corsCfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete},
		AllowHeaders:  []string{"Authorization", "Content-Type"},
		ExposeHeaders: []string{"X-Request-ID", "RateLimit-Limit", "RateLimit-Remaining", "RateLimit-Reset"},
		MaxAge:        12 * time.Hour,
	}
	if len(cfg.CORSAllowedOrigins) == 0 ||
		(len(cfg.CORSAllowedOrigins) == 1 && cfg.CORSAllowedOrigins[0] == "*") {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.CORSAllowedOrigins
	}
	return corsCfg
}

func (s *Server) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = xid.New().String()
		}
		c.Set(contextKeyRequestID, id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info().
			Str("request_id", c.GetString(contextKeyRequestID)).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	}
}

const contextKeyRequestID = "request_id"
