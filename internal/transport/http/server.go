package http

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// New constructs and returns a configured Echo instance.
func New(h *Handlers, log *zap.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(rate.Limit(50))))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogMethod:    true,
		LogStatus:    true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.Info("request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.String("request_id", v.RequestID),
			)
			return nil
		},
	}))

	e.GET("/api/v1/healthz", h.handleHealthz)
	e.GET("/api/v1/info", h.handleInfo)

	e.POST("/api/v1/challenges", h.handleCreateChallenge)
	e.GET("/api/v1/challenges", h.handleGetChallenges)
	e.GET("/api/v1/challenges/:id", h.handleGetChallenge)
	e.POST("/api/v1/challenges/:id/accept", h.handleAcceptChallenge)
	e.DELETE("/api/v1/challenges/:id", h.handleCancelChallenge)

	e.GET("/api/v1/games", h.handleGetGames)
	e.GET("/api/v1/games/:id", h.handleGetGame)
	e.POST("/api/v1/games/:id/turn", h.handleTurn)
	e.POST("/api/v1/games/:id/timeout", h.handleDeclareTimeout)
	e.GET("/api/v1/games/:id/valid-move", h.handleValidMove)
	e.GET("/api/v1/games/:id/turn", h.handleGetTurn)

	e.GET("/api/v1/ratings", h.handleGetRatings)

	return e
}
