// Package httpapi exposes the observer-facing HTTP surface: stats and
// history reads, reward operations, the admin summary, and the websocket
// broadcast endpoint.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ecosort/smartbin/internal/errs"
	"github.com/ecosort/smartbin/internal/repository"
	"github.com/ecosort/smartbin/internal/service"
	"github.com/ecosort/smartbin/internal/stats"
)

const (
	defaultHistoryLimit = 10
	adminSummaryLimit   = 100
)

// Pinger reports backend connectivity for the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ConnChecker reports device-channel connectivity.
type ConnChecker interface {
	IsConnected() bool
}

// Deps collects everything the HTTP surface talks to. Redis and MQTT are
// optional; nil means "not configured" and is reported as such by /api/health.
type Deps struct {
	Log     *zap.Logger
	Rewards service.RewardsService
	Stats   *stats.Aggregator
	Users   repository.Users
	Auth    *Authenticator
	WS      http.Handler

	DB    Pinger
	Redis Pinger
	MQTT  ConnChecker
}

// Server wires the echo router over the application services.
type Server struct {
	deps Deps
	echo *echo.Echo
}

// New builds the router with all routes registered.
func New(deps Deps) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{deps: deps, echo: e}

	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(s.requestLogger())

	e.GET("/", s.root)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/ws", echo.WrapHandler(deps.WS))

	api := e.Group("/api")
	api.GET("/health", s.health)
	api.GET("/stats", s.getStats)
	api.GET("/history", s.getHistory)
	api.POST("/stats/reset", s.resetStats)
	api.POST("/history/clear", s.clearHistory)

	rewards := api.Group("/rewards", deps.Auth.Middleware())
	rewards.POST("/check-in", s.checkIn)
	rewards.POST("/check-out", s.checkOut)
	rewards.GET("/check-in-status", s.checkInStatus)
	rewards.GET("/balance", s.balance)
	rewards.POST("/submit-bottle", s.submitBottle)
	rewards.POST("/redeem", s.redeem)
	rewards.GET("/redemption-history", s.redemptionHistory)
	rewards.GET("/bottle-history", s.bottleHistory)

	admin := api.Group("/admin", deps.Auth.Middleware())
	admin.GET("/users-summary", s.usersSummary)

	return s
}

// Echo exposes the router for tests.
func (s *Server) Echo() *echo.Echo { return s.echo }

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start(addr string) error { return s.echo.Start(addr) }

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error { return s.echo.Shutdown(ctx) }

// requestLogger logs request metadata, never payloads.
func (s *Server) requestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			s.deps.Log.Info("http",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Request().URL.Path),
				zap.Int("status", c.Response().Status),
				zap.Duration("dur", time.Since(start)),
				zap.String("remote", c.RealIP()),
			)
			return err
		}
	}
}

func (s *Server) root(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"name":      "Smart Bin Server",
		"status":    "running",
		"endpoints": map[string]string{
			"stats":   "/api/stats",
			"history": "/api/history",
			"health":  "/api/health",
		},
	})
}

func (s *Server) health(c echo.Context) error {
	ctx := c.Request().Context()
	out := map[string]any{
		"success":   true,
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if s.deps.DB != nil {
		if err := s.deps.DB.Ping(ctx); err != nil {
			out["database"] = "unhealthy"
			out["status"] = "degraded"
		} else {
			out["database"] = "healthy"
		}
	}
	if s.deps.Redis != nil {
		if err := s.deps.Redis.Ping(ctx); err != nil {
			out["redis"] = "unhealthy"
		} else {
			out["redis"] = "healthy"
		}
	}
	if s.deps.MQTT != nil {
		if s.deps.MQTT.IsConnected() {
			out["mqtt"] = "connected"
		} else {
			out["mqtt"] = "disconnected"
		}
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) getStats(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"data":    s.deps.Stats.Snapshot(),
	})
}

func (s *Server) getHistory(c echo.Context) error {
	limit := defaultHistoryLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a positive integer")
		}
		limit = n
	}
	h := s.deps.Stats.History(limit)
	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"count":   len(h),
		"data":    h,
	})
}

func (s *Server) resetStats(c echo.Context) error {
	s.deps.Stats.Reset()
	return c.JSON(http.StatusOK, map[string]any{"success": true, "message": "Statistics reset"})
}

func (s *Server) clearHistory(c echo.Context) error {
	s.deps.Stats.ClearHistory()
	return c.JSON(http.StatusOK, map[string]any{"success": true, "message": "History cleared"})
}

func (s *Server) checkIn(c echo.Context) error {
	userID, ok := userIDFromContext(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	if err := s.deps.Rewards.CheckIn(userID); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"message": "You're checked in. Dispose plastic or e-waste to earn points!",
	})
}

func (s *Server) checkOut(c echo.Context) error {
	s.deps.Rewards.CheckOut()
	return c.JSON(http.StatusOK, map[string]any{"success": true, "message": "Checked out."})
}

func (s *Server) checkInStatus(c echo.Context) error {
	userID, ok := userIDFromContext(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success":    true,
		"checked_in": s.deps.Rewards.CheckedIn(userID),
	})
}

func (s *Server) balance(c echo.Context) error {
	userID, ok := userIDFromContext(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	u, err := s.deps.Users.GetByID(c.Request().Context(), userID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "User not found")
		}
		s.deps.Log.Error("balance read failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch balance")
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true, "user": u})
}

func (s *Server) submitBottle(c echo.Context) error {
	userID, ok := userIDFromContext(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	bal, err := s.deps.Rewards.SubmitBottle(c.Request().Context(), userID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "User not found")
		}
		s.deps.Log.Error("submit bottle failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to submit bottle")
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success":        true,
		"message":        "Bottle submitted successfully!",
		"credits_earned": 100,
		"user":           bal,
	})
}

type redeemRequest struct {
	ItemName string `json:"item_name"`
	ItemCost int64  `json:"item_cost"`
	Quantity int64  `json:"quantity"`
}

func (s *Server) redeem(c echo.Context) error {
	userID, ok := userIDFromContext(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	var req redeemRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	remaining, err := s.deps.Rewards.Redeem(c.Request().Context(), userID, req.ItemName, req.ItemCost, req.Quantity)
	switch {
	case err == nil:
	case errors.Is(err, errs.ErrInsufficientCredit):
		return c.JSON(http.StatusBadRequest, map[string]any{
			"success": false,
			"message": "Insufficient credits",
		})
	case errors.Is(err, errs.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "User not found")
	default:
		s.deps.Log.Error("redeem failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to redeem item")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success":           true,
		"message":           "Item redeemed successfully!",
		"remaining_credits": remaining,
	})
}

func (s *Server) redemptionHistory(c echo.Context) error {
	userID, ok := userIDFromContext(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	out, err := s.deps.Rewards.RedemptionHistory(c.Request().Context(), userID)
	if err != nil {
		s.deps.Log.Error("redemption history failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch history")
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true, "redemptions": out})
}

func (s *Server) bottleHistory(c echo.Context) error {
	userID, ok := userIDFromContext(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	out, err := s.deps.Rewards.CreditHistory(c.Request().Context(), userID)
	if err != nil {
		s.deps.Log.Error("bottle history failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch bottle history")
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true, "bottles": out})
}

func (s *Server) usersSummary(c echo.Context) error {
	out, err := s.deps.Users.Summary(c.Request().Context(), adminSummaryLimit)
	if err != nil {
		s.deps.Log.Error("users summary failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch users summary")
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true, "users": out})
}
