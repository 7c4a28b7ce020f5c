package httpgin

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kirinyoku/tixgo/internal/auth"
	"github.com/kirinyoku/tixgo/internal/domain"
	redisrepo "github.com/kirinyoku/tixgo/internal/repository/redis"
	"github.com/kirinyoku/tixgo/internal/service"
	"github.com/kirinyoku/tixgo/internal/service/admin"
	"github.com/kirinyoku/tixgo/internal/service/checkout"
	"github.com/kirinyoku/tixgo/internal/service/payment"
	"github.com/kirinyoku/tixgo/internal/service/query"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// RouterDeps are the optional Redis-backed guards. Nil fields disable the
// corresponding guard.
type RouterDeps struct {
	Idempotency *redisrepo.IdempotencyStore
	OrderLimit  *redisrepo.SlidingWindowLimiter
}

func NewRouter(
	svcs *service.Services,
	deps RouterDeps,
	logger *slog.Logger,
	middlewares ...gin.HandlerFunc,
) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery(), LoggingMiddleware(logger), RequestIDMiddleware(), CORS())
	for _, m := range middlewares {
		if m != nil {
			r.Use(m)
		}
	}

	// Swagger UI
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// health
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Public API
	r.GET("/events", handleListEvents(svcs))
	r.GET("/events/:id", handleGetEvent(svcs))

	payments := r.Group("/payments")
	{
		payments.POST("/orders", RateLimit(deps.OrderLimit, logger), handleCreateOrder(svcs))
		payments.POST("/verify", handleVerifyPayment(svcs, deps.Idempotency, logger))
	}

	// Admin API
	r.POST("/admin/login", handleAdminLogin(svcs))
	adminGroup := r.Group("/admin", AdminAuth(svcs.Auth))
	{
		adminGroup.POST("/events", handleCreateEvent(svcs))
		adminGroup.GET("/bookings", handleListBookings(svcs))
		adminGroup.GET("/bookings/:id", handleGetBooking(svcs))
		adminGroup.GET("/analytics/summary", handleAnalyticsSummary(svcs))
	}

	return r
}

// --- Helpers ---

func parseInt64Param(c *gin.Context, name string) (int64, bool) {
	s := c.Param(name)
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil || v <= 0 {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return v, true
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
}

func respondErr(c *gin.Context, err error) {
	if err == nil {
		c.Status(http.StatusNoContent)
		return
	}

	_ = c.Error(err)

	var verr *domain.ValidationError
	var notOK *payment.PaymentNotSuccessfulError

	switch {
	// client input
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: verr.Error()})
	case errors.Is(err, payment.ErrInvalidSignature):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid payment signature"})
	case errors.As(err, &notOK):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Payment not successful"})
	// gateway
	case errors.Is(err, payment.ErrNotConfigured), errors.Is(err, checkout.ErrNotConfigured):
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Payment gateway is not configured"})
	case errors.Is(err, checkout.ErrGateway):
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to create order"})
	case errors.Is(err, payment.ErrGateway):
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Payment verification failed"})
	// auth
	case errors.Is(err, auth.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid credentials"})
	case errors.Is(err, auth.ErrInvalidToken):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid token"})
	case errors.Is(err, auth.ErrNotConfigured):
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "admin access is not configured"})
	// lookups
	case errors.Is(err, query.ErrEventNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "event not found"})
	case errors.Is(err, admin.ErrBookingNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "booking not found"})
	case errors.Is(err, admin.ErrEventConflict):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "event conflict"})
	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}
