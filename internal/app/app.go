// Package app exposes the booking service over HTTP.
package app

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"physio-booking/internal/booking"
	"physio-booking/internal/config"
)

type App struct {
	Service *booking.Service
	Tokens  TokenStore
	// OAuth is nil in demo mode.
	OAuth    *oauth2.Config
	Config   *config.Config
	Metrics  *Metrics
	Gatherer prometheus.Gatherer
	Logger   *zap.Logger
	Now      func() time.Time

	// bookMu serializes the availability re-check and the write of a
	// booking within this process.
	bookMu    sync.Mutex
	stateOnce sync.Once
	stateKey  []byte
}

func (a *App) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

func (a *App) logger() *zap.Logger {
	if a.Logger == nil {
		return zap.NewNop()
	}
	return a.Logger
}

// Router wires every route onto a new gin engine.
func (a *App) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), a.requestLogger(), a.Metrics.Middleware())

	router.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	gatherer := a.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	// OAuth2 callback (must be outside admin auth)
	router.GET("/oauth2callback", a.OAuthCallbackHandler)

	api := router.Group("/api")
	{
		api.GET("/slots", a.GetSlotsHandler)
		api.GET("/next-open-day", a.NextOpenDayHandler)

		appointments := api.Group("/appointments")
		{
			appointments.POST("", a.CreateAppointmentHandler)
			appointments.GET("/:id", a.GetAppointmentHandler)
			appointments.GET("/:id/invite.ics", a.InviteHandler)
			appointments.DELETE("/:id", a.CancelAppointmentHandler)
		}

		var static []string
		var secret string
		if a.Config != nil {
			static, secret = a.Config.AdminStaticTokens, a.Config.AdminJWTSecret
		}
		admin := api.Group("/admin", AdminAuth(static, secret))
		{
			admin.GET("/appointments", a.ListAppointmentsHandler)
			admin.POST("/blocks", a.BlockHandler)
			admin.GET("/oauth/connect", a.OAuthConnectHandler)
		}
	}
	return router
}

func (a *App) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		a.logger().Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}
