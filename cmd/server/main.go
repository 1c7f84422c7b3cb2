package main

import (
	"context"
	"log"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"physio-booking/internal/app"
	"physio-booking/internal/booking"
	"physio-booking/internal/calendar"
	"physio-booking/internal/config"
	"physio-booking/internal/i18n"
	"physio-booking/internal/logger"
	"physio-booking/internal/schedule"
	"physio-booking/internal/server"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()

	zapLogger, err := logger.New(cfg.LogLevel, cfg.Env)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer zapLogger.Sync()

	loc, err := schedule.LoadLocation()
	if err != nil {
		zapLogger.Fatal("failed to load time zone", zap.Error(err))
	}
	if err := cfg.Validate(); err != nil {
		zapLogger.Fatal("invalid configuration", zap.Error(err))
	}
	if err := schedule.DefaultWorkingHours.Validate(); err != nil {
		zapLogger.Fatal("invalid working hours", zap.Error(err))
	}

	var tokens app.TokenStore = app.NewMemoryTokenStore()
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			zapLogger.Fatal("failed to connect to db", zap.Error(err))
		}
		defer pool.Close()

		store := app.NewPGTokenStore(pool)
		if err := store.Migrate(ctx); err != nil {
			zapLogger.Fatal("failed to migrate db", zap.Error(err))
		}
		tokens = store
	}

	var (
		cal    booking.Calendar
		mailer booking.Mailer
		oauth  = app.NewOAuthConfig(cfg)
	)
	if cfg.UseDemo() || oauth == nil {
		zapLogger.Warn("running in demo mode: in-memory calendar, emails are only logged")
		cal = calendar.NewDemo(loc, time.Now())
		mailer = calendar.NewLogMailer(zapLogger)
		oauth = nil
	} else {
		provider := &app.StoredTokenProvider{Store: tokens, OAuth: oauth, Logger: zapLogger}
		gcfg := calendar.GoogleConfig{Endpoint: cfg.GoogleAPIEndpoint}
		cal = calendar.NewGoogle(provider, gcfg, loc, zapLogger)
		mailer = calendar.NewGmail(provider, gcfg, cfg.MailFromEmail, zapLogger)
	}
	if cfg.MailProvider == "sendgrid" {
		if sg := calendar.NewSendGrid(cfg.SendGridAPIKey, cfg.MailFromEmail, cfg.MailFromName, zapLogger); sg != nil {
			mailer = sg
		} else {
			zapLogger.Warn("MAIL_PROVIDER=sendgrid but SENDGRID_API_KEY is empty, keeping default mailer")
		}
	}
	if strings.TrimSpace(cfg.PracticeEmail) == "" {
		zapLogger.Warn("PRACTICE_EMAIL is empty, fallback mailto links will have no recipient")
	}
	if len(cfg.AdminStaticTokens) == 0 && cfg.AdminJWTSecret == "" {
		zapLogger.Warn("no admin credentials configured, admin routes are locked")
	}

	svc := booking.NewService(cal, mailer, booking.Options{
		Location: loc,
		Practice: booking.Practice{
			Name:    cfg.PracticeName,
			Email:   cfg.PracticeEmail,
			Address: cfg.PracticeAddress,
			Domain:  cfg.PublicHost(),
		},
		Translator: i18n.New(cfg.Language),
		Logger:     zapLogger,
	})

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	appInstance := &app.App{
		Service:  svc,
		Tokens:   tokens,
		OAuth:    oauth,
		Config:   cfg,
		Metrics:  app.NewMetrics(reg),
		Gatherer: reg,
		Logger:   zapLogger,
	}

	if err := server.Run(ctx, appInstance.Router(), cfg.Port, zapLogger); err != nil {
		zapLogger.Fatal("http server failed", zap.Error(err))
	}
}
