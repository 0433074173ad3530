package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ali-abouelaish/FleetManager-sub004/internal/adapter/detector"
	"github.com/ali-abouelaish/FleetManager-sub004/internal/adapter/email"
	httpadp "github.com/ali-abouelaish/FleetManager-sub004/internal/adapter/http"
	"github.com/ali-abouelaish/FleetManager-sub004/internal/adapter/middleware"
	"github.com/ali-abouelaish/FleetManager-sub004/internal/adapter/repository/gormrepo"
	"github.com/ali-abouelaish/FleetManager-sub004/internal/config"
	"github.com/ali-abouelaish/FleetManager-sub004/internal/domain/mail"
	"github.com/ali-abouelaish/FleetManager-sub004/internal/infrastructure/cache"
	"github.com/ali-abouelaish/FleetManager-sub004/internal/infrastructure/db"
	"github.com/ali-abouelaish/FleetManager-sub004/internal/infrastructure/logger"
	"github.com/ali-abouelaish/FleetManager-sub004/internal/infrastructure/metrics"
	"github.com/ali-abouelaish/FleetManager-sub004/internal/usecase/appointment"
	"github.com/ali-abouelaish/FleetManager-sub004/internal/usecase/compliance"
	"github.com/ali-abouelaish/FleetManager-sub004/internal/usecase/document"
	"github.com/ali-abouelaish/FleetManager-sub004/internal/usecase/hold"
	"github.com/ali-abouelaish/FleetManager-sub004/internal/usecase/incident"
	"github.com/ali-abouelaish/FleetManager-sub004/internal/usecase/notification"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	defer func() { _ = log.Sync() }()

	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gdb, err := db.OpenGorm(cfg.DBDriver, cfg.DSN(), log)
	if err != nil {
		log.Fatal("open database", zap.String("driver", cfg.DBDriver), zap.Error(err))
	}
	if err := gormrepo.Migrate(gdb); err != nil {
		log.Fatal("migrate", zap.Error(err))
	}

	rdb, err := cache.OpenRedis(ctx, cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		log.Fatal("open redis", zap.String("addr", cfg.RedisAddr), zap.Error(err))
	}
	defer func() { _ = rdb.Close() }()

	sender, err := newSender(ctx, cfg, log)
	if err != nil {
		log.Fatal("email sender", zap.String("provider", cfg.EmailProvider), zap.Error(err))
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	uow := gormrepo.NewGormUoW(gdb)
	notifications := gormrepo.NewNotificationRepository(gdb)
	holds := hold.NewManager(uow, log.Named("hold"), m)

	registry := notification.NewRegistry(notification.Deps{
		Notifications: notifications,
		Fleet:         gormrepo.NewFleetRepository(gdb),
		UoW:           uow,
		Holds:         holds,
		Sender:        sender,
		Detector:      detector.New(gdb, cfg.DBDriver),
		BaseURL:       cfg.PublicBaseURL,
		Log:           log.Named("notification"),
		Metrics:       m,
	})
	scheduler := appointment.NewScheduler(appointment.Deps{
		Appointments: gormrepo.NewAppointmentRepository(gdb),
		UoW:          uow,
		Sender:       sender,
		AdminEmails:  cfg.AdminNotifyEmails,
		Log:          log.Named("appointment"),
		Metrics:      m,
	})
	matcher := document.NewMatcher(document.Deps{
		Documents:   gormrepo.NewDocumentRepository(gdb),
		UoW:         uow,
		Sender:      sender,
		AdminEmails: cfg.AdminNotifyEmails,
		Log:         log.Named("document"),
		Metrics:     m,
	})
	tracker := compliance.NewTracker(gormrepo.NewComplianceRepository(gdb), notifications, log.Named("compliance"))
	incidents := incident.NewHandler(incident.Deps{UoW: uow, Holds: holds, Log: log.Named("incident"), Metrics: m})

	sys := httpadp.NewSystemHandler(log)
	handlers := httpadp.Handlers{
		System:        sys,
		Holds:         httpadp.NewHoldHandler(holds, log),
		Notifications: httpadp.NewNotificationHandler(registry, log),
		Appointments:  httpadp.NewAppointmentHandler(scheduler, log),
		Compliance:    httpadp.NewComplianceHandler(tracker, log),
		Documents:     httpadp.NewDocumentHandler(matcher, log),
		Incidents:     httpadp.NewIncidentHandler(incidents, log),
		Public:        httpadp.NewPublicHandler(registry, matcher, log),
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = httpadp.NewValidator()
	e.HTTPErrorHandler = sys.HTTPError
	e.Use(echomw.Recover(), echomw.RequestID(), requestLogger(log))

	verifier := middleware.NewTokenVerifier(cfg.JWTSecret, cfg.JWTIssuer)
	httpadp.Register(e, handlers, httpadp.Guards{
		Coordinator: middleware.RequireCoordinator(verifier, log),
		Idempotency: middleware.Idempotency(rdb, time.Duration(cfg.IdempTTLSecs)*time.Second, log),
		PublicRate:  middleware.RateLimit(rdb, cfg.PublicRateLimitPerMin, log),
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	addr := ":" + cfg.AppPort
	go func() {
		log.Info("listening", zap.String("addr", addr), zap.String("db_driver", cfg.DBDriver))
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
	log.Info("stopped")
}

func newSender(ctx context.Context, cfg *config.Config, log *zap.Logger) (mail.Sender, error) {
	if strings.EqualFold(cfg.EmailProvider, "ses") {
		s, err := email.NewSESSender(ctx, cfg.AWSRegion, cfg.SESFromEmail)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	return email.NewLogSender(log.Named("email")), nil
}

func requestLogger(log *zap.Logger) echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("request_id", v.RequestID),
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
			}
			log.Info("request", fields...)
			return nil
		},
	})
}
