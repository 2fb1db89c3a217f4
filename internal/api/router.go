package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/KunalPandey-675/oceanResQ/internal/api/handlers/http/analytics"
	"github.com/KunalPandey-675/oceanResQ/internal/api/handlers/http/reports"
	"github.com/KunalPandey-675/oceanResQ/internal/api/handlers/http/system"
	"github.com/KunalPandey-675/oceanResQ/internal/config"
	"github.com/KunalPandey-675/oceanResQ/internal/middleware"
	"github.com/KunalPandey-675/oceanResQ/internal/observability"
	"github.com/KunalPandey-675/oceanResQ/internal/service"
)

type Server struct {
	logger *slog.Logger
	router *chi.Mux
	cfg    config.Config
}

// NewServer builds the HTTP surface. The rate limiter janitor lives as long
// as ctx.
func NewServer(ctx context.Context, cfg *config.Config, logger *slog.Logger, svc *service.Service, metrics *observability.Metrics, gatherer prometheus.Gatherer, clock clockwork.Clock) *Server {
	reportHandler := reports.NewHandler(logger, svc.Reports, svc.Proximity, cfg.Verbose())
	analyticsHandler := analytics.NewHandler(logger, svc.Analytics, svc.Dashboard, cfg.Verbose())
	systemHandler := system.NewHandler(logger, svc, clock)
	limiter := middleware.NewRateLimiter(ctx, cfg.RateLimit, clock, logger)

	r := InitRouter(cfg, reportHandler, analyticsHandler, systemHandler, limiter, metrics, gatherer)

	return &Server{
		logger: logger,
		router: r,
		cfg:    *cfg,
	}
}

func InitRouter(
	cfg *config.Config,
	reportHandler *reports.Handler,
	analyticsHandler *analytics.Handler,
	systemHandler *system.Handler,
	limiter *middleware.RateLimiter,
	metrics *observability.Metrics,
	gatherer prometheus.Gatherer,
) *chi.Mux {
	r := chi.NewMux()

	// RequestID first so the access log line carries it
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Logger)
	r.Use(middleware.Metrics(metrics))

	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/api", func(api chi.Router) {
		api.Use(chimw.Timeout(cfg.Http.RequestTimeout))
		api.Use(limiter.Handler)

		api.Route("/reports", func(rr chi.Router) {
			rr.Post("/", reportHandler.ReportSubmit)
			rr.Get("/", reportHandler.ReportList)
			rr.Get("/recent", reportHandler.ReportRecent)
			rr.Get("/location/nearby", reportHandler.ReportNearby)

			rr.Route("/{id}", func(ir chi.Router) {
				ir.Get("/", reportHandler.ReportGet)
				ir.Put("/", reportHandler.ReportUpdate)
				ir.Delete("/", reportHandler.ReportDelete)
			})
		})

		api.Route("/analytics", func(ar chi.Router) {
			ar.Get("/", analyticsHandler.AnalyticsGet)
			ar.Get("/dashboard", analyticsHandler.DashboardGet)
			ar.Get("/export", analyticsHandler.AnalyticsExport)
		})

		api.Get("/health", systemHandler.SystemHealth)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"API endpoint not found"}`))
	})

	return r
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Run(ctx context.Context) error {
	port := s.cfg.Http.Port
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}

	srv := &http.Server{
		Addr:         port,
		Handler:      s.router,
		ReadTimeout:  s.cfg.Http.ReadTimeout,
		WriteTimeout: s.cfg.Http.WriteTimeout,
		IdleTimeout:  30 * time.Second,
	}

	errChan := make(chan error, 1)

	go func() {
		s.logger.Info("starting HTTP server",
			slog.String("addr", srv.Addr),
			slog.Duration("read_timeout", s.cfg.Http.ReadTimeout),
			slog.Duration("write_timeout", s.cfg.Http.WriteTimeout),
		)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("ListenAndServe error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down HTTP server", slog.String("reason", ctx.Err().Error()))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Http.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("server shutdown failed", slog.Any("error", err))
			return err
		}
		return nil

	case err := <-errChan:
		return err
	}
}
