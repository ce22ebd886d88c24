package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/diazhh/erp-ace-sub000/internal/db"
	"github.com/diazhh/erp-ace-sub000/internal/domain/audit"
	"github.com/diazhh/erp-ace-sub000/internal/domain/loans"
	"github.com/diazhh/erp-ace-sub000/internal/domain/payroll"
	"github.com/diazhh/erp-ace-sub000/internal/domain/pettycash"
	"github.com/diazhh/erp-ace-sub000/internal/platform/config"
	"github.com/diazhh/erp-ace-sub000/internal/platform/metrics"
	audithandler "github.com/diazhh/erp-ace-sub000/internal/transport/http/handlers/audit"
	loanshandler "github.com/diazhh/erp-ace-sub000/internal/transport/http/handlers/loans"
	payrollhandler "github.com/diazhh/erp-ace-sub000/internal/transport/http/handlers/payroll"
	pettycashhandler "github.com/diazhh/erp-ace-sub000/internal/transport/http/handlers/pettycash"
	"github.com/diazhh/erp-ace-sub000/internal/transport/http/middleware"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer pool.Close()

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, cfg.MigrationsDir); err != nil {
			log.Fatalf("migrations failed: %v", err)
		}
	}

	auditor := audit.New(pool)
	payrollService := payroll.NewService(payroll.NewStore(pool))
	loansService := loans.NewService(loans.NewStore(pool))
	pettyCashService := pettycash.NewService(pettycash.NewStore(pool))

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.Environment == "production"))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
	}))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.Auth(cfg.JWTSecret))
	router.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute))
	router.Use(middleware.MoneyMutationRateLimit(cfg.RateLimitPerMinute, time.Minute))
	if cfg.MetricsEnabled {
		router.Use(middleware.Metrics)
	}

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if cfg.MetricsEnabled {
		router.Handle("/metrics", metrics.Handler())
	}

	router.Route("/api/v1", func(r chi.Router) {
		payrollhandler.NewHandler(payrollService, auditor).RegisterRoutes(r)
		loanshandler.NewHandler(loansService, auditor).RegisterRoutes(r)
		pettycashhandler.NewHandler(pettyCashService, auditor).RegisterRoutes(r)
		audithandler.NewHandler(auditor).RegisterRoutes(r)
	})

	log.Printf("ERP money-movement server listening on %s", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, router); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
