package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/gymstack/gymstack-backend/internal/attendance"
	"github.com/gymstack/gymstack-backend/internal/auth"
	authjwt "github.com/gymstack/gymstack-backend/internal/auth/jwt"
	"github.com/gymstack/gymstack-backend/internal/engagement"
	"github.com/gymstack/gymstack-backend/internal/gamification"
	"github.com/gymstack/gymstack-backend/internal/loyalty"
	"github.com/gymstack/gymstack-backend/internal/member"
	"github.com/gymstack/gymstack-backend/internal/membership"
	"github.com/gymstack/gymstack-backend/internal/migrate"
	"github.com/gymstack/gymstack-backend/internal/notification"
	"github.com/gymstack/gymstack-backend/internal/payment"
	"github.com/gymstack/gymstack-backend/internal/platform"
	"github.com/gymstack/gymstack-backend/internal/registry"
	"github.com/gymstack/gymstack-backend/internal/reqctx"
	"github.com/gymstack/gymstack-backend/internal/salary"
	"github.com/gymstack/gymstack-backend/internal/scheduler"
	"github.com/gymstack/gymstack-backend/pkg/config"
	"github.com/gymstack/gymstack-backend/pkg/database"
	"github.com/gymstack/gymstack-backend/pkg/httputil"
	"github.com/gymstack/gymstack-backend/pkg/logger"
	"github.com/gymstack/gymstack-backend/pkg/messaging"
)

func main() {
	// Load configuration
	cfg, err := config.LoadWithValidation()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New("gymstack", cfg.Server.Environment)
	log.Info().Msg("starting GymStack backend")

	// Open the two pools: pooler-aware main, direct tenant
	pools, err := database.Open(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pools.Close()

	// Migrate main schema and reconcile every tenant schema
	engine := migrate.NewEngine(log)
	reg := registry.New(pools, engine, log)

	startupCtx, startupCancel := context.WithTimeout(context.Background(), 5*time.Minute)
	if err := reg.Reconcile(startupCtx); err != nil {
		startupCancel()
		log.Fatal().Err(err).Msg("schema reconcile failed")
	}
	startupCancel()

	// Real-time emitter: RabbitMQ when enabled, otherwise a no-op
	var emitter messaging.Emitter = messaging.NoopEmitter{}
	var rmq *messaging.RabbitMQ
	if cfg.RabbitMQ.Enabled {
		rmq, err = messaging.New(&cfg.RabbitMQ, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
		}
		defer rmq.Close()

		emitter, err = messaging.NewGymEmitter(rmq, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create event emitter")
		}
	} else {
		log.Warn().Msg("RabbitMQ disabled, realtime events are dropped")
	}

	// Auth plumbing
	tokens := authjwt.NewManager(&cfg.JWT)
	features := auth.NewFeatureChecker(pools.Main)

	// Repositories
	platformRepo := platform.NewRepository()
	memberRepo := member.NewRepository()
	notificationRepo := notification.NewRepository()
	paymentRepo := payment.NewRepository()
	membershipRepo := membership.NewRepository()
	gamificationRepo := gamification.NewRepository()
	loyaltyRepo := loyalty.NewRepository()
	engagementRepo := engagement.NewRepository()
	attendanceRepo := attendance.NewRepository()
	salaryRepo := salary.NewRepository()

	// Services
	authService := auth.NewService(pools, tokens, log)
	platformService := platform.NewService(pools, reg, platformRepo, log)
	notificationService := notification.NewService(notificationRepo, emitter, log)
	membershipService := membership.NewService(membershipRepo, paymentRepo, notificationService, log)
	gamificationService := gamification.NewService(gamificationRepo, notificationService, emitter, log)
	loyaltyService := loyalty.NewService(loyaltyRepo, notificationService, log)
	engagementService := engagement.NewService(engagementRepo, notificationService, log)
	attendanceService := attendance.NewService(attendanceRepo, gamificationService, loyaltyService, engagementService, emitter, log)
	salaryService := salary.NewService(salaryRepo, paymentRepo, notificationService, log)

	// Handlers
	authHandler := auth.NewHandler(authService)
	platformHandler := platform.NewHandler(platformService, platformRepo)
	memberHandler := member.NewHandler(memberRepo, features, emitter)
	notificationHandler := notification.NewHandler(notificationRepo)
	paymentHandler := payment.NewHandler(paymentRepo, notificationService)
	membershipHandler := membership.NewHandler(membershipService, membershipRepo)
	gamificationHandler := gamification.NewHandler(gamificationService, gamificationRepo, features)
	loyaltyHandler := loyalty.NewHandler(loyaltyService, loyaltyRepo, features)
	engagementHandler := engagement.NewHandler(engagementService, engagementRepo, features)
	attendanceHandler := attendance.NewHandler(attendanceService, attendanceRepo)
	salaryHandler := salary.NewHandler(salaryService, salaryRepo)

	// Background jobs
	sched := scheduler.New(pools, reg, scheduler.Jobs{
		Memberships:  membershipService,
		Loyalty:      loyaltyService,
		Gamification: gamificationService,
		Engagement:   engagementService,
		Salaries:     salaryService,
	}, cfg.Scheduler, log)
	if err := sched.Start(); err != nil {
		log.Fatal().Err(err).Msg("failed to start scheduler")
	}
	defer sched.Stop()

	// Router
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins(),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "x-user-id"},
		ExposedHeaders:   httputil.ExposedHeaders,
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		broker := map[string]string{"status": "disabled"}
		if rmq != nil {
			broker = rmq.Health()
		}
		httputil.JSON(w, http.StatusOK, map[string]interface{}{
			"status":   "healthy",
			"database": pools.Health(r.Context()),
			"broker":   broker,
		})
	})

	r.Route("/api", func(r chi.Router) {
		// Public surface: login, plan catalogue, contact form
		r.Route("/auth", authHandler.PublicRoutes)
		r.Group(func(r chi.Router) {
			r.Use(reqctx.Middleware(pools))
			platformHandler.PublicRoutes(r)
		})

		// Everything else requires a token and gets request-scoped DB clients
		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate(tokens))
			r.Use(reqctx.Middleware(pools))

			r.Route("/account", authHandler.ProtectedRoutes)
			r.Route("/platform", platformHandler.Routes)
			memberHandler.Routes(r)
			membershipHandler.Routes(r)
			r.Route("/payments", paymentHandler.Routes)
			r.Route("/attendance", attendanceHandler.Routes)
			r.Route("/gamification", gamificationHandler.Routes)
			r.Route("/loyalty", loyaltyHandler.Routes)
			r.Route("/engagement", engagementHandler.Routes)
			r.Route("/salaries", salaryHandler.Routes)
			r.Route("/notifications", notificationHandler.Routes)
		})
	})

	// Server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}

	log.Info().Msg("server stopped")
}
