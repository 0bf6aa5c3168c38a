package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"

	"lifeline/config"
	"lifeline/internal/admin"
	"lifeline/internal/ambulance"
	"lifeline/internal/auth"
	"lifeline/internal/dispatch"
	"lifeline/internal/gemini"
	"lifeline/internal/hospital"
	"lifeline/internal/jwt"
	"lifeline/internal/redis"
	pgrepo "lifeline/internal/repo/postgres"
	"lifeline/internal/sos"
	"lifeline/internal/triage"

	"github.com/jmoiron/sqlx"
)

type AppContext struct {
	DB     *sqlx.DB
	Config *config.Config
	Redis  *goredis.Client
	Router *gin.Engine

	// Infrastructure
	JWTService       *jwt.Service
	AmbulanceCache   *redis.AmbulanceLocationCache
	IdempotencyStore *redis.IdempotencyStore
	RateLimiter      *redis.RateLimiter
	CaseEventBus     *redis.CaseEventBus
	Completer        gemini.Completer

	CaseHandler      *sos.Handler
	AmbulanceHandler *ambulance.Handler
	HospitalHandler  *hospital.Handler
	AdminHandler     *admin.Handler
	AuthHandler      *auth.Handler

	DispatchService  *dispatch.Service
	CaseService      sos.Service
	AmbulanceService ambulance.Service
	HospitalService  hospital.Service
	AdminService     admin.Service

	CaseRepo      sos.Repository
	AmbulanceRepo ambulance.Repository
	HospitalRepo  hospital.Repository
}

// incomingAdapter bridges sos.Service to hospital.IncomingLister so the
// hospital handler doesn't import the sos package (avoiding circular deps).
type incomingAdapter struct {
	svc sos.Service
}

func (a *incomingAdapter) ListActiveByHospital(ctx context.Context, hospitalID string) ([]hospital.IncomingCase, error) {
	cases, err := a.svc.ListActiveByHospital(ctx, hospitalID)
	if err != nil {
		return nil, err
	}
	out := make([]hospital.IncomingCase, 0, len(cases))
	for _, c := range cases {
		out = append(out, hospital.IncomingCase{
			ID:           c.ID.String(),
			Status:       string(c.Status),
			BloodType:    c.BloodType,
			AmbulanceID:  c.AmbulanceID,
			AmbulanceLat: c.AmbulanceLat,
			AmbulanceLng: c.AmbulanceLng,
			ETA:          c.ETA,
			GHSScore:     c.GHSScore,
			CreatedAt:    c.CreatedAt,
		})
	}
	return out, nil
}

func wireApp(cfg *config.Config) (*AppContext, error) {
	// ── Postgres ──
	db, err := pgrepo.Connect(cfg.Postgres.DSN(), pgrepo.DefaultPoolConfig())
	if err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}

	if err := pgrepo.RunMigrationsUp(db); err != nil {
		return nil, fmt.Errorf("migrations: %w", err)
	}

	// ── Redis ──
	var rdb *goredis.Client
	if cfg.Redis.URL != "" {
		opts, err := goredis.ParseURL(cfg.Redis.URL)
		if err != nil {
			return nil, fmt.Errorf("redis parse url: %w", err)
		}
		rdb = goredis.NewClient(opts)
	} else {
		rdb = goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}

	// ── Infrastructure ──
	jwtService := jwt.NewService(cfg.JWT.Secret, cfg.JWT.ExpiryHours)
	ambulanceCache := redis.NewAmbulanceLocationCache(rdb, cfg.Dispatch.LocationCacheTTLSec)
	idempotencyStore := redis.NewIdempotencyStore(rdb, cfg.Dispatch.IdempotencyTTLSec)
	rateLimiter := redis.NewRateLimiter(rdb, cfg.RateLimiter.MaxRequests, cfg.RateLimiter.WindowSeconds)
	caseEventBus := redis.NewCaseEventBus(rdb)

	// Refinement runs without a key too; every consumer falls back to its
	// deterministic path when the completer errors.
	var completer gemini.Completer
	if cfg.Gemini.APIKey != "" {
		completer = gemini.NewClient(cfg.Gemini.BaseURL, cfg.Gemini.APIKey, cfg.Gemini.Model,
			time.Duration(cfg.Gemini.TimeoutSeconds)*time.Second)
	} else {
		completer = gemini.Disabled{}
	}
	completer = gemini.NewBreaker(completer, cfg.Gemini.FailureThreshold,
		time.Duration(cfg.Gemini.CooldownSeconds)*time.Second)

	// ── Repositories ──
	caseRepo := sos.NewRepository()
	ambulanceRepo := ambulance.NewRepository()
	hospitalRepo := hospital.NewRepository()

	// ── Services ──
	caseService := sos.NewService(caseRepo, db)
	ambulanceService := ambulance.NewService(ambulanceRepo, db, ambulanceCache)
	hospitalService := hospital.NewService(hospitalRepo, db)

	selector := hospital.NewSelector(completer)
	scorer := triage.NewScorer(completer)
	forecaster := triage.NewDemandForecaster(completer)

	dispatchService := dispatch.NewService(
		dispatch.NewCaseStore(caseRepo, db),
		dispatch.NewAmbulanceStore(ambulanceRepo, db),
		dispatch.NewHospitalStore(hospitalRepo, db),
		caseEventBus,
		selector,
		scorer,
		dispatch.Config{
			EtaMinutesPerKM: cfg.Dispatch.EtaMinutesPerKM,
			ReserveRetries:  cfg.Dispatch.ReserveRetries,
		},
	)

	adminService := admin.NewService(caseService, ambulanceService, hospitalService, dispatchService, forecaster)
	authService := auth.NewAuthService(jwtService)

	// ── Handlers ──
	authHandler := auth.NewHandler(authService)
	caseHandler := sos.NewHandler(dispatchService, caseService)
	ambulanceHandler := ambulance.NewHandler(ambulanceService)
	hospitalHandler := hospital.NewHandler(hospitalService, &incomingAdapter{svc: caseService})
	adminHandler := admin.NewHandler(adminService)

	return &AppContext{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
		Router: gin.Default(),

		JWTService:       jwtService,
		AmbulanceCache:   ambulanceCache,
		IdempotencyStore: idempotencyStore,
		RateLimiter:      rateLimiter,
		CaseEventBus:     caseEventBus,
		Completer:        completer,

		CaseRepo:      caseRepo,
		AmbulanceRepo: ambulanceRepo,
		HospitalRepo:  hospitalRepo,

		DispatchService:  dispatchService,
		CaseService:      caseService,
		AmbulanceService: ambulanceService,
		HospitalService:  hospitalService,
		AdminService:     adminService,

		AuthHandler:      authHandler,
		CaseHandler:      caseHandler,
		AmbulanceHandler: ambulanceHandler,
		HospitalHandler:  hospitalHandler,
		AdminHandler:     adminHandler,
	}, nil
}

func (a *AppContext) Close() {
	a.DB.Close()
	a.Redis.Close()
}

// runReconcileLoop periodically releases ambulances stranded in assigned
// by a crash between reservation and case creation.
func (a *AppContext) runReconcileLoop(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := a.DispatchService.Reconcile(ctx); err != nil {
				slog.ErrorContext(ctx, "reconcile sweep failed", slog.String("error", err.Error()))
			}
		}
	}
}

func (a *AppContext) healthCheck(c *gin.Context) {
	ctx := c.Request.Context()
	checks := map[string]string{}
	healthy := true

	if err := a.DB.PingContext(ctx); err != nil {
		checks["postgres"] = err.Error()
		healthy = false
	} else {
		checks["postgres"] = "ok"
	}

	if err := a.Redis.Ping(ctx).Err(); err != nil {
		checks["redis"] = err.Error()
		healthy = false
	} else {
		checks["redis"] = "ok"
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, gin.H{
		"status": checks,
	})
}
