package main

import (
	"lifeline/internal/middleware"
)

func (a *AppContext) setupRoutes() {
	r := a.Router

	// ── Global Middleware (outermost → innermost) ──
	r.Use(middleware.Logger())                 // 1. Request logging
	r.Use(middleware.Recovery())               // 2. Panic recovery
	r.Use(middleware.RateLimit(a.RateLimiter)) // 3. Per-IP rate limiting
	r.Use(middleware.Auth(a.JWTService))       // 4. JWT auth (skips /auth/token)

	// ── Health (no auth, no rate limit) ──
	r.GET("/health", a.healthCheck)

	// ── Auth (no role guard, no idempotency) ──
	authGroup := r.Group("/auth")
	{
		authGroup.POST("/token", a.AuthHandler.GenerateToken)
	}

	// ── Patient Routes (role: patient) ──
	patientGroup := r.Group("")
	patientGroup.Use(middleware.RoleGuard("patient"))
	{
		// SOS creation gets the mutation pool plus idempotency; one tap
		// must never dispatch two ambulances.
		mutations := patientGroup.Group("")
		mutations.Use(middleware.Bulkhead(a.Config.Bulkhead.MutationPool))
		mutations.Use(middleware.Idempotency(a.IdempotencyStore))
		{
			mutations.POST("/sos", a.CaseHandler.CreateCase)
		}

		patientGroup.GET("/sos", a.CaseHandler.ListMyCases)
		patientGroup.GET("/sos/:id", a.CaseHandler.GetCase)
		patientGroup.GET("/sos/:id/stream", a.CaseHandler.StreamCase)
	}

	// ── Ambulance Routes (role: ambulance) ──
	ambulanceGroup := r.Group("/ambulance")
	ambulanceGroup.Use(middleware.RoleGuard("ambulance"))
	{
		// Heartbeat gets its own bulkhead pool (high concurrency)
		heartbeat := ambulanceGroup.Group("")
		heartbeat.Use(middleware.Bulkhead(a.Config.Bulkhead.HeartbeatPool))
		{
			heartbeat.POST("/me/heartbeat", a.AmbulanceHandler.Heartbeat)
		}

		// Read-only endpoints
		ambulanceGroup.GET("/me", a.AmbulanceHandler.GetMe)
		ambulanceGroup.GET("/me/case", a.CaseHandler.GetMyCase)

		// Mutations get the mutation pool
		mutations := ambulanceGroup.Group("")
		mutations.Use(middleware.Bulkhead(a.Config.Bulkhead.MutationPool))
		mutations.Use(middleware.Idempotency(a.IdempotencyStore))
		{
			mutations.PATCH("/me/shift", a.AmbulanceHandler.SetShiftStatus)
			mutations.PATCH("/cases/:id/status", a.CaseHandler.UpdateStatus)
		}
	}

	// ── Hospital Routes (role: hospital) ──
	hospitalGroup := r.Group("/hospital")
	hospitalGroup.Use(middleware.RoleGuard("hospital"))
	{
		hospitalGroup.GET("/me", a.HospitalHandler.GetMe)
		hospitalGroup.GET("/me/incoming", a.HospitalHandler.ListIncoming)

		mutations := hospitalGroup.Group("")
		mutations.Use(middleware.Bulkhead(a.Config.Bulkhead.MutationPool))
		mutations.Use(middleware.Idempotency(a.IdempotencyStore))
		{
			mutations.PATCH("/me/capacity", a.HospitalHandler.UpdateCapacity)
		}
	}

	// ── Admin Routes (role: admin) ──
	adminGroup := r.Group("/admin")
	adminGroup.Use(middleware.RoleGuard("admin"))
	adminGroup.Use(middleware.Bulkhead(a.Config.Bulkhead.AdminPool))
	{
		adminGroup.GET("/cases", a.AdminHandler.ListCases)
		adminGroup.GET("/ambulances", a.AdminHandler.ListAmbulances)
		adminGroup.GET("/hospitals", a.AdminHandler.ListHospitals)
		adminGroup.POST("/hospitals", a.AdminHandler.OnboardHospital)
		adminGroup.POST("/reconcile", a.AdminHandler.Reconcile)
		adminGroup.POST("/blood/forecast", a.AdminHandler.ForecastBloodDemand)
		adminGroup.GET("/blood/compatibility", a.AdminHandler.CheckBloodCompatibility)
	}
}
