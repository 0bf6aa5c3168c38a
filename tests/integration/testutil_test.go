package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	goredis "github.com/redis/go-redis/v9"

	"lifeline/internal/admin"
	"lifeline/internal/ambulance"
	"lifeline/internal/auth"
	"lifeline/internal/dispatch"
	"lifeline/internal/gemini"
	"lifeline/internal/hospital"
	jwtpkg "lifeline/internal/jwt"
	"lifeline/internal/middleware"
	"lifeline/internal/redis"
	"lifeline/internal/sos"
	"lifeline/internal/triage"
)

// testApp holds the wired application for integration tests.
type testApp struct {
	DB     *sqlx.DB
	Redis  *goredis.Client
	Router *gin.Engine
	JWT    *jwtpkg.Service
}

// incomingAdapter bridges sos.Service to hospital.IncomingLister.
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

func skipIfNoInfra(t *testing.T) {
	t.Helper()
	if os.Getenv("INTEGRATION_TEST") == "" {
		t.Skip("skipping integration test; set INTEGRATION_TEST=1 and ensure Postgres/Redis are running")
	}
}

func setupTestApp(t *testing.T) *testApp {
	t.Helper()
	skipIfNoInfra(t)

	gin.SetMode(gin.TestMode)

	// Postgres
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		dsn = "host=localhost port=5432 user=lifeline_admin password=secure_password dbname=lifeline sslmode=disable"
	}
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		t.Fatalf("postgres connect: %v", err)
	}

	// Redis
	redisAddr := os.Getenv("TEST_REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	rdb := goredis.NewClient(&goredis.Options{Addr: redisAddr})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		db.Close()
		t.Fatalf("redis connect: %v", err)
	}

	// Create tables (drop first to ensure clean state)
	createTestSchema(t, db)

	// Infrastructure
	jwtService := jwtpkg.NewService("test-secret", 24*time.Hour)
	ambulanceCache := redis.NewAmbulanceLocationCache(rdb, 60)
	idempotencyStore := redis.NewIdempotencyStore(rdb, 300)
	rateLimiter := redis.NewRateLimiter(rdb, 1000, 60) // generous for tests
	caseEventBus := redis.NewCaseEventBus(rdb)

	// No key in tests: every consumer exercises its deterministic fallback.
	completer := gemini.Disabled{}

	// Repositories
	caseRepo := sos.NewRepository()
	ambulanceRepo := ambulance.NewRepository()
	hospitalRepo := hospital.NewRepository()

	// Services
	caseService := sos.NewService(caseRepo, db)
	ambulanceService := ambulance.NewService(ambulanceRepo, db, ambulanceCache)
	hospitalService := hospital.NewService(hospitalRepo, db)

	dispatchService := dispatch.NewService(
		dispatch.NewCaseStore(caseRepo, db),
		dispatch.NewAmbulanceStore(ambulanceRepo, db),
		dispatch.NewHospitalStore(hospitalRepo, db),
		caseEventBus,
		hospital.NewSelector(completer),
		triage.NewScorer(completer),
		dispatch.Config{},
	)

	adminService := admin.NewService(caseService, ambulanceService, hospitalService, dispatchService, triage.NewDemandForecaster(completer))
	authService := auth.NewAuthService(jwtService)

	// Handlers
	authHandler := auth.NewHandler(authService)
	caseHandler := sos.NewHandler(dispatchService, caseService)
	ambulanceHandler := ambulance.NewHandler(ambulanceService)
	hospitalHandler := hospital.NewHandler(hospitalService, &incomingAdapter{svc: caseService})
	adminHandler := admin.NewHandler(adminService)

	// Router
	r := gin.New()
	r.Use(middleware.Recovery())
	r.Use(middleware.RateLimit(rateLimiter))
	r.Use(middleware.Auth(jwtService))

	// Auth
	authGroup := r.Group("/auth")
	authGroup.POST("/token", authHandler.GenerateToken)

	// Patient
	patientGroup := r.Group("")
	patientGroup.Use(middleware.RoleGuard("patient"))
	patientGroup.GET("/sos", caseHandler.ListMyCases)
	patientGroup.GET("/sos/:id", caseHandler.GetCase)
	patientMutations := patientGroup.Group("")
	patientMutations.Use(middleware.Bulkhead(50))
	patientMutations.Use(middleware.Idempotency(idempotencyStore))
	patientMutations.POST("/sos", caseHandler.CreateCase)

	// Ambulance
	ambulanceGroup := r.Group("/ambulance")
	ambulanceGroup.Use(middleware.RoleGuard("ambulance"))
	heartbeat := ambulanceGroup.Group("")
	heartbeat.Use(middleware.Bulkhead(100))
	heartbeat.POST("/me/heartbeat", ambulanceHandler.Heartbeat)
	ambulanceGroup.GET("/me", ambulanceHandler.GetMe)
	ambulanceGroup.GET("/me/case", caseHandler.GetMyCase)
	mutations := ambulanceGroup.Group("")
	mutations.Use(middleware.Bulkhead(50))
	mutations.Use(middleware.Idempotency(idempotencyStore))
	mutations.PATCH("/me/shift", ambulanceHandler.SetShiftStatus)
	mutations.PATCH("/cases/:id/status", caseHandler.UpdateStatus)

	// Hospital
	hospitalGroup := r.Group("/hospital")
	hospitalGroup.Use(middleware.RoleGuard("hospital"))
	hospitalGroup.GET("/me", hospitalHandler.GetMe)
	hospitalGroup.GET("/me/incoming", hospitalHandler.ListIncoming)
	hospitalMutations := hospitalGroup.Group("")
	hospitalMutations.Use(middleware.Bulkhead(50))
	hospitalMutations.Use(middleware.Idempotency(idempotencyStore))
	hospitalMutations.PATCH("/me/capacity", hospitalHandler.UpdateCapacity)

	// Admin
	adminGroup := r.Group("/admin")
	adminGroup.Use(middleware.RoleGuard("admin"))
	adminGroup.Use(middleware.Bulkhead(20))
	adminGroup.GET("/cases", adminHandler.ListCases)
	adminGroup.GET("/ambulances", adminHandler.ListAmbulances)
	adminGroup.GET("/hospitals", adminHandler.ListHospitals)
	adminGroup.POST("/hospitals", adminHandler.OnboardHospital)
	adminGroup.POST("/reconcile", adminHandler.Reconcile)
	adminGroup.POST("/blood/forecast", adminHandler.ForecastBloodDemand)
	adminGroup.GET("/blood/compatibility", adminHandler.CheckBloodCompatibility)

	app := &testApp{DB: db, Redis: rdb, Router: r, JWT: jwtService}

	t.Cleanup(func() {
		cleanTestData(t, db)
		rdb.FlushDB(context.Background())
		db.Close()
		rdb.Close()
	})

	return app
}

func createTestSchema(t *testing.T, db *sqlx.DB) {
	t.Helper()

	// Drop existing tables (in dependency order)
	db.MustExec(`DROP TABLE IF EXISTS sos_cases CASCADE`)
	db.MustExec(`DROP TABLE IF EXISTS ambulances CASCADE`)
	db.MustExec(`DROP TABLE IF EXISTS hospitals CASCADE`)

	// Create tables matching the code's actual columns
	db.MustExec(`CREATE TABLE hospitals (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		latitude DOUBLE PRECISION,
		longitude DOUBLE PRECISION,
		icu_beds INTEGER NOT NULL DEFAULT 0,
		blood_stock JSONB NOT NULL DEFAULT '{}'::jsonb,
		specialization TEXT[] NOT NULL DEFAULT '{}',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`)

	db.MustExec(`CREATE TABLE ambulances (
		id TEXT PRIMARY KEY,
		driver_id TEXT NOT NULL UNIQUE,
		status TEXT NOT NULL DEFAULT 'available',
		latitude DOUBLE PRECISION,
		longitude DOUBLE PRECISION,
		assigned_case_id UUID,
		last_update TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`)

	db.MustExec(`CREATE TABLE sos_cases (
		id UUID PRIMARY KEY,
		requester_id TEXT NOT NULL,
		lat DOUBLE PRECISION NOT NULL,
		lng DOUBLE PRECISION NOT NULL,
		blood_type TEXT,
		status TEXT NOT NULL DEFAULT 'pending',
		ambulance_id TEXT REFERENCES ambulances(id),
		hospital_id TEXT REFERENCES hospitals(id),
		hospital_name TEXT,
		hospital_lat DOUBLE PRECISION,
		hospital_lng DOUBLE PRECISION,
		ambulance_lat DOUBLE PRECISION,
		ambulance_lng DOUBLE PRECISION,
		eta TEXT,
		ghs_score INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`)
}

func cleanTestData(t *testing.T, db *sqlx.DB) {
	t.Helper()
	db.Exec(`DELETE FROM sos_cases`)
	db.Exec(`DELETE FROM ambulances`)
	db.Exec(`DELETE FROM hospitals`)
}

// --- Token helpers ---

func patientToken(t *testing.T, app *testApp, name string) string {
	t.Helper()
	token, err := app.JWT.GenerateToken(name, "patient")
	if err != nil {
		t.Fatalf("failed to generate patient token: %v", err)
	}
	return token
}

func ambulanceToken(t *testing.T, app *testApp, driverID string) string {
	t.Helper()
	token, err := app.JWT.GenerateToken(driverID, "ambulance")
	if err != nil {
		t.Fatalf("failed to generate ambulance token: %v", err)
	}
	return token
}

func hospitalToken(t *testing.T, app *testApp, hospitalID string) string {
	t.Helper()
	token, err := app.JWT.GenerateToken(hospitalID, "hospital")
	if err != nil {
		t.Fatalf("failed to generate hospital token: %v", err)
	}
	return token
}

func adminToken(t *testing.T, app *testApp) string {
	t.Helper()
	token, err := app.JWT.GenerateToken("admin", "admin")
	if err != nil {
		t.Fatalf("failed to generate admin token: %v", err)
	}
	return token
}

// --- HTTP request helpers ---

func doRequest(app *testApp, method, path string, body any, token string) *httptest.ResponseRecorder {
	return doKeyedRequest(app, method, path, body, token, fmt.Sprintf("idem-%d", time.Now().UnixNano()))
}

// doKeyedRequest sends a request with an explicit Idempotency-Key so tests
// can replay a mutation.
func doKeyedRequest(app *testApp, method, path string, body any, token, idempotencyKey string) *httptest.ResponseRecorder {
	var bodyReader io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, bodyReader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Idempotency-Key", idempotencyKey)

	w := httptest.NewRecorder()
	app.Router.ServeHTTP(w, req)
	return w
}

func doFormRequest(app *testApp, method, path string, formData map[string]string) *httptest.ResponseRecorder {
	form := ""
	for k, v := range formData {
		if form != "" {
			form += "&"
		}
		form += k + "=" + v
	}
	req := httptest.NewRequest(method, path, bytes.NewBufferString(form))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	w := httptest.NewRecorder()
	app.Router.ServeHTTP(w, req)
	return w
}

func parseJSON(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var result map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nbody: %s", err, w.Body.String())
	}
	return result
}

// --- Scenario helpers ---

func onboardTestHospital(t *testing.T, app *testApp, id, name string, lat, lng float64, icuBeds int) {
	t.Helper()

	body := map[string]any{
		"id":        id,
		"name":      name,
		"latitude":  lat,
		"longitude": lng,
	}
	w := doRequest(app, http.MethodPost, "/admin/hospitals", body, adminToken(t, app))
	if w.Code != http.StatusCreated {
		t.Fatalf("onboard hospital: expected 201, got %d: %s", w.Code, w.Body.String())
	}

	if icuBeds > 0 {
		cw := doRequest(app, http.MethodPatch, "/hospital/me/capacity",
			map[string]any{"icu_beds": icuBeds, "blood_stock": map[string]int{"O+": 5}},
			hospitalToken(t, app, id))
		if cw.Code != http.StatusOK {
			t.Fatalf("set capacity: expected 200, got %d: %s", cw.Code, cw.Body.String())
		}
	}
}

func heartbeatAmbulance(t *testing.T, app *testApp, driverID string, lat, lng float64) {
	t.Helper()

	body := map[string]float64{"latitude": lat, "longitude": lng}
	w := doRequest(app, http.MethodPost, "/ambulance/me/heartbeat", body, ambulanceToken(t, app, driverID))
	if w.Code != http.StatusOK {
		t.Fatalf("heartbeat: expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func createTestCase(t *testing.T, app *testApp, patientTok string) string {
	t.Helper()

	body := map[string]any{"latitude": 12.97, "longitude": 77.59}
	w := doRequest(app, http.MethodPost, "/sos", body, patientTok)
	if w.Code != http.StatusCreated {
		t.Fatalf("create case: expected 201, got %d: %s", w.Code, w.Body.String())
	}

	resp := parseJSON(t, w)
	caseData := resp["case"].(map[string]any)
	return caseData["id"].(string)
}
