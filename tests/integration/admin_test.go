package integration

import (
	"net/http"
	"testing"
)

func TestAdmin_OnboardAndListHospitals(t *testing.T) {
	app := setupTestApp(t)
	token := adminToken(t, app)

	body := map[string]any{
		"id":             "hosp-1",
		"name":           "City General",
		"latitude":       12.99,
		"longitude":      77.60,
		"specialization": []string{"trauma", "cardiac"},
	}
	w := doRequest(app, http.MethodPost, "/admin/hospitals", body, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	lw := doRequest(app, http.MethodGet, "/admin/hospitals", nil, token)
	if lw.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", lw.Code, lw.Body.String())
	}
	resp := parseJSON(t, lw)
	hospitals := resp["hospitals"].([]any)
	if len(hospitals) != 1 {
		t.Fatalf("expected 1 hospital, got %d", len(hospitals))
	}
}

func TestAdmin_OnboardHospital_MissingName(t *testing.T) {
	app := setupTestApp(t)

	w := doRequest(app, http.MethodPost, "/admin/hospitals", map[string]any{"id": "h1"}, adminToken(t, app))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestAdmin_ListCases_FilterByStatus(t *testing.T) {
	app := setupTestApp(t)
	onboardTestHospital(t, app, "hosp-1", "City General", 12.99, 77.60, 2)
	heartbeatAmbulance(t, app, "amb-1", 12.98, 77.59)
	createTestCase(t, app, patientToken(t, app, "patient-1"))

	token := adminToken(t, app)

	w := doRequest(app, http.MethodGet, "/admin/cases?status=dispatched", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := parseJSON(t, w)
	cases := resp["cases"].([]any)
	if len(cases) != 1 {
		t.Fatalf("expected 1 dispatched case, got %d", len(cases))
	}

	w = doRequest(app, http.MethodGet, "/admin/cases?status=reached", nil, token)
	resp = parseJSON(t, w)
	if cases, ok := resp["cases"].([]any); ok && len(cases) != 0 {
		t.Fatalf("expected 0 reached cases, got %d", len(cases))
	}
}

func TestAdmin_ListCases_UnknownStatus(t *testing.T) {
	app := setupTestApp(t)

	w := doRequest(app, http.MethodGet, "/admin/cases?status=teleported", nil, adminToken(t, app))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestAdmin_ListAmbulances(t *testing.T) {
	app := setupTestApp(t)
	heartbeatAmbulance(t, app, "amb-1", 12.98, 77.59)
	heartbeatAmbulance(t, app, "amb-2", 13.00, 77.59)

	w := doRequest(app, http.MethodGet, "/admin/ambulances", nil, adminToken(t, app))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := parseJSON(t, w)
	ambulances := resp["ambulances"].([]any)
	if len(ambulances) != 2 {
		t.Fatalf("expected 2 ambulances, got %d", len(ambulances))
	}
}

func TestAdmin_Reconcile_ReleasesStrandedUnit(t *testing.T) {
	app := setupTestApp(t)
	heartbeatAmbulance(t, app, "amb-1", 12.98, 77.59)

	// Simulate a crash between reservation and case creation.
	app.DB.MustExec(`UPDATE ambulances SET status = 'assigned', assigned_case_id = NULL WHERE id = 'amb-1'`)

	w := doRequest(app, http.MethodPost, "/admin/reconcile", nil, adminToken(t, app))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := parseJSON(t, w)
	if resp["released"].(float64) != 1 {
		t.Fatalf("expected 1 released, got %v", resp["released"])
	}

	mw := doRequest(app, http.MethodGet, "/ambulance/me", nil, ambulanceToken(t, app, "amb-1"))
	unit := parseJSON(t, mw)["ambulance"].(map[string]any)
	if unit["status"] != "available" {
		t.Fatalf("expected available, got %s", unit["status"])
	}
}

func TestAdmin_BloodForecast_FallbackDistribution(t *testing.T) {
	app := setupTestApp(t)

	body := map[string]any{
		"accidents_per_month": 120,
		"festivals":           []string{"harvest"},
		"weather":             "monsoon",
		"population":          8000000,
	}
	w := doRequest(app, http.MethodPost, "/admin/blood/forecast", body, adminToken(t, app))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	resp := parseJSON(t, w)
	demand := resp["demand"].(map[string]any)
	sum := 0.0
	for _, v := range demand {
		sum += v.(float64)
	}
	if sum != 100 {
		t.Fatalf("expected demand split summing to 100, got %f", sum)
	}
}

func TestAdmin_BloodCompatibility(t *testing.T) {
	app := setupTestApp(t)
	token := adminToken(t, app)

	w := doRequest(app, http.MethodGet, "/admin/blood/compatibility?donor=O-&recipient=AB%2B", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if parseJSON(t, w)["compatible"] != true {
		t.Fatal("expected O- compatible with AB+")
	}

	w = doRequest(app, http.MethodGet, "/admin/blood/compatibility?donor=AB%2B&recipient=O-", nil, token)
	if parseJSON(t, w)["compatible"] != false {
		t.Fatal("expected AB+ incompatible with O-")
	}

	w = doRequest(app, http.MethodGet, "/admin/blood/compatibility?donor=X&recipient=O-", nil, token)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown type, got %d", w.Code)
	}
}
