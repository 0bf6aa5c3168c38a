package integration

import (
	"net/http"
	"testing"
)

func TestAuth_GenerateToken(t *testing.T) {
	app := setupTestApp(t)

	w := doFormRequest(app, http.MethodPost, "/auth/token", map[string]string{
		"name": "patient-1",
		"role": "patient",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	resp := parseJSON(t, w)
	if resp["token"] == nil || resp["token"] == "" {
		t.Fatal("expected token in response")
	}
}

func TestAuth_GenerateToken_MissingFields(t *testing.T) {
	app := setupTestApp(t)

	w := doFormRequest(app, http.MethodPost, "/auth/token", map[string]string{"name": "patient-1"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestAuth_GenerateToken_UnknownRole(t *testing.T) {
	app := setupTestApp(t)

	w := doFormRequest(app, http.MethodPost, "/auth/token", map[string]string{
		"name": "x",
		"role": "superuser",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestAuth_MissingToken_Unauthorized(t *testing.T) {
	app := setupTestApp(t)

	w := doRequest(app, http.MethodGet, "/sos", nil, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d: %s", w.Code, w.Body.String())
	}
}

func TestAuth_WrongRole_Forbidden(t *testing.T) {
	app := setupTestApp(t)

	// A patient token cannot reach ambulance routes.
	w := doRequest(app, http.MethodGet, "/ambulance/me", nil, patientToken(t, app, "patient-1"))
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", w.Code, w.Body.String())
	}
}
