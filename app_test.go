package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/hidenkeys/studios/config"
	"github.com/hidenkeys/studios/studio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestApp(t *testing.T) (*fiber.App, *application) {
	t.Helper()
	cfg := config.Config{
		SQLitePath:    "file:app_test?mode=memory&cache=shared",
		JWTSecret:     "test-secret",
		AdminEmail:    "admin@studios.local",
		AdminPassword: "correct horse",
		CORSOrigins:   "http://127.0.0.1:5173",
	}
	a, err := setup(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(a.close)
	require.NoError(t, a.withGuard())

	u := studio.Unit{Name: "Sea View", PricePerNight: 100, LowSeasonDiscount: 20, HighSeasonMarkup: 30, Capacity: 4}
	require.NoError(t, a.units.Create(context.Background(), &u))
	return a.fiberApp(), a
}

func call(t *testing.T, app *fiber.App, method, target, token string, body any) *http.Response {
	t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, rd)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestRoutes_PublicAndAdmin(t *testing.T) {
	app, _ := setupTestApp(t)

	resp := call(t, app, http.MethodGet, "/api/v1/studios", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = call(t, app, http.MethodGet, "/api/v1/studios/search", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = call(t, app, http.MethodGet, "/api/v1/admin/reservations", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = call(t, app, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": "admin@studios.local",
		"password": "correct horse",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&login))

	resp = call(t, app, http.MethodGet, "/api/v1/admin/reservations", login.Token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = call(t, app, http.MethodPatch, "/api/v1/admin/studios/1", login.Token, map[string]any{"capacity": 5})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = call(t, app, http.MethodGet, "/api/v1/admin/reservations/export", login.Token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
