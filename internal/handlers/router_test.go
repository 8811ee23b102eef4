package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xelth-com/facilitymap/internal/layout"
	"github.com/xelth-com/facilitymap/internal/store"
	"github.com/xelth-com/facilitymap/internal/websocket"
	"go.uber.org/zap"
)

const (
	testSecret  = "test-secret"
	testBaseURL = "https://facility.example.com"
)

type testAPI struct {
	t     *testing.T
	srv   *httptest.Server
	admin string
	user  string
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	st := store.NewMemoryStore()
	hub := websocket.NewHub(nil)
	go hub.Run(ctx)

	svc := layout.NewService(st, nil, layout.WithNotifier(hub))
	require.NoError(t, EnsureAdmin(ctx, st, "Admin@Example.com", "admin-password", zap.NewNop()))

	r := NewRouter(Deps{Service: svc, Store: st, Hub: hub, JWTSecret: testSecret, PublicBaseURL: testBaseURL})
	srv := httptest.NewServer(r.Handler())
	t.Cleanup(srv.Close)

	api := &testAPI{t: t, srv: srv}
	api.admin = api.login("admin@example.com", "admin-password")

	status, body := api.do(http.MethodPost, "/auth/register", "", map[string]any{
		"email": "viewer@example.com", "password": "viewer-password",
	})
	require.Equal(t, http.StatusCreated, status, body)
	api.user = body["data"].(map[string]any)["tokens"].(map[string]any)["accessToken"].(string)
	return api
}

func (a *testAPI) login(email, password string) string {
	status, body := a.do(http.MethodPost, "/auth/login", "", map[string]any{"email": email, "password": password})
	require.Equal(a.t, http.StatusOK, status, body)
	data := body["data"].(map[string]any)
	assert.Equal(a.t, "admin", data["user"].(map[string]any)["role"])
	return data["tokens"].(map[string]any)["accessToken"].(string)
}

// do sends a JSON request and decodes the JSON response, if any
func (a *testAPI) do(method, path, token string, payload any) (int, map[string]any) {
	a.t.Helper()
	var body io.Reader
	switch p := payload.(type) {
	case nil:
	case string:
		body = strings.NewReader(p)
	default:
		raw, err := json.Marshal(p)
		require.NoError(a.t, err)
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, a.srv.URL+path, body)
	require.NoError(a.t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := noRedirect.Do(req)
	require.NoError(a.t, err)
	defer resp.Body.Close()

	out := map[string]any{}
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(a.t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp.StatusCode, out
}

// create posts payload and returns the new resource's id
func (a *testAPI) create(path string, payload any) string {
	a.t.Helper()
	status, body := a.do(http.MethodPost, path, a.admin, payload)
	require.Equal(a.t, http.StatusCreated, status, body)
	return body["data"].(map[string]any)["id"].(string)
}

var noRedirect = &http.Client{
	CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
}

func errorOf(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	e, ok := body["error"].(map[string]any)
	require.True(t, ok, "expected error envelope, got %v", body)
	return e
}

// facility creates substation > floor > plan > rack and returns the plan and rack ids
func (a *testAPI) facility() (planID, rackID string) {
	a.t.Helper()
	subID := a.create("/api/substations", map[string]any{"name": "North", "code": "SUB-N"})
	floorID := a.create("/api/substations/"+subID+"/floors", map[string]any{"name": "Ground"})
	planID = a.create("/api/floors/"+floorID+"/floorplan", map[string]any{"name": "Ground plan"})

	status, body := a.do(http.MethodPut, "/api/floorplans/"+planID+"/bulk", a.admin, map[string]any{
		"racks": []map[string]any{{"id": "temp-1", "name": "R1", "totalU": 42}},
	})
	require.Equal(a.t, http.StatusOK, status, body)
	racks := body["data"].(map[string]any)["racks"].([]any)
	require.Len(a.t, racks, 1)
	return planID, racks[0].(map[string]any)["id"].(string)
}

func TestHealthAndStatus(t *testing.T) {
	api := newTestAPI(t)
	status, body := api.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])

	status, body = api.do(http.MethodGet, "/api/status", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "running", body["data"].(map[string]any)["status"])
}

func TestAuthGates(t *testing.T) {
	api := newTestAPI(t)

	status, body := api.do(http.MethodGet, "/api/substations", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", errorOf(t, body)["code"])

	status, _ = api.do(http.MethodGet, "/api/substations", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	// readers may list but not write
	status, body = api.do(http.MethodGet, "/api/substations", api.user, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Empty(t, body["data"])

	status, body = api.do(http.MethodPost, "/api/substations", api.user, map[string]any{"name": "N", "code": "N"})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", errorOf(t, body)["code"])

	status, _ = api.do(http.MethodPost, "/auth/login", "", map[string]any{"email": "admin@example.com", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = api.do(http.MethodPost, "/auth/register", "", map[string]any{"email": "viewer@example.com", "password": "another-password"})
	assert.Equal(t, http.StatusConflict, status)

	status, _ = api.do(http.MethodPost, "/auth/register", "", map[string]any{"email": "short@example.com", "password": "short"})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestRefreshTokens(t *testing.T) {
	api := newTestAPI(t)

	status, body := api.do(http.MethodPost, "/auth/login", "", map[string]any{"email": "admin@example.com", "password": "admin-password"})
	require.Equal(t, http.StatusOK, status, body)
	tokens := body["data"].(map[string]any)["tokens"].(map[string]any)

	status, body = api.do(http.MethodPost, "/auth/refresh", "", map[string]any{"refreshToken": tokens["refreshToken"]})
	require.Equal(t, http.StatusOK, status, body)
	fresh := body["data"].(map[string]any)["tokens"].(map[string]any)["accessToken"].(string)

	status, _ = api.do(http.MethodPost, "/api/substations", fresh, map[string]any{"name": "East", "code": "SUB-E"})
	assert.Equal(t, http.StatusCreated, status)

	status, body = api.do(http.MethodPost, "/auth/refresh", "", map[string]any{"refreshToken": tokens["accessToken"]})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", errorOf(t, body)["code"])
}

func TestBulkUpdateOverHTTP(t *testing.T) {
	api := newTestAPI(t)
	planID, rackID := api.facility()

	status, body := api.do(http.MethodPut, "/api/floorplans/"+planID+"/bulk", api.admin, map[string]any{
		"canvasWidth": 1600,
		"racks":       []map[string]any{{"id": rackID, "rotation": 45}},
	})
	assert.Equal(t, http.StatusBadRequest, status)
	e := errorOf(t, body)
	assert.Equal(t, "VALIDATION_ERROR", e["code"])
	assert.Equal(t, "racks[0].rotation", e["details"].(map[string]any)["field"])

	status, body = api.do(http.MethodPut, "/api/floorplans/"+planID+"/bulk", api.admin, `{"canvasWidth": "wide"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_ERROR", errorOf(t, body)["code"])

	status, body = api.do(http.MethodPut, "/api/floorplans/"+planID+"/bulk", api.admin, map[string]any{
		"canvasWidth":    1600,
		"elements":       []map[string]any{{"elementType": "wall", "properties": map[string]any{"x1": 0, "x2": 100}}},
		"deletedRackIds": []string{rackID, "00000000-0000-4000-8000-000000000000"},
	})
	require.Equal(t, http.StatusOK, status, body)
	data := body["data"].(map[string]any)
	assert.EqualValues(t, 1600, data["canvasWidth"])
	assert.Len(t, data["elements"], 1)
	assert.Empty(t, data["racks"])

	status, _ = api.do(http.MethodPut, "/api/floorplans/"+planID+"/bulk", api.user, map[string]any{})
	assert.Equal(t, http.StatusForbidden, status)
}

func TestEquipmentOverHTTP(t *testing.T) {
	api := newTestAPI(t)
	_, rackID := api.facility()

	eqID := api.create("/api/racks/"+rackID+"/equipment", map[string]any{"name": "relay", "startU": 1, "heightU": 4})

	status, body := api.do(http.MethodPost, "/api/racks/"+rackID+"/equipment", api.admin, map[string]any{
		"name": "overlap", "startU": 3, "heightU": 2,
	})
	assert.Equal(t, http.StatusConflict, status)
	e := errorOf(t, body)
	assert.Equal(t, "CONFLICT", e["code"])
	assert.Equal(t, eqID, e["details"].(map[string]any)["occupantId"])

	status, body = api.do(http.MethodPatch, "/api/equipment/"+eqID+"/move", api.admin, map[string]any{"startU": 1})
	assert.Equal(t, http.StatusOK, status, body)

	status, body = api.do(http.MethodPatch, "/api/equipment/"+eqID+"/move", api.admin, map[string]any{"startU": 40})
	assert.Equal(t, http.StatusConflict, status, body)

	api.create("/api/equipment/"+eqID+"/ports", map[string]any{"name": "eth0", "portType": "LAN"})
	status, body = api.do(http.MethodGet, "/api/equipment/"+eqID+"/ports", api.user, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Len(t, body["data"], 1)

	status, body = api.do(http.MethodGet, "/api/equipment/00000000-0000-4000-8000-000000000000", api.user, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", errorOf(t, body)["code"])

	status, _ = api.do(http.MethodDelete, "/api/equipment/"+eqID, api.admin, nil)
	assert.Equal(t, http.StatusNoContent, status)
}

func TestPrintablesAndLabels(t *testing.T) {
	api := newTestAPI(t)
	planID, rackID := api.facility()
	eqID := api.create("/api/racks/"+rackID+"/equipment", map[string]any{"name": "relay", "startU": 1, "heightU": 2})

	for _, path := range []string{
		"/api/racks/" + rackID + "/elevation.pdf",
		"/api/racks/" + rackID + "/labels.pdf",
		"/api/equipment/" + eqID + "/label.pdf",
	} {
		req, _ := http.NewRequest(http.MethodGet, api.srv.URL+path, nil)
		req.Header.Set("Authorization", "Bearer "+api.user)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		raw, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"), path)
		assert.True(t, bytes.HasPrefix(raw, []byte("%PDF-")), path)
	}

	req, _ := http.NewRequest(http.MethodGet, api.srv.URL+"/api/floorplans/"+planID+"/inventory.xlsx", nil)
	req.Header.Set("Authorization", "Bearer "+api.user)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// scanned labels carry upper-case URLs
	status, _ := api.do(http.MethodGet, "/E/"+strings.ToUpper(eqID), "", nil)
	require.Equal(t, http.StatusFound, status)
	resp, err = noRedirect.Get(api.srv.URL + "/E/" + strings.ToUpper(eqID))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, testBaseURL+"/equipment/"+eqID, resp.Header.Get("Location"))

	status, _ = api.do(http.MethodGet, "/e/not-a-uuid", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestChangeFeed(t *testing.T) {
	api := newTestAPI(t)
	planID, _ := api.facility()

	url := "ws" + strings.TrimPrefix(api.srv.URL, "http") + "/ws/floorplans/" + planID + "?token=" + api.user
	conn, _, err := gws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	// registration is asynchronous; keep changing the plan until the event arrives
	events := make(chan layout.ChangeEvent, 1)
	go func() {
		var ev layout.ChangeEvent
		if err := conn.ReadJSON(&ev); err == nil {
			events <- ev
		}
	}()

	deadline := time.After(2 * time.Second)
	for width := 1300; ; width++ {
		status, body := api.do(http.MethodPut, "/api/floorplans/"+planID+"/bulk", api.admin, map[string]any{"canvasWidth": width})
		require.Equal(t, http.StatusOK, status, body)
		select {
		case ev := <-events:
			assert.Equal(t, layout.ChangeUpdated, ev.Kind)
			assert.Equal(t, planID, ev.FloorPlanID)
			return
		case <-time.After(20 * time.Millisecond):
		case <-deadline:
			t.Fatal("no change event received")
		}
	}
}

func TestChangeFeedDisabled(t *testing.T) {
	st := store.NewMemoryStore()
	svc := layout.NewService(st, nil)
	r := NewRouter(Deps{Service: svc, Store: st, JWTSecret: testSecret})
	srv := httptest.NewServer(r.Handler())
	defer srv.Close()

	api := &testAPI{t: t, srv: srv}
	status, body := api.do(http.MethodPost, "/auth/register", "", map[string]any{
		"email": "viewer@example.com", "password": "viewer-password",
	})
	require.Equal(t, http.StatusCreated, status, body)
	token := body["data"].(map[string]any)["tokens"].(map[string]any)["accessToken"].(string)

	status, body = api.do(http.MethodGet, "/ws/floorplans/00000000-0000-4000-8000-000000000000", token, nil)
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "UNAVAILABLE", errorOf(t, body)["code"])
}
