package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"spacloud/internal/gizwits"
	"spacloud/internal/models"
	"spacloud/internal/service"
)

func TestDeviceHandlers_ListAndStatus(t *testing.T) {
	auth := &mockAuth{parseID: 7}
	spaStatus := &models.SpaStatus{
		UpdatedAt: 1700000100,
		Power:     true,
		TempNow:   37.5,
		TempSet:   38,
		TempUnit:  models.UnitCelsius,
		Heat:      true,
	}
	mon := &mockMonitoring{
		devices: []models.Device{
			{ID: "dev-1", Alias: "Garden spa", Product: models.ProductSpa, Type: models.DeviceTypeSpa, Online: true},
			{ID: "dev-2", Alias: "Pool", Product: models.ProductPoolFilter, Type: models.DeviceTypePoolFilter, Online: false},
		},
		device: models.Device{ID: "dev-1", Alias: "Garden spa", Type: models.DeviceTypeSpa},
		status: spaStatus,
	}
	s := &service.Service{
		Authorization: auth,
		Monitoring:    mon,
	}
	r := newTestRouter(s)

	// List requires auth → 401 without header
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/devices", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without auth, got %d", w.Code)
	}

	// With auth → 200 and device list
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/v1/devices", nil)
	for k, vv := range authHeader("valid") {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("list status=%d, body=%s", w.Code, w.Body.String())
	}
	var listResp struct {
		Count   int             `json:"count"`
		Devices []models.Device `json:"devices"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &listResp); err != nil {
		t.Fatalf("unmarshal list: %v", err)
	}
	if listResp.Count != 2 || len(listResp.Devices) != 2 {
		t.Fatalf("unexpected list response: %+v", listResp)
	}
	if listResp.Devices[0].ID != "dev-1" || listResp.Devices[0].Type != models.DeviceTypeSpa {
		t.Fatalf("unexpected first device: %+v", listResp.Devices[0])
	}

	// GET status → 200 with binding info and cached status
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/v1/devices/dev-1/status", nil)
	for k, vv := range authHeader("valid") {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status status=%d, body=%s", w.Code, w.Body.String())
	}
	var statusResp struct {
		DeviceID string           `json:"device_id"`
		Status   models.SpaStatus `json:"status"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &statusResp); err != nil {
		t.Fatalf("unmarshal status: %v", err)
	}
	if statusResp.DeviceID != "dev-1" {
		t.Fatalf("unexpected device id: %q", statusResp.DeviceID)
	}
	if !statusResp.Status.Power || statusResp.Status.TempNow != 37.5 || statusResp.Status.TempUnit != models.UnitCelsius {
		t.Fatalf("unexpected status payload: %+v", statusResp.Status)
	}
	if mon.lastDeviceID != "dev-1" {
		t.Fatalf("expected lookup for dev-1, got %q", mon.lastDeviceID)
	}
}

func TestDeviceHandlers_StatusNotFoundAndPending(t *testing.T) {
	auth := &mockAuth{parseID: 7}

	// Unknown device → 404
	mon := &mockMonitoring{deviceErr: service.ErrDeviceNotFound}
	r := newTestRouter(&service.Service{Authorization: auth, Monitoring: mon})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/devices/nope/status", nil)
	for k, vv := range authHeader("valid") {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown device, got %d", w.Code)
	}

	// Bound but not yet polled → 200 with null status
	mon = &mockMonitoring{device: models.Device{ID: "dev-9", Type: models.DeviceTypeSpa}}
	r = newTestRouter(&service.Service{Authorization: auth, Monitoring: mon})

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/v1/devices/dev-9/status", nil)
	for k, vv := range authHeader("valid") {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("pending status=%d, body=%s", w.Code, w.Body.String())
	}
	var resp map[string]json.RawMessage
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal pending: %v", err)
	}
	if string(resp["status"]) != "null" {
		t.Fatalf("expected null status, got %s", resp["status"])
	}
}

func TestSpaCommandHandlers(t *testing.T) {
	auth := &mockAuth{parseID: 7}
	spa := &mockSpaControl{}
	mon := &mockMonitoring{
		device: models.Device{ID: "dev-1", Type: models.DeviceTypeSpa},
		status: &models.SpaStatus{UpdatedAt: 1700000100, Power: true, Heat: true},
	}
	s := &service.Service{
		Authorization: auth,
		Monitoring:    mon,
		SpaControl:    spa,
	}
	r := newTestRouter(s)

	// POST heat on → 200, dispatches to SetHeat and echoes refreshed state
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/devices/dev-1/spa/heat", bytes.NewBufferString(`{"on":true}`))
	req.Header.Set("Content-Type", "application/json")
	for k, vv := range authHeader("valid") {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("heat status=%d, body=%s", w.Code, w.Body.String())
	}
	if spa.calls != 1 || spa.lastCommand != "heat" || spa.lastDeviceID != "dev-1" || !spa.lastOn {
		t.Fatalf("unexpected spa call: %+v", spa)
	}
	var resp struct {
		Status  string           `json:"status"`
		Command string           `json:"command"`
		State   models.SpaStatus `json:"state"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Status != statusCommandSent || resp.Command != "heat" {
		t.Fatalf("bad command response: %+v", resp)
	}
	if !resp.State.Heat {
		t.Fatalf("state missing/invalid in response: %+v", resp.State)
	}

	// Explicit false must bind, not fail "required"
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/devices/dev-1/spa/power", bytes.NewBufferString(`{"on":false}`))
	req.Header.Set("Content-Type", "application/json")
	for k, vv := range authHeader("valid") {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("power off status=%d, body=%s", w.Code, w.Body.String())
	}
	if spa.lastCommand != "power" || spa.lastOn {
		t.Fatalf("unexpected spa call: %+v", spa)
	}

	// Missing body field → 400 before any service call
	before := spa.calls
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/devices/dev-1/spa/bubbles", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	for k, vv := range authHeader("valid") {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty body, got %d", w.Code)
	}
	if spa.calls != before {
		t.Fatalf("service called despite invalid body")
	}

	// Lock and temperature use their own payloads
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/devices/dev-1/spa/lock", bytes.NewBufferString(`{"locked":true}`))
	req.Header.Set("Content-Type", "application/json")
	for k, vv := range authHeader("valid") {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("lock status=%d, body=%s", w.Code, w.Body.String())
	}
	if spa.lastCommand != "lock" || !spa.lastOn {
		t.Fatalf("unexpected lock call: %+v", spa)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/devices/dev-1/spa/temperature", bytes.NewBufferString(`{"temperature":39}`))
	req.Header.Set("Content-Type", "application/json")
	for k, vv := range authHeader("valid") {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("temperature status=%d, body=%s", w.Code, w.Body.String())
	}
	if spa.lastCommand != "temperature" || spa.lastTemp != 39 {
		t.Fatalf("unexpected temperature call: %+v", spa)
	}
}

func TestSpaCommandHandlers_ErrorMapping(t *testing.T) {
	auth := &mockAuth{parseID: 7}
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{name: "unknown device", err: service.ErrDeviceNotFound, wantCode: http.StatusNotFound},
		{name: "wrong device type", err: service.ErrWrongDeviceType, wantCode: http.StatusBadRequest},
		{name: "invalid temperature", err: service.ErrInvalidTemperature, wantCode: http.StatusBadRequest},
		{name: "device offline upstream", err: gizwits.ErrDeviceOffline, wantCode: http.StatusServiceUnavailable},
		{name: "undifferentiated cloud failure", err: errors.New("connection reset"), wantCode: http.StatusBadGateway},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			spa := &mockSpaControl{err: tt.err}
			r := newTestRouter(&service.Service{Authorization: auth, SpaControl: spa, Monitoring: &mockMonitoring{}})

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/v1/devices/dev-1/spa/power", bytes.NewBufferString(`{"on":true}`))
			req.Header.Set("Content-Type", "application/json")
			for k, vv := range authHeader("valid") {
				for _, v := range vv {
					req.Header.Add(k, v)
				}
			}
			r.ServeHTTP(w, req)
			if w.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d (body=%s)", tt.wantCode, w.Code, w.Body.String())
			}
		})
	}
}

func TestPoolFilterCommandHandlers(t *testing.T) {
	auth := &mockAuth{parseID: 7}
	pool := &mockPoolFilterControl{}
	mon := &mockMonitoring{
		device: models.Device{ID: "dev-2", Type: models.DeviceTypePoolFilter},
		status: &models.PoolFilterStatus{UpdatedAt: 1700000100, Power: true, Running: true, RunHours: 8},
	}
	s := &service.Service{
		Authorization:     auth,
		Monitoring:        mon,
		PoolFilterControl: pool,
	}
	r := newTestRouter(s)

	// POST power on
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/devices/dev-2/pool-filter/power", bytes.NewBufferString(`{"on":true}`))
	req.Header.Set("Content-Type", "application/json")
	for k, vv := range authHeader("valid") {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("power status=%d, body=%s", w.Code, w.Body.String())
	}
	if pool.calls != 1 || pool.lastCommand != "power" || pool.lastDeviceID != "dev-2" || !pool.lastOn {
		t.Fatalf("unexpected pool call: %+v", pool)
	}

	// POST timer
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/devices/dev-2/pool-filter/timer", bytes.NewBufferString(`{"hours":6}`))
	req.Header.Set("Content-Type", "application/json")
	for k, vv := range authHeader("valid") {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("timer status=%d, body=%s", w.Code, w.Body.String())
	}
	if pool.lastCommand != "timer" || pool.lastHours != 6 {
		t.Fatalf("unexpected timer call: %+v", pool)
	}
	var resp struct {
		Status string                  `json:"status"`
		State  models.PoolFilterStatus `json:"state"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Status != statusCommandSent || resp.State.RunHours != 8 {
		t.Fatalf("bad timer response: %+v", resp)
	}

	// Invalid hours from the service → 400
	pool.err = service.ErrInvalidTimerHours
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/devices/dev-2/pool-filter/timer", bytes.NewBufferString(`{"hours":-1}`))
	req.Header.Set("Content-Type", "application/json")
	for k, vv := range authHeader("valid") {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid hours, got %d", w.Code)
	}
}
