package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"spacloud/internal/models"
	"spacloud/internal/service"
)

// ---- Service Mocks ----

type mockAuth struct {
	signUpID      int
	signUpErr     error
	genTokenToken string
	genTokenErr   error
	parseID       int
	parseErr      error

	lastSignUpUsername string
	lastSignUpPassword string
	lastGenUsername    string
	lastGenPassword    string
	lastParseToken     string
}

func (m *mockAuth) SignUp(username, password string) (int, error) {
	m.lastSignUpUsername = username
	m.lastSignUpPassword = password
	return m.signUpID, m.signUpErr
}
func (m *mockAuth) GenerateToken(username, password string) (string, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (int, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

type mockMonitoring struct {
	devices   []models.Device
	device    models.Device
	deviceErr error
	status    models.DeviceStatus
	statusErr error

	lastDeviceID string
}

func (m *mockMonitoring) ListDevices(ctx context.Context) []models.Device {
	return m.devices
}
func (m *mockMonitoring) GetDevice(ctx context.Context, deviceID string) (models.Device, error) {
	m.lastDeviceID = deviceID
	return m.device, m.deviceErr
}
func (m *mockMonitoring) DeviceStatus(ctx context.Context, deviceID string) (models.DeviceStatus, error) {
	m.lastDeviceID = deviceID
	return m.status, m.statusErr
}
func (m *mockMonitoring) Snapshot() ([]models.Device, map[string]models.DeviceStatus) {
	return m.devices, nil
}

type mockSpaControl struct {
	err error

	lastCommand  string
	lastDeviceID string
	lastOn       bool
	lastTemp     int
	calls        int
}

func (m *mockSpaControl) set(command, deviceID string, on bool) error {
	m.calls++
	m.lastCommand = command
	m.lastDeviceID = deviceID
	m.lastOn = on
	return m.err
}
func (m *mockSpaControl) SetPower(ctx context.Context, deviceID string, on bool) error {
	return m.set("power", deviceID, on)
}
func (m *mockSpaControl) SetHeat(ctx context.Context, deviceID string, on bool) error {
	return m.set("heat", deviceID, on)
}
func (m *mockSpaControl) SetFilter(ctx context.Context, deviceID string, on bool) error {
	return m.set("filter", deviceID, on)
}
func (m *mockSpaControl) SetBubbles(ctx context.Context, deviceID string, on bool) error {
	return m.set("bubbles", deviceID, on)
}
func (m *mockSpaControl) SetLocked(ctx context.Context, deviceID string, locked bool) error {
	return m.set("lock", deviceID, locked)
}
func (m *mockSpaControl) SetTargetTemp(ctx context.Context, deviceID string, temperature int) error {
	m.calls++
	m.lastCommand = "temperature"
	m.lastDeviceID = deviceID
	m.lastTemp = temperature
	return m.err
}

type mockPoolFilterControl struct {
	err error

	lastCommand  string
	lastDeviceID string
	lastOn       bool
	lastHours    int
	calls        int
}

func (m *mockPoolFilterControl) SetPower(ctx context.Context, deviceID string, on bool) error {
	m.calls++
	m.lastCommand = "power"
	m.lastDeviceID = deviceID
	m.lastOn = on
	return m.err
}
func (m *mockPoolFilterControl) SetTimer(ctx context.Context, deviceID string, hours int) error {
	m.calls++
	m.lastCommand = "timer"
	m.lastDeviceID = deviceID
	m.lastHours = hours
	return m.err
}

type mockEventLog struct {
	resp       []models.DeviceEvent
	err        error
	lastFilter service.LogFilter
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]models.DeviceEvent, error) {
	m.lastFilter = f
	return m.resp, m.err
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}
