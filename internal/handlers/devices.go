package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"spacloud/internal/gizwits"
	"spacloud/internal/models"
	"spacloud/internal/service"
)

// Common response/status constants to avoid magic strings and typos.
const (
	statusOK          = "ok"
	statusCommandSent = "command_sent"

	errInvalidBodyPref = "invalid body: "
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// commandErrorStatus maps command failures to HTTP codes: unknown devices are
// 404, usage errors 400, an offline device 503 and everything else reaching
// the cloud 502.
func commandErrorStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrDeviceNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrWrongDeviceType),
		errors.Is(err, service.ErrInvalidTemperature),
		errors.Is(err, service.ErrInvalidTimerHours):
		return http.StatusBadRequest
	case errors.Is(err, gizwits.ErrDeviceOffline):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

// Respond with a status and include the refreshed cached device status if
// available (best-effort).
func (h *Handler) respondWithCommandResult(c *gin.Context, deviceID, command string) {
	ctx := c.Request.Context()
	resp := gin.H{"status": statusCommandSent, "device_id": deviceID, "command": command}
	if st, err := h.services.Monitoring.DeviceStatus(ctx, deviceID); err == nil && st != nil {
		resp["state"] = st
	}
	c.JSON(http.StatusOK, resp)
}

// deviceView joins binding info with the cached status for responses. Status
// is null for a bound device that has not produced an accepted snapshot yet.
type deviceView struct {
	models.Device
	Status models.DeviceStatus `json:"status"`
}

// Request DTOs. Pointers distinguish a missing field from an explicit zero
// value, which "required" would otherwise reject.
type switchRequest struct {
	On *bool `json:"on" binding:"required"`
}

type lockRequest struct {
	Locked *bool `json:"locked" binding:"required"`
}

type temperatureRequest struct {
	Temperature *int `json:"temperature" binding:"required"`
}

type timerRequest struct {
	Hours *int `json:"hours" binding:"required"`
}

// SwitchRequest is an exported model for Swagger docs of on/off payloads.
type SwitchRequest struct {
	// Desired switch position
	On bool `json:"on" example:"true"`
}

// LockRequest is an exported model for Swagger docs of the lock payload.
type LockRequest struct {
	// Desired control panel lock position
	Locked bool `json:"locked" example:"true"`
}

// TemperatureRequest is an exported model for Swagger docs of the target temperature payload.
type TemperatureRequest struct {
	// Target water temperature in the unit the device reports
	Temperature int `json:"temperature" example:"38"`
}

// TimerRequest is an exported model for Swagger docs of the filter timer payload.
type TimerRequest struct {
	// Filter run time in hours
	Hours int `json:"hours" example:"8"`
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

// @Summary      List devices
// @Description  Devices bound to the cloud account as of the last bindings refresh
// @Tags         devices
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "count, devices"
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/devices [get]
// @Security     BearerAuth
func (h *Handler) listDevices(c *gin.Context) {
	ctx := c.Request.Context()
	devices := h.services.Monitoring.ListDevices(ctx)
	c.JSON(http.StatusOK, gin.H{
		"count":   len(devices),
		"devices": devices,
	})
}

// @Summary      Get device status
// @Description  Binding info plus the cached status; status is null until the first accepted poll
// @Tags         devices
// @Produce      json
// @Param        did  path  string  true  "Device ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/devices/{did}/status [get]
// @Security     BearerAuth
func (h *Handler) getDeviceStatus(c *gin.Context) {
	ctx := c.Request.Context()
	deviceID := c.Param("did")

	device, err := h.services.Monitoring.GetDevice(ctx, deviceID)
	if err != nil {
		h.logAndJSONError(c, http.StatusNotFound, err.Error(), "device_lookup_failed", err, "device_id", deviceID)
		return
	}
	status, err := h.services.Monitoring.DeviceStatus(ctx, deviceID)
	if err != nil {
		h.logAndJSONError(c, http.StatusNotFound, err.Error(), "device_status_failed", err, "device_id", deviceID)
		return
	}
	c.JSON(http.StatusOK, deviceView{Device: device, Status: status})
}

// spaSwitchCommand binds the shared on/off body and dispatches to the given
// spa switch operation.
func (h *Handler) spaSwitchCommand(c *gin.Context, command string, op func(ctx context.Context, deviceID string, on bool) error) {
	var req switchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	deviceID := c.Param("did")
	if err := op(c.Request.Context(), deviceID, *req.On); err != nil {
		h.logAndJSONError(c, commandErrorStatus(err), err.Error(), "spa_command_failed", err,
			"device_id", deviceID, "command", command)
		return
	}
	h.respondWithCommandResult(c, deviceID, command)
}

// @Summary      Switch spa power
// @Tags         spa
// @Accept       json
// @Produce      json
// @Param        did   path  string         true  "Device ID"
// @Param        body  body  SwitchRequest  true  "Switch payload"
// @Success      200   {object}  map[string]interface{}  "status, state"
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      502   {object}  map[string]string
// @Router       /api/v1/devices/{did}/spa/power [post]
// @Security     BearerAuth
func (h *Handler) spaSetPower(c *gin.Context) {
	h.spaSwitchCommand(c, "power", h.services.SpaControl.SetPower)
}

// @Summary      Switch spa heater
// @Description  Turning the heater on also powers the pump and starts the filter
// @Tags         spa
// @Accept       json
// @Produce      json
// @Param        did   path  string         true  "Device ID"
// @Param        body  body  SwitchRequest  true  "Switch payload"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      502   {object}  map[string]string
// @Router       /api/v1/devices/{did}/spa/heat [post]
// @Security     BearerAuth
func (h *Handler) spaSetHeat(c *gin.Context) {
	h.spaSwitchCommand(c, "heat", h.services.SpaControl.SetHeat)
}

// @Summary      Switch spa filter pump
// @Description  Stopping the filter also stops the heater and bubbles
// @Tags         spa
// @Accept       json
// @Produce      json
// @Param        did   path  string         true  "Device ID"
// @Param        body  body  SwitchRequest  true  "Switch payload"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      502   {object}  map[string]string
// @Router       /api/v1/devices/{did}/spa/filter [post]
// @Security     BearerAuth
func (h *Handler) spaSetFilter(c *gin.Context) {
	h.spaSwitchCommand(c, "filter", h.services.SpaControl.SetFilter)
}

// @Summary      Switch spa bubbles
// @Tags         spa
// @Accept       json
// @Produce      json
// @Param        did   path  string         true  "Device ID"
// @Param        body  body  SwitchRequest  true  "Switch payload"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      502   {object}  map[string]string
// @Router       /api/v1/devices/{did}/spa/bubbles [post]
// @Security     BearerAuth
func (h *Handler) spaSetBubbles(c *gin.Context) {
	h.spaSwitchCommand(c, "bubbles", h.services.SpaControl.SetBubbles)
}

// @Summary      Lock or unlock the spa control panel
// @Tags         spa
// @Accept       json
// @Produce      json
// @Param        did   path  string       true  "Device ID"
// @Param        body  body  LockRequest  true  "Lock payload"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      502   {object}  map[string]string
// @Router       /api/v1/devices/{did}/spa/lock [post]
// @Security     BearerAuth
func (h *Handler) spaSetLock(c *gin.Context) {
	var req lockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	deviceID := c.Param("did")
	if err := h.services.SpaControl.SetLocked(c.Request.Context(), deviceID, *req.Locked); err != nil {
		h.logAndJSONError(c, commandErrorStatus(err), err.Error(), "spa_command_failed", err,
			"device_id", deviceID, "command", "lock")
		return
	}
	h.respondWithCommandResult(c, deviceID, "lock")
}

// @Summary      Set spa target temperature
// @Tags         spa
// @Accept       json
// @Produce      json
// @Param        did   path  string              true  "Device ID"
// @Param        body  body  TemperatureRequest  true  "Temperature payload"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      502   {object}  map[string]string
// @Router       /api/v1/devices/{did}/spa/temperature [post]
// @Security     BearerAuth
func (h *Handler) spaSetTemperature(c *gin.Context) {
	var req temperatureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	deviceID := c.Param("did")
	if err := h.services.SpaControl.SetTargetTemp(c.Request.Context(), deviceID, *req.Temperature); err != nil {
		h.logAndJSONError(c, commandErrorStatus(err), err.Error(), "spa_command_failed", err,
			"device_id", deviceID, "command", "temperature")
		return
	}
	h.respondWithCommandResult(c, deviceID, "temperature")
}

// @Summary      Switch pool filter power
// @Tags         pool-filter
// @Accept       json
// @Produce      json
// @Param        did   path  string         true  "Device ID"
// @Param        body  body  SwitchRequest  true  "Switch payload"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      502   {object}  map[string]string
// @Router       /api/v1/devices/{did}/pool-filter/power [post]
// @Security     BearerAuth
func (h *Handler) poolFilterSetPower(c *gin.Context) {
	var req switchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	deviceID := c.Param("did")
	if err := h.services.PoolFilterControl.SetPower(c.Request.Context(), deviceID, *req.On); err != nil {
		h.logAndJSONError(c, commandErrorStatus(err), err.Error(), "pool_filter_command_failed", err,
			"device_id", deviceID, "command", "power")
		return
	}
	h.respondWithCommandResult(c, deviceID, "power")
}

// @Summary      Set pool filter timer
// @Tags         pool-filter
// @Accept       json
// @Produce      json
// @Param        did   path  string        true  "Device ID"
// @Param        body  body  TimerRequest  true  "Timer payload"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      502   {object}  map[string]string
// @Router       /api/v1/devices/{did}/pool-filter/timer [post]
// @Security     BearerAuth
func (h *Handler) poolFilterSetTimer(c *gin.Context) {
	var req timerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	deviceID := c.Param("did")
	if err := h.services.PoolFilterControl.SetTimer(c.Request.Context(), deviceID, *req.Hours); err != nil {
		h.logAndJSONError(c, commandErrorStatus(err), err.Error(), "pool_filter_command_failed", err,
			"device_id", deviceID, "command", "timer")
		return
	}
	h.respondWithCommandResult(c, deviceID, "timer")
}
