package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"spacloud/internal/models"
)

// StatusSource supplies the device and status snapshot the collector scrapes.
// The monitoring service implements it.
type StatusSource interface {
	Snapshot() ([]models.Device, map[string]models.DeviceStatus)
}

// StatusCollector exports per-device gauges from the cached statuses. The
// snapshot is in-memory, so collection never blocks on the cloud.
type StatusCollector struct {
	src StatusSource

	online      *prometheus.GaugeVec
	lastUpdated *prometheus.GaugeVec

	spaPower       *prometheus.GaugeVec
	spaHeat        *prometheus.GaugeVec
	spaHeatReached *prometheus.GaugeVec
	spaFilter      *prometheus.GaugeVec
	spaBubbles     *prometheus.GaugeVec
	spaLocked      *prometheus.GaugeVec
	spaEarth       *prometheus.GaugeVec
	spaTempNow     *prometheus.GaugeVec
	spaTempSet     *prometheus.GaugeVec
	spaErrors      *prometheus.GaugeVec

	poolPower    *prometheus.GaugeVec
	poolRunning  *prometheus.GaugeVec
	poolError    *prometheus.GaugeVec
	poolRunHours *prometheus.GaugeVec
}

func NewStatusCollector(src StatusSource) *StatusCollector {
	device := []string{"device_id"}
	temp := []string{"device_id", "unit"}
	return &StatusCollector{
		src: src,
		online: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "spacloud_device_online_bool",
			Help: "Device online per the last bindings refresh (1=online, 0=offline)",
		}, []string{"device_id", "device_type", "alias"}),
		lastUpdated: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "spacloud_device_last_update_timestamp_seconds",
			Help: "Timestamp of the cached device status (epoch seconds)",
		}, device),
		spaPower: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "spacloud_spa_power_bool",
			Help: "Spa power switch (1=on, 0=off)",
		}, device),
		spaHeat: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "spacloud_spa_heat_bool",
			Help: "Spa heater switch (1=on, 0=off)",
		}, device),
		spaHeatReached: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "spacloud_spa_heat_reached_bool",
			Help: "Spa water at target temperature (1=reached)",
		}, device),
		spaFilter: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "spacloud_spa_filter_bool",
			Help: "Spa filter pump switch (1=on, 0=off)",
		}, device),
		spaBubbles: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "spacloud_spa_bubbles_bool",
			Help: "Spa bubbles switch (1=on, 0=off)",
		}, device),
		spaLocked: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "spacloud_spa_locked_bool",
			Help: "Spa control panel lock (1=locked)",
		}, device),
		spaEarth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "spacloud_spa_earth_fault_bool",
			Help: "Spa earth fault line (1=fault)",
		}, device),
		spaTempNow: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "spacloud_spa_current_temperature",
			Help: "Current spa water temperature in the reported unit",
		}, temp),
		spaTempSet: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "spacloud_spa_target_temperature",
			Help: "Target spa water temperature in the reported unit",
		}, temp),
		spaErrors: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "spacloud_spa_error_count",
			Help: "Number of raised spa error flags",
		}, device),
		poolPower: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "spacloud_pool_filter_power_bool",
			Help: "Pool filter power switch (1=on, 0=off)",
		}, device),
		poolRunning: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "spacloud_pool_filter_running_bool",
			Help: "Pool filter currently running (1=running)",
		}, device),
		poolError: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "spacloud_pool_filter_error_bool",
			Help: "Pool filter error reported (1=error)",
		}, device),
		poolRunHours: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "spacloud_pool_filter_run_hours",
			Help: "Configured pool filter run time in hours",
		}, device),
	}
}

func (c *StatusCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, v := range c.vecs() {
		v.Describe(ch)
	}
}

func (c *StatusCollector) Collect(ch chan<- prometheus.Metric) {
	for _, v := range c.vecs() {
		v.Reset()
	}

	devices, statuses := c.src.Snapshot()
	for _, d := range devices {
		c.online.WithLabelValues(d.ID, string(d.Type), d.Alias).Set(boolToFloat(d.Online))

		st, ok := statuses[d.ID]
		if !ok {
			continue
		}
		c.lastUpdated.WithLabelValues(d.ID).Set(float64(st.Timestamp()))

		switch v := st.(type) {
		case *models.SpaStatus:
			c.collectSpa(d.ID, v)
		case *models.SpaV01Status:
			c.collectSpa(d.ID, &v.SpaStatus)
		case *models.PoolFilterStatus:
			c.poolPower.WithLabelValues(d.ID).Set(boolToFloat(v.Power))
			c.poolRunning.WithLabelValues(d.ID).Set(boolToFloat(v.Running))
			c.poolError.WithLabelValues(d.ID).Set(boolToFloat(v.ErrorPresent))
			c.poolRunHours.WithLabelValues(d.ID).Set(float64(v.RunHours))
		}
	}

	for _, v := range c.vecs() {
		v.Collect(ch)
	}
}

func (c *StatusCollector) collectSpa(deviceID string, st *models.SpaStatus) {
	c.spaPower.WithLabelValues(deviceID).Set(boolToFloat(st.Power))
	c.spaHeat.WithLabelValues(deviceID).Set(boolToFloat(st.Heat))
	c.spaHeatReached.WithLabelValues(deviceID).Set(boolToFloat(st.HeatReached))
	c.spaFilter.WithLabelValues(deviceID).Set(boolToFloat(st.Filter))
	c.spaBubbles.WithLabelValues(deviceID).Set(boolToFloat(st.Bubbles))
	c.spaLocked.WithLabelValues(deviceID).Set(boolToFloat(st.Locked))
	c.spaEarth.WithLabelValues(deviceID).Set(boolToFloat(st.Earth))
	c.spaTempNow.WithLabelValues(deviceID, string(st.TempUnit)).Set(st.TempNow)
	c.spaTempSet.WithLabelValues(deviceID, string(st.TempUnit)).Set(st.TempSet)
	c.spaErrors.WithLabelValues(deviceID).Set(float64(len(st.Errors)))
}

func (c *StatusCollector) vecs() []*prometheus.GaugeVec {
	return []*prometheus.GaugeVec{
		c.online, c.lastUpdated,
		c.spaPower, c.spaHeat, c.spaHeatReached, c.spaFilter, c.spaBubbles,
		c.spaLocked, c.spaEarth, c.spaTempNow, c.spaTempSet, c.spaErrors,
		c.poolPower, c.poolRunning, c.poolError, c.poolRunHours,
	}
}

func boolToFloat(value bool) float64 {
	if value {
		return 1
	}
	return 0
}
