package models

// TempUnit is the temperature scale a spa reports and accepts.
type TempUnit string

const (
	UnitCelsius    TempUnit = "celsius"
	UnitFahrenheit TempUnit = "fahrenheit"
)

// DeviceStatus is the decoded state snapshot for one device. Every variant
// carries the server-epoch timestamp used to order competing updates: a
// polled snapshot stamps the server's update time, a locally applied command
// stamps the wall clock. The union is closed; all variants live in this
// package.
type DeviceStatus interface {
	// Timestamp reports the freshness of the data, in server epoch seconds.
	// Zero is the offline sentinel and never enters the cache.
	Timestamp() int64
	SetTimestamp(ts int64)
	// Clone returns an independent deep copy.
	Clone() DeviceStatus

	isDeviceStatus()
}

// SpaStatus is the decoded state of a current-firmware Airjet spa.
type SpaStatus struct {
	UpdatedAt   int64    `json:"updated_at"`
	Power       bool     `json:"power"`
	TempNow     float64  `json:"temp_now"`
	TempSet     float64  `json:"temp_set"`
	TempUnit    TempUnit `json:"temp_unit"`
	Heat        bool     `json:"heat"`
	HeatReached bool     `json:"heat_reached"`
	Filter      bool     `json:"filter"`
	Bubbles     bool     `json:"bubbles"`
	Locked      bool     `json:"locked"`
	Errors      []int    `json:"errors,omitempty"`
	Earth       bool     `json:"earth"`
}

func (s *SpaStatus) Timestamp() int64      { return s.UpdatedAt }
func (s *SpaStatus) SetTimestamp(ts int64) { s.UpdatedAt = ts }
func (s *SpaStatus) isDeviceStatus()       {}

func (s *SpaStatus) Clone() DeviceStatus {
	out := *s
	out.Errors = append([]int(nil), s.Errors...)
	return &out
}

// SpaV01Status is the decoded state of a legacy Airjet_V01 spa. The legacy
// firmware reports the same controls under a different attribute schema and
// does not report heater-reached, panel lock, or ground-fault directly:
// heater-reached is computed from the temperatures, the other two are
// constant placeholders.
type SpaV01Status struct {
	SpaStatus
}

func (s *SpaV01Status) Clone() DeviceStatus {
	out := *s
	out.Errors = append([]int(nil), s.Errors...)
	return &out
}

// PoolFilterStatus is the decoded state of a pool filter pump.
type PoolFilterStatus struct {
	UpdatedAt     int64 `json:"updated_at"`
	FilterPresent bool  `json:"filter_present"`
	Power         bool  `json:"power"`
	RunHours      int   `json:"run_hours"`
	Running       bool  `json:"running"`
	ErrorPresent  bool  `json:"error_present"`
}

func (s *PoolFilterStatus) Timestamp() int64      { return s.UpdatedAt }
func (s *PoolFilterStatus) SetTimestamp(ts int64) { s.UpdatedAt = ts }
func (s *PoolFilterStatus) isDeviceStatus()       {}

func (s *PoolFilterStatus) Clone() DeviceStatus {
	out := *s
	return &out
}

// UnknownStatus preserves the raw payload of an unrecognized device type for
// diagnostics. It is never interpreted.
type UnknownStatus struct {
	UpdatedAt int64  `json:"updated_at"`
	Attrs     string `json:"attrs"`
}

func (s *UnknownStatus) Timestamp() int64      { return s.UpdatedAt }
func (s *UnknownStatus) SetTimestamp(ts int64) { s.UpdatedAt = ts }
func (s *UnknownStatus) isDeviceStatus()       {}

func (s *UnknownStatus) Clone() DeviceStatus {
	out := *s
	return &out
}
