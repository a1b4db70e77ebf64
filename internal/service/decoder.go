package service

import (
	"encoding/json"
	"fmt"
	"strconv"

	"spacloud/internal/models"
)

// Attribute values with meaning beyond their raw bytes. The cloud reports
// them in Chinese regardless of the account locale.
const (
	celsiusToken     = "摄氏"
	poolRunningToken = "运行中"
)

// MissingAttributeError reports a device payload that lacks an attribute the
// decoder requires.
type MissingAttributeError struct {
	Key string
}

func (e *MissingAttributeError) Error() string {
	return fmt.Sprintf("device payload is missing attribute %q", e.Key)
}

// DecodeStatus converts one raw device snapshot into the typed status for the
// given device type. Unrecognised types never fail; their payload is kept
// verbatim.
func DecodeStatus(deviceType models.DeviceType, updatedAt int64, attrs map[string]any) (models.DeviceStatus, error) {
	switch deviceType {
	case models.DeviceTypeSpa:
		return decodeSpa(updatedAt, attrs)
	case models.DeviceTypeSpaV01:
		return decodeSpaV01(updatedAt, attrs)
	case models.DeviceTypePoolFilter:
		return decodePoolFilter(updatedAt, attrs)
	default:
		return decodeUnknown(updatedAt, attrs), nil
	}
}

func decodeSpa(updatedAt int64, attrs map[string]any) (models.DeviceStatus, error) {
	r := &attrReader{attrs: attrs}

	st := &models.SpaStatus{
		UpdatedAt:   updatedAt,
		Power:       r.flag("power"),
		TempNow:     r.number("temp_now"),
		TempSet:     r.number("temp_set"),
		Heat:        r.flag("heat_power"),
		HeatReached: r.flag("heat_temp_reach"),
		Filter:      r.flag("filter_power"),
		Bubbles:     r.flag("wave_power"),
		Locked:      r.flag("locked"),
		Earth:       r.flag("earth"),
	}
	if r.text("temp_set_unit") == celsiusToken {
		st.TempUnit = models.UnitCelsius
	} else {
		st.TempUnit = models.UnitFahrenheit
	}

	errs, err := errorFlags(attrs, spaErrScheme)
	if err != nil {
		return nil, err
	}
	st.Errors = errs

	if r.err != nil {
		return nil, r.err
	}
	return st, nil
}

func decodeSpaV01(updatedAt int64, attrs map[string]any) (models.DeviceStatus, error) {
	r := &attrReader{attrs: attrs}

	st := &models.SpaV01Status{SpaStatus: models.SpaStatus{
		UpdatedAt: updatedAt,
		Power:     r.nonzero("power"),
		TempNow:   r.number("Tnow"),
		TempSet:   r.number("Tset"),
		Heat:      r.nonzero("heat"),
		Filter:    r.nonzero("filter"),
		Bubbles:   r.nonzero("wave"),
		// The legacy firmware reports neither a panel lock nor an earth
		// fault line; both always read false.
	}}
	// No reached flag either, so derive it from the temperatures.
	st.HeatReached = st.TempNow >= st.TempSet
	if r.flag("Tunit") {
		st.TempUnit = models.UnitCelsius
	} else {
		st.TempUnit = models.UnitFahrenheit
	}

	errs, err := errorFlags(attrs, spaV01ErrScheme)
	if err != nil {
		return nil, err
	}
	st.Errors = errs

	if r.err != nil {
		return nil, r.err
	}
	return st, nil
}

func decodePoolFilter(updatedAt int64, attrs map[string]any) (models.DeviceStatus, error) {
	r := &attrReader{attrs: attrs}

	st := &models.PoolFilterStatus{
		UpdatedAt:     updatedAt,
		FilterPresent: r.flag("filter"),
		Power:         r.flag("power"),
		RunHours:      int(r.number("time")),
		Running:       r.text("status") == poolRunningToken,
		ErrorPresent:  r.nonzero("error"),
	}
	if r.err != nil {
		return nil, r.err
	}
	return st, nil
}

// decodeUnknown preserves the raw payload for device types the service does
// not model.
func decodeUnknown(updatedAt int64, attrs map[string]any) models.DeviceStatus {
	raw, err := json.Marshal(attrs)
	if err != nil {
		return &models.UnknownStatus{UpdatedAt: updatedAt, Attrs: fmt.Sprintf("%v", attrs)}
	}
	return &models.UnknownStatus{UpdatedAt: updatedAt, Attrs: string(raw)}
}

// attrReader reads typed values out of a raw attribute map, remembering the
// first missing required attribute so decoders can run straight through.
type attrReader struct {
	attrs map[string]any
	err   error
}

func (r *attrReader) missing(key string) {
	if r.err == nil {
		r.err = &MissingAttributeError{Key: key}
	}
}

// number returns the attribute as float64, accepting the numeric shapes the
// cloud is known to emit. A present but non-numeric value counts as missing.
func (r *attrReader) number(key string) float64 {
	v, ok := r.attrs[key]
	if !ok {
		r.missing(key)
		return 0
	}
	f, ok := toNumber(v)
	if !ok {
		r.missing(key)
		return 0
	}
	return f
}

// flag reports whether the attribute equals exactly 1.
func (r *attrReader) flag(key string) bool {
	return r.number(key) == 1
}

// nonzero reports whether the attribute holds any value other than 0.
func (r *attrReader) nonzero(key string) bool {
	return r.number(key) != 0
}

// text returns the attribute as a string. A present non-string value reads as
// "" so callers fall through to their defaults.
func (r *attrReader) text(key string) string {
	v, ok := r.attrs[key]
	if !ok {
		r.missing(key)
		return ""
	}
	s, _ := v.(string)
	return s
}

func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}
