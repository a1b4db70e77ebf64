package service

import "spacloud/internal/models"

// spaField identifies one writable spa attribute.
type spaField int

const (
	spaPower spaField = iota
	spaHeat
	spaFilter
	spaBubbles
	spaLocked
	spaTargetTemp
)

// attr returns the cloud attribute name for the field. Both spa generations
// accept the same names on the control endpoint.
func (f spaField) attr() string {
	switch f {
	case spaPower:
		return "power"
	case spaHeat:
		return "heat_power"
	case spaFilter:
		return "filter_power"
	case spaBubbles:
		return "wave_power"
	case spaLocked:
		return "locked"
	case spaTargetTemp:
		return "temp_set"
	}
	return ""
}

// spaWrite is one field write as reflected into the cached status.
type spaWrite struct {
	field spaField
	on    bool
	value float64
}

type spaEffectKey struct {
	field spaField
	on    bool
}

// spaDerivedEffects lists the extra switching the pump firmware performs on
// its own for each command. Mirroring it keeps the cached status truthful
// until the next accepted poll.
var spaDerivedEffects = map[spaEffectKey][]spaWrite{
	// Powering off shuts down every other function.
	{spaPower, false}: {{field: spaFilter}, {field: spaHeat}, {field: spaBubbles}},
	// The heater needs the pump powered and the filter running.
	{spaHeat, true}: {{field: spaPower, on: true}, {field: spaFilter, on: true}},
	// The filter needs the pump powered; stopping it kills heat and bubbles.
	{spaFilter, true}:  {{field: spaPower, on: true}},
	{spaFilter, false}: {{field: spaHeat}, {field: spaBubbles}},
	// Bubbles need the pump powered.
	{spaBubbles, true}: {{field: spaPower, on: true}},
}

// spaCommandWrites expands a primary write into the full ordered set of cache
// writes, primary first.
func spaCommandWrites(primary spaWrite) []spaWrite {
	derived := spaDerivedEffects[spaEffectKey{field: primary.field, on: primary.on}]
	writes := make([]spaWrite, 0, 1+len(derived))
	writes = append(writes, primary)
	return append(writes, derived...)
}

func applySpaWrite(st *models.SpaStatus, w spaWrite) {
	switch w.field {
	case spaPower:
		st.Power = w.on
	case spaHeat:
		st.Heat = w.on
	case spaFilter:
		st.Filter = w.on
	case spaBubbles:
		st.Bubbles = w.on
	case spaLocked:
		st.Locked = w.on
	case spaTargetTemp:
		st.TempSet = w.value
	}
}

// spaFields extracts the shared spa field block from either spa generation.
func spaFields(st models.DeviceStatus) (*models.SpaStatus, bool) {
	switch v := st.(type) {
	case *models.SpaStatus:
		return v, true
	case *models.SpaV01Status:
		return &v.SpaStatus, true
	}
	return nil, false
}
