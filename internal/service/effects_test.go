package service

import (
	"reflect"
	"testing"

	"spacloud/internal/models"
)

func TestSpaCommandWrites_DerivedSwitching(t *testing.T) {
	t.Parallel()

	type testCase struct {
		name    string
		primary spaWrite
		start   models.SpaStatus
		want    models.SpaStatus
	}

	cases := []testCase{
		{
			name:    "power off shuts down everything",
			primary: spaWrite{field: spaPower},
			start:   models.SpaStatus{Power: true, Heat: true, Filter: true, Bubbles: true, Locked: true},
			want:    models.SpaStatus{Locked: true},
		},
		{
			name:    "heat on powers the pump and the filter",
			primary: spaWrite{field: spaHeat, on: true},
			start:   models.SpaStatus{},
			want:    models.SpaStatus{Power: true, Heat: true, Filter: true},
		},
		{
			name:    "heat off leaves the rest running",
			primary: spaWrite{field: spaHeat},
			start:   models.SpaStatus{Power: true, Heat: true, Filter: true},
			want:    models.SpaStatus{Power: true, Filter: true},
		},
		{
			name:    "filter on powers the pump",
			primary: spaWrite{field: spaFilter, on: true},
			start:   models.SpaStatus{},
			want:    models.SpaStatus{Power: true, Filter: true},
		},
		{
			name:    "filter off kills heat and bubbles",
			primary: spaWrite{field: spaFilter},
			start:   models.SpaStatus{Power: true, Heat: true, Filter: true, Bubbles: true},
			want:    models.SpaStatus{Power: true},
		},
		{
			name:    "bubbles on powers the pump",
			primary: spaWrite{field: spaBubbles, on: true},
			start:   models.SpaStatus{},
			want:    models.SpaStatus{Power: true, Bubbles: true},
		},
		{
			name:    "bubbles off changes nothing else",
			primary: spaWrite{field: spaBubbles},
			start:   models.SpaStatus{Power: true, Filter: true, Bubbles: true},
			want:    models.SpaStatus{Power: true, Filter: true},
		},
		{
			name:    "lock is isolated",
			primary: spaWrite{field: spaLocked, on: true},
			start:   models.SpaStatus{},
			want:    models.SpaStatus{Locked: true},
		},
		{
			name:    "target temperature is isolated",
			primary: spaWrite{field: spaTargetTemp, value: 39},
			start:   models.SpaStatus{Power: true, Heat: true, TempSet: 40},
			want:    models.SpaStatus{Power: true, Heat: true, TempSet: 39},
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			st := tc.start
			for _, w := range spaCommandWrites(tc.primary) {
				applySpaWrite(&st, w)
			}
			if !reflect.DeepEqual(st, tc.want) {
				t.Fatalf("state after writes:\nwant %+v\ngot  %+v", tc.want, st)
			}
		})
	}
}

func TestSpaCommandWrites_PrimaryComesFirst(t *testing.T) {
	t.Parallel()

	writes := spaCommandWrites(spaWrite{field: spaHeat, on: true})
	if len(writes) != 3 {
		t.Fatalf("expected 3 writes, got %d", len(writes))
	}
	if writes[0].field != spaHeat || !writes[0].on {
		t.Fatalf("primary write must come first, got %+v", writes[0])
	}
}

func TestSpaFields_BothGenerations(t *testing.T) {
	t.Parallel()

	spa := &models.SpaStatus{Power: true}
	if fields, ok := spaFields(spa); !ok || fields != spa {
		t.Fatalf("expected the current-generation struct itself back")
	}

	legacy := &models.SpaV01Status{SpaStatus: models.SpaStatus{Heat: true}}
	fields, ok := spaFields(legacy)
	if !ok {
		t.Fatalf("expected the legacy generation to be recognised")
	}
	fields.Power = true
	if !legacy.Power {
		t.Fatalf("writes through the field block must reach the legacy struct")
	}

	if _, ok := spaFields(&models.PoolFilterStatus{}); ok {
		t.Fatalf("a pool filter has no spa field block")
	}
}

func TestSpaFieldAttrNames(t *testing.T) {
	t.Parallel()

	want := map[spaField]string{
		spaPower:      "power",
		spaHeat:       "heat_power",
		spaFilter:     "filter_power",
		spaBubbles:    "wave_power",
		spaLocked:     "locked",
		spaTargetTemp: "temp_set",
	}
	for field, name := range want {
		if got := field.attr(); got != name {
			t.Fatalf("attr(%d): want %q, got %q", field, name, got)
		}
	}
}
