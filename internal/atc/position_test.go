package atc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avsim/atc-engine/internal/config"
	"github.com/avsim/atc-engine/internal/telemetry"
)

func TestParsePosition(t *testing.T) {
	tests := []struct {
		in   string
		want Position
		ok   bool
	}{
		{"ground", PositionGround, true},
		{"TOWER", PositionTower, true},
		{"Approach", PositionApproach, true},
		{"departure", PositionApproach, true},
		{"center", PositionCenter, true},
		{"auto", PositionAuto, true},
		{"ramp", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, err := ParsePosition(tt.in)
		if tt.ok {
			require.NoError(t, err, "input %q", tt.in)
			assert.Equal(t, tt.want, got, "input %q", tt.in)
		} else {
			assert.Error(t, err, "input %q", tt.in)
		}
	}
}

func TestSelectorRecompute(t *testing.T) {
	cfg := config.Default().ATC

	tests := []struct {
		name     string
		state    telemetry.AircraftState
		distance float64
		want     Position
	}{
		{
			name:     "parked on ramp",
			state:    telemetry.AircraftState{OnGround: true, AltitudeAGLFt: 0, AltitudeMSLFt: 433},
			distance: 0.2,
			want:     PositionGround,
		},
		{
			name:     "on ground above AGL threshold falls through",
			state:    telemetry.AircraftState{OnGround: true, AltitudeAGLFt: 80, AltitudeMSLFt: 500},
			distance: 0.5,
			want:     PositionTower,
		},
		{
			name:     "pattern altitude close in",
			state:    telemetry.AircraftState{AltitudeMSLFt: 1500, AltitudeAGLFt: 1100},
			distance: 4,
			want:     PositionTower,
		},
		{
			name:     "descending through ten thousand",
			state:    telemetry.AircraftState{AltitudeMSLFt: 10000, AltitudeAGLFt: 9600},
			distance: 35,
			want:     PositionApproach,
		},
		{
			name:     "cruise flight level",
			state:    telemetry.AircraftState{AltitudeMSLFt: 34000, AltitudeAGLFt: 33600},
			distance: 180,
			want:     PositionCenter,
		},
		{
			name:     "exactly at center floor",
			state:    telemetry.AircraftState{AltitudeMSLFt: 18000, AltitudeAGLFt: 17600},
			distance: 60,
			want:     PositionCenter,
		},
		{
			name:     "low but outside tower range",
			state:    telemetry.AircraftState{AltitudeMSLFt: 2500, AltitudeAGLFt: 2100},
			distance: 80,
			want:     PositionApproach,
		},
		{
			name:     "low and beyond fallback range",
			state:    telemetry.AircraftState{AltitudeMSLFt: 2500, AltitudeAGLFt: 2100},
			distance: 140,
			want:     PositionCenter,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel := NewSelector(cfg)
			got := sel.Recompute(tt.state, tt.distance)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want, sel.Effective())
		})
	}
}

func TestSelectorOverrideFreezesRecompute(t *testing.T) {
	cfg := config.Default().ATC
	sel := NewSelector(cfg)

	require.NoError(t, sel.SetOverride(PositionGround))
	assert.Equal(t, PositionGround, sel.Effective())

	// Cruise telemetry must not move a pinned position.
	got := sel.Recompute(telemetry.AircraftState{AltitudeMSLFt: 34000, AltitudeAGLFt: 33600}, 200)
	assert.Equal(t, PositionGround, got)

	// Back to auto, recompute takes over again.
	require.NoError(t, sel.SetOverride(PositionAuto))
	got = sel.Recompute(telemetry.AircraftState{AltitudeMSLFt: 34000, AltitudeAGLFt: 33600}, 200)
	assert.Equal(t, PositionCenter, got)
}

func TestSelectorApplySwitchKeepsAutoMode(t *testing.T) {
	cfg := config.Default().ATC
	sel := NewSelector(cfg)

	sel.ApplySwitch(PositionApproach)
	assert.Equal(t, PositionApproach, sel.Effective())
	assert.Equal(t, PositionAuto, sel.Override())

	// Without an override the next recompute may move the position again.
	got := sel.Recompute(telemetry.AircraftState{OnGround: true, AltitudeAGLFt: 0}, 0.1)
	assert.Equal(t, PositionGround, got)
}

func TestSelectorSetOverrideRejectsUnknown(t *testing.T) {
	sel := NewSelector(config.Default().ATC)
	assert.Error(t, sel.SetOverride(Position("ramp")))
}
