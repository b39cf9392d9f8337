package telemetry

import "errors"

// ErrUnavailable is returned when no telemetry snapshot can be produced,
// for example before the simulator has reported its first position. It is
// recoverable: callers degrade to neutral situation text and skip
// distance-based decisions.
var ErrUnavailable = errors.New("telemetry unavailable")

// AircraftState is a point-in-time snapshot of the aircraft. It is owned by
// the telemetry source; consumers read a fresh snapshot per decision and
// never mutate one.
type AircraftState struct {
	Lat           float64 `json:"lat"`
	Lon           float64 `json:"lon"`
	AltitudeMSLFt float64 `json:"altitude_msl_ft"`
	// Height above ground, floored at zero.
	AltitudeAGLFt   float64 `json:"altitude_agl_ft"`
	OnGround        bool    `json:"on_ground"`
	HeadingDeg      float64 `json:"heading_deg"`
	AirspeedKts     float64 `json:"airspeed_kts"`
	VerticalSpeedFt float64 `json:"vertical_speed_fpm"`
}

// AircraftInfo identifies the aircraft and pilot for prompt assembly and
// notifications. Fields fall back to generic values when the host has no
// pilot record.
type AircraftInfo struct {
	Callsign     string `json:"callsign"`
	AircraftType string `json:"aircraft_type"`
	PilotName    string `json:"pilot_name"`
}

// DefaultAircraftInfo is used when the host supplies no pilot record.
func DefaultAircraftInfo() AircraftInfo {
	return AircraftInfo{
		Callsign:     "N12345",
		AircraftType: "General Aviation",
		PilotName:    "Private Pilot",
	}
}

// Source provides aircraft state snapshots. Implementations must be safe
// for concurrent use.
type Source interface {
	// State returns the current aircraft snapshot, or ErrUnavailable.
	State() (AircraftState, error)
	// Info returns the aircraft identity. Always succeeds; implementations
	// fall back to DefaultAircraftInfo.
	Info() AircraftInfo
}
