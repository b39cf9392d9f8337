// Package simsource provides a simulated telemetry source so the engine can
// run without a flight simulator attached. The aircraft sits on the ground
// until released, then flies a gentle wander pattern.
package simsource

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/avsim/atc-engine/internal/telemetry"
	"github.com/avsim/atc-engine/pkg/logger"
)

const (
	cruiseSpeedKts  = 120.0
	climbRateFpm    = 700.0
	cruiseAltFt     = 4500.0
	turnIntervalSec = 60
)

// Source is a simulated telemetry source.
type Source struct {
	mu           sync.Mutex
	state        telemetry.AircraftState
	info         telemetry.AircraftInfo
	fieldElevFt  float64
	airborne     bool
	lastTick     time.Time
	lastTurnTime time.Time
	rng          *rand.Rand
	logger       *logger.Logger
}

// New creates a simulated source parked at the given position. The field
// elevation seeds the on-ground MSL altitude and is the terrain reference
// for AGL once airborne.
func New(lat, lon, fieldElevationFt float64, onGround bool, logger *logger.Logger) *Source {
	now := time.Now()
	s := &Source{
		state: telemetry.AircraftState{
			Lat:           lat,
			Lon:           lon,
			OnGround:      onGround,
			AltitudeMSLFt: fieldElevationFt,
			HeadingDeg:    160,
			AirspeedKts:   0,
		},
		info:         telemetry.DefaultAircraftInfo(),
		fieldElevFt:  fieldElevationFt,
		airborne:     !onGround,
		lastTick:     now,
		lastTurnTime: now,
		rng:          rand.New(rand.NewSource(now.UnixNano())),
		logger:       logger.Named("simsource"),
	}
	if s.airborne {
		s.state.AirspeedKts = cruiseSpeedKts
		s.state.AltitudeMSLFt = cruiseAltFt
		s.state.AltitudeAGLFt = math.Max(cruiseAltFt-fieldElevationFt, 0)
	}
	return s
}

// Release starts a simulated departure; subsequent ticks climb and wander.
func (s *Source) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.airborne = true
	s.logger.Info("Simulated aircraft released for departure")
}

// Tick advances the simulation. The host calls this on its own schedule.
func (s *Source) Tick() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	dt := now.Sub(s.lastTick).Seconds()
	s.lastTick = now
	if dt <= 0 || !s.airborne {
		return
	}

	s.state.OnGround = false
	s.state.AirspeedKts = cruiseSpeedKts

	// Climb until cruise
	if s.state.AltitudeMSLFt < cruiseAltFt {
		s.state.AltitudeMSLFt += climbRateFpm * dt / 60.0
		s.state.VerticalSpeedFt = climbRateFpm
	} else {
		s.state.VerticalSpeedFt = 0
	}
	s.state.AltitudeAGLFt = math.Max(s.state.AltitudeMSLFt-s.fieldElevFt, 0)

	// Wander: small random heading change every minute
	if now.Sub(s.lastTurnTime) > turnIntervalSec*time.Second {
		change := s.rng.Float64()*20 - 10
		s.state.HeadingDeg = math.Mod(s.state.HeadingDeg+change+360.0, 360.0)
		s.lastTurnTime = now
	}

	// Move along the heading
	distNM := s.state.AirspeedKts * (dt / 3600.0)
	distDeg := distNM / 60.0
	headingRad := s.state.HeadingDeg * math.Pi / 180.0
	s.state.Lat += distDeg * math.Cos(headingRad)
	s.state.Lon += distDeg * math.Sin(headingRad)
}

// State implements telemetry.Source.
func (s *Source) State() (telemetry.AircraftState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, nil
}

// Info implements telemetry.Source.
func (s *Source) Info() telemetry.AircraftInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.info
}
