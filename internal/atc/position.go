package atc

import (
	"fmt"

	"github.com/avsim/atc-engine/internal/config"
	"github.com/avsim/atc-engine/internal/telemetry"
)

// Position is an ATC controller position a pilot may address.
type Position string

const (
	PositionGround   Position = "ground"
	PositionTower    Position = "tower"
	PositionApproach Position = "approach"
	PositionCenter   Position = "center"

	// PositionAuto is not a controller position: it is the override flag
	// meaning "let the selector decide". The effective position is always
	// one of the four concrete values.
	PositionAuto Position = "auto"
)

// ParsePosition parses a user-supplied position string. PositionAuto is a
// valid result; "departure" maps to approach.
func ParsePosition(s string) (Position, error) {
	switch Position(s) {
	case PositionGround, PositionTower, PositionApproach, PositionCenter, PositionAuto:
		return Position(s), nil
	case "departure":
		return PositionApproach, nil
	default:
		return "", fmt.Errorf("unknown ATC position: %q", s)
	}
}

// IsConcrete reports whether p is one of the four controller positions.
func (p Position) IsConcrete() bool {
	switch p {
	case PositionGround, PositionTower, PositionApproach, PositionCenter:
		return true
	}
	return false
}

// Selector decides the active ATC position from aircraft state and distance
// to the tuned airport. It holds two pieces of state: the override mode
// (auto or a pinned concrete position) and the last effective position.
//
// Selector is not internally synchronized; the owning engine serializes
// access.
type Selector struct {
	override  Position
	effective Position
	cfg       config.ATCConfig
}

// NewSelector creates a selector in auto mode. The effective position
// starts at tower until the first recompute.
func NewSelector(cfg config.ATCConfig) *Selector {
	return &Selector{
		override:  PositionAuto,
		effective: PositionTower,
		cfg:       cfg,
	}
}

// Override returns the current override mode.
func (s *Selector) Override() Position {
	return s.override
}

// Effective returns the last computed or confirmed concrete position.
func (s *Selector) Effective() Position {
	return s.effective
}

// SetOverride pins the effective position to a concrete choice, or restores
// automatic selection when given PositionAuto.
func (s *Selector) SetOverride(p Position) error {
	if p != PositionAuto && !p.IsConcrete() {
		return fmt.Errorf("invalid override position: %q", p)
	}
	s.override = p
	if p.IsConcrete() {
		s.effective = p
	}
	return nil
}

// ApplySwitch sets the effective position directly without altering the
// override mode. Used when a conversational switch is detected.
func (s *Selector) ApplySwitch(p Position) {
	if !p.IsConcrete() {
		return
	}
	s.effective = p
}

// Recompute derives the effective position from the aircraft state and the
// distance to the tuned airport. It only takes effect in auto mode; with a
// manual override it returns the pinned position unchanged.
//
// First match wins; the rules broaden progressively and always terminate
// with exactly one concrete position.
func (s *Selector) Recompute(state telemetry.AircraftState, distanceNM float64) Position {
	if s.override != PositionAuto {
		return s.effective
	}

	switch {
	case state.OnGround && state.AltitudeAGLFt < s.cfg.GroundMaxAGLFt:
		s.effective = PositionGround
	case state.AltitudeMSLFt < s.cfg.TowerMaxAltFt && distanceNM <= s.cfg.TowerRangeNM:
		s.effective = PositionTower
	case state.AltitudeMSLFt < s.cfg.ApproachMaxAltFt && distanceNM <= s.cfg.ApproachRangeNM:
		s.effective = PositionApproach
	case state.AltitudeMSLFt >= s.cfg.CenterMinAltFt:
		s.effective = PositionCenter
	case distanceNM <= s.cfg.ApproachRangeNM:
		s.effective = PositionTower
	default:
		s.effective = PositionCenter
	}

	return s.effective
}
