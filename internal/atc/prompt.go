package atc

import (
	"fmt"
	"math"
	"strings"

	"github.com/avsim/atc-engine/internal/geo"
	"github.com/avsim/atc-engine/internal/telemetry"
)

// positionInstructions is the responsibility text injected into the prompt
// for each controller position.
var positionInstructions = map[Position]string{
	PositionGround: `As GROUND CONTROL, you handle:
- Taxi instructions and clearances
- Gate and parking assignments
- Ground traffic coordination
- Pushback and startup clearances
- Airport surface movement
Use phrases like: "Taxi to runway via...", "Hold position", "Gate 3 via taxiway Alpha"`,

	PositionTower: `As TOWER CONTROL, you handle:
- Takeoff and landing clearances
- Runway assignments
- Local traffic coordination
- Pattern operations
- Wake turbulence advisories
Use phrases like: "Cleared for takeoff", "Cleared to land", "Enter left downwind", "Number 2 following..."`,

	PositionApproach: `As APPROACH/DEPARTURE CONTROL, you handle:
- Arrival and departure sequencing
- Radar vectors
- Altitude and speed assignments
- Traffic separation
- Instrument approaches
Use phrases like: "Turn heading 270", "Descend and maintain 3000", "Contact tower 118.7", "Cleared ILS approach"`,

	PositionCenter: `As AREA CONTROL, you handle:
- En-route traffic
- Altitude and route clearances
- Oceanic/remote area control
- Flight level changes
- Long-range navigation
Use phrases like: "Climb and maintain FL330", "Direct to WAYPOINT", "Report crossing", "Resume own navigation"`,
}

// PromptInput bundles everything the prompt template needs for one turn.
type PromptInput struct {
	AirportCode string
	AirportLat  float64
	AirportLon  float64
	Position    Position
	// State is nil when telemetry is unavailable.
	State      *telemetry.AircraftState
	DistanceNM float64
	History    []Turn
	PilotText  string
	// GroundMaxAGLFt and VicinityRangeNM come from the ATC config.
	GroundMaxAGLFt  float64
	VicinityRangeNM float64
}

// BuildPrompt assembles the completion prompt for one pilot turn. The
// output is a deterministic template: role statement, position
// responsibilities, situation block, the most recent history slice, the new
// pilot line and a trailing controller cue. This string is the sole
// contract with the completion service.
func BuildPrompt(in PromptInput) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are an ATC controller at %s airport, working as %s control.\n\n",
		in.AirportCode, strings.ToUpper(string(in.Position)))

	instructions, ok := positionInstructions[in.Position]
	if !ok {
		instructions = positionInstructions[PositionTower]
	}
	b.WriteString(instructions)

	b.WriteString("\n\nCurrent aircraft situation:\n")
	b.WriteString(situationText(in))

	b.WriteString("\nRecent communication:\n")
	for _, turn := range in.History {
		if turn.Role == RolePilot {
			fmt.Fprintf(&b, "Pilot: %s\n", turn.Text)
		} else {
			fmt.Fprintf(&b, "ATC (%s): %s\n", turn.Position, turn.Text)
		}
	}

	fmt.Fprintf(&b, "\nPilot: %s\n", in.PilotText)
	fmt.Fprintf(&b, "ATC (%s):", in.Position)

	return b.String()
}

// situationText renders the aircraft situation block. On the ground it
// reports MSL and AGL altitude; airborne it reports altitude, distance,
// heading and airspeed, plus the direction of the airport once beyond the
// vicinity range.
func situationText(in PromptInput) string {
	if in.State == nil {
		return "Aircraft data unavailable\n"
	}

	state := in.State
	var b strings.Builder

	if state.OnGround && state.AltitudeAGLFt < in.GroundMaxAGLFt {
		fmt.Fprintf(&b, "- Aircraft is ON GROUND at %s\n", in.AirportCode)
		fmt.Fprintf(&b, "- Altitude: %dft MSL (%dft AGL)\n",
			roundFt(state.AltitudeMSLFt), roundFt(state.AltitudeAGLFt))
		return b.String()
	}

	fmt.Fprintf(&b, "- Altitude: %dft MSL\n", roundFt(state.AltitudeMSLFt))
	fmt.Fprintf(&b, "- Distance from %s: %.1f NM\n", in.AirportCode, in.DistanceNM)
	fmt.Fprintf(&b, "- Heading: %d°\n", int(math.Round(state.HeadingDeg)))
	fmt.Fprintf(&b, "- Airspeed: %d kts\n", int(math.Round(state.AirspeedKts)))

	if in.DistanceNM < in.VicinityRangeNM {
		fmt.Fprintf(&b, "- Position: In the vicinity of %s\n", in.AirportCode)
	} else {
		bearing := geo.BearingDeg(state.Lat, state.Lon, in.AirportLat, in.AirportLon)
		octant := geo.CompassOctant(bearing)
		fmt.Fprintf(&b, "- Position: %s is to the %s of you\n",
			in.AirportCode, strings.ToUpper(string(octant)))
	}

	return b.String()
}

func roundFt(v float64) int {
	return int(math.Round(v))
}
