package atc

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/avsim/atc-engine/pkg/logger"
)

// Persona identifies the controller voice for one position at one airport.
type Persona struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	City      string `json:"city"`
	Country   string `json:"country"`
}

// FullName returns the display name of the controller.
func (p Persona) FullName() string {
	return fmt.Sprintf("%s %s", p.FirstName, p.LastName)
}

// PersonaGenerator produces a controller persona for an airport/position
// pair. The date keys the request so repeated sessions on the same calendar
// day get the same controller. Implementations may fail; the engine always
// has a local fallback.
type PersonaGenerator interface {
	Generate(ctx context.Context, airportCode string, position Position, date string) (Persona, error)
}

// fallbackNames is the fixed per-position name pool used when the external
// generator fails. Picking from it never fails or blocks.
var fallbackNames = map[Position][]string{
	PositionGround:   {"John", "Mike", "David"},
	PositionTower:    {"Robert", "James", "Thomas"},
	PositionApproach: {"William", "Charles", "Richard"},
	PositionCenter:   {"Michael", "Christopher", "Daniel"},
}

func fallbackPersona(position Position, rng *rand.Rand) Persona {
	pool, ok := fallbackNames[position]
	if !ok {
		pool = fallbackNames[PositionTower]
	}
	return Persona{
		FirstName: pool[rng.Intn(len(pool))],
		LastName:  "Controller",
		City:      "Control Center",
		Country:   "US",
	}
}

// personaManager lazily populates the per-session persona cache.
type personaManager struct {
	generator PersonaGenerator
	rng       *rand.Rand
	logger    *logger.Logger
}

func newPersonaManager(generator PersonaGenerator, log *logger.Logger) *personaManager {
	return &personaManager{
		generator: generator,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
		logger:    log.Named("personas"),
	}
}

// getOrCreate returns the persona for a session/position pair, consulting
// the external generator once per pair and caching the result for the
// session lifetime. It never fails: generator errors fall back to the fixed
// name pool.
func (pm *personaManager) getOrCreate(ctx context.Context, session *Session, position Position) Persona {
	if persona, ok := session.cachedPersona(position); ok {
		return persona
	}

	persona := pm.fetch(ctx, session.AirportCode, position)
	session.cachePersona(position, persona)
	return persona
}

func (pm *personaManager) fetch(ctx context.Context, code string, position Position) Persona {
	if pm.generator == nil {
		return fallbackPersona(position, pm.rng)
	}

	date := time.Now().UTC().Format("2006-01-02")
	persona, err := pm.generator.Generate(ctx, code, position, date)
	if err != nil {
		pm.logger.Warn("Persona generator failed, using fallback",
			logger.String("airport", code),
			logger.String("position", string(position)),
			logger.Error(err))
		return fallbackPersona(position, pm.rng)
	}

	return persona
}
