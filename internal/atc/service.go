package atc

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/avsim/atc-engine/internal/airports"
	"github.com/avsim/atc-engine/internal/config"
	"github.com/avsim/atc-engine/internal/geo"
	"github.com/avsim/atc-engine/internal/telemetry"
	"github.com/avsim/atc-engine/pkg/logger"
)

// ErrNotTuned is returned when an operation requires a tuned airport and
// none is selected.
var ErrNotTuned = errors.New("no ATC frequency tuned")

// CompletionService turns an assembled prompt into a controller reply. It
// is treated as a black box that may fail or time out; the engine never
// retries, it falls back to a stock utterance.
type CompletionService interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// TranscriptRecorder receives every recorded turn for durable logging.
// Recording is best-effort: errors are logged by the engine, never
// surfaced on the pilot path.
type TranscriptRecorder interface {
	RecordTurn(airport string, role Role, position Position, text string, timestamp time.Time) error
}

// Sinks are the host-provided notification functions. All are optional and
// fire-and-forget from the engine's perspective.
type Sinks struct {
	AnnouncePilot      func(info telemetry.AircraftInfo, text string)
	AnnounceController func(airport string, position Position, persona Persona, text string)
	Speak              func(text string)
}

// stockReplies are used when the completion service fails. The pilot
// re-issuing the call is the retry mechanism.
var stockReplies = []string{
	"Roger, standby.",
	"Copy that.",
	"Affirmative.",
	"Say again?",
	"Unable, traffic in the area.",
	"Wilco.",
	"Maintain current heading and altitude.",
}

// Reply is the outcome of one pilot message.
type Reply struct {
	Text     string   `json:"text"`
	Position Position `json:"position"`
	Persona  Persona  `json:"persona"`
	// Fallback is set when the completion service failed and Text is a
	// stock utterance that was not recorded in the history.
	Fallback bool `json:"fallback"`
	// SwitchOnly is set when the message was purely a position change and
	// no completion call was made.
	SwitchOnly bool `json:"switch_only"`
}

// TuneResult describes the session after a tune-in.
type TuneResult struct {
	Airport  airports.Airport `json:"airport"`
	Position Position         `json:"position"`
	Override Position         `json:"override"`
	// Resumed is set when an existing session (with its history and
	// persona cache) was reused.
	Resumed bool `json:"resumed"`
}

// SessionView is a read-only snapshot of the active session for display.
type SessionView struct {
	AirportCode string   `json:"airport_code"`
	Override    Position `json:"override"`
	Position    Position `json:"position"`
	History     []Turn   `json:"history"`
}

// NearestAdvisory reports a newly-in-range airport.
type NearestAdvisory struct {
	Airport    airports.Airport `json:"airport"`
	DistanceNM float64          `json:"distance_nm"`
}

// Service is the ATC session engine. It tracks the tuned airport, owns the
// session store, and drives the conversation flow: switch detection, turn
// recording, prompt assembly and completion calls.
//
// All session access goes through the service mutex; the core types
// underneath (Session, Selector) are deliberately unsynchronized.
type Service struct {
	mu sync.Mutex

	directory  *airports.Directory
	telemetry  telemetry.Source
	completion CompletionService
	detector   *SwitchDetector
	personas   *personaManager
	transcript TranscriptRecorder
	sinks      Sinks

	sessions *SessionStore
	tuned    string
	// lastNearest tracks the last advised nearest airport code so the
	// advisory only fires on change.
	lastNearest string

	cfg          config.ATCConfig
	nearestRange float64
	rng          *rand.Rand
	logger       *logger.Logger
}

// NewService creates the engine. The transcript recorder and sinks are
// optional; the persona generator may be nil, in which case only the local
// fallback pool is used.
func NewService(
	directory *airports.Directory,
	telemetrySource telemetry.Source,
	completionService CompletionService,
	personaGenerator PersonaGenerator,
	transcript TranscriptRecorder,
	sinks Sinks,
	cfg config.ATCConfig,
	nearestRangeNM float64,
	log *logger.Logger,
) *Service {
	return &Service{
		directory:    directory,
		telemetry:    telemetrySource,
		completion:   completionService,
		detector:     NewSwitchDetector(),
		personas:     newPersonaManager(personaGenerator, log),
		transcript:   transcript,
		sinks:        sinks,
		sessions:     NewSessionStore(cfg),
		cfg:          cfg,
		nearestRange: nearestRangeNM,
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
		logger:       log.Named("atc-engine"),
	}
}

// TuneIn selects an airport as the active frequency, creating its session
// on first contact. An unknown code surfaces airports.ErrNotFound so the
// caller can present it as a validation message.
func (s *Service) TuneIn(ctx context.Context, code string) (TuneResult, error) {
	airport, err := s.directory.Lookup(code)
	if err != nil {
		return TuneResult{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	session, resumed := s.sessions.GetOrCreate(airport.Code)
	s.tuned = airport.Code

	s.recomputeLocked(session, airport)

	s.logger.Info("Tuned to airport",
		logger.String("airport", airport.Code),
		logger.String("position", string(session.Selector.Effective())),
		logger.Bool("resumed", resumed))

	return TuneResult{
		Airport:  airport,
		Position: session.Selector.Effective(),
		Override: session.Selector.Override(),
		Resumed:  resumed,
	}, nil
}

// TunedAirport returns the active airport code, or "" when none is tuned.
func (s *Service) TunedAirport() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tuned
}

// SetOverride pins the position for the active session, or restores auto
// selection with PositionAuto.
func (s *Service) SetOverride(p Position) (Position, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, airport, err := s.activeSessionLocked()
	if err != nil {
		return "", err
	}

	if err := session.Selector.SetOverride(p); err != nil {
		return "", err
	}
	if p == PositionAuto {
		s.recomputeLocked(session, airport)
	}

	s.logger.Info("Position override set",
		logger.String("airport", session.AirportCode),
		logger.String("override", string(p)),
		logger.String("effective", string(session.Selector.Effective())))

	return session.Selector.Effective(), nil
}

// RecomputePosition refreshes the auto-selected position from current
// telemetry. The host calls this on its own schedule; the engine defines
// no timers. It is a no-op under a manual override or when telemetry is
// unavailable.
func (s *Service) RecomputePosition() (Position, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, airport, err := s.activeSessionLocked()
	if err != nil {
		return "", err
	}

	s.recomputeLocked(session, airport)
	return session.Selector.Effective(), nil
}

// Session returns a snapshot of the active session.
func (s *Service) Session() (SessionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, _, err := s.activeSessionLocked()
	if err != nil {
		return SessionView{}, err
	}

	return SessionView{
		AirportCode: session.AirportCode,
		Override:    session.Selector.Override(),
		Position:    session.Selector.Effective(),
		History:     session.History(),
	}, nil
}

// NearestAirport returns the closest airport to the current aircraft
// position within the configured scan range.
func (s *Service) NearestAirport() (airports.Airport, float64, error) {
	state, err := s.telemetry.State()
	if err != nil {
		return airports.Airport{}, 0, err
	}

	airport, dist, ok := s.directory.Nearest(state.Lat, state.Lon, s.nearestRange)
	if !ok {
		return airports.Airport{}, 0, fmt.Errorf("no airport within %.0f NM", s.nearestRange)
	}
	return airport, dist, nil
}

// NearestAdvisory reports the nearest airport when it differs from the last
// advised one, and nil otherwise. Host timer driven.
func (s *Service) NearestAdvisory() (*NearestAdvisory, error) {
	airport, dist, err := s.NearestAirport()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if airport.Code == s.lastNearest {
		return nil, nil
	}
	s.lastNearest = airport.Code

	return &NearestAdvisory{Airport: airport, DistanceNM: dist}, nil
}

// HandlePilotMessage processes one pilot utterance end to end: pilot-side
// switch detection, turn recording, prompt assembly, the completion call,
// and controller-side switch detection on the reply.
//
// The lock is released for the duration of the completion call: a second
// pilot utterance while one is outstanding starts an independent call, and
// reads (session snapshot, position recompute) proceed unblocked.
func (s *Service) HandlePilotMessage(ctx context.Context, text string) (Reply, error) {
	s.mu.Lock()

	session, airport, err := s.activeSessionLocked()
	if err != nil {
		s.mu.Unlock()
		return Reply{}, err
	}
	log := s.logger.WithAirport(session.AirportCode)

	// A switch request is applied before anything is sent; the switch
	// phrase itself is not part of the substantive message.
	if position, residual, ok := s.detector.DetectPilot(text); ok {
		session.Selector.ApplySwitch(position)
		log.Info("Pilot requested position switch",
			logger.String("position", string(position)))

		if residual == "" {
			reply := Reply{
				Position:   session.Selector.Effective(),
				Persona:    s.personas.getOrCreate(ctx, session, session.Selector.Effective()),
				SwitchOnly: true,
			}
			s.mu.Unlock()
			return reply, nil
		}
		text = residual
	}

	position := session.Selector.Effective()
	now := time.Now().UTC()

	pilotTurn := Turn{Role: RolePilot, Text: text, Position: position, Timestamp: now}
	session.Append(pilotTurn)

	prompt := s.buildPromptLocked(session, airport, text)
	persona := s.personas.getOrCreate(ctx, session, position)
	s.mu.Unlock()

	s.recordTranscript(session.AirportCode, pilotTurn)
	if s.sinks.AnnouncePilot != nil {
		s.sinks.AnnouncePilot(s.telemetry.Info(), text)
	}

	replyText, err := s.completion.Complete(ctx, prompt)
	if err != nil {
		log.Warn("Completion service failed, using stock reply", logger.Error(err))
		s.mu.Lock()
		fallback := stockReplies[s.rng.Intn(len(stockReplies))]
		s.mu.Unlock()
		if s.sinks.AnnounceController != nil {
			s.sinks.AnnounceController(session.AirportCode, position, persona, fallback)
		}
		if s.sinks.Speak != nil {
			s.sinks.Speak(fallback)
		}
		return Reply{Text: fallback, Position: position, Persona: persona, Fallback: true}, nil
	}

	// The reply is tagged with the position that produced it, even when it
	// hands the pilot off to another controller.
	s.mu.Lock()
	if next, ok := s.detector.DetectController(replyText); ok {
		session.Selector.ApplySwitch(next)
		log.Info("Controller handed off",
			logger.String("position", string(next)))
	}

	atcTurn := Turn{Role: RoleATC, Text: replyText, Position: position, Timestamp: time.Now().UTC()}
	session.Append(atcTurn)
	s.mu.Unlock()

	s.recordTranscript(session.AirportCode, atcTurn)
	if s.sinks.AnnounceController != nil {
		s.sinks.AnnounceController(session.AirportCode, position, persona, replyText)
	}
	if s.sinks.Speak != nil {
		s.sinks.Speak(replyText)
	}

	return Reply{Text: replyText, Position: position, Persona: persona}, nil
}

// activeSessionLocked resolves the tuned session and its airport entry.
// Callers must hold the mutex.
func (s *Service) activeSessionLocked() (*Session, airports.Airport, error) {
	if s.tuned == "" {
		return nil, airports.Airport{}, ErrNotTuned
	}
	session, ok := s.sessions.Get(s.tuned)
	if !ok {
		return nil, airports.Airport{}, ErrNotTuned
	}
	airport, err := s.directory.Lookup(s.tuned)
	if err != nil {
		return nil, airports.Airport{}, err
	}
	return session, airport, nil
}

// recomputeLocked refreshes the auto position when telemetry allows.
// Unavailable telemetry keeps the last effective position.
func (s *Service) recomputeLocked(session *Session, airport airports.Airport) {
	state, err := s.telemetry.State()
	if err != nil {
		s.logger.Debug("Telemetry unavailable, keeping last position",
			logger.String("airport", session.AirportCode))
		return
	}

	distance := s.distanceNM(state, airport)
	session.Selector.Recompute(state, distance)
}

func (s *Service) buildPromptLocked(session *Session, airport airports.Airport, pilotText string) string {
	in := PromptInput{
		AirportCode:     session.AirportCode,
		AirportLat:      airport.Lat,
		AirportLon:      airport.Lon,
		Position:        session.Selector.Effective(),
		History:         session.LastTurns(s.cfg.PromptHistoryTail),
		PilotText:       pilotText,
		GroundMaxAGLFt:  s.cfg.GroundMaxAGLFt,
		VicinityRangeNM: s.cfg.VicinityRangeNM,
	}

	if state, err := s.telemetry.State(); err == nil {
		in.State = &state
		in.DistanceNM = s.distanceNM(state, airport)
	}

	return BuildPrompt(in)
}

func (s *Service) distanceNM(state telemetry.AircraftState, airport airports.Airport) float64 {
	return geo.DistanceNM(state.Lat, state.Lon, airport.Lat, airport.Lon)
}

func (s *Service) recordTranscript(airport string, turn Turn) {
	if s.transcript == nil {
		return
	}
	if err := s.transcript.RecordTurn(airport, turn.Role, turn.Position, turn.Text, turn.Timestamp); err != nil {
		s.logger.Error("Failed to record transcript turn",
			logger.String("airport", airport),
			logger.Error(err))
	}
}
