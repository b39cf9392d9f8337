package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/avsim/atc-engine/internal/airports"
	"github.com/avsim/atc-engine/internal/atc"
	"github.com/avsim/atc-engine/internal/storage/sqlite"
	"github.com/avsim/atc-engine/internal/websocket"
	"github.com/avsim/atc-engine/pkg/logger"
)

const defaultTranscriptLimit = 100

// SimControl is implemented by the simulated telemetry source. It is nil
// when a real simulator feed is attached.
type SimControl interface {
	Release()
}

// Handler contains HTTP handler functions
type Handler struct {
	engine     *atc.Service
	transcript *sqlite.TranscriptStorage
	wsServer   *websocket.Server
	sim        SimControl
	logger     *logger.Logger
}

// NewHandler creates a new API handler. The transcript storage and sim
// control may be nil.
func NewHandler(engine *atc.Service, transcript *sqlite.TranscriptStorage, wsServer *websocket.Server, sim SimControl, log *logger.Logger) *Handler {
	return &Handler{
		engine:     engine,
		transcript: transcript,
		wsServer:   wsServer,
		sim:        sim,
		logger:     log.Named("api-handler"),
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("Failed to encode response", logger.Error(err))
	}
}

func (h *Handler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, errorResponse{Error: message})
}

type tuneRequest struct {
	Airport string `json:"airport"`
}

// TuneIn selects the active airport frequency
func (h *Handler) TuneIn(w http.ResponseWriter, r *http.Request) {
	var req tuneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Airport == "" {
		h.respondError(w, http.StatusBadRequest, "airport code required")
		return
	}

	result, err := h.engine.TuneIn(r.Context(), req.Airport)
	if err != nil {
		if errors.Is(err, airports.ErrNotFound) {
			h.respondError(w, http.StatusNotFound, err.Error())
			return
		}
		h.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.wsServer.Broadcast(&websocket.Message{
		Type: "tuned",
		Data: map[string]interface{}{
			"airport":  result.Airport.Code,
			"position": result.Position,
			"resumed":  result.Resumed,
		},
	})

	h.respondJSON(w, http.StatusOK, result)
}

type pilotMessageRequest struct {
	Text string `json:"text"`
}

// PilotMessage runs one pilot transmission through the engine
func (h *Handler) PilotMessage(w http.ResponseWriter, r *http.Request) {
	var req pilotMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Text == "" {
		h.respondError(w, http.StatusBadRequest, "message text required")
		return
	}

	reply, err := h.engine.HandlePilotMessage(r.Context(), req.Text)
	if err != nil {
		if errors.Is(err, atc.ErrNotTuned) {
			h.respondError(w, http.StatusConflict, err.Error())
			return
		}
		h.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.wsServer.Broadcast(&websocket.Message{
		Type: "atc_reply",
		Data: map[string]interface{}{
			"text":        reply.Text,
			"position":    reply.Position,
			"controller":  reply.Persona.FullName(),
			"fallback":    reply.Fallback,
			"switch_only": reply.SwitchOnly,
		},
	})

	h.respondJSON(w, http.StatusOK, reply)
}

type positionRequest struct {
	Position string `json:"position"`
}

// SetPosition pins or unpins the controller position
func (h *Handler) SetPosition(w http.ResponseWriter, r *http.Request) {
	var req positionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	position, err := atc.ParsePosition(req.Position)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	effective, err := h.engine.SetOverride(position)
	if err != nil {
		if errors.Is(err, atc.ErrNotTuned) {
			h.respondError(w, http.StatusConflict, err.Error())
			return
		}
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.wsServer.Broadcast(&websocket.Message{
		Type: "position_changed",
		Data: map[string]interface{}{
			"override": position,
			"position": effective,
		},
	})

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"override": position,
		"position": effective,
	})
}

// GetSession returns the active session snapshot
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	view, err := h.engine.Session()
	if err != nil {
		if errors.Is(err, atc.ErrNotTuned) {
			h.respondError(w, http.StatusNotFound, err.Error())
			return
		}
		h.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.respondJSON(w, http.StatusOK, view)
}

// GetNearest returns the closest airport to the aircraft
func (h *Handler) GetNearest(w http.ResponseWriter, r *http.Request) {
	airport, distance, err := h.engine.NearestAirport()
	if err != nil {
		h.respondError(w, http.StatusNotFound, err.Error())
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"airport":     airport,
		"distance_nm": distance,
	})
}

// GetTranscripts returns stored conversation turns
func (h *Handler) GetTranscripts(w http.ResponseWriter, r *http.Request) {
	if h.transcript == nil {
		h.respondError(w, http.StatusNotFound, "transcript storage disabled")
		return
	}

	limit := defaultTranscriptLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			h.respondError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	var (
		records []*sqlite.TranscriptRecord
		err     error
	)
	if airport := r.URL.Query().Get("airport"); airport != "" {
		records, err = h.transcript.GetByAirport(airport, limit)
	} else {
		records, err = h.transcript.GetRecent(limit)
	}
	if err != nil {
		h.logger.Error("Failed to query transcripts", logger.Error(err))
		h.respondError(w, http.StatusInternalServerError, "failed to query transcripts")
		return
	}
	if records == nil {
		records = []*sqlite.TranscriptRecord{}
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"transcripts": records,
		"count":       len(records),
	})
}

// GetHealth returns service health
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":     "ok",
		"tuned":      h.engine.TunedAirport(),
		"ws_clients": h.wsServer.ClientCount(),
	})
}

// ReleaseSimAircraft starts the simulated aircraft's departure
func (h *Handler) ReleaseSimAircraft(w http.ResponseWriter, r *http.Request) {
	if h.sim == nil {
		h.respondError(w, http.StatusNotFound, "simulated telemetry not active")
		return
	}

	h.sim.Release()
	h.respondJSON(w, http.StatusOK, map[string]interface{}{"released": true})
}

// HandleWebSocket upgrades the connection and registers the client
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	h.wsServer.Handler().ServeHTTP(w, r)
}
