package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avsim/atc-engine/internal/airports"
	"github.com/avsim/atc-engine/internal/atc"
	"github.com/avsim/atc-engine/internal/config"
	"github.com/avsim/atc-engine/internal/telemetry"
	"github.com/avsim/atc-engine/internal/websocket"
	"github.com/avsim/atc-engine/pkg/logger"
)

type fixedTelemetry struct {
	state telemetry.AircraftState
}

func (f *fixedTelemetry) State() (telemetry.AircraftState, error) { return f.state, nil }
func (f *fixedTelemetry) Info() telemetry.AircraftInfo            { return telemetry.DefaultAircraftInfo() }

type fixedCompletion struct {
	reply string
}

func (f *fixedCompletion) Complete(ctx context.Context, prompt string) (string, error) {
	return f.reply, nil
}

func testServer(t *testing.T) *httptest.Server {
	t.Helper()

	log, err := logger.New(logger.Config{Level: "error", Format: "console"})
	require.NoError(t, err)

	cfg := config.Default()
	directory := airports.NewDirectory(map[string]airports.Airport{
		"KSEA": {Code: "KSEA", Name: "Seattle-Tacoma International", Lat: 47.4502, Lon: -122.3088},
	}, log)
	tel := &fixedTelemetry{state: telemetry.AircraftState{
		Lat: 47.4502, Lon: -122.3088,
		AltitudeMSLFt: 433, AltitudeAGLFt: 0, OnGround: true,
	}}
	engine := atc.NewService(directory, tel, &fixedCompletion{reply: "Taxi via Alpha."}, nil, nil,
		atc.Sinks{}, cfg.ATC, cfg.Airports.NearestMaxRangeNM, log)

	router := NewRouter(engine, nil, websocket.NewServer(log), nil, cfg, log)
	server := httptest.NewServer(router.Routes())
	t.Cleanup(server.Close)
	return server
}

func postJSON(t *testing.T, url string, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	defer resp.Body.Close()
	var payload map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	return payload
}

func TestTuneAndMessageFlow(t *testing.T) {
	server := testServer(t)

	resp := postJSON(t, server.URL+"/api/v1/atc/tune", `{"airport":"KSEA"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	tuned := decodeBody(t, resp)
	assert.Equal(t, "ground", tuned["position"])

	resp = postJSON(t, server.URL+"/api/v1/atc/message", `{"text":"request taxi to runway 16L"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	reply := decodeBody(t, resp)
	assert.Equal(t, "Taxi via Alpha.", reply["text"])
	assert.Equal(t, "ground", reply["position"])

	resp, err := http.Get(server.URL + "/api/v1/atc/session")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	session := decodeBody(t, resp)
	assert.Equal(t, "KSEA", session["airport_code"])
	assert.Len(t, session["history"], 2)
}

func TestTuneUnknownAirport(t *testing.T) {
	server := testServer(t)

	resp := postJSON(t, server.URL+"/api/v1/atc/tune", `{"airport":"ZZZZ"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestMessageWithoutTune(t *testing.T) {
	server := testServer(t)

	resp := postJSON(t, server.URL+"/api/v1/atc/message", `{"text":"radio check"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()
}

func TestSetPosition(t *testing.T) {
	server := testServer(t)

	resp := postJSON(t, server.URL+"/api/v1/atc/tune", `{"airport":"KSEA"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	req, err := http.NewRequest(http.MethodPut, server.URL+"/api/v1/atc/position",
		bytes.NewBufferString(`{"position":"tower"}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	payload := decodeBody(t, resp)
	assert.Equal(t, "tower", payload["position"])
}

func TestSetPositionInvalid(t *testing.T) {
	server := testServer(t)

	resp := postJSON(t, server.URL+"/api/v1/atc/tune", `{"airport":"KSEA"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	req, err := http.NewRequest(http.MethodPut, server.URL+"/api/v1/atc/position",
		bytes.NewBufferString(`{"position":"ramp"}`))
	require.NoError(t, err)

	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestNearest(t *testing.T) {
	server := testServer(t)

	resp, err := http.Get(server.URL + "/api/v1/atc/nearest")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	payload := decodeBody(t, resp)

	airport, ok := payload["airport"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "KSEA", airport["code"])
}

func TestHealth(t *testing.T) {
	server := testServer(t)

	resp, err := http.Get(server.URL + "/api/v1/health")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	payload := decodeBody(t, resp)
	assert.Equal(t, "ok", payload["status"])
}

func TestTranscriptsDisabled(t *testing.T) {
	server := testServer(t)

	resp, err := http.Get(server.URL + "/api/v1/transcripts")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}
