package persona

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avsim/atc-engine/internal/atc"
	"github.com/avsim/atc-engine/internal/config"
	"github.com/avsim/atc-engine/pkg/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(logger.Config{Level: "error", Format: "console"})
	require.NoError(t, err)
	return log
}

func newTestGenerator(t *testing.T, handler http.HandlerFunc) *Generator {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := config.Default().Persona
	cfg.GeneratorURL = server.URL
	return New(cfg, testLogger(t))
}

func TestGenerate(t *testing.T) {
	var gotSeed string
	gen := newTestGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		gotSeed = r.URL.Query().Get("seed")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results":[{"name":{"first":"Sarah","last":"Mitchell"},"location":{"city":"Seattle","country":"United States"}}]}`))
	})

	persona, err := gen.Generate(context.Background(), "KSEA", atc.PositionTower, "2026-08-30")
	require.NoError(t, err)
	assert.Equal(t, "KSEA-tower-2026-08-30", gotSeed)
	assert.Equal(t, "Sarah Mitchell", persona.FullName())
	assert.Equal(t, "Seattle", persona.City)
	assert.Equal(t, "United States", persona.Country)
}

func TestGenerateServerError(t *testing.T) {
	gen := newTestGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := gen.Generate(context.Background(), "KSEA", atc.PositionTower, "2026-08-30")
	assert.Error(t, err)
}

func TestGenerateEmptyResults(t *testing.T) {
	gen := newTestGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":[]}`))
	})

	_, err := gen.Generate(context.Background(), "KSEA", atc.PositionTower, "2026-08-30")
	assert.Error(t, err)
}
