// Package persona fetches controller personas from the randomuser.me API.
// Requests are seeded so the same airport, position and calendar day always
// yield the same controller.
package persona

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/avsim/atc-engine/internal/atc"
	"github.com/avsim/atc-engine/internal/config"
	"github.com/avsim/atc-engine/pkg/logger"
)

// Generator implements atc.PersonaGenerator against the randomuser.me API.
// It makes exactly one attempt per call; the engine's fallback pool covers
// failures.
type Generator struct {
	baseURL string
	client  *http.Client
	logger  *logger.Logger
}

// New creates a generator from the persona config section.
func New(cfg config.PersonaConfig, log *logger.Logger) *Generator {
	return &Generator{
		baseURL: cfg.GeneratorURL,
		client: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
		logger: log.Named("persona-api"),
	}
}

// randomUserResponse mirrors the subset of the randomuser.me payload we
// read.
type randomUserResponse struct {
	Results []struct {
		Name struct {
			First string `json:"first"`
			Last  string `json:"last"`
		} `json:"name"`
		Location struct {
			City    string `json:"city"`
			Country string `json:"country"`
		} `json:"location"`
	} `json:"results"`
}

// Generate requests one seeded persona. The seed is code-position-date so
// every controller at an airport keeps their identity for the day.
func (g *Generator) Generate(ctx context.Context, airportCode string, position atc.Position, date string) (atc.Persona, error) {
	seed := fmt.Sprintf("%s-%s-%s", airportCode, position, date)
	reqURL := fmt.Sprintf("%s?seed=%s&inc=name,location&noinfo", g.baseURL, url.QueryEscape(seed))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return atc.Persona{}, fmt.Errorf("failed to create persona request: %w", err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return atc.Persona{}, fmt.Errorf("persona request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return atc.Persona{}, fmt.Errorf("persona API returned status %d", resp.StatusCode)
	}

	var payload randomUserResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return atc.Persona{}, fmt.Errorf("failed to decode persona response: %w", err)
	}
	if len(payload.Results) == 0 {
		return atc.Persona{}, fmt.Errorf("persona API returned no results")
	}

	result := payload.Results[0]
	persona := atc.Persona{
		FirstName: result.Name.First,
		LastName:  result.Name.Last,
		City:      result.Location.City,
		Country:   result.Location.Country,
	}

	g.logger.Debug("Fetched persona",
		logger.String("seed", seed),
		logger.String("name", persona.FullName()))

	return persona, nil
}
