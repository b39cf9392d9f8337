package airports

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/avsim/atc-engine/internal/geo"
	"github.com/avsim/atc-engine/pkg/logger"
)

// ErrNotFound is returned when an airport code is not in the directory.
// It is an expected condition: callers branch on it rather than treating
// it as a failure.
var ErrNotFound = errors.New("airport not found")

// Airport represents a single airport entry. Entries are immutable for the
// lifetime of the directory.
type Airport struct {
	Code string  `json:"code"`
	Name string  `json:"name,omitempty"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

// Directory is a read-only airport lookup keyed by ICAO code.
type Directory struct {
	byCode map[string]Airport
	order  []string
	logger *logger.Logger
}

// directoryEntry is the on-disk JSON shape: code -> entry.
type directoryEntry struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

// NewDirectory builds a directory from a code-keyed airport map.
func NewDirectory(airports map[string]Airport, logger *logger.Logger) *Directory {
	d := &Directory{
		byCode: make(map[string]Airport, len(airports)),
		order:  make([]string, 0, len(airports)),
		logger: logger.Named("airports"),
	}

	for code, ap := range airports {
		normalized := strings.ToUpper(strings.TrimSpace(code))
		if normalized == "" {
			continue
		}
		ap.Code = normalized
		d.byCode[normalized] = ap
		d.order = append(d.order, normalized)
	}

	return d
}

// LoadDirectory loads the airport database from a JSON file.
func LoadDirectory(path string, log *logger.Logger) (*Directory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read airport database %s: %w", path, err)
	}

	var entries map[string]directoryEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse airport database %s: %w", path, err)
	}

	airports := make(map[string]Airport, len(entries))
	for code, e := range entries {
		airports[code] = Airport{
			Name: e.Name,
			Lat:  e.Lat,
			Lon:  e.Lon,
		}
	}

	dir := NewDirectory(airports, log)
	dir.logger.Info("Loaded airport database",
		logger.String("path", path),
		logger.Int("count", dir.Count()))

	return dir, nil
}

// Count returns the number of airports in the directory.
func (d *Directory) Count() int {
	return len(d.byCode)
}

// Lookup returns the airport for the given code. Codes are normalized to
// uppercase before matching. Returns ErrNotFound when the code is absent.
func (d *Directory) Lookup(code string) (Airport, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	ap, ok := d.byCode[normalized]
	if !ok {
		return Airport{}, fmt.Errorf("%w: %s", ErrNotFound, normalized)
	}
	return ap, nil
}

// Nearest scans the directory and returns the closest airport to the given
// position along with its distance, excluding entries at or beyond
// maxRadiusNM. The second return value is false when no airport qualifies.
//
// Ties resolve to whichever entry is encountered first in directory
// iteration order.
func (d *Directory) Nearest(lat, lon, maxRadiusNM float64) (Airport, float64, bool) {
	minDistance := maxRadiusNM
	var nearest Airport
	found := false

	for _, code := range d.order {
		ap := d.byCode[code]
		distance := geo.DistanceNM(lat, lon, ap.Lat, ap.Lon)
		if distance < minDistance {
			minDistance = distance
			nearest = ap
			found = true
		}
	}

	if !found {
		return Airport{}, 0, false
	}
	return nearest, minDistance, true
}
