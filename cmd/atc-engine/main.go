package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/avsim/atc-engine/internal/airports"
	"github.com/avsim/atc-engine/internal/api"
	"github.com/avsim/atc-engine/internal/atc"
	"github.com/avsim/atc-engine/internal/completion"
	"github.com/avsim/atc-engine/internal/config"
	"github.com/avsim/atc-engine/internal/persona"
	"github.com/avsim/atc-engine/internal/storage/sqlite"
	"github.com/avsim/atc-engine/internal/telemetry"
	"github.com/avsim/atc-engine/internal/telemetry/simsource"
	"github.com/avsim/atc-engine/internal/websocket"
	"github.com/avsim/atc-engine/pkg/logger"
)

const hostTickInterval = 5 * time.Second

func main() {
	configPath := flag.String("config", "config.toml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting ATC session engine",
		logger.String("config", *configPath))

	directory, err := airports.LoadDirectory(cfg.Airports.DBPath, log)
	if err != nil {
		log.WithError(err).Warn("Failed to load airport directory, starting empty",
			logger.String("path", cfg.Airports.DBPath))
		directory = airports.NewDirectory(nil, log)
	}
	log.Info("Airport directory loaded", logger.Int("airports", directory.Count()))

	var transcriptStorage *sqlite.TranscriptStorage
	if cfg.Storage.Enabled {
		db, err := sqlite.Open(cfg.Storage.DBPath)
		if err != nil {
			log.Error("Failed to open transcript database", logger.Error(err))
			os.Exit(1)
		}
		defer db.Close()
		transcriptStorage = sqlite.NewTranscriptStorage(db, log)
	}

	var telemetrySource telemetry.Source
	var sim *simsource.Source
	switch cfg.Telemetry.Source {
	case "sim":
		sim = simsource.New(cfg.Telemetry.SimStartLat, cfg.Telemetry.SimStartLon,
			cfg.Telemetry.SimFieldElevationFt, cfg.Telemetry.SimStartOnGround, log)
		telemetrySource = sim
	default:
		log.Error("Unknown telemetry source", logger.String("source", cfg.Telemetry.Source))
		os.Exit(1)
	}

	wsServer := websocket.NewServer(log)

	sinks := atc.Sinks{
		AnnouncePilot: func(info telemetry.AircraftInfo, text string) {
			wsServer.Broadcast(&websocket.Message{
				Type: "pilot_message",
				Data: map[string]interface{}{
					"callsign": info.Callsign,
					"text":     text,
				},
			})
		},
		AnnounceController: func(airport string, position atc.Position, p atc.Persona, text string) {
			wsServer.Broadcast(&websocket.Message{
				Type: "controller_message",
				Data: map[string]interface{}{
					"airport":    airport,
					"position":   position,
					"controller": p.FullName(),
					"text":       text,
				},
			})
		},
	}

	engine := atc.NewService(
		directory,
		telemetrySource,
		completion.New(cfg.OpenAI, log),
		persona.New(cfg.Persona, log),
		transcriptAdapter(transcriptStorage),
		sinks,
		cfg.ATC,
		cfg.Airports.NearestMaxRangeNM,
		log,
	)

	router := api.NewRouter(engine, transcriptStorage, wsServer, simAdapter(sim), cfg, log)
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Routes(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSec) * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go runHostTimers(ctx, engine, sim, wsServer, log)

	go func() {
		log.Info("HTTP server listening", logger.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server failed", logger.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown failed", logger.Error(err))
	}
}

// runHostTimers drives the engine's periodic work: advancing the simulated
// aircraft, refreshing the auto-selected position and checking for
// nearest-airport changes. The engine itself defines no timers.
func runHostTimers(ctx context.Context, engine *atc.Service, sim *simsource.Source, wsServer *websocket.Server, log *logger.Logger) {
	ticker := time.NewTicker(hostTickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if sim != nil {
			sim.Tick()
		}

		if engine.TunedAirport() != "" {
			if position, err := engine.RecomputePosition(); err == nil {
				wsServer.Broadcast(&websocket.Message{
					Type: "position_update",
					Data: map[string]interface{}{"position": position},
				})
			}
		}

		advisory, err := engine.NearestAdvisory()
		if err != nil || advisory == nil {
			continue
		}
		log.Info("Nearest airport changed",
			logger.String("airport", advisory.Airport.Code),
			logger.Float64("distance_nm", advisory.DistanceNM))
		wsServer.Broadcast(&websocket.Message{
			Type: "nearest_airport",
			Data: map[string]interface{}{
				"airport":     advisory.Airport,
				"distance_nm": advisory.DistanceNM,
			},
		})
	}
}

// simAdapter returns the simulated source as the API's sim control,
// keeping the nil case a true nil interface value.
func simAdapter(sim *simsource.Source) api.SimControl {
	if sim == nil {
		return nil
	}
	return sim
}

// transcriptAdapter returns the storage as the engine's recorder interface,
// keeping the nil case a true nil interface value.
func transcriptAdapter(storage *sqlite.TranscriptStorage) atc.TranscriptRecorder {
	if storage == nil {
		return nil
	}
	return storage
}
