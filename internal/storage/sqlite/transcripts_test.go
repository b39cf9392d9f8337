package sqlite

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avsim/atc-engine/internal/atc"
	"github.com/avsim/atc-engine/pkg/logger"
)

func testStorage(t *testing.T) *TranscriptStorage {
	t.Helper()

	log, err := logger.New(logger.Config{Level: "error", Format: "console"})
	require.NoError(t, err)

	db, err := Open(filepath.Join(t.TempDir(), "transcripts.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewTranscriptStorage(db, log)
}

func TestRecordAndGetByAirport(t *testing.T) {
	storage := testStorage(t)
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, storage.RecordTurn("KSEA", atc.RolePilot, atc.PositionGround, "request taxi", now))
	require.NoError(t, storage.RecordTurn("KSEA", atc.RoleATC, atc.PositionGround, "Taxi via Alpha.", now.Add(time.Second)))
	require.NoError(t, storage.RecordTurn("KPDX", atc.RolePilot, atc.PositionTower, "radio check", now))

	records, err := storage.GetByAirport("KSEA", 10)
	require.NoError(t, err)
	require.Len(t, records, 2)

	// Newest first.
	assert.Equal(t, "Taxi via Alpha.", records[0].Text)
	assert.Equal(t, "atc", records[0].Role)
	assert.Equal(t, "ground", records[0].Position)
	assert.Equal(t, "request taxi", records[1].Text)
	assert.True(t, records[0].Timestamp.Equal(now.Add(time.Second)))
}

func TestGetRecentSpansAirports(t *testing.T) {
	storage := testStorage(t)
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, storage.RecordTurn("KSEA", atc.RolePilot, atc.PositionGround, "first", now))
	require.NoError(t, storage.RecordTurn("KPDX", atc.RolePilot, atc.PositionTower, "second", now.Add(time.Second)))

	records, err := storage.GetRecent(1)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "KPDX", records[0].Airport)
}
