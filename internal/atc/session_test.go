package atc

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avsim/atc-engine/internal/config"
)

func TestSessionHistoryEviction(t *testing.T) {
	cfg := config.Default().ATC
	require.Equal(t, 20, cfg.MaxHistoryEntries)

	s := newSession("KSEA", cfg)
	for i := 0; i < 25; i++ {
		s.Append(Turn{
			Role:      RolePilot,
			Text:      fmt.Sprintf("message %d", i),
			Position:  PositionTower,
			Timestamp: time.Now().UTC(),
		})
	}

	history := s.History()
	require.Len(t, history, 20)
	assert.Equal(t, "message 5", history[0].Text)
	assert.Equal(t, "message 24", history[19].Text)
}

func TestSessionHistoryReturnsCopy(t *testing.T) {
	s := newSession("KSEA", config.Default().ATC)
	s.Append(Turn{Role: RolePilot, Text: "original"})

	history := s.History()
	history[0].Text = "mutated"

	assert.Equal(t, "original", s.History()[0].Text)
}

func TestSessionLastTurns(t *testing.T) {
	s := newSession("KSEA", config.Default().ATC)
	for i := 0; i < 6; i++ {
		s.Append(Turn{Role: RolePilot, Text: fmt.Sprintf("message %d", i)})
	}

	tail := s.LastTurns(4)
	require.Len(t, tail, 4)
	assert.Equal(t, "message 2", tail[0].Text)
	assert.Equal(t, "message 5", tail[3].Text)

	// Asking for more than available returns everything.
	assert.Len(t, s.LastTurns(100), 6)
}

func TestSessionStorePreservesSessions(t *testing.T) {
	store := NewSessionStore(config.Default().ATC)

	first, existed := store.GetOrCreate("KSEA")
	assert.False(t, existed)
	first.Append(Turn{Role: RolePilot, Text: "request taxi"})

	// Tuning away and back keeps the history.
	_, existed = store.GetOrCreate("KPDX")
	assert.False(t, existed)

	again, existed := store.GetOrCreate("KSEA")
	assert.True(t, existed)
	require.Len(t, again.History(), 1)
	assert.Equal(t, "request taxi", again.History()[0].Text)

	assert.Equal(t, 2, store.Count())
}
