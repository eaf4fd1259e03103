package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyticsFlushOnStop(t *testing.T) {
	db, err := OpenDB(filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	defer db.Close()

	a := NewAnalytics(db)
	a.Track(EvtConnect, "c1", "1.2.3.4")
	a.Track(EvtJoin, "c1", "Ace")
	a.Track(EvtKill, "c1", "c2")
	a.Stop()

	rows, err := db.RecentEvents(10)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, EvtKill, rows[0].Type)
	assert.Equal(t, "c2", rows[0].Data)
	assert.Equal(t, EvtConnect, rows[2].Type)
	assert.Equal(t, "c1", rows[2].ConnID)
	assert.False(t, rows[2].CreatedAt.IsZero())

	counts, err := a.EventCounts(1)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{EvtConnect: 1, EvtJoin: 1, EvtKill: 1}, counts)
}

func TestAnalyticsWithoutDB(t *testing.T) {
	a := NewAnalytics(nil)
	a.Track(EvtReject, "", "")
	a.Stop()

	counts, err := a.EventCounts(1)
	assert.NoError(t, err)
	assert.Nil(t, counts)
}
