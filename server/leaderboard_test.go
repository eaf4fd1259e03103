package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLeaderboardOrder(t *testing.T) {
	players := []*PlayerState{
		{ID: "a", Name: "A", Kills: 3, joinSeq: 1},
		{ID: "b", Name: "B", Kills: 5, joinSeq: 2},
		{ID: "c", Name: "C", Kills: 0, joinSeq: 3},
	}
	board := Leaderboard(players)
	assert.Equal(t, []LeaderboardEntry{
		{ID: "b", Username: "B", Kills: 5},
		{ID: "a", Username: "A", Kills: 3},
		{ID: "c", Username: "C", Kills: 0},
	}, board)

	// input is not reordered
	assert.Equal(t, "a", players[0].ID)
}

func TestLeaderboardTiesByJoinOrder(t *testing.T) {
	players := []*PlayerState{
		{ID: "late", Kills: 2, joinSeq: 9},
		{ID: "early", Kills: 2, joinSeq: 4},
	}
	board := Leaderboard(players)
	assert.Equal(t, "early", board[0].ID)
	assert.Equal(t, "late", board[1].ID)
}

func TestLeaderboardEmpty(t *testing.T) {
	assert.Empty(t, Leaderboard(nil))
}
