package main

import "sort"

// LeaderboardEntry is one row of the kill ranking
type LeaderboardEntry struct {
	ID       string `json:"id" msgpack:"id"`
	Username string `json:"username" msgpack:"username"`
	Kills    int    `json:"kills" msgpack:"kills"`
}

// Leaderboard ranks players by kills, highest first. Ties keep join order.
func Leaderboard(players []*PlayerState) []LeaderboardEntry {
	sorted := make([]*PlayerState, len(players))
	copy(sorted, players)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Kills != sorted[j].Kills {
			return sorted[i].Kills > sorted[j].Kills
		}
		return sorted[i].joinSeq < sorted[j].joinSeq
	})
	out := make([]LeaderboardEntry, len(sorted))
	for i, p := range sorted {
		out[i] = LeaderboardEntry{ID: p.ID, Username: p.Name, Kills: p.Kills}
	}
	return out
}
