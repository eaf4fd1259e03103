package main

import "time"

// ApplyKill shoots victim down and credits shooter. The victim keeps its
// kills until it respawns.
func ApplyKill(w *World, shooter, victim *PlayerState) {
	victim.Alive = false
	w.refreshSphere(victim.ID)
	shooter.Kills++
}

// RespawnPlayer revives a dead player at pos with a clean score. The spawn
// counts as the last accepted move at now, so the next move is checked
// against it.
func RespawnPlayer(w *World, p *PlayerState, pos Vec3, now time.Time) {
	p.Position = pos
	p.Rotation = Vec3{}
	p.Alive = true
	p.Kills = 0
	p.lastMoveAt = now
	w.refreshSphere(p.ID)
}
