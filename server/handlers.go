package main

import (
	"encoding/json"
	"slices"
	"strings"
)

func decode(raw json.RawMessage, v interface{}) bool {
	if len(raw) == 0 {
		return true
	}
	return json.Unmarshal(raw, v) == nil
}

func pickShip(ship string) string {
	if slices.Contains(ValidShips, ship) {
		return ship
	}
	return DefaultShip
}

func pickName(name, conn string) string {
	if ValidDisplayName(name) {
		return strings.TrimSpace(name)
	}
	return DefaultName(conn)
}

func (c *Coordinator) dropped(conn, kind, reason string) []Outbound {
	c.log.Debug().Str("conn", conn).Str("kind", kind).Str("reason", reason).Msg("event dropped")
	return nil
}

func (c *Coordinator) handleJoin(tx *txn, conn string, raw json.RawMessage) []Outbound {
	var msg JoinMsg
	if !decode(raw, &msg) {
		return c.dropped(conn, MsgJoin, "malformed")
	}
	w := tx.w
	ship := pickShip(msg.Ship)

	if p := w.Player(conn); p != nil {
		if p.Ready {
			return nil
		}
		// back from the menu: same player, same kills, same name unless a valid one is sent
		tx.touch(p)
		p.Ready = true
		p.Ship = ship
		if ValidDisplayName(msg.Name) {
			p.Name = strings.TrimSpace(msg.Name)
		}
		w.refreshSphere(conn)
		return c.enterWorld(tx, p)
	}

	if w.JoinedCount() >= c.cfg.Limits.MaxPlayers {
		tx.audit(EvtReject, conn, "players")
		c.log.Info().Str("conn", conn).Err(ErrCapacity).Msg("join rejected")
		return []Outbound{One(conn, MsgFull, FullMsg{Message: "Server is full"}).AndClose()}
	}
	entry, ok := tx.takePending(conn)
	if !ok {
		c.log.Warn().Str("conn", conn).Err(ErrNoPending).Msg("closing connection")
		return []Outbound{Drop(conn)}
	}
	name := pickName(msg.Name, conn)

	p := &PlayerState{
		ID:       conn,
		Position: entry.Position,
		Ship:     ship,
		Name:     name,
		Alive:    true,
		Ready:    true,
	}
	tx.addPlayer(p)
	tx.audit(EvtJoin, conn, name)
	c.log.Info().Str("conn", conn).Str("name", name).Str("ship", ship).Msg("player joined")
	return c.enterWorld(tx, p)
}

func (c *Coordinator) enterWorld(tx *txn, p *PlayerState) []Outbound {
	w := tx.w
	outs := []Outbound{
		One(p.ID, MsgRoom, RoomMsg{
			Players:   w.readyRoster(p.ID),
			Destroyed: w.DestroyedSnapshot(),
		}),
	}
	if p.Alive {
		outs = append(outs, Others(p.ID, MsgJoined, p.Info()))
	}
	return append(outs,
		All(MsgCount, CountMsg{Count: w.JoinedCount()}),
		c.leaderboard(w),
	)
}

func (c *Coordinator) handleLeave(tx *txn, conn string, _ json.RawMessage) []Outbound {
	p := tx.w.Player(conn)
	if p == nil || !p.Ready {
		return nil
	}
	tx.touch(p)
	p.Ready = false
	tx.w.refreshSphere(conn)
	return []Outbound{Others(conn, MsgLeft, IDMsg{ID: conn})}
}

func (c *Coordinator) handleMove(tx *txn, conn string, raw json.RawMessage) []Outbound {
	if !c.limiter.Allow(conn, KindMove, tx.now) {
		return nil
	}
	var msg MoveMsg
	if !decode(raw, &msg) || !ValidVector(msg.Position) || !ValidVector(msg.Rotation) {
		return c.dropped(conn, MsgMove, "invalid vector")
	}
	if !InBounds(*msg.Position, c.cfg.World.Bound) {
		return c.dropped(conn, MsgMove, "out of bounds")
	}
	p := tx.w.Player(conn)
	if p == nil {
		return c.dropped(conn, MsgMove, "not joined")
	}
	if !p.Alive {
		return c.dropped(conn, MsgMove, "dead")
	}
	if !p.lastMoveAt.IsZero() {
		elapsed := tx.now.Sub(p.lastMoveAt)
		if !c.cfg.Move.DisplacementAllowed(p.Position, *msg.Position, elapsed) {
			c.log.Debug().
				Str("conn", conn).
				Float64("x", round2(msg.Position.X)).
				Float64("y", round2(msg.Position.Y)).
				Float64("z", round2(msg.Position.Z)).
				Dur("elapsed", elapsed).
				Msg("displacement rejected")
			return nil
		}
	}

	tx.touch(p)
	p.Position = *msg.Position
	p.Rotation = *msg.Rotation
	p.lastMoveAt = tx.now
	tx.w.refreshSphere(conn)
	if !p.Ready {
		return nil
	}
	return []Outbound{Others(conn, MsgMoved, p.Info()).Droppable()}
}

func (c *Coordinator) handleFire(tx *txn, conn string, raw json.RawMessage) []Outbound {
	if !c.limiter.Allow(conn, KindFire, tx.now) {
		return nil
	}
	var msg FireMsg
	if !decode(raw, &msg) || !ValidVector(msg.Origin) || !ValidVector(msg.Target) {
		return c.dropped(conn, MsgFire, "invalid vector")
	}
	w := tx.w
	shooter := w.Player(conn)
	if shooter == nil || !shooter.Alive || !shooter.Ready {
		return c.dropped(conn, MsgFire, "shooter not in play")
	}
	if !OriginNear(*msg.Origin, shooter.Position, c.cfg.World.OriginToleranceSq) {
		return c.dropped(conn, MsgFire, "origin too far from ship")
	}

	ship := shooter.Ship
	if slices.Contains(ValidShips, msg.Ship) {
		ship = msg.Ship
	}
	outs := []Outbound{Others(conn, MsgShot, ShotMsg{
		PlayerID: conn,
		Origin:   *msg.Origin,
		Target:   *msg.Target,
		Ship:     ship,
	})}

	ray := msg.Target.Sub(*msg.Origin)
	dir, ok := Normalize(ray)
	if !ok {
		return outs
	}
	victimID, hit := ResolveHit(*msg.Origin, dir, ray.Len(), conn, w.Candidates())
	if !hit {
		return outs
	}

	victim := w.Player(victimID)
	tx.touch(victim)
	tx.touch(shooter)
	ApplyKill(w, shooter, victim)

	tx.audit(EvtKill, conn, victimID)
	c.log.Info().Str("shooter", conn).Str("victim", victimID).Int("kills", shooter.Kills).Msg("kill")
	return append(outs,
		One(victimID, MsgDied, DiedMsg{FinalKills: victim.Kills}),
		All(MsgHit, HitMsg{TargetID: victimID}),
		One(conn, MsgKill, KillMsg{VictimID: victimID, Points: killPoints, Kills: shooter.Kills}),
		c.leaderboard(w),
	)
}

func (c *Coordinator) handleRespawn(tx *txn, conn string, _ json.RawMessage) []Outbound {
	p := tx.w.Player(conn)
	if p == nil || p.Alive {
		return nil
	}
	if !c.limiter.Allow(conn, KindRespawn, tx.now) {
		return nil
	}
	tx.touch(p)
	RespawnPlayer(tx.w, p, c.spawn(), tx.now)

	outs := []Outbound{One(conn, MsgRespawnOK, RespawnOKMsg{Position: p.Position, Kills: 0})}
	if p.Ready {
		outs = append(outs, Others(conn, MsgRespawned, p.Info()))
	}
	return append(outs, c.leaderboard(tx.w))
}

func (c *Coordinator) handleDestroy(tx *txn, conn string, raw json.RawMessage) []Outbound {
	if !c.limiter.Allow(conn, KindDestroy, tx.now) {
		return nil
	}
	var msg DestroyMsg
	if !decode(raw, &msg) || !ValidUnit(msg.BodyID, msg.UnitID) {
		return c.dropped(conn, MsgDestroy, "invalid unit")
	}
	p := tx.w.Player(conn)
	if p == nil || !p.Alive || !p.Ready {
		return c.dropped(conn, MsgDestroy, "not in play")
	}
	if !tx.markDestroyed(msg.BodyID, *msg.UnitID) {
		return nil
	}
	return []Outbound{All(MsgVoxel, VoxelMsg{BodyID: msg.BodyID, UnitID: *msg.UnitID, By: conn})}
}

func (c *Coordinator) handleChat(tx *txn, conn string, raw json.RawMessage) []Outbound {
	if !c.limiter.Allow(conn, KindChat, tx.now) {
		return nil
	}
	var msg ChatMsg
	if !decode(raw, &msg) {
		return c.dropped(conn, MsgChat, "malformed")
	}
	text, ok := SanitizeChat(msg.Message)
	if !ok {
		return nil
	}
	name := DefaultName(conn)
	if p := tx.w.Player(conn); p != nil {
		name = p.Name
	}
	return []Outbound{All(MsgChat, ChatOutMsg{
		Username:  name,
		Message:   text,
		Timestamp: tx.now.UnixMilli(),
		SenderID:  conn,
	})}
}

func (c *Coordinator) handlePong(tx *txn, conn string, raw json.RawMessage) []Outbound {
	var msg PongMsg
	decode(raw, &msg)
	return []Outbound{One(conn, MsgTime, TimeMsg{Timestamp: tx.now.UnixMilli(), ClientTime: msg.ClientTime})}
}
