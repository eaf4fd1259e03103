package main

import "encoding/json"

// Client -> Server message types
const (
	MsgJoin    = "join"    // enter the world (or return from the menu)
	MsgLeave   = "leave"   // back to menu; keeps the player and its kills
	MsgMove    = "move"    // position + rotation, ~20Hz
	MsgFire    = "fire"    // laser shot
	MsgDestroy = "destroy" // voxel destroyed on a celestial body
	MsgRespawn = "respawn"
	MsgChat    = "chat"
	MsgPong    = "pong" // application-level heartbeat reply
)

// Server -> Client message types
const (
	MsgInit        = "init" // connection id + provisional spawn
	MsgTime        = "time"
	MsgRoom        = "room" // snapshot for a fresh joiner
	MsgJoined      = "joined"
	MsgMoved       = "moved"
	MsgLeft        = "left"
	MsgRespawned   = "respawned"
	MsgHit         = "hit"
	MsgDied        = "died"
	MsgKill        = "kill"
	MsgShot        = "shot"
	MsgVoxel       = "voxel"
	MsgReset       = "reset"
	MsgCount       = "count"
	MsgLeaderboard = "leaderboard"
	MsgRespawnOK   = "respawn"
	MsgFull        = "full"
)

// Envelope wraps all outgoing messages with a type field
type Envelope struct {
	T    string      `json:"t" msgpack:"t"`
	Data interface{} `json:"d,omitempty" msgpack:"d,omitempty"`
}

// InEnvelope is used for incoming messages; D stays raw until the kind is known
type InEnvelope struct {
	T string          `json:"t"`
	D json.RawMessage `json:"d,omitempty"`
}

// --- inbound payloads ---

// JoinMsg is sent when the pilot leaves the menu
type JoinMsg struct {
	Ship string `json:"ship,omitempty" jsonschema:"description=Requested ship archetype; unknown values fall back to default"`
	Name string `json:"name,omitempty" jsonschema:"description=Display name (1-10 of A-Z a-z 0-9 _ -)"`
}

// MoveMsg carries the client's view of its own ship
type MoveMsg struct {
	Position *Vec3 `json:"position" jsonschema:"required"`
	Rotation *Vec3 `json:"rotation" jsonschema:"required"`
}

// FireMsg is a laser shot from Origin toward Target
type FireMsg struct {
	Origin *Vec3  `json:"origin" jsonschema:"required"`
	Target *Vec3  `json:"target" jsonschema:"required,description=Visual end point of the shot"`
	Ship   string `json:"ship" jsonschema:"required"`
}

// DestroyMsg reports one destroyed voxel
type DestroyMsg struct {
	BodyID string `json:"bodyId" jsonschema:"required,minLength=1"`
	UnitID *int64 `json:"unitId" jsonschema:"required,minimum=0"`
}

// ChatMsg is a chat line typed by the pilot
type ChatMsg struct {
	Message string `json:"message" jsonschema:"required,maxLength=200"`
}

// PongMsg answers a server time probe
type PongMsg struct {
	ClientTime int64 `json:"clientTime,omitempty"`
}

// --- outbound payloads ---

// InitMsg is the first message on every accepted connection
type InitMsg struct {
	ID       string `json:"id"`
	Position Vec3   `json:"position"`
}

// TimeMsg carries the server clock in unix milliseconds
type TimeMsg struct {
	Timestamp  int64 `json:"timestamp"`
	ClientTime int64 `json:"clientTime,omitempty"`
}

// PlayerInfo is the public view of a player
type PlayerInfo struct {
	ID       string `json:"id" msgpack:"id"`
	Position Vec3   `json:"position" msgpack:"p"`
	Rotation Vec3   `json:"rotation" msgpack:"r"`
	Ship     string `json:"ship,omitempty" msgpack:"s,omitempty"`
	Name     string `json:"username,omitempty" msgpack:"n,omitempty"`
}

// RoomMsg is the private snapshot sent to a joiner
type RoomMsg struct {
	Players   map[string]PlayerInfo `json:"players"`
	Destroyed map[string][]int64    `json:"destroyed"`
}

// IDMsg names a single player
type IDMsg struct {
	ID string `json:"id"`
}

// HitMsg announces that a player was shot down; the shooter is not named
type HitMsg struct {
	TargetID string `json:"targetId"`
}

// DiedMsg tells the victim its score at death
type DiedMsg struct {
	FinalKills int `json:"finalKills"`
}

// KillMsg confirms a kill to the shooter
type KillMsg struct {
	VictimID string `json:"victimId"`
	Points   int    `json:"points"`
	Kills    int    `json:"kills"`
}

// ShotMsg is the visual-only relay of a laser shot
type ShotMsg struct {
	PlayerID string `json:"playerId"`
	Origin   Vec3   `json:"origin"`
	Target   Vec3   `json:"target"`
	Ship     string `json:"ship"`
}

// VoxelMsg announces a destroyed voxel to everyone
type VoxelMsg struct {
	BodyID string `json:"bodyId"`
	UnitID int64  `json:"unitId"`
	By     string `json:"by"`
}

// RespawnOKMsg is the private respawn confirmation
type RespawnOKMsg struct {
	Position Vec3 `json:"position"`
	Kills    int  `json:"kills"`
}

// CountMsg carries the number of joined players
type CountMsg struct {
	Count int `json:"count"`
}

// ChatOutMsg is a chat line relayed to the world
type ChatOutMsg struct {
	Username  string `json:"username"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
	SenderID  string `json:"senderId"`
}

// FullMsg explains a capacity rejection
type FullMsg struct {
	Message string `json:"message"`
}
