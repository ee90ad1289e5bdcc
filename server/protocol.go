package main

import "encoding/json"

// Client -> Server message types
const (
	MsgJoin     = "join"
	MsgLeave    = "leave"
	MsgCreate   = "create"   // create session
	MsgList     = "list"     // list sessions
	MsgCheck    = "check"    // check if session exists
	MsgResume   = "resume"   // reclaim a seat with a token
	MsgAim      = "aim"      // set launch angle
	MsgReady    = "ready"    // toggle readiness
	MsgContinue = "continue" // leave the result screen
	MsgForfeit  = "forfeit"  // concede the match
)

// Server -> Client message types
const (
	MsgState    = "state" // binary, msgpack encoded GameState
	MsgWelcome  = "welcome"
	MsgSessions = "sessions"
	MsgJoined   = "joined"
	MsgCreated  = "created" // session created, client should navigate
	MsgError    = "error"
	MsgChecked  = "checked" // session check response
	MsgHit      = "hit"     // a projectile struck a planet
	MsgRound    = "round"   // round resolved
	MsgPeer     = "peer"    // opponent connected / dropped
)

// Envelope wraps all outgoing messages with a type field
type Envelope struct {
	T    string      `json:"t"`
	Data interface{} `json:"d,omitempty"`
}

// InEnvelope is used for incoming messages; D is decoded per type
type InEnvelope struct {
	T string          `json:"t"`
	D json.RawMessage `json:"d,omitempty"`
}

// JoinMsg is sent when player wants to join a session
type JoinMsg struct {
	Name      string `json:"name"`
	SessionID string `json:"sid"`
	Pass      string `json:"pass,omitempty"`
}

// CreateMsg is sent when player wants to create a session
type CreateMsg struct {
	Name        string `json:"name"`
	SessionName string `json:"sname"`
	Pass        string `json:"pass,omitempty"`
}

// ResumeMsg reclaims a seat after a dropped connection
type ResumeMsg struct {
	Token string `json:"token"`
}

// AimMsg sets the launch angle in degrees
type AimMsg struct {
	Deg float64 `json:"deg"`
}

// ReadyMsg toggles readiness
type ReadyMsg struct {
	On bool `json:"on"`
}

// CheckMsg is sent by client to check if a session exists
type CheckMsg struct {
	SID string `json:"sid"`
}

// WelcomeMsg is sent to a player when they take a seat
type WelcomeMsg struct {
	ID    string `json:"id"`
	Seat  int    `json:"seat"`
	Token string `json:"token"`
}

// HitMsg announces a strike the tick it happens
type HitMsg struct {
	Attacker int `json:"a"`
	Defender int `json:"d"`
}

// RoundMsg carries an applied round result. Clients hold the winner
// banner back for DelayMs.
type RoundMsg struct {
	Round   int    `json:"round"`
	Outcome string `json:"outcome"`
	Lives   [2]int `json:"lives"`
	Winner  string `json:"winner"`
	Over    bool   `json:"over"`
	DelayMs int64  `json:"delay_ms"`
}

// PeerMsg tells a player whether the other seat is connected
type PeerMsg struct {
	Seat   int    `json:"seat"`
	Name   string `json:"name"`
	Online bool   `json:"online"`
}

// SessionInfo is used in the session list
type SessionInfo struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Players int    `json:"players"`
	Locked  bool   `json:"locked"`
}

// ErrorMsg sends error to client
type ErrorMsg struct {
	Msg string `json:"msg"`
}

// CheckedMsg is the response to a session check
type CheckedMsg struct {
	SID     string `json:"sid"`
	Exists  bool   `json:"exists"`
	Name    string `json:"name,omitempty"`
	Players int    `json:"players,omitempty"`
	Locked  bool   `json:"locked,omitempty"`
}

// PlanetState is a home planet in a state frame
type PlanetState struct {
	Seat      int     `msgpack:"s"`
	X         float64 `msgpack:"x"`
	Y         float64 `msgpack:"y"`
	R         float64 `msgpack:"r"`
	Color     string  `msgpack:"c"`
	Sprite    string  `msgpack:"sp"`
	Lives     int     `msgpack:"l"`
	Destroyed bool    `msgpack:"d"`
}

// BodyState is a visible gravity body
type BodyState struct {
	X     float64 `msgpack:"x"`
	Y     float64 `msgpack:"y"`
	R     float64 `msgpack:"r"`
	Kind  string  `msgpack:"k"`
	Color string  `msgpack:"c"`
}

// ProjectileState is a projectile with its trail flattened to x,y pairs
type ProjectileState struct {
	Seat   int       `msgpack:"s"`
	X      float64   `msgpack:"x"`
	Y      float64   `msgpack:"y"`
	Active bool      `msgpack:"a"`
	Trail  []float64 `msgpack:"t"`
}

// ParticleState is an explosion spark
type ParticleState struct {
	X     float64 `msgpack:"x"`
	Y     float64 `msgpack:"y"`
	Size  float64 `msgpack:"z"`
	Alpha float64 `msgpack:"o"`
	Color string  `msgpack:"c"`
}

// FragmentState is a piece of a shattered planet
type FragmentState struct {
	X      float64   `msgpack:"x"`
	Y      float64   `msgpack:"y"`
	R      float64   `msgpack:"r"`
	W      float64   `msgpack:"w"`
	H      float64   `msgpack:"h"`
	Src    []float64 `msgpack:"src"` // sx, sy, sw, sh
	Sprite string    `msgpack:"sp"`
	Clip   []float64 `msgpack:"clip"`
}

// GameState is the full state broadcast
type GameState struct {
	Phase       string            `msgpack:"ph"`
	Winner      string            `msgpack:"w"`
	Round       int               `msgpack:"rd"`
	Aims        [2]float64        `msgpack:"aim"`
	Ready       [2]bool           `msgpack:"rdy"`
	Planets     []PlanetState     `msgpack:"p"`
	Bodies      []BodyState       `msgpack:"b"`
	Projectiles []ProjectileState `msgpack:"pr"`
	Particles   []ParticleState   `msgpack:"fx"`
	Fragments   []FragmentState   `msgpack:"fr"`
	Tick        uint64            `msgpack:"tick"`
}
