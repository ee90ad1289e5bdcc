package main

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"gravity-artillery/duel"
)

const (
	TickRate       = 60 // physics ticks per second
	BroadcastRate  = 30 // state broadcasts per second
	TickDuration   = time.Second / TickRate
	BroadcastEvery = TickRate / BroadcastRate
)

// RevealDelay is how long clients hold back the winner banner after a
// decisive round. The result itself is applied immediately.
var RevealDelay = 2 * time.Second

var (
	errSeatTaken = errors.New("seat taken")
	errNotSeated = errors.New("not seated")
)

// Broadcaster interface for sending messages to clients
type Broadcaster interface {
	SendJSON(msg interface{})
	SendBinary(data []byte)
}

// Seat is one of the two player slots of a duel
type Seat struct {
	ID     string
	Name   string
	client Broadcaster
}

// Game hosts one duel and drives it from its own ticker
type Game struct {
	mu      sync.Mutex
	match   *duel.Match
	seats   [2]*Seat
	tick    uint64
	running bool
	stopped bool
	stop    chan struct{}
	metrics *Metrics
}

// NewGame creates a new Game around a fresh match
func NewGame(cfg duel.Config, seed uint64, metrics *Metrics) (*Game, error) {
	m, err := duel.NewMatch(cfg, duel.NewRand(seed))
	if err != nil {
		return nil, err
	}
	return &Game{
		match:   m,
		stop:    make(chan struct{}),
		metrics: metrics,
	}, nil
}

// Run starts the game loop. Calling it again while the loop is running,
// or after Stop, returns immediately.
func (g *Game) Run() {
	g.mu.Lock()
	if g.running || g.stopped {
		g.mu.Unlock()
		return
	}
	g.running = true
	g.mu.Unlock()

	ticker := time.NewTicker(TickDuration)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case now := <-ticker.C:
			g.update(float64(now.Sub(last)) / float64(time.Millisecond))
			last = now
		case <-g.stop:
			g.mu.Lock()
			g.running = false
			g.mu.Unlock()
			return
		}
	}
}

// Stop terminates the game loop
func (g *Game) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.stopped {
		g.stopped = true
		close(g.stop)
	}
}

// AddPlayer seats a new player in the first free slot. Returns nil when
// both seats are taken.
func (g *Game) AddPlayer(name string, client Broadcaster) (*Seat, duel.PlayerID) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for i, s := range g.seats {
		if s != nil {
			continue
		}
		seat := &Seat{ID: GenerateID(4), Name: name, client: client}
		g.seats[i] = seat
		pid := duel.PlayerID(i + 1)
		g.notifyPeer(pid, true)
		return seat, pid
	}
	return nil, 0
}

// Reattach hands a reserved seat to a new connection.
func (g *Game) Reattach(pid duel.PlayerID, playerID string, client Broadcaster) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	s := g.seat(pid)
	if s == nil || s.ID != playerID {
		return errNotSeated
	}
	if s.client != nil {
		return errSeatTaken
	}
	s.client = client
	g.notifyPeer(pid, true)
	return nil
}

// Detach drops a seat's connection but keeps the seat for a resume.
func (g *Game) Detach(playerID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if pid, s := g.lookup(playerID); s != nil {
		s.client = nil
		g.notifyPeer(pid, false)
	}
}

// RemovePlayer frees a seat. A match in progress is forfeited.
func (g *Game) RemovePlayer(playerID string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	pid, s := g.lookup(playerID)
	if s == nil {
		return
	}
	g.notifyPeer(pid, false)
	g.seats[pid-1] = nil
	if g.match.State() != duel.StateGameOver && g.match.Round() > 0 {
		if r, err := g.match.Forfeit(pid); err == nil {
			g.announceRound(r)
		}
	}
}

// HasPlayer reports whether playerID holds a seat
func (g *Game) HasPlayer(playerID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, s := g.lookup(playerID)
	return s != nil
}

// PlayerCount returns the number of occupied seats
func (g *Game) PlayerCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, s := range g.seats {
		if s != nil {
			n++
		}
	}
	return n
}

// ConnectedCount returns the number of seats with a live connection
func (g *Game) ConnectedCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, s := range g.seats {
		if s != nil && s.client != nil {
			n++
		}
	}
	return n
}

// HandleAim sets a player's launch angle
func (g *Game) HandleAim(playerID string, deg float64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	pid, s := g.lookup(playerID)
	if s == nil {
		return errNotSeated
	}
	return g.match.SetAim(pid, deg)
}

// HandleReady toggles readiness; the round fires once both are ready
func (g *Game) HandleReady(playerID string, on bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	pid, s := g.lookup(playerID)
	if s == nil {
		return errNotSeated
	}
	started, err := g.match.SetReady(pid, on)
	if err != nil {
		return err
	}
	if started && g.metrics != nil {
		g.metrics.Track(EvtRoundStart, "")
	}
	return nil
}

// HandleContinue moves from the result screen to the next setup
func (g *Game) HandleContinue(playerID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, s := g.lookup(playerID); s == nil {
		return errNotSeated
	}
	return g.match.ResetRound()
}

// HandleForfeit concedes the match for playerID
func (g *Game) HandleForfeit(playerID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	pid, s := g.lookup(playerID)
	if s == nil {
		return errNotSeated
	}
	r, err := g.match.Forfeit(pid)
	if err != nil {
		return err
	}
	g.announceRound(r)
	return nil
}

// update runs one game tick
func (g *Game) update(deltaMs float64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.tick++
	res := g.match.Tick(deltaMs)

	for _, h := range res.Hits {
		g.broadcastMsg(Envelope{T: MsgHit, Data: HitMsg{Attacker: int(h.Attacker), Defender: int(h.Defender)}})
	}
	if res.Round != nil {
		g.announceRound(res.Round)
	}

	if g.tick%BroadcastEvery == 0 {
		g.broadcastState()
	}
}

func (g *Game) announceRound(r *duel.RoundResult) {
	var delay time.Duration
	if r.Outcome.Decisive() {
		delay = RevealDelay
	}
	g.broadcastMsg(Envelope{T: MsgRound, Data: RoundMsg{
		Round:   r.Round,
		Outcome: r.Outcome.String(),
		Lives:   r.Lives,
		Winner:  r.Winner.String(),
		Over:    r.MatchOver,
		DelayMs: delay.Milliseconds(),
	}})

	if g.metrics == nil {
		return
	}
	g.metrics.Track(EvtRoundEnd, r.Outcome.String())
	if r.MatchOver {
		g.metrics.Track(EvtMatchEnd, r.Winner.String())
		log.Printf("match over after round %d: %s", r.Round, r.Winner)
	}
}

// broadcastState sends the current duel state to both seats
func (g *Game) broadcastState() {
	data, err := msgpack.Marshal(g.state())
	if err != nil {
		log.Printf("state encode error: %v", err)
		return
	}
	for _, s := range g.seats {
		if s != nil && s.client != nil {
			s.client.SendBinary(data)
		}
	}
}

// broadcastMsg sends a message to both seats
func (g *Game) broadcastMsg(msg Envelope) {
	for _, s := range g.seats {
		if s != nil && s.client != nil {
			s.client.SendJSON(msg)
		}
	}
}

// notifyPeer tells the seat opposite pid about its connection state
func (g *Game) notifyPeer(pid duel.PlayerID, online bool) {
	s := g.seat(pid)
	other := g.seat(pid.Opponent())
	if s == nil || other == nil || other.client == nil {
		return
	}
	other.client.SendJSON(Envelope{T: MsgPeer, Data: PeerMsg{Seat: int(pid), Name: s.Name, Online: online}})
}

func (g *Game) seat(pid duel.PlayerID) *Seat {
	if pid != duel.Player1 && pid != duel.Player2 {
		return nil
	}
	return g.seats[pid-1]
}

func (g *Game) lookup(playerID string) (duel.PlayerID, *Seat) {
	for i, s := range g.seats {
		if s != nil && s.ID == playerID {
			return duel.PlayerID(i + 1), s
		}
	}
	return 0, nil
}

// State returns a snapshot of the duel for the wire
func (g *Game) State() GameState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state()
}

func (g *Game) state() GameState {
	m := g.match
	st := GameState{
		Phase:  m.State().String(),
		Winner: m.Winner().String(),
		Round:  m.Round(),
		Aims:   [2]float64{m.Aim(duel.Player1), m.Aim(duel.Player2)},
		Ready:  [2]bool{m.Ready(duel.Player1), m.Ready(duel.Player2)},
		Tick:   g.tick,
	}

	for _, p := range m.Planets() {
		st.Planets = append(st.Planets, PlanetState{
			Seat:      int(p.Owner),
			X:         round1(p.X),
			Y:         round1(p.Y),
			R:         p.Radius,
			Color:     p.Color,
			Sprite:    p.Sprite,
			Lives:     p.Lives,
			Destroyed: p.Destroyed,
		})
	}
	for _, b := range m.Bodies() {
		if !b.Visible {
			continue
		}
		st.Bodies = append(st.Bodies, BodyState{
			X:     round1(b.X),
			Y:     round1(b.Y),
			R:     b.Radius,
			Kind:  b.Kind.String(),
			Color: b.Color,
		})
	}
	for _, p := range m.Projectiles() {
		trail := make([]float64, 0, 2*len(p.Trail))
		for _, pt := range p.Trail {
			trail = append(trail, round1(pt.X), round1(pt.Y))
		}
		st.Projectiles = append(st.Projectiles, ProjectileState{
			Seat:   int(p.Owner),
			X:      round1(p.X),
			Y:      round1(p.Y),
			Active: p.Active,
			Trail:  trail,
		})
	}
	for _, p := range m.Particles() {
		st.Particles = append(st.Particles, ParticleState{
			X:     round1(p.X),
			Y:     round1(p.Y),
			Size:  round1(p.Size),
			Alpha: round1(p.Opacity()),
			Color: p.Color,
		})
	}
	for _, f := range m.Fragments() {
		clip := make([]float64, 0, 2*len(f.ClipPath))
		for _, pt := range f.ClipPath {
			clip = append(clip, round1(pt.X), round1(pt.Y))
		}
		st.Fragments = append(st.Fragments, FragmentState{
			X:      round1(f.X),
			Y:      round1(f.Y),
			R:      f.Rotation,
			W:      round1(f.Width),
			H:      round1(f.Height),
			Src:    []float64{round1(f.SourceX), round1(f.SourceY), round1(f.SourceWidth), round1(f.SourceHeight)},
			Sprite: f.Sprite,
			Clip:   clip,
		})
	}
	return st
}

// describe renders an error for a client, hiding internal wrapping
func describe(err error) string {
	switch {
	case errors.Is(err, duel.ErrInvalidState):
		return fmt.Sprintf("not now: %v", err)
	case errors.Is(err, errNotSeated):
		return "not seated"
	}
	return err.Error()
}
