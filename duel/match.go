package duel

import (
	"fmt"
	"log"
)

// MatchState is the lifecycle phase of a match.
type MatchState int

const (
	StateSetup    MatchState = iota // aiming, waiting for both players
	StateFiring                     // projectiles in flight
	StateGameOver                   // decisive round result on display
)

func (s MatchState) String() string {
	switch s {
	case StateSetup:
		return "setup"
	case StateFiring:
		return "firing"
	case StateGameOver:
		return "gameover"
	}
	return "unknown"
}

// Winner is the match result.
type Winner int

const (
	WinnerNone Winner = iota
	WinnerPlayer1
	WinnerPlayer2
	WinnerDraw
)

func (w Winner) String() string {
	switch w {
	case WinnerPlayer1:
		return "player1"
	case WinnerPlayer2:
		return "player2"
	case WinnerDraw:
		return "draw"
	}
	return "none"
}

func winnerOf(p PlayerID) Winner {
	if p == Player1 {
		return WinnerPlayer1
	}
	return WinnerPlayer2
}

// RoundOutcome classifies a resolved round by who connected.
type RoundOutcome int

const (
	OutcomeVoid    RoundOutcome = iota // neither hit
	OutcomePlayer1                     // only player 1 hit
	OutcomePlayer2                     // only player 2 hit
	OutcomeBoth                        // both hit
	OutcomeForfeit                     // a player conceded
	OutcomeDrawn                       // the match was called a draw
)

func (o RoundOutcome) String() string {
	switch o {
	case OutcomeVoid:
		return "void"
	case OutcomePlayer1:
		return "player1"
	case OutcomePlayer2:
		return "player2"
	case OutcomeBoth:
		return "both"
	case OutcomeForfeit:
		return "forfeit"
	case OutcomeDrawn:
		return "drawn"
	}
	return "unknown"
}

// Decisive reports whether at least one life changed hands.
func (o RoundOutcome) Decisive() bool {
	return o != OutcomeVoid
}

// Hit is emitted the tick a projectile strikes the enemy planet.
type Hit struct {
	Attacker PlayerID
	Defender PlayerID
}

// RoundResult is emitted the tick both projectiles have come to rest.
// Lives are already applied when it is returned.
type RoundResult struct {
	Round     int
	Outcome   RoundOutcome
	Lives     [2]int
	Winner    Winner
	MatchOver bool
}

// TickResult reports the events of a single Tick.
type TickResult struct {
	Hits  []Hit
	Round *RoundResult
}

// Match owns all mutable duel state: planets, gravity field, projectiles,
// effects and the lifecycle. It is driven by the caller's scheduler through
// Tick and never starts a clock of its own. A Match is not safe for
// concurrent use.
type Match struct {
	cfg Config
	rng Rand

	state   MatchState
	winner  Winner
	round   int
	pending bool // decisive result waiting for ResetRound
	last    *RoundResult

	planets     [2]Planet
	bodies      []GravityBody
	failures    []PlacementFailure
	projectiles []*Projectile
	hits        [2]bool
	aims        [2]float64
	ready       [2]bool
	effects     Effects
}

// NewMatch validates cfg, places the home planets and generates the first
// gravity field.
func NewMatch(cfg Config, rng Rand) (*Match, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("new match: %w", err)
	}
	if rng == nil {
		return nil, fmt.Errorf("new match: nil random source")
	}
	m := &Match{
		cfg:     cfg,
		rng:     rng,
		planets: NewPlanets(cfg),
		aims:    [2]float64{cfg.DefaultAim1, cfg.DefaultAim2},
	}
	m.regenerate()
	return m, nil
}

func (m *Match) regenerate() {
	m.bodies, m.failures = GenerateField(m.cfg, m.planets, m.rng)
}

func (m *Match) invalid(op string) error {
	return fmt.Errorf("%s in %s: %w", op, m.state, ErrInvalidState)
}

// SetAim sets a player's launch angle in degrees during setup.
func (m *Match) SetAim(p PlayerID, deg float64) error {
	if !p.valid() {
		return ErrUnknownPlayer
	}
	if m.state != StateSetup {
		return m.invalid("set aim")
	}
	m.aims[p-1] = deg
	return nil
}

// SetReady toggles a player's readiness. When both players are ready the
// round starts with the current aims and started is true.
func (m *Match) SetReady(p PlayerID, on bool) (started bool, err error) {
	if !p.valid() {
		return false, ErrUnknownPlayer
	}
	if m.state != StateSetup {
		return false, m.invalid("set ready")
	}
	m.ready[p-1] = on
	if m.ready[0] && m.ready[1] {
		m.launch()
		return true, nil
	}
	return false, nil
}

// StartRound launches both projectiles from the planet edges along the given
// angles (degrees) and switches to firing.
func (m *Match) StartRound(aim1, aim2 float64) error {
	if m.state != StateSetup {
		return m.invalid("start round")
	}
	m.aims = [2]float64{aim1, aim2}
	m.launch()
	return nil
}

func (m *Match) launch() {
	m.projectiles = []*Projectile{
		Launch(m.cfg, &m.planets[0], m.aims[0]),
		Launch(m.cfg, &m.planets[1], m.aims[1]),
	}
	m.hits = [2]bool{}
	m.round++
	m.state = StateFiring
}

// Tick advances the match by deltaMs of wall-clock time. Effects animate in
// every state; projectiles only move while firing. Both projectiles are
// stepped against the same gravity field so their order does not matter.
func (m *Match) Tick(deltaMs float64) TickResult {
	var res TickResult
	dt := m.cfg.stepScale(deltaMs)

	m.effects.Update(m.cfg, dt)

	if m.state != StateFiring {
		return res
	}

	for _, proj := range m.projectiles {
		enemy := &m.planets[proj.Owner.Opponent()-1]
		if proj.Step(m.cfg, dt, m.bodies, enemy) != Struck {
			continue
		}
		m.hits[proj.Owner-1] = true
		res.Hits = append(res.Hits, Hit{Attacker: proj.Owner, Defender: enemy.Owner})
		m.effects.Particles = append(m.effects.Particles,
			NewExplosion(enemy.X, enemy.Y, m.cfg.ExplosionSize, m.rng)...)
	}

	for _, proj := range m.projectiles {
		if proj.Active {
			return res
		}
	}
	res.Round = m.resolve()
	return res
}

// resolve applies the round's life changes and decides the next state.
func (m *Match) resolve() *RoundResult {
	var outcome RoundOutcome
	switch {
	case m.hits[0] && m.hits[1]:
		outcome = OutcomeBoth
		m.planets[0].Lives--
		m.planets[1].Lives--
	case m.hits[0]:
		outcome = OutcomePlayer1
		m.planets[1].Lives--
	case m.hits[1]:
		outcome = OutcomePlayer2
		m.planets[0].Lives--
	default:
		outcome = OutcomeVoid
	}

	if outcome == OutcomeVoid {
		m.ready = [2]bool{}
		m.state = StateSetup
		return m.record(outcome)
	}

	for i := range m.planets {
		pl := &m.planets[i]
		if pl.Lives <= 0 && !pl.Destroyed {
			pl.Destroyed = true
			m.effects.Fragments = append(m.effects.Fragments, NewFragments(m.cfg, pl, m.rng)...)
		}
	}
	switch {
	case m.planets[0].Destroyed && m.planets[1].Destroyed:
		m.winner = WinnerDraw
	case m.planets[0].Destroyed:
		m.winner = WinnerPlayer2
	case m.planets[1].Destroyed:
		m.winner = WinnerPlayer1
	}
	m.pending = true
	m.state = StateGameOver
	return m.record(outcome)
}

func (m *Match) record(outcome RoundOutcome) *RoundResult {
	r := &RoundResult{
		Round:     m.round,
		Outcome:   outcome,
		Lives:     m.Lives(),
		Winner:    m.winner,
		MatchOver: m.winner != WinnerNone,
	}
	m.last = r
	return r
}

// Forfeit ends the match immediately in the opponent's favour. Lives are
// left as they are.
func (m *Match) Forfeit(p PlayerID) (*RoundResult, error) {
	if !p.valid() {
		return nil, ErrUnknownPlayer
	}
	if m.state == StateGameOver {
		return nil, m.invalid("forfeit")
	}
	return m.end(winnerOf(p.Opponent()), OutcomeForfeit), nil
}

// ForceDraw ends the match immediately as a draw. Lives are left as they
// are.
func (m *Match) ForceDraw() (*RoundResult, error) {
	if m.state == StateGameOver {
		return nil, m.invalid("force draw")
	}
	return m.end(WinnerDraw, OutcomeDrawn), nil
}

func (m *Match) end(w Winner, outcome RoundOutcome) *RoundResult {
	for _, proj := range m.projectiles {
		proj.Active = false
	}
	m.winner = w
	m.pending = true
	m.state = StateGameOver
	return m.record(outcome)
}

// ResetRound leaves the result screen for the next round's setup. After a
// decisive round the aims return to their defaults and a fresh field is
// generated; after a concluded match lives and planets are restored too.
// Calling it again in setup changes nothing.
func (m *Match) ResetRound() error {
	switch m.state {
	case StateSetup:
		return nil
	case StateFiring:
		return m.invalid("reset round")
	}

	if m.pending {
		m.aims = [2]float64{m.cfg.DefaultAim1, m.cfg.DefaultAim2}
		m.regenerate()
		m.pending = false
	}
	if m.winner != WinnerNone {
		m.restorePlanets()
		m.winner = WinnerNone
		m.round = 0
		log.Printf("match: new match after %s", m.last.Winner)
	}
	m.projectiles = nil
	m.ready = [2]bool{}
	m.state = StateSetup
	return nil
}

// ResetMatch starts a new match from any state.
func (m *Match) ResetMatch() {
	m.restorePlanets()
	m.winner = WinnerNone
	m.round = 0
	m.pending = false
	m.last = nil
	m.aims = [2]float64{m.cfg.DefaultAim1, m.cfg.DefaultAim2}
	m.regenerate()
	m.projectiles = nil
	m.hits = [2]bool{}
	m.ready = [2]bool{}
	m.effects.Reset()
	m.state = StateSetup
}

func (m *Match) restorePlanets() {
	for i := range m.planets {
		m.planets[i].Lives = m.cfg.StartingLives
		m.planets[i].Destroyed = false
	}
}

// Config returns the match configuration.
func (m *Match) Config() Config { return m.cfg }

// State returns the current lifecycle phase.
func (m *Match) State() MatchState { return m.state }

// Winner returns the match winner, WinnerNone while the match is running.
func (m *Match) Winner() Winner { return m.winner }

// Round returns the number of rounds launched in the current match.
func (m *Match) Round() int { return m.round }

// LastResult returns the most recent round result, if any.
func (m *Match) LastResult() (RoundResult, bool) {
	if m.last == nil {
		return RoundResult{}, false
	}
	return *m.last, true
}

// Lives returns both players' remaining lives.
func (m *Match) Lives() [2]int {
	return [2]int{m.planets[0].Lives, m.planets[1].Lives}
}

// Destroyed reports whether a player's planet has been shattered.
func (m *Match) Destroyed(p PlayerID) bool {
	if !p.valid() {
		return false
	}
	return m.planets[p-1].Destroyed
}

// Aim returns a player's current launch angle in degrees.
func (m *Match) Aim(p PlayerID) float64 {
	if !p.valid() {
		return 0
	}
	return m.aims[p-1]
}

// Ready reports whether a player has signalled readiness.
func (m *Match) Ready(p PlayerID) bool {
	if !p.valid() {
		return false
	}
	return m.ready[p-1]
}

// Planets returns a copy of both home planets.
func (m *Match) Planets() [2]Planet { return m.planets }

// Bodies returns a copy of the gravity field.
func (m *Match) Bodies() []GravityBody {
	return append([]GravityBody(nil), m.bodies...)
}

// PlacementFailures returns the diagnostics of the last field generation.
func (m *Match) PlacementFailures() []PlacementFailure {
	return append([]PlacementFailure(nil), m.failures...)
}

// Projectiles returns copies of the current round's projectiles, trails
// included.
func (m *Match) Projectiles() []Projectile {
	out := make([]Projectile, len(m.projectiles))
	for i, p := range m.projectiles {
		out[i] = p.clone()
	}
	return out
}

// Particles returns a copy of the live explosion particles.
func (m *Match) Particles() []Particle {
	return append([]Particle(nil), m.effects.Particles...)
}

// Fragments returns a copy of the live planet fragments.
func (m *Match) Fragments() []Fragment {
	out := make([]Fragment, len(m.effects.Fragments))
	for i, f := range m.effects.Fragments {
		f.ClipPath = append([]Point(nil), f.ClipPath...)
		out[i] = f
	}
	return out
}
