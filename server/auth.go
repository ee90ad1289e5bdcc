package main

import (
	"crypto/rand"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"gravity-artillery/duel"
)

const (
	seatTokenExpiry = 2 * time.Hour
	minPassLen      = 4
	maxPassLen      = 64
	joinRateWindow  = 60 * time.Second
	maxJoinAttempts = 10
)

// bcryptCost is a variable so tests can use bcrypt.MinCost
var bcryptCost = 12

// Auth issues seat tokens and guards passcode-protected rooms
type Auth struct {
	secret []byte

	// Rate limiting for passcode attempts (IP -> attempts)
	rateMu  sync.Mutex
	rateMap map[string]*rateEntry
}

type rateEntry struct {
	Count   int
	ResetAt time.Time
}

// SeatClaims identify a seat in a room
type SeatClaims struct {
	SessionID string
	PlayerID  string
	Seat      duel.PlayerID
}

// NewAuth creates an Auth with a fresh per-process signing secret.
// Seat tokens do not survive a restart, and neither do rooms.
func NewAuth() *Auth {
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		panic("failed to generate token secret: " + err.Error())
	}
	return &Auth{
		secret:  secret,
		rateMap: make(map[string]*rateEntry),
	}
}

// IssueSeatToken signs the seat a player holds
func (a *Auth) IssueSeatToken(c SeatClaims) (string, error) {
	claims := jwt.MapClaims{
		"sid":  c.SessionID,
		"pid":  c.PlayerID,
		"seat": int(c.Seat),
		"exp":  time.Now().Add(seatTokenExpiry).Unix(),
		"iat":  time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

// ValidateSeatToken verifies a seat token and returns its claims
func (a *Auth) ValidateSeatToken(tokenStr string) (SeatClaims, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return a.secret, nil
	})
	if err != nil {
		return SeatClaims{}, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return SeatClaims{}, fmt.Errorf("invalid token")
	}
	sid, ok1 := claims["sid"].(string)
	pid, ok2 := claims["pid"].(string)
	seat, ok3 := claims["seat"].(float64)
	if !ok1 || !ok2 || !ok3 {
		return SeatClaims{}, fmt.Errorf("invalid token claims")
	}
	if s := duel.PlayerID(seat); s != duel.Player1 && s != duel.Player2 {
		return SeatClaims{}, fmt.Errorf("invalid seat %d", int(seat))
	}
	return SeatClaims{SessionID: sid, PlayerID: pid, Seat: duel.PlayerID(seat)}, nil
}

// HashPasscode hashes a room passcode. An empty passcode means an open room.
func HashPasscode(pass string) (string, error) {
	if pass == "" {
		return "", nil
	}
	if len(pass) < minPassLen || len(pass) > maxPassLen {
		return "", fmt.Errorf("passcode must be %d-%d characters", minPassLen, maxPassLen)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pass), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("internal error")
	}
	return string(hash), nil
}

// CheckPasscode verifies a join attempt against a room's passcode hash
func (a *Auth) CheckPasscode(hash, pass, ip string) error {
	if hash == "" {
		return nil
	}
	if !a.checkRate(ip) {
		return fmt.Errorf("too many attempts, try again later")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(pass)); err != nil {
		return fmt.Errorf("wrong passcode")
	}
	return nil
}

func (a *Auth) checkRate(ip string) bool {
	a.rateMu.Lock()
	defer a.rateMu.Unlock()

	now := time.Now()
	entry, ok := a.rateMap[ip]
	if !ok || now.After(entry.ResetAt) {
		a.rateMap[ip] = &rateEntry{Count: 1, ResetAt: now.Add(joinRateWindow)}
		return true
	}
	entry.Count++
	return entry.Count <= maxJoinAttempts
}
