package main

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait         = 10 * time.Second
	pongWait          = 60 * time.Second
	pingPeriod        = (pongWait * 9) / 10
	maxMessageSize    = 4096
	sendBufSize       = 256
	maxMessagesPerSec = 50
	maxNameLen        = 16
	maxSessionNameLen = 30
)

// Client represents a WebSocket connection
type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	send       chan []byte
	playerID   string
	sessionID  string
	remoteAddr string
	msgCount   int
	msgResetAt time.Time
}

// NewClient creates a new Client
func NewClient(hub *Hub, conn *websocket.Conn, remoteAddr string) *Client {
	return &Client{
		hub:        hub,
		conn:       conn,
		send:       make(chan []byte, sendBufSize),
		remoteAddr: remoteAddr,
	}
}

// ReadPump reads messages from the WebSocket connection
func (c *Client) ReadPump() {
	defer func() {
		c.hub.TrackDisconnect(c.remoteAddr)
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		msgType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("ws error: %v", err)
			}
			break
		}

		// Rate limiting
		now := time.Now()
		if now.After(c.msgResetAt) {
			c.msgCount = 0
			c.msgResetAt = now.Add(time.Second)
		}
		c.msgCount++
		if c.msgCount > maxMessagesPerSec {
			log.Printf("rate limit exceeded for %s, disconnecting", c.remoteAddr)
			break
		}

		if msgType != websocket.TextMessage {
			continue
		}
		c.handleMessage(message)
	}
}

// WritePump writes messages to the WebSocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			// Check for binary marker (0xFF prefix from SendBinary)
			var err error
			if len(message) > 0 && message[0] == 0xFF {
				err = c.conn.WriteMessage(websocket.BinaryMessage, message[1:])
			} else {
				err = c.conn.WriteMessage(websocket.TextMessage, message)
			}
			if err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendJSON sends a JSON message to the client
func (c *Client) SendJSON(msg interface{}) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("marshal error: %v", err)
		return
	}
	c.SendRaw(data)
}

// SendRaw sends pre-marshaled bytes as a text message to the client
func (c *Client) SendRaw(data []byte) {
	defer func() { recover() }()
	select {
	case c.send <- data:
	default:
		// Client too slow, drop message
	}
}

// SendBinary sends pre-marshaled bytes as a binary WebSocket message
// Prefixes with 0xFF marker byte so WritePump can distinguish from text
func (c *Client) SendBinary(data []byte) {
	defer func() { recover() }()
	msg := make([]byte, len(data)+1)
	msg[0] = 0xFF // binary marker
	copy(msg[1:], data)
	select {
	case c.send <- msg:
	default:
	}
}

func (c *Client) sendError(msg string) {
	c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: msg}})
}

// handleMessage routes incoming messages (single-pass decode via InEnvelope)
func (c *Client) handleMessage(raw []byte) {
	var env InEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		log.Printf("unmarshal error: %v", err)
		return
	}

	switch env.T {
	case MsgList:
		c.handleList()
	case MsgCreate:
		c.handleCreate(env.D)
	case MsgJoin:
		c.handleJoin(env.D)
	case MsgResume:
		c.handleResume(env.D)
	case MsgCheck:
		c.handleCheck(env.D)
	case MsgAim:
		c.handleAim(env.D)
	case MsgReady:
		c.handleReady(env.D)
	case MsgContinue:
		c.withGame(func(g *Game) error { return g.HandleContinue(c.playerID) })
	case MsgForfeit:
		c.withGame(func(g *Game) error { return g.HandleForfeit(c.playerID) })
	case MsgLeave:
		c.handleLeave()
	}
}

func (c *Client) handleList() {
	sessions := c.hub.sessions.ListSessions()
	c.SendJSON(Envelope{T: MsgSessions, Data: sessions})
}

func (c *Client) handleCreate(data json.RawMessage) {
	var msg CreateMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	sname := truncate(msg.SessionName, maxSessionNameLen)
	if sname == "" {
		sname = "Gravity Duel"
	}
	hash, err := HashPasscode(msg.Pass)
	if err != nil {
		c.sendError(err.Error())
		return
	}

	sess := c.hub.sessions.CreateSession(sname, hash)
	if sess == nil {
		c.sendError("too many active sessions")
		return
	}
	c.SendJSON(Envelope{T: MsgCreated, Data: map[string]string{"sid": sess.ID}})
}

func (c *Client) handleJoin(data json.RawMessage) {
	var msg JoinMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	if c.sessionID != "" {
		c.sendError("already in a session")
		return
	}
	name := truncate(msg.Name, maxNameLen)
	if name == "" {
		name = "Pilot"
	}

	sess := c.hub.sessions.GetSession(msg.SessionID)
	if sess == nil {
		c.sendError("session not found")
		return
	}
	if err := c.hub.auth.CheckPasscode(sess.passHash, msg.Pass, c.remoteAddr); err != nil {
		c.sendError(err.Error())
		return
	}

	seat, pid := sess.Game.AddPlayer(name, c)
	if seat == nil {
		c.sendError("session full")
		return
	}
	token, err := c.hub.auth.IssueSeatToken(SeatClaims{SessionID: sess.ID, PlayerID: seat.ID, Seat: pid})
	if err != nil {
		log.Printf("seat token: %v", err)
	}
	c.hub.sessions.MarkActive(sess.ID)
	c.hub.metrics.Track(EvtPlayerJoin, pid.String())
	c.playerID = seat.ID
	c.sessionID = sess.ID

	c.SendJSON(Envelope{T: MsgJoined, Data: map[string]string{"sid": sess.ID}})
	c.SendJSON(Envelope{T: MsgWelcome, Data: WelcomeMsg{ID: seat.ID, Seat: int(pid), Token: token}})
}

func (c *Client) handleResume(data json.RawMessage) {
	var msg ResumeMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	if c.sessionID != "" {
		c.sendError("already in a session")
		return
	}
	claims, err := c.hub.auth.ValidateSeatToken(msg.Token)
	if err != nil {
		c.sendError("invalid token")
		return
	}
	sess := c.hub.sessions.GetSession(claims.SessionID)
	if sess == nil {
		c.sendError("session not found")
		return
	}
	if err := sess.Game.Reattach(claims.Seat, claims.PlayerID, c); err != nil {
		c.sendError(describe(err))
		return
	}
	token, err := c.hub.auth.IssueSeatToken(claims)
	if err != nil {
		log.Printf("seat token: %v", err)
	}
	c.hub.sessions.MarkActive(sess.ID)
	c.playerID = claims.PlayerID
	c.sessionID = sess.ID

	c.SendJSON(Envelope{T: MsgJoined, Data: map[string]string{"sid": sess.ID}})
	c.SendJSON(Envelope{T: MsgWelcome, Data: WelcomeMsg{ID: claims.PlayerID, Seat: int(claims.Seat), Token: token}})
}

func (c *Client) handleCheck(data json.RawMessage) {
	var msg CheckMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	sess := c.hub.sessions.GetSession(msg.SID)
	if sess == nil {
		c.SendJSON(Envelope{T: MsgChecked, Data: CheckedMsg{SID: msg.SID, Exists: false}})
		return
	}
	c.SendJSON(Envelope{T: MsgChecked, Data: CheckedMsg{
		SID:     msg.SID,
		Exists:  true,
		Name:    sess.Name,
		Players: sess.Game.PlayerCount(),
		Locked:  sess.Locked(),
	}})
}

func (c *Client) handleAim(data json.RawMessage) {
	var msg AimMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	c.withGame(func(g *Game) error { return g.HandleAim(c.playerID, msg.Deg) })
}

func (c *Client) handleReady(data json.RawMessage) {
	msg := ReadyMsg{On: true}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &msg); err != nil {
			return
		}
	}
	c.withGame(func(g *Game) error { return g.HandleReady(c.playerID, msg.On) })
}

// withGame runs fn against the client's room and reports a rejection
func (c *Client) withGame(fn func(g *Game) error) {
	if c.sessionID == "" || c.playerID == "" {
		return
	}
	sess := c.hub.sessions.GetSession(c.sessionID)
	if sess == nil {
		return
	}
	if err := fn(sess.Game); err != nil {
		c.sendError(describe(err))
	}
}

func (c *Client) handleLeave() {
	if c.sessionID != "" {
		c.hub.sessions.RemovePlayer(c.sessionID, c.playerID)
		c.sessionID = ""
		c.playerID = ""
	}
}
