package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"

	"gravity-artillery/duel"
)

// ---------- helpers ----------

var uuidRegex = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

// startTestServer spins up an httptest.Server with a Hub and returns
// the server, its WebSocket URL, and a cleanup func.
func startTestServer(t *testing.T) (*httptest.Server, string, func()) {
	t.Helper()

	prevIdleTimeout := SessionIdleTimeout
	SessionIdleTimeout = 150 * time.Millisecond

	// Create a temp client dir with a minimal index.html
	tmpDir := t.TempDir()
	jsDir := filepath.Join(tmpDir, "js")
	os.MkdirAll(jsDir, 0o755)
	os.WriteFile(filepath.Join(tmpDir, "index.html"), []byte("<html>test</html>"), 0o644)
	os.WriteFile(filepath.Join(jsDir, "main.js"), []byte("// test"), 0o644)

	cfg := duel.DefaultConfig()
	cfg.BodyCount = 0
	hub := NewHub(cfg, 1)
	go hub.Run()

	mux := SetupRoutes(hub, tmpDir)
	srv := httptest.NewServer(mux)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"

	return srv, wsURL, func() {
		srv.Close()
		hub.Shutdown()
		SessionIdleTimeout = prevIdleTimeout
	}
}

// dialWS opens a WebSocket connection to the test server.
func dialWS(t *testing.T, wsURL string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial WS: %v", err)
	}
	return conn
}

// readEnvelope reads the next JSON message, skipping state frames.
func readEnvelope(t *testing.T, conn *websocket.Conn) Envelope {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		conn.SetReadDeadline(deadline)
		msgType, raw, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read WS: %v", err)
		}
		if msgType == websocket.BinaryMessage {
			continue
		}
		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		return env
	}
}

// readUntil reads JSON messages until one of type want arrives.
func readUntil(t *testing.T, conn *websocket.Conn, want string) Envelope {
	t.Helper()
	for i := 0; i < 100; i++ {
		if env := readEnvelope(t, conn); env.T == want {
			return env
		}
	}
	t.Fatalf("no %s message", want)
	return Envelope{}
}

// readState reads until a binary msgpack GameState arrives.
func readState(t *testing.T, conn *websocket.Conn) GameState {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		conn.SetReadDeadline(deadline)
		msgType, raw, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read WS: %v", err)
		}
		if msgType != websocket.BinaryMessage {
			continue
		}
		var gs GameState
		if err := msgpack.Unmarshal(raw, &gs); err != nil {
			t.Fatalf("msgpack unmarshal: %v", err)
		}
		return gs
	}
}

// sendMsg sends a typed message over the WebSocket.
func sendMsg(t *testing.T, conn *websocket.Conn, msgType string, data interface{}) {
	t.Helper()
	env := Envelope{T: msgType, Data: data}
	raw, _ := json.Marshal(env)
	if err := conn.WriteMessage(websocket.TextMessage, raw); err != nil {
		t.Fatalf("write WS: %v", err)
	}
}

// dataMap extracts the Data field as map[string]interface{}.
func dataMap(t *testing.T, env Envelope) map[string]interface{} {
	t.Helper()
	raw, _ := json.Marshal(env.Data)
	var m map[string]interface{}
	json.Unmarshal(raw, &m)
	return m
}

// createRoom creates a session and returns its ID.
func createRoom(t *testing.T, conn *websocket.Conn, sname, pass string) string {
	t.Helper()
	sendMsg(t, conn, "create", map[string]string{"sname": sname, "pass": pass})
	created := readEnvelope(t, conn)
	if created.T != MsgCreated {
		t.Fatalf("expected created, got %s", created.T)
	}
	return dataMap(t, created)["sid"].(string)
}

// joinRoom joins sid and returns the welcome payload.
func joinRoom(t *testing.T, conn *websocket.Conn, name, sid, pass string) map[string]interface{} {
	t.Helper()
	sendMsg(t, conn, "join", map[string]string{"name": name, "sid": sid, "pass": pass})
	joined := readEnvelope(t, conn)
	if joined.T != MsgJoined {
		t.Fatalf("expected joined, got %s (%v)", joined.T, joined.Data)
	}
	welcome := readEnvelope(t, conn)
	if welcome.T != MsgWelcome {
		t.Fatalf("expected welcome, got %s", welcome.T)
	}
	return dataMap(t, welcome)
}

// createAndJoin creates a session then joins it. Returns the session ID.
func createAndJoin(t *testing.T, conn *websocket.Conn, name, sname string) string {
	t.Helper()
	sid := createRoom(t, conn, sname, "")
	joinRoom(t, conn, name, sid, "")
	return sid
}

// ---------- UUID generation ----------

func TestGenerateUUIDFormat(t *testing.T) {
	for i := 0; i < 20; i++ {
		id := GenerateUUID()
		if !uuidRegex.MatchString(id) {
			t.Errorf("GenerateUUID() = %q, does not match UUID v4 format", id)
		}
	}
}

// ---------- SPA routing ----------

func TestSPARoutingUUIDPath(t *testing.T) {
	srv, _, cleanup := startTestServer(t)
	defer cleanup()

	resp, err := http.Get(srv.URL + "/" + GenerateUUID())
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != 200 || !strings.Contains(string(body), "<html>") {
		t.Errorf("UUID path should serve index.html, got %d %q", resp.StatusCode, body)
	}
}

func TestSPARoutingNonUUIDPath(t *testing.T) {
	srv, _, cleanup := startTestServer(t)
	defer cleanup()

	resp, err := http.Get(srv.URL + "/not-a-uuid")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 404 {
		t.Errorf("GET /not-a-uuid status = %d, want 404", resp.StatusCode)
	}
}

func TestHealthAndStats(t *testing.T) {
	srv, wsURL, cleanup := startTestServer(t)
	defer cleanup()

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Errorf("GET /healthz status = %d", resp.StatusCode)
	}

	c := dialWS(t, wsURL)
	defer c.Close()
	createAndJoin(t, c, "Pilot", "Arena")

	resp, err = http.Get(srv.URL + "/stats")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var stats MetricsSnapshot
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.Sessions != 1 || stats.Conns != 1 {
		t.Errorf("expected 1 session and 1 conn, got %+v", stats)
	}
}

// ---------- QR invite ----------

func TestQRCodeForRoom(t *testing.T) {
	srv, wsURL, cleanup := startTestServer(t)
	defer cleanup()

	c := dialWS(t, wsURL)
	defer c.Close()
	sid := createRoom(t, c, "Arena", "")

	resp, err := http.Get(srv.URL + "/qr/" + sid)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 || resp.Header.Get("Content-Type") != "image/png" {
		t.Fatalf("GET /qr status = %d, type %q", resp.StatusCode, resp.Header.Get("Content-Type"))
	}
	body, _ := io.ReadAll(resp.Body)
	if !bytes.HasPrefix(body, []byte("\x89PNG")) {
		t.Error("expected a PNG image")
	}

	resp2, err := http.Get(srv.URL + "/qr/" + GenerateUUID())
	if err != nil {
		t.Fatal(err)
	}
	resp2.Body.Close()
	if resp2.StatusCode != 404 {
		t.Errorf("unknown room should 404, got %d", resp2.StatusCode)
	}
}

// ---------- Session check / join ----------

func TestCheckSessionExists(t *testing.T) {
	_, wsURL, cleanup := startTestServer(t)
	defer cleanup()

	c1 := dialWS(t, wsURL)
	defer c1.Close()
	sid := createAndJoin(t, c1, "Pilot", "Arena")

	c2 := dialWS(t, wsURL)
	defer c2.Close()
	sendMsg(t, c2, "check", map[string]string{"sid": sid})

	checked := readEnvelope(t, c2)
	if checked.T != MsgChecked {
		t.Fatalf("expected checked, got %s", checked.T)
	}
	d := dataMap(t, checked)
	if d["exists"] != true || d["name"] != "Arena" || d["players"].(float64) != 1 {
		t.Errorf("unexpected check reply %v", d)
	}
}

func TestJoinNonExistentSession(t *testing.T) {
	_, wsURL, cleanup := startTestServer(t)
	defer cleanup()

	c := dialWS(t, wsURL)
	defer c.Close()

	sendMsg(t, c, "join", map[string]string{"name": "Lost", "sid": GenerateUUID()})
	if env := readEnvelope(t, c); env.T != MsgError {
		t.Fatalf("expected error, got %s", env.T)
	}
}

func TestThirdPlayerRejected(t *testing.T) {
	_, wsURL, cleanup := startTestServer(t)
	defer cleanup()

	c1, c2, c3 := dialWS(t, wsURL), dialWS(t, wsURL), dialWS(t, wsURL)
	defer c1.Close()
	defer c2.Close()
	defer c3.Close()

	sid := createAndJoin(t, c1, "Alice", "Arena")
	joinRoom(t, c2, "Bob", sid, "")

	sendMsg(t, c3, "join", map[string]string{"name": "Carol", "sid": sid})
	env := readEnvelope(t, c3)
	if env.T != MsgError || dataMap(t, env)["msg"] != "session full" {
		t.Errorf("expected session full, got %s %v", env.T, env.Data)
	}
}

func TestPasscodeRoom(t *testing.T) {
	_, wsURL, cleanup := startTestServer(t)
	defer cleanup()

	c1, c2 := dialWS(t, wsURL), dialWS(t, wsURL)
	defer c1.Close()
	defer c2.Close()

	sid := createRoom(t, c1, "Private", "orbit")

	sendMsg(t, c2, "list", nil)
	list := readEnvelope(t, c2)
	raw, _ := json.Marshal(list.Data)
	var sessions []SessionInfo
	json.Unmarshal(raw, &sessions)
	if len(sessions) != 1 || !sessions[0].Locked {
		t.Fatalf("expected one locked session, got %+v", sessions)
	}

	sendMsg(t, c2, "join", map[string]string{"name": "Eve", "sid": sid, "pass": "guess"})
	if env := readEnvelope(t, c2); env.T != MsgError {
		t.Fatalf("wrong passcode should be rejected, got %s", env.T)
	}
	joinRoom(t, c2, "Bob", sid, "orbit")
}

// ---------- Full round over the wire ----------

func TestPlayRoundOverWebSocket(t *testing.T) {
	_, wsURL, cleanup := startTestServer(t)
	defer cleanup()

	c1, c2 := dialWS(t, wsURL), dialWS(t, wsURL)
	defer c1.Close()
	defer c2.Close()

	sid := createAndJoin(t, c1, "Alice", "Duel")
	w2 := joinRoom(t, c2, "Bob", sid, "")
	if w2["seat"].(float64) != 2 {
		t.Fatalf("second player should take seat 2, got %v", w2["seat"])
	}

	st := readState(t, c1)
	if st.Phase != "setup" || len(st.Planets) != 2 {
		t.Fatalf("unexpected initial state %+v", st)
	}

	sendMsg(t, c2, "aim", map[string]float64{"deg": 90})
	sendMsg(t, c1, "ready", map[string]bool{"on": true})
	sendMsg(t, c2, "ready", map[string]bool{"on": true})

	hit := readUntil(t, c2, MsgHit)
	if d := dataMap(t, hit); d["a"].(float64) != 1 || d["d"].(float64) != 2 {
		t.Errorf("unexpected hit %v", d)
	}
	round := dataMap(t, readUntil(t, c2, MsgRound))
	if round["outcome"] != "player1" || round["over"] != false {
		t.Errorf("unexpected round %v", round)
	}
	lives := round["lives"].([]interface{})
	if lives[0].(float64) != 3 || lives[1].(float64) != 2 {
		t.Errorf("unexpected lives %v", lives)
	}

	// Aiming is rejected until someone continues
	sendMsg(t, c1, "aim", map[string]float64{"deg": 10})
	readUntil(t, c1, MsgError)

	sendMsg(t, c1, "continue", nil)
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if st := readState(t, c2); st.Phase == "setup" {
			if st.Aims != [2]float64{0, 180} {
				t.Errorf("aims should reset after a decisive round, got %v", st.Aims)
			}
			return
		}
	}
	t.Fatal("match did not return to setup")
}

// ---------- Resume ----------

func TestResumeSeatAfterDrop(t *testing.T) {
	_, wsURL, cleanup := startTestServer(t)
	defer cleanup()
	SessionIdleTimeout = 5 * time.Second

	c1 := dialWS(t, wsURL)
	sid := createRoom(t, c1, "Duel", "")
	w := joinRoom(t, c1, "Alice", sid, "")
	token := w["token"].(string)
	c1.Close()
	time.Sleep(100 * time.Millisecond)

	c2 := dialWS(t, wsURL)
	defer c2.Close()
	sendMsg(t, c2, "resume", map[string]string{"token": token})
	joined := readEnvelope(t, c2)
	if joined.T != MsgJoined || dataMap(t, joined)["sid"] != sid {
		t.Fatalf("expected to rejoin %s, got %s %v", sid, joined.T, joined.Data)
	}
	welcome := dataMap(t, readEnvelope(t, c2))
	if welcome["id"] != w["id"] || welcome["seat"].(float64) != 1 {
		t.Errorf("expected seat 1 back, got %v", welcome)
	}

	c3 := dialWS(t, wsURL)
	defer c3.Close()
	sendMsg(t, c3, "resume", map[string]string{"token": "bogus"})
	if env := readEnvelope(t, c3); env.T != MsgError {
		t.Errorf("bogus token should be rejected, got %s", env.T)
	}
}

// ---------- Session cleanup ----------

func TestCreateAndLeaveSession(t *testing.T) {
	_, wsURL, cleanup := startTestServer(t)
	defer cleanup()

	c := dialWS(t, wsURL)
	defer c.Close()
	sid := createAndJoin(t, c, "Solo", "TempBattle")

	c2 := dialWS(t, wsURL)
	defer c2.Close()

	sendMsg(t, c, "leave", nil)
	time.Sleep(SessionIdleTimeout + 100*time.Millisecond)

	sendMsg(t, c2, "check", map[string]string{"sid": sid})
	if dataMap(t, readEnvelope(t, c2))["exists"] != false {
		t.Error("session should be cleaned up after last player leaves")
	}
}
