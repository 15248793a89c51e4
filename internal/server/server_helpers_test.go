package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

type testUser struct {
	identity string
	token    string
	playerID string
}

func newUser(t *testing.T, ts *httptest.Server) *testUser {
	t.Helper()
	resp := doRequest(t, ts, http.MethodPost, "/api/sessions", nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected status %d, got %d", http.StatusCreated, resp.StatusCode)
	}
	body := decodeBody(t, resp)
	return &testUser{
		identity: body["user_id"].(string),
		token:    body["token"].(string),
	}
}

func createRoom(t *testing.T, ts *httptest.Server, host *testUser) (string, string) {
	t.Helper()
	resp := doAuthRequest(t, ts, host, http.MethodPost, "/api/rooms", nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected status %d, got %d", http.StatusCreated, resp.StatusCode)
	}
	body := decodeBody(t, resp)
	return body["room_id"].(string), body["room_code"].(string)
}

func joinRoom(t *testing.T, ts *httptest.Server, user *testUser, code, name string) {
	t.Helper()
	resp := doAuthRequest(t, ts, user, http.MethodPost, "/api/rooms/join", map[string]string{
		"code": code,
		"name": name,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	body := decodeBody(t, resp)
	player := body["player"].(map[string]any)
	user.playerID = player["id"].(string)
}

// seatPlayers creates a room hosted by an unseated host and joins n players.
func seatPlayers(t *testing.T, ts *httptest.Server, n int) (string, *testUser, []*testUser) {
	t.Helper()
	host := newUser(t, ts)
	roomID, code := createRoom(t, ts, host)
	players := make([]*testUser, 0, n)
	for i := 0; i < n; i++ {
		user := newUser(t, ts)
		joinRoom(t, ts, user, code, "Player "+string(rune('A'+i)))
		players = append(players, user)
	}
	return roomID, host, players
}

func startGame(t *testing.T, ts *httptest.Server, roomID string, host *testUser, players []*testUser) {
	t.Helper()
	for _, player := range players {
		expectStatus(t, doAuthRequest(t, ts, player, http.MethodPost, "/api/players/"+player.playerID+"/ready", nil), http.StatusOK)
	}
	expectStatus(t, doAuthRequest(t, ts, host, http.MethodPost, "/api/rooms/"+roomID+"/start", nil), http.StatusOK)
}

func castVote(t *testing.T, ts *httptest.Server, roomID string, round int, voter, target *testUser) *http.Response {
	t.Helper()
	return doAuthRequest(t, ts, voter, http.MethodPost, "/api/rooms/"+roomID+"/votes", map[string]any{
		"round":     round,
		"voter_id":  voter.playerID,
		"target_id": target.playerID,
	})
}

func fetchSnapshot(t *testing.T, ts *httptest.Server, roomID string, user *testUser) map[string]any {
	t.Helper()
	resp := doAuthRequest(t, ts, user, http.MethodGet, "/api/rooms/"+roomID, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	return decodeBody(t, resp)
}

func roomStatus(t *testing.T, ts *httptest.Server, roomID string, user *testUser) string {
	t.Helper()
	snapshot := fetchSnapshot(t, ts, roomID, user)
	return snapshot["room"].(map[string]any)["status"].(string)
}

func fetchSecret(t *testing.T, ts *httptest.Server, roomID string, user *testUser) map[string]any {
	t.Helper()
	resp := doAuthRequest(t, ts, user, http.MethodGet, "/api/rooms/"+roomID+"/secret", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	return decodeBody(t, resp)
}

func fetchRole(t *testing.T, ts *httptest.Server, roomID string, user *testUser) string {
	t.Helper()
	return fetchSecret(t, ts, roomID, user)["role"].(string)
}

func doRequest(t *testing.T, ts *httptest.Server, method, path string, payload any) *http.Response {
	t.Helper()
	return send(t, newRequest(t, ts, method, path, payload))
}

func doAuthRequest(t *testing.T, ts *httptest.Server, user *testUser, method, path string, payload any) *http.Response {
	t.Helper()
	req := newRequest(t, ts, method, path, payload)
	req.Header.Set("Authorization", "Bearer "+user.token)
	return send(t, req)
}

func newRequest(t *testing.T, ts *httptest.Server, method, path string, payload any) *http.Request {
	t.Helper()
	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, ts.URL+path, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

func send(t *testing.T, req *http.Request) *http.Response {
	t.Helper()
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	t.Cleanup(func() {
		_ = resp.Body.Close()
	})
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return body
}

func expectStatus(t *testing.T, resp *http.Response, status int) {
	t.Helper()
	if resp.StatusCode != status {
		t.Fatalf("expected status %d, got %d", status, resp.StatusCode)
	}
}

// expectError checks the status and error code of a failed request.
func expectError(t *testing.T, resp *http.Response, status int, code string) map[string]any {
	t.Helper()
	if resp.StatusCode != status {
		t.Fatalf("expected status %d, got %d", status, resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["code"] != code {
		t.Fatalf("expected code %s, got %v (%v)", code, body["code"], body["error"])
	}
	if _, ok := body["error"].(string); !ok {
		t.Fatalf("expected error message, got %#v", body["error"])
	}
	return body
}
