package server

import (
	"net/http"
	"strings"
	"testing"
)

func TestHealthz(t *testing.T) {
	_, ts := startServer(t)
	resp := doRequest(t, ts, http.MethodGet, "/healthz", nil)
	expectStatus(t, resp, http.StatusOK)
	if body := decodeBody(t, resp); body["status"] != "ok" {
		t.Fatalf("expected status ok, got %v", body["status"])
	}
}

func TestSessionRequired(t *testing.T) {
	_, ts := startServer(t)
	expectError(t, doRequest(t, ts, http.MethodPost, "/api/rooms", nil), http.StatusUnauthorized, "UNAUTHENTICATED")

	forged := &testUser{token: "not-a-token"}
	expectError(t, doAuthRequest(t, ts, forged, http.MethodPost, "/api/rooms", nil), http.StatusUnauthorized, "UNAUTHENTICATED")
}

func TestUnknownRoute(t *testing.T) {
	_, ts := startServer(t)
	expectError(t, doRequest(t, ts, http.MethodGet, "/api/nowhere", nil), http.StatusNotFound, "NOT_FOUND")
}

func TestCreateAndJoinRoom(t *testing.T) {
	_, ts := startServer(t)
	host := newUser(t, ts)
	roomID, code := createRoom(t, ts, host)
	if len(code) != 6 {
		t.Fatalf("expected 6 character code, got %q", code)
	}

	ada := newUser(t, ts)
	joinRoom(t, ts, ada, strings.ToLower(code), "Ada")

	twin := newUser(t, ts)
	expectError(t, doAuthRequest(t, ts, twin, http.MethodPost, "/api/rooms/join", map[string]string{
		"code": code,
		"name": "Ada",
	}), http.StatusConflict, "DUPLICATE_NAME")

	expectError(t, doAuthRequest(t, ts, ada, http.MethodPost, "/api/rooms/join", map[string]string{
		"code": code,
		"name": "Ada Again",
	}), http.StatusConflict, "ALREADY_JOINED")

	expectError(t, doAuthRequest(t, ts, twin, http.MethodPost, "/api/rooms/join", map[string]string{
		"code": code,
	}), http.StatusBadRequest, "MISSING_FIELD")

	expectError(t, doAuthRequest(t, ts, twin, http.MethodPost, "/api/rooms/join", map[string]string{
		"code": code,
		"name": strings.Repeat("x", 21),
	}), http.StatusBadRequest, "INVALID_REQUEST")

	expectError(t, doAuthRequest(t, ts, twin, http.MethodPost, "/api/rooms/join", map[string]string{
		"code": "ZZZZZZ",
		"name": "Bea",
	}), http.StatusNotFound, "ROOM_NOT_FOUND")

	snapshot := fetchSnapshot(t, ts, roomID, host)
	players := snapshot["players"].([]any)
	if len(players) != 1 {
		t.Fatalf("expected one player, got %d", len(players))
	}
	if name := players[0].(map[string]any)["name"]; name != "Ada" {
		t.Fatalf("expected Ada, got %v", name)
	}

	expectError(t, doAuthRequest(t, ts, twin, http.MethodGet, "/api/rooms/"+roomID, nil), http.StatusForbidden, "NOT_MEMBER")
}

func TestSettingsAndReady(t *testing.T) {
	_, ts := startServer(t)
	roomID, host, players := seatPlayers(t, ts, 3)

	expectError(t, doAuthRequest(t, ts, players[0], http.MethodPost, "/api/rooms/"+roomID+"/settings", map[string]int{
		"undercover_count": 1,
		"mr_white_count":   1,
	}), http.StatusForbidden, "NOT_HOST")

	expectError(t, doAuthRequest(t, ts, host, http.MethodPost, "/api/rooms/"+roomID+"/settings", map[string]int{
		"undercover_count": 1,
	}), http.StatusBadRequest, "MISSING_FIELD")

	resp := doAuthRequest(t, ts, host, http.MethodPost, "/api/rooms/"+roomID+"/settings", map[string]int{
		"undercover_count": 1,
		"mr_white_count":   1,
	})
	expectStatus(t, resp, http.StatusOK)
	settings := decodeBody(t, resp)["room"].(map[string]any)["settings"].(map[string]any)
	if settings["mrWhiteCount"] != float64(1) {
		t.Fatalf("expected mr white count 1, got %v", settings["mrWhiteCount"])
	}

	expectError(t, doAuthRequest(t, ts, players[1], http.MethodPost, "/api/players/"+players[0].playerID+"/ready", nil), http.StatusForbidden, "NOT_PLAYER_OWNER")
	expectError(t, doAuthRequest(t, ts, players[0], http.MethodPost, "/api/players/missing/ready", nil), http.StatusNotFound, "PLAYER_NOT_FOUND")

	resp = doAuthRequest(t, ts, players[0], http.MethodPost, "/api/players/"+players[0].playerID+"/ready", nil)
	expectStatus(t, resp, http.StatusOK)
	if ready := decodeBody(t, resp)["player"].(map[string]any)["is_ready"]; ready != true {
		t.Fatalf("expected player ready, got %v", ready)
	}
}

func TestStartGameGuards(t *testing.T) {
	_, ts := startServer(t)
	roomID, host, players := seatPlayers(t, ts, 2)

	expectError(t, doAuthRequest(t, ts, players[0], http.MethodPost, "/api/rooms/"+roomID+"/start", nil), http.StatusForbidden, "NOT_HOST")

	body := expectError(t, doAuthRequest(t, ts, host, http.MethodPost, "/api/rooms/"+roomID+"/start", nil), http.StatusBadRequest, "NOT_ENOUGH_PLAYERS")
	metadata, ok := body["metadata"].(map[string]any)
	if !ok || metadata["players"] != "2" {
		t.Fatalf("expected player count metadata, got %#v", body["metadata"])
	}
	if status := roomStatus(t, ts, roomID, host); status != "lobby" {
		t.Fatalf("expected lobby, got %s", status)
	}

	late := newUser(t, ts)
	snapshot := fetchSnapshot(t, ts, roomID, host)
	code := snapshot["room"].(map[string]any)["room_code"].(string)
	joinRoom(t, ts, late, code, "Late")
	expectError(t, doAuthRequest(t, ts, host, http.MethodPost, "/api/rooms/"+roomID+"/start", nil), http.StatusBadRequest, "NOT_ALL_READY")

	startGame(t, ts, roomID, host, append(players, late))
	if status := roomStatus(t, ts, roomID, host); status != "playing" {
		t.Fatalf("expected playing, got %s", status)
	}
	expectError(t, doAuthRequest(t, ts, host, http.MethodPost, "/api/rooms/"+roomID+"/start", nil), http.StatusBadRequest, "ALREADY_STARTED")

	outsider := newUser(t, ts)
	expectError(t, doAuthRequest(t, ts, outsider, http.MethodPost, "/api/rooms/join", map[string]string{
		"code": code,
		"name": "Too Late",
	}), http.StatusBadRequest, "GAME_ALREADY_STARTED")
}

func TestFullGameOverHTTP(t *testing.T) {
	_, ts := startServer(t)
	roomID, host, players := seatPlayers(t, ts, 4)
	startGame(t, ts, roomID, host, players)

	var undercover *testUser
	for _, player := range players {
		if fetchRole(t, ts, roomID, player) == "undercover" {
			undercover = player
		}
	}
	if undercover == nil {
		t.Fatal("expected an undercover player")
	}
	expectError(t, doAuthRequest(t, ts, host, http.MethodGet, "/api/rooms/"+roomID+"/secret", nil), http.StatusNotFound, "SECRET_NOT_FOUND")
	expectError(t, doAuthRequest(t, ts, host, http.MethodGet, "/api/rooms/"+roomID+"/results", nil), http.StatusBadRequest, "GAME_NOT_FINISHED")

	expectError(t, castVote(t, ts, roomID, 1, players[0], players[1]), http.StatusBadRequest, "WRONG_PHASE")
	expectStatus(t, doAuthRequest(t, ts, host, http.MethodPost, "/api/rooms/"+roomID+"/voting", nil), http.StatusOK)

	for _, voter := range players {
		target := undercover
		if voter == undercover {
			target = players[0]
			if target == undercover {
				target = players[1]
			}
		}
		expectStatus(t, castVote(t, ts, roomID, 1, voter, target), http.StatusCreated)
	}
	expectError(t, castVote(t, ts, roomID, 1, players[0], players[1]), http.StatusConflict, "DUPLICATE_VOTE")

	resp := doAuthRequest(t, ts, host, http.MethodPost, "/api/rooms/"+roomID+"/tally", nil)
	expectStatus(t, resp, http.StatusOK)
	result := decodeBody(t, resp)
	if result["result"] != "game-over" || result["winner"] != "civilian" {
		t.Fatalf("expected civilian win, got %v", result)
	}
	if result["eliminatedPlayerId"] != undercover.playerID {
		t.Fatalf("expected undercover eliminated, got %v", result["eliminatedPlayerId"])
	}

	resp = doAuthRequest(t, ts, host, http.MethodPost, "/api/rooms/"+roomID+"/tally", nil)
	expectStatus(t, resp, http.StatusOK)
	if again := decodeBody(t, resp); again["eliminatedPlayerId"] != undercover.playerID {
		t.Fatalf("expected repeated tally to replay, got %v", again)
	}

	resp = doAuthRequest(t, ts, players[2], http.MethodGet, "/api/rooms/"+roomID+"/results", nil)
	expectStatus(t, resp, http.StatusOK)
	reveal := decodeBody(t, resp)
	if reveal["winner"] != "civilian" {
		t.Fatalf("expected civilian winner, got %v", reveal["winner"])
	}
	if revealed := reveal["players"].([]any); len(revealed) != 4 {
		t.Fatalf("expected 4 revealed players, got %d", len(revealed))
	}

	resp = doAuthRequest(t, ts, host, http.MethodGet, "/api/rooms/"+roomID+"/history", nil)
	expectStatus(t, resp, http.StatusOK)
	if total := decodeBody(t, resp)["total"]; total != float64(1) {
		t.Fatalf("expected one history entry, got %v", total)
	}

	expectError(t, doAuthRequest(t, ts, players[0], http.MethodPost, "/api/rooms/"+roomID+"/reset", nil), http.StatusForbidden, "NOT_HOST")
	expectStatus(t, doAuthRequest(t, ts, host, http.MethodPost, "/api/rooms/"+roomID+"/reset", nil), http.StatusOK)
	if status := roomStatus(t, ts, roomID, host); status != "lobby" {
		t.Fatalf("expected lobby after reset, got %s", status)
	}
	expectError(t, doAuthRequest(t, ts, players[0], http.MethodGet, "/api/rooms/"+roomID+"/secret", nil), http.StatusNotFound, "SECRET_NOT_FOUND")
}

func TestSavedAnswerUsedAtTally(t *testing.T) {
	_, ts := startServer(t)
	roomID, host, players := seatPlayers(t, ts, 4)
	expectStatus(t, doAuthRequest(t, ts, host, http.MethodPost, "/api/rooms/"+roomID+"/settings", map[string]int{
		"undercover_count": 1,
		"mr_white_count":   1,
	}), http.StatusOK)

	answerPath := "/api/rooms/" + roomID + "/answer"
	expectError(t, doAuthRequest(t, ts, players[0], http.MethodPost, answerPath, map[string]string{"guess": "Coffee"}), http.StatusBadRequest, "WRONG_PHASE")

	startGame(t, ts, roomID, host, players)
	var mrWhite, civilian *testUser
	for _, player := range players {
		switch fetchRole(t, ts, roomID, player) {
		case "mrwhite":
			mrWhite = player
		case "civilian":
			civilian = player
		}
	}
	if mrWhite == nil || civilian == nil {
		t.Fatal("expected a Mr. White and a civilian")
	}
	word := fetchSecret(t, ts, roomID, civilian)["word"].(string)

	expectError(t, doAuthRequest(t, ts, civilian, http.MethodPost, answerPath, map[string]string{"guess": word}), http.StatusBadRequest, "GUESS_NOT_EXPECTED")
	expectError(t, doAuthRequest(t, ts, mrWhite, http.MethodPost, answerPath, map[string]string{}), http.StatusBadRequest, "MISSING_FIELD")

	resp := doAuthRequest(t, ts, mrWhite, http.MethodPost, answerPath, map[string]string{"guess": " " + word + " "})
	expectStatus(t, resp, http.StatusOK)
	if saved := decodeBody(t, resp); saved["mr_white_answer"] != word {
		t.Fatalf("expected saved answer %q, got %v", word, saved["mr_white_answer"])
	}

	expectStatus(t, doAuthRequest(t, ts, host, http.MethodPost, "/api/rooms/"+roomID+"/voting", nil), http.StatusOK)
	for _, voter := range players {
		target := mrWhite
		if voter == mrWhite {
			target = civilian
		}
		expectStatus(t, castVote(t, ts, roomID, 1, voter, target), http.StatusCreated)
	}

	resp = doAuthRequest(t, ts, host, http.MethodPost, "/api/rooms/"+roomID+"/tally", nil)
	expectStatus(t, resp, http.StatusOK)
	result := decodeBody(t, resp)
	if result["result"] != "game-over" || result["winner"] != "mrwhite" {
		t.Fatalf("expected Mr. White win from saved answer, got %v", result)
	}
}

func TestVoteValidation(t *testing.T) {
	_, ts := startServer(t)
	roomID, host, players := seatPlayers(t, ts, 3)
	startGame(t, ts, roomID, host, players)
	expectStatus(t, doAuthRequest(t, ts, host, http.MethodPost, "/api/rooms/"+roomID+"/voting", nil), http.StatusOK)

	expectError(t, castVote(t, ts, roomID, 2, players[0], players[1]), http.StatusBadRequest, "STALE_ROUND")
	expectError(t, castVote(t, ts, roomID, 1, players[0], players[0]), http.StatusBadRequest, "INVALID_VOTE")

	impostor := &testUser{token: players[1].token, playerID: players[0].playerID}
	expectError(t, castVote(t, ts, roomID, 1, impostor, players[2]), http.StatusForbidden, "NOT_PLAYER_OWNER")

	expectError(t, doAuthRequest(t, ts, players[0], http.MethodPost, "/api/rooms/"+roomID+"/votes", map[string]any{
		"round":    1,
		"voter_id": players[0].playerID,
	}), http.StatusBadRequest, "MISSING_FIELD")

	expectStatus(t, castVote(t, ts, roomID, 1, players[0], players[1]), http.StatusCreated)
	body := expectError(t, doAuthRequest(t, ts, host, http.MethodPost, "/api/rooms/"+roomID+"/tally", nil), http.StatusBadRequest, "VOTES_INCOMPLETE")
	if metadata := body["metadata"].(map[string]any); metadata["cast"] != "1" || metadata["expected"] != "3" {
		t.Fatalf("expected vote counts in metadata, got %v", metadata)
	}

	snapshot := fetchSnapshot(t, ts, roomID, players[1])
	if cast := snapshot["votes_cast"]; cast != float64(1) {
		t.Fatalf("expected one vote cast, got %v", cast)
	}

	expectError(t, doAuthRequest(t, ts, host, http.MethodPost, "/api/rooms/"+roomID+"/tally", map[string]string{
		"guess": strings.Repeat("x", 61),
	}), http.StatusBadRequest, "INVALID_REQUEST")
	expectError(t, doAuthRequest(t, ts, players[0], http.MethodPost, "/api/rooms/"+roomID+"/guess", map[string]string{
		"guess": "Coffee",
	}), http.StatusBadRequest, "GUESS_NOT_EXPECTED")
}

func TestHistoryPagination(t *testing.T) {
	_, ts := startServer(t)
	roomID, host, players := seatPlayers(t, ts, 4)
	startGame(t, ts, roomID, host, players)

	a, b, c, d := players[0], players[1], players[2], players[3]
	for round := 1; round <= 2; round++ {
		expectStatus(t, doAuthRequest(t, ts, host, http.MethodPost, "/api/rooms/"+roomID+"/voting", nil), http.StatusOK)
		expectStatus(t, castVote(t, ts, roomID, round, a, c), http.StatusCreated)
		expectStatus(t, castVote(t, ts, roomID, round, b, c), http.StatusCreated)
		expectStatus(t, castVote(t, ts, roomID, round, c, a), http.StatusCreated)
		expectStatus(t, castVote(t, ts, roomID, round, d, a), http.StatusCreated)

		resp := doAuthRequest(t, ts, host, http.MethodPost, "/api/rooms/"+roomID+"/tally", nil)
		expectStatus(t, resp, http.StatusOK)
		if outcome := decodeBody(t, resp)["result"]; outcome != "tie" {
			t.Fatalf("expected tie in round %d, got %v", round, outcome)
		}
	}

	resp := doAuthRequest(t, ts, a, http.MethodGet, "/api/rooms/"+roomID+"/history?per_page=1&page=2", nil)
	expectStatus(t, resp, http.StatusOK)
	body := decodeBody(t, resp)
	if body["total"] != float64(2) {
		t.Fatalf("expected two results, got %v", body["total"])
	}
	results := body["results"].([]any)
	if len(results) != 1 {
		t.Fatalf("expected one result on page 2, got %d", len(results))
	}
	if round := results[0].(map[string]any)["round"]; round != float64(2) {
		t.Fatalf("expected round 2 on page 2, got %v", round)
	}

	resp = doAuthRequest(t, ts, a, http.MethodGet, "/api/rooms/"+roomID+"/history?per_page=5&page=9", nil)
	expectStatus(t, resp, http.StatusOK)
	if results := decodeBody(t, resp)["results"].([]any); len(results) != 0 {
		t.Fatalf("expected empty page, got %d", len(results))
	}
}
