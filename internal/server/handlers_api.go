package server

import (
	"log"
	"net/http"

	"undercover/internal/game"

	"github.com/gin-gonic/gin"
)

type roomURI struct {
	RoomID string `uri:"roomID" binding:"required"`
}

type playerURI struct {
	PlayerID string `uri:"playerID" binding:"required"`
}

type joinRequest struct {
	Code string `json:"code" binding:"required"`
	Name string `json:"name" binding:"required,name"`
}

type settingsRequest struct {
	UndercoverCount *int `json:"undercover_count" binding:"required"`
	MrWhiteCount    *int `json:"mr_white_count" binding:"required"`
}

type voteRequest struct {
	Round    int    `json:"round"`
	VoterID  string `json:"voter_id" binding:"required"`
	TargetID string `json:"target_id" binding:"required"`
}

type tallyRequest struct {
	Guess string `json:"guess" binding:"omitempty,guess"`
}

type guessRequest struct {
	Guess string `json:"guess" binding:"required,guess"`
}

var joinMessages = bindMessages{
	"Code": {"required": "room code is required"},
	"Name": {
		"required": "name is required",
		"name":     "name must be 1-20 printable characters",
	},
}

var settingsMessages = bindMessages{
	"UndercoverCount": {"required": "undercover_count is required"},
	"MrWhiteCount":    {"required": "mr_white_count is required"},
}

var voteMessages = bindMessages{
	"VoterID":  {"required": "voter_id is required"},
	"TargetID": {"required": "target_id is required"},
}

var guessMessages = bindMessages{
	"Guess": {
		"required": "guess is required",
		"guess":    "guess must be 1-60 printable characters",
	},
}

func bindRoom(c *gin.Context) (string, bool) {
	var uri roomURI
	if !bindURI(c, &uri) {
		return "", false
	}
	return uri.RoomID, true
}

func bindURI(c *gin.Context, req any) bool {
	if err := c.ShouldBindUri(req); err != nil {
		c.Status(http.StatusNotFound)
		return false
	}
	return true
}

func (s *Server) handleCreateRoom(c *gin.Context) {
	room, err := s.manager.CreateRoom(c.Request.Context(), identityFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	log.Printf("room created room_id=%s code=%s", room.ID, room.Code)
	c.JSON(http.StatusCreated, gin.H{
		"room_id":   room.ID,
		"room_code": room.Code,
	})
}

func (s *Server) handleJoinRoom(c *gin.Context) {
	var req joinRequest
	if !bindJSON(c, &req, joinMessages, "invalid join request") {
		return
	}
	room, player, err := s.manager.JoinRoom(c.Request.Context(), req.Code, identityFrom(c), req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	log.Printf("player joined room_id=%s player_id=%s", room.ID, player.ID)
	c.JSON(http.StatusOK, gin.H{
		"room":   room,
		"player": player,
	})
}

func (s *Server) handleGetRoom(c *gin.Context) {
	roomID, ok := bindRoom(c)
	if !ok {
		return
	}
	snapshot, err := s.manager.Snapshot(c.Request.Context(), roomID, identityFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

func (s *Server) handleHistory(c *gin.Context) {
	roomID, ok := bindRoom(c)
	if !ok {
		return
	}
	results, err := s.manager.History(c.Request.Context(), roomID, identityFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	page, perPage := parsePagination(c, defaultHistoryPerPage, maxHistoryPerPage)
	start, end := pageBounds(page, perPage, len(results))
	items := make([]game.VoteResult, 0, end-start)
	items = append(items, results[start:end]...)
	c.JSON(http.StatusOK, gin.H{
		"results":  items,
		"page":     page,
		"per_page": perPage,
		"total":    len(results),
	})
}

func (s *Server) handleUpdateSettings(c *gin.Context) {
	roomID, ok := bindRoom(c)
	if !ok {
		return
	}
	var req settingsRequest
	if !bindJSON(c, &req, settingsMessages, "invalid settings") {
		return
	}
	room, err := s.manager.UpdateSettings(c.Request.Context(), roomID, identityFrom(c), game.Settings{
		UndercoverCount: *req.UndercoverCount,
		MrWhiteCount:    *req.MrWhiteCount,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"room": room})
}

func (s *Server) handleToggleReady(c *gin.Context) {
	var uri playerURI
	if !bindURI(c, &uri) {
		return
	}
	player, err := s.manager.ToggleReady(c.Request.Context(), uri.PlayerID, identityFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"player": player})
}

func (s *Server) handleStartGame(c *gin.Context) {
	roomID, ok := bindRoom(c)
	if !ok {
		return
	}
	room, err := s.manager.StartGame(c.Request.Context(), roomID, identityFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	log.Printf("game started room_id=%s round=%d", room.ID, room.CurrentRound)
	c.JSON(http.StatusOK, gin.H{"room": room})
}

func (s *Server) handleStartVoting(c *gin.Context) {
	roomID, ok := bindRoom(c)
	if !ok {
		return
	}
	room, err := s.manager.StartVoting(c.Request.Context(), roomID, identityFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"room": room})
}

func (s *Server) handleCastVote(c *gin.Context) {
	roomID, ok := bindRoom(c)
	if !ok {
		return
	}
	var req voteRequest
	if !bindJSON(c, &req, voteMessages, "invalid vote") {
		return
	}
	vote, err := s.manager.CastVote(c.Request.Context(), roomID, req.Round, identityFrom(c), req.VoterID, req.TargetID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"vote": vote})
}

func (s *Server) handleTally(c *gin.Context) {
	roomID, ok := bindRoom(c)
	if !ok {
		return
	}
	var req tallyRequest
	if !bindOptionalJSON(c, &req, guessMessages, "invalid tally request") {
		return
	}
	result, err := s.manager.Tally(c.Request.Context(), roomID, identityFrom(c), req.Guess)
	if err != nil {
		respondError(c, err)
		return
	}
	log.Printf("round tallied room_id=%s round=%d result=%s winner=%s", roomID, result.Round, result.Outcome, result.Winner)
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleSubmitGuess(c *gin.Context) {
	roomID, ok := bindRoom(c)
	if !ok {
		return
	}
	var req guessRequest
	if !bindJSON(c, &req, guessMessages, "invalid guess") {
		return
	}
	result, err := s.manager.SubmitGuess(c.Request.Context(), roomID, identityFrom(c), req.Guess)
	if err != nil {
		respondError(c, err)
		return
	}
	log.Printf("guess resolved room_id=%s round=%d result=%s winner=%s", roomID, result.Round, result.Outcome, result.Winner)
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleSaveAnswer(c *gin.Context) {
	roomID, ok := bindRoom(c)
	if !ok {
		return
	}
	var req guessRequest
	if !bindJSON(c, &req, guessMessages, "invalid answer") {
		return
	}
	secret, err := s.manager.SaveGuessAnswer(c.Request.Context(), roomID, identityFrom(c), req.Guess)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, secret)
}

func (s *Server) handleReset(c *gin.Context) {
	roomID, ok := bindRoom(c)
	if !ok {
		return
	}
	room, err := s.manager.ResetToLobby(c.Request.Context(), roomID, identityFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	log.Printf("room reset room_id=%s", room.ID)
	c.JSON(http.StatusOK, gin.H{"room": room})
}

func (s *Server) handleSecret(c *gin.Context) {
	roomID, ok := bindRoom(c)
	if !ok {
		return
	}
	secret, err := s.manager.GetSecret(c.Request.Context(), roomID, identityFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, secret)
}

func (s *Server) handleResults(c *gin.Context) {
	roomID, ok := bindRoom(c)
	if !ok {
		return
	}
	results, err := s.manager.GetResults(c.Request.Context(), roomID, identityFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}
