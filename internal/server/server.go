package server

import (
	"context"
	"errors"
	"io/fs"
	"log"
	"net/http"
	"os"
	"time"

	"undercover/internal/auth"
	"undercover/internal/config"
	"undercover/internal/db"
	"undercover/internal/game"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type Server struct {
	manager *game.Manager
	db      *gorm.DB
	ws      *wsHub
	cfg     config.Config
	issuer  *auth.Issuer
}

// New wires the game engine to conn. A nil conn keeps all state in memory.
func New(conn *gorm.DB, cfg config.Config) *Server {
	var manager *game.Manager
	if conn == nil {
		manager = game.NewManager(game.NewMemoryStore(), game.WithWordSource(fileWords(cfg.WordsPath)))
	} else {
		store := db.NewStore(conn)
		manager = game.NewManager(store, game.WithWordSource(store))
	}
	return &Server{
		manager: manager,
		db:      conn,
		ws:      newWSHub(),
		cfg:     cfg,
		issuer:  auth.NewIssuer(cfg.SessionSecret, cfg.SessionTTL),
	}
}

// fileWords reads the word library from path. A missing or unreadable file
// leaves the built-in list in place.
func fileWords(path string) game.WordSource {
	if path == "" {
		return nil
	}
	file, err := os.Open(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Printf("word library unavailable path=%s error=%v", path, err)
		}
		return nil
	}
	defer file.Close()
	pairs, err := db.ReadWordPairs(file)
	if err != nil {
		log.Printf("word library unreadable path=%s error=%v", path, err)
		return nil
	}
	log.Printf("word library loaded path=%s pairs=%d", path, len(pairs))
	return game.WordList(pairs)
}

func (s *Server) Handler() http.Handler {
	registerValidators()
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	router.GET("/healthz", s.handleHealth)
	router.GET("/ws/rooms/:roomID", s.handleWebsocket)

	api := router.Group("/api")
	api.POST("/sessions", s.handleCreateSession)

	authed := api.Group("", s.requireSession)
	authed.POST("/rooms", s.handleCreateRoom)
	authed.POST("/rooms/join", s.handleJoinRoom)
	authed.GET("/rooms/:roomID", s.handleGetRoom)
	authed.GET("/rooms/:roomID/history", s.handleHistory)
	authed.GET("/rooms/:roomID/secret", s.handleSecret)
	authed.GET("/rooms/:roomID/results", s.handleResults)
	authed.POST("/rooms/:roomID/settings", s.handleUpdateSettings)
	authed.POST("/rooms/:roomID/start", s.handleStartGame)
	authed.POST("/rooms/:roomID/voting", s.handleStartVoting)
	authed.POST("/rooms/:roomID/votes", s.handleCastVote)
	authed.POST("/rooms/:roomID/tally", s.handleTally)
	authed.POST("/rooms/:roomID/guess", s.handleSubmitGuess)
	authed.POST("/rooms/:roomID/answer", s.handleSaveAnswer)
	authed.POST("/rooms/:roomID/reset", s.handleReset)
	authed.POST("/players/:playerID/ready", s.handleToggleReady)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found", "code": "NOT_FOUND"})
	})
	return router
}

// Close disconnects websocket clients.
func (s *Server) Close() {
	s.ws.CloseAll()
}

func (s *Server) handleHealth(c *gin.Context) {
	if s.db != nil {
		sqlDB, err := s.db.DB()
		if err == nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			log.Printf("health check failed error=%v", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
