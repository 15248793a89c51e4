package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"slices"
	"sync"
	"time"

	"undercover/internal/game"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const wsWriteTimeout = 5 * time.Second

type wsClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsClient) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

type wsGroup struct {
	clients map[*wsClient]struct{}
	cancel  func()
}

// wsHub tracks websocket clients per room. Each watched room holds one feed
// subscription that is released with its last client.
type wsHub struct {
	mu     sync.Mutex
	groups map[string]*wsGroup
}

func newWSHub() *wsHub {
	return &wsHub{groups: make(map[string]*wsGroup)}
}

// Add registers client. The first client of a room subscribes and gets the
// feed channel back; later clients get nil.
func (h *wsHub) Add(roomID string, client *wsClient, subscribe func() (<-chan game.Room, func())) <-chan game.Room {
	h.mu.Lock()
	defer h.mu.Unlock()
	group := h.groups[roomID]
	var feed <-chan game.Room
	if group == nil {
		ch, cancel := subscribe()
		group = &wsGroup{clients: make(map[*wsClient]struct{}), cancel: cancel}
		h.groups[roomID] = group
		feed = ch
	}
	group.clients[client] = struct{}{}
	return feed
}

func (h *wsHub) Remove(roomID string, client *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	group := h.groups[roomID]
	if group == nil {
		return
	}
	if _, ok := group.clients[client]; !ok {
		return
	}
	delete(group.clients, client)
	_ = client.conn.Close()
	if len(group.clients) == 0 {
		delete(h.groups, roomID)
		group.cancel()
	}
}

func (h *wsHub) Clients(roomID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if group := h.groups[roomID]; group != nil {
		return len(group.clients)
	}
	return 0
}

func (h *wsHub) CloseAll() {
	h.mu.Lock()
	groups := h.groups
	h.groups = make(map[string]*wsGroup)
	h.mu.Unlock()
	for _, group := range groups {
		for client := range group.clients {
			_ = client.conn.Close()
		}
		group.cancel()
	}
}

func (h *wsHub) Send(client *wsClient, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	_ = client.write(data)
}

func (h *wsHub) Broadcast(roomID string, payload any) {
	h.mu.Lock()
	group := h.groups[roomID]
	var clients []*wsClient
	if group != nil {
		clients = make([]*wsClient, 0, len(group.clients))
		for client := range group.clients {
			clients = append(clients, client)
		}
	}
	h.mu.Unlock()

	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	for _, client := range clients {
		if err := client.write(data); err != nil {
			h.Remove(roomID, client)
		}
	}
}

func (s *Server) upgrader() websocket.Upgrader {
	allowed := s.cfg.AllowedOrigins
	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			if len(allowed) == 0 {
				return true
			}
			return slices.Contains(allowed, r.Header.Get("Origin"))
		},
	}
}

// handleWebsocket streams room snapshots to a member. Browsers cannot set
// headers on the upgrade request, so the token travels in the query string.
func (s *Server) handleWebsocket(c *gin.Context) {
	roomID, ok := bindRoom(c)
	if !ok {
		return
	}
	identity, err := s.issuer.Parse(c.Query("token"))
	if err != nil {
		respondError(c, err)
		return
	}
	snapshot, err := s.manager.Snapshot(c.Request.Context(), roomID, identity)
	if err != nil {
		respondError(c, err)
		return
	}
	upgrader := s.upgrader()
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	log.Printf("ws connected room_id=%s remote=%s", roomID, c.Request.RemoteAddr)
	client := &wsClient{conn: conn}
	if feed := s.ws.Add(roomID, client, func() (<-chan game.Room, func()) {
		return s.manager.Subscribe(roomID)
	}); feed != nil {
		go s.pumpRoom(roomID, feed)
	}
	s.ws.Send(client, snapshot)
	go s.readWS(roomID, client)
}

// pumpRoom broadcasts a fresh snapshot for every feed delivery until the
// room's last client leaves.
func (s *Server) pumpRoom(roomID string, feed <-chan game.Room) {
	for room := range feed {
		snapshot, err := s.manager.Snapshot(context.Background(), room.ID, room.HostID)
		if err != nil {
			log.Printf("ws snapshot failed room_id=%s error=%v", roomID, err)
			continue
		}
		s.ws.Broadcast(roomID, snapshot)
	}
}

func (s *Server) readWS(roomID string, client *wsClient) {
	defer s.ws.Remove(roomID, client)
	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			log.Printf("ws disconnected room_id=%s error=%v", roomID, err)
			return
		}
	}
}
