// Package statusapi is a read-only HTTP+WebSocket surface for observing a
// running relay node: register membership, uptime, and a live feed of
// relay lifecycle events. It carries no counters or dashboards — just
// enough for an operator to see whether their node is doing anything.
package statusapi

import (
	"encoding/json"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/klingon-exchange/dib-relay/internal/duty"
	"github.com/klingon-exchange/dib-relay/internal/relay"
	"github.com/klingon-exchange/dib-relay/internal/transfer"
	"github.com/klingon-exchange/dib-relay/pkg/logging"
)

// Server serves /status, /transfers and /ws against a live register and
// duty config.
type Server struct {
	register  *transfer.Register
	dutyCfg   duty.Config
	startedAt time.Time
	log       *logging.Logger
	hub       *wsHub

	server   *http.Server
	listener net.Listener
}

// New builds a status server. dutyCfg is read on every /transfers request
// to report each live transfer's current owner/timeout state, so it's safe
// to pass the same duty.Config the engine runs with.
func New(register *transfer.Register, dutyCfg duty.Config) *Server {
	return &Server{
		register:  register,
		dutyCfg:   dutyCfg,
		startedAt: time.Now(),
		log:       logging.GetDefault().Component("statusapi"),
		hub:       newWSHub(),
	}
}

// OnEvent adapts the server into a relay.EventHandler so it can be
// registered directly with an Engine via OnEvent.
func (s *Server) OnEvent(ev relay.Event) {
	s.hub.broadcast(ev)
}

// Start listens on addr and serves until Stop is called.
func (s *Server) Start(addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.listener = listener

	go s.hub.run()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("GET /transfers", s.handleTransfers)
	mux.HandleFunc("GET /ws", s.handleWS)

	s.server = &http.Server{
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.log.Error("status server error", "error", err)
		}
	}()
	s.log.Info("status surface started", "addr", addr)
	return nil
}

// Stop closes the listener and every open connection immediately.
func (s *Server) Stop() error {
	if s.server == nil {
		return nil
	}
	return s.server.Close()
}

type statusResponse struct {
	NodeID    int    `json:"node_id"`
	NodeCount int    `json:"node_count"`
	Uptime    string `json:"uptime"`
	Registry  int    `json:"registered_transfers"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{
		NodeID:    s.dutyCfg.NodeID,
		NodeCount: s.dutyCfg.NodeCount,
		Uptime:    time.Since(s.startedAt).Round(time.Second).String(),
		Registry:  s.register.Len(),
	}
	writeJSON(w, resp)
}

type transferView struct {
	ID                  string `json:"id"`
	InitiatorID         string `json:"initiator_id"`
	InitiationTimestamp int64  `json:"initiation_timestamp"`
	Period              int    `json:"period"`
	MyDuty              bool   `json:"my_duty"`
	TimedOut            bool   `json:"timed_out"`
}

func (s *Server) handleTransfers(w http.ResponseWriter, r *http.Request) {
	live := s.register.Iterate()
	now := time.Now()
	views := make([]transferView, 0, len(live))
	for _, t := range live {
		mine, timedOut := duty.Evaluate(t, now, s.dutyCfg)
		age := now.Sub(time.Unix(t.InitiationTimestamp, 0))
		p := duty.ResolvePeriod(age, s.dutyCfg)
		views = append(views, transferView{
			ID:                  t.ID,
			InitiatorID:         t.InitiatorID,
			InitiationTimestamp: t.InitiationTimestamp,
			Period:              p.K,
			MyDuty:              mine,
			TimedOut:            timedOut,
		})
	}
	writeJSON(w, views)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error("websocket upgrade failed", "error", err)
		return
	}
	client := &wsClient{conn: conn, send: make(chan []byte, 64), hub: s.hub}
	s.hub.register <- client
	go client.writePump()
	go client.readPump()
}

// relayEventMessage is the wire shape of a RelayEvent pushed to /ws.
type relayEventMessage struct {
	TransferID  string `json:"transfer_id"`
	InitiatorID string `json:"initiator_id"`
	Type        string `json:"type"`
	Timestamp   int64  `json:"timestamp"`
	Error       string `json:"error,omitempty"`
}

type wsHub struct {
	clients    map[*wsClient]bool
	broadcastC chan relay.Event
	register   chan *wsClient
	unregister chan *wsClient
	mu         sync.RWMutex
}

func newWSHub() *wsHub {
	return &wsHub{
		clients:    make(map[*wsClient]bool),
		broadcastC: make(chan relay.Event, 256),
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
	}
}

func (h *wsHub) broadcast(ev relay.Event) {
	select {
	case h.broadcastC <- ev:
	default:
	}
}

func (h *wsHub) run() {
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			h.mu.Unlock()
		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
		case ev := <-h.broadcastC:
			msg := relayEventMessage{
				TransferID:  ev.TransferID,
				InitiatorID: ev.InitiatorID,
				Type:        string(ev.Type),
				Timestamp:   ev.Timestamp.Unix(),
			}
			if ev.Err != nil {
				msg.Error = ev.Err.Error()
			}
			data, err := json.Marshal(msg)
			if err != nil {
				continue
			}
			h.mu.RLock()
			for c := range h.clients {
				select {
				case c.send <- data:
				default:
				}
			}
			h.mu.RUnlock()
		}
	}
}

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
	hub  *wsHub
}

func (c *wsClient) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *wsClient) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
