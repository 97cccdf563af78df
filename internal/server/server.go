// Package server seats remote bots connected over websockets in matches
// alongside built-in bots.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/marno1d/callmybluff/internal/protocol"
)

// handshakeWait bounds how long a new connection has to introduce itself
const handshakeWait = 10 * time.Second

// Server accepts websocket connections from remote bots and hands them to
// whoever is waiting in Accept.
type Server struct {
	upgrader    websocket.Upgrader
	connections map[*Connection]bool
	lobby       chan *Connection
	logger      *log.Logger
	mu          sync.RWMutex
	ctx         context.Context
	cancel      context.CancelFunc
}

// NewServer creates a new WebSocket server
func NewServer(logger *log.Logger) *Server {
	ctx, cancel := context.WithCancel(context.Background())

	return &Server{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		connections: make(map[*Connection]bool),
		lobby:       make(chan *Connection),
		logger:      logger.WithPrefix("server"),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Handler returns the HTTP handler serving /ws and /health
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)
	return mux
}

// ListenAndServe serves on addr until ctx is cancelled
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler(), ReadHeaderTimeout: handshakeWait}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting WebSocket server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.Stop()
		if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// Stop closes every connection and stops accepting new ones
func (s *Server) Stop() {
	s.cancel()

	s.mu.Lock()
	for conn := range s.connections {
		_ = conn.Close()
	}
	s.mu.Unlock()
}

// Accept waits for the next bot to connect and introduce itself
func (s *Server) Accept(ctx context.Context) (*Connection, error) {
	select {
	case conn := <-s.lobby:
		return conn, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.ctx.Done():
		return nil, ErrConnectionClosed
	}
}

// ConnectedBots returns the names of the connected bots
func (s *Server) ConnectedBots() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var names []string
	for conn := range s.connections {
		names = append(names, conn.Name())
	}
	return names
}

// handleWebSocket upgrades the request, reads the connect message and then
// waits for the connection to be accepted into a match
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection", "error", err)
		return
	}

	name, err := s.handshake(ws)
	if err != nil {
		s.logger.Warn("Rejected connection", "remote", r.RemoteAddr, "error", err)
		if msg, merr := protocol.NewMessage(protocol.TypeError, protocol.Error{Code: "invalid_connect", Message: err.Error()}); merr == nil {
			_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
			_ = ws.WriteJSON(msg)
		}
		_ = ws.Close()
		return
	}

	conn := NewConnection(ws, name, s.logger)
	s.register(conn)
	conn.Start()
	s.logger.Info("Bot connected", "bot", name, "remote", r.RemoteAddr)

	go func() {
		<-conn.Done()
		s.unregister(conn)
	}()

	select {
	case s.lobby <- conn:
	case <-conn.Done():
	case <-s.ctx.Done():
		_ = conn.Close()
	}
}

func (s *Server) handshake(ws *websocket.Conn) (string, error) {
	_ = ws.SetReadDeadline(time.Now().Add(handshakeWait))
	defer func() { _ = ws.SetReadDeadline(time.Time{}) }()

	var msg protocol.Message
	if err := ws.ReadJSON(&msg); err != nil {
		return "", fmt.Errorf("read connect: %w", err)
	}
	var connect protocol.Connect
	if err := msg.Decode(protocol.TypeConnect, &connect); err != nil {
		return "", err
	}
	name := strings.TrimSpace(connect.Name)
	if name == "" {
		return "", errors.New("bot name required")
	}
	return name, nil
}

func (s *Server) register(conn *Connection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connections[conn] = true
}

func (s *Server) unregister(conn *Connection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.connections[conn]; ok {
		delete(s.connections, conn)
		s.logger.Info("Bot disconnected", "bot", conn.Name(), "total", len(s.connections))
	}
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "OK")
}
