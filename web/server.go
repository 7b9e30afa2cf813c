// Package web serves the local settings dashboard: a small JSON API over the
// prompt library, hotkey bindings, activity history and auth session, plus a
// websocket feed of live outcomes.
package web

import (
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"redraft/auth"
	"redraft/config"
	"redraft/hotkey"
	"redraft/prompts"
	"redraft/storage"
)

//go:embed static/*
var staticFiles embed.FS

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// The server only binds localhost.
		return true
	},
}

// Server is the dashboard HTTP server.
type Server struct {
	db       *storage.DB
	store    *prompts.Store
	registry *hotkey.Registry
	session  *auth.Bridge
	hub      *Hub

	// rebind re-arms the registry from the stored bindings after CRUD.
	rebind func() []hotkey.Status

	mu     sync.RWMutex
	config *config.Config
}

func NewServer(
	db *storage.DB,
	cfg *config.Config,
	store *prompts.Store,
	registry *hotkey.Registry,
	session *auth.Bridge,
	rebind func() []hotkey.Status,
) *Server {
	hub := NewHub()
	go hub.Run()

	return &Server{
		db:       db,
		config:   cfg,
		store:    store,
		registry: registry,
		session:  session,
		rebind:   rebind,
		hub:      hub,
	}
}

// Start blocks serving the dashboard on localhost.
func (s *Server) Start() error {
	r := s.routes()

	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		return fmt.Errorf("failed to load static files: %w", err)
	}
	r.Handle("/*", http.FileServer(http.FS(staticFS)))

	port := s.getConfig().Web.Port
	addr := fmt.Sprintf("localhost:%d", port)
	slog.Info("Starting web server", "url", fmt.Sprintf("http://%s", addr))

	return http.ListenAndServe(addr, r)
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/api", func(r chi.Router) {
		r.Get("/config", s.handleGetConfig)
		r.Put("/config", s.handlePutConfig)

		r.Get("/prompts", s.handleListPrompts)
		r.Post("/prompts", s.handleSavePrompt)
		r.Put("/prompts/{id}", s.handleSavePrompt)
		r.Delete("/prompts/{id}", s.handleDeletePrompt)

		r.Get("/hotkeys", s.handleListHotkeys)
		r.Post("/hotkeys", s.handleSaveHotkey)
		r.Put("/hotkeys/{id}", s.handleSaveHotkey)
		r.Delete("/hotkeys/{id}", s.handleDeleteHotkey)

		r.Post("/capture/start", s.handleCaptureStart)
		r.Post("/capture/stop", s.handleCaptureStop)
		r.Post("/capture/normalize", s.handleCaptureNormalize)

		r.Get("/auth", s.handleGetAuth)
		r.Post("/auth/session", s.handleSetSession)
		r.Delete("/auth/session", s.handleClearSession)

		r.Post("/sync", s.handleSync)

		r.Get("/history", s.handleGetHistory)
		r.Delete("/history/{id}", s.handleDeleteHistory)
		r.Get("/stats", s.handleStats)
		r.Get("/status", s.handleStatus)
	})

	r.Get("/ws", s.handleWebSocket)

	return r
}

func (s *Server) getConfig() *config.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config
}

func (s *Server) updateConfig(cfg *config.Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config = cfg
}

// BroadcastOutcome pushes a processing outcome to connected dashboards.
func (s *Server) BroadcastOutcome(data any) {
	s.hub.BroadcastMessage(Message{Type: MessageTypeOutcome, Data: data})
}

// BroadcastStatus pushes a status string to connected dashboards.
func (s *Server) BroadcastStatus(status string) {
	s.hub.BroadcastMessage(Message{
		Type: MessageTypeStatus,
		Data: map[string]string{"status": status},
	})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Failed to upgrade WebSocket connection", "error", err)
		return
	}

	client := &Client{
		hub:  s.hub,
		conn: conn,
		send: make(chan []byte, 256),
	}
	client.hub.register <- client

	go client.writePump()
	go client.readPump()
}
