// Package api exposes the session catalog over HTTP and streams session
// updates to clients as server-sent events.
package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/getnexar/skynet/internal/catalog"
	"github.com/getnexar/skynet/internal/ingest"
	"github.com/getnexar/skynet/internal/transcript"
)

type sessionResponse struct {
	SessionID   string `json:"session_id"`
	ProjectPath string `json:"project_path"`
	Status      string `json:"status"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

type messageResponse struct {
	ID        int64  `json:"id"`
	SessionID string `json:"session_id"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
	ToolName  string `json:"tool_name,omitempty"`
	ToolInput string `json:"tool_input,omitempty"`
}

type healthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

type handlers struct {
	store  *catalog.Store
	logger *log.Logger
	events *eventHub
}

// NewServer builds the HTTP server. When coord is non-nil the server
// registers itself as an ingest observer and forwards session updates to
// /api/events subscribers.
func NewServer(store *catalog.Store, coord *ingest.Coordinator, addr string, logger *log.Logger) *http.Server {
	h := &handlers{
		store:  store,
		logger: logger,
		events: newEventHub(),
	}

	if coord != nil {
		coord.OnSessionUpdate(func(sessionID string, messages []transcript.Message) error {
			h.events.broadcast(sessionUpdateEvent{
				Type:         "session_update",
				SessionID:    sessionID,
				MessageCount: len(messages),
			})
			return nil
		})
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", h.handleHealth)
	mux.HandleFunc("GET /api/sessions", h.handleListSessions)
	mux.HandleFunc("GET /api/sessions/{id}", h.handleGetSession)
	mux.HandleFunc("GET /api/sessions/{id}/messages", h.handleListMessages)
	mux.HandleFunc("GET /api/events", h.handleEvents)

	return &http.Server{
		Addr:    addr,
		Handler: mux,
	}
}

func (h *handlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "healthy", Service: "skynet"})
}

func (h *handlers) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.store.ListSessions(r.URL.Query().Get("status"))
	if err != nil {
		h.internalError(w, err)
		return
	}

	out := make([]sessionResponse, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, toSessionResponse(s))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handlers) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.store.GetSession(r.PathValue("id"))
	if err != nil {
		h.internalError(w, err)
		return
	}
	if session == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Detail: "session not found"})
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(*session))
}

func (h *handlers) handleListMessages(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	session, err := h.store.GetSession(id)
	if err != nil {
		h.internalError(w, err)
		return
	}
	if session == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Detail: "session not found"})
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		// invalid limits fall back to the store default
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}

	messages, err := h.store.ListMessages(id, limit)
	if err != nil {
		h.internalError(w, err)
		return
	}

	out := make([]messageResponse, 0, len(messages))
	for _, m := range messages {
		out = append(out, messageResponse{
			ID:        m.ID,
			SessionID: m.SessionID,
			Role:      m.Role,
			Content:   m.Content,
			Timestamp: m.Timestamp,
			ToolName:  m.ToolName,
			ToolInput: m.ToolInput,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handlers) internalError(w http.ResponseWriter, err error) {
	h.logger.Printf("api: %v", err)
	writeJSON(w, http.StatusInternalServerError, errorResponse{Detail: "internal error"})
}

func toSessionResponse(s catalog.Session) sessionResponse {
	return sessionResponse{
		SessionID:   s.SessionID,
		ProjectPath: s.ProjectPath,
		Status:      s.Status,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
