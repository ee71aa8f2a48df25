package chi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kailas-cloud/qubitchat/internal/domain"
	chatuc "github.com/kailas-cloud/qubitchat/internal/usecase/chat"
)

// Chat handles POST /chat.
func (s *Server) Chat(w http.ResponseWriter, r *http.Request) {
	if !s.chat.Configured() {
		s.handleDomainError(w, domain.ErrChatNotConfigured)
		return
	}

	var body ChatRequest
	if !s.decodeJSON(w, r, &body) {
		return
	}

	useContext := true
	if body.UseContext != nil {
		useContext = *body.UseContext
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	reply, err := s.chat.Reply(ctx, chatuc.Request{
		Message:           body.Message,
		SessionID:         body.SessionID,
		UseContext:        useContext,
		ForceGeneral:      body.ForceGeneral,
		MaxContextResults: body.MaxContextResults,
		Temperature:       body.Temperature,
	})
	setEmbeddingHeaders(w, usage)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, chatToDTO(&reply))
}

// ChatHistory handles GET /chat/{session}/history.
func (s *Server) ChatHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "session")
	turns, err := s.chat.History(r.Context(), sessionID)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, historyToDTO(sessionID, turns))
}

// DeleteChatSession handles DELETE /chat/{session}.
func (s *Server) DeleteChatSession(w http.ResponseWriter, r *http.Request) {
	n, err := s.chat.DeleteSession(r.Context(), chi.URLParam(r, "session"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, DeleteResponse{Success: true, Deleted: n})
}
