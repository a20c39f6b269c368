package apihandlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/parleybot/parley/pkg/models"
	"github.com/parleybot/parley/pkg/server/handlertools"
)

// ChatRequest is the body of a chat turn posted over HTTP.
type ChatRequest struct {
	TextMessage string `json:"text_message"`
}

// ChatResponse pairs the outbound message with the updated session.
type ChatResponse struct {
	Session *models.ChatSession `json:"session"`
	Message *models.ChatMessage `json:"message"`
}

// PostSessionHandler opens (or resumes) the session for the posted key.
func PostSessionHandler(appState *models.AppState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var key models.SessionKey
		if err := handlertools.DecodeJSON(r, &key); err != nil {
			handlertools.RenderError(w, err, http.StatusBadRequest)
			return
		}

		session, err := appState.SessionStore.Put(r.Context(), key)
		if err != nil {
			handlertools.RenderError(w, err, handlertools.StatusForError(err))
			return
		}

		if err := handlertools.EncodeJSON(w, session); err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}
	}
}

// GetSessionHandler returns a session by ID.
func GetSessionHandler(appState *models.AppState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := chi.URLParam(r, "sessionId")

		session, err := appState.SessionStore.Get(r.Context(), sessionID)
		if err != nil {
			handlertools.RenderError(w, err, handlertools.StatusForError(err))
			return
		}

		if err := handlertools.EncodeJSON(w, session); err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}
	}
}

// PostChatHandler runs one conversation turn for a session.
func PostChatHandler(appState *models.AppState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := chi.URLParam(r, "sessionId")

		var chatRequest ChatRequest
		if err := handlertools.DecodeJSON(r, &chatRequest); err != nil {
			handlertools.RenderError(w, err, http.StatusBadRequest)
			return
		}

		session, message, err := appState.Engine.Chat(r.Context(), sessionID, chatRequest.TextMessage)
		if err != nil {
			handlertools.RenderError(w, err, handlertools.StatusForError(err))
			return
		}

		if err := handlertools.EncodeJSON(w, ChatResponse{Session: session, Message: message}); err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}
	}
}
