package apihandlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/parleybot/parley/pkg/models"
	"github.com/parleybot/parley/pkg/server/handlertools"
)

// GetIntentListHandler returns all intents of a chatbot, slots and
// utterances included.
func GetIntentListHandler(appState *models.AppState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		chatbotID := chi.URLParam(r, "chatbotID")

		intents, err := appState.IntentStore.List(r.Context(), chatbotID)
		if err != nil {
			handlertools.RenderError(w, err, handlertools.StatusForError(err))
			return
		}

		if err := handlertools.EncodeJSON(w, intents); err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}
	}
}

// GetIntentHandler returns a single intent by name.
func GetIntentHandler(appState *models.AppState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		chatbotID := chi.URLParam(r, "chatbotID")
		intentName := chi.URLParam(r, "intentName")

		intent, err := appState.IntentStore.Get(r.Context(), chatbotID, intentName)
		if err != nil {
			handlertools.RenderError(w, err, handlertools.StatusForError(err))
			return
		}

		if err := handlertools.EncodeJSON(w, intent); err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}
	}
}
