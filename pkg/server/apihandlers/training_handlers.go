package apihandlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/parleybot/parley/pkg/models"
	"github.com/parleybot/parley/pkg/server/handlertools"
)

// PostTrainingHandler starts a training job for a chatbot. The job runs in
// the background; poll GetTrainingStatusHandler for the outcome.
func PostTrainingHandler(appState *models.AppState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		chatbotID := chi.URLParam(r, "chatbotID")

		if err := appState.Trainer.Train(r.Context(), chatbotID); err != nil {
			handlertools.RenderError(w, err, handlertools.StatusForError(err))
			return
		}

		w.WriteHeader(http.StatusAccepted)
	}
}

// GetTrainingStatusHandler returns the training job state for a chatbot.
// A chatbot that was never trained reports idle.
func GetTrainingStatusHandler(appState *models.AppState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		chatbotID := chi.URLParam(r, "chatbotID")

		job, err := appState.Trainer.Status(r.Context(), chatbotID)
		if err != nil {
			handlertools.RenderError(w, err, handlertools.StatusForError(err))
			return
		}

		if err := handlertools.EncodeJSON(w, job); err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}
	}
}
