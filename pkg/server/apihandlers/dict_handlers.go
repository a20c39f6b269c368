package apihandlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/parleybot/parley/pkg/models"
	"github.com/parleybot/parley/pkg/server/handlertools"
)

// GetDictListHandler returns all custom dictionaries of a chatbot.
func GetDictListHandler(appState *models.AppState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		chatbotID := chi.URLParam(r, "chatbotID")

		dicts, err := appState.DictStore.List(r.Context(), chatbotID)
		if err != nil {
			handlertools.RenderError(w, err, handlertools.StatusForError(err))
			return
		}

		if err := handlertools.EncodeJSON(w, dicts); err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}
	}
}

// GetDictHandler returns a single custom dictionary by name.
func GetDictHandler(appState *models.AppState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		chatbotID := chi.URLParam(r, "chatbotID")
		dictName := chi.URLParam(r, "dictName")

		dict, err := appState.DictStore.Get(r.Context(), chatbotID, dictName)
		if err != nil {
			handlertools.RenderError(w, err, handlertools.StatusForError(err))
			return
		}

		if err := handlertools.EncodeJSON(w, dict); err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}
	}
}

// GetReferencedSysDictsHandler returns the system dictionaries a chatbot
// has referenced.
func GetReferencedSysDictsHandler(appState *models.AppState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		chatbotID := chi.URLParam(r, "chatbotID")

		names, err := appState.DictStore.ListSysDicts(r.Context(), chatbotID)
		if err != nil {
			handlertools.RenderError(w, err, handlertools.StatusForError(err))
			return
		}

		if err := handlertools.EncodeJSON(w, names); err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}
	}
}

// GetSysDictCatalogHandler returns the names of all built-in system
// dictionaries.
func GetSysDictCatalogHandler(appState *models.AppState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := handlertools.EncodeJSON(w, appState.SysDicts.Names()); err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}
	}
}
