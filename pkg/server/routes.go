package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/jwtauth/v5"

	"github.com/parleybot/parley/pkg/auth"

	httpLogger "github.com/chi-middleware/logrus-logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/parleybot/parley/internal"
	"github.com/parleybot/parley/pkg/models"
	"github.com/parleybot/parley/pkg/server/apihandlers"
)

var log = internal.GetLogger()

const ReadHeaderTimeout = 5 * time.Second

// Create creates the HTTP admin server with the given app state. The
// write path of the service is the RPC listener; this surface covers
// inspection, session access and training control.
func Create(appState *models.AppState) *http.Server {
	router := setupRouter(appState)
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", appState.Config.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: ReadHeaderTimeout,
	}
}

func setupRouter(appState *models.AppState) *chi.Mux {
	router := chi.NewRouter()
	router.Use(httpLogger.Logger("router", log))
	router.Use(middleware.Recoverer)
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(SendVersion)
	router.Use(middleware.Heartbeat("/healthz"))

	if appState.Config.Auth.Required {
		log.Info("JWT authentication required")
		router.Use(auth.JWTVerifier(appState.Config))
		router.Use(jwtauth.Authenticator)
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/chatbots/{chatbotID}", func(r chi.Router) {
			r.Get("/dicts", apihandlers.GetDictListHandler(appState))
			r.Get("/dicts/{dictName}", apihandlers.GetDictHandler(appState))
			r.Get("/sysdicts", apihandlers.GetReferencedSysDictsHandler(appState))
			r.Get("/intents", apihandlers.GetIntentListHandler(appState))
			r.Get("/intents/{intentName}", apihandlers.GetIntentHandler(appState))
			r.Route("/train", func(r chi.Router) {
				r.Post("/", apihandlers.PostTrainingHandler(appState))
				r.Get("/", apihandlers.GetTrainingStatusHandler(appState))
			})
		})
		r.Get("/sysdicts", apihandlers.GetSysDictCatalogHandler(appState))
		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", apihandlers.PostSessionHandler(appState))
			r.Route("/{sessionId}", func(r chi.Router) {
				r.Get("/", apihandlers.GetSessionHandler(appState))
				r.Post("/chat", apihandlers.PostChatHandler(appState))
			})
		})
	})

	return router
}
