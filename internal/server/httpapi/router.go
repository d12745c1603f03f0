// Package httpapi is the HTTP surface of the classification server: file
// delivery, submission intake, accounts, the tutorial and operational
// endpoints.
package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/transitwatch/internal/server/metrics"
)

// Handlers groups everything the router mounts.
type Handlers struct {
	Files       *FileHandler
	Submissions *SubmissionHandler
	Accounts    *AccountHandler
	Tutorial    *TutorialHandler
}

func NewRouter(h Handlers, mw *Middleware) *http.ServeMux {
	mux := http.NewServeMux()

	// Operational
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	mux.Handle("GET /metrics", metrics.Handler())

	// Accounts
	mux.HandleFunc("POST /register", mw.WithLogging(h.Accounts.Register))
	mux.HandleFunc("POST /login", mw.WithLogging(h.Accounts.Login))
	mux.HandleFunc("POST /logout", mw.WithLogging(h.Accounts.Logout))
	mux.HandleFunc("GET /profile", mw.WithLogging(mw.RequireSession(h.Accounts.Profile)))

	// Classification
	mux.HandleFunc("GET /get_data", mw.WithLogging(mw.RequireSession(h.Files.GetData)))
	mux.HandleFunc("GET /get_data/{token}", mw.WithLogging(mw.RequireSession(h.Files.GetData)))
	mux.HandleFunc("GET /get_models", mw.WithLogging(mw.RequireSession(h.Files.GetModels)))
	mux.HandleFunc("GET /get_models/{token}", mw.WithLogging(mw.RequireSession(h.Files.GetModels)))
	mux.HandleFunc("POST /post", mw.WithLogging(mw.RequireSession(h.Submissions.Submit)))

	// Tutorial
	mux.HandleFunc("GET /tutorial/{fileType}/{fileIndex}", mw.WithLogging(h.Tutorial.Get))

	return mux
}
