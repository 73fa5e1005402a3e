package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/nodetec/notestack-sub002/internal/httpserver/deps"
	"github.com/nodetec/notestack-sub002/internal/httpserver/handlers"
)

func init() { Register(registerProfiles) }

func registerProfiles(r chi.Router, d deps.Deps) {
	r.Get("/profiles", handlers.Profiles(d))
	r.Get("/interactions", handlers.Interactions(d))
}
