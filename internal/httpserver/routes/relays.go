package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/nodetec/notestack-sub002/internal/httpserver/deps"
	"github.com/nodetec/notestack-sub002/internal/httpserver/handlers"
)

func init() { Register(registerRelays) }

func registerRelays(r chi.Router, d deps.Deps) {
	r.Get("/relays", handlers.ListRelays(d))
	r.Post("/relays", handlers.AddRelay(d))
	r.Delete("/relays", handlers.RemoveRelay(d))
	r.Put("/relays/active", handlers.SetActiveRelay(d))
}
