package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/nodetec/notestack-sub002/internal/httpserver/deps"
	"github.com/nodetec/notestack-sub002/internal/httpserver/handlers"
)

func init() { Register(registerStacks) }

func registerStacks(r chi.Router, d deps.Deps) {
	r.Get("/stacks", handlers.ListStacks(d))
	r.Post("/stacks", handlers.CreateStack(d))
	r.Get("/stacks/{id}", handlers.GetStack(d))
	r.Post("/stacks/{id}/items", handlers.ToggleStackItem(d))
}
