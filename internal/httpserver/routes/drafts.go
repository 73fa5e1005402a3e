package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/nodetec/notestack-sub002/internal/httpserver/deps"
	"github.com/nodetec/notestack-sub002/internal/httpserver/handlers"
)

func init() { Register(registerDrafts) }

func registerDrafts(r chi.Router, d deps.Deps) {
	r.Get("/drafts", handlers.ListDrafts(d))
	r.Post("/drafts", handlers.CreateDraft(d))
	r.Get("/drafts/{id}", handlers.GetDraft(d))
	r.Delete("/drafts/{id}", handlers.DeleteDraft(d))
	r.Post("/drafts/{id}/open", handlers.OpenDraft(d))
	r.Post("/drafts/{id}/autosave", handlers.Autosave(d))
	r.Get("/drafts/{id}/autosave", handlers.AutosaveState(d))
}
