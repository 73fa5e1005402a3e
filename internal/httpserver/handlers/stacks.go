package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"

	"github.com/nodetec/notestack-sub002/internal/domain"
	"github.com/nodetec/notestack-sub002/internal/httpserver/deps"
	"github.com/nodetec/notestack-sub002/internal/logger"
	"github.com/nodetec/notestack-sub002/internal/relay"
)

type createStackRequest struct {
	Title string `json:"title"`
}

type toggleItemRequest struct {
	Author        string `json:"author"`
	Discriminator string `json:"discriminator"`
	Kind          int    `json:"kind"`
	EndpointHint  string `json:"endpoint_hint,omitempty"`
	Present       bool   `json:"present"`
}

type stackResponse struct {
	*domain.Collection
	ID     string `json:"id"`
	Saving bool   `json:"saving"`
}

// ListStacks returns all collections, title-sorted.
func ListStacks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stacks := d.Collections.Snapshot()
		sort.Slice(stacks, func(i, j int) bool {
			if stacks[i].Title != stacks[j].Title {
				return stacks[i].Title < stacks[j].Title
			}
			return stacks[i].ID() < stacks[j].ID()
		})

		out := make([]stackResponse, 0, len(stacks))
		for _, s := range stacks {
			out = append(out, stackResponse{
				Collection: s,
				ID:         s.ID(),
				Saving:     d.Collections.IsSaving(s.ID()),
			})
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(out)
	}
}

// GetStack returns one collection by id.
func GetStack(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		stack, ok := d.Collections.Get(id)
		if !ok {
			http.Error(w, "stack not found", http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(stackResponse{
			Collection: stack,
			ID:         stack.ID(),
			Saving:     d.Collections.IsSaving(stack.ID()),
		})
	}
}

// CreateStack publishes a new collection and commits it locally only
// when at least one endpoint accepted it.
func CreateStack(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createStackRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if req.Title == "" {
			http.Error(w, "title is required", http.StatusBadRequest)
			return
		}

		stack, err := d.Collections.Create(r.Context(), req.Title)
		if err != nil {
			if errors.Is(err, relay.ErrAllEndpointsFailed) {
				http.Error(w, "no endpoint accepted the stack", http.StatusBadGateway)
				return
			}
			d.Logger.Error("stack creation failed", logger.Error(err))
			http.Error(w, "failed to create stack", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(stackResponse{
			Collection: stack,
			ID:         stack.ID(),
		})
	}
}

// ToggleStackItem sets an item's membership. The local change is applied
// immediately; the publish settles in the background and rolls back on
// total failure.
func ToggleStackItem(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		var req toggleItemRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if req.Author == "" || req.Discriminator == "" {
			http.Error(w, "author and discriminator are required", http.StatusBadRequest)
			return
		}

		item := domain.ItemRef{
			Author:        req.Author,
			Discriminator: req.Discriminator,
			Kind:          req.Kind,
			EndpointHint:  req.EndpointHint,
		}
		if err := d.Collections.ToggleMembership(r.Context(), id, item, req.Present); err != nil {
			d.Logger.Error("stack toggle failed",
				logger.String("stack_id", id),
				logger.Error(err))
			http.Error(w, "failed to toggle item", http.StatusInternalServerError)
			return
		}

		stack, ok := d.Collections.Get(id)
		if !ok {
			http.Error(w, "stack not found", http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		_ = json.NewEncoder(w).Encode(stackResponse{
			Collection: stack,
			ID:         stack.ID(),
			Saving:     d.Collections.IsSaving(stack.ID()),
		})
	}
}
