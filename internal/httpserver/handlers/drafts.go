package handlers

import (
	"encoding/json"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"

	"github.com/nodetec/notestack-sub002/internal/domain"
	"github.com/nodetec/notestack-sub002/internal/httpserver/deps"
	"github.com/nodetec/notestack-sub002/internal/logger"
)

type createDraftRequest struct {
	Content             string `json:"content"`
	LinkedAuthor        string `json:"linked_author,omitempty"`
	LinkedDiscriminator string `json:"linked_discriminator,omitempty"`
}

type autosaveRequest struct {
	Content string `json:"content"`
}

type autosaveResponse struct {
	State string `json:"state"`
}

// CreateDraft creates a new local draft, optionally linked to a published
// article it edits.
func CreateDraft(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createDraftRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		var linked *domain.LinkedTarget
		if req.LinkedAuthor != "" || req.LinkedDiscriminator != "" {
			linked = &domain.LinkedTarget{
				Author:        req.LinkedAuthor,
				Discriminator: req.LinkedDiscriminator,
			}
		}

		draft, err := d.Engine.CreateDraft(r.Context(), req.Content, linked)
		if err != nil {
			d.Logger.Error("draft creation failed", logger.Error(err))
			http.Error(w, "failed to create draft", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(draft)
	}
}

// ListDrafts returns all drafts, most recently saved first.
func ListDrafts(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		drafts := d.MemoryIndex.GetAllDrafts()
		sort.Slice(drafts, func(i, j int) bool {
			if drafts[i].LastSavedAt != drafts[j].LastSavedAt {
				return drafts[i].LastSavedAt > drafts[j].LastSavedAt
			}
			return drafts[i].ID < drafts[j].ID
		})

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(drafts)
	}
}

// GetDraft returns one draft by id.
func GetDraft(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		draft, ok := d.MemoryIndex.GetDraft(id)
		if !ok {
			http.Error(w, "draft not found", http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(draft)
	}
}

// DeleteDraft removes a draft locally and, when it was mirrored, queues a
// delete marker for the remote copies.
func DeleteDraft(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := d.Engine.DeleteDraft(r.Context(), id); err != nil {
			d.Logger.Error("draft deletion failed",
				logger.String("draft_id", id),
				logger.Error(err))
			http.Error(w, "failed to delete draft", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// Autosave registers an editor content change; the debounced write
// happens in the background. The response carries the current save state.
func Autosave(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if _, ok := d.MemoryIndex.GetDraft(id); !ok {
			http.Error(w, "draft not found", http.StatusNotFound)
			return
		}

		var req autosaveRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		d.Autosave.Schedule(id, req.Content)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		_ = json.NewEncoder(w).Encode(autosaveResponse{
			State: string(d.Autosave.State(id)),
		})
	}
}

// AutosaveState reports the draft's save indicator state.
func AutosaveState(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(autosaveResponse{
			State: string(d.Autosave.State(id)),
		})
	}
}

// OpenDraft marks a draft as the active editor target, resetting the
// change suppression so the first edit after reopening always saves.
func OpenDraft(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if _, ok := d.MemoryIndex.GetDraft(id); !ok {
			http.Error(w, "draft not found", http.StatusNotFound)
			return
		}
		d.Autosave.SetActive(id)
		w.WriteHeader(http.StatusNoContent)
	}
}
