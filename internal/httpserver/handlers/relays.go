package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/nodetec/notestack-sub002/internal/httpserver/deps"
	"github.com/nodetec/notestack-sub002/internal/logger"
)

type relayListResponse struct {
	Relays []string `json:"relays"`
	Active string   `json:"active"`
}

type relayRequest struct {
	URL string `json:"url"`
}

// ListRelays returns the configured endpoints and the active one.
func ListRelays(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(relayListResponse{
			Relays: d.Endpoints.List(),
			Active: d.Endpoints.Active(),
		})
	}
}

// AddRelay appends an endpoint to the registry.
func AddRelay(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req relayRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
			http.Error(w, "url is required", http.StatusBadRequest)
			return
		}

		if err := d.Endpoints.Add(r.Context(), req.URL); err != nil {
			d.Logger.Error("failed to add relay",
				logger.String("url", req.URL),
				logger.Error(err))
			http.Error(w, "failed to persist relay list", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(relayListResponse{
			Relays: d.Endpoints.List(),
			Active: d.Endpoints.Active(),
		})
	}
}

// RemoveRelay deletes an endpoint from the registry.
func RemoveRelay(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		url := r.URL.Query().Get("url")
		if url == "" {
			http.Error(w, "url query parameter is required", http.StatusBadRequest)
			return
		}

		if err := d.Endpoints.Remove(r.Context(), url); err != nil {
			d.Logger.Error("failed to remove relay",
				logger.String("url", url),
				logger.Error(err))
			http.Error(w, "failed to persist relay list", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(relayListResponse{
			Relays: d.Endpoints.List(),
			Active: d.Endpoints.Active(),
		})
	}
}

// SetActiveRelay designates an already-listed endpoint as active.
func SetActiveRelay(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req relayRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
			http.Error(w, "url is required", http.StatusBadRequest)
			return
		}

		if err := d.Endpoints.SetActive(r.Context(), req.URL); err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(relayListResponse{
			Relays: d.Endpoints.List(),
			Active: d.Endpoints.Active(),
		})
	}
}
