package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/nodetec/notestack-sub002/internal/httpserver/deps"
)

type readyzResponse struct {
	Ready bool   `json:"ready"`
	Redis string `json:"redis"`
}

// Readyz reports readiness: the process serves from the memory index, so
// it is ready as soon as redis answered the hydration ping.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		redisStatus := "ok"
		ready := true
		if d.RedisClient != nil {
			if err := d.RedisClient.Ping(ctx).Err(); err != nil {
				redisStatus = err.Error()
				ready = false
			}
		}

		if !ready {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(readyzResponse{
			Ready: ready,
			Redis: redisStatus,
		})
	}
}
