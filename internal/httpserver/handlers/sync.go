package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/nodetec/notestack-sub002/internal/httpserver/deps"
	"github.com/nodetec/notestack-sub002/internal/logger"
)

// Sync runs a full draft reconciliation against the configured endpoints
// and reports what was pulled in.
func Sync(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := d.Engine.SyncDrafts(r.Context())
		if err != nil {
			d.Logger.Warn("manual sync failed", logger.Error(err))
			http.Error(w, "all endpoints unreachable", http.StatusBadGateway)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(res)
	}
}

// SyncTrigger hands a sync off to the background runner instead of
// running it in-request.
func SyncTrigger(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		select {
		case d.SyncTrigger <- struct{}{}:
			d.Logger.Info("background sync triggered via endpoint",
				logger.String("remote_ip", r.RemoteAddr))
			w.WriteHeader(http.StatusAccepted)
		default:
			d.Logger.Warn("sync already in progress",
				logger.String("remote_ip", r.RemoteAddr))
			w.WriteHeader(http.StatusTooManyRequests)
		}
	}
}
