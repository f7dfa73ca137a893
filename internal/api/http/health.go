package http

import (
	"context"
	"time"

	nethttp "net/http"
)

type Pinger interface {
	PingContext(ctx context.Context) error
}

// GET /healthz
func HealthHandler() nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, _ *nethttp.Request) {
		ok(w, envelope{"status": "ok"})
	}
}

// GET /readyz
func ReadyHandler(db Pinger) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			writeJSON(w, nethttp.StatusServiceUnavailable, envelope{"success": false, "message": err.Error()})
			return
		}
		ok(w, envelope{"status": "ready"})
	}
}
