package http

import (
	"context"
	"strconv"

	nethttp "net/http"

	"go.uber.org/zap"

	"github.com/mind-engage/feedbackbank/internal/changelog"
)

type EventLister interface {
	Recent(ctx context.Context, limit int) ([]changelog.Event, error)
}

// GET /feedback/events?limit=50
func ListEventsHandler(events EventLister, log *zap.Logger) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		limit := 50
		if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
			limit = v
		}
		evs, err := events.Recent(r.Context(), limit)
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		ok(w, envelope{"events": evs})
	}
}
