package http

import (
	"context"
	"encoding/json"
	"errors"

	nethttp "net/http"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	authmw "github.com/mind-engage/feedbackbank/internal/auth/middleware"
	"github.com/mind-engage/feedbackbank/internal/settings"
)

type LockStore interface {
	GetLock(ctx context.Context) (settings.Lock, error)
	SetLock(ctx context.Context, locked bool) (settings.Lock, error)
}

func lockPayload(l settings.Lock) envelope {
	out := envelope{"locked": l.Locked}
	if l.LockTimestamp != "" {
		out["lockTimestamp"] = l.LockTimestamp
	}
	return out
}

// Settings failures are server-side and use 500, unlike feedback routes.
func settingsError(w nethttp.ResponseWriter, r *nethttp.Request, log *zap.Logger, msg string, err error) {
	log.Error(msg,
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.Error(err))
	writeJSON(w, nethttp.StatusInternalServerError, envelope{
		"success": false,
		"message": err.Error(),
		"locked":  false,
	})
}

// GET /site-settings
func GetSiteSettingsHandler(store LockStore, log *zap.Logger) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		l, err := store.GetLock(r.Context())
		if err != nil {
			settingsError(w, r, log, "fetch site lock status", err)
			return
		}
		ok(w, lockPayload(l))
	}
}

// POST /site-settings  { "locked": true }
func SetSiteSettingsHandler(store LockStore, log *zap.Logger) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		var req struct {
			Locked *bool `json:"locked"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			var te *json.UnmarshalTypeError
			if errors.As(err, &te) {
				fail(w, nethttp.StatusBadRequest, "locked must be a boolean")
				return
			}
			fail(w, nethttp.StatusBadRequest, msgInvalidJSON)
			return
		}
		if req.Locked == nil {
			fail(w, nethttp.StatusBadRequest, "locked must be a boolean")
			return
		}
		l, err := store.SetLock(r.Context(), *req.Locked)
		if err != nil {
			settingsError(w, r, log, "toggle site lock", err)
			return
		}
		log.Info("site lock changed",
			zap.Bool("locked", l.Locked),
			zap.String("by", authmw.SubjectFromContext(r.Context())),
			zap.String("request_id", middleware.GetReqID(r.Context())))
		ok(w, lockPayload(l))
	}
}
