package http

import (
	"encoding/json"
	"errors"

	nethttp "net/http"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/mind-engage/feedbackbank/internal/feedback"
)

// envelope is the body of every response: {success, message?, ...payload}.
type envelope map[string]any

const msgInvalidJSON = "invalid JSON body"

func writeJSON(w nethttp.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// ok writes a 200 with success=true merged into payload.
func ok(w nethttp.ResponseWriter, payload envelope) {
	if payload == nil {
		payload = envelope{}
	}
	payload["success"] = true
	writeJSON(w, nethttp.StatusOK, payload)
}

func fail(w nethttp.ResponseWriter, status int, msg string) {
	writeJSON(w, status, envelope{"success": false, "message": msg})
}

// statusFor maps domain errors to HTTP status. Anything that is neither a
// validation nor a not-found failure is reported as 400.
func statusFor(err error) int {
	switch {
	case errors.Is(err, feedback.ErrNotFound):
		return nethttp.StatusNotFound
	default:
		return nethttp.StatusBadRequest
	}
}

// writeError logs err with request context and writes the sanitized
// envelope. Only the error message reaches the caller.
func writeError(w nethttp.ResponseWriter, r *nethttp.Request, log *zap.Logger, err error) {
	status := statusFor(err)
	fields := []zap.Field{
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.Int("status", status),
		zap.Error(err),
	}
	if status == nethttp.StatusNotFound || feedback.IsValidation(err) {
		log.Info("request rejected", fields...)
	} else {
		log.Error("request failed", fields...)
	}
	fail(w, status, err.Error())
}

// decode reads a JSON body into dst. On failure it writes the 400 response
// and returns false.
func decode(w nethttp.ResponseWriter, r *nethttp.Request, log *zap.Logger, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		log.Info("bad request body",
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err))
		fail(w, nethttp.StatusBadRequest, msgInvalidJSON)
		return false
	}
	return true
}
