package http

import (
	nethttp "net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mind-engage/feedbackbank/internal/feedback"
)

// GET /feedback
func ListModulesHandler(svc *feedback.Service, log *zap.Logger) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		mods, err := svc.ListModules(r.Context())
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		ok(w, envelope{"modules": mods})
	}
}

// GET /feedback/{id}
func GetModuleHandler(svc *feedback.Service, log *zap.Logger) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		m, err := svc.GetModule(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		ok(w, envelope{"module": m})
	}
}

// POST /feedback  { "title": "...", "description": "..." }
func CreateModuleHandler(svc *feedback.Service, log *zap.Logger) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		var in feedback.ModuleInput
		if !decode(w, r, log, &in) {
			return
		}
		m, err := svc.CreateModule(r.Context(), in)
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		ok(w, envelope{"module": m})
	}
}

// PUT /feedback/{id}  { "title": "...", "description": "...", "position": 2 }
func UpdateModuleHandler(svc *feedback.Service, log *zap.Logger) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		var in feedback.ModuleInput
		if !decode(w, r, log, &in) {
			return
		}
		m, err := svc.UpdateModule(r.Context(), chi.URLParam(r, "id"), in)
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		ok(w, envelope{"module": m})
	}
}

// DELETE /feedback/{id}
func DeleteModuleHandler(svc *feedback.Service, log *zap.Logger) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if err := svc.DeleteModule(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeError(w, r, log, err)
			return
		}
		ok(w, envelope{"message": "Module deleted successfully"})
	}
}

// PATCH /feedback/modules/reorder  { "orderedIds": ["...", "..."] }
func ReorderModulesHandler(svc *feedback.Service, log *zap.Logger) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		var in feedback.ReorderInput
		if !decode(w, r, log, &in) {
			return
		}
		if err := svc.ReorderModules(r.Context(), in); err != nil {
			writeError(w, r, log, err)
			return
		}
		ok(w, nil)
	}
}
