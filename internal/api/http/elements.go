package http

import (
	nethttp "net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mind-engage/feedbackbank/internal/feedback"
)

// scopeFromURL reads the element parent from the route. Routes mounted
// under /questions/{questionId} address question elements; the rest
// address module-level elements.
func scopeFromURL(r *nethttp.Request) feedback.Scope {
	return feedback.Scope{
		ModuleID:   chi.URLParam(r, "id"),
		QuestionID: chi.URLParam(r, "questionId"),
	}
}

// POST /feedback/{id}/elements
// POST /feedback/{id}/questions/{questionId}/elements
func CreateElementHandler(svc *feedback.Service, log *zap.Logger) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		var in feedback.ElementInput
		if !decode(w, r, log, &in) {
			return
		}
		e, err := svc.CreateElement(r.Context(), scopeFromURL(r), in)
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		ok(w, envelope{"element": e})
	}
}

// PUT .../elements/{elementId}  { "content": "...", "position": 3 }
func UpdateElementHandler(svc *feedback.Service, log *zap.Logger) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		var in feedback.ElementInput
		if !decode(w, r, log, &in) {
			return
		}
		e, err := svc.UpdateElement(r.Context(), scopeFromURL(r), chi.URLParam(r, "elementId"), in)
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		ok(w, envelope{"element": e})
	}
}

// DELETE .../elements/{elementId}
func DeleteElementHandler(svc *feedback.Service, log *zap.Logger) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if err := svc.DeleteElement(r.Context(), scopeFromURL(r), chi.URLParam(r, "elementId")); err != nil {
			writeError(w, r, log, err)
			return
		}
		ok(w, envelope{"message": "Element deleted successfully"})
	}
}

// PATCH /feedback/elements/reorder  { "moduleId": "...", "orderedIds": [...] }
func ReorderModuleElementsHandler(svc *feedback.Service, log *zap.Logger) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		var in feedback.ElementReorderInput
		if !decode(w, r, log, &in) {
			return
		}
		if err := svc.ReorderModuleElements(r.Context(), in); err != nil {
			writeError(w, r, log, err)
			return
		}
		ok(w, nil)
	}
}

// PATCH /feedback/{id}/questions/{questionId}/elements/reorder  { "orderedIds": [...] }
func ReorderQuestionElementsHandler(svc *feedback.Service, log *zap.Logger) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		var in feedback.ReorderInput
		if !decode(w, r, log, &in) {
			return
		}
		if err := svc.ReorderElements(r.Context(), scopeFromURL(r), in); err != nil {
			writeError(w, r, log, err)
			return
		}
		ok(w, nil)
	}
}
