package http

import (
	nethttp "net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mind-engage/feedbackbank/internal/feedback"
)

// GET /feedback/{id}/questions
func ListQuestionsHandler(svc *feedback.Service, log *zap.Logger) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		qs, err := svc.ListQuestions(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		ok(w, envelope{"questions": qs})
	}
}

// POST /feedback/{id}/questions
func CreateQuestionHandler(svc *feedback.Service, log *zap.Logger) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		var in feedback.QuestionInput
		if !decode(w, r, log, &in) {
			return
		}
		q, err := svc.CreateQuestion(r.Context(), chi.URLParam(r, "id"), in)
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		ok(w, envelope{"question": q})
	}
}

// GET /feedback/{id}/questions/{questionId}
func GetQuestionHandler(svc *feedback.Service, log *zap.Logger) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		q, err := svc.GetQuestion(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "questionId"))
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		ok(w, envelope{"question": q})
	}
}

// PUT /feedback/{id}/questions/{questionId}
func UpdateQuestionHandler(svc *feedback.Service, log *zap.Logger) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		var in feedback.QuestionInput
		if !decode(w, r, log, &in) {
			return
		}
		q, err := svc.UpdateQuestion(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "questionId"), in)
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		ok(w, envelope{"question": q})
	}
}

// DELETE /feedback/{id}/questions/{questionId}
func DeleteQuestionHandler(svc *feedback.Service, log *zap.Logger) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if err := svc.DeleteQuestion(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "questionId")); err != nil {
			writeError(w, r, log, err)
			return
		}
		ok(w, envelope{"message": "Question deleted successfully"})
	}
}

// PATCH /feedback/{id}/questions/reorder  { "orderedIds": [...] }
func ReorderQuestionsHandler(svc *feedback.Service, log *zap.Logger) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		var in feedback.ReorderInput
		if !decode(w, r, log, &in) {
			return
		}
		if err := svc.ReorderQuestions(r.Context(), chi.URLParam(r, "id"), in); err != nil {
			writeError(w, r, log, err)
			return
		}
		ok(w, nil)
	}
}
