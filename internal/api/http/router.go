package http

import (
	"time"

	nethttp "net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	authmw "github.com/mind-engage/feedbackbank/internal/auth/middleware"
	"github.com/mind-engage/feedbackbank/internal/feedback"
	"github.com/mind-engage/feedbackbank/internal/rbac"
)

type Deps struct {
	Feedback *feedback.Service
	Settings LockStore
	Events   EventLister
	DB       Pinger

	// Auth enables the editor passcode gate when non-nil.
	Auth *authmw.AuthService

	CORSOrigins    []string
	RequestTimeout time.Duration
	Log            *zap.Logger
}

// NewRouter wires every route. Static paths under /feedback are registered
// before /feedback/{id} patterns; chi prefers static segments regardless,
// the order only keeps the table readable.
func NewRouter(d Deps) nethttp.Handler {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	timeout := d.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	origins := d.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, RequestLogger(log), middleware.Recoverer)
	r.Use(middleware.Timeout(timeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", HealthHandler())
	if d.DB != nil {
		r.Get("/readyz", ReadyHandler(d.DB))
	}

	if d.Auth != nil {
		r.Post("/auth/passcode", authmw.PasscodeHandler(d.Auth))
	}

	svc := d.Feedback
	r.Group(func(pr chi.Router) {
		if d.Auth != nil {
			pr.Use(authmw.JWTMiddleware(d.Auth, rbac.RoleGrader))
		} else {
			pr.Use(authmw.AttachRole(rbac.RoleEditor))
		}
		view := pr.With(rbac.Require(rbac.PermFeedbackView))
		edit := pr.With(rbac.Require(rbac.PermFeedbackEdit))

		// modules
		view.Get("/feedback", ListModulesHandler(svc, log))
		edit.Post("/feedback", CreateModuleHandler(svc, log))
		edit.Patch("/feedback/modules/reorder", ReorderModulesHandler(svc, log))
		edit.Patch("/feedback/elements/reorder", ReorderModuleElementsHandler(svc, log))
		if d.Events != nil {
			view.Get("/feedback/events", ListEventsHandler(d.Events, log))
		}
		view.Get("/feedback/{id}", GetModuleHandler(svc, log))
		edit.Put("/feedback/{id}", UpdateModuleHandler(svc, log))
		edit.Delete("/feedback/{id}", DeleteModuleHandler(svc, log))

		// module-level elements
		edit.Post("/feedback/{id}/elements", CreateElementHandler(svc, log))
		edit.Put("/feedback/{id}/elements/{elementId}", UpdateElementHandler(svc, log))
		edit.Patch("/feedback/{id}/elements/{elementId}", UpdateElementHandler(svc, log)) // older web client
		edit.Delete("/feedback/{id}/elements/{elementId}", DeleteElementHandler(svc, log))

		// questions
		view.Get("/feedback/{id}/questions", ListQuestionsHandler(svc, log))
		edit.Post("/feedback/{id}/questions", CreateQuestionHandler(svc, log))
		edit.Patch("/feedback/{id}/questions/reorder", ReorderQuestionsHandler(svc, log))
		view.Get("/feedback/{id}/questions/{questionId}", GetQuestionHandler(svc, log))
		edit.Put("/feedback/{id}/questions/{questionId}", UpdateQuestionHandler(svc, log))
		edit.Delete("/feedback/{id}/questions/{questionId}", DeleteQuestionHandler(svc, log))

		// question elements
		edit.Post("/feedback/{id}/questions/{questionId}/elements", CreateElementHandler(svc, log))
		edit.Patch("/feedback/{id}/questions/{questionId}/elements/reorder", ReorderQuestionElementsHandler(svc, log))
		edit.Put("/feedback/{id}/questions/{questionId}/elements/{elementId}", UpdateElementHandler(svc, log))
		edit.Delete("/feedback/{id}/questions/{questionId}/elements/{elementId}", DeleteElementHandler(svc, log))

		// site lock
		if d.Settings != nil {
			pr.With(rbac.Require(rbac.PermSiteView)).Get("/site-settings", GetSiteSettingsHandler(d.Settings, log))
			pr.With(rbac.Require(rbac.PermSiteEdit)).Post("/site-settings", SetSiteSettingsHandler(d.Settings, log))
		}
	})

	return r
}
