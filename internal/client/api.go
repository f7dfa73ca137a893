// Package client is the Go side of the feedback bank UI: an HTTP client for
// the REST API plus a local state store that mirrors the module tree.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/mind-engage/feedbackbank/internal/changelog"
	"github.com/mind-engage/feedbackbank/internal/feedback"
	"github.com/mind-engage/feedbackbank/internal/settings"
)

// APIError is a non-2xx response. Message is the server's envelope message.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("feedback api: status %d", e.Status)
	}
	return fmt.Sprintf("feedback api: %s (status %d)", e.Message, e.Status)
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var e *APIError
	return errors.As(err, &e) && e.Status == http.StatusNotFound
}

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type API struct {
	rc *resty.Client
}

// NewAPI returns a client for the server at baseURL, e.g. http://localhost:8080.
func NewAPI(baseURL string) *API {
	rc := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(15*time.Second).
		SetHeader("Accept", "application/json")
	return &API{rc: rc}
}

// SetToken sets the editor bearer token sent with every request.
func (a *API) SetToken(tok string) { a.rc.SetAuthToken(tok) }

func seg(parts ...string) string {
	var b strings.Builder
	for _, p := range parts {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(p))
	}
	return b.String()
}

func (a *API) call(ctx context.Context, method, path string, body, out any) error {
	var eb envelope
	req := a.rc.R().SetContext(ctx).SetError(&eb)
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}
	if out != nil {
		req.SetResult(out)
	}
	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if resp.IsError() {
		return &APIError{Status: resp.StatusCode(), Message: eb.Message}
	}
	return nil
}

/* ------------------------------ modules ------------------------------ */

func (a *API) ListModules(ctx context.Context) ([]feedback.Module, error) {
	var out struct {
		Modules []feedback.Module `json:"modules"`
	}
	if err := a.call(ctx, http.MethodGet, "/feedback", nil, &out); err != nil {
		return nil, err
	}
	return out.Modules, nil
}

func (a *API) GetModule(ctx context.Context, id string) (feedback.Module, error) {
	var out struct {
		Module feedback.Module `json:"module"`
	}
	err := a.call(ctx, http.MethodGet, seg("feedback", id), nil, &out)
	return out.Module, err
}

func (a *API) CreateModule(ctx context.Context, in feedback.ModuleInput) (feedback.Module, error) {
	var out struct {
		Module feedback.Module `json:"module"`
	}
	err := a.call(ctx, http.MethodPost, "/feedback", in, &out)
	return out.Module, err
}

func (a *API) UpdateModule(ctx context.Context, id string, in feedback.ModuleInput) (feedback.Module, error) {
	var out struct {
		Module feedback.Module `json:"module"`
	}
	err := a.call(ctx, http.MethodPut, seg("feedback", id), in, &out)
	return out.Module, err
}

func (a *API) DeleteModule(ctx context.Context, id string) error {
	return a.call(ctx, http.MethodDelete, seg("feedback", id), nil, nil)
}

func (a *API) ReorderModules(ctx context.Context, orderedIDs []string) error {
	return a.call(ctx, http.MethodPatch, "/feedback/modules/reorder",
		feedback.ReorderInput{OrderedIDs: orderedIDs}, nil)
}

/* ----------------------------- questions ----------------------------- */

func (a *API) ListQuestions(ctx context.Context, moduleID string) ([]feedback.Question, error) {
	var out struct {
		Questions []feedback.Question `json:"questions"`
	}
	if err := a.call(ctx, http.MethodGet, seg("feedback", moduleID, "questions"), nil, &out); err != nil {
		return nil, err
	}
	return out.Questions, nil
}

func (a *API) GetQuestion(ctx context.Context, moduleID, questionID string) (feedback.Question, error) {
	var out struct {
		Question feedback.Question `json:"question"`
	}
	err := a.call(ctx, http.MethodGet, seg("feedback", moduleID, "questions", questionID), nil, &out)
	return out.Question, err
}

func (a *API) CreateQuestion(ctx context.Context, moduleID string, in feedback.QuestionInput) (feedback.Question, error) {
	var out struct {
		Question feedback.Question `json:"question"`
	}
	err := a.call(ctx, http.MethodPost, seg("feedback", moduleID, "questions"), in, &out)
	return out.Question, err
}

func (a *API) UpdateQuestion(ctx context.Context, moduleID, questionID string, in feedback.QuestionInput) (feedback.Question, error) {
	var out struct {
		Question feedback.Question `json:"question"`
	}
	err := a.call(ctx, http.MethodPut, seg("feedback", moduleID, "questions", questionID), in, &out)
	return out.Question, err
}

func (a *API) DeleteQuestion(ctx context.Context, moduleID, questionID string) error {
	return a.call(ctx, http.MethodDelete, seg("feedback", moduleID, "questions", questionID), nil, nil)
}

func (a *API) ReorderQuestions(ctx context.Context, moduleID string, orderedIDs []string) error {
	return a.call(ctx, http.MethodPatch, seg("feedback", moduleID, "questions", "reorder"),
		feedback.ReorderInput{OrderedIDs: orderedIDs}, nil)
}

/* ------------------------------ elements ----------------------------- */

func elementsPath(scope feedback.Scope) string {
	if scope.QuestionID != "" {
		return seg("feedback", scope.ModuleID, "questions", scope.QuestionID, "elements")
	}
	return seg("feedback", scope.ModuleID, "elements")
}

func (a *API) CreateElement(ctx context.Context, scope feedback.Scope, in feedback.ElementInput) (feedback.Element, error) {
	var out struct {
		Element feedback.Element `json:"element"`
	}
	err := a.call(ctx, http.MethodPost, elementsPath(scope), in, &out)
	return out.Element, err
}

func (a *API) UpdateElement(ctx context.Context, scope feedback.Scope, elementID string, in feedback.ElementInput) (feedback.Element, error) {
	var out struct {
		Element feedback.Element `json:"element"`
	}
	err := a.call(ctx, http.MethodPut, elementsPath(scope)+seg(elementID), in, &out)
	return out.Element, err
}

func (a *API) DeleteElement(ctx context.Context, scope feedback.Scope, elementID string) error {
	return a.call(ctx, http.MethodDelete, elementsPath(scope)+seg(elementID), nil, nil)
}

// ReorderElements persists the order of one element sibling set. Module
// elements go through PATCH /feedback/elements/reorder.
func (a *API) ReorderElements(ctx context.Context, scope feedback.Scope, orderedIDs []string) error {
	if scope.QuestionID != "" {
		return a.call(ctx, http.MethodPatch, elementsPath(scope)+"/reorder",
			feedback.ReorderInput{OrderedIDs: orderedIDs}, nil)
	}
	return a.call(ctx, http.MethodPatch, "/feedback/elements/reorder",
		feedback.ElementReorderInput{ModuleID: scope.ModuleID, OrderedIDs: orderedIDs}, nil)
}

/* --------------------------- site and misc --------------------------- */

func (a *API) GetLock(ctx context.Context) (settings.Lock, error) {
	var out settings.Lock
	err := a.call(ctx, http.MethodGet, "/site-settings", nil, &out)
	return out, err
}

func (a *API) SetLock(ctx context.Context, locked bool) (settings.Lock, error) {
	var out settings.Lock
	err := a.call(ctx, http.MethodPost, "/site-settings", map[string]bool{"locked": locked}, &out)
	return out, err
}

// Login exchanges the editor passcode for a token and keeps it for later
// requests.
func (a *API) Login(ctx context.Context, passcode string) error {
	var out struct {
		Token string `json:"token"`
	}
	if err := a.call(ctx, http.MethodPost, "/auth/passcode", map[string]string{"passcode": passcode}, &out); err != nil {
		return err
	}
	a.SetToken(out.Token)
	return nil
}

func (a *API) Events(ctx context.Context, limit int) ([]changelog.Event, error) {
	var out struct {
		Events []changelog.Event `json:"events"`
	}
	path := "/feedback/events?limit=" + strconv.Itoa(limit)
	if err := a.call(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Events, nil
}
