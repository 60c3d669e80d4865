// Package router exposes the service as a JSON HTTP API.
package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/patric-chuzhbe/tracky/internal/auth"
	"github.com/patric-chuzhbe/tracky/internal/gzippedhttp"
	"github.com/patric-chuzhbe/tracky/internal/kvstore"
	"github.com/patric-chuzhbe/tracky/internal/logger"
	"github.com/patric-chuzhbe/tracky/internal/models"
	"github.com/patric-chuzhbe/tracky/internal/pagination"
	"github.com/patric-chuzhbe/tracky/internal/privacy"
	"github.com/patric-chuzhbe/tracky/internal/service"
	"github.com/patric-chuzhbe/tracky/internal/user"
)

type accounts interface {
	Register(ctx context.Context, sess service.Session, request models.RegisterRequest) (service.UserResult, error)
	Login(ctx context.Context, sess service.Session, request models.LoginRequest) (service.UserResult, error)
	Logout(ctx context.Context, sess service.Session) bool
	Me(ctx context.Context, sess service.Session) (*user.User, error)
	ForgotPassword(ctx context.Context, email string) (bool, error)
	ChangePassword(ctx context.Context, sess service.Session, request models.ChangePasswordRequest) (service.UserResult, error)
}

type notes interface {
	ListNotes(ctx context.Context, sess service.Session, limit int, cursor string) (*models.PaginatedNotes, error)
	GetNote(ctx context.Context, sess service.Session, id int64) (*models.Note, error)
	CreateNote(ctx context.Context, sess service.Session, request models.NoteRequest) (*models.Note, error)
	UpdateNote(ctx context.Context, sess service.Session, id int64, request models.NoteRequest) (*models.Note, error)
	DeleteNote(ctx context.Context, sess service.Session, id int64) (bool, error)
}

type categories interface {
	CreateCategory(ctx context.Context, sess service.Session, request models.CategoryRequest) (*models.Category, error)
	ListCategories(ctx context.Context, sess service.Session) ([]models.Category, error)
	DeleteCategory(ctx context.Context, sess service.Session, id int64) (bool, error)
}

type activityLogs interface {
	CreateLog(ctx context.Context, sess service.Session, request models.LogRequest) (*models.Log, error)
	ListLogs(ctx context.Context, sess service.Session, categoryID int64, limit int, cursor string) (*models.PaginatedLogs, error)
}

type pinger interface {
	Ping(ctx context.Context) error
}

type app interface {
	accounts
	notes
	categories
	activityLogs
	pinger
}

type authenticator interface {
	LoadSession(h http.Handler) http.Handler
	RequireUser(h http.Handler) http.Handler
}

type rateLimiter interface {
	Middleware(next http.Handler) http.Handler
}

// Router is the HTTP front of the service.
type Router struct {
	*chi.Mux
	svc app
}

// New builds the routes. corsOrigin is the single origin allowed to make
// credentialed cross-site requests.
func New(svc app, authMiddleware authenticator, limiter rateLimiter, corsOrigin string) *Router {
	r := &Router{Mux: chi.NewRouter(), svc: svc}

	r.Use(middleware.RequestID)
	r.Use(logger.WithLoggingHTTPMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{corsOrigin},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Content-Encoding"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(gzippedhttp.UngzipRequest)
	r.Use(middleware.Compress(5, "application/json"))
	r.Use(authMiddleware.LoadSession)

	r.Get("/ping", r.GetPing)

	r.Route("/api", func(api chi.Router) {
		api.Route("/users", func(users chi.Router) {
			users.With(limiter.Middleware).Post("/register", r.PostApiusersregister)
			users.With(limiter.Middleware).Post("/login", r.PostApiuserslogin)
			users.With(limiter.Middleware).Post("/forgot-password", r.PostApiusersforgotpassword)
			users.Post("/logout", r.PostApiuserslogout)
			users.Post("/change-password", r.PostApiuserschangepassword)
			users.Get("/me", r.GetApiusersme)
		})

		api.Group(func(private chi.Router) {
			private.Use(authMiddleware.RequireUser)

			private.Get("/notes", r.GetApinotes)
			private.Post("/notes", r.PostApinotes)
			private.Get("/notes/{id}", r.GetApinotesid)
			private.Put("/notes/{id}", r.PutApinotesid)
			private.Delete("/notes/{id}", r.DeleteApinotesid)

			private.Get("/categories", r.GetApicategories)
			private.Post("/categories", r.PostApicategories)
			private.Delete("/categories/{id}", r.DeleteApicategoriesid)

			private.Get("/logs", r.GetApilogs)
			private.Post("/logs", r.PostApilogs)
		})
	})

	return r
}

func (r *Router) GetPing(response http.ResponseWriter, request *http.Request) {
	if err := r.svc.Ping(request.Context()); err != nil {
		writeError(response, request, err)
		return
	}
	response.WriteHeader(http.StatusOK)
}

// sessionOf returns the request session, or a nil interface when
// LoadSession did not run.
func sessionOf(request *http.Request) service.Session {
	if sess := auth.SessionFromContext(request.Context()); sess != nil {
		return sess
	}

	return nil
}

// caller is read after the service call, so that a user who has just
// logged in sees their own e-mail.
func caller(request *http.Request) int64 {
	id, ok := auth.UserIDFromContext(request.Context())
	if !ok {
		return privacy.Anonymous
	}

	return id
}

func decode(response http.ResponseWriter, request *http.Request, dst any) bool {
	if err := json.NewDecoder(request.Body).Decode(dst); err != nil {
		logger.Log.Debugw("request body rejected", "err", err)
		http.Error(response, "malformed JSON body", http.StatusBadRequest)
		return false
	}

	return true
}

func writeJSON(response http.ResponseWriter, status int, body any) {
	response.Header().Set("Content-Type", "application/json")
	response.WriteHeader(status)
	if err := json.NewEncoder(response).Encode(body); err != nil {
		logger.Log.Debugw("response not written", "err", err)
	}
}

func writeUserResult(response http.ResponseWriter, request *http.Request, res service.UserResult) {
	writeJSON(response, http.StatusOK, models.UserResponse{
		Errors: res.Errors,
		User:   privacy.Project(res.User, caller(request)),
	})
}

func writeError(response http.ResponseWriter, request *http.Request, err error) {
	var fieldErrs service.FieldErrors
	switch {
	case errors.As(err, &fieldErrs):
		writeJSON(response, http.StatusBadRequest, models.ErrorsResponse{Errors: fieldErrs})
	case errors.Is(err, pagination.ErrInvalidCursor):
		http.Error(response, err.Error(), http.StatusBadRequest)
	case errors.Is(err, service.ErrUnauthenticated):
		http.Error(response, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
	case errors.Is(err, kvstore.ErrUnavailable), errors.Is(err, context.DeadlineExceeded):
		logger.Log.Errorw("dependency unavailable", "request_id", middleware.GetReqID(request.Context()), "err", err)
		http.Error(response, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
	default:
		logger.Log.Errorw("request failed", "request_id", middleware.GetReqID(request.Context()), "err", err)
		http.Error(response, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func idParam(response http.ResponseWriter, request *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(request, "id"), 10, 64)
	if err != nil || id <= 0 {
		http.Error(response, "invalid id", http.StatusBadRequest)
		return 0, false
	}

	return id, true
}

// limitParam treats a missing or non-numeric limit as "use the default".
func limitParam(request *http.Request) int {
	limit, err := strconv.Atoi(request.URL.Query().Get("limit"))
	if err != nil {
		return 0
	}

	return limit
}
