package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"

	"github.com/pavelanni/examcreator/internal/content"
	"github.com/pavelanni/examcreator/internal/examcreation"
	"github.com/pavelanni/examcreator/internal/handler/views"
	"github.com/pavelanni/examcreator/internal/model"
	"github.com/pavelanni/examcreator/internal/state"
	"github.com/pavelanni/examcreator/internal/store"
)

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store  *store.Store
	exams  *examcreation.Controller
	config model.ServerConfig
}

// New creates a new Handler.
func New(s *store.Store, exams *examcreation.Controller, cfg model.ServerConfig) *Handler {
	return &Handler{store: s, exams: exams, config: cfg}
}

// path prefixes an application path with the configured base path.
func (h *Handler) path(p string) string {
	return h.config.BasePath + p
}

// BasePathMiddleware makes the base path available to views.
func (h *Handler) BasePathMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := model.ContextWithBasePath(r.Context(), h.config.BasePath)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Use(h.BasePathMiddleware)
	r.Use(h.csrfMiddleware)

	r.Get("/login", h.handleLoginPage)
	r.Post("/login", h.handleLogin)
	r.Get("/healthz", h.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(h.requireAuth)
		r.Post("/logout", h.handleLogout)
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, h.path("/coach"), http.StatusSeeOther)
		})
		r.Get("/coach", h.handleClassList)

		r.Route("/coach/{classID}/exams/new", func(r chi.Router) {
			r.Get("/", h.handleRootPage)
			r.Get("/topic/{topicID}", h.handleTopicPage)
			r.Get("/preview/{contentID}", h.handlePreviewPage)
			r.Get("/search", h.handleSearchForm)
			r.Get("/search/{searchTerm}", h.handleSearchPage)
			r.Post("/select/{exerciseID}", h.handleSelect)
			r.Post("/deselect/{exerciseID}", h.handleDeselect)
		})

		r.Group(func(r chi.Router) {
			r.Use(requireRole(model.UserRoleAdmin))
			r.Get("/admin/users", h.handleAdminUsersPage)
			r.Post("/admin/users", h.handleCreateUser)
			r.Post("/admin/users/{userID}/toggle", h.handleToggleUserActive)
			r.Get("/admin/classes", h.handleAdminClassesPage)
			r.Post("/admin/classes", h.handleUploadClasses)
		})
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) handleClassList(w http.ResponseWriter, r *http.Request) {
	classes, err := h.store.ListClasses()
	if err != nil {
		slog.Error("failed to list classes", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, classes)
		return
	}
	renderHTML(w, r, http.StatusOK, views.ClassListPage(classes))
}

func (h *Handler) handleRootPage(w http.ResponseWriter, r *http.Request) {
	classID := chi.URLParam(r, "classID")
	h.servePage(w, r, classID, "", func(st *state.PageStore) error {
		return h.exams.ShowRootPage(r.Context(), st, examcreation.RootParams{ClassID: classID})
	})
}

func (h *Handler) handleTopicPage(w http.ResponseWriter, r *http.Request) {
	classID := chi.URLParam(r, "classID")
	params := examcreation.TopicParams{ClassID: classID, TopicID: chi.URLParam(r, "topicID")}
	h.servePage(w, r, classID, "", func(st *state.PageStore) error {
		return h.exams.ShowTopicPage(r.Context(), st, params)
	})
}

func (h *Handler) handlePreviewPage(w http.ResponseWriter, r *http.Request) {
	classID := chi.URLParam(r, "classID")
	params := examcreation.PreviewParams{ClassID: classID, ContentID: chi.URLParam(r, "contentID")}
	h.servePage(w, r, classID, "", func(st *state.PageStore) error {
		// The preview load leaves class state alone; the header and
		// selection buttons still need it.
		if err := st.SetClassState(r.Context(), classID); err != nil {
			return err
		}
		return h.exams.ShowPreviewPage(r.Context(), st, params)
	})
}

func (h *Handler) handleSearchPage(w http.ResponseWriter, r *http.Request) {
	classID := chi.URLParam(r, "classID")
	// chi routes on RawPath when the request has one, and then the term
	// (say, one containing "/") arrives still encoded.
	term := chi.URLParam(r, "searchTerm")
	if r.URL.RawPath != "" {
		var err error
		if term, err = url.PathUnescape(term); err != nil {
			http.Error(w, "invalid search term", http.StatusBadRequest)
			return
		}
	}
	params := examcreation.SearchParams{ClassID: classID, SearchTerm: term}
	filter := examcreation.SearchFilter{Channel: r.URL.Query().Get("channel")}
	h.servePage(w, r, classID, params.SearchTerm, func(st *state.PageStore) error {
		return h.exams.ShowSearchPage(r.Context(), st, params, filter)
	})
}

// handleSearchForm turns the search box submission into a search page URL.
func (h *Handler) handleSearchForm(w http.ResponseWriter, r *http.Request) {
	classID := chi.URLParam(r, "classID")
	term := strings.TrimSpace(r.URL.Query().Get("q"))
	if term == "" {
		http.Redirect(w, r, h.path(views.ExamCreationPath(classID)), http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, h.path(views.SearchPath(classID, term, r.URL.Query().Get("channel"))), http.StatusSeeOther)
}

// servePage runs one page load against a fresh page store and renders the
// resulting snapshot.
func (h *Handler) servePage(w http.ResponseWriter, r *http.Request, classID, searchTerm string, load func(*state.PageStore) error) {
	st := state.NewPageStore(h.store)
	status := http.StatusOK
	if err := load(st); err != nil {
		status = errorStatus(err)
	}
	snap := st.Snapshot()
	if status == http.StatusNotFound && snap.Class == nil {
		http.NotFound(w, r)
		return
	}

	if wantsJSON(r) {
		writeJSON(w, status, snap)
		return
	}
	renderHTML(w, r, status, views.ExamCreationPage(classID, searchTerm, snap))
}

// errorStatus maps a page load failure to an HTTP status.
func errorStatus(err error) int {
	var apiErr *content.APIError
	switch {
	case errors.Is(err, store.ErrClassNotFound):
		return http.StatusNotFound
	case errors.As(err, &apiErr):
		if apiErr.StatusCode == http.StatusNotFound {
			return http.StatusNotFound
		}
		return http.StatusBadGateway
	case errors.Is(err, content.ErrUnavailable):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func (h *Handler) handleSelect(w http.ResponseWriter, r *http.Request) {
	classID := chi.URLParam(r, "classID")
	if _, err := h.store.GetClass(r.Context(), classID); err != nil {
		h.classError(w, r, err)
		return
	}
	ex := model.ExerciseRef{
		ID:        chi.URLParam(r, "exerciseID"),
		Title:     r.FormValue("title"),
		ContentID: r.FormValue("content_id"),
	}
	if err := h.store.SelectExercise(classID, ex); err != nil {
		slog.Error("failed to select exercise", "class", classID, "exercise", ex.ID, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	slog.Info("exercise selected", "class", classID, "exercise", ex.ID)
	h.afterSelectionChange(w, r, classID)
}

func (h *Handler) handleDeselect(w http.ResponseWriter, r *http.Request) {
	classID := chi.URLParam(r, "classID")
	if _, err := h.store.GetClass(r.Context(), classID); err != nil {
		h.classError(w, r, err)
		return
	}
	exerciseID := chi.URLParam(r, "exerciseID")
	if err := h.store.DeselectExercise(classID, exerciseID); err != nil {
		slog.Error("failed to deselect exercise", "class", classID, "exercise", exerciseID, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	slog.Info("exercise deselected", "class", classID, "exercise", exerciseID)
	h.afterSelectionChange(w, r, classID)
}

func (h *Handler) classError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, store.ErrClassNotFound) {
		http.NotFound(w, r)
		return
	}
	slog.Error("failed to load class", "error", err)
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

// afterSelectionChange answers JSON clients with the new selection and
// sends browsers back to the page they came from.
func (h *Handler) afterSelectionChange(w http.ResponseWriter, r *http.Request, classID string) {
	if wantsJSON(r) {
		selected, err := h.store.ListSelectedExercises(r.Context(), classID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"selected_exercises": selected})
		return
	}
	http.Redirect(w, r, h.returnPath(r, classID), http.StatusSeeOther)
}

// returnPath is the local part of the Referer when it points into this
// application, or the class's channel list otherwise.
func (h *Handler) returnPath(r *http.Request, classID string) string {
	fallback := h.path(views.ExamCreationPath(classID))
	ref, err := url.Parse(r.Referer())
	if err != nil || ref.Path == "" || (ref.Host != "" && ref.Host != r.Host) {
		return fallback
	}
	if !strings.HasPrefix(ref.Path, h.path("/coach/")) {
		return fallback
	}
	if ref.RawQuery != "" {
		return ref.Path + "?" + ref.RawQuery
	}
	return ref.Path
}

func wantsJSON(r *http.Request) bool {
	if r.URL.Query().Get("format") == "json" {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}

func renderHTML(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := c.Render(r.Context(), w); err != nil {
		slog.Error("render error", "error", err)
	}
}
