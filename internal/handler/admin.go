package handler

import (
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/pavelanni/examcreator/internal/handler/views"
	appI18n "github.com/pavelanni/examcreator/internal/i18n"
	"github.com/pavelanni/examcreator/internal/model"
)

const maxRosterUpload = 10 << 20

func (h *Handler) handleAdminUsersPage(w http.ResponseWriter, r *http.Request) {
	h.renderAdminUsers(w, r, http.StatusOK, "")
}

func (h *Handler) renderAdminUsers(w http.ResponseWriter, r *http.Request, status int, msg string) {
	users, err := h.store.ListUsers()
	if err != nil {
		slog.Error("failed to list users", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	renderHTML(w, r, status, views.AdminUsersPage(users, msg))
}

func (h *Handler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	username := r.FormValue("username")
	displayName := r.FormValue("display_name")
	password := r.FormValue("password")
	role := model.UserRole(r.FormValue("role"))

	if username == "" || password == "" {
		http.Error(w, "username and password required", http.StatusBadRequest)
		return
	}
	if role != "" && role != model.UserRoleCoach && role != model.UserRoleAdmin {
		http.Error(w, "unknown role", http.StatusBadRequest)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		slog.Error("failed to hash password", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if displayName == "" {
		displayName = username
	}

	if _, err := h.store.CreateUser(model.User{
		Username:     username,
		DisplayName:  displayName,
		PasswordHash: string(hash),
		Role:         role,
		Active:       true,
	}); err != nil {
		slog.Error("failed to create user", "username", username, "error", err)
		h.renderAdminUsers(w, r, http.StatusConflict, err.Error())
		return
	}
	slog.Info("user created", "username", username, "role", role)
	http.Redirect(w, r, h.path("/admin/users"), http.StatusSeeOther)
}

func (h *Handler) handleToggleUserActive(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		http.Error(w, "invalid user ID", http.StatusBadRequest)
		return
	}
	if u := model.UserFromContext(r.Context()); u != nil && u.ID == id {
		http.Error(w, "cannot deactivate yourself", http.StatusBadRequest)
		return
	}

	if err := h.store.ToggleUserActive(id); err != nil {
		slog.Error("failed to toggle user active", "id", id, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, h.path("/admin/users"), http.StatusSeeOther)
}

func (h *Handler) handleAdminClassesPage(w http.ResponseWriter, r *http.Request) {
	h.renderAdminClasses(w, r, http.StatusOK, "")
}

func (h *Handler) renderAdminClasses(w http.ResponseWriter, r *http.Request, status int, msg string) {
	classes, err := h.store.ListClasses()
	if err != nil {
		slog.Error("failed to list classes", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	renderHTML(w, r, status, views.AdminClassesPage(classes, msg))
}

// handleUploadClasses imports a JSON class roster. Re-uploading an unchanged
// file is reported and skipped.
func (h *Handler) handleUploadClasses(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxRosterUpload); err != nil {
		http.Error(w, "file too large", http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("classes_file")
	if err != nil {
		http.Error(w, "no file uploaded", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "failed to read file", http.StatusInternalServerError)
		return
	}

	n, err := h.store.ImportRoster(header.Filename, data)
	if err != nil {
		slog.Error("roster import failed", "filename", header.Filename, "error", err)
		h.renderAdminClasses(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if n < 0 {
		h.renderAdminClasses(w, r, http.StatusOK, appI18n.T(r.Context(), "UploadDuplicate"))
		return
	}
	slog.Info("uploaded class roster via admin", "filename", header.Filename, "count", n)
	h.renderAdminClasses(w, r, http.StatusOK, appI18n.Tp(r.Context(), "ClassesImported", n))
}
