package httpd

import (
	"net/http"

	"github.com/SwetabhSingh17/APMS-sub001/internal/models"
	"github.com/SwetabhSingh17/APMS-sub001/pkg/utils"
)

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := h.readJSON(w, r, &req); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	user, err := h.services.Users.Register(r.Context(), &req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeCreated(w, user)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := h.readJSON(w, r, &req); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	user, err := h.services.Users.Authenticate(r.Context(), &req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	if err := h.sessions.Login(w, r, user.ID); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.logger.Info().Str("user_id", user.ID).Msg("User logged in")
	writeSuccess(w, user)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Logout(w, r); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	writeSuccess(w, nil)
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, currentUser(r))
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	var role *models.Role
	if v := r.URL.Query().Get("role"); v != "" {
		parsed := models.Role(v)
		role = &parsed
	}

	resp, err := h.services.Users.List(r.Context(), currentUser(r), role,
		r.URL.Query().Get("search"),
		utils.QueryInt(r, "page", 1),
		utils.QueryInt(r, "limit", 20),
	)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeSuccess(w, resp)
}

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req models.CreateUserRequest
	if err := h.readJSON(w, r, &req); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	user, err := h.services.Users.CreateUser(r.Context(), currentUser(r), &req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeCreated(w, user)
}
