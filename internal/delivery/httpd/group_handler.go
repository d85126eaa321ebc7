package httpd

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/SwetabhSingh17/APMS-sub001/internal/models"
)

func (h *Handler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	var req models.CreateGroupRequest
	if err := h.readJSON(w, r, &req); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	group, err := h.services.Groups.Create(r.Context(), currentUser(r), &req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeCreated(w, group)
}

func (h *Handler) ListMyGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.services.Groups.ListMine(r.Context(), currentUser(r))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeSuccess(w, groups)
}

func (h *Handler) GetGroup(w http.ResponseWriter, r *http.Request) {
	group, err := h.services.Groups.Get(r.Context(), currentUser(r), chi.URLParam(r, "id"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeSuccess(w, group)
}

func (h *Handler) InviteMembers(w http.ResponseWriter, r *http.Request) {
	var req models.InviteMembersRequest
	if err := h.readJSON(w, r, &req); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	group, err := h.services.Groups.Invite(r.Context(), currentUser(r), chi.URLParam(r, "id"), &req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeSuccess(w, group)
}

func (h *Handler) ListInvites(w http.ResponseWriter, r *http.Request) {
	invites, err := h.services.Groups.ListInvites(r.Context(), currentUser(r))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeSuccess(w, invites)
}

func (h *Handler) AcceptInvite(w http.ResponseWriter, r *http.Request) {
	group, err := h.services.Groups.AcceptInvite(r.Context(), currentUser(r), chi.URLParam(r, "groupId"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeSuccess(w, group)
}

func (h *Handler) DeclineInvite(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "groupId")
	if err := h.services.Groups.DeclineInvite(r.Context(), currentUser(r), groupID); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeSuccess(w, map[string]string{"groupId": groupID})
}
