package httpd

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/SwetabhSingh17/APMS-sub001/internal/models"
	"github.com/SwetabhSingh17/APMS-sub001/pkg/utils"
)

func (h *Handler) SelectTopic(w http.ResponseWriter, r *http.Request) {
	var req models.SelectTopicRequest
	if err := h.readJSON(w, r, &req); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	project, err := h.services.Projects.SelectTopic(r.Context(), currentUser(r), &req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeCreated(w, project)
}

func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	resp, err := h.services.Projects.List(r.Context(), currentUser(r),
		utils.QueryInt(r, "page", 1),
		utils.QueryInt(r, "limit", 20),
	)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeSuccess(w, resp)
}

func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	project, err := h.services.Projects.Get(r.Context(), currentUser(r), chi.URLParam(r, "id"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeSuccess(w, project)
}

func (h *Handler) UpdateProgress(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateProgressRequest
	if err := h.readJSON(w, r, &req); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	project, err := h.services.Projects.UpdateProgress(r.Context(), currentUser(r), chi.URLParam(r, "id"), &req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeSuccess(w, project)
}

func (h *Handler) Evaluate(w http.ResponseWriter, r *http.Request) {
	var req models.EvaluateRequest
	if err := h.readJSON(w, r, &req); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	assessment, err := h.services.Evaluation.Evaluate(r.Context(), currentUser(r), chi.URLParam(r, "id"), &req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeSuccess(w, assessment)
}

func (h *Handler) GetAssessment(w http.ResponseWriter, r *http.Request) {
	assessment, err := h.services.Evaluation.GetAssessment(r.Context(), currentUser(r), chi.URLParam(r, "id"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeSuccess(w, assessment)
}

func (h *Handler) ListMilestones(w http.ResponseWriter, r *http.Request) {
	milestones, err := h.services.Milestones.List(r.Context(), currentUser(r), chi.URLParam(r, "id"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeSuccess(w, milestones)
}

func (h *Handler) CreateMilestone(w http.ResponseWriter, r *http.Request) {
	var req models.CreateMilestoneRequest
	if err := h.readJSON(w, r, &req); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	milestone, err := h.services.Milestones.Create(r.Context(), currentUser(r), chi.URLParam(r, "id"), &req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeCreated(w, milestone)
}

func (h *Handler) CompleteMilestone(w http.ResponseWriter, r *http.Request) {
	milestone, err := h.services.Milestones.Complete(r.Context(), currentUser(r), chi.URLParam(r, "id"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeSuccess(w, milestone)
}
