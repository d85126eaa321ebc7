package httpd

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/SwetabhSingh17/APMS-sub001/internal/models"
	"github.com/SwetabhSingh17/APMS-sub001/pkg/utils"
)

func (h *Handler) SubmitTopic(w http.ResponseWriter, r *http.Request) {
	var req models.CreateTopicRequest
	if err := h.readJSON(w, r, &req); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	topic, err := h.services.Topics.Submit(r.Context(), currentUser(r), &req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeCreated(w, topic)
}

func (h *Handler) ListMyTopics(w http.ResponseWriter, r *http.Request) {
	resp, err := h.services.Topics.ListMine(r.Context(), currentUser(r),
		utils.QueryInt(r, "page", 1),
		utils.QueryInt(r, "limit", 20),
	)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeSuccess(w, resp)
}

// listTopicsByStatus serves /pending, /approved and /rejected with the shared query filters.
func (h *Handler) listTopicsByStatus(status models.TopicStatus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		filter := models.TopicFilter{
			Technology:  strings.TrimSpace(q.Get("technology")),
			ProjectType: strings.TrimSpace(q.Get("projectType")),
			SubmittedBy: strings.TrimSpace(q.Get("submittedBy")),
			Search:      strings.TrimSpace(q.Get("search")),
			Available:   utils.QueryBool(r, "available"),
		}

		resp, err := h.services.Topics.ListByStatus(r.Context(), currentUser(r), status, filter,
			utils.QueryInt(r, "page", 1),
			utils.QueryInt(r, "limit", 20),
		)
		if err != nil {
			h.handleServiceError(w, r, err)
			return
		}

		writeSuccess(w, resp)
	}
}

func (h *Handler) GetTopic(w http.ResponseWriter, r *http.Request) {
	topic, err := h.services.Topics.Get(r.Context(), currentUser(r), chi.URLParam(r, "id"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeSuccess(w, topic)
}

func (h *Handler) UpdateTopic(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateTopicRequest
	if err := h.readJSON(w, r, &req); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	topic, err := h.services.Topics.Update(r.Context(), currentUser(r), chi.URLParam(r, "id"), &req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeSuccess(w, topic)
}

func (h *Handler) DeleteTopic(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.services.Topics.Delete(r.Context(), currentUser(r), id); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeSuccess(w, map[string]string{"id": id})
}

func (h *Handler) ApproveTopic(w http.ResponseWriter, r *http.Request) {
	h.reviewTopic(w, r, h.services.Topics.Approve)
}

func (h *Handler) RejectTopic(w http.ResponseWriter, r *http.Request) {
	h.reviewTopic(w, r, h.services.Topics.Reject)
}

type reviewFunc func(ctx context.Context, actor *models.User, id string, req *models.ReviewTopicRequest) (*models.ProjectTopic, error)

// reviewTopic accepts an empty body; feedback is optional.
func (h *Handler) reviewTopic(w http.ResponseWriter, r *http.Request, review reviewFunc) {
	var req models.ReviewTopicRequest
	if r.ContentLength != 0 {
		if err := h.readJSON(w, r, &req); err != nil {
			h.handleServiceError(w, r, err)
			return
		}
	}

	topic, err := review(r.Context(), currentUser(r), chi.URLParam(r, "id"), &req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeSuccess(w, topic)
}
