package httpd

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/SwetabhSingh17/APMS-sub001/pkg/utils"
)

func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	notifications, err := h.services.Notifications.List(r.Context(), currentUser(r),
		utils.QueryBool(r, "unread"),
		utils.QueryInt(r, "limit", 50),
	)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeSuccess(w, notifications)
}

func (h *Handler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.services.Notifications.MarkRead(r.Context(), currentUser(r), id); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeSuccess(w, map[string]string{"id": id})
}

func (h *Handler) MarkAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	n, err := h.services.Notifications.MarkAllRead(r.Context(), currentUser(r))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeSuccess(w, map[string]int64{"updated": n})
}
