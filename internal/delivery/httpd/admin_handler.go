package httpd

import (
	"fmt"
	"net/http"
	"time"

	"github.com/SwetabhSingh17/APMS-sub001/internal/export"
	"github.com/SwetabhSingh17/APMS-sub001/internal/models"
	"github.com/SwetabhSingh17/APMS-sub001/pkg/hash"
)

func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	snap, err := h.services.Admin.Export(r.Context(), currentUser(r))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeSuccess(w, snap)
}

func (h *Handler) ExportExcel(w http.ResponseWriter, r *http.Request) {
	data, err := h.services.Admin.ExportExcel(r.Context(), currentUser(r))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	if sum, err := hash.New(hash.SHA256).Calculate(data); err == nil {
		w.Header().Set("X-Checksum-Sha256", sum)
	}

	name := fmt.Sprintf("portal-export-%s.xlsx", time.Now().UTC().Format("20060102-150405"))
	attachment(w, name, export.ContentType, data)
}

func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	var snap models.Snapshot
	if err := h.readJSON(w, r, &snap); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	resp, err := h.services.Admin.Import(r.Context(), currentUser(r), &snap)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeSuccess(w, resp)
}

// Reset also ends the caller's session: the account it refers to no longer exists.
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	var req models.ResetRequest
	if err := h.readJSON(w, r, &req); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	if err := h.services.Admin.Reset(r.Context(), currentUser(r), &req); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	if err := h.sessions.Logout(w, r); err != nil {
		h.logger.Warn().Err(err).Msg("Failed to clear session after reset")
	}
	writeSuccess(w, map[string]bool{"reset": true})
}
