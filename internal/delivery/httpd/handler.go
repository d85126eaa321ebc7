package httpd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/SwetabhSingh17/APMS-sub001/internal/apperrors"
	"github.com/SwetabhSingh17/APMS-sub001/internal/auth"
	"github.com/SwetabhSingh17/APMS-sub001/internal/models"
	"github.com/SwetabhSingh17/APMS-sub001/internal/service"
	"github.com/SwetabhSingh17/APMS-sub001/pkg/utils"
)

// Services is the application layer the handlers translate HTTP into.
type Services struct {
	Users         service.UserService
	Topics        service.TopicService
	Groups        service.GroupService
	Projects      service.ProjectService
	Evaluation    service.EvaluationService
	Milestones    service.MilestoneService
	Notifications service.NotificationService
	Admin         service.AdminService
}

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	services     Services
	sessions     *auth.SessionManager
	health       Pinger
	maxBodyBytes int64
	logger       zerolog.Logger
}

func NewHandler(services Services, sessions *auth.SessionManager, health Pinger, maxBodyBytes int64, logger zerolog.Logger) *Handler {
	if maxBodyBytes <= 0 {
		maxBodyBytes = 10 << 20
	}
	return &Handler{
		services:     services,
		sessions:     sessions,
		health:       health,
		maxBodyBytes: maxBodyBytes,
		logger:       logger.With().Str("component", "http").Logger(),
	}
}

func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/health", h.HealthCheck)

	router.Route("/api", func(api chi.Router) {
		api.Use(h.authenticate)

		api.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.Register)
			r.Post("/login", h.Login)
			r.With(requireUser).Post("/logout", h.Logout)
			r.With(requireUser).Get("/me", h.Me)
		})

		api.Group(func(r chi.Router) {
			r.Use(requireUser)

			r.Route("/users", func(r chi.Router) {
				r.Get("/", h.ListUsers)
				r.Post("/", h.CreateUser)
			})

			r.Route("/topics", func(r chi.Router) {
				r.Post("/", h.SubmitTopic)
				r.Get("/mine", h.ListMyTopics)
				r.Get("/pending", h.listTopicsByStatus(models.TopicStatusPending))
				r.Get("/approved", h.listTopicsByStatus(models.TopicStatusApproved))
				r.Get("/rejected", h.listTopicsByStatus(models.TopicStatusRejected))
				r.Get("/{id}", h.GetTopic)
				r.Put("/{id}", h.UpdateTopic)
				r.Delete("/{id}", h.DeleteTopic)
				r.Post("/{id}/approve", h.ApproveTopic)
				r.Post("/{id}/reject", h.RejectTopic)
			})

			r.Route("/student-groups", func(r chi.Router) {
				r.Post("/", h.CreateGroup)
				r.Get("/mine", h.ListMyGroups)
				r.Get("/{id}", h.GetGroup)
				r.Post("/{id}/invite", h.InviteMembers)
			})

			r.Route("/groups", func(r chi.Router) {
				r.Get("/invites", h.ListInvites)
				r.Post("/invite/{groupId}/accept", h.AcceptInvite)
				r.Post("/invite/{groupId}/decline", h.DeclineInvite)
			})

			r.Route("/projects", func(r chi.Router) {
				r.Post("/", h.SelectTopic)
				r.Get("/", h.ListProjects)
				r.Get("/{id}", h.GetProject)
				r.Put("/{id}/progress", h.UpdateProgress)
				r.Post("/{id}/evaluate", h.Evaluate)
				r.Get("/{id}/assessment", h.GetAssessment)
				r.Get("/{id}/milestones", h.ListMilestones)
				r.Post("/{id}/milestones", h.CreateMilestone)
			})

			r.Post("/milestones/{id}/complete", h.CompleteMilestone)

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", h.ListNotifications)
				r.Post("/read-all", h.MarkAllNotificationsRead)
				r.Post("/{id}/read", h.MarkNotificationRead)
			})

			r.Route("/admin", func(r chi.Router) {
				r.Post("/export", h.Export)
				r.Post("/export-excel", h.ExportExcel)
				r.Post("/import", h.Import)
				r.Post("/reset", h.Reset)
			})
		})
	})
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status, code := "healthy", http.StatusOK
	if h.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.health.Ping(ctx); err != nil {
			h.logger.Warn().Err(err).Msg("Health check failed")
			status, code = "unhealthy", http.StatusServiceUnavailable
		}
	}

	writeJSON(w, code, map[string]interface{}{
		"status":    status,
		"service":   "project-portal",
		"timestamp": time.Now().UTC(),
	})
}

// authenticate resolves the session cookie to a user. A cookie naming a deleted user is treated as anonymous.
func (h *Handler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := h.sessions.UserID(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		user, err := h.services.Users.GetByID(r.Context(), id)
		switch {
		case err == nil:
			r = r.WithContext(auth.WithUser(r.Context(), user))
		case apperrors.Is(err, apperrors.KindNotFound):
		default:
			h.handleServiceError(w, r, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := auth.UserFromContext(r.Context()); !ok {
			writeError(w, http.StatusUnauthorized, "unauthenticated", apperrors.ErrUnauthenticated.Error(), nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func currentUser(r *http.Request) *models.User {
	user, _ := auth.UserFromContext(r.Context())
	return user
}

// readJSON caps the body size and reports decoding problems as validation errors.
func (h *Handler) readJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	if err := utils.ReadJSON(r, dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperrors.Validation("request body exceeds %d bytes", tooLarge.Limit)
		}
		return apperrors.Validation("invalid request body: %s", err.Error())
	}
	return nil
}

func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, apperrors.ErrUnauthenticated) {
		writeError(w, http.StatusUnauthorized, "unauthenticated", appMessage(err), nil)
		return
	}

	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		writeError(w, statusFor(appErr.Kind), string(appErr.Kind), appErr.Message, appErr.Fields)
		return
	}

	logger := zerolog.Ctx(r.Context())
	if logger.GetLevel() == zerolog.Disabled {
		logger = &h.logger
	}
	logger.Error().Err(err).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Msg("Request failed")
	writeError(w, http.StatusInternalServerError, "internal", "internal server error", nil)
}

func appMessage(err error) string {
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}

func statusFor(kind apperrors.Kind) int {
	switch kind {
	case apperrors.KindValidation:
		return http.StatusBadRequest
	case apperrors.KindAuthorization:
		return http.StatusForbidden
	case apperrors.KindNotFound:
		return http.StatusNotFound
	case apperrors.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	_ = utils.WriteJSON(w, status, data)
}

func writeError(w http.ResponseWriter, status int, kind, message string, fields []apperrors.FieldError) {
	body := map[string]interface{}{
		"error":   http.StatusText(status),
		"kind":    kind,
		"message": message,
	}
	if len(fields) > 0 {
		body["fields"] = fields
	}
	writeJSON(w, status, body)
}

func writeSuccess(w http.ResponseWriter, data interface{}) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    data,
	})
}

func writeCreated(w http.ResponseWriter, data interface{}) {
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"data":    data,
	})
}

func attachment(w http.ResponseWriter, name, contentType string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
