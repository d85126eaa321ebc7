package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/SwetabhSingh17/APMS-sub001/internal/apperrors"
	"github.com/SwetabhSingh17/APMS-sub001/internal/auth"
	"github.com/SwetabhSingh17/APMS-sub001/internal/config"
	"github.com/SwetabhSingh17/APMS-sub001/internal/export"
	"github.com/SwetabhSingh17/APMS-sub001/internal/models"
	"github.com/SwetabhSingh17/APMS-sub001/internal/repository"
	"github.com/SwetabhSingh17/APMS-sub001/internal/service/integration"
)

type AdminService interface {
	Export(ctx context.Context, actor *models.User) (*models.Snapshot, error)
	ExportExcel(ctx context.Context, actor *models.User) ([]byte, error)
	Import(ctx context.Context, actor *models.User, snap *models.Snapshot) (*models.ImportResponse, error)
	Reset(ctx context.Context, actor *models.User, req *models.ResetRequest) error
}

type adminService struct {
	base
	archive integration.ExportArchive
	admin   config.AdminConfig
}

// NewAdminService archives exports when archive is non-nil.
func NewAdminService(d Deps, archive integration.ExportArchive, admin config.AdminConfig) AdminService {
	return &adminService{base: newBase(d, "admin"), archive: archive, admin: admin}
}

func (s *adminService) dump(ctx context.Context, actor *models.User) (*models.Snapshot, error) {
	if err := auth.Require(actor, auth.CapSystemAdminister); err != nil {
		return nil, err
	}

	var snap *models.Snapshot
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		var err error
		snap, err = tx.Snapshots().Dump(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to export data: %w", err)
	}
	snap.ExportedAt = s.now()
	return snap, nil
}

func (s *adminService) Export(ctx context.Context, actor *models.User) (*models.Snapshot, error) {
	snap, err := s.dump(ctx, actor)
	if err != nil {
		return nil, err
	}

	if s.archive != nil {
		data, err := json.Marshal(snap)
		if err != nil {
			return nil, fmt.Errorf("failed to encode export: %w", err)
		}
		s.store2Archive(ctx, snap, "json", "application/json", data)
	}

	s.logger.Info().
		Str("actor_id", actor.ID).
		Int("users", len(snap.Users)).
		Int("topics", len(snap.Topics)).
		Int("projects", len(snap.Projects)).
		Msg("Data exported")
	return snap, nil
}

func (s *adminService) ExportExcel(ctx context.Context, actor *models.User) ([]byte, error) {
	snap, err := s.dump(ctx, actor)
	if err != nil {
		return nil, err
	}

	data, err := export.Workbook(snap)
	if err != nil {
		return nil, fmt.Errorf("failed to build workbook: %w", err)
	}

	if s.archive != nil {
		s.store2Archive(ctx, snap, "xlsx", export.ContentType, data)
	}

	s.logger.Info().Str("actor_id", actor.ID).Int("bytes", len(data)).Msg("Workbook exported")
	return data, nil
}

// store2Archive never fails the export: the caller already has the data.
func (s *adminService) store2Archive(ctx context.Context, snap *models.Snapshot, ext, contentType string, data []byte) {
	key, err := s.archive.Store(ctx, snap.ExportedAt, ext, contentType, data)
	if err != nil {
		s.logger.Error().Err(err).Str("format", ext).Msg("Failed to archive export")
		return
	}
	s.logger.Info().Str("key", key).Msg("Export archived")
}

// Import replaces the whole portal state with snap in one transaction.
func (s *adminService) Import(ctx context.Context, actor *models.User, snap *models.Snapshot) (*models.ImportResponse, error) {
	if err := auth.Require(actor, auth.CapSystemAdminister); err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, apperrors.Validation("snapshot is required")
	}
	if snap.Version != models.SnapshotVersion {
		return nil, apperrors.Validation("unsupported snapshot version %d", snap.Version)
	}
	if err := checkSnapshot(snap); err != nil {
		return nil, err
	}

	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		if err := tx.Snapshots().Truncate(ctx); err != nil {
			return fmt.Errorf("failed to clear data: %w", err)
		}
		if err := tx.Snapshots().Restore(ctx, snap); err != nil {
			if errors.Is(err, repository.ErrDuplicate) || errors.Is(err, repository.ErrDanglingReference) {
				return apperrors.Wrap(apperrors.KindValidation, err, "snapshot is inconsistent: %s", err.Error())
			}
			return fmt.Errorf("failed to restore data: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp := &models.ImportResponse{
		Users:    len(snap.Users),
		Topics:   len(snap.Topics),
		Groups:   len(snap.Groups),
		Projects: len(snap.Projects),
	}

	s.logger.Warn().
		Str("actor_id", actor.ID).
		Int("users", resp.Users).
		Int("topics", resp.Topics).
		Int("groups", resp.Groups).
		Int("projects", resp.Projects).
		Msg("Data imported, previous state replaced")
	return resp, nil
}

// checkSnapshot rejects references to records the snapshot does not contain.
func checkSnapshot(snap *models.Snapshot) error {
	users := make(map[string]bool, len(snap.Users))
	hasAdmin := false
	for _, u := range snap.Users {
		if !u.Role.Valid() {
			return apperrors.Validation("user %s has unknown role %q", u.ID, u.Role)
		}
		if u.PasswordHash == "" {
			return apperrors.Validation("user %s has no password hash", u.ID)
		}
		users[u.ID] = true
		hasAdmin = hasAdmin || u.Role == models.RoleAdmin
	}
	if !hasAdmin {
		return apperrors.Validation("snapshot must contain at least one admin")
	}

	topics := make(map[string]bool, len(snap.Topics))
	for _, t := range snap.Topics {
		if !users[t.SubmittedBy] {
			return apperrors.Validation("topic %s references unknown user %s", t.ID, t.SubmittedBy)
		}
		if t.ReviewedBy != nil && !users[*t.ReviewedBy] {
			return apperrors.Validation("topic %s references unknown reviewer %s", t.ID, *t.ReviewedBy)
		}
		topics[t.ID] = true
	}

	groups := make(map[string]bool, len(snap.Groups))
	for _, g := range snap.Groups {
		if !users[g.LeaderID] {
			return apperrors.Validation("group %s references unknown leader %s", g.ID, g.LeaderID)
		}
		if g.FacultyID != nil && !users[*g.FacultyID] {
			return apperrors.Validation("group %s references unknown faculty %s", g.ID, *g.FacultyID)
		}
		groups[g.ID] = true
	}
	for _, m := range snap.Members {
		if !groups[m.GroupID] || !users[m.UserID] {
			return apperrors.Validation("group member %s references unknown group or user", m.ID)
		}
	}

	projects := make(map[string]bool, len(snap.Projects))
	for _, p := range snap.Projects {
		if !topics[p.TopicID] || !users[p.StudentID] || (p.GroupID != nil && !groups[*p.GroupID]) {
			return apperrors.Validation("project %s references unknown topic, student or group", p.ID)
		}
		projects[p.ID] = true
	}
	for _, a := range snap.Assessments {
		if !projects[a.ProjectID] {
			return apperrors.Validation("assessment %s references unknown project %s", a.ID, a.ProjectID)
		}
		if !users[a.FacultyID] {
			return apperrors.Validation("assessment %s references unknown faculty %s", a.ID, a.FacultyID)
		}
	}
	for _, m := range snap.Milestones {
		if !projects[m.ProjectID] {
			return apperrors.Validation("milestone %s references unknown project %s", m.ID, m.ProjectID)
		}
	}
	for _, n := range snap.Notifications {
		if !users[n.UserID] {
			return apperrors.Validation("notification %s references unknown user %s", n.ID, n.UserID)
		}
	}
	return nil
}

// Reset wipes every table and re-seeds the bootstrap admin. The acting admin must confirm with their password.
func (s *adminService) Reset(ctx context.Context, actor *models.User, req *models.ResetRequest) error {
	if err := auth.Require(actor, auth.CapSystemAdminister); err != nil {
		return err
	}
	if err := s.validator.Struct(req); err != nil {
		return err
	}

	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		current, err := tx.Users().GetByID(ctx, actor.ID)
		if err != nil {
			return fmt.Errorf("failed to load user: %w", err)
		}
		if current == nil || current.CheckPassword(req.Password) != nil {
			return apperrors.Forbidden("password confirmation failed")
		}

		if err := tx.Snapshots().Truncate(ctx); err != nil {
			return fmt.Errorf("failed to clear data: %w", err)
		}
		return seedAdmin(ctx, tx, s.admin, &s.base)
	})
	if err != nil {
		return err
	}

	s.logger.Warn().Str("actor_id", actor.ID).Msg("Portal data reset")
	return nil
}
