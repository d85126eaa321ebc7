package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/SwetabhSingh17/APMS-sub001/internal/models"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Store groups the repositories behind one transaction boundary.
// Repositories returned from a Store passed to WithTx's callback run inside that transaction.
type Store interface {
	Users() UserRepository
	Topics() TopicRepository
	Groups() GroupRepository
	Projects() ProjectRepository
	Assessments() AssessmentRepository
	Milestones() MilestoneRepository
	Notifications() NotificationRepository
	Snapshots() SnapshotRepository

	// WithTx runs fn in a transaction, committing when fn returns nil and rolling back otherwise.
	// Nested calls join the outer transaction.
	WithTx(ctx context.Context, fn func(tx Store) error) error
	Ping(ctx context.Context) error
	Close() error
}

// Lookups return (nil, nil) when the row does not exist.

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	// LockByID is GetByID holding a row lock until the transaction ends. Operations that decide
	// a student's project or group membership take it first so they run one at a time per student.
	LockByID(ctx context.Context, id string) (*models.User, error)
	// GetByLogin matches either username or email, case-insensitively.
	GetByLogin(ctx context.Context, login string) (*models.User, error)
	GetByEnrollmentNumbers(ctx context.Context, numbers []string) ([]models.User, error)
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	CountByRole(ctx context.Context, role models.Role) (int, error)
}

type TopicRepository interface {
	Create(ctx context.Context, topic *models.ProjectTopic) error
	GetByID(ctx context.Context, id string) (*models.ProjectTopic, error)
	List(ctx context.Context, filter models.TopicFilter) ([]models.TopicWithDetails, int, error)
	// Review moves a pending topic to status. It reports false when the topic is missing or no longer pending.
	Review(ctx context.Context, id string, status models.TopicStatus, feedback *string, reviewerID string, at time.Time) (bool, error)
	// UpdatePending rewrites the editable fields while the topic is pending and owned by topic.SubmittedBy.
	UpdatePending(ctx context.Context, topic *models.ProjectTopic) (bool, error)
	DeletePending(ctx context.Context, id, teacherID string) (bool, error)
}

type GroupRepository interface {
	Create(ctx context.Context, group *models.StudentGroup) error
	GetByID(ctx context.Context, id string) (*models.StudentGroup, error)
	// LockByID is GetByID holding a row lock until the transaction ends.
	LockByID(ctx context.Context, id string) (*models.StudentGroup, error)
	AddMember(ctx context.Context, member *models.GroupMember) error
	GetMember(ctx context.Context, groupID, userID string) (*models.GroupMember, error)
	CountMembers(ctx context.Context, groupID string) (int, error)
	AcceptMember(ctx context.Context, groupID, userID string, at time.Time) (bool, error)
	RemovePendingMember(ctx context.Context, groupID, userID string) (bool, error)
	ListMembers(ctx context.Context, groupID string) ([]models.GroupMemberDetails, error)
	GetAcceptedGroupForUser(ctx context.Context, userID string) (*models.StudentGroup, error)
	ListByUser(ctx context.Context, userID string) ([]models.StudentGroup, error)
	ListInvites(ctx context.Context, userID string) ([]models.GroupInvite, error)
}

type ProjectRepository interface {
	// Allocate inserts project only if its topic is approved, reporting false otherwise.
	// Uniqueness on topic and on (holder, term) is enforced by the store and surfaces as *DuplicateError.
	Allocate(ctx context.Context, project *models.StudentProject) (bool, error)
	GetByID(ctx context.Context, id string) (*models.ProjectWithDetails, error)
	GetByTopic(ctx context.Context, topicID string) (*models.StudentProject, error)
	// GetActiveForUser finds the user's project for term, held directly or through an accepted group.
	GetActiveForUser(ctx context.Context, userID, term string) (*models.StudentProject, error)
	GetActiveForGroup(ctx context.Context, groupID, term string) (*models.StudentProject, error)
	List(ctx context.Context, filter models.ProjectFilter) ([]models.ProjectWithDetails, int, error)
	UpdateProgress(ctx context.Context, id string, progress int, status models.ProjectStatus, at time.Time) error
}

type AssessmentRepository interface {
	Upsert(ctx context.Context, assessment *models.ProjectAssessment) error
	GetByProject(ctx context.Context, projectID string) (*models.ProjectAssessment, error)
}

type MilestoneRepository interface {
	Create(ctx context.Context, milestone *models.ProjectMilestone) error
	GetByID(ctx context.Context, id string) (*models.ProjectMilestone, error)
	ListByProject(ctx context.Context, projectID string) ([]models.ProjectMilestone, error)
	Complete(ctx context.Context, id string, at time.Time) (bool, error)
}

type NotificationRepository interface {
	CreateBatch(ctx context.Context, notifications []models.Notification) error
	ListByUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]models.Notification, error)
	MarkRead(ctx context.Context, id, userID string) (bool, error)
	MarkAllRead(ctx context.Context, userID string) (int64, error)
}

type SnapshotRepository interface {
	Dump(ctx context.Context) (*models.Snapshot, error)
	Restore(ctx context.Context, snapshot *models.Snapshot) error
	Truncate(ctx context.Context) error
}
