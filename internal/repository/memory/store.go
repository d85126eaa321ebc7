// Package memory is an in-process repository.Store. It enforces the same unique constraints as the
// Postgres schema and serialises transactions behind one mutex, which is enough for tests and demos.
package memory

import (
	"context"
	"sync"

	"github.com/SwetabhSingh17/APMS-sub001/internal/models"
	"github.com/SwetabhSingh17/APMS-sub001/internal/repository"
)

type dataset struct {
	users         map[string]models.User
	topics        map[string]models.ProjectTopic
	groups        map[string]models.StudentGroup
	members       map[string]models.GroupMember
	projects      map[string]models.StudentProject
	assessments   map[string]models.ProjectAssessment
	milestones    map[string]models.ProjectMilestone
	notifications map[string]models.Notification
}

func newDataset() *dataset {
	return &dataset{
		users:         make(map[string]models.User),
		topics:        make(map[string]models.ProjectTopic),
		groups:        make(map[string]models.StudentGroup),
		members:       make(map[string]models.GroupMember),
		projects:      make(map[string]models.StudentProject),
		assessments:   make(map[string]models.ProjectAssessment),
		milestones:    make(map[string]models.ProjectMilestone),
		notifications: make(map[string]models.Notification),
	}
}

func cloneMap[V any](m map[string]V) map[string]V {
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (d *dataset) clone() *dataset {
	return &dataset{
		users:         cloneMap(d.users),
		topics:        cloneMap(d.topics),
		groups:        cloneMap(d.groups),
		members:       cloneMap(d.members),
		projects:      cloneMap(d.projects),
		assessments:   cloneMap(d.assessments),
		milestones:    cloneMap(d.milestones),
		notifications: cloneMap(d.notifications),
	}
}

type root struct {
	mu   sync.Mutex
	data *dataset
}

// Store is a view over the shared dataset. Outside a transaction every call locks the dataset;
// inside one the view works on a private copy that replaces the dataset on commit.
type Store struct {
	root *root
	tx   *dataset
}

var _ repository.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{root: &root{data: newDataset()}}
}

func (s *Store) begin() (*dataset, func()) {
	if s.tx != nil {
		return s.tx, func() {}
	}
	s.root.mu.Lock()
	return s.root.data, s.root.mu.Unlock
}

func (s *Store) Users() repository.UserRepository             { return &userRepository{s} }
func (s *Store) Topics() repository.TopicRepository           { return &topicRepository{s} }
func (s *Store) Groups() repository.GroupRepository           { return &groupRepository{s} }
func (s *Store) Projects() repository.ProjectRepository       { return &projectRepository{s} }
func (s *Store) Assessments() repository.AssessmentRepository { return &assessmentRepository{s} }
func (s *Store) Milestones() repository.MilestoneRepository   { return &milestoneRepository{s} }
func (s *Store) Notifications() repository.NotificationRepository {
	return &notificationRepository{s}
}
func (s *Store) Snapshots() repository.SnapshotRepository { return &snapshotRepository{s} }

func (s *Store) WithTx(ctx context.Context, fn func(tx repository.Store) error) error {
	if s.tx != nil {
		return fn(s)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.root.mu.Lock()
	defer s.root.mu.Unlock()

	work := s.root.data.clone()
	if err := fn(&Store{root: s.root, tx: work}); err != nil {
		return err
	}
	s.root.data = work
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *Store) Close() error {
	return nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset > len(items) {
		offset = len(items)
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
