package memory

import (
	"context"
	"sort"
	"time"

	"github.com/SwetabhSingh17/APMS-sub001/internal/models"
)

type topicRepository struct {
	s *Store
}

func (r *topicRepository) Create(ctx context.Context, topic *models.ProjectTopic) error {
	d, unlock := r.s.begin()
	defer unlock()

	d.topics[topic.ID] = *topic
	return nil
}

func (r *topicRepository) GetByID(ctx context.Context, id string) (*models.ProjectTopic, error) {
	d, unlock := r.s.begin()
	defer unlock()

	t, ok := d.topics[id]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (r *topicRepository) List(ctx context.Context, filter models.TopicFilter) ([]models.TopicWithDetails, int, error) {
	d, unlock := r.s.begin()
	defer unlock()

	claimed := make(map[string]bool, len(d.projects))
	for _, p := range d.projects {
		claimed[p.TopicID] = true
	}

	topics := make([]models.TopicWithDetails, 0)
	for _, t := range d.topics {
		switch {
		case filter.Status != nil && t.Status != *filter.Status:
			continue
		case filter.SubmittedBy != "" && t.SubmittedBy != filter.SubmittedBy:
			continue
		case filter.Technology != "" && !containsFold(t.Technology, filter.Technology):
			continue
		case filter.ProjectType != "" && t.ProjectType != filter.ProjectType:
			continue
		case filter.Search != "" && !containsFold(t.Title, filter.Search) && !containsFold(t.Description, filter.Search):
			continue
		case filter.Available && (t.Status != models.TopicStatusApproved || claimed[t.ID]):
			continue
		}
		topics = append(topics, models.TopicWithDetails{
			ProjectTopic:  t,
			SubmitterName: d.users[t.SubmittedBy].FullName,
			Claimed:       claimed[t.ID],
		})
	}

	sort.Slice(topics, func(i, j int) bool {
		if !topics[i].CreatedAt.Equal(topics[j].CreatedAt) {
			return topics[i].CreatedAt.After(topics[j].CreatedAt)
		}
		return topics[i].ID < topics[j].ID
	})

	return page(topics, filter.Limit, filter.Offset), len(topics), nil
}

func (r *topicRepository) Review(ctx context.Context, id string, status models.TopicStatus, feedback *string, reviewerID string, at time.Time) (bool, error) {
	d, unlock := r.s.begin()
	defer unlock()

	t, ok := d.topics[id]
	if !ok || t.Status != models.TopicStatusPending {
		return false, nil
	}

	t.Status = status
	t.Feedback = feedback
	t.ReviewedBy = &reviewerID
	t.ReviewedAt = &at
	t.UpdatedAt = at
	d.topics[id] = t
	return true, nil
}

func (r *topicRepository) UpdatePending(ctx context.Context, topic *models.ProjectTopic) (bool, error) {
	d, unlock := r.s.begin()
	defer unlock()

	t, ok := d.topics[topic.ID]
	if !ok || t.Status != models.TopicStatusPending || t.SubmittedBy != topic.SubmittedBy {
		return false, nil
	}

	t.Title = topic.Title
	t.Description = topic.Description
	t.Technology = topic.Technology
	t.ProjectType = topic.ProjectType
	t.Complexity = topic.Complexity
	t.UpdatedAt = topic.UpdatedAt
	d.topics[t.ID] = t
	return true, nil
}

func (r *topicRepository) DeletePending(ctx context.Context, id, teacherID string) (bool, error) {
	d, unlock := r.s.begin()
	defer unlock()

	t, ok := d.topics[id]
	if !ok || t.Status != models.TopicStatusPending || t.SubmittedBy != teacherID {
		return false, nil
	}

	delete(d.topics, id)
	return true, nil
}
