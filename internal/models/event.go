package models

import "time"

type EventType string

const (
	EventTopicSubmitted   EventType = "topic.submitted"
	EventTopicApproved    EventType = "topic.approved"
	EventTopicRejected    EventType = "topic.rejected"
	EventGroupInvited     EventType = "group.invited"
	EventGroupJoined      EventType = "group.joined"
	EventProjectAllocated EventType = "project.allocated"
	EventProjectProgress  EventType = "project.progress"
	EventProjectEvaluated EventType = "project.evaluated"
)

// Event is published after a state transition commits. Recipients receive Message as a notification.
type Event struct {
	ID         string    `json:"id"`
	Type       EventType `json:"type"`
	ActorID    string    `json:"actorId"`
	SubjectID  string    `json:"subjectId"`
	Recipients []string  `json:"recipients"`
	Message    string    `json:"message"`
	OccurredAt time.Time `json:"occurredAt"`
}

type Notification struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"userId" db:"user_id"`
	Type      EventType `json:"type" db:"type"`
	Message   string    `json:"message" db:"message"`
	IsRead    bool      `json:"isRead" db:"is_read"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
