package models

import (
	"time"
)

type ProjectStatus string

const (
	ProjectStatusInProgress ProjectStatus = "in_progress"
	ProjectStatusCompleted  ProjectStatus = "completed"
)

func (s ProjectStatus) String() string {
	return string(s)
}

// StudentProject is the allocation of one approved topic to a student or to the student's group.
type StudentProject struct {
	ID        string        `json:"id" db:"id"`
	TopicID   string        `json:"topicId" db:"topic_id"`
	StudentID string        `json:"studentId" db:"student_id"`
	GroupID   *string       `json:"groupId,omitempty" db:"group_id"`
	Term      string        `json:"term" db:"term"`
	Progress  int           `json:"progress" db:"progress"`
	Status    ProjectStatus `json:"status" db:"status"`
	CreatedAt time.Time     `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time     `json:"updatedAt" db:"updated_at"`
}

type ProjectWithDetails struct {
	StudentProject
	TopicTitle string `json:"topicTitle" db:"topic_title"`
	TeacherID  string `json:"teacherId" db:"teacher_id"`
}

type ProjectFilter struct {
	TeacherID string
	// MemberID matches projects held by the user directly or through an accepted group membership.
	MemberID string
	Limit    int
	Offset   int
}

type ProjectsResponse struct {
	Projects []ProjectWithDetails `json:"projects"`
	Total    int                  `json:"total"`
	Page     int                  `json:"page"`
	Limit    int                  `json:"limit"`
}
