package models

import (
	"time"
)

const (
	MinScore = 0
	MaxScore = 100
)

type ProjectAssessment struct {
	ID        string    `json:"id" db:"id"`
	ProjectID string    `json:"projectId" db:"project_id"`
	FacultyID string    `json:"facultyId" db:"faculty_id"`
	Score     int       `json:"marks" db:"score"`
	Feedback  string    `json:"feedback" db:"feedback"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

type MilestoneStatus string

const (
	MilestoneStatusPending   MilestoneStatus = "pending"
	MilestoneStatusCompleted MilestoneStatus = "completed"
)

type ProjectMilestone struct {
	ID          string          `json:"id" db:"id"`
	ProjectID   string          `json:"projectId" db:"project_id"`
	Title       string          `json:"title" db:"title"`
	DueDate     time.Time       `json:"dueDate" db:"due_date"`
	Status      MilestoneStatus `json:"status" db:"status"`
	CompletedAt *time.Time      `json:"completedAt,omitempty" db:"completed_at"`
	CreatedAt   time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time       `json:"updatedAt" db:"updated_at"`
}
