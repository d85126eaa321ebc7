package models

import (
	"time"
)

type TopicStatus string

const (
	TopicStatusPending  TopicStatus = "pending"
	TopicStatusApproved TopicStatus = "approved"
	TopicStatusRejected TopicStatus = "rejected"
)

func (s TopicStatus) String() string {
	return string(s)
}

func IsValidTopicStatus(status string) bool {
	switch TopicStatus(status) {
	case TopicStatusPending, TopicStatusApproved, TopicStatusRejected:
		return true
	default:
		return false
	}
}

type Complexity string

const (
	ComplexityLow    Complexity = "low"
	ComplexityMedium Complexity = "medium"
	ComplexityHigh   Complexity = "high"
)

type ProjectTopic struct {
	ID          string      `json:"id" db:"id"`
	Title       string      `json:"title" db:"title"`
	Description string      `json:"description" db:"description"`
	Technology  string      `json:"technology" db:"technology"`
	ProjectType string      `json:"projectType" db:"project_type"`
	Complexity  Complexity  `json:"complexity" db:"complexity"`
	SubmittedBy string      `json:"submittedById" db:"submitted_by"`
	Status      TopicStatus `json:"status" db:"status"`
	Feedback    *string     `json:"feedback,omitempty" db:"feedback"`
	ReviewedBy  *string     `json:"reviewedById,omitempty" db:"reviewed_by"`
	ReviewedAt  *time.Time  `json:"reviewedAt,omitempty" db:"reviewed_at"`
	CreatedAt   time.Time   `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time   `json:"updatedAt" db:"updated_at"`
}

type TopicWithDetails struct {
	ProjectTopic
	SubmitterName string `json:"submitterName" db:"submitter_name"`
	Claimed       bool   `json:"claimed" db:"claimed"`
}

type TopicFilter struct {
	Status      *TopicStatus
	SubmittedBy string
	Technology  string
	ProjectType string
	Search      string
	// Available restricts to approved topics no project references yet.
	Available bool
	Limit     int
	Offset    int
}

type TopicsResponse struct {
	Topics []TopicWithDetails `json:"topics"`
	Total  int                `json:"total"`
	Page   int                `json:"page"`
	Limit  int                `json:"limit"`
}
