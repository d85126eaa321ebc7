package models

import "time"

// Data Transfer Objects

type RegisterRequest struct {
	Username         string `json:"username" validate:"required,min=3,max=64,alphanum_"`
	Email            string `json:"email" validate:"required,email,max=255"`
	FullName         string `json:"fullName" validate:"required,max=255"`
	Password         string `json:"password" validate:"required,min=8,max=72"`
	Role             Role   `json:"role" validate:"required,oneof=student teacher"`
	EnrollmentNumber string `json:"enrollmentNumber" validate:"required_if=Role student,max=64"`
	Department       string `json:"department" validate:"max=255"`
}

type CreateUserRequest struct {
	Username         string `json:"username" validate:"required,min=3,max=64,alphanum_"`
	Email            string `json:"email" validate:"required,email,max=255"`
	FullName         string `json:"fullName" validate:"required,max=255"`
	Password         string `json:"password" validate:"required,min=8,max=72"`
	Role             Role   `json:"role" validate:"required,oneof=admin coordinator teacher student"`
	EnrollmentNumber string `json:"enrollmentNumber" validate:"required_if=Role student,max=64"`
	Department       string `json:"department" validate:"max=255"`
}

type LoginRequest struct {
	Login    string `json:"login" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type CreateTopicRequest struct {
	Title       string     `json:"title" validate:"required,min=3,max=255"`
	Description string     `json:"description" validate:"required,max=5000"`
	Technology  string     `json:"technology" validate:"required,max=255"`
	ProjectType string     `json:"projectType" validate:"max=100"`
	Complexity  Complexity `json:"complexity" validate:"omitempty,oneof=low medium high"`
}

type UpdateTopicRequest struct {
	Title       *string     `json:"title" validate:"omitempty,min=3,max=255"`
	Description *string     `json:"description" validate:"omitempty,max=5000"`
	Technology  *string     `json:"technology" validate:"omitempty,max=255"`
	ProjectType *string     `json:"projectType" validate:"omitempty,max=100"`
	Complexity  *Complexity `json:"complexity" validate:"omitempty,oneof=low medium high"`
}

type ReviewTopicRequest struct {
	Feedback *string `json:"feedback" validate:"omitempty,max=2000"`
}

type CreateGroupRequest struct {
	Name              string   `json:"name" validate:"required,min=2,max=255"`
	Description       string   `json:"description" validate:"max=2000"`
	FacultyID         string   `json:"facultyId" validate:"omitempty,uuid"`
	EnrollmentNumbers []string `json:"enrollmentNumbers" validate:"dive,required,max=64"`
}

type InviteMembersRequest struct {
	EnrollmentNumbers []string `json:"enrollmentNumbers" validate:"required,min=1,dive,required,max=64"`
}

type SelectTopicRequest struct {
	TopicID string `json:"topicId" validate:"required,uuid"`
}

type UpdateProgressRequest struct {
	Progress *int `json:"progress" validate:"required"`
}

type EvaluateRequest struct {
	Marks    *int   `json:"marks" validate:"required"`
	Feedback string `json:"feedback" validate:"max=5000"`
}

type CreateMilestoneRequest struct {
	Title   string    `json:"title" validate:"required,max=255"`
	DueDate time.Time `json:"dueDate" validate:"required"`
}

type ResetRequest struct {
	Password string `json:"password" validate:"required"`
}

type ImportResponse struct {
	Users    int `json:"users"`
	Topics   int `json:"topics"`
	Groups   int `json:"groups"`
	Projects int `json:"projects"`
}
