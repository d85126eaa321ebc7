package models

import (
	"time"
)

const DefaultMaxGroupSize = 5

type StudentGroup struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	FacultyID   *string   `json:"facultyId,omitempty" db:"faculty_id"`
	LeaderID    string    `json:"leaderId" db:"leader_id"`
	MaxSize     int       `json:"maxSize" db:"max_size"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

type MemberStatus string

const (
	MemberStatusPending  MemberStatus = "pending"
	MemberStatusAccepted MemberStatus = "accepted"
)

type GroupMember struct {
	ID          string       `json:"id" db:"id"`
	GroupID     string       `json:"groupId" db:"group_id"`
	UserID      string       `json:"userId" db:"user_id"`
	Status      MemberStatus `json:"status" db:"status"`
	InvitedAt   time.Time    `json:"invitedAt" db:"invited_at"`
	RespondedAt *time.Time   `json:"respondedAt,omitempty" db:"responded_at"`
}

type GroupMemberDetails struct {
	GroupMember
	Username         string  `json:"username" db:"username"`
	FullName         string  `json:"fullName" db:"full_name"`
	EnrollmentNumber *string `json:"enrollmentNumber,omitempty" db:"enrollment_number"`
}

type GroupWithMembers struct {
	StudentGroup
	Members []GroupMemberDetails `json:"members"`
}

// AcceptedCount includes the leader, whose membership row is accepted on creation.
func (g *GroupWithMembers) AcceptedCount() int {
	n := 0
	for _, m := range g.Members {
		if m.Status == MemberStatusAccepted {
			n++
		}
	}
	return n
}

type GroupInvite struct {
	GroupID    string    `json:"groupId" db:"group_id"`
	GroupName  string    `json:"groupName" db:"group_name"`
	LeaderID   string    `json:"leaderId" db:"leader_id"`
	LeaderName string    `json:"leaderName" db:"leader_name"`
	InvitedAt  time.Time `json:"invitedAt" db:"invited_at"`
}
