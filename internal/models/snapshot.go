package models

import "time"

const SnapshotVersion = 1

// SnapshotUser carries the password hash, which User never serialises.
type SnapshotUser struct {
	User
	PasswordHash string `json:"passwordHash"`
}

// Snapshot is the full portal state as produced by export and consumed by import.
type Snapshot struct {
	Version       int                 `json:"version"`
	ExportedAt    time.Time           `json:"exportedAt"`
	Users         []SnapshotUser      `json:"users"`
	Topics        []ProjectTopic      `json:"topics"`
	Groups        []StudentGroup      `json:"groups"`
	Members       []GroupMember       `json:"members"`
	Projects      []StudentProject    `json:"projects"`
	Assessments   []ProjectAssessment `json:"assessments"`
	Milestones    []ProjectMilestone  `json:"milestones"`
	Notifications []Notification      `json:"notifications"`
}
