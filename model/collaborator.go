package model

import "time"

// Collaborator permissions.
const (
	CollaboratorCanView = "Can View"
	CollaboratorCanEdit = "Can Edit"
)

type Collaborator struct {
	ID uint64 `gorm:"primaryKey"`

	SubmissionID uint64     `gorm:"column:submission_id;not null;uniqueIndex:uk_submission_collaborator"`
	Submission   Submission `gorm:"foreignKey:SubmissionID;references:ID;constraint:OnDelete:CASCADE"`

	CollaboratorID uint64 `gorm:"column:collaborator_id;not null;uniqueIndex:uk_submission_collaborator"`
	Permission     string `gorm:"column:permission;size:20;not null"`

	CreatedAt time.Time
}

// TableName returns the database table name.
func (Collaborator) TableName() string {
	return "submission_collaborator"
}
