package model

import "time"

// SubmissionHistory is an append-only transition log. Rows are never updated
// or reordered; auto-increment order is chronological order.
type SubmissionHistory struct {
	ID uint64 `gorm:"primaryKey"`

	SubmissionID uint64     `gorm:"column:submission_id;not null;index"`
	Submission   Submission `gorm:"foreignKey:SubmissionID;references:ID;constraint:OnDelete:CASCADE"`

	// ActorID 0 marks a system-driven transition (archive, inactivity delete).
	ActorID uint64 `gorm:"column:actor_id;not null"`

	Status  string `gorm:"column:status;size:20;not null"`
	Comment string `gorm:"column:comment;type:text"`

	CreatedAt time.Time
}

// TableName returns the database table name.
func (SubmissionHistory) TableName() string {
	return "submission_history"
}
