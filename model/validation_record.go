package model

import "time"

// Validation run types, stored comma-separated on ValidationRecord.
const (
	ValidationTypeMetadata = "metadata"
	ValidationTypeFile     = "file"
	ValidationTypeCross    = "cross-submission"
)

// Validation run statuses. A run that completed normally is implicitly
// closed by the submission's own validation status fields.
const (
	ValidationRunValidating = "Validating"
	ValidationRunError      = "Error"
)

// ValidationRecord tracks one validation invocation. Only Status and EndedAt
// are ever mutated, and only when the run fails.
type ValidationRecord struct {
	ID uint64 `gorm:"primaryKey"`

	SubmissionID uint64     `gorm:"column:submission_id;not null;index"`
	Submission   Submission `gorm:"foreignKey:SubmissionID;references:ID;constraint:OnDelete:CASCADE"`

	RunID string `gorm:"column:run_id;size:36;uniqueIndex;not null"`

	Types string `gorm:"column:types;size:80;not null"`
	Scope string `gorm:"column:scope;size:20;not null"`

	Status string `gorm:"column:status;size:20;not null"`

	StartedAt time.Time  `gorm:"column:started_at;not null"`
	EndedAt   *time.Time `gorm:"column:ended_at"`
}

// TableName returns the database table name.
func (ValidationRecord) TableName() string {
	return "validation_record"
}
