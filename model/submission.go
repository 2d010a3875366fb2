package model

import (
	"time"
)

// Submission statuses.
const (
	SubmissionNew        = "New"
	SubmissionInProgress = "In Progress"
	SubmissionSubmitted  = "Submitted"
	SubmissionInReview   = "In Review"
	SubmissionReleased   = "Released"
	SubmissionCompleted  = "Completed"
	SubmissionArchived   = "Archived"
	SubmissionCanceled   = "Canceled"
	SubmissionRejected   = "Rejected"
	SubmissionWithdrawn  = "Withdrawn"
	SubmissionDeleted    = "Deleted"
)

// Submission intentions.
const (
	IntentionNew    = "New"
	IntentionUpdate = "Update"
	IntentionDelete = "Delete"
)

// Submission data types.
const (
	DataTypeMetadataOnly     = "Metadata Only"
	DataTypeMetadataAndFiles = "Metadata and Data Files"
)

// Validation status values. Empty string means the field was never set.
const (
	ValidationNA         = "NA"
	ValidationNew        = "New"
	ValidationValidating = "Validating"
	ValidationPassed     = "Passed"
	ValidationError      = "Error"
	ValidationWarning    = "Warning"
)

type Submission struct {
	ID uint64 `gorm:"primaryKey"`

	Name string `gorm:"column:name;size:255;not null"`

	Status    string `gorm:"column:status;size:20;not null;index"`
	Intention string `gorm:"column:intention;size:20;not null"`
	DataType  string `gorm:"column:data_type;size:40;not null"`

	StudyID     string `gorm:"column:study_id;size:64;not null;index"`
	DataCommons string `gorm:"column:data_commons;size:64;not null"`

	OrgID   uint64 `gorm:"column:org_id;not null;index"`
	OrgName string `gorm:"column:org_name;size:255;not null"`

	SubmitterID uint64 `gorm:"column:submitter_id;not null;index"`

	MetadataValidationStatus string `gorm:"column:metadata_validation_status;size:20;not null;default:''"`
	FileValidationStatus     string `gorm:"column:file_validation_status;size:20;not null;default:''"`
	CrossSubmissionStatus    string `gorm:"column:cross_submission_status;size:20;not null;default:''"`

	FileErrors   string `gorm:"column:file_errors;type:text"`
	FileWarnings string `gorm:"column:file_warnings;type:text"`

	ValidationStarted *time.Time `gorm:"column:validation_started"`
	ValidationEnded   *time.Time `gorm:"column:validation_ended"`

	InactiveReminder      bool `gorm:"column:inactive_reminder;not null;default:false"`
	FinalInactiveReminder bool `gorm:"column:final_inactive_reminder;not null;default:false"`

	DeletingData bool `gorm:"column:deleting_data;not null;default:false"`
	Archived     bool `gorm:"column:archived;not null;default:false"`

	BucketName string `gorm:"column:bucket_name;size:255;not null"`
	RootPath   string `gorm:"column:root_path;size:255;not null"`

	AccessedAt time.Time `gorm:"column:accessed_at;not null;index"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TableName returns the database table name.
func (Submission) TableName() string {
	return "submission"
}
