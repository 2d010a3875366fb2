package model

import "time"

// Batch types.
const (
	BatchTypeMetadata = "metadata"
	BatchTypeDataFile = "data file"
)

// Batch statuses.
const (
	BatchUploading = "Uploading"
	BatchUploaded  = "Uploaded"
	BatchLoaded    = "Loaded"
	BatchFailed    = "Failed"
	BatchRejected  = "Rejected"
)

type Batch struct {
	ID uint64 `gorm:"primaryKey"`

	SubmissionID uint64     `gorm:"column:submission_id;not null;index"`
	Submission   Submission `gorm:"foreignKey:SubmissionID;references:ID;constraint:OnDelete:CASCADE"`

	Type   string `gorm:"column:type;size:20;not null"`
	Status string `gorm:"column:status;size:20;not null"`

	// MetadataIntention mirrors the submission intention for metadata batches.
	MetadataIntention string `gorm:"column:metadata_intention;size:20"`

	FileCount int `gorm:"column:file_count;not null;default:0"`

	UploaderID uint64 `gorm:"column:uploader_id;not null"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName returns the database table name.
func (Batch) TableName() string {
	return "batch"
}
