package model

import "time"

// Per-file upload statuses.
const (
	FileNew      = "New"
	FileUploaded = "Uploaded"
	FileFailed   = "Failed"
)

type BatchFile struct {
	ID uint64 `gorm:"primaryKey"`

	BatchID uint64 `gorm:"column:batch_id;not null;index"`
	Batch   Batch  `gorm:"foreignKey:BatchID;references:ID;constraint:OnDelete:CASCADE"`

	FileName   string `gorm:"column:file_name;size:255;not null"`
	ObjectName string `gorm:"column:object_name;size:512;not null;default:''"`
	Status     string `gorm:"column:status;size:20;not null"`
	Size       int64  `gorm:"column:size;not null;default:0"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName returns the database table name.
func (BatchFile) TableName() string {
	return "batch_file"
}
