package model

import "time"

type Organization struct {
	ID uint64 `gorm:"primaryKey"`

	Name string `gorm:"column:name;size:255;not null;unique"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName returns the database table name.
func (Organization) TableName() string {
	return "organization"
}
