package model

import (
	"gorm.io/gorm"
	"time"
)

// Portal roles.
const (
	RoleSubmitter      = "Submitter"
	RoleOrgOwner       = "Organization Owner"
	RoleAdmin          = "Admin"
	RoleCurator        = "Data Curator"
	RoleFederalLead    = "Federal Lead"
	RoleDataCommonsPOC = "Data Commons POC"
	RoleFederalMonitor = "Federal Monitor"
)

type User struct {
	ID uint64 `gorm:"primaryKey"`

	UserName string `gorm:"column:user_name;type:varchar(50);not null;unique"`

	Password string `gorm:"column:pass_word;type:varchar(255);not null" json:"-"`

	Email string `gorm:"column:email;type:varchar(255);not null;unique"`

	Role string `gorm:"column:role;type:varchar(40);not null;default:'Submitter'"`

	OrgID uint64 `gorm:"column:org_id;index"`

	// DataCommons scopes commons-level roles (Data Commons POC, Curator).
	DataCommons string `gorm:"column:data_commons;type:varchar(64);not null;default:''"`

	// Studies scopes study-level roles (Federal Lead, Federal Monitor),
	// stored as a comma-separated list of study IDs.
	Studies string `gorm:"column:studies;type:varchar(1024);not null;default:''"`

	IsActive bool `gorm:"column:is_active;not null;default:false"`

	CreatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

// TableName returns the database table name.
func (User) TableName() string {
	return "user_db"
}
