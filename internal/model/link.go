package model

import (
	"time"
)

// LinkRecord maps a short code to a target URL. There is at most one
// row per code ever; the Active flag tracks whether the code is live.
// An inactive row is the code's membership in the reusable pool and
// gets revived in place when the code is reallocated.
type LinkRecord struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	Code         string    `gorm:"size:16;uniqueIndex;not null" json:"code"`
	TargetURL    string    `gorm:"type:text;not null" json:"target_url"`
	ClickCount   int64     `gorm:"not null;default:0" json:"click_count"`
	Active       bool      `gorm:"not null;default:true;index" json:"active"`
	NeverExpires bool      `gorm:"not null;default:false" json:"never_expires"`
	Monetize     bool      `gorm:"not null;default:false" json:"monetize"`
	CreatedAt    time.Time `json:"created_at"`
	LastAccessAt time.Time `gorm:"index;not null" json:"last_access_at"`
}

// TableName sets the table name.
func (LinkRecord) TableName() string {
	return "link_records"
}
