package model

import "time"

// Captcha is a short-lived arithmetic challenge. A row is consumed exactly
// once on verification regardless of whether the answer matched.
type Captcha struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Question  string    `gorm:"type:varchar(50);not null" json:"question"`
	Answer    string    `gorm:"type:varchar(10);not null" json:"-"`
	ExpiresAt time.Time `gorm:"index;not null" json:"expires_at"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName specifies the table name for Captcha model
func (Captcha) TableName() string {
	return "captchas"
}
