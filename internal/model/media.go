package model

import "time"

// Media represents a stored, optimized image file referenced by posts.
// FilePath is unique so repeated references to one file dedup onto a
// single row.
type Media struct {
	BaseModel
	FileName   string    `gorm:"type:varchar(255);not null" json:"file_name"`
	FilePath   string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"file_path"`
	FileType   string    `gorm:"type:varchar(100);not null" json:"file_type"`
	UploadedBy int       `gorm:"not null;index" json:"uploaded_by"`
	UploadedAt time.Time `json:"uploaded_at"`

	Posts []Post `gorm:"many2many:post_media" json:"-"`
}

// TableName specifies the table name for Media model
func (Media) TableName() string {
	return "media"
}
