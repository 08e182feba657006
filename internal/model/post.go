package model

import "time"

// Post statuses
const (
	PostStatusDraft     = "draft"
	PostStatusPublished = "published"
)

// Post represents a blog post. Title and slug are unique; the slug is
// re-derived whenever the title changes.
type Post struct {
	BaseModel
	Title       string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"title"`
	Slug        string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"slug"`
	Content     string     `gorm:"type:text;not null" json:"content"`
	AuthorID    int        `gorm:"not null;index" json:"author_id"`
	Status      string     `gorm:"type:varchar(20);not null;default:'draft'" json:"status"`
	PublishedAt *time.Time `json:"published_at"`

	Author     *User      `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Categories []Category `gorm:"many2many:post_categories" json:"categories"`
	Media      []Media    `gorm:"many2many:post_media" json:"media"`
}

// TableName specifies the table name for Post model
func (Post) TableName() string {
	return "posts"
}
