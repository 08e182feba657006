package model

// Comment moderation statuses
const (
	CommentStatusPending  = "pending"
	CommentStatusApproved = "approved"
	CommentStatusRejected = "rejected"
)

// Comment represents a user comment on a post. Comments always enter in
// pending status; only admins transition them to approved or rejected.
type Comment struct {
	BaseModel
	Content string `gorm:"type:text;not null" json:"content"`
	Status  string `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	UserID  int    `gorm:"not null;index" json:"user_id"`
	PostID  int    `gorm:"not null;index" json:"post_id"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Post *Post `gorm:"foreignKey:PostID" json:"-"`
}

// TableName specifies the table name for Comment model
func (Comment) TableName() string {
	return "comments"
}
