package model

// User roles
const (
	RoleUser   = "user"
	RoleEditor = "editor"
	RoleAdmin  = "admin"
)

// User represents a registered account. New accounts start inactive and
// cannot authenticate until an admin activates them.
type User struct {
	BaseModel
	Username        string `gorm:"type:varchar(50);uniqueIndex;not null" json:"username"`
	Email           string `gorm:"type:varchar(100);uniqueIndex;not null" json:"email"`
	PasswordHash    string `gorm:"type:varchar(255);not null" json:"-"`
	Role            string `gorm:"type:varchar(32);not null;default:'user'" json:"role"`
	Active          bool   `gorm:"not null;default:false" json:"active"`
	CanUploadImages bool   `gorm:"not null;default:false" json:"can_upload_images"`

	Posts []Post `gorm:"foreignKey:AuthorID" json:"-"`
}

// TableName specifies the table name for User model
func (User) TableName() string {
	return "users"
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
