package model

// Contact represents a contact form submission. Rows are written once and
// never mutated.
type Contact struct {
	BaseModel
	Name    string `gorm:"type:varchar(100);not null" json:"name"`
	Email   string `gorm:"type:varchar(100);not null" json:"email"`
	Message string `gorm:"type:text;not null" json:"message"`
}

// TableName specifies the table name for Contact model
func (Contact) TableName() string {
	return "contacts"
}
