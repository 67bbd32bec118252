package models

type User struct {
	BaseModel
	Name         string   `gorm:"not null" json:"name"`
	Email        string   `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string   `gorm:"not null" json:"-"`
	Phone        string   `json:"phone"`
	Role         UserRole `gorm:"type:varchar(16);default:'student'" json:"role"`
	IsActive     bool     `gorm:"default:true" json:"isActive"`
}
