package model

import "github.com/udid-foundation/udid-chain/internal/constant"

type User struct {
	BaseModel
	Email        string            `gorm:"unique;not null;type:text" json:"email" form:"email" binding:"required"`
	PasswordHash string            `gorm:"type:text;not null" json:"-"`
	FirstName    string            `gorm:"type:varchar(30);not null;" json:"firstName" form:"firstName" binding:"required"`
	LastName     string            `gorm:"type:varchar(30);not null;" json:"lastName" form:"lastName" binding:"required"`
	Role         constant.UserRole `gorm:"type:varchar(20);not null;default:'PWD_USER'" json:"role"`
}

func (u User) TableName() string {
	return "users"
}

func (u User) FullName() string {
	return u.FirstName + " " + u.LastName
}
