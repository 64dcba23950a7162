package models

import (
	"strings"
	"time"
)

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleClient  Role = "client"
)

type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	CompanyID    uint      `gorm:"not null;index" json:"company_id"`
	Email        string    `gorm:"not null;uniqueIndex" json:"email"`
	Firstname    string    `json:"firstname"`
	Lastname     string    `json:"lastname"`
	Role         Role      `gorm:"type:varchar(20);not null;default:'client'" json:"role"`
	PasswordHash string    `gorm:"not null" json:"-"`
	JTI          string    `gorm:"column:jti;type:varchar(64)" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (u *User) FullName() string {
	if u == nil {
		return "N/A"
	}
	return strings.TrimSpace(u.Firstname + " " + u.Lastname)
}
