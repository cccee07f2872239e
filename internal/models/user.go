package models

import "time"

// Role is the kind of account. JSON field name "type" is what the dashboard reads.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleStaff Role = "staff"
)

const UserStatusActive = "Active"

type User struct {
	ID             string    `json:"_id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	PasswordHash   string    `json:"-"` // не отдаём наружу
	Phone          string    `json:"phone,omitempty"`
	Department     string    `json:"department,omitempty"`
	Role           Role      `json:"type"`
	Status         string    `json:"status"`
	DateAdded      time.Time `json:"dateAdded"`
	TelegramChatID int64     `json:"telegramChatId,omitempty"`
}

// Public returns a copy without the password hash.
func (u User) Public() User {
	u.PasswordHash = ""
	return u
}

// UserPatch is a partial user update. Password is plain text and gets hashed by the service.
type UserPatch struct {
	Name           *string `json:"name,omitempty"`
	Email          *string `json:"email,omitempty"`
	Password       *string `json:"password,omitempty"`
	Phone          *string `json:"phone,omitempty"`
	Department     *string `json:"department,omitempty"`
	Role           *Role   `json:"type,omitempty"`
	Status         *string `json:"status,omitempty"`
	TelegramChatID *int64  `json:"telegramChatId,omitempty"`

	// set by the service after hashing Password
	PasswordHash *string `json:"-"`
}

func (p UserPatch) Apply(u *User) {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.PasswordHash != nil {
		u.PasswordHash = *p.PasswordHash
	}
	if p.Phone != nil {
		u.Phone = *p.Phone
	}
	if p.Department != nil {
		u.Department = *p.Department
	}
	if p.Role != nil {
		u.Role = *p.Role
	}
	if p.Status != nil {
		u.Status = *p.Status
	}
	if p.TelegramChatID != nil {
		u.TelegramChatID = *p.TelegramChatID
	}
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type CreateUserRequest struct {
	Name           string `json:"name" binding:"required"`
	Email          string `json:"email" binding:"required,email"`
	Password       string `json:"password" binding:"required"`
	Phone          string `json:"phone"`
	Department     string `json:"department"`
	Role           Role   `json:"type" binding:"required"`
	Status         string `json:"status"`
	TelegramChatID int64  `json:"telegramChatId"`
}

// Actor is the authenticated caller of a service operation.
type Actor struct {
	ID   string
	Name string
	Role Role
}
