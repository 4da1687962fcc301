package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	RoleClient = "client"
	RoleAdmin  = "admin"
)

// User описывает пользователя магазина.
type User struct {
	UID       string     `json:"uid"`
	Email     string     `json:"email"`
	Name      string     `json:"name"`
	Role      string     `json:"role,omitempty"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
	LastLogin *time.Time `json:"lastLogin,omitempty"`
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// Session: запись активной сессии пользователя.
type Session struct {
	UserID       string    `json:"userId"`
	Email        string    `json:"email"`
	LoginDate    time.Time `json:"loginDate"`
	LastActivity time.Time `json:"lastActivity"`
}

// Order: заказ в том виде, в котором его показывает админка.
type Order struct {
	ID        string          `json:"id"`
	UserName  string          `json:"userName,omitempty"`
	UserEmail string          `json:"userEmail,omitempty"`
	Total     decimal.Decimal `json:"total"`
	Status    string          `json:"status"`
	CreatedAt *time.Time      `json:"createdAt,omitempty"`
}
