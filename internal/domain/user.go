package domain

import "time"

// DefaultImage is the avatar of users who never uploaded one.
const DefaultImage = "no_image.jpg"

// User is an operator account.
type User struct {
	ID           int64      `json:"id" db:"id"`
	Name         string     `json:"name" db:"name"`
	Username     string     `json:"username" db:"username"`
	PasswordHash string     `json:"-" db:"password"`
	Level        int        `json:"user_level" db:"user_level"`
	Image        string     `json:"image" db:"image"`
	Active       bool       `json:"status" db:"status"`
	LastLogin    *time.Time `json:"last_login" db:"last_login"`

	GroupName string `json:"group_name,omitempty" db:"-"`
}

// Group names a role level. Users reference groups by level.
type Group struct {
	ID     int64  `json:"id" db:"id"`
	Name   string `json:"group_name" db:"group_name"`
	Level  int    `json:"group_level" db:"group_level"`
	Active bool   `json:"group_status" db:"group_status"`
}
