package domain

import "time"

type User struct {
	ID        string
	Username  string
	Email     string
	IsAdmin   bool
	IsActive  bool
	CreatedAt time.Time
}
