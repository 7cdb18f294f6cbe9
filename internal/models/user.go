package models

import "time"

type User struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// PublicUser is the author shape embedded in post responses: name and email
// only, never the password hash.
type PublicUser struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}
