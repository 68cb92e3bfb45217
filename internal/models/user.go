package models

import "time"

// User is a registered account. Accounts only exist when the postgres
// archive is configured; the relay itself works for anonymous and guest
// connections alike.
type User struct {
	ID           int       `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type GuestRequest struct {
	DisplayName string `json:"displayName"`
}

type TokenResponse struct {
	Token       string `json:"token"`
	UID         string `json:"uid"`
	DisplayName string `json:"displayName"`
}
