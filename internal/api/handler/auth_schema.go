package handler

import "github.com/quietsummit/travel-api/internal/core/domain"

type registerRequest struct {
	Name     string `json:"name"     validate:"required,min=2,max=80"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	IsHost   bool   `json:"isHost"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// sessionResponse mirrors the record the web client persists after login.
type sessionResponse struct {
	Token  string `json:"token"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Role   string `json:"role"`
	IsHost bool   `json:"isHost"`
}

type registerResponse struct {
	Success bool         `json:"success"`
	User    *domain.User `json:"user"`
}

type userResponse struct {
	Success bool          `json:"success"`
	User    domain.Claims `json:"user"`
}
