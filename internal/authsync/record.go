package authsync

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Durable storage keys shared with the login flow.
const (
	SessionKey  = "quietsummit_user"
	RedirectKey = "redirectAfterLogin"
)

var (
	ErrInvalidToken  = errors.New("authsync: token is missing, malformed or expired")
	ErrInvalidRecord = errors.New("authsync: session record is not valid JSON")
)

// Record is the session persisted under SessionKey. It mirrors the body
// returned by POST /api/auth/login.
type Record struct {
	Token  string `json:"token"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Role   string `json:"role"`
	IsHost bool   `json:"isHost"`
}

// User is the identity exposed to callers once a session is authenticated.
type User struct {
	Email  string `json:"email"`
	Name   string `json:"name"`
	Role   string `json:"role"`
	IsHost bool   `json:"isHost"`
}

func (r Record) User() *User {
	return &User{Email: r.Email, Name: r.Name, Role: r.Role, IsHost: r.IsHost}
}

func decodeRecord(raw string) (Record, error) {
	var rec Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	return rec, nil
}

func encodeRecord(rec Record) (string, error) {
	b, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("encode session record: %w", err)
	}
	return string(b), nil
}
