package ports

import (
	"context"

	"github.com/quietsummit/travel-api/internal/core/domain"
)

// RegisterInput carries the sign-up form fields.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	IsHost   bool
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
	Lookup(ctx context.Context, email string) (*domain.User, error)
}
