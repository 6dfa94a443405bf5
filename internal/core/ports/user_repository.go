package ports

import (
	"context"

	"github.com/quietsummit/travel-api/internal/core/domain"
)

// UserRepository persists registered travellers and hosts. Emails are stored
// normalized and are unique.
type UserRepository interface {
	// FindByEmail returns domain.ErrUserNotFound when no account matches.
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	// Create returns domain.ErrUserExists when the email is taken.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
}
