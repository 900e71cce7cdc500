package ports

import (
	"context"

	"github.com/tutorlab/tutor-platform/internal/core/domain"
)

// RegisterInput carries all data needed to create a new account.
type RegisterInput struct {
	Username  string
	Password  string
	FirstName string
	LastName  string
	Email     string
}

type AccountService interface {
	// Register creates a new account with the initial token balance and
	// default preferences. No side effects on failure.
	Register(ctx context.Context, input RegisterInput) (*domain.Account, error)

	// Authenticate verifies the credentials and returns a signed session
	// token plus the account snapshot.
	Authenticate(ctx context.Context, username, password string) (string, *domain.Account, error)

	GetAccount(ctx context.Context, username string) (*domain.Account, error)

	UpdatePreferences(ctx context.Context, username string, prefs domain.Preferences) error
	UpdateSubjects(ctx context.Context, username string, subjects []string) error
}
