package ports

import (
	"context"

	"github.com/tutorlab/tutor-platform/internal/core/domain"
)

// AccountRepository defines persistence operations on account documents.
//
// DebitTokens, CreditTokens and AppendTurn must be implemented as atomic,
// single-document operations at the store. Callers never read a balance or
// transcript into memory and write it back.
type AccountRepository interface {
	// Create inserts a new account. Returns domain.ErrUserExists when the
	// username is already taken.
	Create(ctx context.Context, account *domain.Account) error

	FindByUsername(ctx context.Context, username string) (*domain.Account, error)

	// SetPreferences and SetSubjects update only their own field; the rest
	// of the document is untouched.
	SetPreferences(ctx context.Context, username string, prefs domain.Preferences) error
	SetSubjects(ctx context.Context, username string, subjects []string) error

	// DebitTokens atomically decrements the balance by amount, guarded so
	// the balance never goes negative. Returns the new balance, or
	// domain.ErrInsufficientTokens when the guard rejects the update.
	DebitTokens(ctx context.Context, username string, amount int) (int, error)

	// CreditTokens atomically increments the balance by amount and returns
	// the new balance.
	CreditTokens(ctx context.Context, username string, amount int) (int, error)

	// AppendTurn atomically appends a turn to the stored transcript.
	AppendTurn(ctx context.Context, username string, turn domain.Turn) error

	// LoadTranscript returns the full ordered transcript.
	LoadTranscript(ctx context.Context, username string) ([]domain.Turn, error)
}
