package ports

import (
	"context"

	"github.com/tutorlab/tutor-platform/internal/core/domain"
)

// TokenLedger enforces the metering invariant: a successful turn costs
// exactly one token, a failed turn costs zero.
type TokenLedger interface {
	// TryDebit atomically checks and decrements the balance at the store.
	// Returns the new balance, or domain.ErrInsufficientTokens.
	TryDebit(ctx context.Context, username string, amount int) (int, error)

	// Credit undoes a TryDebit whose paired remote call failed. This is a
	// compensating action, not a top-up API.
	Credit(ctx context.Context, username string, amount int) (int, error)
}

// TranscriptManager maintains the append-only per-account conversation log.
type TranscriptManager interface {
	// Append durably persists the turn before returning success.
	Append(ctx context.Context, username string, turn domain.Turn) error

	// Load returns the full ordered transcript.
	Load(ctx context.Context, username string) ([]domain.Turn, error)
}

// CreditReconciler receives compensating credits that could not be persisted
// so they are retried out of band instead of silently lost.
type CreditReconciler interface {
	EnqueueCredit(username string, amount int)
}

// AskInput is one tutoring question from an authenticated user.
type AskInput struct {
	Username   string
	Question   string
	GradeLevel domain.GradeLevel
}

// AskResult is the tutor's answer plus the balance after the turn.
type AskResult struct {
	Reply           string
	TokensRemaining int
}

// TutorService sequences debit, transcript appends, the generation call and
// the compensating refund for one conversation turn.
type TutorService interface {
	Ask(ctx context.Context, input AskInput) (*AskResult, error)
	History(ctx context.Context, username string) ([]domain.Turn, error)
}
