package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/tutorlab/tutor-platform/internal/api/metrics"
	"github.com/tutorlab/tutor-platform/internal/core/ports"
)

// TokenLedger guards the token balance with atomic store-side operations.
// The check and the decrement happen in a single guarded update at the
// store, so concurrent requests from the same account can never drive the
// balance negative.
type TokenLedger struct {
	repo ports.AccountRepository
	log  zerolog.Logger
}

func NewTokenLedger(repo ports.AccountRepository, log zerolog.Logger) *TokenLedger {
	return &TokenLedger{repo: repo, log: log}
}

func (l *TokenLedger) TryDebit(ctx context.Context, username string, amount int) (int, error) {
	balance, err := l.repo.DebitTokens(ctx, username, amount)
	if err != nil {
		return 0, err
	}
	metrics.TokensDebitedTotal.Add(float64(amount))
	l.log.Debug().Str("username", username).Int("amount", amount).Int("balance", balance).Msg("tokens debited")
	return balance, nil
}

func (l *TokenLedger) Credit(ctx context.Context, username string, amount int) (int, error) {
	balance, err := l.repo.CreditTokens(ctx, username, amount)
	if err != nil {
		return 0, err
	}
	metrics.TokensCreditedTotal.Add(float64(amount))
	l.log.Debug().Str("username", username).Int("amount", amount).Int("balance", balance).Msg("tokens credited")
	return balance, nil
}
