package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tutorlab/tutor-platform/internal/api/metrics"
	"github.com/tutorlab/tutor-platform/internal/core/domain"
	"github.com/tutorlab/tutor-platform/internal/core/ports"
)

// TutorService orchestrates one conversation turn: debit the token, persist
// the user's turn, call the generation service, persist the answer. Any
// failure after the debit triggers exactly one compensating credit.
type TutorService struct {
	accounts    ports.AccountRepository
	ledger      ports.TokenLedger
	transcripts ports.TranscriptManager
	completer   ports.Completer
	reconciler  ports.CreditReconciler
	keepTurns   int
	log         zerolog.Logger
}

func NewTutorService(
	accounts ports.AccountRepository,
	ledger ports.TokenLedger,
	transcripts ports.TranscriptManager,
	completer ports.Completer,
	reconciler ports.CreditReconciler,
	keepTurns int,
	log zerolog.Logger,
) *TutorService {
	return &TutorService{
		accounts:    accounts,
		ledger:      ledger,
		transcripts: transcripts,
		completer:   completer,
		reconciler:  reconciler,
		keepTurns:   keepTurns,
		log:         log,
	}
}

// Ask runs the per-request state machine. Every branch is terminal:
//
//	balance check → TryDebit → append user turn → complete
//	    success → append assistant turn → done (net -1 token)
//	    failure → Credit(1) → error     (net  0 tokens)
//
// The user's turn is persisted before the remote call, so a crash mid-call
// still leaves the question on record.
func (s *TutorService) Ask(ctx context.Context, input ports.AskInput) (*ports.AskResult, error) {
	if input.Question == "" {
		return nil, fmt.Errorf("%w: question must not be empty", domain.ErrValidation)
	}
	if err := domain.ValidateGradeLevel(input.GradeLevel); err != nil {
		return nil, err
	}

	// Snapshot for prompt context and the fast-fail balance check. The
	// snapshot is never used as ground truth for a write.
	account, err := s.accounts.FindByUsername(ctx, input.Username)
	if err != nil {
		return nil, err
	}
	if account.Tokens < domain.TurnCost {
		metrics.TurnsTotal.WithLabelValues("insufficient_tokens").Inc()
		return nil, domain.ErrInsufficientTokens
	}

	balance, err := s.ledger.TryDebit(ctx, input.Username, domain.TurnCost)
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientTokens) {
			metrics.TurnsTotal.WithLabelValues("insufficient_tokens").Inc()
		}
		return nil, err
	}

	userTurn := domain.Turn{Role: domain.RoleUser, Content: input.Question}
	if err := s.transcripts.Append(ctx, input.Username, userTurn); err != nil {
		s.refund(ctx, input.Username)
		metrics.TurnsTotal.WithLabelValues("store_error").Inc()
		return nil, err
	}

	systemPrompt := BuildSystemPrompt(account.Preferences, account.Subjects, input.GradeLevel)
	turns := ContextTurns(append(account.Transcript, userTurn), s.keepTurns)

	start := time.Now()
	reply, err := s.completer.Complete(ctx, systemPrompt, turns)
	if err != nil {
		metrics.GenerationDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		if errors.Is(err, context.Canceled) {
			// The client walked away mid-call. The token stays spent and the
			// transcript keeps the user's half of the turn.
			s.log.Info().Str("username", input.Username).Msg("turn abandoned by client, token not refunded")
			return nil, fmt.Errorf("%w: %v", domain.ErrGeneration, err)
		}
		s.refund(ctx, input.Username)
		metrics.TurnsTotal.WithLabelValues("generation_failed").Inc()
		s.log.Warn().Err(err).Str("username", input.Username).Msg("generation failed, token refunded")
		return nil, fmt.Errorf("%w: %v", domain.ErrGeneration, err)
	}
	metrics.GenerationDuration.WithLabelValues("ok").Observe(time.Since(start).Seconds())

	assistantTurn := domain.Turn{Role: domain.RoleAssistant, Content: reply}
	if err := s.transcripts.Append(ctx, input.Username, assistantTurn); err != nil {
		// The answer was generated but cannot be recorded. Refund so the
		// user is never charged for a turn they cannot see.
		s.refund(ctx, input.Username)
		metrics.TurnsTotal.WithLabelValues("store_error").Inc()
		return nil, err
	}

	metrics.TurnsTotal.WithLabelValues("completed").Inc()
	s.log.Info().Str("username", input.Username).Int("balance", balance).Msg("turn completed")

	return &ports.AskResult{Reply: reply, TokensRemaining: balance}, nil
}

// History returns the full ordered transcript.
func (s *TutorService) History(ctx context.Context, username string) ([]domain.Turn, error) {
	return s.transcripts.Load(ctx, username)
}

// refund issues the single compensating credit paired with a TryDebit. A
// credit that itself fails to persist is counted, logged and queued for the
// reconciler; it is never silently dropped.
func (s *TutorService) refund(ctx context.Context, username string) {
	if _, err := s.ledger.Credit(ctx, username, domain.TurnCost); err != nil {
		metrics.UnreconciledCreditsTotal.Inc()
		s.log.Error().Err(err).
			Str("username", username).
			Int("amount", domain.TurnCost).
			Msg("compensating credit failed, queued for reconciliation")
		if s.reconciler != nil {
			s.reconciler.EnqueueCredit(username, domain.TurnCost)
		}
	}
}
