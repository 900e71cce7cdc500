package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tutorlab/tutor-platform/internal/core/domain"
	"github.com/tutorlab/tutor-platform/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type stubCompleter struct {
	mu           sync.Mutex
	reply        string
	err          error
	calls        int
	lastPrompt   string
	lastTurns    []domain.Turn
	lastTurnText string
}

func (c *stubCompleter) Complete(_ context.Context, systemPrompt string, turns []domain.Turn) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	c.lastPrompt = systemPrompt
	c.lastTurns = append([]domain.Turn(nil), turns...)
	if len(turns) > 0 {
		c.lastTurnText = turns[len(turns)-1].Content
	}
	if c.err != nil {
		return "", c.err
	}
	return c.reply, nil
}

type stubReconciler struct {
	mu      sync.Mutex
	credits []string
}

func (r *stubReconciler) EnqueueCredit(username string, amount int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.credits = append(r.credits, username)
}

func newTutorFixture(completer *stubCompleter) (*TutorService, *stubAccountRepo, *stubReconciler) {
	repo := newStubAccountRepo()
	reconciler := &stubReconciler{}
	log := zerolog.Nop()
	tutor := NewTutorService(
		repo,
		NewTokenLedger(repo, log),
		NewTranscriptManager(repo, log),
		completer,
		reconciler,
		0,
		log,
	)
	return tutor, repo, reconciler
}

func seedAccount(t *testing.T, repo *stubAccountRepo, tokens int) {
	t.Helper()
	now := time.Now().UTC()
	err := repo.Create(context.Background(), &domain.Account{
		Username:    "alice",
		FirstName:   "Alice",
		LastName:    "Smith",
		Email:       "alice@example.com",
		Tokens:      tokens,
		Preferences: domain.DefaultPreferences(),
		Subjects:    []string{"Mathematics"},
		Transcript:  []domain.Turn{},
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		t.Fatalf("seed account: %v", err)
	}
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestTutorService_Ask_Success(t *testing.T) {
	completer := &stubCompleter{reply: "The derivative of x^2 is 2x."}
	tutor, repo, _ := newTutorFixture(completer)
	seedAccount(t, repo, 1000)

	result, err := tutor.Ask(context.Background(), ports.AskInput{
		Username: "alice",
		Question: "What is the derivative of x^2?",
	})
	if err != nil {
		t.Fatalf("Ask returned error: %v", err)
	}
	if result.Reply != completer.reply {
		t.Fatalf("unexpected reply: %q", result.Reply)
	}
	if result.TokensRemaining != 999 {
		t.Fatalf("expected 999 tokens remaining, got %d", result.TokensRemaining)
	}
	if repo.accounts["alice"].Tokens != 999 {
		t.Fatalf("expected stored balance 999, got %d", repo.accounts["alice"].Tokens)
	}

	transcript := repo.accounts["alice"].Transcript
	if len(transcript) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(transcript))
	}
	if transcript[0].Role != domain.RoleUser || transcript[1].Role != domain.RoleAssistant {
		t.Fatalf("unexpected turn order: %+v", transcript)
	}
}

func TestTutorService_Ask_PromptContext(t *testing.T) {
	completer := &stubCompleter{reply: "ok"}
	tutor, repo, _ := newTutorFixture(completer)
	seedAccount(t, repo, 10)

	_, err := tutor.Ask(context.Background(), ports.AskInput{
		Username:   "alice",
		Question:   "Explain limits.",
		GradeLevel: domain.GradeCollege,
	})
	if err != nil {
		t.Fatalf("Ask returned error: %v", err)
	}

	if !strings.Contains(completer.lastPrompt, "style: interactive") {
		t.Fatalf("prompt missing preferences: %q", completer.lastPrompt)
	}
	if !strings.Contains(completer.lastPrompt, "Mathematics") {
		t.Fatalf("prompt missing subject: %q", completer.lastPrompt)
	}
	if !strings.Contains(completer.lastPrompt, "college") {
		t.Fatalf("prompt missing grade level: %q", completer.lastPrompt)
	}
	if completer.lastTurnText != "Explain limits." {
		t.Fatalf("question must be the final turn, got %q", completer.lastTurnText)
	}
}

func TestTutorService_Ask_GenerationFailure(t *testing.T) {
	completer := &stubCompleter{err: errors.New("upstream 500")}
	tutor, repo, reconciler := newTutorFixture(completer)
	seedAccount(t, repo, 1000)

	_, err := tutor.Ask(context.Background(), ports.AskInput{
		Username: "alice",
		Question: "Why is the sky blue?",
	})
	if !errors.Is(err, domain.ErrGeneration) {
		t.Fatalf("expected ErrGeneration, got %v", err)
	}

	// The debit was refunded, the user's turn survives.
	if repo.accounts["alice"].Tokens != 1000 {
		t.Fatalf("expected balance unchanged at 1000, got %d", repo.accounts["alice"].Tokens)
	}
	transcript := repo.accounts["alice"].Transcript
	if len(transcript) != 1 || transcript[0].Role != domain.RoleUser {
		t.Fatalf("expected only the user turn, got %+v", transcript)
	}
	if len(reconciler.credits) != 0 {
		t.Fatalf("successful credit must not reach the reconciler")
	}
}

func TestTutorService_Ask_ZeroBalance(t *testing.T) {
	completer := &stubCompleter{reply: "never"}
	tutor, repo, _ := newTutorFixture(completer)
	seedAccount(t, repo, 0)

	_, err := tutor.Ask(context.Background(), ports.AskInput{
		Username: "alice",
		Question: "One more question?",
	})
	if !errors.Is(err, domain.ErrInsufficientTokens) {
		t.Fatalf("expected ErrInsufficientTokens, got %v", err)
	}

	// Rejected before any transcript mutation and before the remote call.
	if completer.calls != 0 {
		t.Fatalf("generation service must not be called")
	}
	if len(repo.accounts["alice"].Transcript) != 0 {
		t.Fatalf("transcript must stay empty")
	}
}

func TestTutorService_Ask_EmptyQuestion(t *testing.T) {
	completer := &stubCompleter{}
	tutor, repo, _ := newTutorFixture(completer)
	seedAccount(t, repo, 10)

	_, err := tutor.Ask(context.Background(), ports.AskInput{Username: "alice"})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

// Register alice, ask with success, ask again with failure: 1000 → 999 → 999,
// transcript 0 → 2 → 3.
func TestTutorService_Ask_SuccessThenFailure(t *testing.T) {
	completer := &stubCompleter{reply: "Photosynthesis converts light into energy."}
	tutor, repo, _ := newTutorFixture(completer)
	seedAccount(t, repo, 1000)

	if _, err := tutor.Ask(context.Background(), ports.AskInput{
		Username: "alice",
		Question: "What is photosynthesis?",
	}); err != nil {
		t.Fatalf("first ask failed: %v", err)
	}
	if repo.accounts["alice"].Tokens != 999 || len(repo.accounts["alice"].Transcript) != 2 {
		t.Fatalf("after success: tokens=%d transcript=%d",
			repo.accounts["alice"].Tokens, len(repo.accounts["alice"].Transcript))
	}

	completer.err = errors.New("model overloaded")
	if _, err := tutor.Ask(context.Background(), ports.AskInput{
		Username: "alice",
		Question: "And respiration?",
	}); !errors.Is(err, domain.ErrGeneration) {
		t.Fatalf("expected ErrGeneration, got %v", err)
	}
	if repo.accounts["alice"].Tokens != 999 || len(repo.accounts["alice"].Transcript) != 3 {
		t.Fatalf("after failure: tokens=%d transcript=%d",
			repo.accounts["alice"].Tokens, len(repo.accounts["alice"].Transcript))
	}
}

func TestTutorService_Ask_CreditFailureIsQueued(t *testing.T) {
	completer := &stubCompleter{err: errors.New("upstream down")}
	tutor, repo, reconciler := newTutorFixture(completer)
	seedAccount(t, repo, 1000)
	repo.creditErr = domain.ErrStoreUnavailable

	_, err := tutor.Ask(context.Background(), ports.AskInput{
		Username: "alice",
		Question: "Will this refund?",
	})
	if !errors.Is(err, domain.ErrGeneration) {
		t.Fatalf("expected ErrGeneration, got %v", err)
	}

	// The failed compensating credit must be handed to the reconciler, not
	// silently dropped.
	if len(reconciler.credits) != 1 || reconciler.credits[0] != "alice" {
		t.Fatalf("expected one queued credit for alice, got %v", reconciler.credits)
	}
}

func TestTutorService_Ask_UserAppendFailureRefunds(t *testing.T) {
	completer := &stubCompleter{reply: "unused"}
	tutor, repo, _ := newTutorFixture(completer)
	seedAccount(t, repo, 1000)
	repo.appendErr = domain.ErrStoreUnavailable

	_, err := tutor.Ask(context.Background(), ports.AskInput{
		Username: "alice",
		Question: "Does this charge me?",
	})
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
	if completer.calls != 0 {
		t.Fatalf("generation service must not be called after a failed append")
	}
	if repo.accounts["alice"].Tokens != 1000 {
		t.Fatalf("expected refund back to 1000, got %d", repo.accounts["alice"].Tokens)
	}
}

func TestTutorService_History(t *testing.T) {
	completer := &stubCompleter{reply: "42"}
	tutor, repo, _ := newTutorFixture(completer)
	seedAccount(t, repo, 5)

	if _, err := tutor.Ask(context.Background(), ports.AskInput{
		Username: "alice",
		Question: "The answer to everything?",
	}); err != nil {
		t.Fatalf("ask failed: %v", err)
	}

	turns, err := tutor.History(context.Background(), "alice")
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if len(turns) != 2 || turns[0].Content != "The answer to everything?" || turns[1].Content != "42" {
		t.Fatalf("unexpected history: %+v", turns)
	}
}
