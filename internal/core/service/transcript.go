package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/tutorlab/tutor-platform/internal/core/domain"
	"github.com/tutorlab/tutor-platform/internal/core/ports"
)

// TranscriptManager maintains the append-only conversation log. Appends go
// through an atomic store-side push, so turns from concurrent requests are
// interleaved in store arrival order and never lost or reordered.
type TranscriptManager struct {
	repo ports.AccountRepository
	log  zerolog.Logger
}

func NewTranscriptManager(repo ports.AccountRepository, log zerolog.Logger) *TranscriptManager {
	return &TranscriptManager{repo: repo, log: log}
}

// Append persists the turn before returning. There is no buffering across
// requests.
func (m *TranscriptManager) Append(ctx context.Context, username string, turn domain.Turn) error {
	if err := m.repo.AppendTurn(ctx, username, turn); err != nil {
		return err
	}
	m.log.Debug().Str("username", username).Str("role", string(turn.Role)).Msg("turn appended")
	return nil
}

func (m *TranscriptManager) Load(ctx context.Context, username string) ([]domain.Turn, error) {
	return m.repo.LoadTranscript(ctx, username)
}
