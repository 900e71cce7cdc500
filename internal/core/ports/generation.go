package ports

import (
	"context"

	"github.com/tutorlab/tutor-platform/internal/core/domain"
)

// Completer is the generation service boundary. Every error, transient or
// permanent, is treated the same by the orchestrator: refund the paired
// debit. No retry happens at this layer.
type Completer interface {
	Complete(ctx context.Context, systemPrompt string, turns []domain.Turn) (string, error)
}
