package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tutorlab/tutor-platform/internal/api/metrics"
	"github.com/tutorlab/tutor-platform/internal/core/domain"
	"github.com/tutorlab/tutor-platform/internal/core/ports"
)

// AskGuard is the idempotency store consulted when a request carries an
// Idempotency-Key header.
type AskGuard interface {
	Seen(ctx context.Context, username, key string) (bool, error)
	Mark(ctx context.Context, username, key string) error
}

// TutorHandler handles the chat endpoints.
type TutorHandler struct {
	tutor ports.TutorService
	guard AskGuard
}

func NewTutorHandler(tutor ports.TutorService, guard AskGuard) *TutorHandler {
	return &TutorHandler{tutor: tutor, guard: guard}
}

type askRequest struct {
	Question   string `json:"question"    validate:"required"`
	GradeLevel string `json:"grade_level" validate:"omitempty,oneof=elementary middle_school high_school college"`
}

type askResponse struct {
	Reply           string `json:"reply"`
	TokensRemaining int    `json:"tokens_remaining"`
}

type turnResponse struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type historyResponse struct {
	Turns []turnResponse `json:"turns"`
}

// Ask handles POST /v1/tutor/ask — one metered tutoring turn.
//
// @Summary      Ask the tutor a question
// @Tags         tutor
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key  header    string      false  "Key to reject accidental replays"
// @Param        body             body      askRequest  true   "Question"
// @Success      200              {object}  askResponse
// @Failure      400              {object}  errorResponse
// @Failure      401              {object}  errorResponse
// @Failure      402              {object}  errorResponse
// @Failure      409              {object}  errorResponse
// @Failure      502              {object}  errorResponse
// @Router       /v1/tutor/ask [post]
func (h *TutorHandler) Ask(c echo.Context) error {
	username, err := ctxUsername(c)
	if err != nil {
		return err
	}

	var req askRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	if key := c.Request().Header.Get("Idempotency-Key"); key != "" && h.guard != nil {
		if err := h.checkIdempotency(c.Request().Context(), username, key); err != nil {
			return err
		}
	}

	result, err := h.tutor.Ask(c.Request().Context(), ports.AskInput{
		Username:   username,
		Question:   req.Question,
		GradeLevel: domain.GradeLevel(req.GradeLevel),
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, askResponse{
		Reply:           result.Reply,
		TokensRemaining: result.TokensRemaining,
	})
}

// checkIdempotency rejects a replayed key before any token is debited. A
// guard outage is logged by the middleware chain and the request proceeds:
// metering correctness does not depend on the guard.
func (h *TutorHandler) checkIdempotency(ctx context.Context, username, key string) error {
	seen, err := h.guard.Seen(ctx, username, key)
	if err != nil {
		return nil
	}
	if seen {
		metrics.AskDedupTotal.WithLabelValues("hit").Inc()
		return domain.ErrDuplicateRequest
	}
	metrics.AskDedupTotal.WithLabelValues("miss").Inc()
	_ = h.guard.Mark(ctx, username, key)
	return nil
}

// History handles GET /v1/tutor/history — the full conversation transcript.
//
// @Summary      Get the conversation history
// @Tags         tutor
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  historyResponse
// @Failure      401  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/tutor/history [get]
func (h *TutorHandler) History(c echo.Context) error {
	username, err := ctxUsername(c)
	if err != nil {
		return err
	}

	turns, err := h.tutor.History(c.Request().Context(), username)
	if err != nil {
		return err
	}

	resp := historyResponse{Turns: make([]turnResponse, 0, len(turns))}
	for _, t := range turns {
		resp.Turns = append(resp.Turns, turnResponse{Role: string(t.Role), Content: t.Content})
	}
	return c.JSON(http.StatusOK, resp)
}
