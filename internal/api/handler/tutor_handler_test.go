package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/tutorlab/tutor-platform/internal/core/domain"
	"github.com/tutorlab/tutor-platform/internal/core/ports"
)

type stubTutorService struct {
	askFn     func(ctx context.Context, input ports.AskInput) (*ports.AskResult, error)
	historyFn func(ctx context.Context, username string) ([]domain.Turn, error)
}

func (s *stubTutorService) Ask(ctx context.Context, input ports.AskInput) (*ports.AskResult, error) {
	return s.askFn(ctx, input)
}

func (s *stubTutorService) History(ctx context.Context, username string) ([]domain.Turn, error) {
	return s.historyFn(ctx, username)
}

type stubAskGuard struct {
	seen    bool
	seenErr error
	marked  []string
}

func (g *stubAskGuard) Seen(_ context.Context, _, key string) (bool, error) {
	return g.seen, g.seenErr
}

func (g *stubAskGuard) Mark(_ context.Context, _, key string) error {
	g.marked = append(g.marked, key)
	return nil
}

func newAskContext(t *testing.T, body string, headers map[string]string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	c, rec := newTestContext(t, http.MethodPost, "/v1/tutor/ask", body)
	for k, v := range headers {
		c.Request().Header.Set(k, v)
	}
	c.Set("username", "alice")
	return c, rec
}

func TestTutorHandler_Ask_Success(t *testing.T) {
	stub := &stubTutorService{
		askFn: func(_ context.Context, input ports.AskInput) (*ports.AskResult, error) {
			if input.Username != "alice" {
				t.Fatalf("expected username from context, got %q", input.Username)
			}
			if input.Question != "What is gravity?" {
				t.Fatalf("unexpected question: %q", input.Question)
			}
			if input.GradeLevel != domain.GradeCollege {
				t.Fatalf("unexpected grade level: %q", input.GradeLevel)
			}
			return &ports.AskResult{Reply: "A force.", TokensRemaining: 999}, nil
		},
	}
	handler := NewTutorHandler(stub, nil)

	c, rec := newAskContext(t, `{"question":"What is gravity?","grade_level":"college"}`, nil)
	if err := handler.Ask(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp askResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Reply != "A force." || resp.TokensRemaining != 999 {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestTutorHandler_Ask_MissingQuestion(t *testing.T) {
	stub := &stubTutorService{
		askFn: func(_ context.Context, _ ports.AskInput) (*ports.AskResult, error) {
			t.Fatalf("service must not be called")
			return nil, nil
		},
	}
	handler := NewTutorHandler(stub, nil)

	c, rec := newAskContext(t, `{}`, nil)
	_ = handler.Ask(c)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestTutorHandler_Ask_ErrorsPassThrough(t *testing.T) {
	for _, sentinel := range []error{
		domain.ErrInsufficientTokens,
		domain.ErrGeneration,
		domain.ErrStoreUnavailable,
	} {
		stub := &stubTutorService{
			askFn: func(_ context.Context, _ ports.AskInput) (*ports.AskResult, error) {
				return nil, sentinel
			},
		}
		handler := NewTutorHandler(stub, nil)

		c, _ := newAskContext(t, `{"question":"q"}`, nil)
		err := handler.Ask(c)
		if !errors.Is(err, sentinel) {
			t.Fatalf("expected %v to reach the error handler, got %v", sentinel, err)
		}
	}
}

func TestTutorHandler_Ask_IdempotencyReplay(t *testing.T) {
	stub := &stubTutorService{
		askFn: func(_ context.Context, _ ports.AskInput) (*ports.AskResult, error) {
			t.Fatalf("replayed request must not reach the service")
			return nil, nil
		},
	}
	guard := &stubAskGuard{seen: true}
	handler := NewTutorHandler(stub, guard)

	c, _ := newAskContext(t, `{"question":"again?"}`, map[string]string{"Idempotency-Key": "abc"})
	err := handler.Ask(c)
	if !errors.Is(err, domain.ErrDuplicateRequest) {
		t.Fatalf("expected ErrDuplicateRequest, got %v", err)
	}
	if len(guard.marked) != 0 {
		t.Fatalf("replayed key must not be re-marked")
	}
}

func TestTutorHandler_Ask_IdempotencyFirstUse(t *testing.T) {
	stub := &stubTutorService{
		askFn: func(_ context.Context, _ ports.AskInput) (*ports.AskResult, error) {
			return &ports.AskResult{Reply: "ok", TokensRemaining: 5}, nil
		},
	}
	guard := &stubAskGuard{seen: false}
	handler := NewTutorHandler(stub, guard)

	c, rec := newAskContext(t, `{"question":"first"}`, map[string]string{"Idempotency-Key": "abc"})
	if err := handler.Ask(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(guard.marked) != 1 || guard.marked[0] != "abc" {
		t.Fatalf("expected key to be marked, got %v", guard.marked)
	}
}

func TestTutorHandler_Ask_GuardOutageProceeds(t *testing.T) {
	stub := &stubTutorService{
		askFn: func(_ context.Context, _ ports.AskInput) (*ports.AskResult, error) {
			return &ports.AskResult{Reply: "ok", TokensRemaining: 5}, nil
		},
	}
	guard := &stubAskGuard{seenErr: errors.New("redis down")}
	handler := NewTutorHandler(stub, guard)

	c, rec := newAskContext(t, `{"question":"q"}`, map[string]string{"Idempotency-Key": "abc"})
	if err := handler.Ask(c); err != nil {
		t.Fatalf("guard outage must not fail the request: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestTutorHandler_History(t *testing.T) {
	stub := &stubTutorService{
		historyFn: func(_ context.Context, username string) ([]domain.Turn, error) {
			if username != "alice" {
				t.Fatalf("unexpected username: %q", username)
			}
			return []domain.Turn{
				{Role: domain.RoleUser, Content: "q1"},
				{Role: domain.RoleAssistant, Content: "a1"},
			}, nil
		},
	}
	handler := NewTutorHandler(stub, nil)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/tutor/history", strings.NewReader(""))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("username", "alice")

	if err := handler.History(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp historyResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(resp.Turns) != 2 || resp.Turns[0].Role != "user" || resp.Turns[1].Content != "a1" {
		t.Fatalf("unexpected history payload: %+v", resp)
	}
}

func TestTutorHandler_History_Empty(t *testing.T) {
	stub := &stubTutorService{
		historyFn: func(_ context.Context, _ string) ([]domain.Turn, error) {
			return nil, nil
		},
	}
	handler := NewTutorHandler(stub, nil)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/tutor/history", strings.NewReader(""))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("username", "alice")

	if err := handler.History(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"turns":[]`) {
		t.Fatalf("empty history must serialize as an empty array: %s", rec.Body.String())
	}
}
