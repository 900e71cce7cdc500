package service

import (
	"strings"
	"testing"

	"github.com/tutorlab/tutor-platform/internal/core/domain"
)

func TestBuildSystemPrompt(t *testing.T) {
	prefs := domain.Preferences{
		Style:      domain.StyleVisual,
		Pace:       domain.PaceSlow,
		Difficulty: domain.DifficultyIntermediate,
	}
	prompt := BuildSystemPrompt(prefs, []string{"Mathematics", "History"}, domain.GradeMiddleSchool)

	for _, want := range []string{
		"style: visual, pace: slow, difficulty: intermediate",
		"Grade Level: middle_school",
		"Mathematics, History",
		"For Mathematics, the syllabus covers:",
	} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, prompt)
		}
	}

	// History has no syllabus entry and must be skipped, not invented.
	if strings.Contains(prompt, "For History, the syllabus covers:") {
		t.Fatalf("unexpected syllabus line for History")
	}
}

func TestBuildSystemPrompt_DefaultGrade(t *testing.T) {
	prompt := BuildSystemPrompt(domain.DefaultPreferences(), nil, "")
	if !strings.Contains(prompt, "Grade Level: high_school") {
		t.Fatalf("expected default grade level, got:\n%s", prompt)
	}
}

func TestContextTurns(t *testing.T) {
	transcript := []domain.Turn{
		{Role: domain.RoleUser, Content: "q1"},
		{Role: domain.RoleAssistant, Content: "a1"},
		{Role: domain.RoleUser, Content: "q2"},
		{Role: domain.RoleAssistant, Content: "a2"},
		{Role: domain.RoleUser, Content: "q3"},
	}

	kept := ContextTurns(transcript, 2)
	if len(kept) != 2 || kept[0].Content != "a2" || kept[1].Content != "q3" {
		t.Fatalf("expected last two turns in order, got %+v", kept)
	}

	if got := ContextTurns(transcript, 0); len(got) != len(transcript) {
		t.Fatalf("keepLast=0 must keep everything, got %d turns", len(got))
	}
	if got := ContextTurns(transcript, 10); len(got) != len(transcript) {
		t.Fatalf("keepLast beyond length must keep everything, got %d turns", len(got))
	}
}
