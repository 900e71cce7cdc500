package service

import (
	"fmt"
	"strings"

	"github.com/tutorlab/tutor-platform/internal/core/domain"
)

// defaultGradeLevel is applied when a request carries no grade level.
const defaultGradeLevel = domain.GradeHighSchool

// BuildSystemPrompt composes the tutor's system prompt from the student's
// preferences, selected subjects and the syllabus table. It is a pure
// function with no side effects.
func BuildSystemPrompt(prefs domain.Preferences, subjects []string, grade domain.GradeLevel) string {
	if grade == "" {
		grade = defaultGradeLevel
	}

	preferencesStr := fmt.Sprintf("style: %s, pace: %s, difficulty: %s", prefs.Style, prefs.Pace, prefs.Difficulty)

	var syllabus strings.Builder
	for _, subject := range subjects {
		if info, ok := domain.Syllabi[subject]; ok {
			fmt.Fprintf(&syllabus, "For %s, the syllabus covers: %s ", subject, info)
		}
	}

	var b strings.Builder
	b.WriteString("You are an AI tutor. Your responses should be tailored to the student's preferences and selected subjects.\n")
	fmt.Fprintf(&b, "Student's Grade Level: %s\n", grade)
	fmt.Fprintf(&b, "Student's Learning Preferences: %s\n", preferencesStr)
	fmt.Fprintf(&b, "Student's Selected Subjects: %s\n", strings.Join(subjects, ", "))
	fmt.Fprintf(&b, "Subject Syllabus Information: %s\n", syllabus.String())
	b.WriteString("Be helpful, patient, and provide clear explanations.")
	return b.String()
}

// ContextTurns applies the explicit truncation policy for model context:
// keep the last keepLast turns. keepLast <= 0 means no truncation. The
// stored transcript is never affected, only the slice sent to the model.
func ContextTurns(transcript []domain.Turn, keepLast int) []domain.Turn {
	if keepLast <= 0 || len(transcript) <= keepLast {
		return transcript
	}
	return transcript[len(transcript)-keepLast:]
}
