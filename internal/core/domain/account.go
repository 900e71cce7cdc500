package domain

import (
	"fmt"
	"time"
)

const (
	// InitialTokens is the metered allowance granted to every new account.
	InitialTokens = 1000
	// TurnCost is the number of tokens consumed by one tutoring turn.
	TurnCost = 1
	// MaxSubjects caps how many subjects an account may select.
	MaxSubjects = 5
)

// LearningStyle represents how a student prefers material to be presented.
type LearningStyle string

const (
	StyleInteractive    LearningStyle = "interactive"
	StyleVisual         LearningStyle = "visual"
	StyleAuditory       LearningStyle = "auditory"
	StyleReadingWriting LearningStyle = "reading_writing"
	StyleKinesthetic    LearningStyle = "kinesthetic"
)

// LearningPace represents the preferred speed of instruction.
type LearningPace string

const (
	PaceSlow     LearningPace = "slow"
	PaceModerate LearningPace = "moderate"
	PaceFast     LearningPace = "fast"
)

// Difficulty represents the preferred level of instruction.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// GradeLevel is the student's school level, carried per-request rather than
// stored on the account.
type GradeLevel string

const (
	GradeElementary   GradeLevel = "elementary"
	GradeMiddleSchool GradeLevel = "middle_school"
	GradeHighSchool   GradeLevel = "high_school"
	GradeCollege      GradeLevel = "college"
)

var validStyles = map[LearningStyle]struct{}{
	StyleInteractive:    {},
	StyleVisual:         {},
	StyleAuditory:       {},
	StyleReadingWriting: {},
	StyleKinesthetic:    {},
}

var validPaces = map[LearningPace]struct{}{
	PaceSlow:     {},
	PaceModerate: {},
	PaceFast:     {},
}

var validDifficulties = map[Difficulty]struct{}{
	DifficultyBeginner:     {},
	DifficultyIntermediate: {},
	DifficultyAdvanced:     {},
}

// SubjectCatalog is the fixed set of subjects an account may select from.
var SubjectCatalog = []string{
	"Mathematics", "Physics", "Chemistry", "Biology", "Computer Science",
	"History", "Geography", "Literature", "Economics", "Art",
}

var subjectSet = func() map[string]struct{} {
	s := make(map[string]struct{}, len(SubjectCatalog))
	for _, name := range SubjectCatalog {
		s[name] = struct{}{}
	}
	return s
}()

// Syllabi maps a subject to a short syllabus description injected into the
// tutor's system prompt. Subjects without an entry are simply skipped.
var Syllabi = map[string]string{
	"Mathematics":      "Topics include Algebra, Geometry, Calculus basics, and Statistics.",
	"Physics":          "Covers Mechanics, Thermodynamics, Electromagnetism, and Optics.",
	"Computer Science": "Includes Programming fundamentals, Data Structures, Algorithms, and Web Development basics.",
}

// Preferences holds the student's learning preferences.
type Preferences struct {
	Style      LearningStyle `json:"style" bson:"style"`
	Pace       LearningPace  `json:"pace" bson:"pace"`
	Difficulty Difficulty    `json:"difficulty" bson:"difficulty"`
}

// DefaultPreferences returns the preferences assigned at registration.
func DefaultPreferences() Preferences {
	return Preferences{
		Style:      StyleInteractive,
		Pace:       PaceModerate,
		Difficulty: DifficultyBeginner,
	}
}

// Validate rejects preference values outside the enumerated sets. Unknown
// values are an error, never silently defaulted.
func (p Preferences) Validate() error {
	if _, ok := validStyles[p.Style]; !ok {
		return fmt.Errorf("%w: unknown learning style %q", ErrValidation, p.Style)
	}
	if _, ok := validPaces[p.Pace]; !ok {
		return fmt.Errorf("%w: unknown learning pace %q", ErrValidation, p.Pace)
	}
	if _, ok := validDifficulties[p.Difficulty]; !ok {
		return fmt.Errorf("%w: unknown difficulty %q", ErrValidation, p.Difficulty)
	}
	return nil
}

// ValidateSubjects checks the subject list against the catalog and size cap.
func ValidateSubjects(subjects []string) error {
	if len(subjects) > MaxSubjects {
		return fmt.Errorf("%w: at most %d subjects may be selected", ErrValidation, MaxSubjects)
	}
	for _, s := range subjects {
		if _, ok := subjectSet[s]; !ok {
			return fmt.Errorf("%w: unknown subject %q", ErrValidation, s)
		}
	}
	return nil
}

// ValidateGradeLevel checks a grade level value. An empty value is allowed
// and means "use the default".
func ValidateGradeLevel(g GradeLevel) error {
	switch g {
	case "", GradeElementary, GradeMiddleSchool, GradeHighSchool, GradeCollege:
		return nil
	}
	return fmt.Errorf("%w: unknown grade level %q", ErrValidation, g)
}

// Role identifies the author of a transcript turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message in a conversation transcript.
type Turn struct {
	Role    Role   `json:"role" bson:"role"`
	Content string `json:"content" bson:"content"`
}

// Account is the durable record for one registered user. The transcript is
// append-only; the token balance is mutated only through the ledger's atomic
// operations.
type Account struct {
	Username     string      `json:"username" bson:"username"`
	PasswordHash string      `json:"-" bson:"password_hash"`
	FirstName    string      `json:"first_name" bson:"first_name"`
	LastName     string      `json:"last_name" bson:"last_name"`
	Email        string      `json:"email" bson:"email"`
	Tokens       int         `json:"tokens" bson:"tokens"`
	Preferences  Preferences `json:"learning_preferences" bson:"learning_preferences"`
	Subjects     []string    `json:"subjects" bson:"subjects"`
	Transcript   []Turn      `json:"chat_history,omitempty" bson:"chat_history"`
	CreatedAt    time.Time   `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at" bson:"updated_at"`
}
