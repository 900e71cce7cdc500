package handler

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Request types ---

type registerRequest struct {
	FirstName       string `json:"first_name"       validate:"required"`
	LastName        string `json:"last_name"        validate:"required"`
	Username        string `json:"username"         validate:"required"`
	Email           string `json:"email"            validate:"required,email"`
	Password        string `json:"password"         validate:"required"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type preferencesRequest struct {
	Style      string `json:"style"      validate:"required,oneof=interactive visual auditory reading_writing kinesthetic"`
	Pace       string `json:"pace"       validate:"required,oneof=slow moderate fast"`
	Difficulty string `json:"difficulty" validate:"required,oneof=beginner intermediate advanced"`
}

type subjectsRequest struct {
	Subjects []string `json:"subjects" validate:"max=5"`
}

// --- Response types ---
// Response-only types owned by the transport layer, kept separate from
// ports/domain types so the JSON contract is not coupled to internal
// service changes.

type preferencesResponse struct {
	Style      string `json:"style"`
	Pace       string `json:"pace"`
	Difficulty string `json:"difficulty"`
}

type profileResponse struct {
	Username    string              `json:"username"`
	FirstName   string              `json:"first_name"`
	LastName    string              `json:"last_name"`
	Email       string              `json:"email"`
	Tokens      int                 `json:"tokens"`
	Preferences preferencesResponse `json:"learning_preferences"`
	Subjects    []string            `json:"subjects"`
}

type authResponse struct {
	Token   string          `json:"token,omitempty"`
	Profile profileResponse `json:"profile"`
}
