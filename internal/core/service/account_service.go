package service

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/tutorlab/tutor-platform/internal/api/metrics"
	"github.com/tutorlab/tutor-platform/internal/core/domain"
	"github.com/tutorlab/tutor-platform/internal/core/ports"
)

// AccountService implements registration, authentication and profile updates.
type AccountService struct {
	repo      ports.AccountRepository
	jwtSecret string
	tokenTTL  time.Duration
}

func NewAccountService(repo ports.AccountRepository, jwtSecret string, tokenTTL time.Duration) *AccountService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AccountService{repo: repo, jwtSecret: jwtSecret, tokenTTL: tokenTTL}
}

// Register creates a new account seeded with the initial token balance,
// default preferences, and an empty subject list and transcript. The
// password confirmation check belongs to the HTTP boundary; here every
// profile field must simply be non-empty.
func (s *AccountService) Register(ctx context.Context, input ports.RegisterInput) (*domain.Account, error) {
	if input.Username == "" || input.Password == "" {
		return nil, fmt.Errorf("%w: username and password are required", domain.ErrValidation)
	}
	if input.FirstName == "" || input.LastName == "" || input.Email == "" {
		return nil, fmt.Errorf("%w: first name, last name and email are required", domain.ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	account := &domain.Account{
		Username:     input.Username,
		PasswordHash: string(hash),
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Email:        input.Email,
		Tokens:       domain.InitialTokens,
		Preferences:  domain.DefaultPreferences(),
		Subjects:     []string{},
		Transcript:   []domain.Turn{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, account); err != nil {
		return nil, err
	}

	metrics.AccountsRegisteredTotal.Inc()
	return account, nil
}

// Authenticate verifies the password against the stored bcrypt hash and
// returns a signed session token plus the account snapshot. Plaintext is
// never compared directly; the check is delegated to bcrypt.
func (s *AccountService) Authenticate(ctx context.Context, username, password string) (string, *domain.Account, error) {
	if username == "" || password == "" {
		return "", nil, domain.ErrInvalidCredentials
	}

	account, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return "", nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) != nil {
		return "", nil, domain.ErrInvalidCredentials
	}

	token, err := s.generateToken(account)
	if err != nil {
		return "", nil, err
	}

	return token, account, nil
}

func (s *AccountService) GetAccount(ctx context.Context, username string) (*domain.Account, error) {
	return s.repo.FindByUsername(ctx, username)
}

// UpdatePreferences validates the preference values against their enumerated
// sets and persists a field-scoped update.
func (s *AccountService) UpdatePreferences(ctx context.Context, username string, prefs domain.Preferences) error {
	if err := prefs.Validate(); err != nil {
		return err
	}
	return s.repo.SetPreferences(ctx, username, prefs)
}

// UpdateSubjects validates the subject list against the catalog and cap and
// persists a field-scoped update.
func (s *AccountService) UpdateSubjects(ctx context.Context, username string, subjects []string) error {
	if err := domain.ValidateSubjects(subjects); err != nil {
		return err
	}
	return s.repo.SetSubjects(ctx, username, subjects)
}

func (s *AccountService) generateToken(account *domain.Account) (string, error) {
	claims := jwt.MapClaims{
		"username": account.Username,
		"exp":      time.Now().Add(s.tokenTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}
