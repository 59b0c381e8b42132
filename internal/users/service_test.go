package users

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/qitafauto/qitaf-backend/pkg/auth"
	"github.com/qitafauto/qitaf-backend/pkg/config"
	"github.com/qitafauto/qitaf-backend/pkg/db/models"
	pkgerrors "github.com/qitafauto/qitaf-backend/pkg/errors"
)

type stubUsersRepo struct {
	byEmail map[string]*models.User
	byID    map[uuid.UUID]*models.User
}

func newStubUsersRepo() *stubUsersRepo {
	return &stubUsersRepo{
		byEmail: make(map[string]*models.User),
		byID:    make(map[uuid.UUID]*models.User),
	}
}

func (s *stubUsersRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubUsersRepo) Create(ctx context.Context, user *models.User) error {
	if _, exists := s.byEmail[user.Email]; exists {
		return fmt.Errorf(`duplicate key value violates unique constraint "idx_users_email"`)
	}
	user.ID = uuid.New()
	s.byEmail[user.Email] = user
	s.byID[user.ID] = user
	return nil
}

func (s *stubUsersRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	user, ok := s.byEmail[email]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (s *stubUsersRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, ok := s.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (s *stubUsersRepo) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return nil
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "unit-test-secret-key",
		Issuer:            "qitaf-test",
		ExpirationMinutes: 30,
	}
}

// Low-cost argon parameters keep the hashing tests fast.
func testPasswordConfig() config.PasswordConfig {
	return config.PasswordConfig{
		ArgonMemoryKB:    8 * 1024,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}
}

func newUsersService(t *testing.T, repo Repository) Service {
	t.Helper()
	svc, err := NewService(repo, testJWTConfig(), testPasswordConfig())
	if err != nil {
		t.Fatalf("constructor failed: %v", err)
	}
	return svc
}

func TestRegisterCreatesAccountAndSession(t *testing.T) {
	repo := newStubUsersRepo()
	svc := newUsersService(t, repo)

	session, err := svc.Register(context.Background(), RegisterInput{
		Email:    "Fahad@Example.com",
		Password: "correct-horse",
		Name:     "Fahad",
	})
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if session.User.Email != "fahad@example.com" {
		t.Fatalf("email not normalized: %s", session.User.Email)
	}
	if session.User.PasswordHash == "correct-horse" || session.User.PasswordHash == "" {
		t.Fatalf("password stored without hashing")
	}

	claims, err := auth.ParseAccessToken(testJWTConfig(), session.AccessToken)
	if err != nil {
		t.Fatalf("minted token does not parse: %v", err)
	}
	if claims.UserID != session.User.ID {
		t.Fatalf("token subject mismatch: %s", claims.UserID)
	}
}

func TestRegisterRejectsBadInput(t *testing.T) {
	svc := newUsersService(t, newStubUsersRepo())

	cases := []struct {
		name  string
		input RegisterInput
	}{
		{"missing email", RegisterInput{Password: "long-enough", Name: "x"}},
		{"invalid email", RegisterInput{Email: "not-an-email", Password: "long-enough", Name: "x"}},
		{"short password", RegisterInput{Email: "a@b.com", Password: "short", Name: "x"}},
		{"missing name", RegisterInput{Email: "a@b.com", Password: "long-enough"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tc.input)
			typed := pkgerrors.As(err)
			if typed == nil || typed.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error got %v", err)
			}
		})
	}
}

func TestRegisterDuplicateEmailConflicts(t *testing.T) {
	repo := newStubUsersRepo()
	svc := newUsersService(t, repo)
	ctx := context.Background()

	input := RegisterInput{Email: "dup@example.com", Password: "long-enough", Name: "First"}
	if _, err := svc.Register(ctx, input); err != nil {
		t.Fatalf("first registration failed: %v", err)
	}

	_, err := svc.Register(ctx, input)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict got %v", err)
	}
}

func TestLoginVerifiesPassword(t *testing.T) {
	repo := newStubUsersRepo()
	svc := newUsersService(t, repo)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Email: "login@example.com", Password: "correct-horse", Name: "x"})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	session, err := svc.Login(ctx, LoginInput{Email: "LOGIN@example.com", Password: "correct-horse"})
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if session.AccessToken == "" {
		t.Fatalf("session missing token")
	}

	_, err = svc.Login(ctx, LoginInput{Email: "login@example.com", Password: "wrong"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized got %v", err)
	}
}

func TestLoginUnknownEmailLooksLikeBadPassword(t *testing.T) {
	svc := newUsersService(t, newStubUsersRepo())

	_, err := svc.Login(context.Background(), LoginInput{Email: "ghost@example.com", Password: "whatever"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized got %v", err)
	}
	if typed.Error() != "invalid credentials" {
		t.Fatalf("message leaks account existence: %s", typed.Error())
	}
}

func TestGetProfileNotFound(t *testing.T) {
	svc := newUsersService(t, newStubUsersRepo())

	_, err := svc.GetProfile(context.Background(), uuid.New())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found got %v", err)
	}
}
