package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"celltrade/internal/core/apperror"
	"celltrade/internal/core/id"
	"celltrade/internal/core/security"
)

type memUserRepo struct {
	byID map[id.ID]*User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{byID: make(map[id.ID]*User)}
}

func (r *memUserRepo) Create(_ context.Context, u *User) error {
	r.byID[u.ID] = u
	return nil
}

func (r *memUserRepo) GetByID(_ context.Context, userID id.ID) (*User, error) {
	u, ok := r.byID[userID]
	if !ok {
		return nil, apperror.NewNotFound("user", userID.String())
	}
	return u, nil
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*User, error) {
	for _, u := range r.byID {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return nil, apperror.NewNotFound("user", email)
}

func (r *memUserRepo) Update(_ context.Context, u *User) error {
	r.byID[u.ID] = u
	return nil
}

func newTestService() (*Service, *memUserRepo) {
	repo := newMemUserRepo()
	jwtSvc := NewJWTService(DefaultJWTConfig("test-secret"))
	return NewService(repo, jwtSvc, DefaultServiceConfig()), repo
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	user, err := svc.Register(ctx, "cashier@shop.kz", "correct-horse", "Aigerim", security.RoleCashier)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.PasswordHash == "correct-horse" {
		t.Fatal("password stored in plain text")
	}

	token, loggedIn, err := svc.Login(ctx, Credentials{Email: "cashier@shop.kz", Password: "correct-horse"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if loggedIn.ID != user.ID {
		t.Error("login returned wrong user")
	}
	if token.AccessToken == "" || !token.ExpiresAt.After(time.Now()) {
		t.Error("expected a future-dated access token")
	}
}

func TestLoginWrongPassword(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	if _, err := svc.Register(ctx, "user@shop.kz", "right-password", "", security.RoleViewer); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, _, err := svc.Login(ctx, Credentials{Email: "user@shop.kz", Password: "wrong"})
	if !apperror.IsCode(err, apperror.CodeUnauthorized) {
		t.Fatalf("error = %v, want UNAUTHORIZED", err)
	}
}

func TestLoginUnknownEmailIsIndistinguishable(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	_, _, err := svc.Login(ctx, Credentials{Email: "nobody@shop.kz", Password: "x"})
	if !apperror.IsCode(err, apperror.CodeUnauthorized) {
		t.Fatalf("error = %v, want UNAUTHORIZED", err)
	}
}

func TestLoginLockoutAfterRepeatedFailures(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService()

	user, err := svc.Register(ctx, "user@shop.kz", "right-password", "", security.RoleCashier)
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	for i := 0; i < svc.config.MaxLoginAttempts; i++ {
		if _, _, err := svc.Login(ctx, Credentials{Email: "user@shop.kz", Password: "wrong"}); err == nil {
			t.Fatal("expected login failure")
		}
	}

	stored := repo.byID[user.ID]
	if !stored.IsLocked() {
		t.Fatal("account should be locked after repeated failures")
	}
	_, _, err = svc.Login(ctx, Credentials{Email: "user@shop.kz", Password: "right-password"})
	if !apperror.IsCode(err, apperror.CodeForbidden) {
		t.Fatalf("error = %v, want FORBIDDEN", err)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	if _, err := svc.Register(ctx, "user@shop.kz", "password-one", "", security.RoleViewer); err != nil {
		t.Fatalf("first register: %v", err)
	}
	_, err := svc.Register(ctx, "user@shop.kz", "password-two", "", security.RoleViewer)
	if !apperror.IsCode(err, apperror.CodeConflict) {
		t.Fatalf("error = %v, want CONFLICT", err)
	}
}

func TestTokenRoundTripRebuildsScope(t *testing.T) {
	jwtSvc := NewJWTService(DefaultJWTConfig("test-secret"))
	user := NewUser("manager@shop.kz", "hash", security.RoleManager)

	tokenString, _, err := jwtSvc.GenerateAccessToken(user)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	scope, err := jwtSvc.ValidateToken(tokenString)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if scope.UserID != user.ID.String() {
		t.Error("scope user mismatch")
	}
	if !scope.Can(security.CapSaleCreate) {
		t.Error("manager scope should allow sale.create")
	}
	if scope.Can(security.CapAudit) {
		t.Error("manager scope should not allow audit")
	}
}

func TestTokenRejectsWrongSecret(t *testing.T) {
	issuer := NewJWTService(DefaultJWTConfig("secret-a"))
	verifier := NewJWTService(DefaultJWTConfig("secret-b"))
	user := NewUser("user@shop.kz", "hash", security.RoleViewer)

	tokenString, _, err := issuer.GenerateAccessToken(user)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := verifier.ValidateToken(tokenString); err == nil {
		t.Fatal("expected validation failure with wrong secret")
	}
}
