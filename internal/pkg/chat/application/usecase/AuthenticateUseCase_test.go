package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"shopchat/internal/infrastructure/security"
	"shopchat/internal/pkg/chat/application/usecase"
	userrepo "shopchat/internal/repository/port"
)

func authFixture(cacheOn bool) (*usecase.AuthenticateUseCase, *security.JWTService, *fakeUserRepo) {
	tokens := security.NewJWTService("test-secret")
	users := newFakeUserRepo(userrepo.User{ID: 7, Username: "alice", UserType: "buyer"})
	var uc *usecase.AuthenticateUseCase
	if cacheOn {
		uc = usecase.NewAuthenticateUseCase(tokens, users, newFakeCache())
	} else {
		uc = usecase.NewAuthenticateUseCase(tokens, users, nil)
	}
	return uc, tokens, users
}

func TestAuthenticate_ValidToken(t *testing.T) {
	uc, tokens, _ := authFixture(false)
	token, err := tokens.GenerateToken(7, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	user, err := uc.Execute(context.Background(), token)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if user.ID != 7 || user.Username != "alice" {
		t.Errorf("user = %+v, want id 7 alice", user)
	}
}

func TestAuthenticate_MissingToken(t *testing.T) {
	uc, _, users := authFixture(false)

	if _, err := uc.Execute(context.Background(), ""); !errors.Is(err, usecase.ErrAuthentication) {
		t.Fatalf("Execute() error = %v, want ErrAuthentication", err)
	}
	if users.lookupCount() != 0 {
		t.Error("identity store reached for a missing credential")
	}
}

func TestAuthenticate_ExpiredToken(t *testing.T) {
	uc, tokens, users := authFixture(false)
	token, err := tokens.GenerateToken(7, -time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	if _, err := uc.Execute(context.Background(), token); !errors.Is(err, usecase.ErrAuthentication) {
		t.Fatalf("Execute() error = %v, want ErrAuthentication", err)
	}
	if users.lookupCount() != 0 {
		t.Error("identity store reached for an expired credential")
	}
}

func TestAuthenticate_UnknownSubject(t *testing.T) {
	uc, tokens, _ := authFixture(false)
	token, err := tokens.GenerateToken(404, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	if _, err := uc.Execute(context.Background(), token); !errors.Is(err, usecase.ErrAuthentication) {
		t.Fatalf("Execute() error = %v, want ErrAuthentication", err)
	}
}

func TestAuthenticate_CacheMemoizesLookups(t *testing.T) {
	uc, tokens, users := authFixture(true)
	token, err := tokens.GenerateToken(7, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := uc.Execute(ctx, token); err != nil {
			t.Fatalf("Execute() #%d error = %v", i, err)
		}
	}
	if got := users.lookupCount(); got != 1 {
		t.Errorf("identity lookups = %d, want 1 (memoized)", got)
	}
}
