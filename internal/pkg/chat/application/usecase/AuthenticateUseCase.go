package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	cport "shopchat/internal/infrastructure/cache/port"
	userrepo "shopchat/internal/repository/port"
)

// TokenValidator extracts the subject user id from a bearer credential.
type TokenValidator interface {
	ValidateToken(token string) (int64, error)
}

const userCacheTTL = 5 * time.Minute

// AuthenticateUseCase turns a connection-time credential into a verified user.
// It fails closed: the caller must not touch the conversation resolver until
// this succeeds. No side effects beyond the identity lookup.
type AuthenticateUseCase struct {
	Tokens TokenValidator
	Users  userrepo.UserRepository
	Cache  cport.Cache // optional; nil disables lookup memoization
}

func NewAuthenticateUseCase(tokens TokenValidator, users userrepo.UserRepository, cache cport.Cache) *AuthenticateUseCase {
	return &AuthenticateUseCase{Tokens: tokens, Users: users, Cache: cache}
}

// Execute validates the credential and confirms the subject still resolves to
// an existing account.
func (uc *AuthenticateUseCase) Execute(ctx context.Context, token string) (*userrepo.User, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: missing credential", ErrAuthentication)
	}

	userID, err := uc.Tokens.ValidateToken(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthentication, err)
	}

	if user := uc.cachedUser(ctx, userID); user != nil {
		return user, nil
	}

	user, err := uc.Users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, userrepo.ErrUserNotFound) {
			return nil, fmt.Errorf("%w: unknown subject %d", ErrAuthentication, userID)
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	uc.cacheUser(ctx, user)
	return user, nil
}

func (uc *AuthenticateUseCase) cachedUser(ctx context.Context, userID int64) *userrepo.User {
	if uc.Cache == nil {
		return nil
	}
	raw, err := uc.Cache.Get(ctx, userCacheKey(userID))
	if err != nil {
		return nil // miss and transport errors both fall through to the store
	}
	var user userrepo.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil
	}
	return &user
}

func (uc *AuthenticateUseCase) cacheUser(ctx context.Context, user *userrepo.User) {
	if uc.Cache == nil {
		return
	}
	if raw, err := json.Marshal(user); err == nil {
		_ = uc.Cache.Set(ctx, userCacheKey(user.ID), string(raw), userCacheTTL)
	}
}

func userCacheKey(userID int64) string {
	return fmt.Sprintf("user:%d", userID)
}
