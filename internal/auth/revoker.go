package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/medaminemghirbi/SallaPro/internal/models"
	"github.com/medaminemghirbi/SallaPro/internal/repository"
	"github.com/redis/go-redis/v9"
)

// Revoker decides which token id a login gets and whether a token id was
// revoked by a logout.
type Revoker interface {
	TokenID(ctx context.Context, user *models.User) (string, error)
	Revoke(ctx context.Context, claims *Claims) error
	IsRevoked(ctx context.Context, claims *Claims) (bool, error)
}

// RedisRevoker keeps a denylist of logged-out token ids until they expire.
type RedisRevoker struct {
	client *redis.Client
	prefix string
}

func NewRedisRevoker(client *redis.Client) *RedisRevoker {
	return &RedisRevoker{client: client, prefix: "sallapro:revoked:"}
}

func (r *RedisRevoker) TokenID(ctx context.Context, user *models.User) (string, error) {
	return uuid.NewString(), nil
}

func (r *RedisRevoker) Revoke(ctx context.Context, claims *Claims) error {
	ttl := time.Minute
	if claims.ExpiresAt != nil {
		if left := time.Until(claims.ExpiresAt.Time); left > 0 {
			ttl = left
		}
	}
	if err := r.client.Set(ctx, r.prefix+claims.ID, claims.Subject, ttl).Err(); err != nil {
		return fmt.Errorf("redis revoke: %w", err)
	}
	return nil
}

func (r *RedisRevoker) IsRevoked(ctx context.Context, claims *Claims) (bool, error) {
	n, err := r.client.Exists(ctx, r.prefix+claims.ID).Result()
	if err != nil {
		return false, fmt.Errorf("redis lookup: %w", err)
	}
	return n > 0, nil
}

// UserRevoker stores one token id per user. A token is valid while its id
// matches the stored one; logout rotates it, revoking every session.
type UserRevoker struct {
	users repository.UserRepository
}

func NewUserRevoker(users repository.UserRepository) *UserRevoker {
	return &UserRevoker{users: users}
}

func (r *UserRevoker) TokenID(ctx context.Context, user *models.User) (string, error) {
	if user.JTI != "" {
		return user.JTI, nil
	}
	jti := uuid.NewString()
	if err := r.users.UpdateJTI(ctx, user.ID, jti); err != nil {
		return "", err
	}
	user.JTI = jti
	return jti, nil
}

func (r *UserRevoker) Revoke(ctx context.Context, claims *Claims) error {
	return r.users.UpdateJTI(ctx, claims.UserID(), uuid.NewString())
}

func (r *UserRevoker) IsRevoked(ctx context.Context, claims *Claims) (bool, error) {
	user, err := r.users.FindByID(ctx, claims.UserID())
	if err != nil {
		if repository.IsNotFound(err) {
			return true, nil
		}
		return false, err
	}
	return user.JTI != claims.ID, nil
}
