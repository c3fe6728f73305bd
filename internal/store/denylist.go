package store

import (
	"context"
	"errors"
	"time"
)

const revokedKeyPrefix = "jwt:revoked:"

// TokenDenyList records revoked refresh tokens by jti until they would have expired anyway.
type TokenDenyList struct {
	kv KV
}

func NewTokenDenyList(kv KV) *TokenDenyList {
	return &TokenDenyList{kv: kv}
}

func (d *TokenDenyList) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		// already expired
		return nil
	}
	return d.kv.Set(ctx, revokedKeyPrefix+jti, "1", ttl)
}

func (d *TokenDenyList) IsRevoked(ctx context.Context, jti string) (bool, error) {
	_, err := d.kv.Get(ctx, revokedKeyPrefix+jti)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, ErrMiss) {
		return false, nil
	}
	return false, err
}
