package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/readhabit/readhabit-web/internal/cache"
	"github.com/readhabit/readhabit-web/pkg/security"
)

// ReplayGuard remembers consumed single-use values (OAuth state, OTP session
// handles) for as long as they could still be presented.
type ReplayGuard struct {
	cache cache.Cache
}

func NewReplayGuard(c cache.Cache) *ReplayGuard {
	return &ReplayGuard{cache: c}
}

// Consume claims value under kind. It returns ErrReplayed when the value was
// already claimed within ttl.
func (g *ReplayGuard) Consume(ctx context.Context, kind, value string, ttl time.Duration) error {
	key := "replay:" + kind + ":" + security.Fingerprint(value)

	ok, err := g.cache.SetNX(ctx, key, []byte("1"), ttl)
	if err != nil {
		return fmt.Errorf("failed to record %s: %w", kind, err)
	}
	if !ok {
		return ErrReplayed
	}
	return nil
}
