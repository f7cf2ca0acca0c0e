package auth

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"caseflow/internal/constants"
	"caseflow/internal/logger"
)

// CachedProvider caches leased credentials in Redis per jurisdiction. Cache
// failures fall through to the delegate; a dead cache must never block
// envelope processing.
type CachedProvider struct {
	delegate TokenProvider
	redis    *redis.Client
	ttl      time.Duration
	logger   logger.Logger
}

func NewCachedProvider(delegate TokenProvider, rdb *redis.Client, ttl time.Duration, log logger.Logger) *CachedProvider {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &CachedProvider{
		delegate: delegate,
		redis:    rdb,
		ttl:      ttl,
		logger:   log,
	}
}

func (p *CachedProvider) CredentialsFor(ctx context.Context, jurisdiction string) (Credentials, error) {
	key := constants.CacheKeyPrefixAuth + jurisdiction

	cached, err := p.redis.Get(ctx, key).Bytes()
	if err == nil {
		var creds Credentials
		if jsonErr := json.Unmarshal(cached, &creds); jsonErr == nil {
			return creds, nil
		}
		// Corrupt entry: drop it and lease fresh credentials.
		p.redis.Del(ctx, key)
	} else if err != redis.Nil {
		p.logger.WarnwCtx(ctx, "Credential cache read failed, leasing directly",
			"error", err,
			"jurisdiction", jurisdiction,
		)
	}

	creds, err := p.delegate.CredentialsFor(ctx, jurisdiction)
	if err != nil {
		return Credentials{}, err
	}

	if encoded, jsonErr := json.Marshal(creds); jsonErr == nil {
		if setErr := p.redis.Set(ctx, key, encoded, p.ttl).Err(); setErr != nil {
			p.logger.DebugwCtx(ctx, "Credential cache write failed",
				"error", setErr,
				"jurisdiction", jurisdiction,
			)
		}
	}

	return creds, nil
}
