// Package idempotency remembers the response to a keyed request so a client
// retry replays it instead of repeating the side effect.
package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fastprodman/coinmarket/internal/config"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix     = "idem:"
	pendingMarker = "pending"
	pendingTTL    = 30 * time.Second
)

// ErrInProgress means another request holding the same key has not finished.
var ErrInProgress = errors.New("request with this idempotency key is in progress")

// ErrKeyReused means the key was first used for a different request.
var ErrKeyReused = errors.New("idempotency key reused with a different request")

type Response struct {
	Fingerprint string `json:"fingerprint"`
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

type Store struct {
	rdb redis.UniversalClient
	ttl time.Duration
}

func New(rdb redis.UniversalClient, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

// Connect builds a client for cfg and checks it answers.
func Connect(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	err := rdb.Ping(ctx).Err()
	if err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return rdb, nil
}

// Key scopes a client-supplied key to the account and route.
func Key(accountID uint64, route, clientKey string) string {
	return fmt.Sprintf("%s%d:%s:%s", keyPrefix, accountID, route, clientKey)
}

// Fingerprint identifies a request body.
func Fingerprint(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// Begin claims key. A nil Response with a nil error means the caller owns the
// key and must Complete or Release it. A non-nil Response is the stored reply,
// returned only when it was recorded for the same fingerprint.
func (s *Store) Begin(ctx context.Context, key, fingerprint string) (*Response, error) {
	claimed, err := s.rdb.SetNX(ctx, key, pendingMarker, pendingTTL).Result()
	if err != nil {
		return nil, fmt.Errorf("redis setnx: %w", err)
	}

	if claimed {
		return nil, nil
	}

	raw, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		// expired between SETNX and GET; let the client retry
		return nil, ErrInProgress
	}

	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}

	if string(raw) == pendingMarker {
		return nil, ErrInProgress
	}

	var resp Response

	err = json.Unmarshal(raw, &resp)
	if err != nil {
		return nil, fmt.Errorf("decode stored response: %w", err)
	}

	if resp.Fingerprint != fingerprint {
		return nil, ErrKeyReused
	}

	return &resp, nil
}

func (s *Store) Complete(ctx context.Context, key string, resp Response) error {
	raw, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("encode response: %w", err)
	}

	err = s.rdb.Set(ctx, key, raw, s.ttl).Err()
	if err != nil {
		return fmt.Errorf("redis set: %w", err)
	}

	return nil
}

// Release forgets key so a retry runs again.
func (s *Store) Release(ctx context.Context, key string) error {
	err := s.rdb.Del(ctx, key).Err()
	if err != nil {
		return fmt.Errorf("redis delete: %w", err)
	}

	return nil
}
