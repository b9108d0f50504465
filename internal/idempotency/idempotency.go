package idempotency

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/nimasrn/hacienda/pkg/logger"
	"github.com/nimasrn/hacienda/pkg/redis"
)

var (
	ErrAlreadyProcessed  = errors.New("request already processed")
	ErrLockAcquireFailed = errors.New("failed to acquire processing lock")
)

type Config struct {
	// how long a request may hold the key before another one can take it
	LockTTL time.Duration
	// how long a finished result is replayed
	ProcessedTTL time.Duration

	LockKeyPrefix      string
	ProcessedKeyPrefix string
}

func DefaultConfig() Config {
	return Config{
		LockTTL:            30 * time.Second,
		ProcessedTTL:       24 * time.Hour,
		LockKeyPrefix:      "idem:lock:",
		ProcessedKeyPrefix: "idem:done:",
	}
}

// Store guards a create operation behind a client supplied key so a retried
// request gets the first answer back instead of a second row.
type Store struct {
	redis  redis.RedisAdapter
	config Config
}

func NewStore(adapter redis.RedisAdapter, config Config) *Store {
	return &Store{redis: adapter, config: config}
}

// Claim is held by the request that owns a key until Complete or Release.
type Claim struct {
	Key      string
	acquired bool
}

// Acquire takes the key. When the key already finished it returns the stored
// result with ErrAlreadyProcessed, when another request holds it ErrLockAcquireFailed.
func (s *Store) Acquire(ctx context.Context, key string) (*Claim, []byte, error) {
	stored, err := s.redis.Get(ctx, s.config.ProcessedKeyPrefix+key)
	switch {
	case err == nil:
		logger.Info("idempotency key already processed", "key", key)
		return nil, stored, ErrAlreadyProcessed
	case !errors.Is(err, redis.NilError):
		// continue without the marker check, a duplicate is preferred over a blocked payment
		logger.Warn("failed to check processed marker", "key", key, "error", err)
	}

	lockValue := []byte(strconv.FormatInt(time.Now().UnixNano(), 10))
	acquired, err := s.redis.SetNX(ctx, s.config.LockKeyPrefix+key, lockValue, s.config.LockTTL)
	if err != nil {
		logger.Error("failed to acquire lock", "key", key, "error", err)
		return nil, nil, fmt.Errorf("%w: %v", ErrLockAcquireFailed, err)
	}
	if !acquired {
		logger.Info("lock already held by another request", "key", key)
		return nil, nil, ErrLockAcquireFailed
	}

	logger.Debug("idempotency lock acquired", "key", key, "lock_ttl", s.config.LockTTL)
	return &Claim{Key: key, acquired: true}, nil, nil
}

// Complete stores result under the key and drops the lock.
func (s *Store) Complete(ctx context.Context, c *Claim, result []byte) error {
	if err := s.redis.Set(ctx, s.config.ProcessedKeyPrefix+c.Key, result, s.config.ProcessedTTL); err != nil {
		logger.Error("failed to mark request as processed", "key", c.Key, "error", err)
		return fmt.Errorf("failed to mark as processed: %w", err)
	}
	return s.Release(ctx, c)
}

// Release drops the lock without a result so the client can retry.
func (s *Store) Release(ctx context.Context, c *Claim) error {
	if c == nil || !c.acquired {
		return nil
	}
	if err := s.redis.Del(ctx, s.config.LockKeyPrefix+c.Key); err != nil {
		logger.Warn("failed to release lock", "key", c.Key, "error", err)
		return err
	}
	c.acquired = false
	return nil
}

func (s *Store) IsProcessed(ctx context.Context, key string) (bool, error) {
	n, err := s.redis.Exist(ctx, s.config.ProcessedKeyPrefix+key)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
