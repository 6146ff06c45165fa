package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	StateClosed   = "closed"
	StateOpen     = "open"
	StateHalfOpen = "half-open"
)

// CircuitBreaker keeps closed/open/half-open state per key in a redis hash so
// every replica shares it. Keys are enrichment provider ids and push queue
// names.
type CircuitBreaker struct {
	redisClient      *redis.Client
	logger           *slog.Logger
	failureThreshold int
	cooldownPeriod   time.Duration
	now              func() time.Time
}

type CircuitBreakerState struct {
	State        string `json:"state"`
	Failures     int    `json:"failures"`
	LastFailedAt string `json:"last_failed_at,omitempty"`
}

type CircuitBreakerOption func(*CircuitBreaker)

func WithFailureThreshold(n int) CircuitBreakerOption {
	return func(cb *CircuitBreaker) {
		if n > 0 {
			cb.failureThreshold = n
		}
	}
}

func WithCooldown(d time.Duration) CircuitBreakerOption {
	return func(cb *CircuitBreaker) {
		if d > 0 {
			cb.cooldownPeriod = d
		}
	}
}

func NewCircuitBreaker(redisClient *redis.Client, logger *slog.Logger, opts ...CircuitBreakerOption) *CircuitBreaker {
	cb := &CircuitBreaker{
		redisClient:      redisClient,
		logger:           logger,
		failureThreshold: 5,
		cooldownPeriod:   30 * time.Second,
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(cb)
	}
	return cb
}

func cbKey(key string) string {
	return fmt.Sprintf("cb:%s", key)
}

func (cb *CircuitBreaker) cooledDown(lastFailedAt int64) bool {
	return cb.now().Unix()-lastFailedAt >= int64(cb.cooldownPeriod.Seconds())
}

// AllowRequest reports the circuit state for key and whether a call may
// proceed. Redis errors fail closed, i.e. the call is allowed.
func (cb *CircuitBreaker) AllowRequest(ctx context.Context, key string) (string, bool) {
	data, err := cb.redisClient.HGetAll(ctx, cbKey(key)).Result()
	if err != nil || len(data) == 0 {
		return StateClosed, true
	}

	switch data["state"] {
	case StateOpen:
		lastFailedAt, _ := strconv.ParseInt(data["last_failed_at"], 10, 64)
		if !cb.cooledDown(lastFailedAt) {
			return StateOpen, false
		}
		cb.redisClient.HSet(ctx, cbKey(key), "state", StateHalfOpen)
		cb.logger.Info("circuit breaker half-open", "key", key)
		return StateHalfOpen, true

	case StateHalfOpen:
		return StateHalfOpen, true

	default:
		return StateClosed, true
	}
}

func (cb *CircuitBreaker) RecordSuccess(ctx context.Context, key string) {
	state, _ := cb.redisClient.HGet(ctx, cbKey(key), "state").Result()

	cb.redisClient.HSet(ctx, cbKey(key),
		"state", StateClosed,
		"failures", 0,
	)

	if state == StateHalfOpen {
		cb.logger.Info("circuit breaker closed", "key", key)
	}
}

// RecordFailure counts a failure and opens the circuit once the threshold is
// reached, or immediately when a half-open trial request fails.
func (cb *CircuitBreaker) RecordFailure(ctx context.Context, key string) {
	hash := cbKey(key)

	failures, err := cb.redisClient.HIncrBy(ctx, hash, "failures", 1).Result()
	if err != nil {
		cb.logger.Error("failed to record circuit breaker failure", "key", key, "error", err)
		return
	}
	cb.redisClient.HSet(ctx, hash, "last_failed_at", cb.now().Unix())

	state, _ := cb.redisClient.HGet(ctx, hash, "state").Result()

	switch {
	case state == StateHalfOpen:
		cb.redisClient.HSet(ctx, hash, "state", StateOpen)
		cb.logger.Warn("circuit breaker re-opened", "key", key)
	case failures >= int64(cb.failureThreshold):
		cb.redisClient.HSet(ctx, hash, "state", StateOpen)
		cb.logger.Warn("circuit breaker opened",
			"key", key,
			"failures", failures,
			"threshold", cb.failureThreshold,
		)
	case state == "":
		cb.redisClient.HSet(ctx, hash, "state", StateClosed)
	}
}

// GetState is a read-only view used by the dashboard; it never transitions.
func (cb *CircuitBreaker) GetState(ctx context.Context, key string) CircuitBreakerState {
	data, err := cb.redisClient.HGetAll(ctx, cbKey(key)).Result()
	if err != nil || len(data) == 0 {
		return CircuitBreakerState{State: StateClosed}
	}

	failures, _ := strconv.Atoi(data["failures"])
	lastFailedAt, _ := strconv.ParseInt(data["last_failed_at"], 10, 64)

	state := data["state"]
	if state == "" {
		state = StateClosed
	}
	if state == StateOpen && cb.cooledDown(lastFailedAt) {
		state = StateHalfOpen
	}

	result := CircuitBreakerState{State: state, Failures: failures}
	if lastFailedAt > 0 {
		result.LastFailedAt = time.Unix(lastFailedAt, 0).UTC().Format(time.RFC3339)
	}
	return result
}
