package challenge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/ahmetcoskunkizilkaya/civic-backend/internal/rejection"
)

// ErrUnknownToken means the token was never issued, was already used, or has
// been evicted after expiry.
var ErrUnknownToken = errors.New("unknown challenge token")

// Store keeps expected answers server-side, keyed by an opaque token, so the
// answer is never sent to the client.
type Store interface {
	Put(ctx context.Context, token string, c Challenge, ttl time.Duration) error
	// Take returns and removes the challenge; a token is usable once.
	Take(ctx context.Context, token string) (Challenge, error)
}

// Issue creates a challenge with iss, stores it and returns its token.
func Issue(ctx context.Context, iss *Issuer, store Store, ttl time.Duration) (string, Challenge, error) {
	c := iss.Issue()
	token := uuid.NewString()
	if err := store.Put(ctx, token, c, ttl); err != nil {
		return "", Challenge{}, fmt.Errorf("failed to store challenge: %w", err)
	}
	return token, c, nil
}

// VerifyToken redeems token and checks the answer with v. An unknown token is
// reported as Expired since evicted tokens are indistinguishable from stale ones.
func VerifyToken(ctx context.Context, v *Verifier, store Store, token, userAnswer string) error {
	c, err := store.Take(ctx, token)
	if errors.Is(err, ErrUnknownToken) {
		return rejection.New(rejection.Expired, "challengeToken", "Challenge expired. Please try again.")
	}
	if err != nil {
		return err
	}
	return v.Verify(userAnswer, c.Answer, c.IssuedAt)
}

type memoryEntry struct {
	challenge Challenge
	expiresAt time.Time
}

// MemoryStore is a single-instance Store.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry), now: time.Now}
}

func (s *MemoryStore) Put(_ context.Context, token string, c Challenge, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[token] = memoryEntry{challenge: c, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *MemoryStore) Take(_ context.Context, token string) (Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[token]
	if !ok {
		return Challenge{}, ErrUnknownToken
	}
	delete(s.entries, token)
	if s.now().After(e.expiresAt) {
		return Challenge{}, ErrUnknownToken
	}
	return e.challenge, nil
}

// Sweep drops expired tokens that were never redeemed.
func (s *MemoryStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	removed := 0
	for token, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, token)
			removed++
		}
	}
	return removed
}

// StartSweeper runs Sweep every interval until done is closed.
func (s *MemoryStore) StartSweeper(interval time.Duration, done <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n := s.Sweep(); n > 0 {
					slog.Debug("challenge tokens swept", "removed", n)
				}
			case <-done:
				return
			}
		}
	}()
}

// RedisStore shares tokens between instances.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, prefix: "challenge:"}
}

func (s *RedisStore) Put(ctx context.Context, token string, c Challenge, ttl time.Duration) error {
	key := s.prefix + token
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, "answer", c.Answer, "issued_at", c.IssuedAt.UnixMilli())
		pipe.PExpire(ctx, key, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis challenge put: %w", err)
	}
	return nil
}

func (s *RedisStore) Take(ctx context.Context, token string) (Challenge, error) {
	key := s.prefix + token
	var get *redis.MapStringStringCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		get = pipe.HGetAll(ctx, key)
		pipe.Del(ctx, key)
		return nil
	})
	if err != nil {
		return Challenge{}, fmt.Errorf("redis challenge take: %w", err)
	}
	fields := get.Val()
	if len(fields) == 0 {
		return Challenge{}, ErrUnknownToken
	}
	var ms int64
	if _, err := fmt.Sscan(fields["issued_at"], &ms); err != nil {
		return Challenge{}, fmt.Errorf("corrupt challenge record: %w", err)
	}
	return Challenge{Answer: fields["answer"], IssuedAt: time.UnixMilli(ms)}, nil
}
