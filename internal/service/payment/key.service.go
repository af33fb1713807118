package payment

import (
	"encoding/json"
	"fmt"
	"mobile-banking-core/internal/pkg/logger"
	"mobile-banking-core/internal/pkg/redis"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// NewIdempotencyKey returns a fresh random token for one logical attempt.
func NewIdempotencyKey() string {
	id, err := gonanoid.New(32)
	if err != nil {
		// crypto/rand failure; the generator is otherwise infallible
		panic(fmt.Sprintf("idempotency key: %v", err))
	}
	return "idem_" + id
}

// KeyJournal pins an idempotency key to a caller-chosen attempt reference so
// that a retried request (even after a restart) reuses the same key.
type KeyJournal interface {
	Resolve(attemptRef, candidate string) (string, error)
}

type redisKeyJournal struct {
	rds redis.IRedis
	ttl time.Duration
}

func NewRedisKeyJournal(rds redis.IRedis, ttl time.Duration) KeyJournal {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &redisKeyJournal{rds: rds, ttl: ttl}
}

func journalKey(attemptRef string) string {
	return "payment:attempt:" + attemptRef
}

// Resolve stores candidate for attemptRef unless a key is already pinned,
// and returns whichever key won.
func (j *redisKeyJournal) Resolve(attemptRef, candidate string) (string, error) {
	key := journalKey(attemptRef)

	stored, err := j.rds.SetNX(key, candidate, j.ttl)
	if err != nil {
		return "", err
	}
	if stored {
		return candidate, nil
	}

	raw, err := j.rds.Get(key)
	if err != nil {
		return "", err
	}
	var existing string
	if err = json.Unmarshal([]byte(raw), &existing); err != nil || existing == "" {
		logger.Warning.Printf("idempotency journal %s holds %q, replacing", attemptRef, raw)
		if err = j.rds.Set(key, candidate, j.ttl); err != nil {
			return "", err
		}
		return candidate, nil
	}
	return existing, nil
}

// resolveKey picks the key for an attempt: the caller's, then the journal's,
// then a fresh one.
func resolveKey(journal KeyJournal, a Attempt) string {
	if a.IdempotencyKey != "" {
		return a.IdempotencyKey
	}
	candidate := NewIdempotencyKey()
	if a.AttemptRef == "" || journal == nil {
		return candidate
	}
	key, err := journal.Resolve(a.AttemptRef, candidate)
	if err != nil {
		logger.Warning.Printf("idempotency journal %s: %v", a.AttemptRef, err)
		return candidate
	}
	return key
}
