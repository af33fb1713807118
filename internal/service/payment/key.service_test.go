package payment

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memRedis mimics the JSON-encoding redis client in memory.
type memRedis struct {
	mu   sync.Mutex
	data map[string]string
	fail error
}

func newMemRedis() *memRedis { return &memRedis{data: map[string]string{}} }

func (m *memRedis) Set(key string, value any, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.data[key] = string(b)
	return nil
}

func (m *memRedis) SetNX(key string, value any, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	if m.fail != nil {
		m.mu.Unlock()
		return false, m.fail
	}
	_, exists := m.data[key]
	m.mu.Unlock()
	if exists {
		return false, nil
	}
	return true, m.Set(key, value, ttl)
}

func (m *memRedis) Get(key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return "", m.fail
	}
	return m.data[key], nil
}

func (m *memRedis) Del(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *memRedis) Expire(string, time.Duration) error { return nil }
func (m *memRedis) Ping() error                        { return m.fail }
func (m *memRedis) Close() error                       { return nil }

func TestNewIdempotencyKey(t *testing.T) {
	a, b := NewIdempotencyKey(), NewIdempotencyKey()
	assert.NotEqual(t, a, b)
	assert.Len(t, a, len("idem_")+32)
}

func TestRedisKeyJournal_FirstKeyWins(t *testing.T) {
	j := NewRedisKeyJournal(newMemRedis(), time.Hour)

	k1, err := j.Resolve("cart-1", "key-a")
	require.NoError(t, err)
	k2, err := j.Resolve("cart-1", "key-b")
	require.NoError(t, err)
	k3, err := j.Resolve("cart-2", "key-c")
	require.NoError(t, err)

	assert.Equal(t, "key-a", k1)
	assert.Equal(t, "key-a", k2)
	assert.Equal(t, "key-c", k3)
}

func TestRedisKeyJournal_ReplacesCorruptEntry(t *testing.T) {
	rds := newMemRedis()
	rds.data[journalKey("cart-1")] = "not json"
	j := NewRedisKeyJournal(rds, 0)

	k, err := j.Resolve("cart-1", "key-a")
	require.NoError(t, err)
	assert.Equal(t, "key-a", k)
	assert.Equal(t, `"key-a"`, rds.data[journalKey("cart-1")])
}

func TestResolveKey(t *testing.T) {
	rds := newMemRedis()
	j := NewRedisKeyJournal(rds, time.Hour)

	assert.Equal(t, "mine", resolveKey(j, Attempt{IdempotencyKey: "mine", AttemptRef: "cart-1"}))

	first := resolveKey(j, Attempt{AttemptRef: "cart-1"})
	assert.Equal(t, first, resolveKey(j, Attempt{AttemptRef: "cart-1"}))
	assert.NotEqual(t, first, resolveKey(j, Attempt{}))

	// A broken journal still yields a usable key.
	rds.fail = errors.New("redis down")
	assert.NotEmpty(t, resolveKey(j, Attempt{AttemptRef: "cart-9"}))
}

func TestRedisSnapshotStore(t *testing.T) {
	store := NewRedisSnapshotStore(newMemRedis())

	got, err := store.Load("missing")
	require.NoError(t, err)
	assert.Nil(t, got)

	s := NewState()
	s.IdempotencyKey = "k"
	require.NoError(t, store.Save("f1", s))

	got, err = store.Load("f1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "k", got.IdempotencyKey)
}
