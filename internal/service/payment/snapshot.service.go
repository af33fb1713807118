package payment

import (
	"encoding/json"
	"fmt"
	"mobile-banking-core/internal/pkg/redis"
	"time"
)

const snapshotTTL = time.Hour

type redisSnapshotStore struct {
	rds redis.IRedis
}

// NewRedisSnapshotStore keeps the latest state of each flow for an hour so
// the shell can read the outcome after the flow itself was torn down.
func NewRedisSnapshotStore(rds redis.IRedis) SnapshotStore {
	return &redisSnapshotStore{rds: rds}
}

func snapshotKey(flowID string) string {
	return "payment:flow:" + flowID
}

func (r *redisSnapshotStore) Save(flowID string, s State) error {
	return r.rds.Set(snapshotKey(flowID), s, snapshotTTL)
}

func (r *redisSnapshotStore) Load(flowID string) (*State, error) {
	raw, err := r.rds.Get(snapshotKey(flowID))
	if err != nil {
		return nil, err
	}
	if raw == "" {
		return nil, nil
	}
	var s State
	if err = json.Unmarshal([]byte(raw), &s); err != nil {
		return nil, fmt.Errorf("corrupt snapshot for flow %s: %w", flowID, err)
	}
	return &s, nil
}
