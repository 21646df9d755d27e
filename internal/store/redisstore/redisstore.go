// Package redisstore keeps learner states and the mistake log in Redis, for
// deployments where several processes serve the same learners.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/abhisek/neuroquiz/internal/mastery"
	"github.com/abhisek/neuroquiz/internal/store"
)

// DefaultKeyPrefix namespaces every key written by the store.
const DefaultKeyPrefix = "neuroquiz:"

// maxTxRetries bounds optimistic retries when a WATCHed key changes.
const maxTxRetries = 10

// ErrConflict is returned when an update keeps losing the optimistic race.
var ErrConflict = errors.New("learner state update conflict")

// Config holds the Redis connection settings.
type Config struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// Store implements mastery.StateStore, mastery.AtomicUpdater and
// store.MistakeLog on Redis.
type Store struct {
	client *redis.Client
	prefix string
}

var (
	_ mastery.StateStore    = (*Store)(nil)
	_ mastery.AtomicUpdater = (*Store)(nil)
	_ store.MistakeLog      = (*Store)(nil)
)

// Open connects to Redis and verifies the connection.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", cfg.Addr, err)
	}
	return New(client, cfg.KeyPrefix), nil
}

// New wraps an existing client. An empty prefix selects DefaultKeyPrefix.
func New(client *redis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &Store{client: client, prefix: prefix}
}

// Close closes the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) stateKey(userID int64) string {
	return fmt.Sprintf("%sstate:%d", s.prefix, userID)
}

func (s *Store) mistakesKey(userID int64) string {
	return fmt.Sprintf("%smistakes:%d", s.prefix, userID)
}

// GetState returns the learner state for userID, or mastery.ErrNotFound.
func (s *Store) GetState(ctx context.Context, userID int64) (*mastery.LearnerState, error) {
	return decodeState(s.client.Get(ctx, s.stateKey(userID)).Bytes())
}

// PutState overwrites the learner state.
func (s *Store) PutState(ctx context.Context, st *mastery.LearnerState) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode learner state: %w", err)
	}
	if err := s.client.Set(ctx, s.stateKey(st.UserID), data, 0).Err(); err != nil {
		return fmt.Errorf("save learner state %d: %w", st.UserID, err)
	}
	return nil
}

// UpdateState runs fn under WATCH on the user's key and commits with
// MULTI/EXEC, retrying when another writer got there first.
func (s *Store) UpdateState(ctx context.Context, userID int64, fn mastery.UpdateFunc) (*mastery.LearnerState, error) {
	key := s.stateKey(userID)
	var next *mastery.LearnerState

	txf := func(tx *redis.Tx) error {
		cur, err := decodeState(tx.Get(ctx, key).Bytes())
		if err != nil && !errors.Is(err, mastery.ErrNotFound) {
			return err
		}
		next, err = fn(cur)
		if err != nil {
			return err
		}
		data, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("encode learner state: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			return nil
		})
		return err
	}

	for range maxTxRetries {
		err := s.client.Watch(ctx, txf, key)
		if err == nil {
			return next, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return nil, err
	}
	return nil, fmt.Errorf("%w: user %d", ErrConflict, userID)
}

// AppendMistake pushes m onto the user's mistake list.
func (s *Store) AppendMistake(ctx context.Context, m *store.Mistake) error {
	m.Prepare(time.Now())
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode mistake: %w", err)
	}
	if err := s.client.RPush(ctx, s.mistakesKey(m.UserID), data).Err(); err != nil {
		return fmt.Errorf("save mistake: %w", err)
	}
	return nil
}

// ListMistakes returns a user's mistakes, newest first. limit <= 0 returns
// all of them.
func (s *Store) ListMistakes(ctx context.Context, userID int64, limit int) ([]store.Mistake, error) {
	start := int64(0)
	if limit > 0 {
		start = -int64(limit)
	}
	raw, err := s.client.LRange(ctx, s.mistakesKey(userID), start, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("query mistakes: %w", err)
	}
	out := make([]store.Mistake, 0, len(raw))
	for i := len(raw) - 1; i >= 0; i-- {
		var m store.Mistake
		if err := json.Unmarshal([]byte(raw[i]), &m); err != nil {
			return nil, fmt.Errorf("decode mistake: %w", err)
		}
		out = append(out, m)
	}
	return out, nil
}

// Reset deletes every learner state and mistake under the key prefix.
func (s *Store) Reset(ctx context.Context) error {
	for _, pattern := range []string{s.prefix + "state:*", s.prefix + "mistakes:*"} {
		iter := s.client.Scan(ctx, 0, pattern, 100).Iterator()
		var keys []string
		for iter.Next(ctx) {
			keys = append(keys, iter.Val())
		}
		if err := iter.Err(); err != nil {
			return fmt.Errorf("scan %s: %w", pattern, err)
		}
		if len(keys) == 0 {
			continue
		}
		if err := s.client.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("delete %d keys: %w", len(keys), err)
		}
	}
	return nil
}

func decodeState(data []byte, err error) (*mastery.LearnerState, error) {
	if errors.Is(err, redis.Nil) {
		return nil, mastery.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load learner state: %w", err)
	}
	var st mastery.LearnerState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("decode learner state: %w", err)
	}
	return &st, nil
}
