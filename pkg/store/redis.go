package store

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/archivis/archivis/pkg/errors"
	"github.com/archivis/archivis/pkg/ir"
)

// Redis persists chains in redis. Each version lives under its own key and
// a per-diagram head counter serializes writers: Put only succeeds when the
// head moves from exactly v-1 to v inside a transaction.
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis connects a redis-backed store. prefix namespaces all keys and
// may be empty.
func NewRedis(addr, password string, db int, prefix string) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeStore, err, "connect redis at %s", addr)
	}
	if prefix == "" {
		prefix = "archivis"
	}
	return &Redis{client: client, prefix: prefix}, nil
}

func (s *Redis) headKey(diagramID string) string {
	return fmt.Sprintf("%s:head:%s", s.prefix, diagramID)
}

func (s *Redis) versionKey(diagramID string, version int) string {
	return fmt.Sprintf("%s:ir:%s:v%d", s.prefix, diagramID, version)
}

func (s *Redis) Put(ctx context.Context, v ir.Version) error {
	data, err := ir.Marshal(v)
	if err != nil {
		return err
	}

	headKey := s.headKey(v.DiagramID)
	txn := func(tx *redis.Tx) error {
		head, err := tx.Get(ctx, headKey).Int()
		if err != nil && err != redis.Nil {
			return apperrors.Wrap(apperrors.ErrCodeStore, err, "read head for %s", v.DiagramID)
		}
		if v.IRVersion != head+1 {
			return apperrors.New(apperrors.ErrCodeStoreConflict,
				"diagram %s: version %d conflicts with head %d", v.DiagramID, v.IRVersion, head)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, s.versionKey(v.DiagramID, v.IRVersion), data, 0)
			pipe.Set(ctx, headKey, v.IRVersion, 0)
			return nil
		})
		return err
	}

	err = s.client.Watch(ctx, txn, headKey)
	if err == redis.TxFailedErr {
		return apperrors.New(apperrors.ErrCodeStoreConflict,
			"diagram %s: concurrent write detected", v.DiagramID)
	}
	return err
}

func (s *Redis) Get(ctx context.Context, diagramID string, version int) (ir.Version, error) {
	data, err := s.client.Get(ctx, s.versionKey(diagramID, version)).Bytes()
	if err == redis.Nil {
		return ir.Version{}, apperrors.New(apperrors.ErrCodeNotFound,
			"diagram %s has no version %d", diagramID, version)
	}
	if err != nil {
		return ir.Version{}, apperrors.Wrap(apperrors.ErrCodeStore, err, "read version")
	}
	return ir.Unmarshal(data)
}

func (s *Redis) Head(ctx context.Context, diagramID string) (ir.Version, error) {
	head, err := s.client.Get(ctx, s.headKey(diagramID)).Int()
	if err == redis.Nil || head == 0 {
		return ir.Version{}, apperrors.New(apperrors.ErrCodeNotFound, "diagram %s not found", diagramID)
	}
	if err != nil {
		return ir.Version{}, apperrors.Wrap(apperrors.ErrCodeStore, err, "read head")
	}
	return s.Get(ctx, diagramID, head)
}

func (s *Redis) History(ctx context.Context, diagramID string) ([]ir.Version, error) {
	head, err := s.client.Get(ctx, s.headKey(diagramID)).Int()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeStore, err, "read head")
	}

	out := make([]ir.Version, 0, head)
	for n := 1; n <= head; n++ {
		v, err := s.Get(ctx, diagramID, n)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (s *Redis) Delete(ctx context.Context, diagramID string) error {
	head, err := s.client.Get(ctx, s.headKey(diagramID)).Int()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeStore, err, "read head")
	}

	keys := make([]string, 0, head+1)
	for n := 1; n <= head; n++ {
		keys = append(keys, s.versionKey(diagramID, n))
	}
	keys = append(keys, s.headKey(diagramID))
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeStore, err, "delete diagram keys")
	}
	return nil
}

func (s *Redis) Close(context.Context) error {
	return s.client.Close()
}

var _ Store = (*Redis)(nil)
