package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// RedisDatabase keeps one hash per prediction and a set holding the IDs of the
// collection, both written in a single MULTI/EXEC.
type RedisDatabase struct {
	client     *redis.Client
	collection string
}

func NewRedisDatabase(connectionString, collection string) (DatabaseService, error) {
	if err := validateCollection(collection); err != nil {
		return nil, err
	}
	options, err := redisOptions(connectionString)
	if err != nil {
		return nil, err
	}
	return &RedisDatabase{
		client:     redis.NewClient(options),
		collection: collection,
	}, nil
}

// redisOptions accepts either a redis:// URL or a bare host:port address.
func redisOptions(connectionString string) (*redis.Options, error) {
	if connectionString == "" {
		return nil, fmt.Errorf("redis connection string is empty")
	}
	if !strings.Contains(connectionString, "://") {
		return &redis.Options{Addr: connectionString}, nil
	}
	options, err := redis.ParseURL(connectionString)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	return options, nil
}

func (r *RedisDatabase) idsKey() string {
	return r.collection + ":ids"
}

func (r *RedisDatabase) recordKey(id string) string {
	return r.collection + ":" + id
}

func (r *RedisDatabase) CreateDatabase(ctx context.Context) error {
	// Keys are created lazily; only verify reachability.
	return persistenceError("create schema", r.client.Ping(ctx).Err())
}

func (r *RedisDatabase) DoesDatabaseExist(ctx context.Context) bool {
	return r.client.Ping(ctx).Err() == nil
}

func (r *RedisDatabase) Close() error {
	return r.client.Close()
}

func (r *RedisDatabase) CreatePrediction(ctx context.Context, prediction *Prediction) error {
	if err := prediction.Validate(); err != nil {
		return persistenceError("put", err)
	}

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, r.recordKey(prediction.ID), map[string]any{
			"id":         prediction.ID,
			"result":     prediction.Result,
			"suggestion": prediction.Suggestion,
			"createdAt":  formatCreatedAt(prediction.CreatedAt),
		})
		pipe.SAdd(ctx, r.idsKey(), prediction.ID)
		return nil
	})
	return persistenceError("put", err)
}

func (r *RedisDatabase) GetAllPredictions(ctx context.Context) ([]*Prediction, error) {
	ids, err := r.client.SMembers(ctx, r.idsKey()).Result()
	if err != nil {
		return nil, persistenceError("list", err)
	}

	predictions := make([]*Prediction, 0, len(ids))
	if len(ids) == 0 {
		return predictions, nil
	}

	pipe := r.client.Pipeline()
	commands := make([]*redis.MapStringStringCmd, len(ids))
	for i, id := range ids {
		commands[i] = pipe.HGetAll(ctx, r.recordKey(id))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, persistenceError("list", err)
	}

	for _, cmd := range commands {
		fields := cmd.Val()
		if len(fields) == 0 {
			continue
		}
		createdAt, err := parseCreatedAt(fields["createdAt"])
		if err != nil {
			return nil, persistenceError("list", err)
		}
		predictions = append(predictions, &Prediction{
			ID:         fields["id"],
			Result:     fields["result"],
			Suggestion: fields["suggestion"],
			CreatedAt:  createdAt,
		})
	}
	return predictions, nil
}
