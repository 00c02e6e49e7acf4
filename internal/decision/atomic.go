package decision

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RedisStore implements Store using Redis SETNX for atomic first-write-wins,
// so concurrent evaluation workers sharing one cache never race on a key.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Redis-backed decision store.
func NewRedisStore(addr, password string, db int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return &RedisStore{client: client}, nil
}

func (r *RedisStore) Get(ctx context.Context, key string) (*Decision, error) {
	data, err := r.client.Get(ctx, "autoais:"+key).Result()
	if err == redis.Nil {
		return nil, nil // not found
	}
	if err != nil {
		return nil, fmt.Errorf("redis GET failed: %w", err)
	}

	var d Decision
	if err := json.Unmarshal([]byte(data), &d); err != nil {
		return nil, fmt.Errorf("failed to unmarshal decision: %w", err)
	}
	return &d, nil
}

func (r *RedisStore) Set(ctx context.Context, key string, d *Decision, ttl time.Duration) error {
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to marshal decision: %w", err)
	}

	// SETNX with TTL: losing a concurrent write race is fine, the stored
	// decision for a given query hash is equivalent.
	if _, err := r.client.SetNX(ctx, "autoais:"+key, data, ttl).Result(); err != nil {
		return fmt.Errorf("redis SETNX failed: %w", err)
	}
	return nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}

// PostgresStore implements Store using Postgres ON CONFLICT DO NOTHING.
//
// Schema:
//
//	CREATE TABLE autoais_decisions (
//	  query_hash VARCHAR(64) PRIMARY KEY,
//	  decision JSONB NOT NULL,
//	  expires_at TIMESTAMP NOT NULL,
//	  created_at TIMESTAMP DEFAULT NOW()
//	);
//	CREATE INDEX idx_autoais_decisions_expires ON autoais_decisions(expires_at);
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a Postgres-backed decision store.
func NewPostgresStore(connStr string) (*PostgresStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (p *PostgresStore) Get(ctx context.Context, key string) (*Decision, error) {
	query := `
		SELECT decision
		FROM autoais_decisions
		WHERE query_hash = $1 AND expires_at > NOW()
	`

	var decisionJSON []byte
	err := p.pool.QueryRow(ctx, query, key).Scan(&decisionJSON)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // not found or expired
		}
		return nil, fmt.Errorf("postgres query failed: %w", err)
	}

	var d Decision
	if err := json.Unmarshal(decisionJSON, &d); err != nil {
		return nil, fmt.Errorf("failed to unmarshal decision: %w", err)
	}
	return &d, nil
}

func (p *PostgresStore) Set(ctx context.Context, key string, d *Decision, ttl time.Duration) error {
	decisionJSON, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to marshal decision: %w", err)
	}

	query := `
		INSERT INTO autoais_decisions (query_hash, decision, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (query_hash) DO NOTHING
	`

	if _, err := p.pool.Exec(ctx, query, key, decisionJSON, time.Now().Add(ttl)); err != nil {
		return fmt.Errorf("postgres insert failed: %w", err)
	}
	return nil
}

func (p *PostgresStore) Close() error {
	p.pool.Close()
	return nil
}

// CleanupExpired removes expired decisions (maintenance cron job).
func (p *PostgresStore) CleanupExpired(ctx context.Context) (int64, error) {
	result, err := p.pool.Exec(ctx, `DELETE FROM autoais_decisions WHERE expires_at <= NOW()`)
	if err != nil {
		return 0, fmt.Errorf("cleanup failed: %w", err)
	}
	return result.RowsAffected(), nil
}
