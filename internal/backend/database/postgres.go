package database

import (
	"context"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresDatabase struct {
	pool  *pgxpool.Pool
	table string
}

// predictionColumns are the db tags of Prediction, in insert order.
const predictionColumns = "id, result, suggestion, created_at"

func NewPostgresDatabase(ctx context.Context, connectionString, table string) (DatabaseService, error) {
	if err := validateCollection(table); err != nil {
		return nil, err
	}
	pool, err := pgxpool.New(ctx, connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}
	return &PostgresDatabase{pool: pool, table: table}, nil
}

func (p *PostgresDatabase) CreateDatabase(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id TEXT PRIMARY KEY,
		result TEXT NOT NULL,
		suggestion TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`, p.table))
	return persistenceError("create schema", err)
}

func (p *PostgresDatabase) DoesDatabaseExist(ctx context.Context) bool {
	return p.pool.Ping(ctx) == nil
}

func (p *PostgresDatabase) Close() error {
	p.pool.Close()
	return nil
}

func (p *PostgresDatabase) CreatePrediction(ctx context.Context, prediction *Prediction) error {
	if err := prediction.Validate(); err != nil {
		return persistenceError("put", err)
	}
	_, err := p.pool.Exec(ctx,
		fmt.Sprintf("INSERT INTO %s (%s) VALUES ($1, $2, $3, $4)", p.table, predictionColumns),
		prediction.ID, prediction.Result, prediction.Suggestion, NormalizeTime(prediction.CreatedAt))
	return persistenceError("put", err)
}

func (p *PostgresDatabase) GetAllPredictions(ctx context.Context) ([]*Prediction, error) {
	predictions := make([]*Prediction, 0)
	err := pgxscan.Select(ctx, p.pool, &predictions,
		fmt.Sprintf("SELECT %s FROM %s", predictionColumns, p.table))
	if err != nil {
		return nil, persistenceError("list", err)
	}

	for _, prediction := range predictions {
		prediction.CreatedAt = NormalizeTime(prediction.CreatedAt)
	}
	return predictions, nil
}
