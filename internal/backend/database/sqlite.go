package database

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

type SQLiteDatabase struct {
	db               *sql.DB
	connectionString string
	table            string
}

func NewSQLiteDatabase(connectionString, table string) (DatabaseService, error) {
	if err := validateCollection(table); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", connectionString)
	if err != nil {
		return nil, err
	}
	// A second connection to ":memory:" would see an empty database.
	db.SetMaxOpenConns(1)

	return &SQLiteDatabase{
		db:               db,
		connectionString: connectionString,
		table:            table,
	}, nil
}

func (s *SQLiteDatabase) CreateDatabase(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id TEXT PRIMARY KEY,
		result TEXT NOT NULL,
		suggestion TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`, s.table))
	return persistenceError("create schema", err)
}

func (s *SQLiteDatabase) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteDatabase) DoesDatabaseExist(ctx context.Context) bool {
	// In SQLite, the database file is created when you connect to it.
	// So we can assume it exists if we can successfully ping the database.
	err := s.db.PingContext(ctx)
	return err == nil
}

func (s *SQLiteDatabase) CreatePrediction(ctx context.Context, prediction *Prediction) error {
	if err := prediction.Validate(); err != nil {
		return persistenceError("put", err)
	}

	_, err := s.db.ExecContext(ctx,
		fmt.Sprintf("INSERT INTO %s (id, result, suggestion, created_at) VALUES (?, ?, ?, ?)", s.table),
		prediction.ID, prediction.Result, prediction.Suggestion, formatCreatedAt(prediction.CreatedAt))
	return persistenceError("put", err)
}

func (s *SQLiteDatabase) GetAllPredictions(ctx context.Context) ([]*Prediction, error) {
	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf("SELECT id, result, suggestion, created_at FROM %s", s.table))
	if err != nil {
		return nil, persistenceError("list", err)
	}
	defer func() {
		_ = rows.Close() // Explicitly ignore error as we're already returning an error from the function
	}()

	predictions := make([]*Prediction, 0)
	for rows.Next() {
		var p Prediction
		var createdAt string
		if err := rows.Scan(&p.ID, &p.Result, &p.Suggestion, &createdAt); err != nil {
			return nil, persistenceError("list", err)
		}
		if p.CreatedAt, err = parseCreatedAt(createdAt); err != nil {
			return nil, persistenceError("list", err)
		}
		predictions = append(predictions, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, persistenceError("list", err)
	}
	return predictions, nil
}
