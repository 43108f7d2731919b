package database

import (
	"context"
	"fmt"
	"regexp"

	"go.uber.org/zap"
)

type Config struct {
	Type             string
	ConnectionString string
	Collection       string
	CredentialsFile  string
}

func NewDatabase(ctx context.Context, config Config, logger *zap.Logger) (database DatabaseService, err error) {
	collection := config.Collection
	if collection == "" {
		collection = DefaultCollection
	}

	switch config.Type {
	case "sqlite":
		database, err = NewSQLiteDatabase(config.ConnectionString, collection)
	case "redis":
		database, err = NewRedisDatabase(config.ConnectionString, collection)
	case "firestore":
		database, err = NewFirestoreDatabase(ctx, config.ConnectionString, config.CredentialsFile, collection)
	case "postgres":
		database, err = NewPostgresDatabase(ctx, config.ConnectionString, collection)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	// Ensure the schema exists (idempotent), important for in-memory SQLite
	logger.Info("initializing database schema",
		zap.String("type", config.Type), zap.String("collection", collection))
	if err = database.CreateDatabase(ctx); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("failed to create database: %w", err)
	}

	return database, nil
}

// SupportedTypes lists the values accepted for Config.Type.
func SupportedTypes() []string {
	return []string{"sqlite", "redis", "firestore", "postgres"}
}

var collectionPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// validateCollection guards names that end up inside SQL statements and keys.
func validateCollection(collection string) error {
	if !collectionPattern.MatchString(collection) {
		return fmt.Errorf("invalid collection name %q", collection)
	}
	return nil
}
