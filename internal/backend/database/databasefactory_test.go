package database

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"go.uber.org/zap"
)

func TestNewDatabase_SQLite(t *testing.T) {
	ds, err := NewDatabase(context.Background(), Config{Type: "sqlite", ConnectionString: ":memory:"}, zap.NewNop())
	if err != nil {
		t.Fatalf("NewDatabase error: %v", err)
	}
	t.Cleanup(func() { _ = ds.Close() })

	// schema must exist without an explicit CreateDatabase call
	if _, err := ds.GetAllPredictions(context.Background()); err != nil {
		t.Fatalf("GetAllPredictions error: %v", err)
	}
}

func TestNewDatabase_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	ds, err := NewDatabase(context.Background(), Config{Type: "redis", ConnectionString: mr.Addr(), Collection: "histories"}, zap.NewNop())
	if err != nil {
		t.Fatalf("NewDatabase error: %v", err)
	}
	t.Cleanup(func() { _ = ds.Close() })

	if !ds.DoesDatabaseExist(context.Background()) {
		t.Fatalf("expected redis database to be reachable")
	}
}

func TestNewDatabase_Unsupported(t *testing.T) {
	if _, err := NewDatabase(context.Background(), Config{Type: "mongodb"}, zap.NewNop()); err == nil {
		t.Fatalf("expected error for unsupported database type")
	}
}

func TestNewDatabase_UnreachableRedisFailsFast(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	if _, err := NewDatabase(context.Background(), Config{Type: "redis", ConnectionString: addr}, zap.NewNop()); err == nil {
		t.Fatalf("expected error for unreachable redis")
	}
}
