package database

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
)

func newTestRedis(t *testing.T) (DatabaseService, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	ds, err := NewRedisDatabase("redis://"+mr.Addr(), DefaultCollection)
	if err != nil {
		t.Fatalf("NewRedisDatabase error: %v", err)
	}
	if err := ds.CreateDatabase(context.Background()); err != nil {
		t.Fatalf("CreateDatabase error: %v", err)
	}
	t.Cleanup(func() { _ = ds.Close() })
	return ds, mr
}

func TestRedis_RoundTrip(t *testing.T) {
	ds, _ := newTestRedis(t)
	ctx := context.Background()

	written := []*Prediction{
		newTestPrediction(t, "Cancer"),
		newTestPrediction(t, "Non-cancer"),
	}
	for _, p := range written {
		if err := ds.CreatePrediction(ctx, p); err != nil {
			t.Fatalf("CreatePrediction error: %v", err)
		}
	}

	listed, err := ds.GetAllPredictions(ctx)
	if err != nil {
		t.Fatalf("GetAllPredictions error: %v", err)
	}
	assertRoundTrip(t, written, listed)
}

func TestRedis_EmptyStore(t *testing.T) {
	ds, _ := newTestRedis(t)

	predictions, err := ds.GetAllPredictions(context.Background())
	if err != nil {
		t.Fatalf("GetAllPredictions error: %v", err)
	}
	if predictions == nil || len(predictions) != 0 {
		t.Fatalf("expected empty non-nil slice, got %v", predictions)
	}
}

func TestRedis_KeysAreScopedToCollection(t *testing.T) {
	ds, mr := newTestRedis(t)
	p := newTestPrediction(t, "Cancer")
	if err := ds.CreatePrediction(context.Background(), p); err != nil {
		t.Fatalf("CreatePrediction error: %v", err)
	}

	if !mr.Exists(DefaultCollection + ":" + p.ID) {
		t.Errorf("expected hash key for prediction %s", p.ID)
	}
	isMember, err := mr.SIsMember(DefaultCollection+":ids", p.ID)
	if err != nil {
		t.Fatalf("SIsMember error: %v", err)
	}
	if !isMember {
		t.Errorf("expected %s in id set", p.ID)
	}
}

func TestRedis_UnavailableServer(t *testing.T) {
	ds, mr := newTestRedis(t)
	mr.Close()

	ctx := context.Background()
	if ds.DoesDatabaseExist(ctx) {
		t.Errorf("expected DoesDatabaseExist to be false after shutdown")
	}
	if err := ds.CreatePrediction(ctx, newTestPrediction(t, "Cancer")); err == nil {
		t.Fatalf("expected error writing to stopped server")
	}
}

func Test_redisOptions(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantAddr string
		wantErr  bool
	}{
		{"bare address", "localhost:6379", "localhost:6379", false},
		{"url", "redis://localhost:6380/2", "localhost:6380", false},
		{"empty", "", "", true},
		{"bad scheme", "http://localhost:6379", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := redisOptions(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("redisOptions(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err == nil && opts.Addr != tt.wantAddr {
				t.Errorf("redisOptions(%q).Addr = %q, want %q", tt.input, opts.Addr, tt.wantAddr)
			}
		})
	}
}
