package database

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestDB(t *testing.T) DatabaseService {
	t.Helper()

	ds, err := NewSQLiteDatabase(":memory:", DefaultCollection)
	if err != nil {
		t.Fatalf("NewSQLiteDatabase error: %v", err)
	}
	if err := ds.CreateDatabase(context.Background()); err != nil {
		t.Fatalf("CreateDatabase error: %v", err)
	}
	t.Cleanup(func() { _ = ds.Close() })
	return ds
}

func newTestPrediction(t *testing.T, result string) *Prediction {
	t.Helper()
	p, err := NewPrediction(result, "suggestion for "+result, time.Now())
	if err != nil {
		t.Fatalf("NewPrediction error: %v", err)
	}
	return p
}

// assertRoundTrip checks that every written prediction is listed exactly once
// with identical field values.
func assertRoundTrip(t *testing.T, written []*Prediction, listed []*Prediction) {
	t.Helper()
	if len(listed) != len(written) {
		t.Fatalf("expected %d predictions, got %d", len(written), len(listed))
	}
	byID := make(map[string]*Prediction, len(listed))
	for _, p := range listed {
		if _, dup := byID[p.ID]; dup {
			t.Fatalf("prediction %s listed twice", p.ID)
		}
		byID[p.ID] = p
	}
	for _, w := range written {
		got, ok := byID[w.ID]
		if !ok {
			t.Fatalf("prediction %s missing from listing", w.ID)
		}
		if got.Result != w.Result || got.Suggestion != w.Suggestion || !got.CreatedAt.Equal(w.CreatedAt) {
			t.Errorf("prediction %s mismatch: got %+v, want %+v", w.ID, got, w)
		}
	}
}

func TestSQLite_DoesDatabaseExist(t *testing.T) {
	ds := newTestDB(t)
	if !ds.DoesDatabaseExist(context.Background()) {
		t.Fatalf("expected DoesDatabaseExist to return true")
	}
}

func TestSQLite_EmptyStore(t *testing.T) {
	ds := newTestDB(t)

	predictions, err := ds.GetAllPredictions(context.Background())
	if err != nil {
		t.Fatalf("GetAllPredictions error: %v", err)
	}
	if predictions == nil {
		t.Fatalf("expected empty non-nil slice")
	}
	if len(predictions) != 0 {
		t.Fatalf("expected no predictions, got %d", len(predictions))
	}
}

func TestSQLite_RoundTrip(t *testing.T) {
	ds := newTestDB(t)
	ctx := context.Background()

	written := []*Prediction{
		newTestPrediction(t, "Cancer"),
		newTestPrediction(t, "Non-cancer"),
		newTestPrediction(t, "Cancer"),
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

func TestSQLite_DuplicateIDIsPersistenceError(t *testing.T) {
	ds := newTestDB(t)
	ctx := context.Background()

	p := newTestPrediction(t, "Cancer")
	if err := ds.CreatePrediction(ctx, p); err != nil {
		t.Fatalf("CreatePrediction error: %v", err)
	}
	err := ds.CreatePrediction(ctx, p)

	var persistenceErr *PersistenceError
	if !errors.As(err, &persistenceErr) {
		t.Fatalf("expected PersistenceError, got %v", err)
	}
	if persistenceErr.Op != "put" {
		t.Errorf("expected op put, got %q", persistenceErr.Op)
	}
}

func TestSQLite_RejectsPartialRecord(t *testing.T) {
	ds := newTestDB(t)
	ctx := context.Background()

	p := newTestPrediction(t, "Cancer")
	p.Suggestion = ""
	if err := ds.CreatePrediction(ctx, p); err == nil {
		t.Fatalf("expected error for partial record")
	}

	predictions, err := ds.GetAllPredictions(ctx)
	if err != nil {
		t.Fatalf("GetAllPredictions error: %v", err)
	}
	if len(predictions) != 0 {
		t.Fatalf("expected partial record not to be written, got %d rows", len(predictions))
	}
}

func TestSQLite_ClosedDatabaseFails(t *testing.T) {
	ds, err := NewSQLiteDatabase(":memory:", DefaultCollection)
	if err != nil {
		t.Fatalf("NewSQLiteDatabase error: %v", err)
	}
	_ = ds.Close()

	_, err = ds.GetAllPredictions(context.Background())
	var persistenceErr *PersistenceError
	if !errors.As(err, &persistenceErr) {
		t.Fatalf("expected PersistenceError, got %v", err)
	}
}

func TestSQLite_InvalidTableName(t *testing.T) {
	if _, err := NewSQLiteDatabase(":memory:", "predictions; DROP TABLE x"); err == nil {
		t.Fatalf("expected error for invalid table name")
	}
}
