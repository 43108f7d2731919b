package database

import (
	"testing"
	"time"
)

func Test_predictionFirestoreMapping(t *testing.T) {
	p := &Prediction{
		ID:         "abc",
		Result:     "Cancer",
		Suggestion: "Segera periksa ke dokter!",
		CreatedAt:  time.Date(2024, 5, 1, 10, 11, 12, 345000000, time.UTC),
	}

	data := predictionToFirestore(p)
	if data["createdAt"] != "2024-05-01T10:11:12.345Z" {
		t.Fatalf("unexpected createdAt encoding %v", data["createdAt"])
	}

	got, err := predictionFromFirestore("abc", data)
	if err != nil {
		t.Fatalf("predictionFromFirestore error: %v", err)
	}
	if got.ID != p.ID || got.Result != p.Result || got.Suggestion != p.Suggestion || !got.CreatedAt.Equal(p.CreatedAt) {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, p)
	}
}

func Test_predictionFromFirestore_NativeTimestamp(t *testing.T) {
	ts := time.Date(2024, 5, 1, 10, 11, 12, 345678000, time.UTC)
	got, err := predictionFromFirestore("doc-id", map[string]any{
		"result":     "Non-cancer",
		"suggestion": "Penyakit kanker tidak terdeteksi.",
		"createdAt":  ts,
	})
	if err != nil {
		t.Fatalf("predictionFromFirestore error: %v", err)
	}
	if got.ID != "doc-id" {
		t.Errorf("expected document id fallback, got %q", got.ID)
	}
	if !got.CreatedAt.Equal(ts.Truncate(time.Millisecond)) {
		t.Errorf("unexpected createdAt %v", got.CreatedAt)
	}
}

func Test_predictionFromFirestore_BadCreatedAt(t *testing.T) {
	if _, err := predictionFromFirestore("x", map[string]any{"createdAt": 42}); err == nil {
		t.Errorf("expected error for numeric createdAt")
	}
	if _, err := predictionFromFirestore("x", map[string]any{"createdAt": "yesterday"}); err == nil {
		t.Errorf("expected error for unparsable createdAt")
	}
}
