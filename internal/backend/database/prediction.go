package database

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	// DefaultCollection is the single logical collection all backends write to.
	DefaultCollection = "predictions"

	createdAtLayout = "2006-01-02T15:04:05.000Z07:00"
)

type Prediction struct {
	ID         string    `json:"id" db:"id"`
	Result     string    `json:"result" db:"result"`
	Suggestion string    `json:"suggestion" db:"suggestion"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}

// NewPrediction assembles a record with a generated ID. CreatedAt is normalised
// to UTC millisecond precision so that every backend round-trips it unchanged.
func NewPrediction(result, suggestion string, createdAt time.Time) (*Prediction, error) {
	id, err := generateID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate prediction id: %w", err)
	}
	return &Prediction{
		ID:         id,
		Result:     result,
		Suggestion: suggestion,
		CreatedAt:  NormalizeTime(createdAt),
	}, nil
}

func NormalizeTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}

// Validate reports whether all four fields are populated.
func (p *Prediction) Validate() error {
	switch {
	case p == nil:
		return fmt.Errorf("prediction is nil")
	case p.ID == "":
		return fmt.Errorf("prediction id is empty")
	case p.Result == "":
		return fmt.Errorf("prediction %s has no result", p.ID)
	case p.Suggestion == "":
		return fmt.Errorf("prediction %s has no suggestion", p.ID)
	case p.CreatedAt.IsZero():
		return fmt.Errorf("prediction %s has no creation time", p.ID)
	}
	return nil
}

func formatCreatedAt(t time.Time) string {
	return NormalizeTime(t).Format(createdAtLayout)
}

func parseCreatedAt(value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid createdAt %q: %w", value, err)
	}
	return NormalizeTime(t), nil
}

// MarshalJSON renders CreatedAt with a fixed three digit fraction, e.g.
// 2024-05-01T10:11:12.345Z.
func (p Prediction) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID         string `json:"id"`
		Result     string `json:"result"`
		Suggestion string `json:"suggestion"`
		CreatedAt  string `json:"createdAt"`
	}{
		ID:         p.ID,
		Result:     p.Result,
		Suggestion: p.Suggestion,
		CreatedAt:  formatCreatedAt(p.CreatedAt),
	})
}
