package database

import "context"

type DatabaseService interface {
	CreateDatabase(ctx context.Context) error
	DoesDatabaseExist(ctx context.Context) bool
	Close() error

	// CreatePrediction stores a fully formed prediction keyed by its ID.
	// Records are written once and never updated.
	CreatePrediction(ctx context.Context, prediction *Prediction) error
	// GetAllPredictions returns every stored prediction. The order is not meaningful
	// and an empty store yields an empty slice.
	GetAllPredictions(ctx context.Context) ([]*Prediction, error)
}
