package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// FirestoreDatabase stores one document per prediction, keyed by the
// prediction ID. createdAt is written as an ISO-8601 string so documents stay
// readable by clients of the original service.
type FirestoreDatabase struct {
	client     *firestore.Client
	collection string
}

func NewFirestoreDatabase(ctx context.Context, projectID, credentialsFile, collection string) (DatabaseService, error) {
	if err := validateCollection(collection); err != nil {
		return nil, err
	}

	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	var conf *firebase.Config
	if projectID != "" {
		conf = &firebase.Config{ProjectID: projectID}
	}

	app, err := firebase.NewApp(ctx, conf, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}
	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}

	return &FirestoreDatabase{
		client:     client,
		collection: collection,
	}, nil
}

func (f *FirestoreDatabase) CreateDatabase(ctx context.Context) error {
	// Collections come into existence with their first document.
	return nil
}

func (f *FirestoreDatabase) DoesDatabaseExist(ctx context.Context) bool {
	_, err := f.client.Collection(f.collection).Limit(1).Documents(ctx).GetAll()
	return err == nil
}

func (f *FirestoreDatabase) Close() error {
	return f.client.Close()
}

func (f *FirestoreDatabase) CreatePrediction(ctx context.Context, prediction *Prediction) error {
	if err := prediction.Validate(); err != nil {
		return persistenceError("put", err)
	}
	_, err := f.client.Collection(f.collection).Doc(prediction.ID).Create(ctx, predictionToFirestore(prediction))
	return persistenceError("put", err)
}

func (f *FirestoreDatabase) GetAllPredictions(ctx context.Context) ([]*Prediction, error) {
	iter := f.client.Collection(f.collection).Documents(ctx)
	defer iter.Stop()

	predictions := make([]*Prediction, 0)
	for {
		snapshot, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, persistenceError("list", err)
		}
		prediction, err := predictionFromFirestore(snapshot.Ref.ID, snapshot.Data())
		if err != nil {
			return nil, persistenceError("list", err)
		}
		predictions = append(predictions, prediction)
	}
	return predictions, nil
}

func predictionToFirestore(p *Prediction) map[string]any {
	return map[string]any{
		"id":         p.ID,
		"result":     p.Result,
		"suggestion": p.Suggestion,
		"createdAt":  formatCreatedAt(p.CreatedAt),
	}
}

// predictionFromFirestore accepts createdAt either as a string or as a native
// timestamp. Documents lacking an id field fall back to the document ID.
func predictionFromFirestore(docID string, data map[string]any) (*Prediction, error) {
	p := &Prediction{ID: docID}
	if id, ok := data["id"].(string); ok && id != "" {
		p.ID = id
	}
	p.Result, _ = data["result"].(string)
	p.Suggestion, _ = data["suggestion"].(string)

	switch v := data["createdAt"].(type) {
	case string:
		createdAt, err := parseCreatedAt(v)
		if err != nil {
			return nil, fmt.Errorf("document %s: %w", docID, err)
		}
		p.CreatedAt = createdAt
	case time.Time:
		p.CreatedAt = NormalizeTime(v)
	default:
		return nil, fmt.Errorf("document %s: unsupported createdAt type %T", docID, v)
	}
	return p, nil
}
