package core

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jo-hoe/lesionscan/internal/backend/classifier"
	"github.com/jo-hoe/lesionscan/internal/backend/database"
	"github.com/jo-hoe/lesionscan/internal/backend/imageprocessing"
	"github.com/jo-hoe/lesionscan/internal/common"
)

// UploadedImage is the transient payload of one prediction request.
type UploadedImage struct {
	Filename    string
	ContentType string `validate:"imagemime"`
	Size        int64  `validate:"max=1000000"`
	Data        []byte
}

type CoreService struct {
	config          *ServiceConfig
	databaseService database.DatabaseService
	classifier      classifier.Classifier
	validator       *common.Validator
	metrics         *metrics
	logger          *zap.Logger
	now             func() time.Time
}

// Initialize is the readiness gate: it loads the model and opens the store
// concurrently and returns an error if either is unavailable. The caller
// must not serve traffic without a CoreService.
func Initialize(ctx context.Context, config *ServiceConfig, logger *zap.Logger, registerer prometheus.Registerer) (*CoreService, error) {
	var model *classifier.ONNXClassifier
	var databaseService database.DatabaseService

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		loadCtx, cancel := context.WithTimeout(groupCtx, config.Model.LoadTimeout)
		defer cancel()

		var err error
		model, err = classifier.Load(loadCtx, config.Model.classifierConfig(), logger)
		if err != nil {
			return fmt.Errorf("model is not available: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		databaseCtx, cancel := context.WithTimeout(groupCtx, config.Database.Timeout)
		defer cancel()

		var err error
		databaseService, err = database.NewDatabase(databaseCtx, config.Database.databaseConfig(), logger.Named("database"))
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		logger.Info("database initialized successfully", zap.String("type", config.Database.Type))
		return nil
	})

	if err := group.Wait(); err != nil {
		if model != nil {
			_ = model.Close()
		}
		if databaseService != nil {
			_ = databaseService.Close()
		}
		return nil, err
	}

	return NewCoreService(config, databaseService, model, logger, registerer), nil
}

// NewCoreService wires already initialised collaborators.
func NewCoreService(config *ServiceConfig, databaseService database.DatabaseService, model classifier.Classifier, logger *zap.Logger, registerer prometheus.Registerer) *CoreService {
	return &CoreService{
		config:          config,
		databaseService: databaseService,
		classifier:      model,
		validator:       common.NewValidator(),
		metrics:         newMetrics(registerer),
		logger:          logger.Named("core"),
		now:             time.Now,
	}
}

// Predict validates, decodes, scores, interprets and persists one upload.
// Every stage either completes or the request fails; a store failure after a
// successful score fails the whole request.
func (service *CoreService) Predict(ctx context.Context, upload *UploadedImage) (*database.Prediction, error) {
	if upload == nil {
		return nil, service.rejected(FileNotProvided())
	}
	logger := service.logger.With(zap.String("filename", upload.Filename), zap.Int64("size", upload.Size))

	if err := service.validateUpload(upload); err != nil {
		return nil, service.rejected(err)
	}

	tensor, err := imageprocessing.Decode(upload.Data)
	if err != nil {
		return nil, service.rejected(newValidationError(http.StatusBadRequest, MsgUndecodable, err))
	}

	score, err := service.score(ctx, tensor)
	if err != nil {
		service.metrics.failures.WithLabelValues("internal").Inc()
		logger.Error("Predict: scoring failed", zap.String("kind", "internal"), zap.Error(err))
		return nil, &InternalError{Message: MsgInternal, Err: err}
	}

	verdict := Interpret(score)
	logger.Debug("Predict: image scored", zap.Float32("score", score), zap.String("result", verdict.Label))

	prediction, err := database.NewPrediction(verdict.Label, verdict.Suggestion, service.now())
	if err != nil {
		service.metrics.failures.WithLabelValues("internal").Inc()
		logger.Error("Predict: failed to assemble record", zap.String("kind", "internal"), zap.Error(err))
		return nil, &InternalError{Message: MsgInternal, Err: err}
	}

	if err := service.persist(ctx, prediction); err != nil {
		service.metrics.failures.WithLabelValues("persistence").Inc()
		logger.Error("Predict: failed to store prediction",
			zap.String("kind", "persistence"), zap.String("id", prediction.ID), zap.Error(err))
		return nil, err
	}

	service.metrics.predictions.WithLabelValues(prediction.Result).Inc()
	logger.Info("Predict: prediction stored", zap.String("id", prediction.ID), zap.String("result", prediction.Result))
	return prediction, nil
}

// Histories lists every stored prediction.
func (service *CoreService) Histories(ctx context.Context) ([]*database.Prediction, error) {
	ctx, cancel := context.WithTimeout(ctx, service.config.Database.Timeout)
	defer cancel()

	predictions, err := service.databaseService.GetAllPredictions(ctx)
	if err != nil {
		err = asPersistenceError("list", err)
		service.logger.Error("Histories: failed to list predictions", zap.String("kind", "persistence"), zap.Error(err))
		return nil, err
	}
	return predictions, nil
}

// Ready reports whether the store answers.
func (service *CoreService) Ready(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, service.config.Database.Timeout)
	defer cancel()
	return service.databaseService.DoesDatabaseExist(ctx)
}

func (service *CoreService) Close() error {
	return errors.Join(service.classifier.Close(), service.databaseService.Close())
}

// validateUpload checks size before type so that an oversized non-image
// is reported as too large.
func (service *CoreService) validateUpload(upload *UploadedImage) *ValidationError {
	check := *upload
	if n := int64(len(check.Data)); n > check.Size {
		check.Size = n
	}

	err := service.validator.Struct(check)
	if err == nil {
		return nil
	}
	failed := common.FailedFields(err)
	switch {
	case slices.Contains(failed, "Size"):
		return newValidationError(http.StatusRequestEntityTooLarge, MsgPayloadTooLarge, err)
	case slices.Contains(failed, "ContentType"):
		return newValidationError(http.StatusBadRequest, MsgNotAnImage, err)
	default:
		return newValidationError(http.StatusBadRequest, MsgUndecodable, err)
	}
}

func (service *CoreService) score(ctx context.Context, tensor *imageprocessing.Tensor) (float32, error) {
	start := time.Now()
	defer func() {
		service.metrics.inference.Observe(time.Since(start).Seconds())
	}()
	return service.classifier.Score(ctx, tensor)
}

func (service *CoreService) persist(ctx context.Context, prediction *database.Prediction) error {
	ctx, cancel := context.WithTimeout(ctx, service.config.Database.Timeout)
	defer cancel()
	return asPersistenceError("put", service.databaseService.CreatePrediction(ctx, prediction))
}

func (service *CoreService) rejected(err *ValidationError) error {
	service.metrics.failures.WithLabelValues("validation").Inc()
	service.logger.Info("Predict: request rejected", zap.Int("status", err.Status), zap.Error(err))
	return err
}

func asPersistenceError(op string, err error) error {
	if err == nil {
		return nil
	}
	var persistenceErr *database.PersistenceError
	if errors.As(err, &persistenceErr) {
		return err
	}
	return &database.PersistenceError{Op: op, Err: err}
}
