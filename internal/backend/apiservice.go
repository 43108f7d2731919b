package backend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/jo-hoe/lesionscan/internal/backend/database"
	"github.com/jo-hoe/lesionscan/internal/common"
	"github.com/jo-hoe/lesionscan/internal/core"
)

const imageField = "image"

// PredictionService is the part of core.CoreService the HTTP layer needs.
type PredictionService interface {
	Predict(ctx context.Context, upload *core.UploadedImage) (*database.Prediction, error)
	Histories(ctx context.Context) ([]*database.Prediction, error)
	Ready(ctx context.Context) bool
}

type APIService struct {
	service  PredictionService
	gatherer prometheus.Gatherer
	logger   *zap.Logger
}

// HistoryItem is one entry of the histories listing.
type HistoryItem struct {
	ID      string               `json:"id"`
	History *database.Prediction `json:"history"`
}

func NewAPIService(service PredictionService, gatherer prometheus.Gatherer, logger *zap.Logger) *APIService {
	return &APIService{
		service:  service,
		gatherer: gatherer,
		logger:   logger.Named("api"),
	}
}

func (s *APIService) SetRoutes(e *echo.Echo) {
	e.POST("/predict", s.predictHandler)
	e.GET("/predict/histories", s.historiesHandler)

	// Set probe route
	e.GET("/probe", s.probeHandler)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
}

func (s *APIService) predictHandler(ctx echo.Context) error {
	upload, err := s.readUpload(ctx)
	if err != nil {
		return s.fail(ctx, err)
	}

	prediction, err := s.service.Predict(ctx.Request().Context(), upload)
	if err != nil {
		return s.fail(ctx, err)
	}
	return ctx.JSON(http.StatusOK, common.Success(core.MsgPredicted, prediction))
}

func (s *APIService) historiesHandler(ctx echo.Context) error {
	predictions, err := s.service.Histories(ctx.Request().Context())
	if err != nil {
		return s.fail(ctx, err)
	}

	items := make([]HistoryItem, 0, len(predictions))
	for _, prediction := range predictions {
		items = append(items, HistoryItem{ID: prediction.ID, History: prediction})
	}
	// A non-nil empty slice still renders as "data": [].
	return ctx.JSON(http.StatusOK, common.SuccessData(items))
}

func (s *APIService) probeHandler(ctx echo.Context) error {
	if !s.service.Ready(ctx.Request().Context()) {
		return ctx.JSON(http.StatusServiceUnavailable, common.Fail("database unavailable"))
	}
	return ctx.JSON(http.StatusOK, common.Success("ok", nil))
}

// readUpload extracts the single image file of a multipart request. A
// request without the field yields a nil upload.
func (s *APIService) readUpload(ctx echo.Context) (*core.UploadedImage, error) {
	form, err := ctx.MultipartForm()
	if err != nil {
		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) {
			return nil, httpErr
		}
		if isBodyTooLarge(err) {
			return nil, echo.ErrStatusRequestEntityTooLarge
		}
		s.logger.Debug("readUpload: request carries no multipart form", zap.Error(err))
		return nil, nil
	}

	files := form.File[imageField]
	switch {
	case len(files) == 0:
		return nil, nil
	case len(files) > 1:
		return nil, core.MultipleFiles()
	}
	return readFile(files[0])
}

func readFile(header *multipart.FileHeader) (*core.UploadedImage, error) {
	src, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer func() { _ = src.Close() }()

	// One byte past the limit is enough to tell that the upload is too large.
	data, err := io.ReadAll(io.LimitReader(src, core.MaxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read uploaded file: %w", err)
	}

	size := header.Size
	if n := int64(len(data)); n > size {
		size = n
	}
	return &core.UploadedImage{
		Filename:    header.Filename,
		ContentType: header.Header.Get(echo.HeaderContentType),
		Size:        size,
		Data:        data,
	}, nil
}

func isBodyTooLarge(err error) bool {
	var maxBytesErr *http.MaxBytesError
	return errors.As(err, &maxBytesErr)
}

// fail renders err as a fail envelope with the status of its error kind.
func (s *APIService) fail(ctx echo.Context, err error) error {
	var validationErr *core.ValidationError
	var persistenceErr *database.PersistenceError
	var internalErr *core.InternalError
	var httpErr *echo.HTTPError

	switch {
	case errors.As(err, &validationErr):
		return ctx.JSON(validationErr.Status, common.Fail(validationErr.Message))
	case errors.As(err, &httpErr):
		return httpErr
	case errors.As(err, &persistenceErr):
		message := core.MsgStoreFailed
		if persistenceErr.Op == "list" {
			message = core.MsgHistoriesFailed
		}
		return ctx.JSON(http.StatusInternalServerError, common.Fail(message))
	case errors.As(err, &internalErr):
		return ctx.JSON(http.StatusInternalServerError, common.Fail(internalErr.Message))
	default:
		s.logger.Error("unclassified request failure", zap.String("kind", "internal"),
			zap.String("path", ctx.Path()), zap.Error(err))
		return ctx.JSON(http.StatusInternalServerError, common.Fail(core.MsgInternal))
	}
}
