package classifier

import (
	"context"
	"fmt"
	"sync"
	"time"

	ort "github.com/yalue/onnxruntime_go"
	"go.uber.org/zap"

	"github.com/jo-hoe/lesionscan/internal/backend/imageprocessing"
)

type Config struct {
	URL             string
	Generation      int64
	CredentialsFile string
	InputName       string
	OutputName      string
	LibraryPath     string
	Timeout         time.Duration
}

// ONNXClassifier runs a single-output binary classifier through ONNX Runtime.
// The session is created once and shared by all requests.
type ONNXClassifier struct {
	session   *ort.DynamicAdvancedSession
	timeout   time.Duration
	logger    *zap.Logger
	closeOnce sync.Once
}

var environmentMu sync.Mutex

// Load downloads the model artifact and builds the inference session. Any
// error here is a startup failure; the service must not start without a model.
func Load(ctx context.Context, config Config, logger *zap.Logger) (*ONNXClassifier, error) {
	logger = logger.Named("classifier")
	inputName, outputName := config.InputName, config.OutputName
	if inputName == "" {
		inputName = "input"
	}
	if outputName == "" {
		outputName = "output"
	}

	logger.Info("downloading model artifact", zap.String("url", config.URL), zap.Int64("generation", config.Generation))
	data, err := FetchArtifact(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch model: %w", err)
	}
	logger.Info("model artifact downloaded", zap.Int("size_bytes", len(data)))

	if err := initializeEnvironment(config.LibraryPath); err != nil {
		return nil, err
	}

	session, err := ort.NewDynamicAdvancedSessionWithONNXData(data,
		[]string{inputName}, []string{outputName}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	logger.Info("model loaded",
		zap.String("input", inputName), zap.String("output", outputName),
		zap.Duration("timeout", config.Timeout))

	return &ONNXClassifier{
		session: session,
		timeout: config.Timeout,
		logger:  logger,
	}, nil
}

func initializeEnvironment(libraryPath string) error {
	environmentMu.Lock()
	defer environmentMu.Unlock()

	if ort.IsInitialized() {
		return nil
	}
	if libraryPath != "" {
		ort.SetSharedLibraryPath(libraryPath)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("failed to initialize ONNX environment: %w", err)
	}
	return nil
}

type scoreResult struct {
	score float32
	err   error
}

// Score runs one inference. The call is abandoned when ctx is done or the
// configured timeout elapses; the runtime call itself finishes in the
// background and releases its tensors.
func (c *ONNXClassifier) Score(ctx context.Context, tensor *imageprocessing.Tensor) (float32, error) {
	if err := validateInput(tensor); err != nil {
		return 0, err
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	done := make(chan scoreResult, 1)
	go func() {
		score, err := c.run(tensor)
		done <- scoreResult{score: score, err: err}
	}()

	select {
	case <-ctx.Done():
		c.logger.Warn("inference abandoned", zap.Error(ctx.Err()), zap.Duration("timeout", c.timeout))
		return 0, fmt.Errorf("inference aborted: %w", ctx.Err())
	case result := <-done:
		if result.err != nil {
			return 0, result.err
		}
		return result.score, checkScore(result.score)
	}
}

func (c *ONNXClassifier) run(tensor *imageprocessing.Tensor) (float32, error) {
	input, err := ort.NewTensor(ort.NewShape(tensor.Shape...), tensor.Data)
	if err != nil {
		return 0, fmt.Errorf("failed to create input tensor: %w", err)
	}
	defer func() {
		_ = input.Destroy()
	}()

	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 1))
	if err != nil {
		return 0, fmt.Errorf("failed to create output tensor: %w", err)
	}
	defer func() {
		_ = output.Destroy()
	}()

	if err := c.session.Run([]ort.ArbitraryTensor{input}, []ort.ArbitraryTensor{output}); err != nil {
		return 0, fmt.Errorf("inference failed: %w", err)
	}

	data := output.GetData()
	if len(data) == 0 {
		return 0, fmt.Errorf("model returned an empty output")
	}
	return data[0], nil
}

func (c *ONNXClassifier) Close() error {
	var err error
	c.closeOnce.Do(func() {
		if c.session != nil {
			err = c.session.Destroy()
		}
	})
	return err
}

// DestroyEnvironment releases the ONNX Runtime environment. Call it once,
// after every classifier has been closed.
func DestroyEnvironment() error {
	environmentMu.Lock()
	defer environmentMu.Unlock()

	if !ort.IsInitialized() {
		return nil
	}
	return ort.DestroyEnvironment()
}
