package classifier

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	ort "github.com/yalue/onnxruntime_go"
)

const (
	defaultMaxLength    = 128
	defaultPoolSize     = 1
	defaultThreads      = 2
	defaultDrainTimeout = 10 * time.Second
)

var ErrSessionsBusy = errors.New("ONNX sessions still in use")

type Config struct {
	ModelDir          string
	MaxLength         int
	PoolSize          int
	IntraOpThreads    int
	SharedLibraryPath string
}

// sessionRunner runs one forward pass over a padded encoding and returns the
// logits row for the single input.
type sessionRunner interface {
	Run(enc Encoding) ([]float32, error)
	Destroy() error
}

type onnxClassifier struct {
	log             *logrus.Logger
	tokenizer       *WordPieceTokenizer
	sessions        chan sessionRunner
	runners         []sessionRunner
	numLabels       int
	ownsEnvironment bool
	drainTimeout    time.Duration
	closed          atomic.Bool
	done            chan struct{}
	closeOnce       sync.Once
}

// New loads the tokenizer and model from cfg.ModelDir and opens cfg.PoolSize
// ONNX Runtime sessions.
func New(cfg Config, log *logrus.Logger) (IClassifier, error) {
	if cfg.MaxLength <= 0 {
		cfg.MaxLength = defaultMaxLength
	}
	if cfg.PoolSize <= 0 {
		cfg.PoolSize = defaultPoolSize
	}
	if cfg.IntraOpThreads <= 0 {
		cfg.IntraOpThreads = defaultThreads
	}

	modelPath := filepath.Join(cfg.ModelDir, modelFileName)
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("model not found at %s: %w", modelPath, err)
	}

	meta, err := LoadModelMeta(cfg.ModelDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load model metadata: %w", err)
	}

	maxLength := cfg.MaxLength
	if meta.MaxPositionEmbeddings > 0 && maxLength > meta.MaxPositionEmbeddings {
		maxLength = meta.MaxPositionEmbeddings
	}

	tokenizer, err := LoadWordPieceTokenizer(filepath.Join(cfg.ModelDir, vocabFileName), maxLength, meta.LowerCase)
	if err != nil {
		return nil, fmt.Errorf("failed to load tokenizer: %w", err)
	}

	if cfg.SharedLibraryPath != "" {
		ort.SetSharedLibraryPath(cfg.SharedLibraryPath)
	}
	ownsEnvironment := false
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("failed to initialize ONNX Runtime: %w", err)
		}
		ownsEnvironment = true
	}

	layout, err := inspectModel(modelPath, meta.NumLabels)
	if err != nil {
		if ownsEnvironment {
			_ = ort.DestroyEnvironment()
		}
		return nil, err
	}

	runners := make([]sessionRunner, 0, cfg.PoolSize)
	for i := 0; i < cfg.PoolSize; i++ {
		runner, err := newOrtSession(modelPath, maxLength, layout, cfg.IntraOpThreads)
		if err != nil {
			for _, r := range runners {
				_ = r.Destroy()
			}
			if ownsEnvironment {
				_ = ort.DestroyEnvironment()
			}
			return nil, fmt.Errorf("failed to create ONNX session %d/%d: %w", i+1, cfg.PoolSize, err)
		}
		runners = append(runners, runner)
	}

	log.WithFields(logrus.Fields{
		"model":      modelPath,
		"num_labels": layout.numLabels,
		"max_length": maxLength,
		"pool_size":  cfg.PoolSize,
		"output":     layout.outputName,
	}).Info("Intent classifier loaded")

	c := newClassifier(log, tokenizer, runners, layout.numLabels)
	c.ownsEnvironment = ownsEnvironment
	return c, nil
}

func newClassifier(log *logrus.Logger, tokenizer *WordPieceTokenizer, runners []sessionRunner, numLabels int) *onnxClassifier {
	sessions := make(chan sessionRunner, len(runners))
	for _, r := range runners {
		sessions <- r
	}

	return &onnxClassifier{
		log:          log,
		tokenizer:    tokenizer,
		sessions:     sessions,
		runners:      runners,
		numLabels:    numLabels,
		drainTimeout: defaultDrainTimeout,
		done:         make(chan struct{}),
	}
}

func (c *onnxClassifier) Classify(ctx context.Context, text string) (result ClassificationResult, err error) {
	if c.closed.Load() {
		return ClassificationResult{}, ErrClassifierUnavailable
	}

	defer func() {
		if r := recover(); r != nil {
			result = ClassificationResult{}
			err = fmt.Errorf("%w: panic during inference: %v", ErrPredictionFailed, r)
		}
	}()

	enc := c.tokenizer.Encode(text)

	var runner sessionRunner
	select {
	case runner = <-c.sessions:
	case <-c.done:
		return ClassificationResult{}, ErrClassifierUnavailable
	case <-ctx.Done():
		return ClassificationResult{}, fmt.Errorf("%w: waiting for session: %w", ErrPredictionFailed, ctx.Err())
	}
	defer func() { c.sessions <- runner }()

	if c.closed.Load() {
		return ClassificationResult{}, ErrClassifierUnavailable
	}

	logits, err := runner.Run(enc)
	if err != nil {
		return ClassificationResult{}, fmt.Errorf("%w: %w", ErrPredictionFailed, err)
	}
	if c.numLabels > 0 && len(logits) > c.numLabels {
		logits = logits[:c.numLabels]
	}

	idx, err := Argmax(logits)
	if err != nil {
		return ClassificationResult{}, fmt.Errorf("%w: %w", ErrPredictionFailed, err)
	}

	return ClassificationResult{LabelIndex: idx, Logits: logits}, nil
}

func (c *onnxClassifier) IsReady() bool {
	return !c.closed.Load()
}

// Close waits up to the drain timeout for borrowed sessions to come back to the
// pool and destroys only the ones it got back. Sessions still inside Run are
// left alive, as is the ONNX Runtime environment.
func (c *onnxClassifier) Close() error {
	var errs []error
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		close(c.done)

		timer := time.NewTimer(c.drainTimeout)
		defer timer.Stop()

		drained := 0
	drain:
		for drained < len(c.runners) {
			select {
			case r := <-c.sessions:
				if err := r.Destroy(); err != nil {
					errs = append(errs, err)
				}
				drained++
			case <-timer.C:
				break drain
			}
		}

		if busy := len(c.runners) - drained; busy > 0 {
			c.log.WithFields(logrus.Fields{
				"busy":    busy,
				"timeout": c.drainTimeout.String(),
			}).Warn("Intent classifier closed with sessions still running")
			errs = append(errs, fmt.Errorf("%w: %d of %d", ErrSessionsBusy, busy, len(c.runners)))
			return
		}

		if c.ownsEnvironment {
			if err := ort.DestroyEnvironment(); err != nil {
				errs = append(errs, err)
			}
		}
	})
	return errors.Join(errs...)
}

// Warmup runs one inference on sample and reports its latency.
func Warmup(ctx context.Context, c IClassifier, sample string) (time.Duration, error) {
	start := time.Now()
	if _, err := c.Classify(ctx, sample); err != nil {
		return 0, err
	}
	return time.Since(start), nil
}

type modelLayout struct {
	outputName    string
	numLabels     int
	withTokenType bool
}

func inspectModel(modelPath string, declaredLabels int) (modelLayout, error) {
	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return modelLayout{}, fmt.Errorf("failed to inspect model: %w", err)
	}
	if len(outputs) == 0 {
		return modelLayout{}, errors.New("model declares no outputs")
	}

	layout := modelLayout{numLabels: declaredLabels}
	for _, in := range inputs {
		if in.Name == "token_type_ids" {
			layout.withTokenType = true
		}
	}

	selected := -1
	for i, out := range outputs {
		if strings.EqualFold(out.Name, "logits") {
			selected = i
			break
		}
	}
	if selected < 0 {
		if len(outputs) > 1 {
			names := make([]string, 0, len(outputs))
			for _, out := range outputs {
				names = append(names, out.Name)
			}
			return modelLayout{}, fmt.Errorf("multiple outputs without logits: %v", names)
		}
		selected = 0
	}
	layout.outputName = outputs[selected].Name

	dims := outputs[selected].Dimensions
	if len(dims) > 0 && dims[len(dims)-1] > 0 {
		layout.numLabels = int(dims[len(dims)-1])
	}
	if layout.numLabels <= 0 {
		return modelLayout{}, errors.New("cannot determine number of labels; set num_labels in config.json")
	}

	return layout, nil
}

type ortSession struct {
	session       *ort.AdvancedSession
	inputIDs      *ort.Tensor[int64]
	attentionMask *ort.Tensor[int64]
	tokenTypeIDs  *ort.Tensor[int64]
	output        *ort.Tensor[float32]
}

func newOrtSession(modelPath string, seqLen int, layout modelLayout, threads int) (*ortSession, error) {
	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("failed to create session options: %w", err)
	}
	defer func() { _ = options.Destroy() }()

	if err := options.SetIntraOpNumThreads(threads); err != nil {
		return nil, fmt.Errorf("failed to set threads: %w", err)
	}

	s := &ortSession{}
	inputShape := ort.NewShape(1, int64(seqLen))
	if s.inputIDs, err = ort.NewEmptyTensor[int64](inputShape); err != nil {
		return nil, fmt.Errorf("failed to create input_ids tensor: %w", err)
	}
	if s.attentionMask, err = ort.NewEmptyTensor[int64](inputShape); err != nil {
		_ = s.Destroy()
		return nil, fmt.Errorf("failed to create attention_mask tensor: %w", err)
	}

	inputNames := []string{"input_ids", "attention_mask"}
	inputValues := []ort.Value{s.inputIDs, s.attentionMask}
	if layout.withTokenType {
		if s.tokenTypeIDs, err = ort.NewEmptyTensor[int64](inputShape); err != nil {
			_ = s.Destroy()
			return nil, fmt.Errorf("failed to create token_type_ids tensor: %w", err)
		}
		inputNames = append(inputNames, "token_type_ids")
		inputValues = append(inputValues, s.tokenTypeIDs)
	}

	if s.output, err = ort.NewEmptyTensor[float32](ort.NewShape(1, int64(layout.numLabels))); err != nil {
		_ = s.Destroy()
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}

	s.session, err = ort.NewAdvancedSession(
		modelPath,
		inputNames,
		[]string{layout.outputName},
		inputValues,
		[]ort.Value{s.output},
		options,
	)
	if err != nil {
		_ = s.Destroy()
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	return s, nil
}

func (s *ortSession) Run(enc Encoding) ([]float32, error) {
	copy(s.inputIDs.GetData(), enc.InputIDs)
	copy(s.attentionMask.GetData(), enc.AttentionMask)
	if s.tokenTypeIDs != nil {
		copy(s.tokenTypeIDs.GetData(), enc.TokenTypeIDs)
	}

	if err := s.session.Run(); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	out := s.output.GetData()
	logits := make([]float32, len(out))
	copy(logits, out)
	return logits, nil
}

func (s *ortSession) Destroy() error {
	var errs []error
	if s.session != nil {
		errs = append(errs, s.session.Destroy())
	}
	for _, t := range []*ort.Tensor[int64]{s.inputIDs, s.attentionMask, s.tokenTypeIDs} {
		if t != nil {
			errs = append(errs, t.Destroy())
		}
	}
	if s.output != nil {
		errs = append(errs, s.output.Destroy())
	}
	return errors.Join(errs...)
}
