package config

import (
	"AIService/internal/api/suggestion"
	suggestionHandler "AIService/internal/api/suggestion/handler"
	suggestionRepository "AIService/internal/api/suggestion/repository"
	suggestionService "AIService/internal/api/suggestion/service"
	"AIService/internal/middleware"
	"AIService/pkg/classifier"
	"AIService/pkg/s3"
	"fmt"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
	"time"
)

const (
	warmupSample  = "What is my account balance?"
	assetSyncWait = 5 * time.Minute
)

type ServerOption func(*Server) error

type Server struct {
	engine            *fiber.App
	log               *logrus.Logger
	middleware        middleware.Middleware
	appConfig         *AppConfig
	store             *suggestionRepository.Store
	classifier        classifier.IClassifier
	suggestionService suggestionService.ISuggestionService
	handlers          []handler
}

type handler interface {
	Start(srv fiber.Router)
}

func NewServer(options ...ServerOption) (*Server, error) {
	server := &Server{}

	for _, option := range options {
		if err := option(server); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if server.engine == nil {
		return nil, fmt.Errorf("fiber app is required")
	}
	if server.log == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if server.appConfig == nil {
		return nil, fmt.Errorf("app config is required")
	}

	return server, nil
}

func WithFiber(fiberApp *fiber.App) ServerOption {
	return func(s *Server) error {
		s.engine = fiberApp
		return nil
	}
}

func WithLogger(logger *logrus.Logger) ServerOption {
	return func(s *Server) error {
		s.log = logger
		return nil
	}
}

func WithAppConfig(cfg *AppConfig) ServerOption {
	return func(s *Server) error {
		s.appConfig = cfg
		return nil
	}
}

func WithMiddleware() ServerOption {
	return func(s *Server) error {
		if s.log == nil || s.appConfig == nil {
			return fmt.Errorf("logger and app config must be initialized before middleware")
		}
		s.middleware = middleware.New(s.log, middleware.Options{
			RateLimitRPS:   s.appConfig.RateLimitRPS,
			RateLimitBurst: s.appConfig.RateLimitBurst,
			AllowedOrigins: s.appConfig.AllowedOrigins(),
		})
		return nil
	}
}

// WithAssetSync mirrors ASSET_S3_PREFIX into DATA_DIR before anything is loaded.
// It does nothing when no bucket is configured.
func WithAssetSync() ServerOption {
	return func(s *Server) error {
		if s.appConfig == nil || s.appConfig.AssetS3Bucket == "" {
			return nil
		}

		client, err := s3.New(s3.Config{
			Bucket:          s.appConfig.AssetS3Bucket,
			Region:          s.appConfig.AWSRegion,
			AccessKeyID:     s.appConfig.AWSAccessKeyID,
			SecretAccessKey: s.appConfig.AWSSecretAccessKey,
			Endpoint:        s.appConfig.AWSS3Endpoint,
		})
		if err != nil {
			return s.startupFailure("failed to create S3 client", err)
		}

		return s.syncAssets(client)
	}
}

func (s *Server) syncAssets(client s3.ItfS3) error {
	ctx, cancel := context.WithTimeout(context.Background(), assetSyncWait)
	defer cancel()

	start := time.Now()
	written, err := client.DownloadPrefix(ctx, s.appConfig.AssetS3Prefix, s.appConfig.DataDir)
	if err != nil {
		return s.startupFailure("failed to sync model assets", err)
	}

	s.log.WithFields(logrus.Fields{
		"bucket":  s.appConfig.AssetS3Bucket,
		"prefix":  s.appConfig.AssetS3Prefix,
		"files":   written,
		"elapsed": time.Since(start).String(),
	}).Info("Model assets synced from S3")
	return nil
}

func WithIntentStore() ServerOption {
	return func(s *Server) error {
		store, err := suggestionRepository.Load(s.log, s.appConfig.LabelMappingPath, s.appConfig.ResponsesPath)
		if err != nil {
			return s.startupFailure("failed to load intent tables", err)
		}
		s.store = store
		return nil
	}
}

func WithClassifier() ServerOption {
	return func(s *Server) error {
		s.checkModelLabels()

		c, err := classifier.New(classifier.Config{
			ModelDir:          s.appConfig.ModelDir,
			MaxLength:         s.appConfig.MaxSequenceLength,
			PoolSize:          s.appConfig.ClassifierPoolSize,
			IntraOpThreads:    s.appConfig.ClassifierThreads,
			SharedLibraryPath: s.appConfig.OnnxRuntimeLibrary,
		}, s.log)
		if err != nil {
			s.classifier = classifier.Unavailable(err)
			return s.startupFailure("failed to load intent classifier", err)
		}
		s.classifier = c

		latency, err := classifier.Warmup(context.Background(), c, warmupSample)
		if err != nil {
			s.log.WithField("error", err.Error()).Warn("Classifier warm-up failed")
			return nil
		}
		s.log.WithField("latency", latency.String()).Info("Classifier warmed up")
		return nil
	}
}

// checkModelLabels warns about every index where the model's config.json names a
// different intent than the label mapping. Needs the store to be loaded first.
func (s *Server) checkModelLabels() {
	if s.store == nil {
		return
	}

	meta, err := classifier.LoadModelMeta(s.appConfig.ModelDir)
	if err != nil {
		s.log.WithField("error", err.Error()).Warn("Could not read model labels")
		return
	}

	for _, d := range s.store.CheckModelLabels(meta.ID2Label) {
		s.log.WithFields(logrus.Fields{
			"label":        d.Label,
			"model_label":  d.ModelName,
			"mapped_label": d.MappedName,
		}).Warn("Model label does not match label mapping")
	}
}

// WithClassifierInstance injects an already built classifier.
func WithClassifierInstance(c classifier.IClassifier) ServerOption {
	return func(s *Server) error {
		s.classifier = c
		return nil
	}
}

func WithStoreInstance(store *suggestionRepository.Store) ServerOption {
	return func(s *Server) error {
		s.store = store
		return nil
	}
}

// startupFailure aborts start-up in fail-fast mode. In degrade mode the error is
// logged and the server keeps going with the component missing.
func (s *Server) startupFailure(msg string, err error) error {
	if s.appConfig != nil && s.appConfig.FailFast() {
		return fmt.Errorf("%s: %w", msg, err)
	}

	s.log.WithFields(logrus.Fields{
		"error":        err.Error(),
		"startup_mode": StartupModeDegrade,
	}).Error(msg)
	return nil
}

func (s *Server) RegisterHandler() {
	if s.middleware == nil {
		s.middleware = middleware.New(s.log, middleware.Options{})
	}

	s.engine.Use(recover.New())
	s.engine.Use(s.middleware.NewRequestIDMiddleware())
	s.engine.Use(s.middleware.NewLoggingMiddleware)
	s.engine.Use(s.middleware.NewCORSMiddleware())
	s.engine.Use(s.middleware.NewRateLimiter)

	// Suggestion Domain
	s.suggestionService = suggestionService.NewSuggestionService(s.log, s.store, s.classifier)
	suggestionHandlers := suggestionHandler.New(s.log, s.middleware, s.suggestionService, s.appConfig.PredictTimeout)

	s.setupHealthCheck()
	s.handlers = append(s.handlers, suggestionHandlers)

	for _, h := range s.handlers {
		h.Start(s.engine)
	}
}

func (s *Server) Run() error {
	s.log.WithFields(logrus.Fields{
		"port":             s.appConfig.AppPort,
		"startup_mode":     s.appConfig.StartupMode,
		"classifier_ready": s.suggestionService.Status().ClassifierReady,
		"store_loaded":     s.suggestionService.Status().StoreLoaded,
	}).Info("Starting server")

	return s.engine.Listen(fmt.Sprintf(":%d", s.appConfig.AppPort))
}

// Shutdown stops accepting requests, waits for in-flight ones, then releases
// the inference sessions.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.engine.ShutdownWithContext(ctx)

	if s.classifier != nil {
		if closeErr := s.classifier.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}

	return err
}

func (s *Server) setupHealthCheck() {
	s.engine.Get("/", func(ctx *fiber.Ctx) error {
		status := s.suggestionService.Status()
		return ctx.JSON(suggestion.HealthResponse{
			Message:         "Server is Healthy!",
			ClassifierReady: status.ClassifierReady,
			StoreLoaded:     status.StoreLoaded,
		})
	})
}
