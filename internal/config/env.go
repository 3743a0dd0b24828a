package config

import (
	"AIService/pkg/utils"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
)

const (
	StartupModeDegrade  = "degrade"
	StartupModeFailFast = "fail-fast"

	modelDirName         = "intent_model"
	labelMappingFileName = "label_mapping.csv"
	responsesFileName    = "responses.csv"
)

type AppConfig struct {
	AppEnv  string `env:"APP_ENV,default=development"`
	AppPort int    `env:"APP_PORT,default=5000" validate:"min=1,max=65535"`

	DataDir          string `env:"DATA_DIR,default=./data" validate:"required"`
	ModelDir         string `env:"MODEL_DIR"`
	LabelMappingPath string `env:"LABEL_MAPPING_PATH"`
	ResponsesPath    string `env:"RESPONSES_PATH"`

	MaxSequenceLength  int           `env:"MAX_SEQUENCE_LENGTH,default=128" validate:"min=2,max=8192"`
	ClassifierPoolSize int           `env:"CLASSIFIER_POOL_SIZE,default=1" validate:"min=1,max=64"`
	ClassifierThreads  int           `env:"CLASSIFIER_THREADS,default=2" validate:"min=0,max=256"`
	OnnxRuntimeLibrary string        `env:"ONNXRUNTIME_SHARED_LIBRARY_PATH"`
	StartupMode        string        `env:"STARTUP_MODE,default=degrade" validate:"oneof=degrade fail-fast"`
	CORSAllowedOrigins string        `env:"CORS_ALLOWED_ORIGINS"`
	PredictTimeout     time.Duration `env:"PREDICT_TIMEOUT,default=10s" validate:"min=0"`
	RateLimitRPS       float64       `env:"RATE_LIMIT_RPS,default=0" validate:"min=0"`
	RateLimitBurst     int           `env:"RATE_LIMIT_BURST,default=20" validate:"min=1"`
	BodyLimitMB        int           `env:"BODY_LIMIT_MB,default=50" validate:"min=1,max=1024"`

	LogLevel string `env:"LOG_LEVEL,default=debug" validate:"oneof=trace debug info warn warning error fatal panic"`
	LogDir   string `env:"LOG_DIR"`

	AssetS3Bucket      string `env:"ASSET_S3_BUCKET"`
	AssetS3Prefix      string `env:"ASSET_S3_PREFIX"`
	AWSRegion          string `env:"AWS_REGION" validate:"required_with=AssetS3Bucket"`
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`
	AWSS3Endpoint      string `env:"AWS_S3_ENDPOINT" validate:"omitempty,url"`
}

// Load reads the process environment. Call it after godotenv so .env values are visible.
func Load(validate *validator.Validate) (*AppConfig, error) {
	es, err := env.EnvironToEnvSet(os.Environ())
	if err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	return LoadFrom(es, validate)
}

func LoadFrom(es env.EnvSet, validate *validator.Validate) (*AppConfig, error) {
	var cfg AppConfig
	if err := env.Unmarshal(es, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if cfg.ModelDir == "" {
		cfg.ModelDir = filepath.Join(cfg.DataDir, modelDirName)
	}
	if cfg.LabelMappingPath == "" {
		cfg.LabelMappingPath = filepath.Join(cfg.DataDir, labelMappingFileName)
	}
	if cfg.ResponsesPath == "" {
		cfg.ResponsesPath = filepath.Join(cfg.DataDir, responsesFileName)
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if err := validate.Var(cfg.AllowedOrigins(), "dive,eq=*|http_url"); err != nil {
		return nil, fmt.Errorf("invalid CORS_ALLOWED_ORIGINS: %w", err)
	}

	return &cfg, nil
}

// AllowedOrigins returns the configured CORS origins, or nil for the defaults.
func (c *AppConfig) AllowedOrigins() []string {
	origins := utils.New().SplitCSV(c.CORSAllowedOrigins)
	if len(origins) == 0 {
		return nil
	}
	return origins
}

// BodyLimit is the largest request body the server accepts, in bytes.
func (c *AppConfig) BodyLimit() int {
	return c.BodyLimitMB << 20
}

func (c *AppConfig) FailFast() bool {
	return c.StartupMode == StartupModeFailFast
}
