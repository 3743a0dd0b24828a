package log

import (
	"fmt"
	"golang.org/x/net/context"
	"gopkg.in/natefinch/lumberjack.v2"
	"io"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	formatter "github.com/antonfisher/nested-logrus-formatter"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	logger *logrus.Logger
	once   sync.Once
)

const (
	RequestIDKey   = "request_id"
	defaultLogDir  = "./storage/logs"
	defaultLevel   = logrus.DebugLevel
	timestampStyle = "02 Jan 06 - 15:04"
)

type Fields = logrus.Fields

// NewLogger builds the process-wide logger once. LOG_LEVEL and LOG_DIR are read
// from the environment, so .env must be loaded before the first call.
func NewLogger() *logrus.Logger {
	once.Do(func() {
		logger = logrus.New()
		logger.SetLevel(parseLevel(os.Getenv("LOG_LEVEL")))

		logger.SetFormatter(&formatter.Formatter{
			NoColors:        false,
			TimestampFormat: timestampStyle,
			HideKeys:        false,
			CallerFirst:     true,
			CustomCallerFormatter: func(f *runtime.Frame) string {
				s := strings.Split(f.Function, ".")
				funcName := s[len(s)-1]
				return fmt.Sprintf(" \x1b[%dm[%s:%d][%s()]", 34, path.Base(f.File), f.Line, funcName)
			},
		})

		writers := []io.Writer{os.Stderr}

		if os.Getenv("APP_ENV") != "test" {
			logDir := os.Getenv("LOG_DIR")
			if logDir == "" {
				logDir = defaultLogDir
			}
			fileWriter := &lumberjack.Logger{
				Filename:   filepath.Join(logDir, fmt.Sprintf("ai-service-%s.log", time.Now().Format("2006-01-02"))),
				LocalTime:  true,
				Compress:   true,
				MaxSize:    100,
				MaxAge:     7,
				MaxBackups: 3,
			}
			writers = append(writers, fileWriter)
		}

		logger.SetOutput(io.MultiWriter(writers...))
		logger.SetReportCaller(true)
	})

	return logger
}

func parseLevel(raw string) logrus.Level {
	if raw == "" {
		return defaultLevel
	}
	level, err := logrus.ParseLevel(raw)
	if err != nil {
		return defaultLevel
	}
	return level
}

// ErrorWithTraceID logs msg at error level on l and returns the trace id attached
// to the entry. The request id is reused as trace id when present.
func ErrorWithTraceID(l *logrus.Logger, fields Fields, msg string) string {
	if fields == nil {
		fields = Fields{}
	}

	var traceID string
	if reqID, ok := fields[RequestIDKey].(string); ok && reqID != "" && reqID != "unknown" {
		traceID = reqID
	} else {
		id, err := uuid.NewRandom()
		if err != nil {
			traceID = "unknown"
		} else {
			traceID = id.String()
		}
	}

	fields["trace_id"] = traceID
	l.WithFields(fields).Error(msg)

	return traceID
}

func WithRequestID(l *logrus.Logger, ctx context.Context) *logrus.Entry {
	requestID := "unknown"
	if ctx != nil {
		if id, ok := ctx.Value(RequestIDKey).(string); ok && id != "" {
			requestID = id
		}
	}

	return l.WithField(RequestIDKey, requestID)
}
