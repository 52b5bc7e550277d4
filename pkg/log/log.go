// Package log provides structured logging for mtrf on top of zerolog.
//
// Models obtain a named Logger and log with key-value pairs using the keys
// declared in this package:
//
//	logger := log.GetLoggerWithName("trf").With(log.ComponentKey, "trf")
//	logger.Info("Training completed", log.TrialsKey, 5, log.LagsKey, 31)
//
// SetupLogger configures the process-wide level and console output.
package log

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Standard field keys.
const (
	ModelNameKey      = "model_name"
	ComponentKey      = "component"
	OperationKey      = "operation"
	PhaseKey          = "phase"
	SamplesKey        = "samples"
	FeaturesKey       = "features"
	OutputsKey        = "outputs"
	TrialsKey         = "trials"
	LagsKey           = "lags"
	FoldKey           = "fold"
	CandidateKey      = "candidate"
	RegularizationKey = "regularization"
	CorrelationKey    = "correlation"
	ErrorKey          = "error_value"
	ConditionKey      = "condition"
	DurationMsKey     = "duration_ms"
	PredsKey          = "predictions"
)

// Operation and phase values.
const (
	OperationFit           = "fit"
	OperationTrain         = "train"
	OperationPredict       = "predict"
	OperationCrossValidate = "cross_validate"
	OperationEvaluate      = "evaluate"

	PhaseTraining  = "training"
	PhaseInference = "inference"
	PhaseSearch    = "search"
)

// Logger is the structured logger used throughout mtrf.
type Logger interface {
	Debug(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
	With(fields ...interface{}) Logger
}

// LoggerProvider hands out loggers sharing one configuration.
type LoggerProvider interface {
	GetLogger() Logger
	GetLoggerWithName(name string) Logger
}

type zerologLogger struct {
	zl zerolog.Logger
}

func (l *zerologLogger) Debug(msg string, fields ...interface{}) {
	l.zl.Debug().Fields(fields).Msg(msg)
}

func (l *zerologLogger) Info(msg string, fields ...interface{}) {
	l.zl.Info().Fields(fields).Msg(msg)
}

func (l *zerologLogger) Warn(msg string, fields ...interface{}) {
	l.zl.Warn().Fields(fields).Msg(msg)
}

// Error logs at error level. A leading error value is attached with Err.
func (l *zerologLogger) Error(msg string, fields ...interface{}) {
	ev := l.zl.Error()
	if len(fields)%2 == 1 {
		if err, ok := fields[0].(error); ok {
			ev = ev.Err(err)
			fields = fields[1:]
		}
	}
	ev.Fields(fields).Msg(msg)
}

func (l *zerologLogger) With(fields ...interface{}) Logger {
	return &zerologLogger{zl: l.zl.With().Fields(fields).Logger()}
}

type zerologProvider struct {
	base zerolog.Logger
}

// NewZerologProvider creates a provider writing JSON lines to stderr at level.
func NewZerologProvider(level zerolog.Level) LoggerProvider {
	return NewZerologProviderWithWriter(os.Stderr, level)
}

// NewZerologProviderWithWriter creates a provider writing to w at level.
func NewZerologProviderWithWriter(w io.Writer, level zerolog.Level) LoggerProvider {
	return &zerologProvider{
		base: zerolog.New(w).Level(level).With().Timestamp().Logger(),
	}
}

func (p *zerologProvider) GetLogger() Logger {
	return &zerologLogger{zl: p.base}
}

func (p *zerologProvider) GetLoggerWithName(name string) Logger {
	return &zerologLogger{zl: p.base.With().Str("logger", name).Logger()}
}

// ToLogLevel parses a level name, defaulting to info.
func ToLogLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

var (
	mu       sync.RWMutex
	global   = zerolog.New(os.Stderr).Level(zerolog.WarnLevel).With().Timestamp().Logger()
	provider LoggerProvider
)

// SetupLogger configures the global logger with a human readable console
// writer on stderr.
func SetupLogger(level string) {
	SetupLoggerWithWriter(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}, level)
}

// SetupLoggerWithWriter configures the global logger to write to w.
func SetupLoggerWithWriter(w io.Writer, level string) {
	mu.Lock()
	defer mu.Unlock()
	lvl := ToLogLevel(level)
	global = zerolog.New(w).Level(lvl).With().Timestamp().Logger()
	provider = &zerologProvider{base: global}
}

// GetLogger returns the global zerolog logger.
func GetLogger() *zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	l := global
	return &l
}

// GetLoggerWithName returns a named Logger backed by the global configuration.
func GetLoggerWithName(name string) Logger {
	mu.RLock()
	p := provider
	base := global
	mu.RUnlock()
	if p == nil {
		p = &zerologProvider{base: base}
	}
	return p.GetLoggerWithName(name)
}

// LogError logs err with msg on the global logger.
func LogError(err error, msg string) {
	l := GetLogger()
	l.Error().Err(err).Msg(msg)
}

// Nop returns a Logger that discards everything.
func Nop() Logger {
	return &zerologLogger{zl: zerolog.Nop()}
}
