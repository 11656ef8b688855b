package geoarrow

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/hugr-lab/geoarrow-go/abi"
	"github.com/hugr-lab/geoarrow-go/builder"
	"github.com/hugr-lab/geoarrow-go/compute"
	"github.com/hugr-lab/geoarrow-go/internal/recovery"
)

// Config contains configuration for an Engine.
type Config struct {
	// Allocator for every buffer the engine publishes.
	// OPTIONAL: Uses memory.DefaultAllocator if nil.
	Allocator memory.Allocator

	// Logger for internal logging.
	// OPTIONAL: If nil, a text logger on stderr is created at LogLevel.
	Logger *slog.Logger

	// LogLevel sets the minimum log level of the default logger.
	// OPTIONAL: If nil, uses Info level.
	// Valid values: slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError
	// If Logger is also provided, LogLevel is ignored (use pre-configured logger).
	LogLevel *slog.Level
}

// Standard errors returned by the geoarrow packages.
var (
	// ErrInvalidConfig indicates Config validation failed.
	ErrInvalidConfig = errors.New("invalid engine config")

	// ErrAllocation indicates an allocator could not serve a request.
	ErrAllocation = abi.ErrAllocation

	// ErrValidation indicates an array or schema does not match its layout.
	ErrValidation = abi.ErrValidation

	// ErrReleased indicates a builder was used after Release or Discard.
	ErrReleased = builder.ErrReleased

	// ErrUnknownOperation indicates a compute op is not registered.
	ErrUnknownOperation = compute.ErrUnknownOperation

	// ErrPanic indicates a handler or release callback panicked.
	ErrPanic = recovery.ErrPanic
)

func validateConfig(config Config) error {
	if config.Logger != nil || config.LogLevel == nil {
		return nil
	}
	switch *config.LogLevel {
	case slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError:
		return nil
	default:
		return fmt.Errorf("unsupported log level %d", *config.LogLevel)
	}
}

func newLogger(config Config) *slog.Logger {
	if config.Logger != nil {
		return config.Logger
	}
	level := slog.LevelInfo
	if config.LogLevel != nil {
		level = *config.LogLevel
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}
