package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/claude/trainload/internal/config"
)

// New builds the process logger. With a log file configured, output goes to
// a rotating file, and to stdout as well when cfg.Stdout is set. The returned
// closer releases the file and is safe to call when no file is used.
func New(cfg config.LoggingConfig) (*slog.Logger, io.Closer) {
	return newLogger(cfg, os.Stdout)
}

// NewTo is New with console output sent to w. Stdio servers pass os.Stderr.
func NewTo(cfg config.LoggingConfig, w io.Writer) (*slog.Logger, io.Closer) {
	return newLogger(cfg, w)
}

func newLogger(cfg config.LoggingConfig, stdout io.Writer) (*slog.Logger, io.Closer) {
	var out io.Writer = stdout
	var closer io.Closer = nopCloser{}

	if cfg.File != "" {
		filename := cfg.File
		if !strings.HasSuffix(filename, ".log") {
			filename += ".log"
		}
		lumberJackLogger := &lumberjack.Logger{
			Filename:  filename,
			MaxSize:   50,    // megabytes
			LocalTime: false, // UTC
			Compress:  true,
		}
		closer = lumberJackLogger
		out = lumberJackLogger
		if cfg.Stdout {
			out = io.MultiWriter(stdout, lumberJackLogger)
		}
	}

	opts := &slog.HandlerOptions{Level: GetLevel(cfg.Level)}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}
	return slog.New(handler), closer
}

func GetLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
