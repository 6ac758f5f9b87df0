// Package logging configures zerolog for bulge. Human readable records go
// to stderr and JSON records are appended to a log file under the XDG
// state directory, so a failed transaction can be inspected afterwards.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/adrg/xdg"
	"github.com/arthur-debert/bulge/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// EnvLogFile overrides the log file location
const EnvLogFile = "BULGE_LOG_FILE"

// Options controls where records are written
type Options struct {
	// Verbosity is the number of -v flags given
	Verbosity int

	// Console receives the human readable records. Defaults to stderr.
	Console io.Writer
	NoColor bool

	// LogFile overrides LogFilePath
	LogFile string
}

var (
	mu      sync.Mutex
	logFile *os.File
)

// Level maps a verbosity count to a zerolog level. Without flags only
// warnings reach the console.
func Level(verbosity int) zerolog.Level {
	switch {
	case verbosity <= 0:
		return zerolog.WarnLevel
	case verbosity == 1:
		return zerolog.InfoLevel
	case verbosity == 2:
		return zerolog.DebugLevel
	default:
		return zerolog.TraceLevel
	}
}

// Setup installs the global logger and returns the log file in use, or
// an empty string when records only reach the console. Calling it again
// closes the previous log file.
func Setup(opts Options) string {
	mu.Lock()
	defer mu.Unlock()

	zerolog.SetGlobalLevel(Level(opts.Verbosity))

	console := opts.Console
	if console == nil {
		console = os.Stderr
	}
	writers := []io.Writer{zerolog.ConsoleWriter{
		Out:        console,
		TimeFormat: time.Kitchen,
		NoColor:    opts.NoColor,
	}}

	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}
	path := opts.LogFile
	if path == "" {
		path = LogFilePath()
	}
	file, openErr := openLogFile(path)
	if openErr == nil {
		logFile = file
		writers = append(writers, file)
	}

	ctx := zerolog.New(io.MultiWriter(writers...)).With().Timestamp()
	if opts.Verbosity >= 2 {
		ctx = ctx.Caller()
	}
	log.Logger = ctx.Logger()

	if openErr != nil {
		log.Warn().Err(openErr).Msg("Logging to console only")
		return ""
	}
	log.Debug().Int("verbosity", opts.Verbosity).Str("log_file", path).Msg("Logger initialized")
	return path
}

// GetLogger returns a logger tagged with the component name
func GetLogger(name string) zerolog.Logger {
	return log.With().Str("component", name).Logger()
}

// ForPackage tags logger with the package a transaction works on
func ForPackage(logger zerolog.Logger, name, version string) zerolog.Logger {
	return logger.With().Str("package", name).Str("version", version).Logger()
}

// LogFilePath returns BULGE_LOG_FILE when set, otherwise bulge.log below
// the XDG state directory
func LogFilePath() string {
	if custom := os.Getenv(EnvLogFile); custom != "" {
		return custom
	}
	stateHome := os.Getenv("XDG_STATE_HOME")
	if stateHome == "" {
		stateHome = xdg.StateHome
	}
	if stateHome == "" {
		return "bulge.log"
	}
	return filepath.Join(stateHome, "bulge", "bulge.log")
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errors.Wrapf(err, errors.ErrDirCreate, "failed to create log directory for %s", path)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrFileWrite, "failed to open log file %s", path)
	}
	return file, nil
}

// LogCommand records the subcommand and its arguments
func LogCommand(cmd string, args []string) {
	log.Debug().Str("command", cmd).Strs("args", args).Msg("Executing command")
}

// LogOperationStart logs the start of a transaction step and returns a
// function that logs its duration
func LogOperationStart(logger zerolog.Logger, operation string) func() {
	start := time.Now()
	logger.Debug().Str("operation", operation).Msg("Operation started")

	return func() {
		logger.Debug().
			Str("operation", operation).
			Dur("duration", time.Since(start)).
			Msg("Operation completed")
	}
}
