package logger

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

type Logger struct {
	verbose bool
	logger  zerolog.Logger
}

// New returns a console logger on stderr. Debug messages are only emitted
// when verbose is set.
func New(verbose bool) *Logger {
	noColor := !isatty.IsTerminal(os.Stderr.Fd()) && !isatty.IsCygwinTerminal(os.Stderr.Fd())
	out := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
		NoColor:    noColor,
	}
	return newLogger(out, verbose)
}

// NewWithWriter writes plain JSON lines to w.
func NewWithWriter(w io.Writer, verbose bool) *Logger {
	return newLogger(w, verbose)
}

// Nop discards everything.
func Nop() *Logger {
	return &Logger{logger: zerolog.Nop()}
}

func newLogger(w io.Writer, verbose bool) *Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return &Logger{
		verbose: verbose,
		logger:  zerolog.New(w).Level(level).With().Timestamp().Logger(),
	}
}

func (l *Logger) Verbose() bool {
	return l.verbose
}

// Zerolog exposes the underlying logger for structured fields.
func (l *Logger) Zerolog() *zerolog.Logger {
	return &l.logger
}

func (l *Logger) Info(format string, args ...interface{}) {
	l.logger.Info().Msgf(format, args...)
}

func (l *Logger) Debug(format string, args ...interface{}) {
	l.logger.Debug().Msgf(format, args...)
}

func (l *Logger) Warn(format string, args ...interface{}) {
	l.logger.Warn().Msgf(format, args...)
}

func (l *Logger) Error(format string, args ...interface{}) {
	l.logger.Error().Msgf(format, args...)
}

func (l *Logger) Fatal(format string, args ...interface{}) {
	l.logger.WithLevel(zerolog.FatalLevel).Msgf(format, args...)
	os.Exit(1)
}

func (l *Logger) Print(v ...interface{}) {
	fmt.Print(v...)
}

func (l *Logger) Printf(format string, args ...interface{}) {
	fmt.Printf(format, args...)
}

func (l *Logger) Println(v ...interface{}) {
	fmt.Println(v...)
}
