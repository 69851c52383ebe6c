package il

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Sink receives recoverable diagnostics emitted while decoding, compiling,
// or disassembling a shader. Threading a Sink through these stages (rather
// than calling a global logger) keeps warning emission assertable in tests.
type Sink interface {
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// logrusSink adapts a *logrus.Logger to Sink.
type logrusSink struct {
	log *logrus.Logger
}

// NewLogrusSink wraps log as a Sink.
func NewLogrusSink(log *logrus.Logger) Sink {
	return &logrusSink{log: log}
}

func (s *logrusSink) Warnf(format string, args ...any) {
	s.log.Warnf(format, args...)
}

func (s *logrusSink) Errorf(format string, args ...any) {
	s.log.Errorf(format, args...)
}

var defaultSink = NewLogrusSink(logrus.StandardLogger())

// DefaultSink returns the package-wide default Sink, backed by logrus's
// standard logger.
func DefaultSink() Sink {
	return defaultSink
}

// NopSink discards every diagnostic. Useful for benchmarks and for callers
// that only care about the decoded/compiled result.
type NopSink struct{}

func (NopSink) Warnf(string, ...any)  {}
func (NopSink) Errorf(string, ...any) {}

// RecordingSink collects diagnostics in-memory, for test assertions.
type RecordingSink struct {
	Warnings []string
	Errors   []string
}

func (s *RecordingSink) Warnf(format string, args ...any) {
	s.Warnings = append(s.Warnings, fmt.Sprintf(format, args...))
}

func (s *RecordingSink) Errorf(format string, args ...any) {
	s.Errors = append(s.Errors, fmt.Sprintf(format, args...))
}
