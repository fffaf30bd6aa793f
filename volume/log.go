package volume

import (
	"fmt"
	"io"
	"log"
	"time"

	"github.com/natefinch/lumberjack"
)

// ModeFlag is the minimum severity a Logger writes.
type ModeFlag uint

const (
	DebugMode ModeFlag = iota
	InfoMode
	WarningMode
	ErrorMode
	SilentMode
)

// Logger provides a way for the pipeline to log messages at different severities.
type Logger interface {
	// Debugf formats its arguments analogous to fmt.Printf and records the text as a log
	// message at Debug level.
	Debugf(format string, args ...any)

	// Infof is like Debugf, but at Info level.
	Infof(format string, args ...any)

	// Warningf is like Debugf, but at Warning level.
	Warningf(format string, args ...any)

	// Errorf is like Debugf, but at Error level.
	Errorf(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any)   {}
func (nopLogger) Infof(string, ...any)    {}
func (nopLogger) Warningf(string, ...any) {}
func (nopLogger) Errorf(string, ...any)   {}

// StdLogger writes messages at or above its mode through a standard library
// logger, prefixed by their severity.
type StdLogger struct {
	l    *log.Logger
	mode ModeFlag
}

// NewStdLogger returns a StdLogger writing to w.
func NewStdLogger(w io.Writer, mode ModeFlag) *StdLogger {
	return &StdLogger{l: log.New(w, "", log.LstdFlags), mode: mode}
}

func (s *StdLogger) printf(m ModeFlag, level, format string, args []any) {
	if s.mode <= m {
		s.l.Output(3, level+fmt.Sprintf(format, args...))
	}
}

func (s *StdLogger) Debugf(format string, args ...any) {
	s.printf(DebugMode, " DEBUG ", format, args)
}

func (s *StdLogger) Infof(format string, args ...any) {
	s.printf(InfoMode, " INFO ", format, args)
}

func (s *StdLogger) Warningf(format string, args ...any) {
	s.printf(WarningMode, " WARNING ", format, args)
}

func (s *StdLogger) Errorf(format string, args ...any) {
	s.printf(ErrorMode, " ERROR ", format, args)
}

// LogConfig configures a rotating log file.
type LogConfig struct {
	Logfile string `toml:"logfile"`
	MaxSize int    `toml:"max_log_size"` // megabytes
	MaxAge  int    `toml:"max_log_age"`  // days
	Verbose bool   `toml:"verbose"`
}

// Logger returns a Logger writing to the configured rotating log file and
// the closer of that file. With no log file, messages go to fallback.
func (c LogConfig) Logger(fallback io.Writer) (Logger, io.Closer) {
	mode := InfoMode
	if c.Verbose {
		mode = DebugMode
	}
	if c.Logfile == "" {
		return NewStdLogger(fallback, mode), io.NopCloser(nil)
	}
	l := &lumberjack.Logger{
		Filename: c.Logfile,
		MaxSize:  c.MaxSize,
		MaxAge:   c.MaxAge,
	}
	return NewStdLogger(l, mode), l
}

// TimeLog adds elapsed time to logging.
// Example:
//
//	mylog := NewTimeLog(logger)
//	...
//	mylog.Debugf("stuff happened")  // Appends elapsed time from NewTimeLog() to message.
type TimeLog struct {
	logger Logger
	start  time.Time
}

func NewTimeLog(l Logger) TimeLog {
	return TimeLog{l, time.Now()}
}

func (t TimeLog) Debugf(format string, args ...any) {
	t.logger.Debugf(format+": %s", append(args, time.Since(t.start))...)
}

func (t TimeLog) Infof(format string, args ...any) {
	t.logger.Infof(format+": %s", append(args, time.Since(t.start))...)
}

func (t TimeLog) Warningf(format string, args ...any) {
	t.logger.Warningf(format+": %s", append(args, time.Since(t.start))...)
}

func (t TimeLog) Errorf(format string, args ...any) {
	t.logger.Errorf(format+": %s", append(args, time.Since(t.start))...)
}
