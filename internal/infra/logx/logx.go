package logx

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Level represents log severity.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "debug"
	}
}

func (l Level) zerolog() zerolog.Level {
	switch l {
	case LevelInfo:
		return zerolog.InfoLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.DebugLevel
	}
}

// ParseLevel maps a level name to a Level. Unknown names yield LevelWarn.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug", "trace":
		return LevelDebug
	case "info":
		return LevelInfo
	case "error", "fatal":
		return LevelError
	default:
		return LevelWarn
	}
}

const messageLimit = 2 * 1024

var (
	mu       sync.RWMutex
	minLevel           = LevelWarn
	out      io.Writer = io.Discard
	secrets            = make([]string, 0)
	verbose  bool
)

// SetOutput sets the destination for logs. A nil writer discards output.
func SetOutput(w io.Writer) {
	if w == nil {
		w = io.Discard
	}
	mu.Lock()
	out = w
	mu.Unlock()
}

// SetMinLevel sets the minimum level to emit.
func SetMinLevel(l Level) { mu.Lock(); minLevel = l; mu.Unlock() }

// SetVerbose toggles verbose output (no truncation of large fields/messages).
func SetVerbose(v bool) { mu.Lock(); verbose = v; mu.Unlock() }

// Verbose returns whether verbose output is enabled.
func Verbose() bool { mu.RLock(); defer mu.RUnlock(); return verbose }

// Enabled reports whether a message at l would be written.
func Enabled(l Level) bool { mu.RLock(); defer mu.RUnlock(); return l >= minLevel }

// RegisterSecret adds a string to be redacted in outputs.
func RegisterSecret(s string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return
	}
	mu.Lock()
	secrets = append(secrets, s)
	mu.Unlock()
}

// RegisterSecrets adds multiple secrets for redaction.
func RegisterSecrets(list []string) {
	for _, s := range list {
		RegisterSecret(s)
	}
}

// StdlogWriter wraps writes as structured JSON lines at a fixed level.
// It applies redaction and optional truncation when verbose is disabled.
func StdlogWriter(level Level, w io.Writer) io.Writer {
	if w == nil {
		w = os.Stderr
	}
	return &stdlogWriter{level: level, w: w}
}

type stdlogWriter struct {
	level Level
	w     io.Writer
}

func (sw *stdlogWriter) Write(p []byte) (int, error) {
	for _, line := range bytes.Split(p, []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		emit(sw.w, sw.level, string(line), nil)
	}
	return len(p), nil
}

// Debugf logs a debug message.
func Debugf(format string, args ...any) { emit(output(), LevelDebug, fmt.Sprintf(format, args...), nil) }

// Infof logs an info message.
func Infof(format string, args ...any) { emit(output(), LevelInfo, fmt.Sprintf(format, args...), nil) }

// Warnf logs a warning message.
func Warnf(format string, args ...any) { emit(output(), LevelWarn, fmt.Sprintf(format, args...), nil) }

// Errorf logs an error message.
func Errorf(format string, args ...any) { emit(output(), LevelError, fmt.Sprintf(format, args...), nil) }

// Entry carries structured fields for a single log line.
type Entry struct {
	fields map[string]any
}

// With starts an entry with one field.
func With(key string, val any) Entry {
	return Entry{}.With(key, val)
}

// With returns a copy of e with key set.
func (e Entry) With(key string, val any) Entry {
	fields := make(map[string]any, len(e.fields)+1)
	for k, v := range e.fields {
		fields[k] = v
	}
	if err, ok := val.(error); ok && err != nil {
		val = err.Error()
	}
	fields[key] = val
	return Entry{fields: fields}
}

func (e Entry) Debugf(format string, args ...any) {
	emit(output(), LevelDebug, fmt.Sprintf(format, args...), e.fields)
}

func (e Entry) Infof(format string, args ...any) {
	emit(output(), LevelInfo, fmt.Sprintf(format, args...), e.fields)
}

func (e Entry) Warnf(format string, args ...any) {
	emit(output(), LevelWarn, fmt.Sprintf(format, args...), e.fields)
}

func (e Entry) Errorf(format string, args ...any) {
	emit(output(), LevelError, fmt.Sprintf(format, args...), e.fields)
}

func output() io.Writer {
	mu.RLock()
	defer mu.RUnlock()
	return out
}

func emit(w io.Writer, lvl Level, msg string, fields map[string]any) {
	mu.RLock()
	ml := minLevel
	v := verbose
	mu.RUnlock()
	if lvl < ml {
		return
	}
	msg = redact(msg)
	if !v {
		msg = truncate(msg, messageLimit)
	}
	logger := zerolog.New(w).With().Timestamp().Logger()
	ev := logger.WithLevel(lvl.zerolog())
	for k, val := range fields {
		if s, ok := val.(string); ok {
			s = redact(s)
			if !v {
				s = truncate(s, messageLimit)
			}
			val = s
		}
		ev = ev.Interface(k, val)
	}
	ev.Msg(msg)
}

func redact(s string) string {
	mu.RLock()
	defer mu.RUnlock()
	if len(secrets) == 0 {
		return s
	}
	out := s
	for _, sec := range secrets {
		if sec == "" {
			continue
		}
		out = strings.ReplaceAll(out, sec, "[REDACTED]")
	}
	return out
}

func truncate(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	// keep last 10 chars to aid context
	suffix := "… [truncated]"
	if limit > len(suffix)+10 {
		head := s[:limit-len(suffix)-10]
		tail := s[len(s)-10:]
		return head + suffix + tail
	}
	return s[:limit]
}
