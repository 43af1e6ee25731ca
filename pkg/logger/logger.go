package logger

import (
	"context"
	"io"
	"os"
	"runtime/debug"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/clodamigoles/dossiers.vevo/pkg/env"
)

const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// Options configures the structured logger. Format falls back to
// VEVO_LOG_FORMAT (or LOG_FORMAT) and then to json.
type Options struct {
	ServiceName string
	Level       zerolog.Level
	Format      string
	WarnStack   bool
	Output      io.Writer
}

// Logger writes JSON entries through zerolog. Fields added with the With*
// helpers travel on the context, so downstream calls inherit them.
type Logger struct {
	base      zerolog.Logger
	warnStack bool
}

var nop = zerolog.Nop()

func init() {
	zerolog.TimeFieldFormat = time.RFC3339Nano
}

func New(opts Options) *Logger {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	if resolveFormat(opts.Format) == FormatConsole {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}
	}
	level := opts.Level
	if level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	return &Logger{
		base: zerolog.New(out).
			Level(level).
			With().
			Timestamp().
			Str("service", opts.ServiceName).
			Logger(),
		warnStack: opts.WarnStack,
	}
}

func resolveFormat(format string) string {
	if format == "" {
		format, _ = env.First("VEVO_LOG_FORMAT", "LOG_FORMAT")
	}
	if strings.EqualFold(strings.TrimSpace(format), FormatConsole) {
		return FormatConsole
	}
	return FormatJSON
}

// ParseLevel maps a config value to a zerolog level, defaulting to info.
func ParseLevel(value string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(value)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// entry resolves the logger bound to ctx. A nil *Logger discards everything.
func (l *Logger) entry(ctx context.Context) *zerolog.Logger {
	if l == nil {
		return &nop
	}
	if ctx != nil {
		if bound := zerolog.Ctx(ctx); bound != nil && bound.GetLevel() != zerolog.Disabled {
			return bound
		}
	}
	return &l.base
}

func (l *Logger) bind(ctx context.Context, with func(zerolog.Context) zerolog.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	child := with(l.entry(ctx).With()).Logger()
	return child.WithContext(ctx)
}

func (l *Logger) WithField(ctx context.Context, key string, value any) context.Context {
	return l.bind(ctx, func(c zerolog.Context) zerolog.Context {
		return c.Interface(key, value)
	})
}

func (l *Logger) WithFields(ctx context.Context, fields map[string]any) context.Context {
	return l.bind(ctx, func(c zerolog.Context) zerolog.Context {
		return c.Fields(fields)
	})
}

func (l *Logger) WithRequestID(ctx context.Context, requestID string) context.Context {
	return l.WithField(ctx, "request_id", requestID)
}

// WithRecordID tags every following entry with the sale record being handled.
func (l *Logger) WithRecordID(ctx context.Context, recordID string) context.Context {
	return l.WithField(ctx, "record_id", recordID)
}

func (l *Logger) WithActorRole(ctx context.Context, role string) context.Context {
	return l.WithField(ctx, "actor_role", role)
}

func (l *Logger) WithJob(ctx context.Context, job string) context.Context {
	return l.WithField(ctx, "job", job)
}

func (l *Logger) Debug(ctx context.Context, msg string) {
	l.entry(ctx).Debug().Msg(msg)
}

func (l *Logger) Info(ctx context.Context, msg string) {
	l.entry(ctx).Info().Msg(msg)
}

func (l *Logger) Warn(ctx context.Context, msg string) {
	event := l.entry(ctx).Warn()
	if l != nil && l.warnStack {
		event = event.Str("stack", stack())
	}
	event.Msg(msg)
}

// Error always attaches the current stack.
func (l *Logger) Error(ctx context.Context, msg string, err error) {
	l.entry(ctx).Error().Err(err).Str("stack", stack()).Msg(msg)
}

func stack() string {
	return strings.TrimSpace(string(debug.Stack()))
}
