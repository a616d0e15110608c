// Package audit records one structured line per handled request in an
// append-only, size-rotated log file.
//
// Writing is best-effort: failures are reported to the diagnostic logger and
// never reach the caller.
package audit

import (
	"fmt"
	"io"
	"runtime"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/Emilianodz/multiagent-orch-system/internal/model"
	"github.com/Emilianodz/multiagent-orch-system/pkg/logger"
	"github.com/Emilianodz/multiagent-orch-system/pkg/metrics"
)

// Options configures the rotating sink.
type Options struct {
	Filename   string
	MaxSizeMB  int
	MaxBackups int
	Compress   bool
}

// DefaultOptions rotates at 5 MB and keeps 5 backups.
func DefaultOptions(filename string) Options {
	return Options{
		Filename:   filename,
		MaxSizeMB:  5,
		MaxBackups: 5,
	}
}

var now = time.Now

// Build assembles a log entry stamped with the current UTC time.
func Build(userID, conversationID, query, routerQuery string, routerResponse *model.DispatchResult, finalResponse string) model.LogEntry {
	return model.LogEntry{
		Timestamp:      now().UTC(),
		UserID:         userID,
		ConversationID: conversationID,
		Query:          query,
		RouterQuery:    routerQuery,
		RouterResponse: routerResponse,
		FinalResponse:  finalResponse,
	}
}

// Logger appends audit entries to a rotating file.
type Logger struct {
	mu      sync.Mutex
	out     io.Writer
	closer  io.Closer
	encoder zapcore.Encoder
	diag    *logger.Logger
}

// New opens the rotating audit sink described by opts.
func New(opts Options, diag *logger.Logger) *Logger {
	rotator := &lumberjack.Logger{
		Filename:   opts.Filename,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		Compress:   opts.Compress,
		LocalTime:  false,
	}
	l := newLogger(rotator, diag)
	l.closer = rotator
	return l
}

func newLogger(w io.Writer, diag *logger.Logger) *Logger {
	cfg := logger.EncoderConfig()
	cfg.TimeKey = ""
	cfg.CallerKey = ""
	cfg.NameKey = ""
	cfg.StacktraceKey = ""
	cfg.MessageKey = "event"

	return &Logger{
		out:     w,
		encoder: zapcore.NewJSONEncoder(cfg),
		diag:    diag,
	}
}

// Append writes entry as a single compact JSON line.
func (l *Logger) Append(entry model.LogEntry) {
	fields := []zap.Field{
		zap.String("timestamp", entry.Timestamp.UTC().Format(time.RFC3339Nano)),
		zap.String("user_id", entry.UserID),
		zap.String("conversation_id", entry.ConversationID),
		zap.String("query", entry.Query),
		zap.String("router_query", entry.RouterQuery),
		zap.Any("router_response", entry.RouterResponse),
		zap.String("final_response", entry.FinalResponse),
	}

	if err := l.write(zapcore.InfoLevel, "interaction", fields); err != nil {
		metrics.AuditEntriesTotal.WithLabelValues("error").Inc()
		l.diag.Error("failed to write audit entry",
			zap.Error(err),
			zap.String("conversation_id", entry.ConversationID),
		)
		return
	}
	metrics.AuditEntriesTotal.WithLabelValues("written").Inc()
}

// Diagnostic records a failed request with its error and the current
// goroutine's stack.
func (l *Logger) Diagnostic(userID, conversationID, query string, err error) {
	stack := make([]byte, 8192)
	n := runtime.Stack(stack, false)

	fields := []zap.Field{
		zap.String("timestamp", now().UTC().Format(time.RFC3339Nano)),
		zap.String("user_id", userID),
		zap.String("conversation_id", conversationID),
		zap.String("query", query),
		zap.String("error", fmt.Sprint(err)),
		zap.String("error_type", fmt.Sprintf("%T", err)),
		zap.String("stack_trace", string(stack[:n])),
	}

	if werr := l.write(zapcore.ErrorLevel, "request_failed", fields); werr != nil {
		l.diag.Error("failed to write audit diagnostic",
			zap.Error(werr),
			zap.NamedError("request_error", err),
			zap.String("conversation_id", conversationID),
		)
	}
}

func (l *Logger) write(level zapcore.Level, event string, fields []zap.Field) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("audit encoder panic: %v", r)
		}
	}()

	buf, err := l.encoder.EncodeEntry(zapcore.Entry{Level: level, Message: event}, fields)
	if err != nil {
		return fmt.Errorf("failed to encode audit entry: %w", err)
	}
	defer buf.Free()

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := l.out.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write audit entry: %w", err)
	}
	return nil
}

// Close flushes and closes the sink.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}
