// Package logging applies LOG_LEVEL and the CRITICAL level to the shared
// jmap-service-libs JSON logger.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	libslogging "github.com/jarrod-lowe/jmap-service-libs/logging"
)

// LevelCritical sits above slog.LevelError for failures that need paging
const LevelCritical = slog.Level(12)

var levelNames = map[string]slog.Level{
	"CRITICAL": LevelCritical,
	"ERROR":    slog.LevelError,
	"WARNING":  slog.LevelWarn,
	"INFO":     slog.LevelInfo,
	"DEBUG":    slog.LevelDebug,
}

// ParseLevel maps a LOG_LEVEL value to a slog level. Empty means INFO.
func ParseLevel(name string) (slog.Level, error) {
	if name == "" {
		return slog.LevelInfo, nil
	}
	level, ok := levelNames[strings.ToUpper(name)]
	if !ok {
		return 0, fmt.Errorf("unknown log level %q", name)
	}
	return level, nil
}

// SeverityKey carries "CRITICAL" on records at LevelCritical
const SeverityKey = "severity"

// New returns the shared Lambda JSON logger from jmap-service-libs, filtered
// at level
func New(level slog.Level) *slog.Logger {
	return slog.New(newLevelHandler(libslogging.New().Handler(), level))
}

// NewWithWriter returns a JSON logger writing to w, filtered at level
func NewWithWriter(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(newLevelHandler(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}), level))
}

// levelHandler applies the LOG_LEVEL threshold in front of another handler and
// marks critical records, which slog would otherwise render as "ERROR+4".
type levelHandler struct {
	level slog.Leveler
	next  slog.Handler
}

func newLevelHandler(next slog.Handler, level slog.Leveler) *levelHandler {
	return &levelHandler{level: level, next: next}
}

func (h *levelHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *levelHandler) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= LevelCritical {
		r = r.Clone()
		r.AddAttrs(slog.String(SeverityKey, "CRITICAL"))
	}
	return h.next.Handle(ctx, r)
}

func (h *levelHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return newLevelHandler(h.next.WithAttrs(attrs), h.level)
}

func (h *levelHandler) WithGroup(name string) slog.Handler {
	return newLevelHandler(h.next.WithGroup(name), h.level)
}
