// Package service wraps the REST client with the offline fallback: reads
// degrade to bundled samples or the local snapshot, writes degrade to the
// snapshot. Every call says which one answered.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/reportconsole/internal/notify"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrSuspended = errors.New("report is suspended")
)

type Source int

const (
	SourceLive Source = iota
	SourceFallback
)

func (s Source) String() string {
	if s == SourceFallback {
		return "fallback"
	}
	return "live"
}

// Result is a value plus where it came from. LocalRef is set on writes kept
// in the local snapshot. Message carries the status text the server answered
// a write with.
type Result[T any] struct {
	Value    T
	Source   Source
	LocalRef string
	Message  string
}

func (r Result[T]) Live() bool {
	return r.Source == SourceLive
}

// OfflineSaved reports whether a write was kept locally instead of on the server.
func (r Result[T]) OfflineSaved() bool {
	return r.Source == SourceFallback && r.LocalRef != ""
}

func live[T any](v T) Result[T] {
	return Result[T]{Value: v, Source: SourceLive}
}

func degraded[T any](v T) Result[T] {
	return Result[T]{Value: v, Source: SourceFallback}
}

type Option func(*base)

func WithLogger(log *zap.Logger) Option {
	return func(b *base) { b.log = log }
}

func WithNotifier(n notify.Notifier) Option {
	return func(b *base) { b.notifier = n }
}

func WithClock(now func() time.Time) Option {
	return func(b *base) { b.now = now }
}

type base struct {
	log      *zap.Logger
	notifier notify.Notifier
	now      func() time.Time
}

func newBase(opts []Option) base {
	b := base{
		log:      zap.NewNop(),
		notifier: notify.Nop{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

// unavailable logs the failed call and reports whether the fallback may
// answer. A cancelled context is never degraded.
func (b base) unavailable(ctx context.Context, op string, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	b.log.Warn("backend call failed, using fallback", zap.String("op", op), zap.Error(err))
	return true
}

// savedOffline issues a local reference for a write kept in the snapshot and
// announces it. Notifier failures are only logged.
func (b base) savedOffline(ctx context.Context, resource, action, name string) string {
	ref := uuid.NewString()
	n := notify.Notice{
		Resource: resource,
		Action:   action,
		Name:     name,
		LocalRef: ref,
		At:       b.now(),
	}
	if err := b.notifier.OfflineSaved(ctx, n); err != nil {
		b.log.Warn("failed to announce offline save", zap.String("ref", ref), zap.Error(err))
	}
	b.log.Info("saved locally", zap.String("resource", resource), zap.String("action", action), zap.String("ref", ref))
	return ref
}

// statusText decodes a status answer that is either a JSON string or bare text.
func statusText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

func unrecoverable(op string, err error) error {
	return fmt.Errorf("failed to %s: %w", op, err)
}
