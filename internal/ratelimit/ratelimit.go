// Package ratelimit tracks ingestion byte usage per caller address.
//
// The limiter is record-then-check: usage is recorded unconditionally
// before the limit is consulted, so an over-limit upload still counts
// against the caller's window. That ordering is the trigger mechanism,
// not an accident.
package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"mediabin/internal/kvstore"
)

// Limiter is the contract consumed by the ingestion pipeline.
type Limiter interface {
	// Record adds byteCount to the caller's running usage.
	Record(ctx context.Context, caller string, byteCount int64) error
	// Exceeded reports whether the caller's usage is over budget.
	Exceeded(ctx context.Context, caller string) (bool, error)
}

// Unlimited never refuses; used in debug mode and tests.
type Unlimited struct{}

func (Unlimited) Record(context.Context, string, int64) error    { return nil }
func (Unlimited) Exceeded(context.Context, string) (bool, error) { return false, nil }

// WindowLimiter is a fixed-window byte budget stored in the shared state
// store, so every ingestion process sees the same usage.
type WindowLimiter struct {
	kv        *kvstore.Store
	namespace string
	window    time.Duration
	maxBytes  int64
	now       func() time.Time
}

// NewWindowLimiter returns a limiter allowing maxBytes per window per
// caller.
func NewWindowLimiter(kv *kvstore.Store, namespace string, window time.Duration, maxBytes int64) *WindowLimiter {
	return &WindowLimiter{
		kv:        kv,
		namespace: namespace,
		window:    window,
		maxBytes:  maxBytes,
		now:       time.Now,
	}
}

func (l *WindowLimiter) key(caller string) string {
	name := "ratelimit." + caller
	if l.namespace == "" {
		return name
	}
	return l.namespace + ":" + name
}

// Record adds byteCount to the caller's usage, starting a fresh window when
// the previous one has elapsed.
func (l *WindowLimiter) Record(ctx context.Context, caller string, byteCount int64) error {
	start, used, err := l.load(ctx, caller)
	if err != nil {
		return err
	}
	now := l.now().UTC()
	if start.IsZero() || now.Sub(start) >= l.window {
		start = now
		used = 0
	}
	used += byteCount
	value := strconv.FormatInt(start.Unix(), 10) + ":" + strconv.FormatInt(used, 10)
	if err := l.kv.Set(ctx, l.key(caller), value); err != nil {
		return fmt.Errorf("record usage for %s: %w", caller, err)
	}
	return nil
}

// Exceeded reports whether the caller's current-window usage is over the
// configured budget.
func (l *WindowLimiter) Exceeded(ctx context.Context, caller string) (bool, error) {
	start, used, err := l.load(ctx, caller)
	if err != nil {
		return false, err
	}
	if start.IsZero() || l.now().UTC().Sub(start) >= l.window {
		return false, nil
	}
	return used > l.maxBytes, nil
}

func (l *WindowLimiter) load(ctx context.Context, caller string) (time.Time, int64, error) {
	value, ok, err := l.kv.Get(ctx, l.key(caller))
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("load usage for %s: %w", caller, err)
	}
	if !ok {
		return time.Time{}, 0, nil
	}
	startText, usedText, found := strings.Cut(value, ":")
	if !found {
		return time.Time{}, 0, nil
	}
	startUnix, err := strconv.ParseInt(startText, 10, 64)
	if err != nil {
		return time.Time{}, 0, nil
	}
	used, err := strconv.ParseInt(usedText, 10, 64)
	if err != nil {
		return time.Time{}, 0, nil
	}
	return time.Unix(startUnix, 0).UTC(), used, nil
}
