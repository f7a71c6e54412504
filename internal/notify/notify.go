// Package notify announces offline saves and builds report notification mail.
package notify

import (
	"context"
	"time"
)

// Notice describes one write that was kept locally because the backend
// could not be reached.
type Notice struct {
	Resource string
	Action   string
	Name     string
	LocalRef string
	At       time.Time
}

type Notifier interface {
	OfflineSaved(ctx context.Context, n Notice) error
}

// Nop discards every notice.
type Nop struct{}

func (Nop) OfflineSaved(context.Context, Notice) error { return nil }
