package events

import (
	"context"
	"sync"
)

// Notice is a non-fatal advisory raised by a hook.
type Notice struct {
	Title   string `json:"title,omitempty"`
	Message string `json:"message"`
}

type noticeBox struct {
	mu      sync.Mutex
	notices []Notice
}

type noticeKey struct{}

// WithNotices returns a context that collects notices raised during a request.
func WithNotices(ctx context.Context) context.Context {
	if _, ok := ctx.Value(noticeKey{}).(*noticeBox); ok {
		return ctx
	}
	return context.WithValue(ctx, noticeKey{}, &noticeBox{})
}

// Notify records an advisory. It is dropped when ctx has no collector.
func Notify(ctx context.Context, title, message string) {
	box, ok := ctx.Value(noticeKey{}).(*noticeBox)
	if !ok {
		return
	}
	box.mu.Lock()
	defer box.mu.Unlock()
	box.notices = append(box.notices, Notice{Title: title, Message: message})
}

// Notices returns the advisories collected so far.
func Notices(ctx context.Context) []Notice {
	box, ok := ctx.Value(noticeKey{}).(*noticeBox)
	if !ok {
		return nil
	}
	box.mu.Lock()
	defer box.mu.Unlock()
	return append([]Notice(nil), box.notices...)
}
