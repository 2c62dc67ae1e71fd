// Package stream fan-outs feed events to connected clients so the frontend
// can render new posts without polling.
package stream

import (
	"context"
	"sync"
	"time"
)

// PostEvent describes a newly published post for the live feed. Text is an
// excerpt, not the full body.
type PostEvent struct {
	PostID    string    `json:"post_id"`
	UserID    string    `json:"user"`
	Name      string    `json:"name,omitempty"`
	Avatar    string    `json:"avatar,omitempty"`
	Excerpt   string    `json:"excerpt"`
	Timestamp time.Time `json:"timestamp"`
}

const excerptLimit = 80

// Excerpt shortens a post body for feed display.
func Excerpt(text string) string {
	runes := []rune(text)
	if len(runes) <= excerptLimit {
		return text
	}
	return string(runes[:excerptLimit]) + "…"
}

// Feed fan-outs post events to all active subscribers (SSE clients).
type Feed struct {
	mu   sync.RWMutex
	subs map[int]chan PostEvent
	next int
}

// New initialises an empty feed.
func New() *Feed {
	return &Feed{subs: make(map[int]chan PostEvent)}
}

// Subscribe registers a subscriber and returns a channel which will receive
// events. The channel is closed when the provided context ends.
func (f *Feed) Subscribe(ctx context.Context) <-chan PostEvent {
	ch := make(chan PostEvent, 16)

	f.mu.Lock()
	id := f.next
	f.next++
	f.subs[id] = ch
	f.mu.Unlock()

	go func() {
		<-ctx.Done()
		f.mu.Lock()
		delete(f.subs, id)
		close(ch)
		f.mu.Unlock()
	}()

	return ch
}

// Publish fan-outs the event to all subscribers.
func (f *Feed) Publish(evt PostEvent) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, ch := range f.subs {
		select {
		case ch <- evt:
		default:
			// Drop when subscriber is slow to avoid blocking.
		}
	}
}
