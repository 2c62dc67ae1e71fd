package stream

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestSubscribeAndPublish(t *testing.T) {
	feed := New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := feed.Subscribe(ctx)
	evt := PostEvent{PostID: "p-1", UserID: "u-1", Excerpt: "hello", Timestamp: time.Now().UTC()}
	feed.Publish(evt)

	select {
	case got := <-ch:
		if got.PostID != "p-1" {
			t.Fatalf("unexpected event: %+v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestSubscribeClosedOnContextCancel(t *testing.T) {
	feed := New()
	ctx, cancel := context.WithCancel(context.Background())
	ch := feed.Subscribe(ctx)
	cancel()

	select {
	case _, open := <-ch:
		if open {
			t.Fatal("expected closed channel")
		}
	case <-time.After(time.Second):
		t.Fatal("channel not closed after cancel")
	}
}

func TestExcerpt(t *testing.T) {
	short := "short text"
	if Excerpt(short) != short {
		t.Fatalf("short text should be untouched")
	}
	long := strings.Repeat("x", 200)
	got := Excerpt(long)
	if len([]rune(got)) != excerptLimit+1 {
		t.Fatalf("unexpected excerpt length: %d", len([]rune(got)))
	}
	if !strings.HasSuffix(got, "…") {
		t.Fatalf("excerpt missing ellipsis: %q", got)
	}
}
