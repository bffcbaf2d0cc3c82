package diag

import (
	"errors"
	"testing"
	"time"
)

func TestBroadcastReachesSubscriber(t *testing.T) {
	b := NewBroadcaster(nil)
	ch, cancel := b.Subscribe()
	defer cancel()

	want := errors.New("boom")
	b.Broadcast(want)

	select {
	case ev := <-ch:
		if ev.Message != "boom" {
			t.Errorf("message = %q", ev.Message)
		}
		if !errors.Is(ev.Err, want) {
			t.Errorf("Err = %v, want the original error", ev.Err)
		}
		if ev.Kind != KindInternal {
			t.Errorf("kind = %q, want default internal", ev.Kind)
		}
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
	}
}

func TestBroadcastNilIsNoop(t *testing.T) {
	b := NewBroadcaster(nil)
	ch, cancel := b.Subscribe()
	defer cancel()

	b.Broadcast(nil)
	select {
	case ev := <-ch:
		t.Errorf("unexpected event %+v for nil error", ev)
	default:
	}
}

func TestCancelClosesChannel(t *testing.T) {
	b := NewBroadcaster(nil)
	ch, cancel := b.Subscribe()
	cancel()
	cancel() // idempotent

	if _, open := <-ch; open {
		t.Error("channel still open after cancel")
	}
	if b.SubscriberCount() != 0 {
		t.Errorf("SubscriberCount = %d after cancel", b.SubscriberCount())
	}
}

func TestSlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	b := NewBroadcaster(nil)
	_, cancel := b.Subscribe() // never read from
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer*2; i++ {
			b.Broadcast(errors.New("flood"))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Broadcast blocked on a slow subscriber")
	}
}

func TestClassifier(t *testing.T) {
	b := NewBroadcaster(nil)
	b.Classify(func(err error) string { return KindScript })
	ch, cancel := b.Subscribe()
	defer cancel()

	b.Broadcast(errors.New("traceback"))
	ev := <-ch
	if ev.Kind != KindScript {
		t.Errorf("kind = %q, want %q", ev.Kind, KindScript)
	}
}
