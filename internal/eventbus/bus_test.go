package eventbus

import (
	"testing"
	"time"
)

func TestPublishFiltersByType(t *testing.T) {
	t.Parallel()
	b := New()
	all, unsubAll := b.Subscribe(4)
	defer unsubAll()
	over, unsubOver := b.Subscribe(4, TypeTaskOverrun)
	defer unsubOver()

	b.Publish(Event{Type: TypeTaskEnabled, Data: TaskEnabled{Task: "GPS", Enabled: true}})
	b.Publish(Event{Type: TypeTaskOverrun, Data: TaskOverrun{Task: "PID"}})

	if got := len(all); got != 2 {
		t.Fatalf("len(all) = %d, want 2", got)
	}
	if got := len(over); got != 1 {
		t.Fatalf("len(over) = %d, want 1", got)
	}
	e := <-over
	if e.Type != TypeTaskOverrun {
		t.Fatalf("Type = %q, want %q", e.Type, TypeTaskOverrun)
	}
	if e.Time.IsZero() {
		t.Fatal("Publish did not stamp Time")
	}
}

func TestPublishDropsWhenFull(t *testing.T) {
	t.Parallel()
	b := New()
	_, unsub := b.Subscribe(1)
	defer unsub()

	for i := 0; i < 3; i++ {
		b.Publish(Event{Type: TypeTaskPeriod, Time: time.Unix(int64(i), 0)})
	}
	if got := b.Dropped(); got != 2 {
		t.Fatalf("Dropped() = %d, want 2", got)
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	t.Parallel()
	b := New()
	ch, unsub := b.Subscribe(1)
	unsub()
	unsub()
	if _, ok := <-ch; ok {
		t.Fatal("channel still open after unsubscribe")
	}
	b.Publish(Event{Type: TypeTaskEnabled})
}
