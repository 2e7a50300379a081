package watchdog

import (
	"errors"
	"testing"
	"time"

	logx "fcsched/pkg/logx"
)

type fakeNotify struct {
	states []string
	err    error
}

func (f *fakeNotify) notify(state string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	f.states = append(f.states, state)
	return true, nil
}

func newTest(interval time.Duration) (*Notifier, *fakeNotify, *time.Time) {
	f := &fakeNotify{}
	now := time.Unix(1000, 0)
	n := &Notifier{enabled: true, interval: interval, log: logx.Nop(), notify: f.notify}
	n.now = func() time.Time { return now }
	return n, f, &now
}

func TestKickThrottlesToHalfInterval(t *testing.T) {
	t.Parallel()

	n, f, now := newTest(2 * time.Second)
	n.Kick()
	*now = now.Add(500 * time.Millisecond)
	n.Kick()
	*now = now.Add(499 * time.Millisecond)
	n.Kick()
	if got := n.Kicks(); got != 1 {
		t.Fatalf("Kicks() = %d, want 1", got)
	}
	*now = now.Add(time.Millisecond)
	n.Kick()
	if got := n.Kicks(); got != 2 {
		t.Fatalf("Kicks() = %d, want 2", got)
	}
	for _, s := range f.states {
		if s != "WATCHDOG=1" {
			t.Fatalf("state = %q, want WATCHDOG=1", s)
		}
	}
}

func TestKickWithoutInterval(t *testing.T) {
	t.Parallel()

	n, f, _ := newTest(0)
	n.Kick()
	if len(f.states) != 0 {
		t.Fatalf("states = %v, want none", f.states)
	}
}

func TestDisabledIsNoop(t *testing.T) {
	t.Parallel()

	n := New(false, logx.Nop())
	if n.Ready() || n.Stopping() || n.Status("x") {
		t.Fatalf("disabled notifier reported a send")
	}
	n.Kick()
	if n.Kicks() != 0 {
		t.Fatalf("Kicks() = %d, want 0", n.Kicks())
	}
}

func TestLifecycleStates(t *testing.T) {
	t.Parallel()

	n, f, _ := newTest(time.Second)
	n.Ready()
	n.Status("load 12%")
	n.Stopping()
	want := []string{"READY=1", "STATUS=load 12%", "STOPPING=1"}
	if len(f.states) != len(want) {
		t.Fatalf("states = %v, want %v", f.states, want)
	}
	for i := range want {
		if f.states[i] != want[i] {
			t.Fatalf("states[%d] = %q, want %q", i, f.states[i], want[i])
		}
	}

	f.err = errors.New("socket gone")
	if n.Ready() {
		t.Fatalf("Ready() = true on notify error")
	}
}
