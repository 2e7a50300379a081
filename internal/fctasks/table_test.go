package fctasks

import (
	"testing"
	"time"

	"fcsched/internal/sched"
)

type fakeBaro struct {
	calls int
	wait  []time.Duration
}

func (b *fakeBaro) UpdateDeadline(time.Duration) time.Duration {
	b.calls++
	if len(b.wait) == 0 {
		return 0
	}
	d := b.wait[0]
	b.wait = b.wait[1:]
	return d
}

type fakeRX struct {
	frames []time.Duration
	seen   []time.Duration
}

func (r *fakeRX) Pending(now time.Duration) bool {
	return len(r.frames) > 0 && r.frames[0] <= now
}

func (r *fakeRX) Update(now time.Duration) {
	r.seen = append(r.seen, now)
	for len(r.frames) > 0 && r.frames[0] <= now {
		r.frames = r.frames[1:]
	}
}

func TestTableMatchesFirmwareLayout(t *testing.T) {
	t.Parallel()
	tbl, err := NewTable(Bodies{})
	if err != nil {
		t.Fatalf("NewTable error: %v", err)
	}
	if tbl.Len() != Count {
		t.Fatalf("Len() = %d, want %d", tbl.Len(), Count)
	}
	tests := []struct {
		id       sched.TaskID
		name     string
		period   time.Duration
		priority sched.Priority
	}{
		{System, "SYSTEM", 100 * time.Millisecond, sched.PriorityHigh},
		{PID, "PID", time.Millisecond, sched.PriorityRealtime},
		{RX, "RX", 100 * time.Millisecond, sched.PriorityHigh},
		{Telemetry, "TELEMETRY", 2 * time.Millisecond, sched.PriorityIdle},
		{SmartportMaster, "SPORT MASTER", 2 * time.Millisecond, sched.PriorityIdle},
		{Servos, "SERVOS", 5 * time.Millisecond, sched.PriorityHigh},
		{VTXCtrl, "VTXCTRL", 200 * time.Millisecond, sched.PriorityIdle},
		{Aux, "AUX", 10 * time.Millisecond, sched.PriorityHigh},
	}
	for _, tt := range tests {
		d, ok := tbl.Descriptor(tt.id)
		if !ok {
			t.Fatalf("Descriptor(%d) missing", tt.id)
		}
		if d.Name != tt.name || d.Period != tt.period || d.Priority != tt.priority {
			t.Fatalf("Descriptor(%d) = %s/%v/%v, want %s/%v/%v", tt.id, d.Name, d.Period, d.Priority, tt.name, tt.period, tt.priority)
		}
	}
}

func TestBaroDeadlineBecomesOneShot(t *testing.T) {
	t.Parallel()
	baro := &fakeBaro{wait: []time.Duration{5 * time.Millisecond}}
	tbl, err := NewTable(Bodies{Baro: baro})
	if err != nil {
		t.Fatalf("NewTable error: %v", err)
	}
	clk := sched.NewSimClock(0)
	s, err := sched.New(tbl, clk)
	if err != nil {
		t.Fatalf("sched.New error: %v", err)
	}
	if err := s.SetEnabled(Baro, true); err != nil {
		t.Fatalf("SetEnabled error: %v", err)
	}
	if _, err := s.RunFor(100 * time.Millisecond); err != nil {
		t.Fatalf("RunFor error: %v", err)
	}
	// 50ms, then 55ms (one-shot), then 105ms is past the window.
	if baro.calls != 2 {
		t.Fatalf("baro calls = %d, want 2", baro.calls)
	}
	st, _ := s.Snapshot().Task("BARO")
	if st.NextExecuteAt != 105*time.Millisecond {
		t.Fatalf("NextExecuteAt = %v, want 105ms", st.NextExecuteAt)
	}
}

func TestRXRunsOnFramesNotTimer(t *testing.T) {
	t.Parallel()
	rx := &fakeRX{frames: []time.Duration{150 * time.Millisecond, 170 * time.Millisecond}}
	tbl, err := NewTable(Bodies{RX: rx})
	if err != nil {
		t.Fatalf("NewTable error: %v", err)
	}
	clk := sched.NewSimClock(0)
	s, err := sched.New(tbl, clk, sched.WithIdleSleep(time.Millisecond))
	if err != nil {
		t.Fatalf("sched.New error: %v", err)
	}
	if err := s.SetEnabled(RX, true); err != nil {
		t.Fatalf("SetEnabled error: %v", err)
	}
	if _, err := s.RunFor(200 * time.Millisecond); err != nil {
		t.Fatalf("RunFor error: %v", err)
	}
	// No frame at the 100ms deadline, so RX waits for the 150ms frame. The
	// 170ms frame stays pending until the next deadline at 250ms.
	want := []time.Duration{150 * time.Millisecond}
	if len(rx.seen) != len(want) || rx.seen[0] != want[0] {
		t.Fatalf("seen = %v, want %v", rx.seen, want)
	}
}
