package sched

import (
	"context"
	"fmt"
	"sync"
	"time"

	"fcsched/internal/eventbus"
	logx "fcsched/pkg/logx"
)

const (
	defaultIdleSleep    = 500 * time.Microsecond
	defaultControlQueue = 64
	defaultOverrunWarn  = 1.0
)

// Scheduler runs the tasks of one Table.
type Scheduler struct {
	table *Table
	clock Clock
	log   logx.Logger
	bus   eventbus.Bus

	aging       Aging
	idleSleep   time.Duration
	overrunWarn *logx.Throttle
	queueSize   int

	tasks    []*taskState
	queue    *deadlineQueue
	eligible []*taskState

	started   bool
	startedAt time.Duration
	current   TaskID

	ops  chan Op
	wake chan struct{}

	passes      uint64
	idlePasses  uint64
	busy        time.Duration
	loadAt      time.Duration
	loadBusy    time.Duration
	loadPercent float64

	snapMu sync.RWMutex
	snap   Snapshot
}

type Option func(*Scheduler)

func WithLogger(l logx.Logger) Option { return func(s *Scheduler) { s.log = l } }

// WithBus publishes task events (overruns, enable and period changes) to b.
func WithBus(b eventbus.Bus) Option { return func(s *Scheduler) { s.bus = b } }

func WithAging(a Aging) Option { return func(s *Scheduler) { s.aging = a } }

// WithIdleSleep bounds how long Run sleeps on an idle pass, and how often
// check-gated tasks are polled.
func WithIdleSleep(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.idleSleep = d
		}
	}
}

// WithOverrunWarnRate limits realtime overrun warnings to perSec lines per second.
func WithOverrunWarnRate(perSec float64) Option {
	return func(s *Scheduler) { s.overrunWarn = logx.NewThrottle(perSec) }
}

// WithControlQueue sizes the Post queue.
func WithControlQueue(n int) Option {
	return func(s *Scheduler) {
		if n > 0 {
			s.queueSize = n
		}
	}
}

// New creates a scheduler with every task disabled.
func New(t *Table, clk Clock, opts ...Option) (*Scheduler, error) {
	if t == nil || t.Len() == 0 {
		return nil, ErrEmptyTable
	}
	if clk == nil {
		clk = NewMonotonicClock()
	}
	s := &Scheduler{
		table:     t,
		clock:     clk,
		aging:     DefaultAging,
		idleSleep: defaultIdleSleep,
		queueSize: defaultControlQueue,
		queue:     newDeadlineQueue(),
		current:   NoTask,
		wake:      make(chan struct{}, 1),
	}
	for _, o := range opts {
		if o != nil {
			o(s)
		}
	}
	if err := s.aging.Validate(); err != nil {
		return nil, err
	}
	if s.log.IsZero() {
		s.log = logx.Nop()
	}
	s.log = s.log.With(logx.String("comp", "sched"))
	if s.overrunWarn == nil {
		s.overrunWarn = logx.NewThrottle(defaultOverrunWarn)
	}
	s.ops = make(chan Op, s.queueSize)

	s.tasks = make([]*taskState, t.Len())
	for i, d := range t.descs {
		s.tasks[i] = &taskState{desc: d, period: d.Period}
	}
	s.eligible = make([]*taskState, 0, len(s.tasks))
	s.publishSnapshot(clk.Now())
	return s, nil
}

func (s *Scheduler) Table() *Table { return s.table }
func (s *Scheduler) Clock() Clock  { return s.clock }
func (s *Scheduler) Aging() Aging  { return s.aging }

// Current returns the task whose body is running, or NoTask.
func (s *Scheduler) Current() TaskID { return s.current }

func (s *Scheduler) task(id TaskID) (*taskState, error) {
	if id < 0 || int(id) >= len(s.tasks) {
		return nil, fmt.Errorf("%w: id=%d", ErrUnknownTask, id)
	}
	return s.tasks[id], nil
}

// Enabled reports whether id is enabled. Unknown ids are reported disabled.
func (s *Scheduler) Enabled(id TaskID) bool {
	st, err := s.task(id)
	return err == nil && st.enabled
}

// Period returns the current desired period of id.
func (s *Scheduler) Period(id TaskID) time.Duration {
	st, err := s.task(id)
	if err != nil {
		return 0
	}
	return st.period
}

// SetEnabled enables or disables a task. It is idempotent. Enabling a task
// after Start makes it due immediately; disabling it clears its age.
func (s *Scheduler) SetEnabled(id TaskID, enabled bool) error {
	st, err := s.task(id)
	if err != nil {
		return err
	}
	if st.enabled == enabled {
		return nil
	}
	st.enabled = enabled
	if !enabled {
		s.queue.remove(st)
		st.ageCycles = 0
		st.reenabled = false
	} else if s.started {
		if st.running {
			st.reenabled = true
		} else {
			st.nextExecuteAt = s.clock.Now()
			s.queue.push(st)
		}
	}
	s.log.Debug("task enabled changed", logx.String("task", st.desc.Name), logx.Bool("enabled", enabled))
	s.emit(eventbus.TypeTaskEnabled, eventbus.TaskEnabled{Task: st.desc.Name, Enabled: enabled})
	s.publishSnapshot(s.clock.Now())
	return nil
}

// SetPeriod changes the desired period of a task. The current deadline is
// kept; the new period applies from the next computed deadline.
func (s *Scheduler) SetPeriod(id TaskID, period time.Duration) error {
	st, err := s.task(id)
	if err != nil {
		return err
	}
	if period < 0 {
		return fmt.Errorf("%w: task=%s period=%s", ErrInvalidPeriod, st.desc.Name, period)
	}
	if st.period == period {
		return nil
	}
	from := st.period
	st.period = period
	s.log.Debug("task period changed", logx.String("task", st.desc.Name), logx.Duration("from", from), logx.Duration("period", period))
	s.emit(eventbus.TypeTaskPeriod, eventbus.TaskPeriod{Task: st.desc.Name, From: from, Period: period})
	s.publishSnapshot(s.clock.Now())
	return nil
}

// SetAging replaces the aging function. Ages already accumulated are kept.
func (s *Scheduler) SetAging(a Aging) error {
	if err := a.Validate(); err != nil {
		return err
	}
	s.aging = a
	return nil
}

// Start seeds deadlines: realtime tasks are due now, the rest one period from now.
func (s *Scheduler) Start() error {
	if s.started {
		return ErrAlreadyStarted
	}
	s.start()
	return nil
}

func (s *Scheduler) Started() bool { return s.started }

func (s *Scheduler) start() {
	now := s.clock.Now()
	s.started = true
	s.startedAt = now
	s.loadAt = now
	enabled := 0
	for _, st := range s.tasks {
		if !st.enabled {
			continue
		}
		enabled++
		st.lastExecutedAt = now
		st.nextExecuteAt = now
		if st.desc.Priority != PriorityRealtime {
			st.nextExecuteAt = now + st.period
		}
		s.queue.push(st)
	}
	s.log.Info("scheduler started",
		logx.Int("tasks", len(s.tasks)),
		logx.Int("enabled", enabled),
		logx.Int("aging_step", s.aging.Step),
		logx.Int("aging_cap", s.aging.Cap),
	)
	s.publishSnapshot(now)
}

// SampleLoad returns the share of wall time spent in task bodies and checks
// since the previous call, in percent.
func (s *Scheduler) SampleLoad() float64 {
	now := s.clock.Now()
	dt := now - s.loadAt
	if dt <= 0 {
		return s.loadPercent
	}
	p := 100 * float64(s.busy-s.loadBusy) / float64(dt)
	if p > 100 {
		p = 100
	}
	s.loadPercent = p
	s.loadAt, s.loadBusy = now, s.busy
	return p
}

func (s *Scheduler) emit(typ string, data any) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(eventbus.Event{Type: typ, Data: data})
}

// Run drives passes until ctx is done. Idle passes sleep until the next
// deadline, bounded by the idle sleep; Post wakes the loop early.
func (s *Scheduler) Run(ctx context.Context) error {
	if !s.started {
		s.start()
	}
	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	done := ctx.Done()
	for {
		select {
		case <-done:
			return ctx.Err()
		default:
		}

		r := s.Pass()
		if !r.Idle() {
			continue
		}
		sleep := r.Wake - s.clock.Now()
		if sleep <= 0 {
			continue
		}
		if sleep > s.idleSleep {
			sleep = s.idleSleep
		}
		timer.Reset(sleep)
		select {
		case <-done:
			return ctx.Err()
		case <-s.wake:
			timer.Stop()
		case <-timer.C:
		}
	}
}

// RunFor drives passes on a caller-advanced clock for d of simulated time,
// jumping the clock to the next deadline on idle passes. Passes at exactly
// now+d are included. It returns the number of task executions.
//
// Simulated time only advances on idle passes or inside task bodies, so a
// zero-period task whose check is always true and whose body takes no time
// never lets RunFor return.
func (s *Scheduler) RunFor(d time.Duration) (int, error) {
	adv, ok := s.clock.(Advancer)
	if !ok {
		return 0, ErrNotSimulated
	}
	if !s.started {
		s.start()
	}
	end := s.clock.Now() + d
	runs := 0
	for s.clock.Now() <= end {
		r := s.Pass()
		if !r.Idle() {
			runs++
			continue
		}
		if r.Wake > end {
			adv.AdvanceTo(end)
			break
		}
		adv.AdvanceTo(r.Wake)
	}
	return runs, nil
}
