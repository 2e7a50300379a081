// Package report samples the scheduler on a cron schedule, logs a load
// summary, and persists samples and scheduler events to storage.
package report

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"fcsched/internal/sched"
	"fcsched/internal/storage"
	logx "fcsched/pkg/logx"
)

type Config struct {
	Enabled  bool
	Schedule string
	Top      int
}

// Source is anything that can publish a scheduler snapshot.
type Source interface {
	Snapshot() sched.Snapshot
}

type Reporter struct {
	mu      sync.Mutex
	cfg     Config
	src     Source
	store   storage.Store
	session string
	log     logx.Logger
	now     func() time.Time

	runCtx context.Context
	c      *cron.Cron
}

// New returns a stopped reporter. store may be nil.
func New(cfg Config, src Source, store storage.Store, session string, log logx.Logger) *Reporter {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Reporter{cfg: cfg, src: src, store: store, session: session, log: log, now: time.Now}
}

// Run starts the cron trigger and blocks until ctx is done. Reconfigure
// applies to the running trigger.
func (r *Reporter) Run(ctx context.Context) error {
	r.mu.Lock()
	r.runCtx = ctx
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		r.runCtx = nil
		r.mu.Unlock()
		r.stop()
	}()
	if err := r.start(); err != nil {
		return err
	}
	<-ctx.Done()
	return nil
}

func (r *Reporter) start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.c != nil || r.runCtx == nil || !r.cfg.Enabled {
		return nil
	}
	schedule, err := ParseSchedule(r.cfg.Schedule)
	if err != nil {
		return err
	}
	ctx := r.runCtx
	r.c = cron.New(cron.WithParser(parser))
	r.c.Schedule(schedule, cron.FuncJob(func() {
		if _, err := r.Tick(ctx); err != nil {
			r.log.Warn("report tick failed", logx.Err(err))
		}
	}))
	r.c.Start()
	r.log.Debug("reporter started", logx.String("schedule", r.cfg.Schedule))
	return nil
}

func (r *Reporter) stop() {
	r.mu.Lock()
	c := r.c
	r.c = nil
	r.mu.Unlock()
	if c == nil {
		return
	}
	// Wait for an in-flight tick.
	<-c.Stop().Done()
}

// Running reports whether the cron trigger is active.
func (r *Reporter) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.c != nil
}

// Reconfigure applies cfg, restarting the trigger when Run is active.
func (r *Reporter) Reconfigure(cfg Config) error {
	if cfg.Enabled {
		if _, err := ParseSchedule(cfg.Schedule); err != nil {
			return err
		}
	}
	r.mu.Lock()
	same := r.cfg == cfg
	r.cfg = cfg
	r.mu.Unlock()
	if same {
		return nil
	}
	r.stop()
	return r.start()
}

// Tick samples the scheduler once. Nothing is logged or stored before the
// scheduler has started.
func (r *Reporter) Tick(ctx context.Context) (storage.SampleBatch, error) {
	snap := r.src.Snapshot()
	if !snap.Started {
		return storage.SampleBatch{}, nil
	}
	r.mu.Lock()
	top := r.cfg.Top
	r.mu.Unlock()

	b := Batch(r.session, r.now(), snap)
	r.log.Info("scheduler load",
		logx.Float64("load_pct", snap.LoadPercent),
		logx.Uint64("passes", snap.Passes),
		logx.Uint64("idle_passes", snap.IdlePasses),
		logx.Duration("uptime", snap.Uptime),
		logx.Strs("top", summarize(Top(snap, top))),
	)
	if r.store == nil {
		return b, nil
	}
	if err := r.store.AppendSamples(ctx, b); err != nil {
		return b, fmt.Errorf("append samples: %w", err)
	}
	return b, nil
}

// Batch converts a snapshot into a storable sample batch.
func Batch(session string, at time.Time, snap sched.Snapshot) storage.SampleBatch {
	b := storage.SampleBatch{
		Session:     session,
		At:          at,
		Uptime:      snap.Uptime.Microseconds(),
		Passes:      snap.Passes,
		IdlePasses:  snap.IdlePasses,
		LoadPercent: snap.LoadPercent,
		Samples:     make([]storage.Sample, 0, len(snap.Tasks)),
	}
	for _, t := range snap.Tasks {
		b.Samples = append(b.Samples, storage.Sample{
			Task:       t.Name,
			Enabled:    t.Enabled,
			Executions: t.Executions,
			AvgExecUS:  t.AverageExecutionTime.Microseconds(),
			MaxExecUS:  t.MaxExecutionTime.Microseconds(),
			AgeCycles:  t.AgeCycles,
			Overruns:   t.Overruns,
			CheckCalls: t.CheckCalls,
		})
	}
	return b
}

// Top returns up to n tasks that have run, heaviest total execution time first.
func Top(snap sched.Snapshot, n int) []sched.TaskStats {
	if n <= 0 {
		return nil
	}
	out := make([]sched.TaskStats, 0, len(snap.Tasks))
	for _, t := range snap.Tasks {
		if t.Executions > 0 {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].TotalExecutionTime != out[j].TotalExecutionTime {
			return out[i].TotalExecutionTime > out[j].TotalExecutionTime
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func summarize(ts []sched.TaskStats) []string {
	out := make([]string, 0, len(ts))
	for _, t := range ts {
		out = append(out, fmt.Sprintf("%s avg=%dus max=%dus runs=%d",
			t.Name, t.AverageExecutionTime.Microseconds(), t.MaxExecutionTime.Microseconds(), t.Executions))
	}
	return out
}
