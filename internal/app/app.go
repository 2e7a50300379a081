// Package app wires configuration, logging, the scheduler and its
// supporting services into a process with a start/stop lifecycle and
// config hot-reload.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"fcsched/internal/config"
	"fcsched/internal/diag"
	"fcsched/internal/eventbus"
	"fcsched/internal/fctasks"
	"fcsched/internal/report"
	"fcsched/internal/runtime/supervisor"
	"fcsched/internal/sched"
	"fcsched/internal/storage"
	"fcsched/internal/watchdog"
	logx "fcsched/pkg/logx"
)

type StopReason string

const (
	StopSIGINT     StopReason = "sigint"
	StopSIGTERM    StopReason = "sigterm"
	StopFatalError StopReason = "fatal_error"
	StopAppStop    StopReason = "app_stop"
)

type App struct {
	cfgm    *config.Manager
	session string

	log   logx.Logger
	logs  *logx.Service
	bus   eventbus.Bus
	store storage.Store

	core     *Core
	dog      *watchdog.Notifier
	diag     *diag.Service
	diagH    *diag.Handler
	reporter *report.Reporter
	recorder *report.Recorder

	sup *supervisor.Supervisor

	// settings is owned by the config.reload goroutine after Start.
	settings fctasks.Settings
	logLevel string
}

type Option func(*App)

// WithLogLevel overrides logging.level, including on reload. Empty keeps
// the configured level.
func WithLogLevel(level string) Option {
	return func(a *App) { a.logLevel = strings.TrimSpace(level) }
}

func (a *App) logConfig(cfg *config.Config) logx.Config {
	lc := cfg.LogConfig()
	if a.logLevel != "" {
		lc.Level = a.logLevel
	}
	return lc
}

func New(cfgPath string, opts ...Option) (*App, error) {
	a := &App{}
	for _, o := range opts {
		o(a)
	}
	if a.logLevel != "" && !logx.ValidLevel(a.logLevel) {
		return nil, fmt.Errorf("unknown log level %q", a.logLevel)
	}

	cfgm := config.NewManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}

	logs, log := logx.New(a.logConfig(cfg))
	session := uuid.NewString()
	log = log.With(logx.String("session", session))
	cfgm.SetLogger(log)

	bus := eventbus.New()

	var store storage.Store
	if sc, enabled, err := mapStorageConfig(cfg); err != nil {
		return nil, err
	} else if enabled {
		if store, err = storage.Open(sc, log); err != nil {
			return nil, err
		}
		log.Info("storage enabled", logx.String("driver", sc.Driver))
	}

	dog := watchdog.New(cfg.Watchdog.Enabled, log.With(logx.String("comp", "watchdog")))
	core, err := NewCore(cfg, sched.NewMonotonicClock(), bus, log, dog.Kick)
	if err != nil {
		closeStore(store)
		return nil, err
	}

	a.cfgm = cfgm
	a.session = session
	a.log = log.With(logx.String("comp", "app"))
	a.logs = logs
	a.bus = bus
	a.store = store
	a.core = core
	a.dog = dog
	a.settings = core.Settings

	a.reporter = report.New(mapReportConfig(cfg), core.Scheduler, store, session, log.With(logx.String("comp", "report")))
	if store != nil {
		a.recorder = report.NewRecorder(bus, store, session, log.With(logx.String("comp", "recorder")))
	}
	dc, err := mapDiagConfig(cfg)
	if err != nil {
		closeStore(store)
		return nil, err
	}
	a.diagH = &diag.Handler{
		Scheduler: core.Scheduler,
		Events:    store,
		Bus:       bus,
		Session:   session,
		Log:       log.With(logx.String("comp", "diag")),
	}
	a.diag = diag.New(dc, a.diagH, log.With(logx.String("comp", "diag")))
	return a, nil
}

func closeStore(s storage.Store) {
	if s != nil {
		_ = s.Close()
	}
}

func (a *App) Session() string { return a.session }

func (a *App) Scheduler() *sched.Scheduler { return a.core.Scheduler }

func (a *App) Supervisor() *supervisor.Supervisor { return a.sup }

// Done is closed when the app context is canceled (fatal error or Stop).
func (a *App) Done() <-chan struct{} {
	if a.sup == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return a.sup.Context().Done()
}

// Err returns the first fatal error observed by the supervisor.
func (a *App) Err() error {
	if a.sup == nil {
		return nil
	}
	return a.sup.Err()
}

func (a *App) Start(ctx context.Context) error {
	if a.sup != nil {
		return errors.New("app already started")
	}
	a.sup = supervisor.New(ctx,
		supervisor.WithLogger(a.log.With(logx.String("comp", "supervisor"))),
		supervisor.WithCancelOnError(true),
	)
	a.diagH.Supervisor = a.sup

	a.cfgm.SetValidator(func(_ context.Context, cfg *config.Config) error {
		if _, _, err := mapStorageConfig(cfg); err != nil {
			return err
		}
		if _, err := mapDiagConfig(cfg); err != nil {
			return err
		}
		if rc := mapReportConfig(cfg); rc.Enabled {
			if _, err := report.ParseSchedule(rc.Schedule); err != nil {
				return fmt.Errorf("report.schedule: %w", err)
			}
		}
		return nil
	})

	// The scheduler loop owns the scheduler; everything else talks to it
	// through Post and Snapshot.
	a.sup.Go("sched.loop", a.core.Scheduler.Run)

	a.sup.GoRestart("diag.http", a.diag.Run,
		supervisor.WithRestartBackoff(500*time.Millisecond, 10*time.Second),
	)
	a.sup.GoRestart("report.cron", a.reporter.Run,
		supervisor.WithRestartBackoff(time.Second, 30*time.Second),
		supervisor.WithMaxRestarts(5),
	)
	if a.recorder != nil {
		a.sup.GoRestart("report.recorder", a.recorder.Run)
	}

	events, unsub := a.bus.Subscribe(128)
	a.sup.Go("eventbus.log", func(c context.Context) error {
		defer unsub()
		for {
			select {
			case <-c.Done():
				return nil
			case e, ok := <-events:
				if !ok {
					return nil
				}
				a.log.Debug("event", logx.String("type", e.Type), logx.Any("data", e.Data))
			}
		}
	})

	sub := a.cfgm.Subscribe(8)
	a.sup.Go("config.reload", func(c context.Context) error {
		defer a.cfgm.Unsubscribe(sub)
		last := a.cfgm.Get()
		for {
			select {
			case <-c.Done():
				return nil
			case next, ok := <-sub:
				if !ok {
					return nil
				}
				// Coalesce bursts: keep only the latest config.
				for drained := false; !drained; {
					select {
					case newer := <-sub:
						if newer != nil {
							next = newer
						}
					default:
						drained = true
					}
				}
				a.applyConfig(last, next)
				last = next
			}
		}
	})
	a.sup.Go("config.watch", a.cfgm.Watch)

	a.dog.Ready()
	a.log.Info("app started", logx.Duration("watchdog", a.dog.Interval()))
	return nil
}

// applyConfig moves the running process from prev to next. Sections that
// cannot change at runtime are logged and left as they were.
func (a *App) applyConfig(prev, next *config.Config) {
	sections, attrs := config.SummarizeConfigChange(prev, next)
	if len(sections) == 0 {
		a.log.Info("config reloaded (no changes)")
		return
	}
	a.dog.Reloading()
	defer a.dog.Ready()

	if config.Has(sections, "logging") {
		a.logs.Apply(a.logConfig(next))
	}

	if config.Has(sections, "scheduler") {
		ss, err := next.SchedulerSettings()
		if err != nil {
			a.log.Warn("invalid scheduler config; keeping previous", logx.Err(err))
		} else {
			a.post("aging", sched.AgingOp(ss.Aging))
			prevSS, _ := prev.SchedulerSettings()
			if prevSS.IdleSleep != ss.IdleSleep || prevSS.ControlQueue != ss.ControlQueue || prevSS.OverrunWarnPerSec != ss.OverrunWarnPerSec {
				a.log.Warn("scheduler loop settings changed; restart required for changes to take effect")
			}
		}
	}

	ts, err := next.TaskSettings()
	if err != nil {
		a.log.Warn("invalid task config; keeping previous", logx.Err(err))
	} else {
		if ts.Build != a.settings.Build {
			a.log.Warn("build flags changed; restart required for changes to take effect")
		}
		if ops := fctasks.Reconcile(a.settings, ts); len(ops) > 0 {
			a.post("tasks", sched.BatchOp(ops...))
		}
		ts.Build = a.settings.Build
		a.settings = ts
	}

	if dc, err := mapDiagConfig(next); err != nil {
		a.log.Warn("invalid diagnostics config; keeping previous", logx.Err(err))
	} else {
		a.diag.Reconfigure(dc)
	}
	if err := a.reporter.Reconfigure(mapReportConfig(next)); err != nil {
		a.log.Warn("invalid report config; keeping previous", logx.Err(err))
	}

	for _, s := range []string{"storage", "sim", "watchdog"} {
		if config.Has(sections, s) {
			a.log.Warn(s + " config changed; restart required for changes to take effect")
		}
	}

	a.bus.Publish(eventbus.Event{Type: eventbus.TypeConfigReload, Data: eventbus.ConfigReload{Sections: sections}})
	fields := append([]logx.Field{logx.String("changed", strings.Join(sections, ","))}, attrs...)
	a.log.Info("config reloaded", fields...)
}

func (a *App) post(what string, op sched.Op) {
	if err := a.core.Scheduler.Post(op); err != nil {
		a.log.Warn("scheduler control op dropped", logx.String("op", what), logx.Err(err))
	}
}

func (a *App) Stop(ctx context.Context, reason StopReason) error {
	if a.sup == nil {
		closeStore(a.store)
		return nil
	}
	a.log.Info("stopping", logx.String("reason", string(reason)))
	a.dog.Stopping()
	a.sup.Cancel()

	var errs []error
	if err := a.sup.Wait(ctx); err != nil && !errors.Is(err, context.Canceled) {
		errs = append(errs, err)
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close storage: %w", err))
		}
	}

	snap := a.core.Scheduler.Snapshot()
	a.log.Info("stopped",
		logx.Uint64("passes", snap.Passes),
		logx.Duration("uptime", snap.Uptime),
		logx.Float64("load_pct", snap.LoadPercent),
	)
	if a.logs != nil {
		_ = a.logs.Close()
	}
	return errors.Join(errs...)
}
