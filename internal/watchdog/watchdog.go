// Package watchdog reports service readiness and liveness to systemd.
// Outside systemd every notification is a no-op.
package watchdog

import (
	"sync/atomic"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	logx "fcsched/pkg/logx"
)

type Notifier struct {
	enabled  bool
	interval time.Duration
	log      logx.Logger

	notify func(state string) (bool, error)
	now    func() time.Time

	last  atomic.Int64 // unix nanos of the last WATCHDOG=1
	kicks atomic.Uint64
}

// New returns a notifier. When enabled, the watchdog interval is read from
// the environment systemd sets for Type=notify units with WatchdogSec.
func New(enabled bool, log logx.Logger) *Notifier {
	if log.IsZero() {
		log = logx.Nop()
	}
	n := &Notifier{
		enabled: enabled,
		log:     log,
		notify:  func(state string) (bool, error) { return daemon.SdNotify(false, state) },
		now:     time.Now,
	}
	if enabled {
		iv, err := daemon.SdWatchdogEnabled(false)
		if err != nil {
			log.Warn("watchdog env invalid", logx.Err(err))
		}
		n.interval = iv
	}
	return n
}

// Interval is the systemd watchdog timeout, or 0 if none is configured.
func (n *Notifier) Interval() time.Duration { return n.interval }

// Kicks counts WATCHDOG=1 notifications sent.
func (n *Notifier) Kicks() uint64 { return n.kicks.Load() }

func (n *Notifier) send(state string) bool {
	if !n.enabled {
		return false
	}
	ok, err := n.notify(state)
	if err != nil {
		n.log.Warn("sd_notify failed", logx.String("state", state), logx.Err(err))
		return false
	}
	return ok
}

func (n *Notifier) Ready() bool    { return n.send(daemon.SdNotifyReady) }
func (n *Notifier) Stopping() bool { return n.send(daemon.SdNotifyStopping) }
func (n *Notifier) Reloading() bool {
	return n.send(daemon.SdNotifyReloading)
}

// Status publishes a free-form status line.
func (n *Notifier) Status(msg string) bool { return n.send("STATUS=" + msg) }

// Kick sends WATCHDOG=1 at most once per half interval. It is called from
// the scheduler loop and returns quickly when throttled.
func (n *Notifier) Kick() {
	if !n.enabled || n.interval <= 0 {
		return
	}
	now := n.now().UnixNano()
	last := n.last.Load()
	if last != 0 && time.Duration(now-last) < n.interval/2 {
		return
	}
	if !n.last.CompareAndSwap(last, now) {
		return
	}
	if n.send(daemon.SdNotifyWatchdog) {
		n.kicks.Add(1)
	}
}
