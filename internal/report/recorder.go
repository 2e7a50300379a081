package report

import (
	"context"
	"encoding/json"

	"fcsched/internal/eventbus"
	"fcsched/internal/storage"
	logx "fcsched/pkg/logx"
)

// Recorded lists the event types the Recorder persists.
var Recorded = []string{
	eventbus.TypeTaskOverrun,
	eventbus.TypeTaskEnabled,
	eventbus.TypeTaskPeriod,
	eventbus.TypeConfigReload,
}

// Recorder persists scheduler events from the bus.
type Recorder struct {
	bus     eventbus.Bus
	store   storage.Store
	session string
	log     logx.Logger
	buffer  int
}

func NewRecorder(bus eventbus.Bus, store storage.Store, session string, log logx.Logger) *Recorder {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Recorder{bus: bus, store: store, session: session, log: log, buffer: 256}
}

// Run records events until ctx is done.
func (r *Recorder) Run(ctx context.Context) error {
	ch, unsubscribe := r.bus.Subscribe(r.buffer, Recorded...)
	defer unsubscribe()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-ch:
			if !ok {
				return nil
			}
			if err := r.store.AppendEvent(ctx, Record(r.session, ev)); err != nil {
				r.log.Warn("record event failed", logx.String("type", ev.Type), logx.Err(err))
			}
		}
	}
}

// Record converts a bus event into a storable record.
func Record(session string, ev eventbus.Event) storage.EventRecord {
	rec := storage.EventRecord{Session: session, At: ev.Time, Type: ev.Type}
	switch d := ev.Data.(type) {
	case eventbus.TaskOverrun:
		rec.Task = d.Task
	case eventbus.TaskEnabled:
		rec.Task = d.Task
	case eventbus.TaskPeriod:
		rec.Task = d.Task
	}
	if ev.Data != nil {
		if b, err := json.Marshal(ev.Data); err == nil {
			rec.Data = string(b)
		}
	}
	return rec
}
