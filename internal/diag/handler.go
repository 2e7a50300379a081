package diag

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"fcsched/internal/eventbus"
	"fcsched/internal/runtime/supervisor"
	"fcsched/internal/sched"
	"fcsched/internal/storage"
	logx "fcsched/pkg/logx"
)

// Source publishes scheduler snapshots.
type Source interface {
	Snapshot() sched.Snapshot
}

// Handler routes diagnostics requests. Only Scheduler is required.
type Handler struct {
	Scheduler  Source
	Events     storage.Store
	Supervisor *supervisor.Supervisor
	Bus        eventbus.Bus
	Session    string
	Log        logx.Logger
}

type envelope struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data,omitempty"`
	Error     string    `json:"error,omitempty"`
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(h.logRequests)

	r.Get("/healthz", h.handleHealth)
	r.Route("/tasks", func(r chi.Router) {
		r.Get("/", h.handleTasks)
		r.Get("/{name}", h.handleTask)
	})
	r.Get("/events", h.handleEvents)
	r.Get("/supervisor", h.handleSupervisor)
	r.Mount("/debug", middleware.Profiler())
	return r
}

type health struct {
	Session     string        `json:"session,omitempty"`
	Started     bool          `json:"started"`
	Uptime      time.Duration `json:"uptime"`
	LoadPercent float64       `json:"load_percent"`
	Enabled     int           `json:"enabled_tasks"`
	Dropped     uint64        `json:"dropped_events"`
	Error       string        `json:"error,omitempty"`
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap := h.Scheduler.Snapshot()
	out := health{
		Session:     h.Session,
		Started:     snap.Started,
		Uptime:      snap.Uptime,
		LoadPercent: snap.LoadPercent,
		Enabled:     len(snap.Enabled()),
	}
	if h.Bus != nil {
		out.Dropped = h.Bus.Dropped()
	}
	status := http.StatusOK
	if h.Supervisor != nil {
		if err := h.Supervisor.Err(); err != nil {
			out.Error = err.Error()
			status = http.StatusServiceUnavailable
		}
	}
	respond(w, status, out, "")
}

func (h *Handler) handleTasks(w http.ResponseWriter, r *http.Request) {
	snap := h.Scheduler.Snapshot()
	if r.URL.Query().Get("enabled") == "true" {
		snap.Tasks = snap.Enabled()
	}
	respond(w, http.StatusOK, snap, "")
}

func (h *Handler) handleTask(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	t, ok := h.Scheduler.Snapshot().Task(name)
	if !ok {
		respond(w, http.StatusNotFound, nil, "unknown task "+strconv.Quote(name))
		return
	}
	respond(w, http.StatusOK, t, "")
}

func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	if h.Events == nil {
		respond(w, http.StatusNotFound, nil, storage.ErrDisabled.Error())
		return
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 1000 {
			respond(w, http.StatusBadRequest, nil, "limit must be 1..1000")
			return
		}
		limit = n
	}
	events, err := h.Events.RecentEvents(r.Context(), limit)
	if err != nil {
		respond(w, http.StatusInternalServerError, nil, err.Error())
		return
	}
	if events == nil {
		events = []storage.EventRecord{}
	}
	respond(w, http.StatusOK, events, "")
}

func (h *Handler) handleSupervisor(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, h.Supervisor.Snapshot(), "")
}

func respond(w http.ResponseWriter, status int, data any, errMsg string) {
	env := envelope{Status: "ok", Timestamp: time.Now().UTC(), Data: data, Error: errMsg}
	if errMsg != "" || status >= 400 {
		env.Status = "error"
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		h.Log.Debug("request",
			logx.String("method", r.Method),
			logx.String("path", r.URL.Path),
			logx.Int("status", ww.Status()),
			logx.Duration("took", time.Since(start)),
		)
	})
}
