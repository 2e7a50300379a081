package diag

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"fcsched/internal/runtime/supervisor"
	"fcsched/internal/sched"
	"fcsched/internal/storage"
	logx "fcsched/pkg/logx"
)

type staticSource struct{ snap sched.Snapshot }

func (s staticSource) Snapshot() sched.Snapshot { return s.snap }

type eventStore struct {
	storage.Store
	events []storage.EventRecord
}

func (e eventStore) RecentEvents(_ context.Context, limit int) ([]storage.EventRecord, error) {
	if len(e.events) > limit {
		return e.events[len(e.events)-limit:], nil
	}
	return e.events, nil
}

func testSnapshot() sched.Snapshot {
	return sched.Snapshot{
		Started:     true,
		Uptime:      time.Second,
		LoadPercent: 42,
		Tasks: []sched.TaskStats{
			{ID: 0, Name: "SYSTEM", Enabled: true, Executions: 10},
			{ID: 1, Name: "GYRO", Enabled: true, Executions: 1000},
			{ID: 2, Name: "BARO"},
		},
	}
}

type response struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Error  string          `json:"error"`
}

func get(t *testing.T, h http.Handler, path string) (int, response) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	var out response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return rec.Code, out
}

func TestHealth(t *testing.T) {
	t.Parallel()

	h := (&Handler{Scheduler: staticSource{testSnapshot()}, Session: "s1", Log: logx.Nop()}).Router()
	code, out := get(t, h, "/healthz")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "ok", out.Status)

	var hl health
	require.NoError(t, json.Unmarshal(out.Data, &hl))
	require.Equal(t, "s1", hl.Session)
	require.Equal(t, 2, hl.Enabled)
	require.InDelta(t, 42, hl.LoadPercent, 1e-9)
}

func TestHealthReportsSupervisorError(t *testing.T) {
	t.Parallel()

	sup := supervisor.New(context.Background())
	sup.Go("broken", func(context.Context) error { return errors.New("boom") })
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = sup.Wait(ctx)

	h := (&Handler{Scheduler: staticSource{testSnapshot()}, Supervisor: sup}).Router()
	code, out := get(t, h, "/healthz")
	require.Equal(t, http.StatusServiceUnavailable, code)
	require.Equal(t, "error", out.Status)

	code, out = get(t, h, "/supervisor")
	require.Equal(t, http.StatusOK, code)
	var snap supervisor.Snapshot
	require.NoError(t, json.Unmarshal(out.Data, &snap))
	require.Contains(t, snap.FirstError, "boom")
}

func TestTasks(t *testing.T) {
	t.Parallel()

	h := (&Handler{Scheduler: staticSource{testSnapshot()}}).Router()

	_, out := get(t, h, "/tasks/")
	var snap sched.Snapshot
	require.NoError(t, json.Unmarshal(out.Data, &snap))
	require.Len(t, snap.Tasks, 3)

	_, out = get(t, h, "/tasks/?enabled=true")
	require.NoError(t, json.Unmarshal(out.Data, &snap))
	require.Len(t, snap.Tasks, 2)

	code, out := get(t, h, "/tasks/gyro")
	require.Equal(t, http.StatusOK, code)
	var ts sched.TaskStats
	require.NoError(t, json.Unmarshal(out.Data, &ts))
	require.Equal(t, "GYRO", ts.Name)
	require.Equal(t, uint64(1000), ts.Executions)

	code, out = get(t, h, "/tasks/NOPE")
	require.Equal(t, http.StatusNotFound, code)
	require.Contains(t, out.Error, "NOPE")
}

func TestEvents(t *testing.T) {
	t.Parallel()

	noStore := (&Handler{Scheduler: staticSource{}}).Router()
	code, _ := get(t, noStore, "/events")
	require.Equal(t, http.StatusNotFound, code)

	store := eventStore{events: []storage.EventRecord{
		{Type: "task.enabled", Task: "BARO"},
		{Type: "task.overrun", Task: "GYRO"},
	}}
	h := (&Handler{Scheduler: staticSource{}, Events: store}).Router()

	code, out := get(t, h, "/events?limit=1")
	require.Equal(t, http.StatusOK, code)
	var events []storage.EventRecord
	require.NoError(t, json.Unmarshal(out.Data, &events))
	require.Len(t, events, 1)
	require.Equal(t, "GYRO", events[0].Task)

	code, _ = get(t, h, "/events?limit=0")
	require.Equal(t, http.StatusBadRequest, code)
}

func TestServiceServesAndStops(t *testing.T) {
	t.Parallel()

	h := &Handler{Scheduler: staticSource{testSnapshot()}}
	svc := New(Config{Enabled: true, Addr: "127.0.0.1:0", ReadTimeout: time.Second}, h, logx.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()

	require.Eventually(t, func() bool { return svc.Addr() != "" }, 5*time.Second, 10*time.Millisecond)
	resp, err := http.Get("http://" + svc.Addr() + "/healthz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	svc.Reconfigure(Config{Enabled: false})
	require.Eventually(t, func() bool { return svc.Addr() == "" }, 5*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestIsLoopbackAddr(t *testing.T) {
	t.Parallel()

	cases := map[string]bool{
		"127.0.0.1:8088": true,
		"localhost:80":   true,
		"[::1]:9000":     true,
		"0.0.0.0:8088":   false,
		":8088":          false,
		"bad":            false,
	}
	for in, want := range cases {
		if got := isLoopbackAddr(in); got != want {
			t.Fatalf("isLoopbackAddr(%q) = %v, want %v", in, got, want)
		}
	}
}
