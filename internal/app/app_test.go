package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"fcsched/internal/config"
	"fcsched/internal/eventbus"
	"fcsched/internal/fctasks"
	"fcsched/internal/sched"
	logx "fcsched/pkg/logx"
)

func decode(t *testing.T, yaml string) *config.Config {
	t.Helper()
	cfg, err := config.Decode("fcsched.yaml", []byte(yaml))
	require.NoError(t, err)
	require.NoError(t, config.Validate(cfg))
	return cfg
}

func TestMapStorageConfig(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		yaml    string
		driver  string
		enabled bool
		wantErr bool
	}{
		{name: "absent", yaml: "{}"},
		{name: "none", yaml: "storage: {driver: none, path: x}"},
		{name: "file", yaml: "storage: {driver: file, path: ./events.jsonl}", driver: "file", enabled: true},
		{name: "sqlite", yaml: "storage: {driver: SQLite, path: ./fc.db}", driver: "sqlite", enabled: true},
		{name: "sqlite without path", yaml: "storage: {driver: sqlite}", wantErr: true},
		{name: "unknown", yaml: "storage: {driver: postgres, path: x}", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := decode(t, tt.yaml)
			sc, enabled, err := mapStorageConfig(cfg)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.enabled, enabled)
			require.Equal(t, tt.driver, sc.Driver)
		})
	}
}

func TestMapSimConfigDefaults(t *testing.T) {
	t.Parallel()
	sc, err := MapSimConfig(decode(t, "{}"))
	require.NoError(t, err)
	require.Equal(t, 50, sc.RXFrameRateHz)
	require.Equal(t, 10*time.Millisecond, sc.BaroConversion)
	require.Equal(t, 1.0, sc.CostScale)

	sc, err = MapSimConfig(decode(t, "sim: {rx_frame_rate_hz: 100, baro_conversion: 5ms, task_cost_scale: 2}"))
	require.NoError(t, err)
	require.Equal(t, 100, sc.RXFrameRateHz)
	require.Equal(t, 5*time.Millisecond, sc.BaroConversion)
	require.Equal(t, 2.0, sc.CostScale)
}

func TestMapReportConfigDefaults(t *testing.T) {
	t.Parallel()
	rc := mapReportConfig(decode(t, "report: {enabled: true}"))
	require.True(t, rc.Enabled)
	require.Equal(t, config.DefaultReportSchedule, rc.Schedule)
	require.Equal(t, config.DefaultReportTop, rc.Top)
}

func TestNewCoreRunsOnSimulatedClock(t *testing.T) {
	t.Parallel()
	cfg := decode(t, `
loop:
  looptime: 2ms
  gyro_looptime: 1ms
features:
  gps: true
sim:
  task_cost_scale: 1
`)
	clk := sched.NewSimClock(0)
	kicks := 0
	core, err := NewCore(cfg, clk, eventbus.New(), logx.Nop(), func() { kicks++ })
	require.NoError(t, err)

	require.Equal(t, 2*time.Millisecond, core.Scheduler.Period(fctasks.PID))
	require.Equal(t, time.Millisecond, core.Scheduler.Period(fctasks.Gyro))
	require.True(t, core.Scheduler.Enabled(fctasks.GPS))

	_, err = core.Scheduler.RunFor(time.Second)
	require.NoError(t, err)

	snap := core.Scheduler.Snapshot()
	gyro, ok := snap.Task("GYRO")
	require.True(t, ok)
	pid, ok := snap.Task("PID")
	require.True(t, ok)
	require.Greater(t, gyro.Executions, pid.Executions)
	require.Positive(t, kicks)
	require.Equal(t, gyro.Executions, core.World.Stats().GyroSamples)
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fcsched.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestApplyConfigReconcilesTasks(t *testing.T) {
	path := writeConfig(t, "logging: {level: warn}\n")
	a, err := New(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Stop(context.Background(), StopAppStop) })

	s := a.Scheduler()
	require.False(t, s.Enabled(fctasks.GPS))

	prev := a.cfgm.Get()
	next := decode(t, "logging: {level: warn}\nfeatures: {gps: true}\n")
	a.applyConfig(prev, next)

	s.Pass()
	require.True(t, s.Enabled(fctasks.GPS))
	require.True(t, a.settings.Features.GPS)
}

func TestNewRejectsBadLogLevel(t *testing.T) {
	t.Parallel()
	_, err := New(writeConfig(t, "{}\n"), WithLogLevel("loud"))
	require.Error(t, err)
}

func TestStartStop(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, `
logging: {level: warn}
storage:
  driver: file
  path: `+filepath.Join(dir, "events.jsonl")+`
`)
	a, err := New(path)
	require.NoError(t, err)
	require.NotEmpty(t, a.Session())

	require.NoError(t, a.Start(context.Background()))
	require.Error(t, a.Start(context.Background()))
	require.Eventually(t, func() bool {
		return a.Scheduler().Snapshot().Passes > 0
	}, 2*time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, a.Stop(ctx, StopAppStop))
	select {
	case <-a.Done():
	default:
		t.Fatalf("Done not closed after Stop")
	}
	require.NoError(t, a.Err())
}
