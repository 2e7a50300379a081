package sim

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"fcsched/internal/fctasks"
	"fcsched/internal/sched"
)

func TestConverterAlternates(t *testing.T) {
	t.Parallel()

	w := New(Config{BaroConversion: 10 * time.Millisecond}, sched.NewSimClock(0))
	require.Equal(t, 10*time.Millisecond, w.baro.UpdateDeadline(0))
	require.Zero(t, w.baro.UpdateDeadline(10*time.Millisecond))
	require.Equal(t, 10*time.Millisecond, w.baro.UpdateDeadline(60*time.Millisecond))
	require.Equal(t, uint64(1), w.Stats().BaroReadings)

	instant := New(Config{}, sched.NewSimClock(0))
	require.Zero(t, instant.baro.UpdateDeadline(0))
	require.Equal(t, uint64(1), instant.Stats().BaroReadings)
}

func TestReceiverDropsMissedFrames(t *testing.T) {
	t.Parallel()

	w := New(Config{RXFrameRateHz: 50}, sched.NewSimClock(0))
	rx := w.rx
	require.False(t, rx.Pending(19*time.Millisecond))
	require.True(t, rx.Pending(20*time.Millisecond))

	rx.Update(100 * time.Millisecond)
	require.Equal(t, uint64(1), rx.frames.Load())
	require.False(t, rx.Pending(119*time.Millisecond))
	require.True(t, rx.Pending(120*time.Millisecond))

	// Updates without a pending frame consume nothing.
	rx.Update(110 * time.Millisecond)
	require.Equal(t, uint64(1), rx.frames.Load())

	off := New(Config{}, sched.NewSimClock(0))
	require.False(t, off.rx.Pending(time.Hour))
}

func TestCostScale(t *testing.T) {
	t.Parallel()

	free := New(Config{CostScale: 0}, sched.NewSimClock(0))
	require.Zero(t, free.cost(fctasks.PID))

	w := New(Config{CostScale: 2, Seed: 7}, sched.NewSimClock(0))
	for range 100 {
		c := w.cost(fctasks.PID)
		require.GreaterOrEqual(t, c, 95*time.Microsecond)
		require.LessOrEqual(t, c, 145*time.Microsecond)
	}

	clk := sched.NewSimClock(0)
	spent := New(Config{CostScale: 1}, clk)
	spent.spend(fctasks.Gyro)
	require.Greater(t, clk.Now(), time.Duration(0))
}

func settings() fctasks.Settings {
	return fctasks.Settings{
		Build:    fctasks.FullBuild(),
		Features: fctasks.Features{VBAT: true},
		Sensors:  fctasks.Sensors{Baro: true},
	}
}

func newWorldScheduler(t *testing.T, cfg Config) (*World, *sched.Scheduler) {
	t.Helper()
	clk := sched.NewSimClock(0)
	w := New(cfg, clk)
	tbl, err := fctasks.NewTable(w.Bodies())
	require.NoError(t, err)
	s, err := sched.New(tbl, clk)
	require.NoError(t, err)
	w.Bind(s.SampleLoad, nil)
	require.NoError(t, fctasks.Apply(s, fctasks.NewPlan(settings())))
	return w, s
}

func TestWorldFreeRunIsExact(t *testing.T) {
	t.Parallel()

	w, s := newWorldScheduler(t, Config{RXFrameRateHz: 50, BaroConversion: 10 * time.Millisecond})
	_, err := s.RunFor(time.Second)
	require.NoError(t, err)

	st := w.Stats()
	// Realtime tasks are due at start and every millisecond through the end.
	require.Equal(t, uint64(1001), st.GyroSamples)
	require.Equal(t, uint64(1001), st.PIDUpdates)
	// BARO starts a conversion at 50ms and reads 10ms later, every 60ms.
	require.Equal(t, uint64(16), st.BaroReadings)
	// RX runs at its 10Hz fallback and consumes the latest frame each time.
	require.Equal(t, uint64(10), st.RXFrames)
	require.Less(t, st.BatteryMV, int64(packFullMV))
}

func TestWorldWithCostReportsLoad(t *testing.T) {
	t.Parallel()

	w, s := newWorldScheduler(t, DefaultConfig())
	_, err := s.RunFor(2 * time.Second)
	require.NoError(t, err)

	st := w.Stats()
	require.Greater(t, st.Load, 0.0)
	require.Less(t, st.Load, 100.0)
	require.Greater(t, st.GyroSamples, uint64(1900))
	require.Greater(t, st.BaroReadings, uint64(0))

	snap := s.Snapshot()
	gyro, ok := snap.Task("GYRO")
	require.True(t, ok)
	require.Greater(t, gyro.AverageExecutionTime, time.Duration(0))
}
