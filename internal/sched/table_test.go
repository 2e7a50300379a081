package sched

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noopRun(time.Duration) Result { return Nominal() }

func TestNewTableRejectsBadRegistrations(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		count int
		descs []Descriptor
		want  error
	}{
		{
			name:  "duplicate id",
			count: 2,
			descs: []Descriptor{{ID: 0, Name: "A", Run: noopRun}, {ID: 0, Name: "B", Run: noopRun}},
			want:  ErrDuplicateTask,
		},
		{
			name:  "duplicate name",
			count: 2,
			descs: []Descriptor{{ID: 0, Name: "A", Run: noopRun}, {ID: 1, Name: "A", Run: noopRun}},
			want:  ErrDuplicateTask,
		},
		{
			name:  "missing id",
			count: 3,
			descs: []Descriptor{{ID: 0, Name: "A", Run: noopRun}, {ID: 2, Name: "C", Run: noopRun}},
			want:  ErrMissingTask,
		},
		{
			name:  "id too large",
			count: 1,
			descs: []Descriptor{{ID: 1, Name: "A", Run: noopRun}},
			want:  ErrTaskOutOfRange,
		},
		{
			name:  "negative id",
			count: 1,
			descs: []Descriptor{{ID: -1, Name: "A", Run: noopRun}},
			want:  ErrTaskOutOfRange,
		},
		{
			name:  "no run func",
			count: 1,
			descs: []Descriptor{{ID: 0, Name: "A"}},
			want:  ErrNoRunFunc,
		},
		{
			name:  "negative period",
			count: 1,
			descs: []Descriptor{{ID: 0, Name: "A", Run: noopRun, Period: -time.Millisecond}},
			want:  ErrInvalidPeriod,
		},
		{
			name:  "empty",
			count: 0,
			want:  ErrEmptyTable,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewTable(tt.count, tt.descs...)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestNewTableIndexesByIDAndName(t *testing.T) {
	t.Parallel()
	tbl, err := NewTable(2,
		Descriptor{ID: 1, Name: "GPS", Run: noopRun, Period: ms(20), Priority: PriorityMedium},
		Descriptor{ID: 0, Run: noopRun},
	)
	require.NoError(t, err)
	assert.Equal(t, 2, tbl.Len())
	assert.Equal(t, "TASK_0", tbl.Name(0))

	id, ok := tbl.Lookup("gps")
	require.True(t, ok)
	assert.Equal(t, TaskID(1), id)

	d, ok := tbl.Descriptor(1)
	require.True(t, ok)
	assert.Equal(t, PriorityMedium, d.Priority)

	_, ok = tbl.Descriptor(5)
	assert.False(t, ok)
	_, ok = tbl.Lookup("nope")
	assert.False(t, ok)
}

func TestParsePriorityRoundTrip(t *testing.T) {
	t.Parallel()
	for p := PriorityIdle; p <= PriorityRealtime; p++ {
		got, err := ParsePriority(p.String())
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}
	_, err := ParsePriority("urgent")
	assert.Error(t, err)
}

func TestPeriodHz(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 100*time.Millisecond, PeriodHz(10))
	assert.Equal(t, 2*time.Millisecond, PeriodHz(500))
	assert.Equal(t, time.Duration(0), PeriodHz(0))
}
