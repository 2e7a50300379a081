package sched

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAgingBonusSaturates(t *testing.T) {
	t.Parallel()
	a := Aging{Step: 10, Cap: 350}
	assert.Equal(t, 0, a.Bonus(0))
	assert.Equal(t, 100, a.Bonus(10))
	assert.Equal(t, 350, a.Bonus(35))
	assert.Equal(t, 350, a.Bonus(1<<31))
	assert.Equal(t, uint32(35), a.SaturationAge())
}

func TestAgingNeverReachesRealtime(t *testing.T) {
	t.Parallel()
	a := DefaultAging
	require.NoError(t, a.Validate())
	for _, p := range []Priority{PriorityIdle, PriorityLow, PriorityMedium, PriorityHigh} {
		assert.Less(t, a.Dynamic(p, 1<<30), TierBase(PriorityRealtime), p.String())
	}
	assert.Equal(t, TierBase(PriorityRealtime), a.Dynamic(PriorityRealtime, 500))
}

func TestAgingValidate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		aging Aging
		want  error
	}{
		{name: "zero step", aging: Aging{Step: 0, Cap: 100}, want: ErrInvalidAging},
		{name: "negative cap", aging: Aging{Step: 1, Cap: -1}, want: ErrInvalidAging},
		{name: "cap reaches realtime", aging: Aging{Step: 10, Cap: 600}, want: ErrAgingOverlap},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.ErrorIs(t, tt.aging.Validate(), tt.want)
		})
	}
	require.NoError(t, Aging{Step: 1, Cap: 599}.Validate())
}

func TestNewRejectsOverlappingAging(t *testing.T) {
	t.Parallel()
	tbl, err := NewTable(1, Descriptor{ID: 0, Name: "A", Run: noopRun})
	require.NoError(t, err)
	_, err = New(tbl, NewSimClock(0), WithAging(Aging{Step: 5, Cap: 700}))
	require.ErrorIs(t, err, ErrAgingOverlap)
}
