package datasource

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedNow() time.Time {
	return time.Date(2026, 6, 1, 10, 30, 0, 0, time.UTC)
}

func TestSyntheticDeterministic(t *testing.T) {
	s := NewSynthetic(10, DefaultSeed).WithNow(fixedNow)

	first, err := s.Fetch(context.Background(), Params{})
	require.NoError(t, err)
	second, err := s.Fetch(context.Background(), Params{})
	require.NoError(t, err)

	assert.Len(t, first, 10)
	assert.Equal(t, first, second, "same seed must generate identical rows")
}

func TestSyntheticDifferentSeeds(t *testing.T) {
	a, err := NewSynthetic(50, 1).WithNow(fixedNow).Fetch(context.Background(), Params{})
	require.NoError(t, err)
	b, err := NewSynthetic(50, 2).WithNow(fixedNow).Fetch(context.Background(), Params{})
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestSyntheticRowShape(t *testing.T) {
	rows, err := NewSynthetic(200, DefaultSeed).WithNow(fixedNow).Fetch(context.Background(), Params{})
	require.NoError(t, err)

	for _, r := range rows {
		assert.InDelta(t, r.Revenue-r.Cost, r.Profit, 1e-9)
		assert.GreaterOrEqual(t, r.Revenue, 1000.0)
		assert.GreaterOrEqual(t, r.Cost, 500.0)
		assert.Contains(t, []string{"Green", "Amber", "Red"}, r.Status)
		_, err := time.Parse(DateLayout, r.Date)
		assert.NoError(t, err)
	}
}

func TestSyntheticAppliesFilter(t *testing.T) {
	rows, err := NewSynthetic(500, DefaultSeed).WithNow(fixedNow).Fetch(context.Background(), Params{
		Teams: []string{"Data"},
	})
	require.NoError(t, err)

	require.NotEmpty(t, rows)
	for _, r := range rows {
		assert.Equal(t, "Data", r.Team)
	}
}
