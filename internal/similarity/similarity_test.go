package similarity

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDot(t *testing.T) {
	tests := []struct {
		name     string
		a        []float32
		b        []float32
		expected float64
		wantErr  bool
	}{
		{
			name:     "identical unit vectors",
			a:        []float32{1, 0, 0},
			b:        []float32{1, 0, 0},
			expected: 1,
		},
		{
			name:     "orthogonal vectors",
			a:        []float32{1, 0},
			b:        []float32{0, 1},
			expected: 0,
		},
		{
			name:     "opposite vectors",
			a:        []float32{0, 1},
			b:        []float32{0, -1},
			expected: -1,
		},
		{
			name:    "dimension mismatch",
			a:       []float32{1, 0},
			b:       []float32{1},
			wantErr: true,
		},
		{
			name:    "empty vectors",
			a:       nil,
			b:       nil,
			wantErr: true,
		},
		{
			name:    "non-finite value",
			a:       []float32{1, 0},
			b:       []float32{0, float32(math.Inf(1))},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, err := Dot(tt.a, tt.b)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.expected, score, 1e-9)
		})
	}
}

func TestDotClampsRoundingError(t *testing.T) {
	// two copies of the same normalized vector can dot slightly above 1
	v, err := Normalize([]float32{0.3, 0.3, 0.3, 0.3, 0.3, 0.3, 0.3})
	require.NoError(t, err)

	score, err := Dot(v, v)
	require.NoError(t, err)
	assert.LessOrEqual(t, score, 1.0)
	assert.Greater(t, score, 0.999)
}

func TestNormalize(t *testing.T) {
	v, err := Normalize([]float32{3, 4})
	require.NoError(t, err)
	assert.InDelta(t, 0.6, float64(v[0]), 1e-6)
	assert.InDelta(t, 0.8, float64(v[1]), 1e-6)

	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	assert.InDelta(t, 1.0, norm, 1e-6)
}

func TestNormalizeRejectsZeroVector(t *testing.T) {
	_, err := Normalize([]float32{0, 0, 0})
	assert.Error(t, err)
}

func TestNormalizeRejectsEmpty(t *testing.T) {
	_, err := Normalize(nil)
	assert.Error(t, err)
}

func TestRankFiltersBelowThreshold(t *testing.T) {
	now := time.Now()
	candidates := []Candidate{
		{TicketID: "a", Score: 0.90, CreatedAt: now},
		{TicketID: "b", Score: 0.81, CreatedAt: now},
		{TicketID: "c", Score: 0.82, CreatedAt: now},
	}

	ranked := Rank(candidates, 0.82)

	assert.Len(t, ranked, 2)
	assert.Equal(t, "a", ranked[0].TicketID)
	assert.Equal(t, "c", ranked[1].TicketID)
}

func TestRankOrdersByScoreThenRecency(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	candidates := []Candidate{
		{TicketID: "older", Score: 0.9, CreatedAt: base},
		{TicketID: "newer", Score: 0.9, CreatedAt: base.Add(time.Hour)},
		{TicketID: "best", Score: 0.95, CreatedAt: base},
	}

	ranked := Rank(candidates, 0.5)

	assert.Equal(t, []string{"best", "newer", "older"},
		[]string{ranked[0].TicketID, ranked[1].TicketID, ranked[2].TicketID})
}

func TestRankEmptyInput(t *testing.T) {
	assert.Empty(t, Rank(nil, 0.82))
}
