package dist

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampler_Deterministic(t *testing.T) {
	a := New(42)
	b := New(42)

	for i := 0; i < 100; i++ {
		assert.Equal(t, a.Float64(), b.Float64(), "draw %d diverged", i)
	}

	// A different seed should produce a different sequence.
	c := New(43)
	same := true
	d := New(42)
	for i := 0; i < 10; i++ {
		if c.Float64() != d.Float64() {
			same = false
			break
		}
	}
	assert.False(t, same, "seeds 42 and 43 produced identical sequences")
}

func TestSampler_UniformRange(t *testing.T) {
	s := New(1)
	for i := 0; i < 1000; i++ {
		v := s.Uniform(-5, 5)
		require.GreaterOrEqual(t, v, -5.0)
		require.Less(t, v, 5.0)
	}
}

func TestSampler_IntRange(t *testing.T) {
	s := New(1)
	seen := map[int]bool{}
	for i := 0; i < 1000; i++ {
		v := s.IntRange(3, 7)
		require.GreaterOrEqual(t, v, 3)
		require.Less(t, v, 7)
		seen[v] = true
	}
	assert.Len(t, seen, 4, "expected all values in [3,7) to appear")
}

func TestSampler_Bernoulli(t *testing.T) {
	s := New(7)
	hits := 0
	const n = 10000
	for i := 0; i < n; i++ {
		if s.Bernoulli(0.3) {
			hits++
		}
	}
	rate := float64(hits) / n
	assert.InDelta(t, 0.3, rate, 0.03)
}

func TestSampler_Normal(t *testing.T) {
	s := New(9)
	var sum, sumSq float64
	const n = 10000
	for i := 0; i < n; i++ {
		v := s.Normal(10, 2)
		sum += v
		sumSq += v * v
	}
	mean := sum / n
	stddev := math.Sqrt(sumSq/n - mean*mean)
	assert.InDelta(t, 10, mean, 0.2)
	assert.InDelta(t, 2, stddev, 0.2)
}

func TestSampler_Beta(t *testing.T) {
	s := New(3)
	for i := 0; i < 1000; i++ {
		v := s.Beta(2, 5)
		require.GreaterOrEqual(t, v, 0.0)
		require.LessOrEqual(t, v, 1.0)
	}
}

func TestSampler_Poisson(t *testing.T) {
	s := New(5)
	assert.Equal(t, 0, s.Poisson(0))
	assert.Equal(t, 0, s.Poisson(-1))

	var sum float64
	const n = 5000
	for i := 0; i < n; i++ {
		sum += float64(s.Poisson(4))
	}
	assert.InDelta(t, 4, sum/n, 0.2)
}

func TestSampler_DirichletSumsToOne(t *testing.T) {
	s := New(11)
	for i := 0; i < 100; i++ {
		probs := s.Dirichlet([]float64{1, 2, 3, 4})
		require.Len(t, probs, 4)
		var total float64
		for _, p := range probs {
			require.GreaterOrEqual(t, p, 0.0)
			total += p
		}
		require.InDelta(t, 1.0, total, 1e-9)
	}
}

func TestSampler_Choice(t *testing.T) {
	s := New(13)
	items := []string{"a", "b", "c"}
	probs := []float64{0.2, 0.5, 0.3}

	counts := map[string]int{}
	const n = 10000
	for i := 0; i < n; i++ {
		counts[s.Choice(items, probs)]++
	}
	assert.InDelta(t, 0.2, float64(counts["a"])/n, 0.03)
	assert.InDelta(t, 0.5, float64(counts["b"])/n, 0.03)
	assert.InDelta(t, 0.3, float64(counts["c"])/n, 0.03)
}

func TestSampler_ChoicePanicsOnMismatch(t *testing.T) {
	s := New(1)
	assert.Panics(t, func() {
		s.Choice([]string{"a", "b"}, []float64{1.0})
	})
	assert.Panics(t, func() {
		s.Choice([]string{"a", "b"}, []float64{0.2, 0.2})
	})
}

func TestSampler_ChoiceIndex(t *testing.T) {
	s := New(17)
	for i := 0; i < 100; i++ {
		idx := s.ChoiceIndex([]float64{0.1, 0.1, 0.8})
		require.GreaterOrEqual(t, idx, 0)
		require.Less(t, idx, 3)
	}
}

func TestSampler_SampleWithoutReplacement(t *testing.T) {
	s := New(19)
	got := s.SampleWithoutReplacement(0, 10, 10)
	require.Len(t, got, 10)

	seen := map[int]bool{}
	for _, v := range got {
		require.GreaterOrEqual(t, v, 0)
		require.Less(t, v, 10)
		require.False(t, seen[v], "duplicate value %d", v)
		seen[v] = true
	}
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.0, Clamp(-1, 0, 10))
	assert.Equal(t, 10.0, Clamp(11, 0, 10))
	assert.Equal(t, 5.0, Clamp(5, 0, 10))

	assert.Equal(t, 0, ClampInt(-1, 0, 10))
	assert.Equal(t, 10, ClampInt(11, 0, 10))
	assert.Equal(t, 5, ClampInt(5, 0, 10))
}
