// Package dist provides a seeded sampler over the parametric distributions
// the dataset generators draw from. Every method is deterministic for a
// given seed and call sequence, which is what makes generator output
// reproducible run to run.
package dist

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distmv"
	"gonum.org/v1/gonum/stat/distuv"
)

// Sampler wraps a seeded PRNG and exposes the distribution draws the
// generators need. It is not safe for concurrent use; each generator owns
// its own Sampler.
type Sampler struct {
	rng *rand.Rand
	src rand.Source
}

// New returns a Sampler seeded with the given value.
func New(seed uint64) *Sampler {
	src := rand.NewSource(seed)
	return &Sampler{
		rng: rand.New(src),
		src: src,
	}
}

// Float64 returns a uniform draw in [0, 1).
func (s *Sampler) Float64() float64 {
	return s.rng.Float64()
}

// Uniform returns a uniform draw in [lo, hi).
func (s *Sampler) Uniform(lo, hi float64) float64 {
	return lo + s.rng.Float64()*(hi-lo)
}

// IntN returns a uniform int in [0, n).
func (s *Sampler) IntN(n int) int {
	return s.rng.Intn(n)
}

// IntRange returns a uniform int in [lo, hi).
func (s *Sampler) IntRange(lo, hi int) int {
	return lo + s.rng.Intn(hi-lo)
}

// Bernoulli returns true with probability p.
func (s *Sampler) Bernoulli(p float64) bool {
	return s.rng.Float64() < p
}

// Normal draws from a Gaussian with the given mean and standard deviation.
func (s *Sampler) Normal(mu, sigma float64) float64 {
	return distuv.Normal{Mu: mu, Sigma: sigma, Src: s.src}.Rand()
}

// LogNormal draws from a log-normal whose underlying normal has the given
// mean and standard deviation.
func (s *Sampler) LogNormal(mu, sigma float64) float64 {
	return distuv.LogNormal{Mu: mu, Sigma: sigma, Src: s.src}.Rand()
}

// Beta draws from a Beta(a, b) distribution.
func (s *Sampler) Beta(a, b float64) float64 {
	return distuv.Beta{Alpha: a, Beta: b, Src: s.src}.Rand()
}

// Gamma draws from a Gamma distribution parameterized by shape and scale.
// Gonum's Gamma takes a rate, so the scale is inverted here.
func (s *Sampler) Gamma(shape, scale float64) float64 {
	return distuv.Gamma{Alpha: shape, Beta: 1 / scale, Src: s.src}.Rand()
}

// Exponential draws from an exponential distribution with the given scale
// (mean). Gonum's Exponential takes a rate, the inverse of the scale.
func (s *Sampler) Exponential(scale float64) float64 {
	return distuv.Exponential{Rate: 1 / scale, Src: s.src}.Rand()
}

// Poisson draws a count from a Poisson distribution with the given mean.
// A non-positive lambda yields zero.
func (s *Sampler) Poisson(lambda float64) int {
	if lambda <= 0 {
		return 0
	}
	return int(distuv.Poisson{Lambda: lambda, Src: s.src}.Rand())
}

// Dirichlet draws a probability vector from a Dirichlet distribution with
// the given concentration parameters.
func (s *Sampler) Dirichlet(alpha []float64) []float64 {
	d := distmv.NewDirichlet(alpha, s.rng)
	return d.Rand(make([]float64, len(alpha)))
}

// Choice picks one item weighted by probs. The tables the generators pass
// are compile-time constants, so a malformed weight vector is a programmer
// error and panics.
func (s *Sampler) Choice(items []string, probs []float64) string {
	if len(items) != len(probs) {
		panic(fmt.Sprintf("dist: %d items with %d probabilities", len(items), len(probs)))
	}
	var total float64
	for _, p := range probs {
		total += p
	}
	if total < 0.999 || total > 1.001 {
		panic(fmt.Sprintf("dist: probabilities sum to %f", total))
	}
	r := s.rng.Float64() * total
	var cum float64
	for i, p := range probs {
		cum += p
		if r < cum {
			return items[i]
		}
	}
	return items[len(items)-1]
}

// ChoiceIndex is Choice returning the selected index, for callers that
// keep parallel tables keyed by position.
func (s *Sampler) ChoiceIndex(probs []float64) int {
	var total float64
	for _, p := range probs {
		total += p
	}
	r := s.rng.Float64() * total
	var cum float64
	for i, p := range probs {
		cum += p
		if r < cum {
			return i
		}
	}
	return len(probs) - 1
}

// SampleWithoutReplacement draws k distinct ints from [lo, hi).
func (s *Sampler) SampleWithoutReplacement(lo, hi, k int) []int {
	seen := make(map[int]struct{}, k)
	out := make([]int, 0, k)
	for len(out) < k {
		v := s.IntRange(lo, hi)
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ClampInt bounds v to [lo, hi].
func ClampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
