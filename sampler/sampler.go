// Package sampler draws fixed-length sequences of training inputs and
// observation noise for Gaussian-process experiments.
//
// Every draw consumes values from a golang.org/x/exp/rand Source. Callers
// that need reproducible sequences should build their own Sampler with New or
// NewSeeded. The package-level DrawX and DrawNoise functions share one
// process-wide Sampler that is safe for concurrent use.
package sampler

import (
	"math"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/exp/rand"
)

// ErrInvalidArgument is returned, wrapped, for negative counts, reversed
// bounds and non-finite parameters.
var ErrInvalidArgument = errors.New("invalid argument")

// Sampler draws samples from a single random source. A Sampler is not safe
// for concurrent use unless its Source is.
type Sampler struct {
	src rand.Source
}

// New returns a Sampler that consumes values from src.
func New(src rand.Source) *Sampler {
	return &Sampler{src: src}
}

// NewSeeded returns a Sampler backed by a PCG source seeded with seed.
func NewSeeded(seed uint64) *Sampler {
	return New(rand.NewSource(seed))
}

// DrawX returns n values drawn independently from the continuous uniform
// distribution over [xmin, xmax). When xmin == xmax every value is xmin.
func (s *Sampler) DrawX(n int, xmin, xmax float64) ([]float64, error) {
	if err := validateCount(n); err != nil {
		return nil, err
	}
	if !isFinite(xmin) || !isFinite(xmax) {
		return nil, errors.Wrapf(ErrInvalidArgument, "non-finite bounds [%v, %v)", xmin, xmax)
	}
	if xmin > xmax {
		return nil, errors.Wrapf(ErrInvalidArgument, "lower bound %v exceeds upper bound %v", xmin, xmax)
	}
	samples := make([]float64, n)
	if xmin == xmax {
		for i := range samples {
			samples[i] = xmin
		}
		return samples, nil
	}
	rng := rand.New(s.src)
	upperLimit := math.Nextafter(xmax, math.Inf(-1))
	for i := range samples {
		u := rng.Float64()
		// Weighted form: xmax-xmin overflows for bounds near ±MaxFloat64
		value := u*xmax + (1-u)*xmin
		if value >= xmax {
			value = upperLimit
		} else if value < xmin {
			value = xmin
		}
		samples[i] = value
	}
	return samples, nil
}

// DrawNoise returns n values z*scale where each z is an independent standard
// normal draw. The standard deviation of the result is |scale|; a negative
// scale flips the sign of each sample.
func (s *Sampler) DrawNoise(n int, scale float64) ([]float64, error) {
	if err := validateCount(n); err != nil {
		return nil, err
	}
	if !isFinite(scale) {
		return nil, errors.Wrapf(ErrInvalidArgument, "non-finite scale %v", scale)
	}
	rng := rand.New(s.src)
	samples := make([]float64, n)
	for i := range samples {
		// +0 normalizes the -0 produced by a zero scale
		samples[i] = rng.NormFloat64()*scale + 0
	}
	return samples, nil
}

func validateCount(n int) error {
	if n < 0 {
		return errors.Wrapf(ErrInvalidArgument, "negative sample count %d", n)
	}
	return nil
}

func isFinite(value float64) bool {
	return !math.IsNaN(value) && !math.IsInf(value, 0)
}

// /////////////////////////////////////////////////////////////////////////////
// Process-wide sampler
// /////////////////////////////////////////////////////////////////////////////

var (
	globalMu      sync.Mutex
	globalSampler *Sampler
)

// lockedGlobal must be called with globalMu held.
func lockedGlobal() *Sampler {
	if globalSampler == nil {
		globalSampler = NewSeeded(uint64(time.Now().UnixNano()))
	}
	return globalSampler
}

// Seed reseeds the process-wide sampler used by DrawX and DrawNoise.
func Seed(seed uint64) {
	globalMu.Lock()
	defer globalMu.Unlock()
	lockedGlobal().src.Seed(seed)
}

// DrawX draws n uniform samples over [xmin, xmax) from the process-wide
// sampler. See (*Sampler).DrawX.
func DrawX(n int, xmin, xmax float64) ([]float64, error) {
	globalMu.Lock()
	defer globalMu.Unlock()
	return lockedGlobal().DrawX(n, xmin, xmax)
}

// DrawNoise draws n zero-mean normal samples scaled by scale from the
// process-wide sampler. See (*Sampler).DrawNoise.
func DrawNoise(n int, scale float64) ([]float64, error) {
	globalMu.Lock()
	defer globalMu.Unlock()
	return lockedGlobal().DrawNoise(n, scale)
}
