package generator

import (
	"fmt"
	"log/slog"

	"github.com/mweagle/gpdraw/sampler"

	"golang.org/x/exp/rand"
)

// /////////////////////////////////////////////////////////////////////////////
//  _  _     _
// | \| |___(_)___ ___
// | .` / _ \ (_-</ -_)
// |_|\_\___/_/__/\___|
//
// /////////////////////////////////////////////////////////////////////////////
type NoiseGenerator struct {
	BaseGenerator
	scale float64
}

func (ng *NoiseGenerator) Name() string {
	return fmt.Sprintf("Noise(μ = 0, σ = %.2f)",
		ng.scale)
}

func (ng *NoiseGenerator) Generate(count int,
	percentiles []float64,
	src rand.Source,
	log *slog.Logger) (*GenerationResults, error) {
	draw := func(s *sampler.Sampler, n int) ([]float64, error) {
		return s.DrawNoise(n, ng.scale)
	}
	// Delegate to the Base generator
	return ng.BaseGenerator.Generate(draw, count, percentiles, src, log)
}

func UnmarshalNoise(typeParameter string, log *slog.Logger) (SampleGenerator, error) {
	// Supported forms:
	// Noise(scale)
	ng := &NoiseGenerator{}
	parseErr := ng.BaseGenerator.parseParams(typeParameter, &ng.scale)
	if parseErr != nil {
		return nil, parseErr
	}
	if ng.scale < 0 {
		log.Warn("Negative noise scale flips sample signs", "expression", typeParameter)
	}
	return ng, nil
}
