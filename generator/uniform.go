package generator

import (
	"fmt"
	"log/slog"

	"github.com/mweagle/gpdraw/sampler"

	"golang.org/x/exp/rand"
)

// /////////////////////////////////////////////////////////////////////////////
//  _   _      _  __
// | | | |_ _ (_)/ _|___ _ _ _ __
// | |_| | ' \| |  _/ _ \ '_| '  \
//  \___/|_||_|_|_| \___/_| |_|_|_|
//
// /////////////////////////////////////////////////////////////////////////////
type UniformGenerator struct {
	BaseGenerator
	xmin float64
	xmax float64
}

func (ug *UniformGenerator) Validate() error {
	if ug.xmin > ug.xmax {
		return fmt.Errorf("invalid Uniform distribution: (xmin=%.2f, xmax=%.2f). Distribution must satisfy: xmin <= xmax",
			ug.xmin,
			ug.xmax)
	}
	return nil
}

func (ug *UniformGenerator) Name() string {
	return fmt.Sprintf("Uniform[%.2f, %.2f)",
		ug.xmin,
		ug.xmax)
}

func (ug *UniformGenerator) Generate(count int,
	percentiles []float64,
	src rand.Source,
	log *slog.Logger) (*GenerationResults, error) {
	draw := func(s *sampler.Sampler, n int) ([]float64, error) {
		return s.DrawX(n, ug.xmin, ug.xmax)
	}
	// Delegate to the Base generator
	return ug.BaseGenerator.Generate(draw, count, percentiles, src, log)
}

func UnmarshalUniform(typeParameter string, log *slog.Logger) (SampleGenerator, error) {
	// Supported forms:
	// Uniform(xmin, xmax)
	ug := &UniformGenerator{}
	parseErr := ug.BaseGenerator.parseParams(typeParameter, &ug.xmin, &ug.xmax)
	if parseErr != nil {
		return nil, parseErr
	}
	// Check the values
	validateErr := ug.Validate()
	if validateErr != nil {
		return nil, validateErr
	}
	return ug, nil
}
