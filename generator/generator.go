package generator

import (
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/mweagle/gpdraw/json"
	"github.com/mweagle/gpdraw/sampler"
	"github.com/mweagle/gpdraw/stats"

	"golang.org/x/exp/rand"
)

type GenerationResults struct {
	RawValues      []float64
	GeneratorStats *stats.AggregatedStatistics
}

// SampleGenerator is satisfied by every plan expression. Generate draws count
// values from src and summarizes them.
type SampleGenerator interface {
	Name() string
	Generate(count int,
		percentiles []float64,
		src rand.Source,
		log *slog.Logger) (*GenerationResults, error)
	GenerationResults() *GenerationResults
}

type drawFunc func(s *sampler.Sampler, count int) ([]float64, error)

type unmarshalFunc func(string, *slog.Logger) (SampleGenerator, error)

var unmarshalMap map[string]unmarshalFunc

var reParams = regexp.MustCompile(`[()]`)

func init() {
	// The map of supported expressions, keyed by the name before the
	// opening parens
	unmarshalMap = map[string]unmarshalFunc{
		"Uniform": UnmarshalUniform,
		"Noise":   UnmarshalNoise,
	}
}

// SupportedTypes returns the sorted expression names NewSampleGenerator accepts.
func SupportedTypes() []string {
	unmarshalTypes := make([]string, 0, len(unmarshalMap))
	for eachKey := range unmarshalMap {
		unmarshalTypes = append(unmarshalTypes, eachKey)
	}
	sort.Strings(unmarshalTypes)
	return unmarshalTypes
}

// /////////////////////////////////////////////////////////////////////////////
// ___                ___                       _
// | _ ) __ _ ___ ___ / __|___ _ _  ___ _ _ __ _| |_ ___ _ _
// | _ \/ _` (_-</ -_) (_ / -_) ' \/ -_) '_/ _` |  _/ _ \ '_|
// |___/\__,_/__/\___|\___\___|_||_\___|_| \__,_|\__\___/_|
//
// /////////////////////////////////////////////////////////////////////////////

type BaseGenerator struct {
	rawValues      []float64
	generatorStats *stats.AggregatedStatistics
}

func (bg *BaseGenerator) parseFloat(strVal string, target *float64) error {
	trimmedVal := strings.TrimSpace(strVal)
	parseVal, parseValErr := strconv.ParseFloat(trimmedVal, 64)
	if parseValErr != nil {
		return parseValErr
	}
	if math.IsNaN(parseVal) || math.IsInf(parseVal, 0) {
		return fmt.Errorf("non-finite value: %s", trimmedVal)
	}
	*target = parseVal
	return nil
}

// parseParams splits NAME(a, b, ...) into its float parameters, requiring
// exactly one parameter per target.
func (bg *BaseGenerator) parseParams(typeParameter string, targets ...*float64) error {
	// Exactly one '(' after the name, closed by a trailing ')'
	trimmedExpr := strings.TrimSpace(typeParameter)
	openIndex := strings.Index(trimmedExpr, "(")
	if openIndex <= 0 ||
		!strings.HasSuffix(trimmedExpr, ")") ||
		strings.Count(trimmedExpr, "(") != 1 ||
		strings.Count(trimmedExpr, ")") != 1 {
		return fmt.Errorf("invalid generator expression: %s", typeParameter)
	}
	floatParts := strings.Split(trimmedExpr[openIndex+1:len(trimmedExpr)-1], ",")
	if len(floatParts) != len(targets) {
		return fmt.Errorf("invalid generator expression: %s. Expected %d parameters, got %d",
			typeParameter,
			len(targets),
			len(floatParts))
	}
	for i, eachTarget := range targets {
		parseErr := bg.parseFloat(floatParts[i], eachTarget)
		if parseErr != nil {
			return fmt.Errorf("invalid generator expression: %s. %w", typeParameter, parseErr)
		}
	}
	return nil
}

func (bg *BaseGenerator) GenerationResults() *GenerationResults {
	return &GenerationResults{
		RawValues:      bg.rawValues,
		GeneratorStats: bg.generatorStats,
	}
}

func (bg *BaseGenerator) computeAggregates(generatorSamples []float64,
	percentiles []float64,
	_ *slog.Logger) (*GenerationResults, error) {
	bg.rawValues = generatorSamples
	bg.generatorStats = stats.StatsForSequence(generatorSamples, percentiles)
	return bg.GenerationResults(), nil
}

func (bg *BaseGenerator) Generate(draw drawFunc,
	count int,
	percentiles []float64,
	src rand.Source,
	log *slog.Logger) (*GenerationResults, error) {
	if src == nil {
		return nil, fmt.Errorf("nil random source")
	}
	generatedSamples, generatedSamplesErr := draw(sampler.New(src), count)
	if generatedSamplesErr != nil {
		return nil, generatedSamplesErr
	}
	log.Debug("Generated samples", "count", len(generatedSamples))
	return bg.computeAggregates(generatedSamples, percentiles, log)
}

func NewSampleGenerator(dictDrawParams map[string]interface{}, log *slog.Logger) (SampleGenerator, error) {
	generatorType := json.String("type", dictDrawParams)

	// All generators satisfy:
	// GENERATOR(...)
	generatorParts := reParams.Split(generatorType, -1)
	generatorBasename := strings.TrimSpace(generatorParts[0])

	unmarshalFunc, unmarshalFuncExists := unmarshalMap[generatorBasename]
	if !unmarshalFuncExists {
		return nil, fmt.Errorf("unsupported generator function name: %q. Supported types: %v",
			generatorBasename,
			SupportedTypes())
	}
	log.Debug("Unmarshalling generator", "type", generatorType)
	return unmarshalFunc(generatorType, log)
}
