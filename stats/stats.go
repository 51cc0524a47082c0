package stats

import (
	"sort"

	gonumstat "gonum.org/v1/gonum/stat"
)

// PercentileValue pairs a requested percentile with its empirical value.
type PercentileValue struct {
	P   float64
	Val float64
}

type AggregatedStatistics struct {
	Count       int
	Mean        float64
	Median      float64
	StdDev      float64
	Min         float64
	Max         float64
	Percentiles []PercentileValue
}

// StatsForSequence summarizes the samples. Percentiles greater than 1 are
// interpreted on a 0-100 scale. An empty sequence yields a zero summary.
func StatsForSequence(unsortedSamples []float64, percentiles []float64) *AggregatedStatistics {
	aggStats := &AggregatedStatistics{
		Count:       len(unsortedSamples),
		Percentiles: make([]PercentileValue, len(percentiles)),
	}
	for eachPercentileIndex := range percentiles {
		aggStats.Percentiles[eachPercentileIndex].P = percentiles[eachPercentileIndex]
	}
	if len(unsortedSamples) == 0 {
		return aggStats
	}
	sortedSamples := make([]float64, len(unsortedSamples))
	copy(sortedSamples, unsortedSamples)
	sort.Float64s(sortedSamples)

	// Compute aggregates...
	aggStats.Mean, aggStats.StdDev = gonumstat.MeanStdDev(sortedSamples, nil)
	if len(sortedSamples) < 2 {
		aggStats.StdDev = 0
	}
	aggStats.Median = gonumstat.Quantile(0.5, gonumstat.Empirical, sortedSamples, nil)
	aggStats.Min = sortedSamples[0]
	aggStats.Max = sortedSamples[len(sortedSamples)-1]

	for eachPercentileIndex := range percentiles {
		percentileValue := percentiles[eachPercentileIndex]
		if percentileValue > 1.00 {
			percentileValue = percentileValue / 100
		}
		aggStats.Percentiles[eachPercentileIndex].Val = gonumstat.Quantile(percentileValue,
			gonumstat.Empirical,
			sortedSamples,
			nil)
	}
	return aggStats
}
