package app

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPlan = `{
	"name": "gp-training",
	"runCount": 200,
	"seed": 42,
	"percentiles": [50, 95],
	"draws": {
		"x":     {"type": "Uniform(-3, 3)"},
		"noise": {"type": "Noise(0.1)"}
	}
}`

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writePlan(t *testing.T, contents string) string {
	t.Helper()
	planPath := filepath.Join(t.TempDir(), "plan.json")
	require.NoError(t, os.WriteFile(planPath, []byte(contents), 0644))
	return planPath
}

func TestNewApplicationPlan(t *testing.T) {
	planPath := writePlan(t, testPlan)
	outputDir := filepath.Join(t.TempDir(), "out")
	summary := &bytes.Buffer{}

	planResults, err := NewApplicationPlan(&ApplicationPlanParams{
		InputFile:       planPath,
		OutputDirectory: outputDir,
		CreatePlots:     true,
		Summary:         summary,
	}, testLogger())
	require.NoError(t, err)

	assert.Equal(t, "gp-training", planResults.Name)
	assert.Equal(t, uint64(42), planResults.Seed)
	require.Len(t, planResults.Draws, 2)

	// Lexical order
	assert.Equal(t, "noise", planResults.Draws[0].Name)
	assert.Equal(t, "x", planResults.Draws[1].Name)
	assert.Len(t, planResults.Draws[0].Values, 200)
	for _, v := range planResults.Draws[1].Values {
		assert.True(t, v >= -3 && v < 3, "sample %v out of range", v)
	}
	assert.InDelta(t, 0.1, planResults.Draws[0].Stats.StdDev, 0.03)

	resultsBytes, err := os.ReadFile(filepath.Join(outputDir, "plan.results.json"))
	require.NoError(t, err)
	decoded := &PlanResults{}
	require.NoError(t, json.Unmarshal(resultsBytes, decoded))
	assert.Equal(t, planResults.Draws[1].Values, decoded.Draws[1].Values)

	for _, drawName := range []string{"noise", "x"} {
		info, statErr := os.Stat(filepath.Join(outputDir, "plan-"+drawName+".png"))
		require.NoError(t, statErr)
		assert.Greater(t, info.Size(), int64(0))
	}
	assert.Contains(t, summary.String(), "DRAW")
	assert.Contains(t, summary.String(), "noise")
	assert.Contains(t, summary.String(), "Uniform[-3.00, 3.00)")
}

func TestNewApplicationPlan_Reproducible(t *testing.T) {
	planPath := writePlan(t, testPlan)
	evaluate := func(seed *uint64) *PlanResults {
		planResults, err := NewApplicationPlan(&ApplicationPlanParams{
			InputFile:       planPath,
			OutputDirectory: t.TempDir(),
			Seed:            seed,
		}, testLogger())
		require.NoError(t, err)
		return planResults
	}
	first := evaluate(nil)
	second := evaluate(nil)
	assert.Equal(t, first.Draws[0].Values, second.Draws[0].Values)
	assert.Equal(t, first.Draws[1].Values, second.Draws[1].Values)

	override := uint64(7)
	third := evaluate(&override)
	assert.Equal(t, uint64(7), third.Seed)
	assert.NotEqual(t, first.Draws[1].Values, third.Draws[1].Values)
}

func TestNewApplicationPlan_ZeroRunCount(t *testing.T) {
	planPath := writePlan(t, `{"runCount": 0, "draws": {"x": {"type": "Uniform(0, 1)"}}}`)
	outputDir := t.TempDir()
	planResults, err := NewApplicationPlan(&ApplicationPlanParams{
		InputFile:       planPath,
		OutputDirectory: outputDir,
		CreatePlots:     true,
	}, testLogger())
	require.NoError(t, err)
	require.Len(t, planResults.Draws, 1)
	assert.NotNil(t, planResults.Draws[0].Values)
	assert.Empty(t, planResults.Draws[0].Values)
	assert.Equal(t, "gpdraw", planResults.Name)

	_, statErr := os.Stat(filepath.Join(outputDir, "plan-x.png"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestNewApplicationPlan_MissingInput(t *testing.T) {
	_, err := NewApplicationPlan(&ApplicationPlanParams{
		InputFile:       filepath.Join(t.TempDir(), "missing.json"),
		OutputDirectory: t.TempDir(),
	}, testLogger())
	assert.Error(t, err)
}

func TestNewSamplingPlan_Invalid(t *testing.T) {
	plans := map[string]string{
		"not json":           `{"draws": `,
		"no draws":           `{"runCount": 10}`,
		"empty draws":        `{"runCount": 10, "draws": {}}`,
		"draw not object":    `{"runCount": 10, "draws": {"x": "Uniform(0, 1)"}}`,
		"unknown type":       `{"runCount": 10, "draws": {"x": {"type": "Cauchy(0, 1)"}}}`,
		"reversed bounds":    `{"runCount": 10, "draws": {"x": {"type": "Uniform(1, 0)"}}}`,
		"negative runCount":  `{"runCount": -1, "draws": {"x": {"type": "Uniform(0, 1)"}}}`,
		"huge runCount":      `{"runCount": 1e20, "draws": {"x": {"type": "Uniform(0, 1)"}}}`,
		"large runCount":     `{"runCount": 1e12, "draws": {"x": {"type": "Uniform(0, 1)"}}}`,
		"fractional seed":    `{"runCount": 1, "seed": 1.5, "draws": {"x": {"type": "Uniform(0, 1)"}}}`,
		"bad percentile":     `{"runCount": 1, "percentiles": [101], "draws": {"x": {"type": "Uniform(0, 1)"}}}`,
		"string percentiles": `{"runCount": 1, "percentiles": "p95", "draws": {"x": {"type": "Uniform(0, 1)"}}}`,
		"path in draw name":  `{"runCount": 1, "draws": {"../x": {"type": "Uniform(0, 1)"}}}`,
	}
	for name, contents := range plans {
		t.Run(name, func(t *testing.T) {
			plan, err := newSamplingPlan(strings.NewReader(contents), testLogger())
			assert.Error(t, err)
			assert.Nil(t, plan)
		})
	}
}

func TestNewSamplingPlan_Defaults(t *testing.T) {
	plan, err := newSamplingPlan(strings.NewReader(`{"runCount": 5, "draws": {"n": {"type": "Noise(1)"}}}`),
		testLogger())
	require.NoError(t, err)
	assert.False(t, plan.seedProvided)
	assert.Equal(t, []float64{50, 95}, plan.percentiles)
	assert.Equal(t, uint64(5), plan.runCount)
	assert.True(t, plan.createPlots)
}

func TestNewSamplingPlan_RunCountLimit(t *testing.T) {
	plan, err := newSamplingPlan(strings.NewReader(`{"runCount": 10000000, "draws": {"n": {"type": "Noise(1)"}}}`),
		testLogger())
	require.NoError(t, err)
	assert.Equal(t, uint64(MaxRunCount), plan.runCount)

	_, err = newSamplingPlan(strings.NewReader(`{"runCount": 10000001, "draws": {"n": {"type": "Noise(1)"}}}`),
		testLogger())
	assert.Error(t, err)
}

func TestNewApplicationPlan_PlanDisablesPlots(t *testing.T) {
	for _, plotValue := range []string{`false`, `"false"`} {
		planPath := writePlan(t, `{"runCount": 10, "seed": 1, "plot": `+plotValue+`, "draws": {"x": {"type": "Uniform(0, 1)"}}}`)
		outputDir := t.TempDir()
		planResults, err := NewApplicationPlan(&ApplicationPlanParams{
			InputFile:       planPath,
			OutputDirectory: outputDir,
			CreatePlots:     true,
		}, testLogger())
		require.NoError(t, err)
		assert.Len(t, planResults.Draws[0].Values, 10)

		_, statErr := os.Stat(filepath.Join(outputDir, "plan-x.png"))
		assert.True(t, os.IsNotExist(statErr), "plot value %s", plotValue)
		_, statErr = os.Stat(filepath.Join(outputDir, "plan.results.json"))
		assert.NoError(t, statErr)
	}
}

func TestNewApplicationPlan_PlanEnablesPlots(t *testing.T) {
	planPath := writePlan(t, `{"runCount": 10, "seed": 1, "plot": true, "draws": {"x": {"type": "Uniform(0, 1)"}}}`)
	outputDir := t.TempDir()
	_, err := NewApplicationPlan(&ApplicationPlanParams{
		InputFile:       planPath,
		OutputDirectory: outputDir,
		CreatePlots:     true,
	}, testLogger())
	require.NoError(t, err)
	_, statErr := os.Stat(filepath.Join(outputDir, "plan-x.png"))
	assert.NoError(t, statErr)

	// The command line flag still wins when it disables plots
	outputDir = t.TempDir()
	_, err = NewApplicationPlan(&ApplicationPlanParams{
		InputFile:       planPath,
		OutputDirectory: outputDir,
		CreatePlots:     false,
	}, testLogger())
	require.NoError(t, err)
	_, statErr = os.Stat(filepath.Join(outputDir, "plan-x.png"))
	assert.True(t, os.IsNotExist(statErr))
}
