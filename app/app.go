package app

import (
	"encoding/json"
	"fmt"
	"image/color"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/mweagle/gpdraw/generator"
	goejson "github.com/mweagle/gpdraw/json"
	"github.com/mweagle/gpdraw/stats"
	"github.com/olekukonko/tablewriter"
	"golang.org/x/exp/rand"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

var defaultPercentiles = []float64{50, 95}

// MaxRunCount bounds the per-draw sample count a plan may request.
const MaxRunCount = 10_000_000

func aggregatedStatsFormatter(aggStats *stats.AggregatedStatistics) string {
	label := fmt.Sprintf("μ=%.2f, σ=%.2f", aggStats.Mean, aggStats.StdDev)
	if len(aggStats.Percentiles) != 0 {
		value := ""
		for i := 0; i != len(aggStats.Percentiles); i++ {
			percentilePair := aggStats.Percentiles[i]
			pVal := percentilePair.P
			if pVal < 1 {
				pVal *= 100
			}
			if math.Floor(pVal) == pVal {
				value += fmt.Sprintf("p%.0f=%.2f, ", pVal, percentilePair.Val)
			} else {
				value += fmt.Sprintf("p%.2f=%.2f, ", pVal, percentilePair.Val)
			}
		}
		value = strings.TrimSuffix(value, ", ")
		label = fmt.Sprintf("%s (%s)", label, value)
	}
	return label
}

// /////////////////////////////////////////////////////////////////////////////
//
// TYPES
//
// /////////////////////////////////////////////////////////////////////////////

// DrawResults is the serialized outcome of a single named draw.
type DrawResults struct {
	Name   string                      `json:"name"`
	Type   string                      `json:"type"`
	Values []float64                   `json:"values"`
	Stats  *stats.AggregatedStatistics `json:"stats"`
}

// PlanResults is the serialized outcome of a sampling plan.
type PlanResults struct {
	Name     string         `json:"name"`
	Seed     uint64         `json:"seed"`
	RunCount uint64         `json:"runCount"`
	Created  time.Time      `json:"created"`
	Draws    []*DrawResults `json:"draws"`
}

// /////////////////////////////////////////////////////////////////////////////
// samplingDraw
//
// A named generator within a plan
// /////////////////////////////////////////////////////////////////////////////
type samplingDraw struct {
	name      string
	generator generator.SampleGenerator
}

func (sd *samplingDraw) Results() *DrawResults {
	genResults := sd.generator.GenerationResults()
	values := genResults.RawValues
	if values == nil {
		values = []float64{}
	}
	return &DrawResults{
		Name:   sd.name,
		Type:   sd.generator.Name(),
		Values: values,
		Stats:  genResults.GeneratorStats,
	}
}

// /////////////////////////////////////////////////////////////////////////////
// samplingPlan
//
// The root level plan. Every draw shares one random source, evaluated in
// lexical name order so that a seed reproduces every value.
//
// /////////////////////////////////////////////////////////////////////////////
type samplingPlan struct {
	name         string
	runCount     uint64
	seed         uint64
	seedProvided bool
	createPlots  bool
	percentiles  []float64
	created      time.Time
	draws        []*samplingDraw
}

func (sp *samplingPlan) Unmarshal(inputStream io.Reader, log *slog.Logger) error {
	inputBytes, inputBytesErr := io.ReadAll(inputStream)
	if inputBytesErr != nil {
		return inputBytesErr
	}
	rootMap := make(map[string]interface{})
	unmarshalErr := json.Unmarshal(inputBytes, &rootMap)
	if unmarshalErr != nil {
		return unmarshalErr
	}
	sp.name = goejson.String("name", rootMap)
	if rawRunCount, rawRunCountOk := goejson.Float("runCount", rootMap); rawRunCountOk &&
		(rawRunCount < 0 || rawRunCount > MaxRunCount || math.Floor(rawRunCount) != rawRunCount) {
		return fmt.Errorf("invalid runCount: %v. Must be an integer in [0, %d]", rawRunCount, MaxRunCount)
	}
	sp.runCount = goejson.Uint("runCount", rootMap)

	// Plots default on; a plan can opt out with "plot": false
	sp.createPlots = true
	if _, plotExists := rootMap["plot"]; plotExists {
		sp.createPlots = goejson.Boolean("plot", rootMap)
	}

	// Seed?
	rawSeed, rawSeedOk := goejson.Float("seed", rootMap)
	if rawSeedOk {
		if rawSeed < 0 || math.Floor(rawSeed) != rawSeed {
			return fmt.Errorf("invalid seed: %v. Must be a non-negative integer", rawSeed)
		}
		sp.seed = uint64(rawSeed)
		sp.seedProvided = true
	}
	// Percentiles?
	sp.percentiles = defaultPercentiles
	userPercentiles, userPercentilesErr := goejson.FloatSlice("percentiles", rootMap)
	if userPercentilesErr != nil {
		return userPercentilesErr
	}
	if userPercentiles != nil {
		for _, eachPercentile := range userPercentiles {
			if eachPercentile < 0 || eachPercentile > 100 {
				return fmt.Errorf("invalid percentile specified: %v. Must be in [0, 100]", eachPercentile)
			}
		}
		sp.percentiles = userPercentiles
	}
	return sp.unmarshalDraws(rootMap, log)
}

func (sp *samplingPlan) unmarshalDraws(rootObj map[string]interface{}, log *slog.Logger) error {
	rootMap, rootMapOk := rootObj["draws"].(map[string]interface{})
	if !rootMapOk {
		return fmt.Errorf("failed to extract %s from map", "draws")
	}
	if len(rootMap) <= 0 {
		return fmt.Errorf("no draws defined in plan: %s", sp.name)
	}
	drawNames := make([]string, 0, len(rootMap))
	for eachKey := range rootMap {
		drawNames = append(drawNames, eachKey)
	}
	sort.Strings(drawNames)

	for _, eachName := range drawNames {
		log.Debug("Unmarshalling draw", "name", eachName)
		if len(strings.TrimSpace(eachName)) <= 0 || strings.ContainsAny(eachName, `/\`) {
			return fmt.Errorf("invalid draw name: %q", eachName)
		}
		mapData, mapDataOk := rootMap[eachName].(map[string]interface{})
		if !mapDataOk {
			return fmt.Errorf("unsupported type for draw %s: %T", eachName, rootMap[eachName])
		}
		sampleGenerator, sampleGeneratorErr := generator.NewSampleGenerator(mapData, log)
		if sampleGeneratorErr != nil {
			return fmt.Errorf("draw %s: %w", eachName, sampleGeneratorErr)
		}
		sp.draws = append(sp.draws, &samplingDraw{
			name:      eachName,
			generator: sampleGenerator,
		})
	}
	return nil
}

func (sp *samplingPlan) Evaluate(log *slog.Logger) error {
	randSrc := rand.NewSource(sp.seed)
	for _, eachDraw := range sp.draws {
		genResults, genResultsErr := eachDraw.generator.Generate(int(sp.runCount),
			sp.percentiles,
			randSrc,
			log)
		if genResultsErr != nil {
			return fmt.Errorf("draw %s: %w", eachDraw.name, genResultsErr)
		}
		log.Info("Evaluated draw",
			"name", eachDraw.name,
			"type", eachDraw.generator.Name(),
			"stats", aggregatedStatsFormatter(genResults.GeneratorStats))
	}
	return nil
}

func (sp *samplingPlan) Results() *PlanResults {
	planResults := &PlanResults{
		Name:     sp.name,
		Seed:     sp.seed,
		RunCount: sp.runCount,
		Created:  sp.created,
		Draws:    make([]*DrawResults, 0, len(sp.draws)),
	}
	for _, eachDraw := range sp.draws {
		planResults.Draws = append(planResults.Draws, eachDraw.Results())
	}
	return planResults
}

func (sp *samplingPlan) PlotDistribution(draw *samplingDraw, histogramPath string, log *slog.Logger) error {
	genResults := draw.generator.GenerationResults()
	if len(genResults.RawValues) <= 0 {
		return fmt.Errorf("no samples to plot for draw: %s", draw.name)
	}
	// Make a plot and set its title.
	p := plot.New()
	p.X.Label.Text = draw.name
	p.Y.Label.Text = "Probability"
	p.Title.Text = draw.generator.Name()
	p.Title.TextStyle.Color = color.RGBA{B: 255, A: 255}

	// First bin the data. We'll bin into 100 bins
	rawHist, rawHistError := plotter.NewHist(plotter.Values(genResults.RawValues), 100)
	if rawHistError != nil {
		return rawHistError
	}

	// Then the empirical CDF from the same bins
	cdfValues := make(plotter.XYs, len(rawHist.Bins))
	cumulativeWeight := float64(0)
	for i := 0; i != len(rawHist.Bins); i++ {
		activeBin := rawHist.Bins[i]
		cumulativeWeight += activeBin.Weight
		cdfValues[i].X = activeBin.Max
		cdfValues[i].Y = cumulativeWeight / float64(len(genResults.RawValues))
	}
	rawHist.Normalize(1)
	p.Add(rawHist)

	line, lineErr := plotter.NewLine(cdfValues)
	if lineErr != nil {
		return lineErr
	}
	line.LineStyle.Width = vg.Points(2)
	line.LineStyle.Dashes = []vg.Length{vg.Points(3), vg.Points(3)}
	line.LineStyle.Color = color.RGBA{R: 255, G: 144, A: 255}
	p.Add(line)

	log.Info("Writing histogram", "draw", draw.name, "path", histogramPath)
	return p.Save(8*vg.Inch, 6*vg.Inch, histogramPath)
}

// WriteSummary renders one table row per draw.
func (sp *samplingPlan) WriteSummary(output io.Writer) {
	table := tablewriter.NewWriter(output)
	table.SetHeader([]string{"Draw", "Type", "N", "Min", "Max", "Summary"})
	for _, eachDraw := range sp.draws {
		genStats := eachDraw.generator.GenerationResults().GeneratorStats
		if genStats == nil {
			continue
		}
		table.Append([]string{
			eachDraw.name,
			eachDraw.generator.Name(),
			fmt.Sprintf("%d", genStats.Count),
			fmt.Sprintf("%.4f", genStats.Min),
			fmt.Sprintf("%.4f", genStats.Max),
			aggregatedStatsFormatter(genStats),
		})
	}
	table.Render()
}

func newSamplingPlan(inputFile io.Reader, log *slog.Logger) (*samplingPlan, error) {
	sp := &samplingPlan{
		created: time.Now(),
		draws:   make([]*samplingDraw, 0),
	}
	unmarshalErr := sp.Unmarshal(inputFile, log)
	if unmarshalErr != nil {
		return nil, unmarshalErr
	}
	if len(sp.name) <= 0 {
		sp.name = "gpdraw"
	}
	return sp, nil
}

// /////////////////////////////////////////////////////////////////////////////
// Application entrypoint
// /////////////////////////////////////////////////////////////////////////////

type ApplicationPlanParams struct {
	InputFile       string
	OutputDirectory string
	// Seed overrides any seed in the plan when non-nil
	Seed        *uint64
	CreatePlots bool
	// Summary receives the rendered table. Nil disables it.
	Summary io.Writer
}

func NewApplicationPlan(params *ApplicationPlanParams, log *slog.Logger) (*PlanResults, error) {
	inputFile, inputFileErr := os.Open(params.InputFile)
	if inputFileErr != nil {
		return nil, inputFileErr
	}
	defer inputFile.Close()

	plan, planErr := newSamplingPlan(inputFile, log)
	if planErr != nil {
		return nil, planErr
	}
	switch {
	case params.Seed != nil:
		plan.seed = *params.Seed
	case !plan.seedProvided:
		plan.seed = uint64(plan.created.UnixNano())
	}
	log.Info("Evaluating plan",
		"name", plan.name,
		"runCount", plan.runCount,
		"seed", plan.seed,
		"draws", len(plan.draws))
	if plan.runCount == 0 {
		log.Warn("Plan runCount is zero, all draws will be empty", "name", plan.name)
	}
	evalErr := plan.Evaluate(log)
	if evalErr != nil {
		return nil, evalErr
	}

	outputFileName := filepath.Base(params.InputFile)
	outputFileBaseName := strings.TrimSuffix(outputFileName, filepath.Ext(outputFileName))
	mkdirErr := os.MkdirAll(params.OutputDirectory, 0755)
	if mkdirErr != nil {
		return nil, mkdirErr
	}

	planResults := plan.Results()
	resultsBytes, resultsBytesErr := json.MarshalIndent(planResults, "", " ")
	if resultsBytesErr != nil {
		return nil, resultsBytesErr
	}
	resultsPath := filepath.Join(params.OutputDirectory, outputFileBaseName+".results.json")
	writeErr := os.WriteFile(resultsPath, resultsBytes, 0644)
	if writeErr != nil {
		return nil, writeErr
	}
	log.Info("Created results file", "path", resultsPath)

	if !plan.createPlots {
		log.Info("Plots disabled by plan", "name", plan.name)
	}
	if params.CreatePlots && plan.createPlots && plan.runCount > 0 {
		for _, eachDraw := range plan.draws {
			histogramPath := filepath.Join(params.OutputDirectory,
				fmt.Sprintf("%s-%s.png", outputFileBaseName, eachDraw.name))
			plotErr := plan.PlotDistribution(eachDraw, histogramPath, log)
			if plotErr != nil {
				return nil, plotErr
			}
		}
	}
	if params.Summary != nil {
		plan.WriteSummary(params.Summary)
	}
	return planResults, nil
}
