package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/mweagle/gpdraw/app"
	"github.com/mweagle/gpdraw/buildinfo"
)

// //////////////////////////////////////////////////////////////////////////////
// commandLineArgs
type commandLineArgs struct {
	logLevelValue   int
	inputFile       string
	outputDirectory string
	seed            *uint64
	createPlots     bool
}

func (cla *commandLineArgs) parseCommandLine(args []string, _ *slog.Logger) error {
	logLevelString := ""
	seedString := ""

	flags := flag.NewFlagSet("gpdraw", flag.ContinueOnError)
	flags.StringVar(&logLevelString, "level", "INFO", "Logging verbosity level. Must be one of: {DEBUG, INFO, WARN, ERROR}.")
	flags.StringVar(&cla.inputFile, "input", "", "Full filepath to sampling plan to be evaluated.")
	flags.StringVar(&cla.outputDirectory, "output", "", "Path to output directory for created files. Defaults to inputFile parent directory.")
	flags.StringVar(&seedString, "seed", "", "Unsigned seed for the random source. Overrides the plan's seed.")
	flags.BoolVar(&cla.createPlots, "plot", true, "Write a histogram PNG for each draw.")
	parseErr := flags.Parse(args)
	if parseErr != nil {
		return parseErr
	}

	// Parse the verbosity level
	switch strings.ToLower(logLevelString) {
	case "debug":
		cla.logLevelValue = int(slog.LevelDebug)
	case "info":
		cla.logLevelValue = int(slog.LevelInfo)
	case "warn":
		cla.logLevelValue = int(slog.LevelWarn)
	case "error":
		cla.logLevelValue = int(slog.LevelError)
	default:
		return fmt.Errorf("invalid log level specified: %s", logLevelString)
	}
	if len(seedString) != 0 {
		seedValue, seedValueErr := strconv.ParseUint(seedString, 10, 64)
		if seedValueErr != nil {
			return fmt.Errorf("invalid seed specified: %s", seedString)
		}
		cla.seed = &seedValue
	}
	if len(cla.inputFile) <= 0 {
		return errors.New("empty inputFile path provided")
	}
	absPath, absPathErr := filepath.Abs(cla.inputFile)
	if absPathErr != nil {
		return absPathErr
	}
	cla.inputFile = absPath
	if len(cla.outputDirectory) <= 0 {
		cla.outputDirectory = path.Dir(cla.inputFile)
	}
	return nil
}

// //////////////////////////////////////////////////////////////////////////////
//
// _ __  __ _(_)_ _
// | '  \/ _` | | ' \
// |_|_|_\__,_|_|_||_|
//
// //////////////////////////////////////////////////////////////////////////////
func main() {
	lvl := &slog.LevelVar{}
	lvl.Set(slog.LevelInfo)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: lvl,
	}))
	cla := commandLineArgs{}
	parseError := cla.parseCommandLine(os.Args[1:], logger)
	if parseError != nil {
		logger.Error("Failed to parse command line arguments", "error", parseError)
		os.Exit(-1)
	}
	lvl.Set(slog.Level(cla.logLevelValue))
	logger.Info("Welcome to gpdraw!",
		"version", buildinfo.BuildInfo(),
		"go", runtime.Version())

	params := &app.ApplicationPlanParams{
		InputFile:       cla.inputFile,
		OutputDirectory: cla.outputDirectory,
		Seed:            cla.seed,
		CreatePlots:     cla.createPlots,
		Summary:         os.Stdout,
	}
	_, err := app.NewApplicationPlan(params, logger)
	if err != nil {
		logger.Error("Failed to evaluate plan", "error", err)
		os.Exit(-1)
	}
	logger.Info("gpdraw complete")
}
