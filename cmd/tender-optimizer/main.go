package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/iwvelando/tender-optimizer/internal/bootstrap"
	"github.com/iwvelando/tender-optimizer/internal/config"
	"github.com/iwvelando/tender-optimizer/internal/optimizer"
	"github.com/iwvelando/tender-optimizer/internal/service"
	"github.com/iwvelando/tender-optimizer/pkg/constants"
	"github.com/iwvelando/tender-optimizer/pkg/output"
	"github.com/iwvelando/tender-optimizer/pkg/records"
	"github.com/iwvelando/tender-optimizer/pkg/validation"
	"go.uber.org/zap"
)

func main() {
	// Process command line flags first to get config location
	configLocation := flag.String("config", constants.DefaultConfigFile, "path to configuration file")
	inputFlag := flag.String("input", "", "shipment file (.csv or .json), '-' reads CSV from stdin")
	outputFormatFlag := flag.String("output-format", "", "type of output override: pretty, csv, json")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	strategyFlag := flag.String("strategy", "", "strategy override: current, cheapest, best-performance, optimized")
	costWeight := flag.Float64("cost-weight", constants.DefaultCostWeight, "importance of normalized cost")
	performanceWeight := flag.Float64("performance-weight", constants.DefaultPerformanceWeight, "importance of normalized performance")
	backendFlag := flag.String("backend", "", "solver backend override: groupscan, simplex")
	compare := flag.Bool("compare", false, "evaluate every strategy and report savings against the current allocation")
	flag.Parse()

	conf, err := loadConfiguration(*configLocation, flagSet("config"))
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		os.Exit(1)
	}

	// Flags that were set explicitly take precedence over the file.
	if *inputFlag != "" {
		conf.Input.File = *inputFlag
	}
	if *outputFormatFlag != "" {
		conf.Output.Format = *outputFormatFlag
	}
	if *strategyFlag != "" {
		conf.Optimizer.Strategy = *strategyFlag
	}
	if *backendFlag != "" {
		conf.Optimizer.Backend = *backendFlag
	}
	if flagSet("cost-weight") {
		conf.Optimizer.CostWeight = *costWeight
	}
	if flagSet("performance-weight") {
		conf.Optimizer.PerformanceWeight = *performanceWeight
	}
	conf.Normalize()

	logger, err := bootstrap.InitializeLogger(conf.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	if err := conf.Validate(); err != nil {
		logger.Fatal("invalid configuration",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
	if err := validation.ValidateOutputFormat(conf.Output.Format); err != nil {
		logger.Fatal(err.Error(),
			zap.String("op", "main"),
		)
	}
	for _, warning := range conf.Warnings() {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main"),
		)
	}

	if conf.Input.File == "" {
		logger.Fatal("no shipment input given; use -input or input.file",
			zap.String("op", "main"),
		)
	}
	shipments, err := readShipments(conf.Input.File)
	if err != nil {
		logger.Fatal("failed to read shipments",
			zap.String("op", "main"),
			zap.String("input", conf.Input.File),
			zap.Error(err),
		)
	}

	ctx := context.Background()
	services, err := bootstrap.NewServices(ctx, conf, logger)
	if err != nil {
		logger.Fatal("failed to initialize services",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
	defer services.Close()

	if *compare {
		cmp, err := services.Service.Compare(ctx, shipments, conf.Optimizer.Weights())
		if err != nil {
			logger.Fatal("failed to compare strategies",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
		switch conf.Output.Format {
		case constants.OutputFormatJSON:
			err = output.JSON(os.Stdout, cmp)
		case constants.OutputFormatCSV:
			optimized, _ := cmp.Result(optimizer.StrategyOptimized)
			err = output.CSV(os.Stdout, optimized.Solution)
		default:
			err = output.PrettyComparison(os.Stdout, cmp)
		}
		if err != nil {
			logger.Fatal("failed to write comparison",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
		return
	}

	strategy := optimizer.Strategy{Kind: conf.Optimizer.StrategyKind(), Weights: conf.Optimizer.Weights()}
	run, err := services.Service.Run(ctx, service.Request{Shipments: shipments, Strategy: strategy})
	if err != nil {
		logger.Fatal("failed to optimize carrier assignment",
			zap.String("op", "main"),
			zap.String("strategy", string(strategy.Kind)),
			zap.Error(err),
		)
	}

	if err := output.Write(os.Stdout, conf.Output.Format, run.Solution); err != nil {
		logger.Fatal("failed to write solution",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
}

// loadConfiguration reads the file at path. A missing default file is not an
// error; a missing file the user named explicitly is.
func loadConfiguration(path string, explicit bool) (*config.Configuration, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) && !explicit {
			return config.Default(), nil
		}
		return nil, err
	}
	return config.LoadConfiguration(path)
}

func readShipments(path string) ([]optimizer.Shipment, error) {
	if path == "-" {
		return records.ReadCSV(os.Stdin)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".json") {
		return records.ReadJSON(f)
	}
	return records.ReadCSV(f)
}

func flagSet(name string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}
