package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"climate-platform/internal/catalog"
	"climate-platform/internal/config"
	"climate-platform/internal/reader"
	"climate-platform/internal/services"
	"climate-platform/pkg/logging"
	"climate-platform/pkg/metrics"
)

const version = "1.0.0"

// Builds one data set straight from catalog files, without a database
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	catalogPath := flag.String("catalog", cfg.Data.CatalogPath, "Path to the data set catalog")
	dataDir := flag.String("data-dir", cfg.Data.DataDir, "Directory containing data set files and archives")
	requestPath := flag.String("request", "-", "Build request JSON file, - for stdin")
	asJSON := flag.Bool("json", false, "Print the result as JSON")
	flag.Parse()

	logLevel, _ := logging.ParseLevel(cfg.Logging.Level)
	logger := logging.NewStructuredLogger("climate-build", version, logLevel)
	logger.SetOutput(os.Stderr)
	ctx := context.Background()

	req, err := readRequest(*requestPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read build request: %v\n", err)
		os.Exit(1)
	}

	cat, err := catalog.Load(*catalogPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load catalog: %v\n", err)
		os.Exit(1)
	}

	metricsCollector := metrics.NewCollector("climate_build")
	files := services.NewFileSource(cat, reader.NewFileLocator(*dataDir), logger, metricsCollector)
	builder := services.NewDataSetBuilder(files, services.BuildDefaults{
		CupSize:                   cfg.Data.DefaultCupSize,
		RequiredCupDataProportion: cfg.Data.DefaultRequiredProportion,
	}, logger, metricsCollector)

	result, err := builder.BuildDataSet(ctx, req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Build failed (%s): %v\n", services.ErrorType(err), err)
		os.Exit(1)
	}

	if *asJSON {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(result); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write result: %v\n", err)
			os.Exit(1)
		}
		return
	}

	printTable(os.Stdout, result)
}

func readRequest(path string) (services.BuildRequest, error) {
	var req services.BuildRequest

	in := io.Reader(os.Stdin)
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return req, err
		}
		defer f.Close()
		in = f
	}

	decoder := json.NewDecoder(in)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		return req, fmt.Errorf("invalid request JSON: %w", err)
	}
	return req, nil
}

func printTable(w io.Writer, result *services.BuildResult) {
	fmt.Fprintln(w, strings.Repeat("=", 48))
	fmt.Fprintf(w, "%-12s %-16s %16s\n", "ID", "LABEL", "VALUE")
	fmt.Fprintln(w, strings.Repeat("=", 48))
	for _, p := range result.Points {
		value := "NULL"
		if p.Value != nil {
			value = fmt.Sprintf("%.3f", *p.Value)
		}
		fmt.Fprintf(w, "%-12s %-16s %16s\n", p.ID, p.Label, value)
	}
	fmt.Fprintln(w, strings.Repeat("-", 48))
	fmt.Fprintf(w, "Records: %d  Bins: %d  Rejected: %d\n", result.RecordCount, result.BinCount, result.RejectedBinCount)
}
