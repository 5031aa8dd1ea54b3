// Command topsis ranks the alternatives in a CSV decision table and writes
// the table back out with score and rank columns appended.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/MikeSquared-Agency/Topsis/internal/config"
	"github.com/MikeSquared-Agency/Topsis/internal/csvio"
	"github.com/MikeSquared-Agency/Topsis/internal/topsis"
)

const (
	usage   = "Usage: topsis [flags] <InputDataFile> <Weights> <Impacts> <OutputResultFileName>"
	example = `Example: topsis data.csv "1,1,1,1" "+,+,-,+" result.csv`
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("topsis", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to config file")
	logLevel := fs.String("log-level", "", "log level (debug, info, warn, error)")
	fs.Usage = func() {
		fmt.Fprintln(stderr, usage)
		fmt.Fprintln(stderr, example)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 1
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	cfg.Logging.Format = "text"
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	logger := cfg.Logging.NewLogger(stderr)

	if fs.NArg() != 4 {
		fmt.Fprintln(stderr, "Error: Incorrect number of parameters.")
		fmt.Fprintln(stderr, usage)
		fmt.Fprintln(stderr, example)
		return 1
	}
	input, weights, impacts, output := fs.Arg(0), fs.Arg(1), fs.Arg(2), fs.Arg(3)

	if _, err := os.Stat(input); errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(stderr, "Error: File '%s' not found.\n", input)
		return 1
	}

	table, err := csvio.ReadFile(input)
	if err != nil {
		fmt.Fprintf(stderr, "Error: Could not read file. %v\n", err)
		return 1
	}
	logger.Debug("decision table loaded", "file", input, "alternatives", len(table.Rows), "criteria", table.Criteria())

	scored, err := topsis.Evaluate(table, weights, impacts)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if best := scored.Best(); best >= 0 {
		logger.Debug("evaluation complete", "best", scored.Rows[best][0], "score", scored.Scores[best])
	}

	if err := csvio.WriteFile(output, scored); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Fprintf(stdout, "Success: Output saved to %s\n", output)
	return 0
}
