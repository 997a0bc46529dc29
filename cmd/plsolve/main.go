// Command plsolve is the CLI entrypoint: it loads a dumped InputQuery,
// runs either a lone Engine or the full DnC/portfolio orchestrator over
// it, and writes the single-line result summary (spec.md §6). Network
// and property-file parsing are out of scope (spec.md §1); only
// INPUT_QUERY_FILE_PATH-style dumped queries are accepted.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"plsolve"
	"plsolve/internal/config"
	"plsolve/internal/dnc"
	"plsolve/internal/lporacle"
	"plsolve/internal/summary"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("plsolve", flag.ContinueOnError)
	portfolio := fs.Bool("portfolio", false, "run the DnC/portfolio orchestrator instead of a single Engine")
	cfg, err := config.FromFlags(fs, args)
	if err != nil {
		if err == flag.ErrHelp {
			return 2
		}
		log.Printf("plsolve: %v", err)
		return 1
	}

	if cfg.InputQueryFilePath == "" {
		log.Printf("plsolve: -input-query-file is required")
		return 1
	}

	if cfg.SummaryFile != "" && summary.Exists(cfg.SummaryFile) {
		log.Printf("plsolve: summary file %s already exists, nothing to do", cfg.SummaryFile)
		return 0
	}

	query, err := loadQuery(cfg.InputQueryFilePath)
	if err != nil {
		log.Printf("plsolve: %v", err)
		return writeError(cfg, err)
	}

	if cfg.QueryDumpFile != "" {
		if err := dumpQuery(cfg.QueryDumpFile, query); err != nil {
			log.Printf("plsolve: %v", err)
			return 1
		}
		return 0
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	var result plsolve.Result
	var assignment plsolve.Assignment
	var snapshot plsolve.StatsSnapshot
	started := time.Now()

	if *portfolio {
		p := dnc.NewPortfolio(cfg)
		wr := p.Run(ctx, query)
		result = wr.Result
		assignment = wr.Assignment
		if wr.Stats != nil {
			snapshot = wr.Stats.Snapshot()
		}
		if wr.Err != nil {
			log.Printf("plsolve: portfolio worker %s: %v", wr.Worker, wr.Err)
		}
	} else {
		stats := plsolve.NewStatistics()
		oracle := lporacle.NewGonumOracle()
		engine := plsolve.NewEngine(query, oracle, cfg, stats)
		var solveErr error
		result, assignment, solveErr = engine.Solve(ctx)
		snapshot = stats.Snapshot()
		if solveErr != nil {
			log.Printf("plsolve: %v", solveErr)
			result = plsolve.ResultError
		}
	}

	elapsed := time.Since(started).Seconds()

	if cfg.SummaryFile != "" {
		w := summary.NewWriter(cfg.SummaryFile)
		report := summary.Report{
			Result:     result,
			Elapsed:    elapsed,
			Assignment: assignment,
			Stats:      snapshot,
			Portfolio:  *portfolio,
		}
		if err := w.Write(report); err != nil {
			log.Printf("plsolve: %v", err)
			return 1
		}
	}

	fmt.Printf("%s (%.3fs)\n", result, elapsed)

	switch result {
	case plsolve.ResultSAT, plsolve.ResultUNSAT:
		return 0
	default:
		return 1
	}
}

func loadQuery(path string) (*plsolve.InputQuery, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return plsolve.LoadInputQuery(f)
}

func dumpQuery(path string, q *plsolve.InputQuery) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return plsolve.DumpInputQuery(f, q)
}

// writeError records an ERROR outcome in the summary file (if
// configured) before returning a non-zero exit code, so a malformed or
// missing query still leaves a conclusive summary behind (spec.md §7
// "Input error... fatal, reported as ERROR").
func writeError(cfg config.Configuration, cause error) int {
	if cfg.SummaryFile != "" {
		w := summary.NewWriter(cfg.SummaryFile)
		_ = w.Write(summary.Report{Result: plsolve.ResultError})
	}
	return 1
}
