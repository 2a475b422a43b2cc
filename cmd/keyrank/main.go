// Command keyrank counts key frequencies in a delimited text corpus and
// writes a ranked report.
//
// Each input line contributes one key: the substring after the last
// delimiter (default ','). The corpus is split into contiguous line ranges,
// one per worker, counted concurrently into a shared table, and the final
// report lists every key by descending count.
//
// Usage:
//
//	keyrank [-config file.yaml] [-out report.txt] [-delimiter ,] <corpus> <workers>
//
// Exits 2 on a configuration error (bad arity, non-positive worker count),
// 1 on a resource error (unreadable corpus, unwritable report). No report
// file is written on failure.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/erodriguezln/keyrank/internal/corpus"
	"github.com/erodriguezln/keyrank/internal/report"
	"github.com/erodriguezln/keyrank/internal/runner"
	"github.com/erodriguezln/keyrank/pkg/config"
	apperrors "github.com/erodriguezln/keyrank/pkg/errors"
	"github.com/erodriguezln/keyrank/pkg/logger"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "path to config file")
	outPath := flag.String("out", "report.txt", "path of the ranked report file")
	delimiter := flag.String("delimiter", "", "key delimiter byte (overrides config)")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() != 2 {
		fmt.Fprintf(os.Stderr, "keyrank: expected 2 arguments, got %d\n", flag.NArg())
		usage()
		return 2
	}
	corpusPath := flag.Arg(0)
	workers, err := strconv.Atoi(flag.Arg(1))
	if err != nil || workers <= 0 {
		fmt.Fprintf(os.Stderr, "keyrank: worker count must be a positive integer, got %q\n", flag.Arg(1))
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "keyrank: failed to load config: %v\n", err)
		return 2
	}
	if *delimiter != "" {
		if len(*delimiter) != 1 {
			fmt.Fprintf(os.Stderr, "keyrank: delimiter must be a single byte, got %q\n", *delimiter)
			return 2
		}
		cfg.Corpus.Delimiter = *delimiter
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	reader := corpus.NewReader(cfg.Corpus.Delimiter[0], corpus.WithMaxLineBytes(cfg.Corpus.MaxLineBytes))
	eng := runner.New(reader)

	result, err := eng.Run(context.Background(), corpusPath, workers)
	if err != nil {
		slog.Error("tally failed", "corpus", corpusPath, "error", err)
		return apperrors.ExitCode(err)
	}

	if err := report.WriteFile(*outPath, result.Entries); err != nil {
		slog.Error("writing report failed", "path", *outPath, "error", err)
		return apperrors.ExitCode(err)
	}

	slog.Info("report written",
		"path", *outPath,
		"corpus", corpusPath,
		"total_lines", result.TotalLines,
		"distinct_keys", result.DistinctKeys,
		"workers", result.Workers,
		"duration", result.Duration,
	)
	return 0
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: keyrank [flags] <corpus> <workers>")
	flag.PrintDefaults()
}
