// Command forecast prints one forecast record as JSON.
//
//	forecast [-period YYYYMMDD] <stock code or ticker>
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/aristath/forecast/internal/config"
	"github.com/aristath/forecast/internal/di"
	"github.com/aristath/forecast/pkg/logger"
)

func main() {
	period := flag.String("period", "", "report period as YYYYMMDD (defaults to today)")
	timeout := flag.Duration("timeout", 60*time.Second, "overall deadline")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [-period YYYYMMDD] <identifier>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	os.Exit(run(flag.Arg(0), *period, *timeout))
}

// run returns the exit code: 0 for a record, 3 for an error record, 1 on setup failure.
func run(identifier, period string, timeout time.Duration) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		return 1
	}

	// Logs go to stderr so stdout carries only the record.
	log := logger.NewWithWriter(logger.Config{Level: cfg.LogLevel, Pretty: true}, os.Stderr)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	container, _, err := di.Wire(ctx, cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("Failed to wire dependencies")
		return 1
	}
	defer container.Close()

	res := container.ForecastService.Forecast(ctx, identifier, period)

	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		log.Error().Err(err).Msg("Failed to encode record")
		return 1
	}
	if res.Failed() {
		return 3
	}
	return 0
}
