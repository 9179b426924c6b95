// Command index-fetch downloads Ap and F10.7 index files over anonymous FTP.
//
//	index-fetch -years 2008-2019 -kind all -dest ./indices
//	index-fetch -kind ref
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"atmodensity/internal/config"
	"atmodensity/internal/fetchers"
	"atmodensity/internal/logger"
	"atmodensity/internal/models"
	"atmodensity/internal/observability"
)

func main() {
	years := flag.String("years", "", "comma separated years or an inclusive range such as 2008-2019")
	dest := flag.String("dest", "", "local directory for the index files (default INDEX_DIR)")
	kind := flag.String("kind", "all", "index kind: ap, dsd, dgd, dpd, ref (Ap format and readme files) or all")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	cfg, err := config.Load(ctx)
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}
	logger.Configure(cfg.LogLevel, cfg.LogFormat)
	log := logger.GetGlobalLogger().WithComponent("index-fetch")

	dir := cfg.IndexDir
	if *dest != "" {
		dir = *dest
	}

	specs, err := buildSpecs(*years, *kind, dir)
	if err != nil {
		log.Fatal("Invalid arguments", err)
	}

	metrics := observability.NewMetrics()
	fetcher := fetchers.NewIndexFetcher(fetchers.FTPDialer(cfg.FTPTimeout)).WithMetrics(metrics)

	results, err := fetcher.FetchAll(ctx, specs)
	failed := 0
	for _, res := range results {
		if !res.OK() {
			failed++
		}
	}
	log.Info("Index fetch finished", map[string]interface{}{
		"files":  len(results),
		"failed": failed,
		"dest":   dir,
	})

	if cfg.MetricsTextfile != "" {
		if werr := metrics.WriteTextfile(cfg.MetricsTextfile); werr != nil {
			log.Error("Failed to export metrics", werr)
		}
	}

	stop()
	if err != nil {
		os.Exit(1)
	}
}

// buildSpecs turns the -years and -kind flags into a fetch list; ref needs no years
func buildSpecs(years, kind, dir string) ([]models.RemoteFileSpec, error) {
	var yearList []int
	if !strings.EqualFold(kind, "ref") || strings.TrimSpace(years) != "" {
		var err error
		if yearList, err = parseYears(years); err != nil {
			return nil, fmt.Errorf("invalid -years: %w", err)
		}
	}
	return fetchers.SpecsFor(yearList, kind, dir)
}

// parseYears accepts "2015", "2008,2010,2012" or "2008-2019"
func parseYears(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("no years given")
	}

	if start, end, ok := strings.Cut(s, "-"); ok {
		from, err := strconv.Atoi(strings.TrimSpace(start))
		if err != nil {
			return nil, fmt.Errorf("invalid range start %q: %w", start, err)
		}
		to, err := strconv.Atoi(strings.TrimSpace(end))
		if err != nil {
			return nil, fmt.Errorf("invalid range end %q: %w", end, err)
		}
		if to < from {
			return nil, fmt.Errorf("range %d-%d is empty", from, to)
		}
		return config.YearRange(from, to, 1), nil
	}

	var years []int
	for _, part := range strings.Split(s, ",") {
		y, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("invalid year %q: %w", part, err)
		}
		years = append(years, y)
	}
	return years, nil
}
