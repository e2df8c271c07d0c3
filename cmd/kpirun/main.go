/*
main.go - One-shot batch runner

PURPOSE:
  Runs the KPI pipeline once over CSV files and writes the three output
  tables as CSV, mirroring the upload/export loop of the dashboard without a
  server. Useful for cron jobs and spot checks.

USAGE:
  kpirun -tickets tickets.csv -calls calls.csv [-schedule schedule.csv] \
         [-config app_config.yaml] [-mapping category_mapping.json] \
         [-out exports] [-policy split_time] [-tz Asia/Kolkata] \
         [-metrics-addr :9090]

OUTPUTS (in -out, default "exports"):
  daily_summary.csv, category_handle_time.csv, heatmap.csv

SEE ALSO:
  - cmd/server: the same pipeline behind an HTTP endpoint
*/
package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/warp/productivity-engine/config"
	"github.com/warp/productivity-engine/kpi"
	"github.com/warp/productivity-engine/metrics"
	"github.com/warp/productivity-engine/tabular"
)

func main() {
	ticketsPath := flag.String("tickets", "", "Ticket log CSV (required)")
	callsPath := flag.String("calls", "", "Call log CSV (required)")
	schedulePath := flag.String("schedule", "", "Agent schedule CSV (optional)")
	configPath := flag.String("config", "", "App config YAML (optional)")
	mappingPath := flag.String("mapping", "", "Category mapping JSON (optional)")
	outDir := flag.String("out", "exports", "Directory for output CSVs")
	policy := flag.String("policy", "", "Overlap policy override: count_full|split_time")
	tzName := flag.String("tz", "", "Timezone override (IANA name)")
	metricsAddr := flag.String("metrics-addr", "", "Address to expose Prometheus metrics (e.g., :9090)")
	flag.Parse()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	if *ticketsPath == "" || *callsPath == "" {
		fmt.Println("Error: -tickets and -calls are required")
		fmt.Println("\nUsage:")
		flag.PrintDefaults()
		os.Exit(1)
	}

	if *metricsAddr != "" {
		go func() {
			http.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
			log.Info().Str("addr", *metricsAddr).Msg("metrics listener started")
			if err := http.ListenAndServe(*metricsAddr, nil); err != nil {
				log.Error().Err(err).Msg("metrics listener failed")
			}
		}()
	}

	// Config: engine defaults, overlaid by YAML, overlaid by flags.
	var app config.App
	if *configPath != "" {
		app = config.LoadApp(*configPath, log.Logger)
	}
	cfg, err := app.EngineConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid app config")
	}
	if *policy != "" {
		cfg.OverlapPolicy = kpi.OverlapPolicy(*policy)
	}
	if *tzName != "" {
		cfg.Timezone = *tzName
	}

	mapping := kpi.DefaultCategoryMapping()
	if *mappingPath != "" {
		mapping = config.LoadCategoryMapping(*mappingPath, log.Logger)
	}

	engine, err := kpi.NewEngine(cfg, mapping, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	tickets := readTable(*ticketsPath)
	calls := readTable(*callsPath)
	var schedule tabular.Table
	if *schedulePath != "" {
		schedule = readTable(*schedulePath)
	}

	start := time.Now()
	res, err := engine.Compute(tickets, calls, schedule)
	if err != nil {
		log.Fatal().Err(err).Msg("compute failed")
	}
	metrics.ComputeRunsTotal.WithLabelValues("ok").Inc()
	metrics.ComputeDurationSeconds.Observe(time.Since(start).Seconds())
	metrics.EventsProcessed.Observe(float64(len(tickets.Rows) + len(calls.Rows)))
	metrics.ObserveReport(res.Report.DroppedTicketRows, res.Report.DroppedCallRows,
		res.Report.DroppedScheduleRows, res.Report.UnscheduledEvents)

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatal().Err(err).Str("dir", *outDir).Msg("cannot create output directory")
	}
	writeTable(filepath.Join(*outDir, "daily_summary.csv"), res.DailyTable())
	writeTable(filepath.Join(*outDir, "category_handle_time.csv"), res.CategoryTable())
	writeTable(filepath.Join(*outDir, "heatmap.csv"), res.HeatmapTable())

	log.Info().
		Int("daily_rows", len(res.Daily)).
		Int("category_rows", len(res.CategoryHandleTime)).
		Int("heatmap_rows", len(res.Heatmap)).
		Int("dropped_ticket_rows", res.Report.DroppedTicketRows).
		Int("dropped_call_rows", res.Report.DroppedCallRows).
		Int("dropped_schedule_rows", res.Report.DroppedScheduleRows).
		Int("unscheduled_events", res.Report.UnscheduledEvents).
		Str("out", *outDir).
		Msg("run complete")
}

func readTable(path string) tabular.Table {
	f, err := os.Open(path)
	if err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("cannot open input")
	}
	defer f.Close()

	t, err := tabular.ReadCSV(f)
	if err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("cannot parse input")
	}
	return t
}

func writeTable(path string, t tabular.Table) {
	f, err := os.Create(path)
	if err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("cannot create output")
	}
	defer f.Close()

	if err := t.WriteCSV(f); err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("cannot write output")
	}
}
