package cmd

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/splashsched/scheduler/internal/common"
	"github.com/splashsched/scheduler/internal/common/config"
	"github.com/splashsched/scheduler/internal/engine"
	"github.com/splashsched/scheduler/internal/graph"
	"github.com/splashsched/scheduler/internal/metrics"
	"github.com/splashsched/scheduler/internal/splash"
)

// runConfiguration is the YAML-facing configuration for the run command,
// embedding the scheduler's own Configuration alongside CLI-only fields.
type runConfiguration struct {
	Scheduler splash.Configuration `mapstructure:"scheduler"`
	// EdgeListPath, if set, is a CSV file of "from,to" pairs. If empty, a
	// small built-in ring graph is used instead.
	EdgeListPath string `mapstructure:"edgeListPath"`
	// NumVertices sizes the built-in ring graph when EdgeListPath is empty.
	NumVertices int `mapstructure:"numVertices" validate:"gt=0"`
	// MetricsPort serves the Prometheus /metrics endpoint. Zero disables it.
	MetricsPort int `mapstructure:"metricsPort"`
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Load a graph, run it under the splash scheduler, and report progress",
	Run:   runRun,
}

func runRun(_ *cobra.Command, _ []string) {
	common.ConfigureLogging(plainLogging)

	var cfg runConfiguration
	cfg.NumVertices = 100
	cfg.Scheduler.SplashSize = 100
	cfg.Scheduler.Workers = 4
	cfg.MetricsPort = 9090
	common.LoadConfig(&cfg, configDir, userConfigs)

	if err := config.Validate(cfg); err != nil {
		config.LogValidationErrors(err)
		os.Exit(1)
	}

	g, err := loadGraph(cfg)
	if err != nil {
		log.WithError(err).Fatal("failed to load graph")
	}

	monitor := &metrics.SourceMonitor{}
	opts := append(cfg.Scheduler.Options(), splash.WithMonitor(monitor))
	sched := splash.NewScheduler(g, cfg.Scheduler.Workers, opts...)

	var updates int64
	demo := func(vertex int, cb splash.Callback) error {
		atomic.AddInt64(&updates, 1)
		return nil
	}
	sched.AddTaskToAll(demo, 1.0)

	eng := engine.New(g, sched, cfg.Scheduler.Workers)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	collector := metrics.NewCollector(sched.NumShards(), sched.NumWorkers(), monitor, sched.ShardDepth, sched.CurrentSplashLen)
	collector.SetRefreshInterval(cfg.Scheduler.MetricsRefreshPeriod)
	prometheus.MustRegister(collector)
	stopMetrics := make(chan struct{})
	go collector.Run(stopMetrics)
	defer close(stopMetrics)

	if cfg.MetricsPort != 0 {
		shutdownMetricsServer := serveMetrics(cfg.MetricsPort)
		defer shutdownMetricsServer()
	}

	start := time.Now()
	if err := eng.Run(ctx); err != nil {
		log.WithError(err).Fatal("engine run failed")
	}
	log.WithFields(log.Fields{
		"vertices": g.NumVertices(),
		"updates":  atomic.LoadInt64(&updates),
		"elapsed":  time.Since(start),
	}).Info("run complete")
}

// serveMetrics starts a background HTTP server exposing the registered
// Prometheus collectors on /metrics, grounded on the reference codebase's
// habit (schedulerapp.go) of serving metrics alongside the scheduler's own
// run loop rather than folding it into the main service. It returns a
// shutdown function.
func serveMetrics(port int) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("metrics server failed")
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.WithError(err).Warn("error shutting down metrics server")
		}
	}
}

// loadGraph builds a graph.Graph either from cfg.EdgeListPath (a CSV of
// "from,to" vertex-id pairs) or, if unset, a small built-in ring so `run`
// works with no arguments.
func loadGraph(cfg runConfiguration) (graph.Graph, error) {
	if cfg.EdgeListPath == "" {
		return ringGraph(cfg.NumVertices), nil
	}

	f, err := os.Open(cfg.EdgeListPath)
	if err != nil {
		return nil, fmt.Errorf("opening edge list: %w", err)
	}
	defer f.Close()

	edges, n, err := readEdgeList(f)
	if err != nil {
		return nil, fmt.Errorf("parsing edge list: %w", err)
	}
	return graph.NewAdjacency(n, edges), nil
}

func readEdgeList(r io.Reader) ([]graph.Edge, int, error) {
	reader := csv.NewReader(bufio.NewReader(r))
	reader.FieldsPerRecord = 2

	var edges []graph.Edge
	maxVertex := -1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, err
		}
		from, err := strconv.Atoi(record[0])
		if err != nil {
			return nil, 0, fmt.Errorf("invalid source vertex %q: %w", record[0], err)
		}
		to, err := strconv.Atoi(record[1])
		if err != nil {
			return nil, 0, fmt.Errorf("invalid target vertex %q: %w", record[1], err)
		}
		edges = append(edges, graph.Edge{From: from, To: to})
		if from > maxVertex {
			maxVertex = from
		}
		if to > maxVertex {
			maxVertex = to
		}
	}
	return edges, maxVertex + 1, nil
}

func ringGraph(n int) *graph.Adjacency {
	if n <= 0 {
		n = 1
	}
	edges := make([]graph.Edge, n)
	for v := 0; v < n; v++ {
		edges[v] = graph.Edge{From: v, To: (v + 1) % n}
	}
	return graph.NewAdjacency(n, edges)
}
