package main

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"

	"tile-planner/pathfinding"
)

var tracer = otel.Tracer("tile-planner")

var (
	// searchTotal counts searches by caller and outcome
	searchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "planner_search_total",
		Help: "Total searches by source and result",
	}, []string{"source", "result"})

	// searchDuration tracks search latency
	searchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "planner_search_duration_seconds",
		Help:    "Search duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.00001, 2, 14), // 10µs to ~80ms
	}, []string{"source"})

	// searchExpanded tracks how many nodes each search expanded
	searchExpanded = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "planner_search_expanded_nodes",
		Help:    "Nodes expanded per search",
		Buckets: prometheus.ExponentialBuckets(1, 2, 16),
	}, []string{"source"})

	agentReplans = promauto.NewCounter(prometheus.CounterOpts{
		Name: "planner_agent_replans_total",
		Help: "Agent replans triggered by map changes",
	})

	mapReloads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "planner_map_reloads_total",
		Help: "Map reloads by result",
	}, []string{"result"})

	activeAgents = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "planner_agents",
		Help: "Agents currently in the world",
	})
)

func searchOutcome(r pathfinding.Result) string {
	switch {
	case r.Found:
		return "found"
	case r.Truncated:
		return "truncated"
	default:
		return "unreachable"
	}
}

func observeSearch(source string, r pathfinding.Result, elapsed time.Duration) {
	searchTotal.WithLabelValues(source, searchOutcome(r)).Inc()
	searchDuration.WithLabelValues(source).Observe(elapsed.Seconds())
	searchExpanded.WithLabelValues(source).Observe(float64(r.Expanded()))
}
