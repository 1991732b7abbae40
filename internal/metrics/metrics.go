// Package metrics provides Prometheus metrics for the roster service.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

// RosterMetrics collects and exposes roster-service Prometheus metrics.
type RosterMetrics struct {
	registry *prometheus.Registry

	// Line generation metrics
	LineGenerationsTotal *prometheus.CounterVec
	GenerationDuration   *prometheus.HistogramVec
	TeamRating           *prometheus.GaugeVec
	TeamChemistry        *prometheus.GaugeVec

	// Simulation metrics
	SimulationsTotal *prometheus.CounterVec
	SimulatedMinutes *prometheus.CounterVec
	ChemistryPairs   *prometheus.GaugeVec
	CorrectionsTotal *prometheus.CounterVec

	// Trade metrics
	TradeEvaluationsTotal *prometheus.CounterVec
	TradeDifference       *prometheus.HistogramVec

	// Storage metrics
	PresetSavesTotal *prometheus.CounterVec
	PairSyncsTotal   *prometheus.CounterVec

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	ActiveEngines   *prometheus.GaugeVec
}

// NewRosterMetrics creates a new roster metrics collector.
func NewRosterMetrics() *RosterMetrics {
	registry := prometheus.NewRegistry()

	rm := &RosterMetrics{
		registry: registry,

		// Line generation metrics
		LineGenerationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "benchboss_line_generations_total",
				Help: "Total number of line generations",
			},
			[]string{"team", "status"},
		),
		GenerationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "benchboss_generation_duration_seconds",
				Help:    "Line generation duration",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
			},
			[]string{"team"},
		),
		TeamRating: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "benchboss_team_rating",
				Help: "Latest overall team rating (0-99)",
			},
			[]string{"team"},
		),
		TeamChemistry: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "benchboss_team_chemistry",
				Help: "Latest aggregate team chemistry (-5 to 5)",
			},
			[]string{"team"},
		),

		// Simulation metrics
		SimulationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "benchboss_simulations_total",
				Help: "Total number of game simulations",
			},
			[]string{"team"},
		),
		SimulatedMinutes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "benchboss_simulated_minutes_total",
				Help: "Total simulated game minutes",
			},
			[]string{"team"},
		),
		ChemistryPairs: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "benchboss_chemistry_pairs",
				Help: "Number of tracked skater pairs in the chemistry ledger",
			},
			[]string{"team"},
		),
		CorrectionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "benchboss_line_corrections_total",
				Help: "Total number of negative-chemistry line corrections applied",
			},
			[]string{"team"},
		),

		// Trade metrics
		TradeEvaluationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "benchboss_trade_evaluations_total",
				Help: "Total number of trade evaluations",
			},
			[]string{"context", "status"},
		),
		TradeDifference: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "benchboss_trade_difference",
				Help:    "Normalized value gap between trade sides (0-100)",
				Buckets: []float64{0, 2, 5, 10, 15, 20, 30, 50, 75, 100},
			},
			[]string{"context"},
		),

		// Storage metrics
		PresetSavesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "benchboss_preset_saves_total",
				Help: "Total number of line presets saved",
			},
			[]string{"team", "status"},
		),
		PairSyncsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "benchboss_pair_syncs_total",
				Help: "Total number of shift-data pair syncs",
			},
			[]string{"team", "status"},
		),

		// HTTP metrics
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "benchboss_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "benchboss_http_request_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~8s
			},
			[]string{"method", "path"},
		),
		ActiveEngines: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "benchboss_active_engines",
				Help: "Number of formation engines held in memory",
			},
			[]string{},
		),
	}

	rm.registerAll()

	return rm
}

func (rm *RosterMetrics) registerAll() {
	rm.registry.MustRegister(
		rm.LineGenerationsTotal,
		rm.GenerationDuration,
		rm.TeamRating,
		rm.TeamChemistry,
		rm.SimulationsTotal,
		rm.SimulatedMinutes,
		rm.ChemistryPairs,
		rm.CorrectionsTotal,
		rm.TradeEvaluationsTotal,
		rm.TradeDifference,
		rm.PresetSavesTotal,
		rm.PairSyncsTotal,
		rm.RequestsTotal,
		rm.RequestDuration,
		rm.ActiveEngines,
	)
}

// Registry returns the prometheus registry.
func (rm *RosterMetrics) Registry() *prometheus.Registry {
	return rm.registry
}

// --- Helper methods for recording metrics ---

// RecordGeneration records a line generation run.
func (rm *RosterMetrics) RecordGeneration(team, status string, durationSec, rating, chemistry float64) {
	rm.LineGenerationsTotal.WithLabelValues(team, status).Inc()
	if durationSec > 0 {
		rm.GenerationDuration.WithLabelValues(team).Observe(durationSec)
	}
	if status == "ok" {
		rm.TeamRating.WithLabelValues(team).Set(rating)
		rm.TeamChemistry.WithLabelValues(team).Set(chemistry)
	}
}

// RecordSimulation records a simulated game.
func (rm *RosterMetrics) RecordSimulation(team string, minutes float64, trackedPairs int) {
	rm.SimulationsTotal.WithLabelValues(team).Inc()
	rm.SimulatedMinutes.WithLabelValues(team).Add(minutes)
	rm.ChemistryPairs.WithLabelValues(team).Set(float64(trackedPairs))
}

// RecordCorrection records a negative-chemistry line correction.
func (rm *RosterMetrics) RecordCorrection(team string) {
	rm.CorrectionsTotal.WithLabelValues(team).Inc()
}

// RecordTradeEvaluation records a trade evaluation.
func (rm *RosterMetrics) RecordTradeEvaluation(context, status string, difference float64) {
	rm.TradeEvaluationsTotal.WithLabelValues(context, status).Inc()
	if status == "ok" {
		rm.TradeDifference.WithLabelValues(context).Observe(difference)
	}
}

// RecordPresetSave records a line preset save.
func (rm *RosterMetrics) RecordPresetSave(team, status string) {
	rm.PresetSavesTotal.WithLabelValues(team, status).Inc()
}

// RecordPairSync records a shift-data sync.
func (rm *RosterMetrics) RecordPairSync(team, status string) {
	rm.PairSyncsTotal.WithLabelValues(team, status).Inc()
}

// RecordRequest records an HTTP request.
func (rm *RosterMetrics) RecordRequest(method, path, status string, durationSec float64) {
	rm.RequestsTotal.WithLabelValues(method, path, status).Inc()
	rm.RequestDuration.WithLabelValues(method, path).Observe(durationSec)
}

// UpdateActiveEngines updates the in-memory engine count.
func (rm *RosterMetrics) UpdateActiveEngines(count int) {
	rm.ActiveEngines.WithLabelValues().Set(float64(count))
}

// DecimalToFloat64 safely converts decimal.Decimal to float64 for metrics.
func DecimalToFloat64(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

// Global instance for convenience
var defaultMetrics *RosterMetrics
var once sync.Once

// Default returns the default global metrics instance.
func Default() *RosterMetrics {
	once.Do(func() {
		defaultMetrics = NewRosterMetrics()
	})
	return defaultMetrics
}
