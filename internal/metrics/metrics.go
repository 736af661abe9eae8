// Package metrics exposes Prometheus instrumentation for evaluation
// runs. Registered once at init and served by the CLI at /metrics when
// an address is configured.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RunsEvaluated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "trader_runs_total",
		Help: "Trader evaluation runs completed",
	})

	StepsSimulated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "trader_steps_simulated_total",
		Help: "Simulation steps processed across all runs",
	})

	TradesSimulated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "trader_trades_simulated_total",
		Help: "Trades closed across all runs",
	})

	Deaths = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "trader_deaths_total",
		Help: "Trader deaths by reason",
	}, []string{"reason"})

	LastFitness = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "trader_last_fitness",
		Help: "Fitness of the most recently evaluated run",
	})
)

func init() {
	prometheus.MustRegister(
		RunsEvaluated,
		StepsSimulated,
		TradesSimulated,
		Deaths,
		LastFitness,
	)
}

// Handler returns the /metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
