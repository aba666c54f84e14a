package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/san-kum/cellgrav/internal/grid"
	"github.com/san-kum/cellgrav/internal/sim"
)

// Collector exports tick results as Prometheus metrics. It is a
// sim.Observer; pass prometheus.DefaultRegisterer to expose it on the
// default /metrics handler.
type Collector struct {
	Ticks       prometheus.Counter
	SimTime     prometheus.Gauge
	TimeStep    prometheus.Gauge
	TotalMass   prometheus.Gauge
	MaxMass     prometheus.Gauge
	MaxVelocity prometheus.Gauge
	MaxAccel    prometheus.Gauge
	DtHistogram prometheus.Histogram
}

func NewCollector(reg prometheus.Registerer) *Collector {
	f := promauto.With(reg)
	return &Collector{
		Ticks: f.NewCounter(prometheus.CounterOpts{
			Name: "cellgrav_ticks_total",
			Help: "Total number of completed simulation ticks",
		}),
		SimTime: f.NewGauge(prometheus.GaugeOpts{
			Name: "cellgrav_sim_time",
			Help: "Simulated time elapsed",
		}),
		TimeStep: f.NewGauge(prometheus.GaugeOpts{
			Name: "cellgrav_time_step",
			Help: "Time step of the last tick",
		}),
		TotalMass: f.NewGauge(prometheus.GaugeOpts{
			Name: "cellgrav_total_mass",
			Help: "Total mass on the grid after the last tick",
		}),
		MaxMass: f.NewGauge(prometheus.GaugeOpts{
			Name: "cellgrav_max_cell_mass",
			Help: "Largest single cell mass",
		}),
		MaxVelocity: f.NewGauge(prometheus.GaugeOpts{
			Name: "cellgrav_max_velocity",
			Help: "Largest cell speed",
		}),
		MaxAccel: f.NewGauge(prometheus.GaugeOpts{
			Name: "cellgrav_max_acceleration",
			Help: "Largest cell acceleration",
		}),
		DtHistogram: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "cellgrav_time_step_distribution",
			Help:    "Distribution of adaptive time steps",
			Buckets: prometheus.ExponentialBuckets(1e-4, 4, 8),
		}),
	}
}

func (c *Collector) OnTick(r sim.TickResult, g *grid.Grid) {
	c.Ticks.Inc()
	c.SimTime.Set(r.Time)
	c.TimeStep.Set(r.Dt)
	c.TotalMass.Set(r.Mass)
	c.MaxMass.Set(r.Stats.MaxMass)
	c.MaxVelocity.Set(r.Stats.MaxVelocity)
	c.MaxAccel.Set(r.Stats.MaxAccel)
	c.DtHistogram.Observe(r.Dt)
}
