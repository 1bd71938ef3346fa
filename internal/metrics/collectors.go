package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"helios/internal/domain/learning"
)

// LearningStateReader exposes the read-only learning state the collector
// scrapes
type LearningStateReader interface {
	FeatureWeights() map[string]learning.FeatureWeight
	BoldnessMetrics() learning.BoldnessMetrics
}

// LearningCollector exposes the adaptive learning state as gauges on each
// scrape, without the workers having to push updates
type LearningCollector struct {
	reader LearningStateReader

	featureWeight    *prometheus.Desc
	featureUsage     *prometheus.Desc
	boldness         *prometheus.Desc
	recentAccuracy   *prometheus.Desc
	convergenceState *prometheus.Desc
}

// NewLearningCollector creates a new learning state collector
func NewLearningCollector(reader LearningStateReader) *LearningCollector {
	return &LearningCollector{
		reader: reader,

		featureWeight: prometheus.NewDesc(
			"helios_learning_feature_weight",
			"Current adaptive weight per indicator feature",
			[]string{"feature"}, nil,
		),
		featureUsage: prometheus.NewDesc(
			"helios_learning_feature_usage_total",
			"Number of closed trades that updated each feature",
			[]string{"feature"}, nil,
		),
		boldness: prometheus.NewDesc(
			"helios_learning_boldness_multiplier",
			"Global boldness multiplier",
			nil, nil,
		),
		recentAccuracy: prometheus.NewDesc(
			"helios_learning_recent_accuracy_percent",
			"Mean forecast accuracy over the recent window",
			nil, nil,
		),
		convergenceState: prometheus.NewDesc(
			"helios_learning_convergence_state",
			"Convergence state (0=learning, 1=converging, 2=converged)",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector
func (c *LearningCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.featureWeight
	ch <- c.featureUsage
	ch <- c.boldness
	ch <- c.recentAccuracy
	ch <- c.convergenceState
}

// Collect implements prometheus.Collector
func (c *LearningCollector) Collect(ch chan<- prometheus.Metric) {
	for name, fw := range c.reader.FeatureWeights() {
		ch <- prometheus.MustNewConstMetric(c.featureWeight, prometheus.GaugeValue, fw.Weight, name)
		ch <- prometheus.MustNewConstMetric(c.featureUsage, prometheus.CounterValue, float64(fw.UsageCount), name)
	}

	b := c.reader.BoldnessMetrics()
	ch <- prometheus.MustNewConstMetric(c.boldness, prometheus.GaugeValue, b.GlobalBoldnessMultiplier)
	ch <- prometheus.MustNewConstMetric(c.recentAccuracy, prometheus.GaugeValue, b.RecentAccuracyPercentage)
	ch <- prometheus.MustNewConstMetric(c.convergenceState, prometheus.GaugeValue, convergenceValue(b.ConvergenceState))
}

func convergenceValue(s learning.ConvergenceState) float64 {
	switch s {
	case learning.StateConverging:
		return 1
	case learning.StateConverged:
		return 2
	default:
		return 0
	}
}
