package statistics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const groupSubsystem = "group"

type GroupCollector struct {
	provider  SnapshotProvider
	committed *prometheus.Desc
	demanded  *prometheus.Desc
	manual    *prometheus.Desc
}

func NewGroupCollector(provider SnapshotProvider) *GroupCollector {
	return &GroupCollector{
		provider: provider,
		committed: prometheus.NewDesc(prometheus.BuildFQName(namespace, groupSubsystem, "committed_tier"),
			"Tier the fans of the group currently run at",
			[]string{"id"}, nil,
		),
		demanded: prometheus.NewDesc(prometheus.BuildFQName(namespace, groupSubsystem, "demanded_tier"),
			"Tier demanded by the current sensor values",
			[]string{"id"}, nil,
		),
		manual: prometheus.NewDesc(prometheus.BuildFQName(namespace, groupSubsystem, "manual"),
			"1 if a manual override is active",
			[]string{"id"}, nil,
		),
	}
}

func (collector *GroupCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- collector.committed
	ch <- collector.demanded
	ch <- collector.manual
}

// Collect implements required collect function for all prometheus collectors
func (collector *GroupCollector) Collect(ch chan<- prometheus.Metric) {
	snapshot := collector.provider.Snapshot()
	if snapshot == nil {
		return
	}
	for _, group := range snapshot.Groups {
		manual := 0.0
		if group.IsManual {
			manual = 1
		}
		ch <- prometheus.MustNewConstMetric(collector.committed, prometheus.GaugeValue, float64(group.CommittedTier), group.ID)
		ch <- prometheus.MustNewConstMetric(collector.demanded, prometheus.GaugeValue, float64(group.DemandedTier), group.ID)
		ch <- prometheus.MustNewConstMetric(collector.manual, prometheus.GaugeValue, manual, group.ID)
	}
}
