package statistics

import (
	"github.com/markusressel/fanhold/internal/controller"
	"github.com/prometheus/client_golang/prometheus"
)

const fanSubsystem = "fan"

type FanCollector struct {
	provider SnapshotProvider
	command  *prometheus.Desc
	rpm      *prometheus.Desc
	target   *prometheus.Desc
	ok       *prometheus.Desc
}

func NewFanCollector(provider SnapshotProvider) *FanCollector {
	return &FanCollector{
		provider: provider,
		command: prometheus.NewDesc(prometheus.BuildFQName(namespace, fanSubsystem, "command"),
			"Last command sent to the fan, a pwm value or a percentage",
			[]string{"id", "group"}, nil,
		),
		rpm: prometheus.NewDesc(prometheus.BuildFQName(namespace, fanSubsystem, "rpm"),
			"Current RPM value of the fan",
			[]string{"id", "group"}, nil,
		),
		target: prometheus.NewDesc(prometheus.BuildFQName(namespace, fanSubsystem, "target"),
			"Target of the active profile of the fan group",
			[]string{"id", "group"}, nil,
		),
		ok: prometheus.NewDesc(prometheus.BuildFQName(namespace, fanSubsystem, "ok"),
			"1 if the fan runs at its target",
			[]string{"id", "group", "status"}, nil,
		),
	}
}

func (collector *FanCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- collector.command
	ch <- collector.rpm
	ch <- collector.target
	ch <- collector.ok
}

// Collect implements required collect function for all prometheus collectors
func (collector *FanCollector) Collect(ch chan<- prometheus.Metric) {
	snapshot := collector.provider.Snapshot()
	if snapshot == nil {
		return
	}
	for _, fan := range snapshot.Fans {
		if fan.Command != nil {
			ch <- prometheus.MustNewConstMetric(collector.command, prometheus.GaugeValue, float64(*fan.Command), fan.ID, fan.Group)
		}
		if fan.Rpm != nil {
			ch <- prometheus.MustNewConstMetric(collector.rpm, prometheus.GaugeValue, float64(*fan.Rpm), fan.ID, fan.Group)
		}
		ch <- prometheus.MustNewConstMetric(collector.target, prometheus.GaugeValue, float64(fan.Target), fan.ID, fan.Group)

		ok := 0.0
		if fan.Status == controller.FanStatusOk {
			ok = 1
		}
		ch <- prometheus.MustNewConstMetric(collector.ok, prometheus.GaugeValue, ok, fan.ID, fan.Group, string(fan.Status))
	}
}
