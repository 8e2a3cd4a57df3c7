package statistics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const subsystemSensor = "sensor"

type SensorCollector struct {
	provider  SnapshotProvider
	value     *prometheus.Desc
	available *prometheus.Desc
}

func NewSensorCollector(provider SnapshotProvider) *SensorCollector {
	return &SensorCollector{
		provider: provider,
		value: prometheus.NewDesc(prometheus.BuildFQName(namespace, subsystemSensor, "value"),
			"Current aggregated value of the sensor in degrees",
			[]string{"id"}, nil,
		),
		available: prometheus.NewDesc(prometheus.BuildFQName(namespace, subsystemSensor, "available"),
			"1 if at least one source of the sensor could be read",
			[]string{"id"}, nil,
		),
	}
}

func (collector *SensorCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- collector.value
	ch <- collector.available
}

// Collect implements required collect function for all prometheus collectors
func (collector *SensorCollector) Collect(ch chan<- prometheus.Metric) {
	snapshot := collector.provider.Snapshot()
	if snapshot == nil {
		return
	}
	for _, sensor := range snapshot.Sensors {
		if sensor.Value == nil {
			ch <- prometheus.MustNewConstMetric(collector.available, prometheus.GaugeValue, 0, sensor.ID)
			continue
		}
		ch <- prometheus.MustNewConstMetric(collector.available, prometheus.GaugeValue, 1, sensor.ID)
		ch <- prometheus.MustNewConstMetric(collector.value, prometheus.GaugeValue, *sensor.Value, sensor.ID)
	}
}
