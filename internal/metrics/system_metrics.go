package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

var (
	SystemCPUUsage = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "system_cpu_usage_percent",
			Help: "System CPU usage percentage",
		},
		[]string{"service"},
	)

	SystemMemoryUsage = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "system_memory_usage_percent",
			Help: "System memory usage percentage",
		},
		[]string{"service"},
	)
)

// UpdateSystemMetrics samples host CPU and memory usage
func UpdateSystemMetrics(serviceName string) {
	cpuPercents, err := cpu.Percent(0, false)
	if err != nil {
		log.Debug().Err(err).Msg("Failed to read CPU usage")
	} else if len(cpuPercents) > 0 {
		SystemCPUUsage.WithLabelValues(serviceName).Set(cpuPercents[0])
	}

	vm, err := mem.VirtualMemory()
	if err != nil {
		log.Debug().Err(err).Msg("Failed to read memory usage")
	} else {
		SystemMemoryUsage.WithLabelValues(serviceName).Set(vm.UsedPercent)
	}
}

// StartSystemMetricsCollection starts a goroutine to collect system and
// runtime metrics every 15 seconds
func StartSystemMetricsCollection(serviceName string) {
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()

		for range ticker.C {
			UpdateSystemMetrics(serviceName)
			UpdateRuntimeMetrics(serviceName)
		}
	}()
}
