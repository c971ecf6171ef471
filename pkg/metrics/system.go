package metrics

import (
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

// RegisterSystemGauges adds host CPU, memory, and disk usage to the registry
// next to the service counters. Values are sampled at scrape time. Call once
// at startup.
func RegisterSystemGauges() {
	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "fieldvoice_system_cpu_percent",
		Help: "Host CPU usage percent.",
	}, func() float64 {
		pct, err := cpu.Percent(0, false)
		if err != nil || len(pct) == 0 {
			return 0
		}
		return pct[0]
	})

	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "fieldvoice_system_memory_percent",
		Help: "Host memory usage percent.",
	}, func() float64 {
		vm, err := mem.VirtualMemory()
		if err != nil {
			return 0
		}
		return vm.UsedPercent
	})

	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "fieldvoice_system_disk_percent",
		Help: "Usage percent of the filesystem holding the database.",
	}, func() float64 {
		du, err := disk.Usage(".")
		if err != nil {
			return 0
		}
		return du.UsedPercent
	})

	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "fieldvoice_goroutines",
		Help: "Number of live goroutines.",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})
}
