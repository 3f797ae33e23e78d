package collector

import (
	"context"
	"math"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/Rajkumar7633/API-Monitoring-Dashboard/internal/bus"
	"github.com/Rajkumar7633/API-Monitoring-Dashboard/internal/models"
)

const resourceRefreshInterval = 5 * time.Second

// StartResourceLoop refreshes the host resource gauges every 5 seconds until
// the context is cancelled. Snapshot() also refreshes on demand.
func (c *Collector) StartResourceLoop(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(resourceRefreshInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.refreshResources()
			case <-ctx.Done():
				return
			}
		}
	}()
}

// refreshResources samples host CPU and memory. On sampling failure the
// gauges keep their last known values.
func (c *Collector) refreshResources() {
	var (
		cpuPct  float64
		cpuOK   bool
		vm      *mem.VirtualMemoryStat
		cores   int
		coresOK bool
	)

	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		cpuPct = percents[0]
		cpuOK = true
	} else if err != nil {
		c.logger.Debug("cpu sampling failed", "error", err)
	}
	if n, err := cpu.Counts(true); err == nil {
		cores = n
		coresOK = true
	}
	vm, memErr := mem.VirtualMemory()
	if memErr != nil {
		c.logger.Debug("memory sampling failed", "error", memErr)
	}

	c.mu.Lock()
	res := &c.snapshot.ResourceMetrics
	if cpuOK {
		res.CPU.Current = cpuPct
		if cpuPct > res.CPU.Peak {
			res.CPU.Peak = cpuPct
		}
		if res.CPU.Average == 0 {
			res.CPU.Average = cpuPct
		} else {
			res.CPU.Average = res.CPU.Average*0.8 + cpuPct*0.2
		}
	}
	if coresOK {
		res.CPU.Cores = cores
	}
	if memErr == nil && vm != nil {
		res.Memory = models.MemoryMetrics{
			Total:          toGB(vm.Total),
			Used:           toGB(vm.Used),
			Free:           toGB(vm.Available),
			UsedPercentage: vm.UsedPercent,
		}
	}
	resCopy := c.snapshot.ResourceMetrics
	c.mu.Unlock()

	c.bus.Publish(bus.EventResourcesChanged, resCopy)
}

func toGB(b uint64) uint64 {
	return uint64(math.Round(float64(b) / (1 << 30)))
}
