package system

import (
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

// Status reports CPU, memory, and uptime in one user-facing line.
func (c *Controller) Status() (bool, string) {
	percents, err := cpu.Percent(200*time.Millisecond, false)
	if err != nil || len(percents) == 0 {
		return false, "I'm afraid I couldn't read the system vitals, sir."
	}

	vm, err := mem.VirtualMemory()
	if err != nil {
		return false, "I'm afraid I couldn't read the memory statistics, sir."
	}

	report := fmt.Sprintf("CPU at %.0f%%, memory at %.0f%% (%.1f of %.1f GB used)",
		percents[0], vm.UsedPercent,
		float64(vm.Used)/(1<<30), float64(vm.Total)/(1<<30))

	if uptime, err := host.Uptime(); err == nil {
		d := time.Duration(uptime) * time.Second
		report += fmt.Sprintf(", up %dh%02dm", int(d.Hours()), int(d.Minutes())%60)
	}

	return true, fmt.Sprintf("All systems nominal, sir. %s.", report)
}
