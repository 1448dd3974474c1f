package api

import (
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	hostname, _ := os.Hostname()
	stats := s.assistant.Stats()

	status := StatusResponse{
		Hostname:         hostname,
		OS:               runtime.GOOS,
		Arch:             runtime.GOARCH,
		Uptime:           time.Since(s.started).Round(time.Second).String(),
		Sessions:         stats.Sessions,
		PendingApprovals: stats.PendingApprovals,
	}

	// interval 0 compares against the previous call instead of blocking
	if cpuPercent, err := cpu.Percent(0, false); err == nil && len(cpuPercent) > 0 {
		status.CPUUsage = cpuPercent[0]
	}
	if memInfo, err := mem.VirtualMemory(); err == nil {
		status.MemTotal = memInfo.Total
		status.MemUsed = memInfo.Used
		status.MemUsage = memInfo.UsedPercent
	}

	if s.budget != nil {
		used, limit := s.budget.Usage()
		today := s.budget.Today()
		status.Budget = &BudgetStatus{
			Used:      used,
			Limit:     limit,
			Requests:  today.TotalRequests,
			CostUSD:   today.TotalCostUSD,
			Exhausted: s.budget.Exhausted(),
		}
	}

	writeJSON(w, http.StatusOK, status)
}
