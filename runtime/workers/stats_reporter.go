package workers

import (
	"context"
	"kaychat/runtime/session"
	"log/slog"
	"os"
	"time"

	"github.com/shirou/gopsutil/process"
)

// StatsSource is the part of a session the reporter reads.
type StatsSource interface {
	Stats() session.Stats
	Done() <-chan struct{}
}

// StatsReporter logs the session counters and the client process health
// at a fixed interval, plus a final line once the session has stopped.
type StatsReporter struct {
	log      *slog.Logger
	source   StatsSource
	interval time.Duration
	pid      int
}

func NewStatsReporter(log *slog.Logger, source StatsSource, interval time.Duration) *StatsReporter {
	return &StatsReporter{log: log, source: source, interval: interval, pid: os.Getpid()}
}

// Run returns nil when the session is done so the supervisor does not
// restart it.
func (w *StatsReporter) Run(ctx context.Context) error {
	startTime := time.Now()
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	p, err := process.NewProcess(int32(w.pid))
	if err != nil {
		// Counters are still worth reporting without process figures.
		w.log.Debug("Error while retrieving process", "pid", w.pid, "err", err)
		p = nil
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-w.source.Done():
			w.report(p, startTime, "Session stats (final)")
			return nil
		case <-ticker.C:
			w.report(p, startTime, "Session stats")
		}
	}
}

func (w *StatsReporter) report(p *process.Process, startTime time.Time, msg string) {
	stats := w.source.Stats()
	attrs := []any{
		"uptime", time.Since(startTime).Round(time.Second).String(),
		"received", stats.Received,
		"applied", stats.Applied,
		"dropped", stats.Dropped,
		"ignored", stats.Ignored,
		"sent", stats.Sent,
		"send_failed", stats.SendFailed,
	}
	if rss, cpu, ok := w.processStats(p); ok {
		attrs = append(attrs, "rss_mb", rss/1024/1024, "cpu_percent", cpu)
	}
	w.log.Info(msg, attrs...)
}

func (w *StatsReporter) processStats(p *process.Process) (uint64, float64, bool) {
	if p == nil {
		return 0, 0, false
	}
	memInfo, err := p.MemoryInfo()
	if err != nil {
		w.log.Debug("Error while finding process memory", "err", err)
		return 0, 0, false
	}
	cpu, err := p.CPUPercent()
	if err != nil {
		w.log.Debug("Error while finding process cpu usage", "err", err)
		return 0, 0, false
	}
	return memInfo.RSS, cpu, true
}
