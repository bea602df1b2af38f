package profiler

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"github.com/Carmen-Shannon/oxy-framegraph/common"
)

// Profiler tracks frame rate and memory statistics and logs them at a fixed interval.
type Profiler struct {
	frameCount     int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
	log            *slog.Logger
}

// NewProfiler creates a Profiler that reports every interval. A non-positive interval defaults to one second.
//
// Parameters:
//   - interval: the reporting interval
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(interval time.Duration) *Profiler {
	if interval <= 0 {
		interval = time.Second
	}
	return &Profiler{
		lastTime:       time.Now(),
		updateInterval: interval,
		log:            common.Logger().With(slog.String("component", "profiler")),
	}
}

// Tick should be called once per rendered frame. When the interval has elapsed it logs FPS, heap
// usage, allocation rate, GC pauses and the given extra attributes at info level.
//
// Parameters:
//   - extra: attributes appended to the report, such as frame graph counters
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick(extra ...slog.Attr) bool {
	p.frameCount++
	now := time.Now()
	elapsed := now.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return false
	}

	runtime.ReadMemStats(&p.memStats)
	allocRateMB := float64(p.memStats.TotalAlloc-p.lastTotalAlloc) / 1024 / 1024 / elapsed.Seconds()

	// PauseNs is a circular buffer of the last 256 pauses.
	gcCount := p.memStats.NumGC
	var lastPause, maxPause time.Duration
	if gcCount > 0 {
		lastPause = time.Duration(p.memStats.PauseNs[(gcCount-1)%256])
		start := p.lastGCCount
		if gcCount-start > 256 {
			start = gcCount - 256
		}
		for i := start; i < gcCount; i++ {
			maxPause = max(maxPause, time.Duration(p.memStats.PauseNs[i%256]))
		}
	}

	attrs := []slog.Attr{
		slog.Float64("fps", float64(p.frameCount)/elapsed.Seconds()),
		slog.Float64("heap_mb", float64(p.memStats.Alloc)/1024/1024),
		slog.Float64("alloc_mb_per_s", allocRateMB),
		slog.Uint64("gc", uint64(gcCount)),
		slog.Duration("gc_last_pause", lastPause),
		slog.Duration("gc_max_pause", maxPause),
		slog.Float64("sys_mb", float64(p.memStats.Sys)/1024/1024),
	}
	p.log.LogAttrs(context.Background(), slog.LevelInfo, "frame stats", append(attrs, extra...)...)

	p.frameCount = 0
	p.lastTime = now
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return true
}
