package vulkan

import (
	"log/slog"
	"time"

	"github.com/loov/hrtime"
)

// frameStats counts frames and reports them every interval.
type frameStats struct {
	log      *slog.Logger
	interval time.Duration
	now      func() time.Duration

	start       time.Duration
	presented   int
	abandoned   int
	recreations int
}

func newFrameStats(log *slog.Logger, interval time.Duration) *frameStats {
	return &frameStats{log: log, interval: interval, now: hrtime.Now, start: hrtime.Now()}
}

func (s *frameStats) framePresented() { s.presented++; s.report() }
func (s *frameStats) frameAbandoned() { s.abandoned++ }
func (s *frameStats) recreated()      { s.recreations++ }

func (s *frameStats) report() {
	if s.interval <= 0 {
		return
	}
	now := s.now()
	elapsed := now - s.start
	if elapsed < s.interval {
		return
	}

	s.log.Info("frame stats",
		slog.Int("presented", s.presented),
		slog.Int("abandoned", s.abandoned),
		slog.Int("recreations", s.recreations),
		slog.Float64("fps", float64(s.presented)/elapsed.Seconds()))

	s.start = now
	s.presented = 0
	s.abandoned = 0
	s.recreations = 0
}
