package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

type Stats struct {
	Nodes           int64
	Cutoffs         int64
	Reductions      int64
	CandidateCount  int64
	Start           time.Time
	Elapsed         time.Duration
	DepthDurations  []time.Duration
	CompletedDepths int
}

// finish stamps the total search time.
func (s *Stats) finish() {
	if s.Start.IsZero() {
		s.Elapsed = 0
		for _, d := range s.DepthDurations {
			s.Elapsed += d
		}
		return
	}
	s.Elapsed = time.Since(s.Start)
}

func (s *Stats) NodesPerSecond(elapsed time.Duration) float64 {
	if elapsed <= 0 {
		return 0
	}
	return float64(s.Nodes) / elapsed.Seconds()
}

func (s *Stats) AverageBranching() float64 {
	expanded := s.Nodes
	if expanded == 0 {
		return 0
	}
	return float64(s.CandidateCount) / float64(expanded)
}

func logSearchStats(logger zerolog.Logger, tag string, stats *Stats, maxDepth int) {
	if stats == nil {
		return
	}
	elapsed := stats.Elapsed
	parts := make([]string, 0, len(stats.DepthDurations))
	for _, d := range stats.DepthDurations {
		parts = append(parts, fmt.Sprintf("%dms", d.Milliseconds()))
	}
	logger.Info().
		Str("tag", tag).
		Int64("elapsed_ms", elapsed.Milliseconds()).
		Int("depth", maxDepth).
		Int("completed", stats.CompletedDepths).
		Int64("nodes", stats.Nodes).
		Float64("nps", stats.NodesPerSecond(elapsed)).
		Int64("cutoffs", stats.Cutoffs).
		Int64("reductions", stats.Reductions).
		Float64("avg_branch", stats.AverageBranching()).
		Str("depth_times", "["+strings.Join(parts, ",")+"]").
		Msg("search stats")
}
