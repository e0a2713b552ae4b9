package telemetry

import (
	"context"
	"log/slog"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"craneguard/pkg/requestcontext"
)

// History retains a bounded window of recent snapshots. Recent returns up to
// limit entries in chronological order, oldest first.
type History interface {
	Push(ctx context.Context, snapshot Snapshot) error
	Recent(ctx context.Context, limit int) ([]Snapshot, error)
}

const defaultInterval = 2 * time.Second

// Simulator drives a synthetic sensor feed for one crane. Most channels
// fluctuate within their nominal band; brake health and component wear drift
// monotonically so long-running demos eventually cross alerting thresholds.
type Simulator struct {
	componentID string
	interval    time.Duration
	history     History
	logger      *slog.Logger

	mu      sync.RWMutex
	current Snapshot
	started bool
}

func NewSimulator(componentID string, interval time.Duration, history History, logger *slog.Logger) *Simulator {
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Simulator{
		componentID: componentID,
		interval:    interval,
		history:     history,
		logger:      logger,
		current: Snapshot{
			ComponentID:          componentID,
			LoadCycles:           10000,
			BrakeHealthPct:       98.5,
			MotorHours:           1240.5,
			OilPressureBar:       5.0,
			GearboxOilTempC:      45.0,
			HydraulicPressureBar: 120.0,
			VoltageImbalancePct:  0.5,
			MainBearingWear:      0.05,
			HoistMotorWear:       0.12,
			CableTensionWear:     0.02,
		},
	}
}

// Run ticks until the context is cancelled. The first snapshot is produced
// immediately so Current never returns a zero reading after Run starts.
func (s *Simulator) Run(ctx context.Context) error {
	s.tick(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// Current returns the latest snapshot and whether one has been produced yet.
func (s *Simulator) Current() (Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, s.started
}

func (s *Simulator) tick(ctx context.Context) {
	s.mu.Lock()
	next := s.current
	next.Timestamp = requestcontext.Now(ctx)
	next.VibrationMMS = round2(uniform(0.5, 5.0))
	next.TemperatureC = round1(uniform(20.0, 95.0))
	next.MotorCurrentA = round1(uniform(10.0, 60.0))
	if rand.Float64() > 0.8 {
		next.LoadCycles++
	}
	next.BrakeHealthPct = round2(math.Max(0, next.BrakeHealthPct-rand.Float64()*0.01))
	next.MotorHours = round2(next.MotorHours + 0.01)
	next.OilPressureBar = round2(uniform(4.8, 5.2))
	next.GearboxOilTempC = round1(uniform(40.0, 60.0))
	next.HydraulicPressureBar = round1(uniform(115.0, 125.0))
	next.VoltageImbalancePct = round2(uniform(0.0, 1.5))
	next.MainBearingWear = math.Min(1.0, next.MainBearingWear+0.0001*rand.Float64())
	next.HoistMotorWear = math.Min(1.0, next.HoistMotorWear+0.00005*rand.Float64())
	s.current = next
	s.started = true
	s.mu.Unlock()

	if s.history != nil {
		if err := s.history.Push(ctx, next); err != nil {
			s.logger.WarnContext(ctx, "telemetry history push failed", "error", err)
		}
	}
}

func uniform(low, high float64) float64 {
	return low + rand.Float64()*(high-low)
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }

func round2(v float64) float64 { return math.Round(v*100) / 100 }
