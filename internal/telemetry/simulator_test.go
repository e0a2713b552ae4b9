package telemetry

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type recordingHistory struct {
	pushed []Snapshot
}

func (h *recordingHistory) Push(_ context.Context, snapshot Snapshot) error {
	h.pushed = append(h.pushed, snapshot)
	return nil
}

func (h *recordingHistory) Recent(_ context.Context, limit int) ([]Snapshot, error) {
	if limit > 0 && limit < len(h.pushed) {
		return h.pushed[len(h.pushed)-limit:], nil
	}
	return h.pushed, nil
}

type SimulatorSuite struct {
	suite.Suite
	history *recordingHistory
	sim     *Simulator
}

func TestSimulatorSuite(t *testing.T) {
	suite.Run(t, new(SimulatorSuite))
}

func (s *SimulatorSuite) SetupTest() {
	s.history = &recordingHistory{}
	s.sim = NewSimulator("CRANE-01", time.Second, s.history, slog.New(slog.DiscardHandler))
}

func (s *SimulatorSuite) TestCurrentBeforeFirstTick() {
	_, ok := s.sim.Current()
	s.False(ok)
}

func (s *SimulatorSuite) TestTickProducesReadingsInBand() {
	ctx := context.Background()
	s.sim.tick(ctx)

	got, ok := s.sim.Current()
	s.Require().True(ok)
	s.Equal("CRANE-01", got.ComponentID)
	s.False(got.Timestamp.IsZero())
	s.GreaterOrEqual(got.VibrationMMS, 0.5)
	s.LessOrEqual(got.VibrationMMS, 5.0)
	s.GreaterOrEqual(got.TemperatureC, 20.0)
	s.LessOrEqual(got.TemperatureC, 95.0)
	s.GreaterOrEqual(got.OilPressureBar, 4.8)
	s.LessOrEqual(got.OilPressureBar, 5.2)
}

func (s *SimulatorSuite) TestWearDriftsMonotonically() {
	ctx := context.Background()
	s.sim.tick(ctx)
	first, _ := s.sim.Current()

	for range 20 {
		s.sim.tick(ctx)
	}
	last, _ := s.sim.Current()

	s.GreaterOrEqual(last.MainBearingWear, first.MainBearingWear)
	s.GreaterOrEqual(last.HoistMotorWear, first.HoistMotorWear)
	s.LessOrEqual(last.BrakeHealthPct, first.BrakeHealthPct)
	s.GreaterOrEqual(last.MotorHours, first.MotorHours)
}

func (s *SimulatorSuite) TestTickPushesHistory() {
	ctx := context.Background()
	s.sim.tick(ctx)
	s.sim.tick(ctx)
	s.Len(s.history.pushed, 2)
}

func (s *SimulatorSuite) TestRunStopsOnCancel() {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.sim.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		s.ErrorIs(err, context.Canceled)
	case <-time.After(time.Second):
		s.Fail("simulator did not stop")
	}

	// Run emits the first snapshot before waiting on the ticker.
	s.NotEmpty(s.history.pushed)
}
