package scoring

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/suite"

	dErrors "craneguard/pkg/domain-errors"
)

type HeuristicSuite struct {
	suite.Suite
	h *Heuristic
}

func TestHeuristicSuite(t *testing.T) {
	suite.Run(t, new(HeuristicSuite))
}

func (s *HeuristicSuite) SetupTest() {
	s.h = NewHeuristic()
}

func (s *HeuristicSuite) TestScore() {
	ctx := context.Background()

	s.Run("nominal telemetry scores low", func() {
		score, err := s.h.Score(ctx, json.RawMessage(`{"vibration_mm_s": 1.2, "temperature_c": 45.0}`))
		s.Require().NoError(err)
		s.Equal(1, score.Urgency)
		s.InDelta(0.1, score.Severity, 1e-9)
	})

	s.Run("elevated vibration scores medium", func() {
		score, err := s.h.Score(ctx, json.RawMessage(`{"vibration_mm_s": 4.2}`))
		s.Require().NoError(err)
		s.Equal(5, score.Urgency)
		s.InDelta(0.5, score.Severity, 1e-9)
	})

	s.Run("overheat scores critical", func() {
		score, err := s.h.Score(ctx, json.RawMessage(`{"temperature_c": 95.0}`))
		s.Require().NoError(err)
		s.Equal(9, score.Urgency)
		s.InDelta(0.9, score.Severity, 1e-9)
	})

	s.Run("worn main bearing scores critical", func() {
		score, err := s.h.Score(ctx, json.RawMessage(`{"main_bearing": 0.85}`))
		s.Require().NoError(err)
		s.Equal(9, score.Urgency)
	})

	s.Run("degraded brake health scores medium", func() {
		score, err := s.h.Score(ctx, json.RawMessage(`{"brake_health_pct": 42.0}`))
		s.Require().NoError(err)
		s.Equal(5, score.Urgency)
	})

	s.Run("empty payload fails scoring", func() {
		_, err := s.h.Score(ctx, nil)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeScoringFailed))
	})

	s.Run("malformed payload fails scoring", func() {
		_, err := s.h.Score(ctx, json.RawMessage(`{broken`))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeScoringFailed))
	})

	s.Run("cancelled context fails scoring", func() {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		_, err := s.h.Score(cancelled, json.RawMessage(`{}`))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeScoringFailed))
	})
}

func (s *HeuristicSuite) TestClassify() {
	ctx := context.Background()

	s.Run("maps urgency bands to types", func() {
		kind, err := s.h.Classify(ctx, json.RawMessage(`{"temperature_c": 95.0}`))
		s.Require().NoError(err)
		s.Equal(TypeCritical, kind)

		kind, err = s.h.Classify(ctx, json.RawMessage(`{"vibration_mm_s": 4.2}`))
		s.Require().NoError(err)
		s.Equal(TypeWarning, kind)

		kind, err = s.h.Classify(ctx, json.RawMessage(`{"vibration_mm_s": 0.8}`))
		s.Require().NoError(err)
		s.Equal(TypeInfo, kind)
	})
}

func (s *HeuristicSuite) TestPrescribe() {
	ctx := context.Background()

	s.Run("critical urgency prescribes a stop", func() {
		text, err := s.h.Prescribe(ctx, "CRANE-01", TypeCritical, Score{Severity: 0.9, Urgency: 9})
		s.Require().NoError(err)
		s.Contains(text, "stop CRANE-01")
	})

	s.Run("medium urgency prescribes load reduction", func() {
		text, err := s.h.Prescribe(ctx, "CRANE-01", TypeWarning, Score{Severity: 0.5, Urgency: 5})
		s.Require().NoError(err)
		s.Contains(text, "reduce load on CRANE-01")
	})

	s.Run("low urgency prescribes monitoring", func() {
		text, err := s.h.Prescribe(ctx, "CRANE-01", TypeInfo, Score{Severity: 0.1, Urgency: 1})
		s.Require().NoError(err)
		s.Contains(text, "continue monitoring")
	})
}
