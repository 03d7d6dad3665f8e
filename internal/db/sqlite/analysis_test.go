package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/dhruvjain2905/Attune/pkg/models"
)

// AnalysisStoreSuite covers analyses and the interval folding they drive.
type AnalysisStoreSuite struct {
	suite.Suite
	store     *Store
	sessions  *SessionStore
	analyses  *AnalysisStore
	intervals *IntervalStore
	ctx       context.Context
	base      time.Time
}

func (s *AnalysisStoreSuite) SetupTest() {
	s.store = testStore(s.T())
	s.sessions = NewSessionStore(s.store)
	s.analyses = NewAnalysisStore(s.store)
	s.intervals = NewIntervalStore(s.store)
	s.ctx = context.Background()
	s.base = time.Now().Truncate(time.Second)

	_, err := s.sessions.CreateSession(s.ctx, "sess-1", "study")
	s.Require().NoError(err)
}

func TestAnalysisStoreSuite(t *testing.T) {
	suite.Run(t, new(AnalysisStoreSuite))
}

func (s *AnalysisStoreSuite) append(offset time.Duration, focused bool) *models.Analysis {
	a := models.NewAnalysis("sess-1", s.base.Add(offset), focused, "explanation", "description")
	_, err := s.analyses.AppendAnalysis(s.ctx, a)
	s.Require().NoError(err)
	return a
}

func (s *AnalysisStoreSuite) TestAppendAnalysis() {
	a := s.append(0, true)

	s.NotZero(a.ID)

	got, err := s.analyses.GetAnalyses(s.ctx, "sess-1")
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.True(got[0].Focused)
	s.Equal("explanation", got[0].Explanation)
	s.Equal("description", got[0].Description.String)
}

func (s *AnalysisStoreSuite) TestFirstAnalysisOpensInterval() {
	s.append(0, true)

	intervals, err := s.intervals.GetIntervals(s.ctx, "sess-1")
	s.Require().NoError(err)
	s.Require().Len(intervals, 1)
	s.True(intervals[0].Focused)
	s.True(intervals[0].Open())
}

func (s *AnalysisStoreSuite) TestSameVerdictExtendsOpenInterval() {
	s.append(0, true)
	s.append(30*time.Second, true)
	s.append(60*time.Second, true)

	intervals, err := s.intervals.GetIntervals(s.ctx, "sess-1")
	s.Require().NoError(err)
	s.Len(intervals, 1)
}

func (s *AnalysisStoreSuite) TestVerdictFlipClosesAndOpens() {
	s.append(0, true)
	s.append(15*time.Second, true)
	s.append(30*time.Second, false)
	s.append(45*time.Second, false)
	s.append(60*time.Second, true)

	intervals, err := s.intervals.GetIntervals(s.ctx, "sess-1")
	s.Require().NoError(err)
	s.Require().Len(intervals, 3)

	s.True(intervals[0].Focused)
	s.False(intervals[0].Open())
	s.Equal(s.base.Add(30*time.Second).UnixMilli(), intervals[0].TimeEndedEpoch.Int64)

	s.False(intervals[1].Focused)
	s.False(intervals[1].Open())
	s.Equal(s.base.Add(30*time.Second).UnixMilli(), intervals[1].TimeStartedEpoch)
	s.Equal(s.base.Add(60*time.Second).UnixMilli(), intervals[1].TimeEndedEpoch.Int64)

	s.True(intervals[2].Focused)
	s.True(intervals[2].Open())
	s.Equal(s.base.Add(60*time.Second).UnixMilli(), intervals[2].TimeStartedEpoch)
}

func (s *AnalysisStoreSuite) TestCloseOpenInterval() {
	s.append(0, true)

	end := s.base.Add(90 * time.Second)
	s.Require().NoError(s.intervals.CloseOpenInterval(s.ctx, "sess-1", end))

	intervals, err := s.intervals.GetIntervals(s.ctx, "sess-1")
	s.Require().NoError(err)
	s.Require().Len(intervals, 1)
	s.False(intervals[0].Open())
	s.Equal(end.UnixMilli(), intervals[0].TimeEndedEpoch.Int64)

	// Closing again is a no-op.
	s.NoError(s.intervals.CloseOpenInterval(s.ctx, "sess-1", end.Add(time.Minute)))
	intervals, _ = s.intervals.GetIntervals(s.ctx, "sess-1")
	s.Equal(end.UnixMilli(), intervals[0].TimeEndedEpoch.Int64)
}

func (s *AnalysisStoreSuite) TestCloseOpenIntervalNoneOpen() {
	s.NoError(s.intervals.CloseOpenInterval(s.ctx, "sess-1", s.base))
}

func (s *AnalysisStoreSuite) TestGetDistractedAnalyses() {
	s.append(0, true)
	s.append(30*time.Second, false)
	s.append(60*time.Second, false)

	distracted, err := s.analyses.GetDistractedAnalyses(s.ctx, "sess-1")
	s.Require().NoError(err)
	s.Len(distracted, 2)
	for _, a := range distracted {
		s.False(a.Focused)
	}
}

func (s *AnalysisStoreSuite) TestCountAnalyses() {
	count, err := s.analyses.CountAnalyses(s.ctx, "sess-1")
	s.Require().NoError(err)
	s.Zero(count)

	s.append(0, true)
	s.append(30*time.Second, false)

	count, err = s.analyses.CountAnalyses(s.ctx, "sess-1")
	s.Require().NoError(err)
	s.Equal(int64(2), count)
}

// NudgeStoreSuite covers nudge persistence.
type NudgeStoreSuite struct {
	suite.Suite
	store  *Store
	nudges *NudgeStore
	ctx    context.Context
}

func (s *NudgeStoreSuite) SetupTest() {
	s.store = testStore(s.T())
	s.nudges = NewNudgeStore(s.store)
	s.ctx = context.Background()

	_, err := NewSessionStore(s.store).CreateSession(s.ctx, "sess-1", "study")
	s.Require().NoError(err)
}

func TestNudgeStoreSuite(t *testing.T) {
	suite.Run(t, new(NudgeStoreSuite))
}

func (s *NudgeStoreSuite) TestAppendAndGetNudges() {
	base := time.Now().Truncate(time.Second)

	_, err := s.nudges.AppendNudge(s.ctx, models.NewNudge("sess-1", base, "scrolling a feed"))
	s.Require().NoError(err)
	_, err = s.nudges.AppendNudge(s.ctx, models.NewNudge("sess-1", base.Add(5*time.Minute), "watching videos"))
	s.Require().NoError(err)

	nudges, err := s.nudges.GetNudges(s.ctx, "sess-1")
	s.Require().NoError(err)
	s.Require().Len(nudges, 2)
	s.Equal("scrolling a feed", nudges[0].Reason)
	s.Equal("watching videos", nudges[1].Reason)

	count, err := s.nudges.CountNudges(s.ctx, "sess-1")
	s.Require().NoError(err)
	s.Equal(int64(2), count)
}

func (s *NudgeStoreSuite) TestLastNudgeAt() {
	last, err := s.nudges.LastNudgeAt(s.ctx, "sess-1")
	s.Require().NoError(err)
	s.True(last.IsZero())

	at := time.Now().Truncate(time.Second)
	_, err = s.nudges.AppendNudge(s.ctx, models.NewNudge("sess-1", at, "off task"))
	s.Require().NoError(err)

	last, err = s.nudges.LastNudgeAt(s.ctx, "sess-1")
	s.Require().NoError(err)
	s.Equal(at.UnixMilli(), last.UnixMilli())
}
